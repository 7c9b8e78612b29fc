package core

import (
	"context"

	"github.com/dkeye/VoiceLink/internal/domain"
)

// SessionID identifies one UI session context (a client token).
type SessionID string

// SessionEngine creates session handles. The engine owns transport,
// signalling and reconnection; this layer only observes it.
type SessionEngine interface {
	NewHandle(opts HandleOptions) SessionHandle
}

// SessionHandle is one engine-level session. It is owned by exactly one mapper
// and is never shared.
type SessionHandle interface {
	// ID is a log-friendly identifier, unique per handle.
	ID() string
	// Connect performs the network handshake. It blocks until the handshake
	// completes, fails or ctx is done.
	Connect(ctx context.Context, url, token string) error
	// Disconnect is best-effort teardown; the returned error is a warning.
	Disconnect(ctx context.Context) error

	// Listen registers h for lifecycle events. Handlers may be called from
	// any goroutine.
	Listen(h EventHandler)
	RemoveAllListeners()

	// Read accessors over the engine's current view of the session.
	Name() string
	LocalParticipant() domain.ParticipantInfo
	RemoteParticipants() []domain.ParticipantInfo
}

// HandleOptions configure a handle at creation time.
type HandleOptions struct {
	AutoSubscribe bool
}

type HandleOption func(*HandleOptions)

func DefaultHandleOptions() HandleOptions {
	return HandleOptions{AutoSubscribe: true}
}

func WithAutoSubscribe(v bool) HandleOption {
	return func(o *HandleOptions) { o.AutoSubscribe = v }
}
