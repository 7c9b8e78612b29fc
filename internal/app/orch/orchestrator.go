package orch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceLink/internal/app"
	"github.com/dkeye/VoiceLink/internal/app/session"
	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/dkeye/VoiceLink/internal/domain"
)

var (
	ErrNoSession   = errors.New("no session mounted for client")
	ErrRateLimited = errors.New("too many connect attempts")
)

// Orchestrator is the entry point adapters use to drive per-client mappers.
type Orchestrator struct {
	Registry *app.Registry
	Limiter  *ConnectLimiter
	// DefaultURL is used when a connect request carries no url.
	DefaultURL string
}

// Connect validates the request and starts the client's session. Engine
// failures are reported through the returned state, not as errors.
func (o *Orchestrator) Connect(ctx context.Context, sid core.SessionID, req domain.ConnectRequest) (domain.RoomState, error) {
	if req.URL == "" {
		req.URL = o.DefaultURL
	}
	if err := req.Validate(); err != nil {
		return domain.RoomState{}, fmt.Errorf("%w: %w", session.ErrInvalidConnect, err)
	}
	if o.Limiter != nil && !o.Limiter.Allow(sid) {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("connect rate limited")
		return domain.RoomState{}, ErrRateLimited
	}

	m := o.Registry.GetOrCreate(sid)
	var opts []core.HandleOption
	if req.AutoSubscribe != nil {
		opts = append(opts, core.WithAutoSubscribe(*req.AutoSubscribe))
	}
	if err := m.Connect(ctx, req.URL, req.Token, opts...); err != nil {
		return domain.RoomState{}, err
	}
	return m.State(), nil
}

func (o *Orchestrator) Disconnect(ctx context.Context, sid core.SessionID) (domain.RoomState, error) {
	m, ok := o.Registry.Get(sid)
	if !ok {
		return domain.DisconnectedState(), nil
	}
	m.Disconnect(ctx)
	return m.State(), nil
}

// Mapper returns the mounted mapper for sid. Reading state for a client that
// never mounted a session is a caller bug and fails fast.
func (o *Orchestrator) Mapper(sid core.SessionID) (*session.Mapper, error) {
	m, ok := o.Registry.Get(sid)
	if !ok {
		return nil, ErrNoSession
	}
	return m, nil
}

// Mount ensures a mapper exists for sid without connecting it.
func (o *Orchestrator) Mount(sid core.SessionID) *session.Mapper {
	return o.Registry.GetOrCreate(sid)
}

// Watch mounts the client's mapper if needed and subscribes to its snapshots.
func (o *Orchestrator) Watch(sid core.SessionID, buffer int) (*session.Watcher, func()) {
	return o.Mount(sid).Watch(buffer)
}

func (o *Orchestrator) State(sid core.SessionID) (domain.RoomState, error) {
	m, err := o.Mapper(sid)
	if err != nil {
		return domain.RoomState{}, err
	}
	return m.State(), nil
}

// Unmount is the UI-teardown path: the mapper releases its handle even if
// Disconnect was never called.
func (o *Orchestrator) Unmount(sid core.SessionID) bool {
	return o.Registry.Unbind(sid)
}

// SweepLoop periodically unmounts idle disconnected sessions until ctx is done.
func (o *Orchestrator) SweepLoop(ctx context.Context, idle time.Duration) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := o.Registry.Sweep(idle); n > 0 {
				log.Info().Str("module", "orch").Int("swept", n).Msg("swept idle sessions")
			}
		}
	}
}
