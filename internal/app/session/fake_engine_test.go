package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/dkeye/VoiceLink/internal/domain"
)

// fakeEngine is an in-memory session engine. Tests drive it by emitting
// events on its handles.
type fakeEngine struct {
	mu            sync.Mutex
	handles       []*fakeHandle
	connectErr    error
	disconnectErr error
	block         chan struct{}
	// onConnect runs inside Connect after any block is released.
	onConnect func(h *fakeHandle)
	roomName      string
	local         domain.ParticipantInfo
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		roomName: "standup",
		local:    domain.ParticipantInfo{Identity: "me", Name: "Me"},
	}
}

func (e *fakeEngine) NewHandle(opts core.HandleOptions) core.SessionHandle {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := &fakeHandle{
		id:     fmt.Sprintf("fake-%d", len(e.handles)+1),
		opts:   opts,
		engine: e,
		local:  e.local,
	}
	e.handles = append(e.handles, h)
	return h
}

func (e *fakeEngine) setConnectErr(err error) {
	e.mu.Lock()
	e.connectErr = err
	e.mu.Unlock()
}

func (e *fakeEngine) handleCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handles)
}

func (e *fakeEngine) last() *fakeHandle {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.handles) == 0 {
		return nil
	}
	return e.handles[len(e.handles)-1]
}

// live counts handles that still have listeners attached.
func (e *fakeEngine) live() int {
	e.mu.Lock()
	hs := append([]*fakeHandle(nil), e.handles...)
	e.mu.Unlock()
	n := 0
	for _, h := range hs {
		if h.listenerCount() > 0 {
			n++
		}
	}
	return n
}

type fakeHandle struct {
	id     string
	opts   core.HandleOptions
	engine *fakeEngine

	mu              sync.Mutex
	listeners       []core.EventHandler
	local           domain.ParticipantInfo
	remotes         []domain.ParticipantInfo
	connected       bool
	connectCalls    int
	disconnectCalls int
}

func (h *fakeHandle) ID() string { return h.id }

func (h *fakeHandle) Connect(ctx context.Context, _, _ string) error {
	h.mu.Lock()
	h.connectCalls++
	h.mu.Unlock()

	h.engine.mu.Lock()
	block, err, hook := h.engine.block, h.engine.connectErr, h.engine.onConnect
	h.engine.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if hook != nil {
		hook(h)
	}
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.connected = true
	h.mu.Unlock()
	return nil
}

func (h *fakeHandle) Disconnect(context.Context) error {
	h.mu.Lock()
	h.disconnectCalls++
	h.connected = false
	h.mu.Unlock()
	return h.engine.disconnectErr
}

func (h *fakeHandle) Listen(l core.EventHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, l)
}

func (h *fakeHandle) RemoveAllListeners() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = nil
}

func (h *fakeHandle) listenerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

func (h *fakeHandle) Name() string { return h.engine.roomName }

func (h *fakeHandle) LocalParticipant() domain.ParticipantInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.local
}

func (h *fakeHandle) RemoteParticipants() []domain.ParticipantInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.ParticipantInfo(nil), h.remotes...)
}

func (h *fakeHandle) emit(evt core.Event) {
	h.mu.Lock()
	ls := append([]core.EventHandler(nil), h.listeners...)
	h.mu.Unlock()
	for _, l := range ls {
		l(evt)
	}
}

func (h *fakeHandle) join(identity string) {
	h.mu.Lock()
	h.remotes = append(h.remotes, domain.ParticipantInfo{Identity: identity, Name: identity})
	h.mu.Unlock()
	h.emit(core.Event{Type: core.EventParticipantJoined, Identity: identity})
}

func (h *fakeHandle) leave(identity string) {
	h.mu.Lock()
	kept := h.remotes[:0]
	for _, p := range h.remotes {
		if p.Identity != identity {
			kept = append(kept, p)
		}
	}
	h.remotes = kept
	h.mu.Unlock()
	h.emit(core.Event{Type: core.EventParticipantLeft, Identity: identity})
}

// settle waits until every event queued so far has been applied.
func settle(t testing.TB, m *Mapper) {
	t.Helper()
	done := make(chan struct{})
	m.enqueue(func() { close(done) })
	select {
	case <-done:
	case <-m.done:
	case <-time.After(2 * time.Second):
		t.Fatal("mapper did not settle in time")
	}
}

var errTokenExpired = errors.New("token expired")
