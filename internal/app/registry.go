package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/dkeye/VoiceLink/internal/app/session"
	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/dkeye/VoiceLink/internal/domain"
)

type sessionEntry struct {
	Mapper   *session.Mapper
	LastSeen time.Time
}

// MapperFactory builds the mapper for a newly mounted UI session.
type MapperFactory func(sid core.SessionID) *session.Mapper

// Registry owns one session mapper per UI session context.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
	factory  MapperFactory
	now      func() time.Time
}

func NewRegistry(factory MapperFactory) *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
		factory:  factory,
		now:      time.Now,
	}
}

func (r *Registry) GetOrCreate(sid core.SessionID) *session.Mapper {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		e.LastSeen = r.now()
		return e.Mapper
	}
	m := r.factory(sid)
	r.sessions[sid] = &sessionEntry{Mapper: m, LastSeen: r.now()}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("mounted session")
	return m
}

func (r *Registry) Get(sid core.SessionID) (*session.Mapper, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil, false
	}
	e.LastSeen = r.now()
	return e.Mapper, true
}

// Unbind removes the session and runs the mapper's teardown.
func (r *Registry) Unbind(sid core.SessionID) bool {
	r.mu.Lock()
	e, ok := r.sessions[sid]
	delete(r.sessions, sid)
	r.mu.Unlock()
	if !ok {
		return false
	}
	e.Mapper.Close()
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unmounted session")
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep unmounts disconnected sessions that have not been touched for idle.
// Connected or watched sessions are never swept.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []*sessionEntry
	for sid, e := range r.sessions {
		if e.LastSeen.After(cutoff) {
			continue
		}
		if e.Mapper.State().Status != domain.StatusDisconnected || e.Mapper.Watching() > 0 {
			continue
		}
		stale = append(stale, e)
		delete(r.sessions, sid)
		log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("sweeping idle session")
	}
	r.mu.Unlock()

	for _, e := range stale {
		e.Mapper.Close()
	}
	return len(stale)
}

// CloseAll tears down every mounted session concurrently.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	entries := r.sessions
	r.sessions = make(map[core.SessionID]*sessionEntry)
	r.mu.Unlock()

	var wg conc.WaitGroup
	for _, e := range entries {
		m := e.Mapper
		wg.Go(m.Close)
	}
	wg.Wait()
	log.Info().Str("module", "app.registry").Int("sessions", len(entries)).Msg("closed all sessions")
}
