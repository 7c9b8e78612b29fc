package session

import (
	"sync"
	"sync/atomic"

	"github.com/dkeye/VoiceLink/internal/domain"
	"github.com/rs/zerolog"
)

// Watcher receives state snapshots. C is closed when the watcher is removed.
type Watcher struct {
	id     int
	C      <-chan domain.RoomState
	ch     chan domain.RoomState
	missed atomic.Int32
}

func (w *Watcher) Missed() int { return int(w.missed.Load()) }

// watchers fans snapshots out to subscribers without ever blocking the
// publisher.
type watchers struct {
	mu     sync.Mutex
	subs   map[int]*Watcher
	nextID int
	closed bool
	policy Policy
	logger *zerolog.Logger
}

func newWatchers(policy Policy, logger *zerolog.Logger) *watchers {
	if policy == nil {
		policy = SimplePolicy{}
	}
	return &watchers{
		subs:   make(map[int]*Watcher),
		policy: policy,
		logger: logger,
	}
}

func (b *watchers) add(buffer int, initial domain.RoomState) (*Watcher, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan domain.RoomState, buffer)
	w := &Watcher{C: ch, ch: ch}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return w, func() {}
	}
	w.id = b.nextID
	b.nextID++
	b.subs[w.id] = w
	ch <- initial
	b.mu.Unlock()

	return w, func() { b.remove(w.id) }
}

func (b *watchers) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if w, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(w.ch)
	}
}

func (b *watchers) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *watchers) publish(s domain.RoomState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, w := range b.subs {
		select {
		case w.ch <- s:
			w.missed.Store(0)
			continue
		default:
		}
		w.missed.Add(1)
		switch b.policy.OnBackPressure(w) {
		case KickWatcher:
			b.logger.Warn().Int("watcher", id).Int("missed", w.Missed()).Msg("kicking lagging watcher")
			delete(b.subs, id)
			close(w.ch)
		case DropSnapshot, NoAction:
			b.logger.Debug().Int("watcher", id).Msg("watcher buffer full, snapshot dropped")
		}
	}
}

func (b *watchers) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, w := range b.subs {
		delete(b.subs, id)
		close(w.ch)
	}
}
