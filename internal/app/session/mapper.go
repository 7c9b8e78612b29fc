// Package session bridges a session engine's event stream to a consistent,
// race-free snapshot of connection state for UI consumption.
//
// A Mapper owns at most one engine handle at a time. Engine callbacks only
// enqueue work; a single loop goroutine applies events in arrival order, so
// the state record is mutated by one writer at a time. Every handle is tagged
// with a generation number and work from a superseded generation is dropped.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"

	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/dkeye/VoiceLink/internal/domain"
)

var (
	ErrInvalidConnect = errors.New("url and token are required")
	ErrMapperClosed   = errors.New("session mapper closed")
)

const (
	taskQueueSize   = 64
	teardownTimeout = 5 * time.Second
)

type Config struct {
	Logger        *zerolog.Logger
	Policy        Policy
	HandleOptions *core.HandleOptions
}

// record is the single authoritative state. Readers only ever see the
// derived snapshot built by view().
type record struct {
	status       domain.ConnectionStatus
	roomName     string
	participants []domain.ParticipantInfo
	quality      domain.ConnectionQuality
	err          *string
}

func resetRecord() record {
	return record{status: domain.StatusDisconnected, quality: domain.QualityUnknown}
}

type Mapper struct {
	engine     core.SessionEngine
	handleOpts core.HandleOptions
	logger     zerolog.Logger

	mu     sync.Mutex
	handle core.SessionHandle
	gen    uint64
	state  record
	closed bool
	// ended is set once the current generation reported a terminal
	// disconnect; a handshake finishing afterwards must not revive it.
	ended bool

	inflight singleflight.Group
	watchers *watchers

	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
}

func NewMapper(engine core.SessionEngine, cfg Config) *Mapper {
	logger := log.With().Str("module", "app.session").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	opts := core.DefaultHandleOptions()
	if cfg.HandleOptions != nil {
		opts = *cfg.HandleOptions
	}
	m := &Mapper{
		engine:     engine,
		handleOpts: opts,
		logger:     logger,
		state:      resetRecord(),
		tasks:      make(chan func(), taskQueueSize),
		done:       make(chan struct{}),
	}
	m.watchers = newWatchers(cfg.Policy, &m.logger)
	go m.loop()
	return m
}

func (m *Mapper) loop() {
	for {
		select {
		case <-m.done:
			return
		case task := <-m.tasks:
			task()
		}
	}
}

func (m *Mapper) enqueue(task func()) {
	select {
	case m.tasks <- task:
	case <-m.done:
	}
}

// Connect opens the session. Only precondition failures are returned;
// engine failures are classified into State().Error.
//
// If a handshake on the current handle is already in flight, Connect joins
// it instead of creating another handle. Connecting an already connected
// session is a no-op.
func (m *Mapper) Connect(ctx context.Context, url, token string, opts ...core.HandleOption) error {
	if err := (domain.ConnectRequest{URL: url, Token: token}).Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConnect, err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrMapperClosed
	}
	if m.handle != nil && m.state.status == domain.StatusConnected {
		id := m.handle.ID()
		m.mu.Unlock()
		m.logger.Debug().Str("handle", id).Msg("already connected")
		return nil
	}
	m.state.status = domain.StatusConnecting
	m.state.err = nil
	h, gen := m.handle, m.gen
	if h == nil {
		ho := m.handleOpts
		for _, fn := range opts {
			fn(&ho)
		}
		m.gen++
		gen = m.gen
		h = m.engine.NewHandle(ho)
		// listeners go on before the handshake so early events are not missed
		h.Listen(m.listenerFor(gen, h))
		m.handle = h
		m.logger.Info().Str("handle", h.ID()).Uint64("gen", gen).Msg("session handle created")
	}
	m.publishLocked()
	m.mu.Unlock()

	_, _, shared := m.inflight.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		m.handshake(ctx, gen, h, url, token)
		return nil, nil
	})
	if shared {
		m.logger.Debug().Str("handle", h.ID()).Msg("joined in-flight connect")
	}
	return nil
}

func (m *Mapper) handshake(ctx context.Context, gen uint64, h core.SessionHandle, url, token string) {
	m.mu.Lock()
	if gen == m.gen {
		m.ended = false
	}
	m.mu.Unlock()

	m.logger.Info().Str("handle", h.ID()).Str("url", url).Msg("connecting")
	err := h.Connect(ctx, url, token)

	var (
		name  string
		parts []domain.ParticipantInfo
	)
	if err == nil {
		name = h.Name()
		parts = participantsOf(h)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.gen {
		m.logger.Debug().Str("handle", h.ID()).Uint64("gen", gen).Msg("discarding superseded handshake result")
		return
	}
	if err != nil {
		c := ClassifyError(err)
		m.logger.Error().Err(err).Str("handle", h.ID()).Str("category", c.Category.String()).Msg("connection failed")
		m.state = resetRecord()
		m.state.err = errMessage(c)
		m.publishLocked()
		return
	}
	if m.ended {
		m.logger.Warn().Str("handle", h.ID()).Msg("session ended during handshake")
		return
	}
	m.state.status = domain.StatusConnected
	m.state.roomName = name
	m.state.participants = parts
	m.logger.Info().Str("handle", h.ID()).Str("room", name).Int("participants", len(parts)).Msg("connected")
	m.publishLocked()
}

// Disconnect tears down the current handle, if any, and resets every derived
// field. It always succeeds; engine teardown problems are logged only.
func (m *Mapper) Disconnect(ctx context.Context) {
	m.mu.Lock()
	h := m.detachLocked()
	m.publishLocked()
	m.mu.Unlock()

	if h != nil {
		m.release(ctx, h)
	}
}

// Close is the mandatory teardown path for when the owning UI session goes
// away. It releases the handle and closes every watcher.
func (m *Mapper) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		h := m.detachLocked()
		m.mu.Unlock()

		if h != nil {
			ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
			m.release(ctx, h)
			cancel()
		}
		m.watchers.closeAll()
		close(m.done)
		m.logger.Info().Msg("session mapper closed")
	})
}

func (m *Mapper) detachLocked() core.SessionHandle {
	h := m.handle
	m.handle = nil
	// bumping the generation invalidates in-flight handshakes and queued events
	m.gen++
	m.ended = false
	m.state = resetRecord()
	return h
}

func (m *Mapper) release(ctx context.Context, h core.SessionHandle) {
	if err := h.Disconnect(ctx); err != nil {
		m.logger.Warn().Err(err).Str("handle", h.ID()).Msg("error disconnecting from room")
	}
	h.RemoveAllListeners()
	m.logger.Info().Str("handle", h.ID()).Msg("session handle released")
}

// State returns the derived snapshot. Participants are only exposed while
// connected, which keeps "connected iff exactly one local entry" true.
func (m *Mapper) State() domain.RoomState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

// Watch subscribes to snapshots. The current snapshot is delivered first.
func (m *Mapper) Watch(buffer int) (*Watcher, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watchers.add(buffer, m.viewLocked())
}

// Watching reports how many watchers are subscribed.
func (m *Mapper) Watching() int {
	return m.watchers.count()
}

func (m *Mapper) viewLocked() domain.RoomState {
	s := domain.DisconnectedState()
	s.Status = m.state.status
	s.RoomName = m.state.roomName
	s.Quality = m.state.quality
	if m.state.err != nil {
		e := *m.state.err
		s.Error = &e
	}
	if m.state.status == domain.StatusConnected {
		s.Participants = append(s.Participants, m.state.participants...)
	}
	return s
}

func (m *Mapper) publishLocked() {
	m.watchers.publish(m.viewLocked())
}

// participantsOf rebuilds the full membership list from the engine's current
// view: the local participant first, then remotes in engine order.
func participantsOf(h core.SessionHandle) []domain.ParticipantInfo {
	local := h.LocalParticipant()
	local.IsLocal = true
	remotes := lo.Map(h.RemoteParticipants(), func(p domain.ParticipantInfo, _ int) domain.ParticipantInfo {
		p.IsLocal = false
		return p
	})
	return append([]domain.ParticipantInfo{local}, remotes...)
}

func errMessage(c Classification) *string {
	msg := c.Message
	if msg == "" {
		msg = MsgConnectionLost
	}
	return &msg
}
