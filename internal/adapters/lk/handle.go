package lk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/dkeye/VoiceLink/internal/domain"
)

// Handle wraps one lksdk.Room. A fresh Room is built for every handshake so
// a handle left over from a failed connect can be reused. Only the newest
// Room's callbacks reach listeners.
type Handle struct {
	id     string
	opts   core.HandleOptions
	logger zerolog.Logger
	now    func() time.Time

	mu              sync.Mutex
	room            *lksdk.Room
	seq             uint64
	listeners       []core.EventHandler
	clientInitiated bool
}

func (h *Handle) ID() string { return h.id }

func (h *Handle) Connect(ctx context.Context, url, token string) error {
	if err := preflight(token, h.now()); err != nil {
		return err
	}

	h.mu.Lock()
	h.seq++
	seq, prev := h.seq, h.room
	h.room = nil
	h.mu.Unlock()
	if prev != nil {
		h.logger.Debug().Msg("dropping previous room before rejoin")
		prev.Disconnect()
	}

	room := lksdk.NewRoom(h.roomCallback(seq))
	h.mu.Lock()
	h.room = room
	h.clientInitiated = false
	h.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- room.JoinWithToken(url, token, lksdk.WithAutoSubscribe(h.opts.AutoSubscribe))
	}()

	select {
	case err := <-done:
		return translateJoinError(err)
	case <-ctx.Done():
		go func() {
			// join has no cancellation; drop the room once it settles
			if err := <-done; err == nil {
				room.Disconnect()
			}
		}()
		return fmt.Errorf("%w: %w", core.ErrUnreachable, ctx.Err())
	}
}

func (h *Handle) Disconnect(ctx context.Context) error {
	h.mu.Lock()
	room := h.room
	h.clientInitiated = true
	h.mu.Unlock()
	if room == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		room.Disconnect()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("room disconnect: %w", ctx.Err())
	}
}

func (h *Handle) Listen(fn core.EventHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

func (h *Handle) RemoveAllListeners() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = nil
}

func (h *Handle) Name() string {
	room := h.currentRoom()
	if room == nil {
		return ""
	}
	return room.Name()
}

func (h *Handle) LocalParticipant() domain.ParticipantInfo {
	room := h.currentRoom()
	if room == nil || room.LocalParticipant == nil {
		return domain.ParticipantInfo{IsLocal: true}
	}
	lp := room.LocalParticipant
	return domain.ParticipantInfo{
		Identity: lp.Identity(),
		Name:     lp.Name(),
		Metadata: lp.Metadata(),
		IsLocal:  true,
	}
}

func (h *Handle) RemoteParticipants() []domain.ParticipantInfo {
	room := h.currentRoom()
	if room == nil {
		return nil
	}
	return lo.Map(room.GetRemoteParticipants(), func(p *lksdk.RemoteParticipant, _ int) domain.ParticipantInfo {
		return domain.ParticipantInfo{
			Identity: p.Identity(),
			Name:     p.Name(),
			Metadata: p.Metadata(),
		}
	})
}

func (h *Handle) currentRoom() *lksdk.Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.room
}

// emit delivers evt from the Room built for handshake seq. Events from a
// superseded Room are dropped.
func (h *Handle) emit(seq uint64, evt core.Event) {
	h.mu.Lock()
	if seq != h.seq {
		h.mu.Unlock()
		return
	}
	ls := append([]core.EventHandler(nil), h.listeners...)
	h.mu.Unlock()
	for _, fn := range ls {
		fn(evt)
	}
}

func (h *Handle) roomCallback(seq uint64) *lksdk.RoomCallback {
	cb := lksdk.NewRoomCallback()
	cb.OnDisconnectedWithReason = func(reason lksdk.DisconnectionReason) {
		h.mu.Lock()
		self := h.clientInitiated
		h.mu.Unlock()
		h.logger.Debug().Str("reason", string(reason)).Bool("self", self).Msg("room disconnected")
		h.emit(seq, core.Event{Type: core.EventDisconnected, Reason: translateReason(string(reason), self)})
	}
	cb.OnReconnecting = func() {
		h.emit(seq, core.Event{Type: core.EventReconnecting})
	}
	cb.OnReconnected = func() {
		h.emit(seq, core.Event{Type: core.EventReconnected})
	}
	cb.OnParticipantConnected = func(p *lksdk.RemoteParticipant) {
		h.emit(seq, core.Event{Type: core.EventParticipantJoined, Identity: p.Identity()})
	}
	cb.OnParticipantDisconnected = func(p *lksdk.RemoteParticipant) {
		h.emit(seq, core.Event{Type: core.EventParticipantLeft, Identity: p.Identity()})
	}
	cb.ParticipantCallback.OnConnectionQualityChanged = func(update *livekit.ConnectionQualityInfo, p lksdk.Participant) {
		h.emit(seq, qualityEvent(update, p))
	}
	return cb
}

func qualityEvent(update *livekit.ConnectionQualityInfo, p lksdk.Participant) core.Event {
	evt := core.Event{Type: core.EventQualityChanged, Quality: update.GetQuality().String()}
	if _, ok := p.(*lksdk.LocalParticipant); ok {
		evt.IsLocal = true
	} else if p != nil {
		evt.Identity = p.Identity()
	}
	return evt
}

// translateReason maps the SDK's free-form disconnect reason onto the closed
// reason set. A disconnect we asked for is always client initiated.
func translateReason(reason string, self bool) domain.DisconnectReason {
	if self {
		return domain.ReasonClientInitiated
	}
	switch lksdk.DisconnectionReason(reason) {
	case lksdk.LeaveRequested:
		return domain.ReasonClientInitiated
	case lksdk.DuplicateIdentity:
		return domain.ReasonDuplicateIdentity
	case lksdk.RoomClosed:
		return domain.ReasonRoomDeleted
	case lksdk.ParticipantRemoved:
		return domain.ReasonParticipantRemoved
	}

	r := strings.ToLower(reason)
	switch {
	case strings.Contains(r, "leave requested") || strings.Contains(r, "client initiated"):
		return domain.ReasonClientInitiated
	case strings.Contains(r, "duplicate"):
		return domain.ReasonDuplicateIdentity
	case strings.Contains(r, "room") && (strings.Contains(r, "closed") || strings.Contains(r, "deleted")):
		return domain.ReasonRoomDeleted
	case strings.Contains(r, "removed"):
		return domain.ReasonParticipantRemoved
	case strings.Contains(r, "shutdown"):
		return domain.ReasonServerShutdown
	case strings.Contains(r, "join"):
		return domain.ReasonJoinFailure
	case strings.Contains(r, "signal"):
		return domain.ReasonSignalClose
	default:
		return domain.ReasonUnknown
	}
}

func translateJoinError(err error) error {
	if err == nil {
		return nil
	}
	lower := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, lksdk.ErrConnectionTimeout):
		return fmt.Errorf("%w: %w", core.ErrUnreachable, err)
	case strings.Contains(lower, "401") || strings.Contains(lower, "unauthorized"):
		return fmt.Errorf("%w: %w", core.ErrTokenInvalid, err)
	}
	return err
}
