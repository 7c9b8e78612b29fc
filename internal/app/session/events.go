package session

import (
	"strings"

	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/dkeye/VoiceLink/internal/domain"
)

// listenerFor binds an event handler to one handle generation. The handler
// runs on engine goroutines, so it only enqueues.
func (m *Mapper) listenerFor(gen uint64, h core.SessionHandle) core.EventHandler {
	return func(evt core.Event) {
		m.enqueue(func() { m.onEvent(gen, h, evt) })
	}
}

func (m *Mapper) onEvent(gen uint64, h core.SessionHandle, evt core.Event) {
	// Engine accessors are read without holding m.mu.
	var (
		name  string
		parts []domain.ParticipantInfo
	)
	switch evt.Type {
	case core.EventConnected:
		name = h.Name()
		parts = participantsOf(h)
	case core.EventReconnected, core.EventParticipantJoined, core.EventParticipantLeft:
		parts = participantsOf(h)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.gen {
		m.logger.Debug().Str("handle", h.ID()).Str("event", string(evt.Type)).Msg("dropping stale event")
		return
	}
	if m.apply(evt, name, parts) {
		m.publishLocked()
	}
}

// apply performs one state transition and reports whether anything changed.
// Events that do not match an edge of the status machine are ignored.
func (m *Mapper) apply(evt core.Event, name string, parts []domain.ParticipantInfo) bool {
	s := &m.state
	switch evt.Type {
	case core.EventConnected:
		if s.status == domain.StatusDisconnected {
			return false
		}
		s.status = domain.StatusConnected
		s.roomName = name
		s.participants = parts

	case core.EventDisconnected:
		prevErr := s.err
		*s = resetRecord()
		m.ended = true
		c, isErr := ClassifyDisconnect(evt.Reason)
		if isErr {
			s.err = errMessage(c)
		} else {
			// intentional disconnect leaves the error untouched
			s.err = prevErr
		}
		m.logger.Info().Str("reason", string(evt.Reason)).Str("category", c.Category.String()).Msg("disconnected")

	case core.EventReconnecting:
		if s.status != domain.StatusConnected {
			return false
		}
		s.status = domain.StatusReconnecting
		m.logger.Warn().Msg("reconnecting")

	case core.EventReconnected:
		if s.status != domain.StatusReconnecting && s.status != domain.StatusConnected {
			return false
		}
		s.status = domain.StatusConnected
		s.participants = parts
		s.err = nil
		m.logger.Info().Msg("reconnected")

	case core.EventParticipantJoined, core.EventParticipantLeft:
		if s.status == domain.StatusDisconnected {
			return false
		}
		s.participants = parts
		m.logger.Debug().Str("identity", evt.Identity).Str("event", string(evt.Type)).Int("participants", len(parts)).Msg("participants recomputed")

	case core.EventQualityChanged:
		if !evt.IsLocal || s.status == domain.StatusDisconnected {
			return false
		}
		q := MapQuality(evt.Quality)
		if q == s.quality {
			return false
		}
		s.quality = q

	default:
		m.logger.Warn().Str("event", string(evt.Type)).Msg("unknown engine event")
		return false
	}
	return true
}

// MapQuality folds engine-specific quality levels into the four UI values.
func MapQuality(level string) domain.ConnectionQuality {
	switch strings.ToLower(level) {
	case "excellent":
		return domain.QualityExcellent
	case "good":
		return domain.QualityGood
	case "poor":
		return domain.QualityPoor
	default:
		return domain.QualityUnknown
	}
}
