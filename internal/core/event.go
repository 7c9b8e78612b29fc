package core

import "github.com/dkeye/VoiceLink/internal/domain"

type EventType string

const (
	EventConnected         EventType = "connected"
	EventDisconnected      EventType = "disconnected"
	EventReconnecting      EventType = "reconnecting"
	EventReconnected       EventType = "reconnected"
	EventParticipantJoined EventType = "participant_joined"
	EventParticipantLeft   EventType = "participant_left"
	EventQualityChanged    EventType = "quality_changed"
)

// Event is what a handle emits. Only the fields relevant to Type are set.
type Event struct {
	Type EventType

	// EventDisconnected
	Reason domain.DisconnectReason

	// EventParticipantJoined, EventParticipantLeft, EventQualityChanged
	Identity string
	// EventQualityChanged
	IsLocal bool
	Quality string // engine-specific level, e.g. "EXCELLENT"
}

type EventHandler func(Event)
