// Package domain contains session entities without logic, just meta-data
package domain

import "fmt"

// ConnectionStatus is the UI-facing lifecycle of one session connection.
type ConnectionStatus int

const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

func (s ConnectionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ConnectionStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "disconnected":
		*s = StatusDisconnected
	case "connecting":
		*s = StatusConnecting
	case "connected":
		*s = StatusConnected
	case "reconnecting":
		*s = StatusReconnecting
	default:
		return fmt.Errorf("unknown connection status %q", b)
	}
	return nil
}

// ConnectionQuality reflects the local participant's link only.
type ConnectionQuality string

const (
	QualityExcellent ConnectionQuality = "excellent"
	QualityGood      ConnectionQuality = "good"
	QualityPoor      ConnectionQuality = "poor"
	QualityUnknown   ConnectionQuality = "unknown"
)

// DisconnectReason is the engine-reported cause of a terminal disconnect.
// Values follow the LiveKit reason codes.
type DisconnectReason string

const (
	ReasonClientInitiated    DisconnectReason = "CLIENT_INITIATED"
	ReasonDuplicateIdentity  DisconnectReason = "DUPLICATE_IDENTITY"
	ReasonServerShutdown     DisconnectReason = "SERVER_SHUTDOWN"
	ReasonParticipantRemoved DisconnectReason = "PARTICIPANT_REMOVED"
	ReasonRoomDeleted        DisconnectReason = "ROOM_DELETED"
	ReasonJoinFailure        DisconnectReason = "JOIN_FAILURE"
	ReasonSignalClose        DisconnectReason = "SIGNAL_CLOSE"
	ReasonUnknown            DisconnectReason = "UNKNOWN_REASON"
)
