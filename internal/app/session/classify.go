package session

import (
	"errors"
	"regexp"
	"strings"

	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/dkeye/VoiceLink/internal/domain"
)

type ErrorCategory int

const (
	CategoryNone ErrorCategory = iota
	CategoryToken
	CategoryNetwork
	CategoryServer
	CategoryDuplicateIdentity
	CategoryRoomDeleted
	CategoryParticipantRemoved
	CategoryConnectionLost
	CategoryUnclassified
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryToken:
		return "token"
	case CategoryNetwork:
		return "network"
	case CategoryServer:
		return "server"
	case CategoryDuplicateIdentity:
		return "duplicate_identity"
	case CategoryRoomDeleted:
		return "room_deleted"
	case CategoryParticipantRemoved:
		return "participant_removed"
	case CategoryConnectionLost:
		return "connection_lost"
	default:
		return "unclassified"
	}
}

// User-facing messages. The set is closed; only unclassified failures
// surface the raw engine text.
const (
	MsgToken              = "Session token is invalid or expired. Please start a new session."
	MsgNetwork            = "Unable to connect to the server. Please check your network connection."
	MsgServer             = "The server is currently unavailable. Please try again later."
	MsgDuplicateIdentity  = "You have connected from another device."
	MsgRoomDeleted        = "The room was deleted."
	MsgParticipantRemoved = "You were removed from the room."
	MsgConnectionLost     = "Connection lost. Please rejoin the session."
)

type Classification struct {
	Category ErrorCategory
	Message  string
}

var (
	tokenMarkers   = []string{"token", "authorization", "expired"}
	networkMarkers = []string{"network", "timeout", "refused", "failed to fetch"}
	serverMarkers  = []string{"unavailable", "server", "bad gateway"}
	status5xx      = regexp.MustCompile(`\b5\d\d\b`)
)

// ClassifyMessage maps a free-text failure to a user-facing message.
// Unrecognised text is returned unchanged.
func ClassifyMessage(msg string) Classification {
	lower := strings.ToLower(msg)
	switch {
	case containsAny(lower, tokenMarkers):
		return Classification{CategoryToken, MsgToken}
	case containsAny(lower, networkMarkers):
		return Classification{CategoryNetwork, MsgNetwork}
	case containsAny(lower, serverMarkers) || status5xx.MatchString(lower):
		return Classification{CategoryServer, MsgServer}
	}
	return Classification{CategoryUnclassified, msg}
}

// ClassifyError prefers structured engine errors and falls back to the
// message text.
func ClassifyError(err error) Classification {
	switch {
	case err == nil:
		return Classification{Category: CategoryNone}
	case errors.Is(err, core.ErrTokenExpired), errors.Is(err, core.ErrTokenInvalid):
		return Classification{CategoryToken, MsgToken}
	case errors.Is(err, core.ErrUnreachable):
		return Classification{CategoryNetwork, MsgNetwork}
	case errors.Is(err, core.ErrServerUnavailable):
		return Classification{CategoryServer, MsgServer}
	}
	return ClassifyMessage(err.Error())
}

// ClassifyDisconnect returns false for an intentional, client-initiated
// disconnect. Any other reason yields a message from the fixed set.
func ClassifyDisconnect(reason domain.DisconnectReason) (Classification, bool) {
	switch reason {
	case domain.ReasonClientInitiated:
		return Classification{Category: CategoryNone}, false
	case domain.ReasonDuplicateIdentity:
		return Classification{CategoryDuplicateIdentity, MsgDuplicateIdentity}, true
	case domain.ReasonRoomDeleted:
		return Classification{CategoryRoomDeleted, MsgRoomDeleted}, true
	case domain.ReasonParticipantRemoved:
		return Classification{CategoryParticipantRemoved, MsgParticipantRemoved}, true
	default:
		return Classification{CategoryConnectionLost, MsgConnectionLost}, true
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
