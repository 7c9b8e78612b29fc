package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/dkeye/VoiceLink/internal/domain"
)

func TestClassifyMessage(t *testing.T) {
	cases := []struct {
		msg      string
		category ErrorCategory
		want     string
	}{
		{"token expired", CategoryToken, MsgToken},
		{"Authorization header missing", CategoryToken, MsgToken},
		{"could not establish signal connection: invalid token", CategoryToken, MsgToken},
		{"dial tcp 127.0.0.1:7880: connect: ECONNREFUSED", CategoryNetwork, MsgNetwork},
		{"Network is unreachable", CategoryNetwork, MsgNetwork},
		{"i/o timeout", CategoryNetwork, MsgNetwork},
		{"Failed to fetch", CategoryNetwork, MsgNetwork},
		{"service unavailable", CategoryServer, MsgServer},
		{"Internal Server Error", CategoryServer, MsgServer},
		{"unexpected status 502", CategoryServer, MsgServer},
		{"Bad Gateway", CategoryServer, MsgServer},
		{"permission denied", CategoryUnclassified, "permission denied"},
		{"room is full (4500 participants)", CategoryUnclassified, "room is full (4500 participants)"},
	}
	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			got := ClassifyMessage(tc.msg)
			assert.Equal(t, tc.category, got.Category)
			assert.Equal(t, tc.want, got.Message)
		})
	}
}

func TestClassifyMessage_TokenWinsOverNetwork(t *testing.T) {
	got := ClassifyMessage("token validation timeout")
	assert.Equal(t, CategoryToken, got.Category)
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, CategoryNone, ClassifyError(nil).Category)
	assert.Equal(t, MsgToken, ClassifyError(fmt.Errorf("preflight: %w", core.ErrTokenExpired)).Message)
	assert.Equal(t, MsgToken, ClassifyError(core.ErrTokenInvalid).Message)
	assert.Equal(t, MsgNetwork, ClassifyError(fmt.Errorf("join: %w", core.ErrUnreachable)).Message)
	assert.Equal(t, MsgServer, ClassifyError(core.ErrServerUnavailable).Message)
	assert.Equal(t, "weird", ClassifyError(errors.New("weird")).Message)
}

func TestClassifyDisconnect(t *testing.T) {
	_, isErr := ClassifyDisconnect(domain.ReasonClientInitiated)
	assert.False(t, isErr)

	for reason, want := range map[domain.DisconnectReason]string{
		domain.ReasonDuplicateIdentity:  MsgDuplicateIdentity,
		domain.ReasonRoomDeleted:        MsgRoomDeleted,
		domain.ReasonParticipantRemoved: MsgParticipantRemoved,
		domain.ReasonServerShutdown:     MsgConnectionLost,
		domain.ReasonJoinFailure:        MsgConnectionLost,
		"":                              MsgConnectionLost,
	} {
		c, isErr := ClassifyDisconnect(reason)
		assert.True(t, isErr, reason)
		assert.Equal(t, want, c.Message, reason)
	}
}

func TestMapQuality(t *testing.T) {
	assert.Equal(t, domain.QualityExcellent, MapQuality("EXCELLENT"))
	assert.Equal(t, domain.QualityExcellent, MapQuality("Excellent"))
	assert.Equal(t, domain.QualityGood, MapQuality("good"))
	assert.Equal(t, domain.QualityPoor, MapQuality("POOR"))
	assert.Equal(t, domain.QualityUnknown, MapQuality("LOST"))
	assert.Equal(t, domain.QualityUnknown, MapQuality(""))
}
