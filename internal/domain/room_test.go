package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionStatus_String(t *testing.T) {
	assert.Equal(t, "disconnected", StatusDisconnected.String())
	assert.Equal(t, "connecting", StatusConnecting.String())
	assert.Equal(t, "connected", StatusConnected.String())
	assert.Equal(t, "reconnecting", StatusReconnecting.String())
	assert.Equal(t, "unknown", ConnectionStatus(42).String())
}

func TestConnectionStatus_TextRoundTrip(t *testing.T) {
	var s ConnectionStatus
	require.NoError(t, s.UnmarshalText([]byte("reconnecting")))
	assert.Equal(t, StatusReconnecting, s)
	assert.Error(t, s.UnmarshalText([]byte("offline")))
}

func TestRoomState_Views(t *testing.T) {
	state := RoomState{
		Status:   StatusConnected,
		RoomName: "standup",
		Participants: []ParticipantInfo{
			{Identity: "me", Name: "Me", IsLocal: true},
			{Identity: "alice"},
			{Identity: "bob", Metadata: `{"role":"agent"}`},
		},
		Quality: QualityGood,
	}

	t.Run("status", func(t *testing.T) {
		v := state.StatusView()
		assert.True(t, v.IsConnected)
		assert.False(t, v.IsConnecting)
		assert.False(t, v.IsReconnecting)
		assert.False(t, v.IsDisconnected)
		assert.Nil(t, v.Error)
	})

	t.Run("participants", func(t *testing.T) {
		v := state.ParticipantsView()
		require.NotNil(t, v.LocalParticipant)
		assert.Equal(t, "me", v.LocalParticipant.Identity)
		assert.Equal(t, 3, v.ParticipantCount)
		require.Len(t, v.RemoteParticipants, 2)
		assert.Equal(t, "alice", v.RemoteParticipants[0].Identity)
		assert.Equal(t, "bob", v.RemoteParticipants[1].Identity)
	})

	t.Run("quality", func(t *testing.T) {
		assert.True(t, state.QualityView().IsGoodConnection)
		state.Quality = QualityPoor
		assert.False(t, state.QualityView().IsGoodConnection)
	})
}

func TestDisconnectedState(t *testing.T) {
	s := DisconnectedState()
	assert.Equal(t, StatusDisconnected, s.Status)
	assert.Empty(t, s.Participants)
	assert.Equal(t, QualityUnknown, s.Quality)
	assert.Nil(t, s.Error)
	assert.Nil(t, s.ParticipantsView().LocalParticipant)
	assert.False(t, s.QualityView().IsGoodConnection)
}

func TestConnectRequest_Validate(t *testing.T) {
	require.NoError(t, ConnectRequest{URL: "wss://x", Token: "good-token"}.Validate())
	require.Error(t, ConnectRequest{URL: "", Token: "good-token"}.Validate())
	require.Error(t, ConnectRequest{URL: "wss://x"}.Validate())
}
