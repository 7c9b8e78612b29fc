package domain

import (
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// RoomState is a consistent snapshot of one session connection.
type RoomState struct {
	Status       ConnectionStatus  `json:"status"`
	RoomName     string            `json:"roomName,omitempty"`
	Participants []ParticipantInfo `json:"participants"`
	Quality      ConnectionQuality `json:"connectionQuality"`
	Error        *string           `json:"error"`
}

// DisconnectedState is the reset value every mapper starts from.
func DisconnectedState() RoomState {
	return RoomState{
		Status:       StatusDisconnected,
		Participants: []ParticipantInfo{},
		Quality:      QualityUnknown,
	}
}

type StatusView struct {
	Status         ConnectionStatus `json:"status"`
	IsConnected    bool             `json:"isConnected"`
	IsConnecting   bool             `json:"isConnecting"`
	IsReconnecting bool             `json:"isReconnecting"`
	IsDisconnected bool             `json:"isDisconnected"`
	Error          *string          `json:"error"`
}

func (s RoomState) StatusView() StatusView {
	return StatusView{
		Status:         s.Status,
		IsConnected:    s.Status == StatusConnected,
		IsConnecting:   s.Status == StatusConnecting,
		IsReconnecting: s.Status == StatusReconnecting,
		IsDisconnected: s.Status == StatusDisconnected,
		Error:          s.Error,
	}
}

type ParticipantsView struct {
	Participants       []ParticipantInfo `json:"participants"`
	LocalParticipant   *ParticipantInfo  `json:"localParticipant"`
	RemoteParticipants []ParticipantInfo `json:"remoteParticipants"`
	ParticipantCount   int               `json:"participantCount"`
}

func (s RoomState) ParticipantsView() ParticipantsView {
	v := ParticipantsView{
		Participants: s.Participants,
		RemoteParticipants: lo.Filter(s.Participants, func(p ParticipantInfo, _ int) bool {
			return !p.IsLocal
		}),
		ParticipantCount: len(s.Participants),
	}
	if local, ok := lo.Find(s.Participants, func(p ParticipantInfo) bool { return p.IsLocal }); ok {
		v.LocalParticipant = &local
	}
	return v
}

type QualityView struct {
	Quality          ConnectionQuality `json:"quality"`
	IsGoodConnection bool              `json:"isGoodConnection"`
}

func (s RoomState) QualityView() QualityView {
	return QualityView{
		Quality:          s.Quality,
		IsGoodConnection: s.Quality == QualityExcellent || s.Quality == QualityGood,
	}
}

// ConnectRequest is what a UI client sends to open a session.
type ConnectRequest struct {
	URL           string `json:"url" validate:"required"`
	Token         string `json:"token" validate:"required"`
	AutoSubscribe *bool  `json:"autoSubscribe,omitempty"`
}

var validate = validator.New()

func (r ConnectRequest) Validate() error {
	return validate.Struct(r)
}
