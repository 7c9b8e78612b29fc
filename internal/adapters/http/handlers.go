package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceLink/internal/app/orch"
	"github.com/dkeye/VoiceLink/internal/app/session"
	"github.com/dkeye/VoiceLink/internal/config"
	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/dkeye/VoiceLink/internal/domain"
)

type handlers struct {
	orch *orch.Orchestrator
	cfg  *config.Config
}

type ConfigResponse struct {
	LiveKitURL    string `json:"livekitUrl"`
	APIURL        string `json:"apiUrl"`
	AutoSubscribe bool   `json:"autoSubscribe"`
}

func sid(c *gin.Context) core.SessionID {
	return core.SessionID(c.GetString(clientTokenKey))
}

func (h *handlers) config(c *gin.Context) {
	c.JSON(http.StatusOK, ConfigResponse{
		LiveKitURL:    h.cfg.LiveKitURL,
		APIURL:        h.cfg.APIURL,
		AutoSubscribe: h.cfg.AutoSubscribe,
	})
}

func (h *handlers) connect(c *gin.Context) {
	var req domain.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid connect payload"})
		return
	}
	st, err := h.orch.Connect(c.Request.Context(), sid(c), req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *handlers) disconnect(c *gin.Context) {
	st, err := h.orch.Disconnect(c.Request.Context(), sid(c))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *handlers) unmount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"unmounted": h.orch.Unmount(sid(c))})
}

func (h *handlers) state(c *gin.Context) {
	if st, ok := mountedState(c); ok {
		c.JSON(http.StatusOK, st)
	}
}

func (h *handlers) status(c *gin.Context) {
	if st, ok := mountedState(c); ok {
		c.JSON(http.StatusOK, st.StatusView())
	}
}

func (h *handlers) participants(c *gin.Context) {
	if st, ok := mountedState(c); ok {
		c.JSON(http.StatusOK, st.ParticipantsView())
	}
}

func (h *handlers) quality(c *gin.Context) {
	if st, ok := mountedState(c); ok {
		c.JSON(http.StatusOK, st.QualityView())
	}
}

func mountedState(c *gin.Context) (domain.RoomState, bool) {
	m, err := session.FromContext(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return domain.RoomState{}, false
	}
	return m.State(), true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrInvalidConnect):
		return http.StatusBadRequest
	case errors.Is(err, orch.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, orch.ErrNoSession), errors.Is(err, session.ErrMapperClosed):
		return http.StatusConflict
	default:
		log.Error().Err(err).Str("module", "adapters.http").Msg("unexpected error")
		return http.StatusInternalServerError
	}
}
