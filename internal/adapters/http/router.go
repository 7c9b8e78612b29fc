package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceLink/internal/adapters/signal"
	"github.com/dkeye/VoiceLink/internal/app/orch"
	"github.com/dkeye/VoiceLink/internal/app/session"
	"github.com/dkeye/VoiceLink/internal/config"
	"github.com/dkeye/VoiceLink/internal/core"
)

const (
	sessionCookie  = "VoiceLinkSessions"
	clientTokenKey = "client_token"
)

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

// ClientTokenMiddleware keeps a stable client token in the cookie session.
// The token identifies the UI session context a mapper is mounted under.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		token, _ := s.Get(clientTokenKey).(string)
		if token == "" {
			token = genClientToken()
			s.Set(clientTokenKey, token)
			if err := s.Save(); err != nil {
				log.Error().Err(err).Str("module", "adapters.http").Msg("save session cookie")
			}
		}
		c.Set(clientTokenKey, token)
		c.Next()
	}
}

// MountedSession puts the client's mapper into the request context. Reading
// state without a mounted session is a client bug and fails fast.
func MountedSession(o *orch.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := o.Mapper(core.SessionID(c.GetString(clientTokenKey)))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.Request = c.Request.WithContext(session.NewContext(c.Request.Context(), m))
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions(sessionCookie, store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := &handlers{orch: o, cfg: cfg}
	api := r.Group("/api")
	api.GET("/config", h.config)

	sess := api.Group("/session")
	sess.POST("/connect", h.connect)
	sess.POST("/disconnect", h.disconnect)
	sess.DELETE("", h.unmount)

	mounted := sess.Group("", MountedSession(o))
	mounted.GET("", h.state)
	mounted.GET("/status", h.status)
	mounted.GET("/participants", h.participants)
	mounted.GET("/quality", h.quality)

	ws := signal.NewSessionWSController(o, cfg.ReadLimit, cfg.PingPeriod)
	api.GET("/ws/session", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString(clientTokenKey)).Msg("ws session endpoint hit")
		ws.HandleSession(ctx, c)
	})

	return r
}
