package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/VoiceLink/internal/adapters/http"
	"github.com/dkeye/VoiceLink/internal/adapters/lk"
	"github.com/dkeye/VoiceLink/internal/app"
	"github.com/dkeye/VoiceLink/internal/app/orch"
	"github.com/dkeye/VoiceLink/internal/app/session"
	"github.com/dkeye/VoiceLink/internal/config"
	"github.com/dkeye/VoiceLink/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.ApplyLogLevel()
	cfg.Watch(func(next *config.Config) {
		next.ApplyLogLevel()
	})

	engine := lk.NewEngine()
	handleOpts := core.DefaultHandleOptions()
	handleOpts.AutoSubscribe = cfg.AutoSubscribe

	reg := app.NewRegistry(func(sid core.SessionID) *session.Mapper {
		logger := log.With().Str("module", "app.session").Str("sid", string(sid)).Logger()
		return session.NewMapper(engine, session.Config{
			Logger:        &logger,
			Policy:        session.SimplePolicy{MaxMissed: 8},
			HandleOptions: &handleOpts,
		})
	})

	o := &orch.Orchestrator{
		Registry:   reg,
		Limiter:    orch.NewConnectLimiter(cfg.ConnectLimit, cfg.ConnectInterval),
		DefaultURL: cfg.LiveKitURL,
	}
	go o.SweepLoop(ctx, cfg.SessionIdleTimeout)

	r := router.SetupRouter(ctx, cfg, o)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Str("livekit", cfg.LiveKitURL).Msg("VoiceLink server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	reg.CloseAll()
	log.Info().Msg("Server exited gracefully")
}
