// Package lk adapts the LiveKit client SDK to the session engine contract.
package lk

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceLink/internal/core"
)

// Engine creates LiveKit-backed session handles.
type Engine struct {
	logger zerolog.Logger
	now    func() time.Time
}

func NewEngine() *Engine {
	return &Engine{
		logger: log.With().Str("module", "adapters.lk").Logger(),
		now:    time.Now,
	}
}

func (e *Engine) NewHandle(opts core.HandleOptions) core.SessionHandle {
	id := uuid.NewString()
	return &Handle{
		id:     id,
		opts:   opts,
		logger: e.logger.With().Str("handle", id).Logger(),
		now:    e.now,
	}
}
