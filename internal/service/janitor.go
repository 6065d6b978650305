package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const minJanitorInterval = 10 * time.Second

// SessionJanitor periodically evicts idle turn sessions so an abandoned
// turn does not pin a game to this instance.
type SessionJanitor struct {
	turns    *TurnService
	ttl      time.Duration
	interval time.Duration
}

// NewSessionJanitor creates a SessionJanitor that checks four times per ttl.
func NewSessionJanitor(turns *TurnService, ttl time.Duration) *SessionJanitor {
	interval := ttl / 4
	if interval < minJanitorInterval {
		interval = minJanitorInterval
	}
	return &SessionJanitor{turns: turns, ttl: ttl, interval: interval}
}

// Start runs until ctx is cancelled.
func (j *SessionJanitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", j.interval).Dur("ttl", j.ttl).Msg("Session janitor started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Session janitor stopped")
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *SessionJanitor) sweep(ctx context.Context) {
	if n := j.turns.EvictIdle(ctx, j.ttl); n > 0 {
		log.Info().Int("evicted", n).Int("remaining", j.turns.SessionCount()).Msg("Janitor evicted idle sessions")
	}
}
