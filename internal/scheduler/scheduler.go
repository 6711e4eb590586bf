// Package scheduler runs the periodic refresh sweep that pre-empts
// access-token expiry so interactive reads never pay refresh latency.
package scheduler

import (
	"context"
	"time"

	"github.com/smallbiznis/linkpulse/internal/clock"
	tokendomain "github.com/smallbiznis/linkpulse/internal/token/domain"
	"go.uber.org/zap"
)

const sweepTimeout = 5 * time.Minute

type Config struct {
	Interval time.Duration
	Window   time.Duration
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 24 * time.Hour
	}
	if c.Window <= 0 {
		c.Window = 24 * time.Hour
	}
	return c
}

type Scheduler struct {
	log    *zap.Logger
	cfg    Config
	clock  clock.Clock
	tokens tokendomain.Service
}

func New(log *zap.Logger, cfg Config, clk clock.Clock, tokens tokendomain.Service) *Scheduler {
	return &Scheduler{
		log:    log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:    cfg.withDefaults(),
		clock:  clk,
		tokens: tokens,
	}
}

// RunOnce executes one sweep with a bounded deadline. The sweep itself
// never returns an error; failures are inside the result.
func (s *Scheduler) RunOnce(parent context.Context) tokendomain.SweepResult {
	ctx, cancel := context.WithTimeout(parent, sweepTimeout)
	defer cancel()

	start := s.clock.Now()
	result := s.tokens.SweepExpiring(ctx, s.cfg.Window)
	s.log.Info("sweep run complete",
		zap.Time("started_at", start),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
	return result
}

// RunForever ticks on the configured interval until the context ends.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}
