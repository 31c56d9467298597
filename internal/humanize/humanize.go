// Package humanize simulates human input timing and browsing behavior so
// automated searches are statistically indistinguishable from manual ones.
// All randomness is drawn per call through an injected source; the simulator
// keeps no state between calls.
package humanize

import (
	"context"
	"time"

	"go.uber.org/zap"

	"searchagent/internal/timing"
)

// Typist receives individual keystrokes.
type Typist interface {
	Press(ctx context.Context, r rune) error
}

// Surface accepts pointer movement and scrolling.
type Surface interface {
	MoveMouse(ctx context.Context, dx, dy float64) error
	ScrollBy(ctx context.Context, dy float64) error
}

const (
	keyDelayMin = 50 * time.Millisecond
	keyDelayMax = 150 * time.Millisecond

	thinkChance   = 0.1
	thinkPauseMin = 200 * time.Millisecond
	thinkPauseMax = 800 * time.Millisecond

	settleMin = 1 * time.Second
	settleMax = 3 * time.Second

	scrollBackChance = 0.3
)

// Simulator applies human-like pacing to input and post-search interaction.
type Simulator struct {
	rng     timing.Rand
	sleeper timing.Sleeper
	log     *zap.Logger
}

// NewSimulator creates a simulator using the given randomness and sleep
// sources.
func NewSimulator(rng timing.Rand, sleeper timing.Sleeper, log *zap.Logger) *Simulator {
	return &Simulator{rng: rng, sleeper: sleeper, log: log.Named("humanize")}
}

// Type sends text one keystroke at a time with a 50-150ms gap between
// characters and an independent 10% chance of a 200-800ms thinking pause.
// Keystroke errors propagate (a failed keystroke means a broken search, not
// a cosmetic glitch); sleep errors only occur on cancellation.
func (s *Simulator) Type(ctx context.Context, target Typist, text string) error {
	for _, r := range text {
		if err := target.Press(ctx, r); err != nil {
			return err
		}
		if err := s.sleeper.Sleep(ctx, timing.Duration(s.rng, keyDelayMin, keyDelayMax)); err != nil {
			return err
		}
		if s.rng.Float64() < thinkChance {
			if err := s.sleeper.Sleep(ctx, timing.Duration(s.rng, thinkPauseMin, thinkPauseMax)); err != nil {
				return err
			}
		}
	}
	return nil
}

// PostSearch performs 2-5 random pointer movements, a 300-800px downward
// scroll, a 1-3s settle, and with 30% probability a half-distance scroll
// back. The whole routine is cosmetic: every failure is swallowed and logged
// at debug level. Only context cancellation cuts it short.
func (s *Simulator) PostSearch(ctx context.Context, surface Surface) {
	moves := timing.Range(s.rng, 2, 5)
	for i := 0; i < moves; i++ {
		if ctx.Err() != nil {
			return
		}
		dx := float64(timing.Range(s.rng, -100, 100))
		dy := float64(timing.Range(s.rng, -100, 100))
		if err := surface.MoveMouse(ctx, dx, dy); err != nil {
			s.log.Debug("pointer move failed", zap.Error(err))
		}
	}

	distance := float64(timing.Range(s.rng, 300, 800))
	if err := surface.ScrollBy(ctx, distance); err != nil {
		s.log.Debug("scroll failed", zap.Error(err))
	}

	if err := s.sleeper.Sleep(ctx, timing.Duration(s.rng, settleMin, settleMax)); err != nil {
		return
	}

	if s.rng.Float64() < scrollBackChance {
		if err := surface.ScrollBy(ctx, -distance/2); err != nil {
			s.log.Debug("scroll back failed", zap.Error(err))
		}
	}
}
