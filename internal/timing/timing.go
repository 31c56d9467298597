// Package timing provides the injectable sleep and randomness primitives
// used to pace the search loop. Every delay in the agent flows through a
// Sleeper so tests can run instantly, and every random draw flows through a
// Rand so tests can script outcomes.
package timing

import (
	"context"
	"math/rand"
	"time"
)

// Sleeper blocks for a duration or until the context is cancelled.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Rand is the subset of math/rand used by the agent. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

type realSleeper struct{}

// NewSleeper returns a Sleeper backed by a real timer.
func NewSleeper() Sleeper {
	return realSleeper{}
}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NewRand returns a time-seeded random source.
func NewRand() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// NewSeededRand returns a deterministic random source for tests.
func NewSeededRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}

// Duration draws a uniform duration in [min, max].
func Duration(r Rand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(r.Intn(int(max-min)+1))
}

// Range draws a uniform int in [min, max].
func Range(r Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + r.Intn(max-min+1)
}

// Pick returns a uniformly chosen element of items.
func Pick(r Rand, items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[r.Intn(len(items))]
}
