// Package agent runs the search loop: generate a query, execute it in the
// browser, record the outcome, recover from browser crashes, and pace the
// cycles with randomized delays.
package agent

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"searchagent/internal/browser"
	"searchagent/internal/query"
	"searchagent/internal/runlog"
	"searchagent/internal/timing"
)

// Generator produces the next search query.
type Generator interface {
	Generate(ctx context.Context) query.Generated
}

// Searcher executes one search and recovers from session faults.
type Searcher interface {
	ExecuteSearch(ctx context.Context, q string) (browser.Outcome, error)
	Recover(ctx context.Context) bool
}

// Recorder persists one row per completed cycle.
type Recorder interface {
	Append(row runlog.Row) error
}

// Config paces the loop.
type Config struct {
	// MinDelay and MaxDelay bound the randomized pause between cycles.
	MinDelay time.Duration
	MaxDelay time.Duration
}

// Summary is the final tally of a run.
type Summary struct {
	Planned   int
	Completed int
	Successes int
	Failures  int
	// Fatal is set when the browser died and could not be recovered.
	Fatal   bool
	Elapsed time.Duration
}

// SuccessRate returns successes over completed cycles as a percentage.
func (s Summary) SuccessRate() float64 {
	if s.Completed == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Completed) * 100
}

// Agent owns one run of the search loop.
type Agent struct {
	cfg      Config
	gen      Generator
	searcher Searcher
	rec      Recorder
	rng      timing.Rand
	sleeper  timing.Sleeper
	out      io.Writer
	log      *zap.Logger
}

// New assembles an agent. The writer receives the operator-facing progress
// lines; pass io.Discard to silence them.
func New(cfg Config, gen Generator, searcher Searcher, rec Recorder, rng timing.Rand, sleeper timing.Sleeper, out io.Writer, log *zap.Logger) *Agent {
	return &Agent{
		cfg:      cfg,
		gen:      gen,
		searcher: searcher,
		rec:      rec,
		rng:      rng,
		sleeper:  sleeper,
		out:      out,
		log:      log.Named("agent"),
	}
}

// Run executes up to cycles searches. It stops early when the context is
// cancelled or the browser dies beyond recovery. One crash per cycle is
// recovered; the failed cycle is counted and the loop moves on.
func (a *Agent) Run(ctx context.Context, cycles int) Summary {
	sum := Summary{Planned: cycles}
	start := time.Now()

	for i := 1; i <= cycles; i++ {
		if ctx.Err() != nil {
			a.log.Info("run cancelled", zap.Int("completed", sum.Completed))
			break
		}

		fmt.Fprintf(a.out, "\n[CYCLE] %d/%d\n", i, cycles)
		g := a.gen.Generate(ctx)
		fmt.Fprintf(a.out, "[QUERY] %s (%s/%s)\n", g.Text, g.Category, g.QueryType)

		outcome, err := a.searcher.ExecuteSearch(ctx, g.Text)
		sum.Completed++
		if outcome.Success {
			sum.Successes++
			fmt.Fprintf(a.out, "[SUCCESS] Completed in %.2fs\n", outcome.ExecutionTime)
		} else {
			sum.Failures++
			fmt.Fprintf(a.out, "[FAIL] %s\n", outcome.Locator)
		}

		if rerr := a.rec.Append(runlog.Row{
			Timestamp:     time.Now(),
			Query:         g.Text,
			Locator:       outcome.Locator,
			Success:       outcome.Success,
			ExecutionTime: outcome.ExecutionTime,
			Category:      g.Category,
			QueryType:     g.QueryType,
		}); rerr != nil {
			a.log.Error("failed to record cycle", zap.Int("cycle", i), zap.Error(rerr))
		}

		if err != nil && browser.IsSessionFault(err) {
			a.log.Warn("browser session fault, attempting recovery",
				zap.Int("cycle", i), zap.Error(err))
			if !a.searcher.Recover(ctx) {
				// A Ctrl-C landing mid-recovery is a graceful stop, not a
				// dead browser.
				if ctx.Err() != nil {
					a.log.Info("recovery interrupted", zap.Int("completed", sum.Completed))
					break
				}
				sum.Fatal = true
				fmt.Fprintf(a.out, "[FAIL] Browser could not be recovered, stopping\n")
				break
			}
			fmt.Fprintf(a.out, "[PROGRESS] Browser session recovered\n")
		}

		fmt.Fprintf(a.out, "[PROGRESS] %d/%d successful\n", sum.Successes, sum.Completed)

		if i < cycles {
			if err := a.pause(ctx); err != nil {
				break
			}
		}
	}

	sum.Elapsed = time.Since(start)
	return sum
}

// pause waits a random delay between cycles, printing a one-line countdown
// that rewrites itself every second.
func (a *Agent) pause(ctx context.Context) error {
	delay := timing.Duration(a.rng, a.cfg.MinDelay, a.cfg.MaxDelay)
	for remaining := int(delay.Round(time.Second).Seconds()); remaining > 0; remaining-- {
		fmt.Fprintf(a.out, "\r[WAIT] Next search in: %2ds", remaining)
		if err := a.sleeper.Sleep(ctx, time.Second); err != nil {
			fmt.Fprintln(a.out)
			return err
		}
	}
	fmt.Fprintf(a.out, "\r%s\r", "                              ")
	return nil
}
