package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"searchagent/internal/humanize"
	"searchagent/internal/timing"
)

// State tracks where a session is in its lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateInSearch
	StateCrashed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateInSearch:
		return "in_search"
	case StateCrashed:
		return "crashed"
	default:
		return "uninitialized"
	}
}

// Outcome is the result of one search attempt. Locator carries the result
// page URL on success and a diagnostic tag ("timeout", "error: ...") on
// failure.
type Outcome struct {
	Success       bool
	Locator       string
	ExecutionTime float64
}

// SessionConfig carries the search target and its page contract.
type SessionConfig struct {
	SearchURL       string
	InputSelector   string
	SubmitSelector  string
	ResultsSelector string

	// PageTimeout bounds each wait for the input box and the results
	// container.
	PageTimeout time.Duration
	// RecoveryCooldown is the pause before relaunching a crashed browser.
	RecoveryCooldown time.Duration
}

// DefaultSessionConfig targets Bing with the selectors its search page has
// carried for years.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		SearchURL:        "https://www.bing.com",
		InputSelector:    "#sb_form_q",
		SubmitSelector:   "#search_icon",
		ResultsSelector:  "#b_results",
		PageTimeout:      15 * time.Second,
		RecoveryCooldown: 5 * time.Second,
	}
}

const preSubmitMin = 500 * time.Millisecond
const preSubmitMax = 2 * time.Second

// Session executes searches against one live browser. It owns exactly one
// Driver at a time; a faulted driver is discarded and Recover builds a
// fresh one under a new handle.
type Session struct {
	cfg       SessionConfig
	newDriver func() Driver
	drv       Driver
	handle    string
	state     State
	sim       *humanize.Simulator
	rng       timing.Rand
	sleeper   timing.Sleeper
	log       *zap.Logger
}

// NewSession wires a session around a driver factory. The factory is invoked
// on Launch and again on every successful Recover.
func NewSession(cfg SessionConfig, newDriver func() Driver, sim *humanize.Simulator, rng timing.Rand, sleeper timing.Sleeper, log *zap.Logger) *Session {
	return &Session{
		cfg:       cfg,
		newDriver: newDriver,
		state:     StateUninitialized,
		sim:       sim,
		rng:       rng,
		sleeper:   sleeper,
		log:       log.Named("browser"),
	}
}

// Handle identifies the current browser instance; it changes on recovery.
func (s *Session) Handle() string { return s.handle }

// State returns the session's lifecycle state.
func (s *Session) State() State { return s.state }

// Launch starts a fresh browser. The session must not already hold one.
func (s *Session) Launch(ctx context.Context) error {
	if s.drv != nil {
		return fmt.Errorf("session already launched")
	}
	drv := s.newDriver()
	if err := drv.Start(ctx); err != nil {
		_ = drv.Close()
		return fmt.Errorf("launch browser: %w", err)
	}
	s.drv = drv
	s.handle = uuid.New().String()
	s.state = StateReady
	s.log.Info("browser session started", zap.String("handle", s.handle))
	return nil
}

// ExecuteSearch runs one full search: navigate, type the query with human
// pacing, submit, wait for results, then idle on the result page. The
// returned error is non-nil only when the browser session itself died;
// timeouts and page-level failures are reported through the Outcome alone.
func (s *Session) ExecuteSearch(ctx context.Context, query string) (Outcome, error) {
	if s.state != StateReady {
		return Outcome{Locator: "error: session not ready"},
			fmt.Errorf("execute search: session is %s", s.state)
	}
	s.state = StateInSearch
	start := time.Now()

	err := s.search(ctx, query)
	elapsed := time.Since(start).Seconds()
	if err == nil {
		s.state = StateReady
		locator, uerr := s.drv.PageURL(ctx)
		if uerr != nil {
			locator = s.cfg.SearchURL
		}
		return Outcome{Success: true, Locator: locator, ExecutionTime: elapsed}, nil
	}
	return s.fail(err, elapsed)
}

func (s *Session) search(ctx context.Context, query string) error {
	if err := s.drv.Navigate(ctx, s.cfg.SearchURL); err != nil {
		return err
	}

	box, err := s.drv.WaitElement(ctx, s.cfg.InputSelector, s.cfg.PageTimeout)
	if err != nil {
		return err
	}
	if err := box.Clear(ctx); err != nil {
		return err
	}
	if err := s.sim.Type(ctx, box, query); err != nil {
		return err
	}

	if err := s.sleeper.Sleep(ctx, timing.Duration(s.rng, preSubmitMin, preSubmitMax)); err != nil {
		return err
	}
	if err := s.submit(ctx, box); err != nil {
		return err
	}

	if _, err := s.drv.WaitElement(ctx, s.cfg.ResultsSelector, s.cfg.PageTimeout); err != nil {
		return err
	}

	s.sim.PostSearch(ctx, s.drv)
	return nil
}

// submit presses Enter or clicks the search button, chosen at random. A
// missing button falls back to Enter rather than failing the search.
func (s *Session) submit(ctx context.Context, box Element) error {
	if s.rng.Intn(2) == 0 {
		return box.Enter(ctx)
	}
	btn, err := s.drv.Element(ctx, s.cfg.SubmitSelector)
	if err != nil {
		if Kind(err) == KindElementNotFound {
			s.log.Debug("search button missing, falling back to enter",
				zap.String("selector", s.cfg.SubmitSelector))
			return box.Enter(ctx)
		}
		return err
	}
	return btn.Click(ctx)
}

// fail translates a search error into an Outcome. Session faults also mark
// the session crashed and surface the error to the caller; everything else
// leaves the session ready for the next cycle.
func (s *Session) fail(err error, elapsed float64) (Outcome, error) {
	switch Kind(err) {
	case KindSessionFault:
		s.state = StateCrashed
		s.log.Warn("browser session faulted",
			zap.String("handle", s.handle), zap.Error(err))
		return Outcome{Locator: fmt.Sprintf("error: %v", err), ExecutionTime: elapsed}, err
	case KindTimeout:
		s.state = StateReady
		s.log.Debug("search timed out", zap.Error(err))
		return Outcome{Locator: "timeout", ExecutionTime: elapsed}, nil
	default:
		s.state = StateReady
		s.log.Debug("search failed", zap.Error(err))
		return Outcome{Locator: fmt.Sprintf("error: %v", err), ExecutionTime: elapsed}, nil
	}
}

// Recover tears the crashed browser down, waits out the cooldown, and
// launches a replacement under a new handle. It reports whether the session
// is usable again.
func (s *Session) Recover(ctx context.Context) bool {
	s.log.Info("recovering browser session", zap.String("handle", s.handle))
	if s.drv != nil {
		_ = s.drv.Close()
		s.drv = nil
	}
	s.state = StateUninitialized
	s.handle = ""

	if err := s.sleeper.Sleep(ctx, s.cfg.RecoveryCooldown); err != nil {
		return false
	}
	if err := s.Launch(ctx); err != nil {
		s.log.Error("recovery failed", zap.Error(err))
		return false
	}
	return true
}

// Close shuts the browser down. Safe to call repeatedly.
func (s *Session) Close() error {
	if s.drv == nil {
		return nil
	}
	err := s.drv.Close()
	s.drv = nil
	s.state = StateUninitialized
	return err
}
