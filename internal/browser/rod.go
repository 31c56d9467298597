package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"searchagent/internal/timing"
)

const (
	viewportWidth  = 800
	viewportHeight = 600

	// findTimeout bounds non-waiting element lookups (e.g. the search
	// button, which is already rendered when we look for it).
	findTimeout = 3 * time.Second
)

// userAgents is the pool the launcher draws from to vary the browser
// fingerprint between sessions.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36 Edg/122.0.0.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// RodConfig configures the rod-backed driver.
type RodConfig struct {
	// Bin is the browser binary path; empty lets the launcher discover one.
	Bin      string
	Headless bool
	// UserAgent overrides the randomized pool when set.
	UserAgent string
	Rand      timing.Rand
}

// rodDriver drives a single Chrome instance over CDP with stealth applied.
type rodDriver struct {
	cfg     RodConfig
	lnch    *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page

	// Pointer position tracked for relative movement.
	mouseX, mouseY float64
}

// NewRodDriver creates an unstarted rod driver.
func NewRodDriver(cfg RodConfig) Driver {
	return &rodDriver{cfg: cfg}
}

func (d *rodDriver) Start(ctx context.Context) error {
	l := launcher.New().Headless(d.cfg.Headless)
	if d.cfg.Bin != "" {
		l = l.Bin(d.cfg.Bin)
	}

	// Anti-detection and stability flags.
	l = l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l = l.Set(flags.Flag("disable-extensions"))
	l = l.Set(flags.Flag("no-sandbox"))
	l = l.Set(flags.Flag("disable-dev-shm-usage"))
	l = l.Set(flags.Flag("disable-gpu"))
	l = l.Set(flags.Flag("user-agent"), d.userAgent())

	u, err := l.Launch()
	if err != nil {
		return &DriverError{Kind: KindSessionFault, Op: "launch", Err: err}
	}
	d.lnch = l

	b := rod.New().ControlURL(u).Context(ctx)
	if err := b.Connect(); err != nil {
		d.Close()
		return &DriverError{Kind: KindSessionFault, Op: "connect", Err: err}
	}
	d.browser = b

	// Stealth pages suppress navigator.webdriver and related automation
	// markers.
	page, err := stealth.Page(b)
	if err != nil {
		d.Close()
		return &DriverError{Kind: KindSessionFault, Op: "create page", Err: err}
	}
	d.page = page

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		d.Close()
		return &DriverError{Kind: KindSessionFault, Op: "set viewport", Err: err}
	}

	d.mouseX, d.mouseY = viewportWidth/2, viewportHeight/2
	return nil
}

func (d *rodDriver) Navigate(ctx context.Context, url string) error {
	if d.page == nil {
		return errNoSession("navigate")
	}
	if err := d.page.Context(ctx).Navigate(url); err != nil {
		return d.classify("navigate", err, KindOther)
	}
	return nil
}

func (d *rodDriver) WaitElement(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	if d.page == nil {
		return nil, errNoSession("wait element")
	}
	el, err := d.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return nil, d.classify("wait for "+selector, err, KindTimeout)
	}
	return &rodElement{el: el}, nil
}

func (d *rodDriver) Element(ctx context.Context, selector string) (Element, error) {
	if d.page == nil {
		return nil, errNoSession("find element")
	}
	el, err := d.page.Context(ctx).Timeout(findTimeout).Element(selector)
	if err != nil {
		return nil, d.classify("find "+selector, err, KindElementNotFound)
	}
	return &rodElement{el: el}, nil
}

func (d *rodDriver) MoveMouse(ctx context.Context, dx, dy float64) error {
	if d.page == nil {
		return errNoSession("move mouse")
	}
	x := clamp(d.mouseX+dx, 0, viewportWidth)
	y := clamp(d.mouseY+dy, 0, viewportHeight)
	err := proto.InputDispatchMouseEvent{
		Type: proto.InputDispatchMouseEventTypeMouseMoved,
		X:    x,
		Y:    y,
	}.Call(d.page.Context(ctx))
	if err != nil {
		return d.classify("move mouse", err, KindOther)
	}
	d.mouseX, d.mouseY = x, y
	return nil
}

func (d *rodDriver) ScrollBy(ctx context.Context, dy float64) error {
	if d.page == nil {
		return errNoSession("scroll")
	}
	if _, err := d.page.Context(ctx).Eval(`(dy) => window.scrollBy(0, dy)`, dy); err != nil {
		return d.classify("scroll", err, KindOther)
	}
	return nil
}

func (d *rodDriver) PageURL(ctx context.Context) (string, error) {
	if d.page == nil {
		return "", errNoSession("page url")
	}
	info, err := d.page.Context(ctx).Info()
	if err != nil {
		return "", d.classify("page info", err, KindOther)
	}
	return info.URL, nil
}

func (d *rodDriver) Close() error {
	var err error
	if d.page != nil {
		_ = d.page.Close()
		d.page = nil
	}
	if d.browser != nil {
		err = d.browser.Close()
		d.browser = nil
	}
	if d.lnch != nil {
		d.lnch.Cleanup()
		d.lnch = nil
	}
	return err
}

func (d *rodDriver) userAgent() string {
	if d.cfg.UserAgent != "" {
		return d.cfg.UserAgent
	}
	if d.cfg.Rand != nil {
		return timing.Pick(d.cfg.Rand, userAgents)
	}
	return userAgents[0]
}

// classify wraps a rod error with its kind. Deadline expiry maps to the
// operation's bounded-wait kind; any other failure is probed with a browser
// ping, and a dead connection marks the whole session as faulted.
func (d *rodDriver) classify(op string, err error, deadlineKind ErrorKind) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &DriverError{Kind: deadlineKind, Op: op, Err: err}
	case errors.Is(err, context.Canceled):
		return &DriverError{Kind: KindOther, Op: op, Err: err}
	}
	if d.browser != nil {
		if _, verr := d.browser.Version(); verr != nil {
			return &DriverError{Kind: KindSessionFault, Op: op, Err: err}
		}
	}
	return &DriverError{Kind: KindOther, Op: op, Err: err}
}

func errNoSession(op string) error {
	return &DriverError{Kind: KindSessionFault, Op: op, Err: fmt.Errorf("no live browser session")}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// rodElement adapts *rod.Element to the Element interface.
type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Clear(ctx context.Context) error {
	el := e.el.Context(ctx)
	if err := el.SelectAllText(); err != nil {
		return &DriverError{Kind: KindOther, Op: "clear", Err: err}
	}
	if err := el.Type(input.Backspace); err != nil {
		return &DriverError{Kind: KindOther, Op: "clear", Err: err}
	}
	return nil
}

func (e *rodElement) Press(ctx context.Context, r rune) error {
	if err := e.el.Context(ctx).Input(string(r)); err != nil {
		return &DriverError{Kind: KindOther, Op: "keystroke", Err: err}
	}
	return nil
}

func (e *rodElement) Enter(ctx context.Context) error {
	if err := e.el.Context(ctx).Type(input.Enter); err != nil {
		return &DriverError{Kind: KindOther, Op: "press enter", Err: err}
	}
	return nil
}

func (e *rodElement) Click(ctx context.Context) error {
	if err := e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return &DriverError{Kind: KindOther, Op: "click", Err: err}
	}
	return nil
}
