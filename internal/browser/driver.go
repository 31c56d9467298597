// Package browser owns the automated browser session: launch with
// anti-detection options, search execution, crash detection, and recovery.
package browser

import (
	"context"
	"time"
)

// Element is one interactable node on the current page.
type Element interface {
	// Clear empties the element's current value.
	Clear(ctx context.Context) error
	// Press sends a single character keystroke.
	Press(ctx context.Context, r rune) error
	// Enter sends a virtual Enter keystroke.
	Enter(ctx context.Context) error
	// Click performs a left click.
	Click(ctx context.Context) error
}

// Driver is the session-oriented browser interface. Implementations wrap
// exactly one live browser instance and tag every failure with a
// *DriverError so callers never parse error text. A Driver is single-use:
// once the session is faulted it is discarded, never restarted.
type Driver interface {
	// Start launches the browser and prepares a page.
	Start(ctx context.Context) error
	// Navigate loads the given URL.
	Navigate(ctx context.Context, url string) error
	// WaitElement waits up to timeout for the selector to appear.
	// Expiry yields a KindTimeout error.
	WaitElement(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	// Element finds the selector with a short bound; a miss yields
	// KindElementNotFound.
	Element(ctx context.Context, selector string) (Element, error)
	// MoveMouse moves the pointer by a relative offset.
	MoveMouse(ctx context.Context, dx, dy float64) error
	// ScrollBy scrolls the page vertically by dy pixels.
	ScrollBy(ctx context.Context, dy float64) error
	// PageURL returns the current page location.
	PageURL(ctx context.Context) (string, error)
	// Close tears the browser down. Safe to call more than once.
	Close() error
}
