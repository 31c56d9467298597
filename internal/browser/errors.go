package browser

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures crossing the driver boundary so callers can
// branch on the kind instead of inspecting error text.
type ErrorKind int

const (
	// KindOther covers failures with no more specific classification.
	KindOther ErrorKind = iota
	// KindTimeout marks a bounded page-state wait that expired.
	KindTimeout
	// KindSessionFault marks the browser session itself as unusable.
	KindSessionFault
	// KindElementNotFound marks a missing page element.
	KindElementNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindSessionFault:
		return "session_fault"
	case KindElementNotFound:
		return "element_not_found"
	default:
		return "other"
	}
}

// DriverError wraps a driver-level failure with its kind and the operation
// that produced it.
type DriverError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}

// Kind extracts the ErrorKind from an error chain; unclassified errors are
// KindOther.
func Kind(err error) ErrorKind {
	var de *DriverError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindOther
}

// IsSessionFault reports whether the error marks the session as unusable.
func IsSessionFault(err error) bool {
	return Kind(err) == KindSessionFault
}
