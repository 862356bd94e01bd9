package extractor

import (
	"errors"
	"fmt"
)

// Kind classifies extraction failures so the boundary layer can tell
// "tool refused" apart from "tool ran but gave garbage".
type Kind int

const (
	// KindInvalidInput: the request was rejected before any subprocess
	// was spawned (missing or malformed URL, unknown format ID).
	KindInvalidInput Kind = iota
	// KindToolUnavailable: the executable is missing or not runnable.
	KindToolUnavailable
	// KindToolExecutionFailed: the tool exited nonzero.
	KindToolExecutionFailed
	// KindMalformedOutput: zero exit but unparseable payload.
	KindMalformedOutput
	// KindToolTimedOut: no exit within the wall-clock budget; the
	// subprocess was force-terminated.
	KindToolTimedOut
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindToolUnavailable:
		return "tool unavailable"
	case KindToolExecutionFailed:
		return "tool execution failed"
	case KindMalformedOutput:
		return "malformed output"
	case KindToolTimedOut:
		return "tool timed out"
	}
	return "unknown"
}

// Error is a typed extraction failure. Diagnostic holds captured stderr
// text; it is meant for logs, not for end users.
type Error struct {
	Kind       Kind
	Op         string
	URL        string
	Diagnostic string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s (url=%s)", e.Op, e.Kind, e.URL)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Diagnostic != "" {
		msg += " | " + e.Diagnostic
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from an error chain. Non-extraction
// errors report as KindToolExecutionFailed.
func KindOf(err error) Kind {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindToolExecutionFailed
}

// NewInvalidInput builds an input-rejection error; no subprocess is
// involved, so there is never a diagnostic.
func NewInvalidInput(op, url string, err error) *Error {
	return &Error{Kind: KindInvalidInput, Op: op, URL: url, Err: err}
}
