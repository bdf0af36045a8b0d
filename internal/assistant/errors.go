package assistant

import (
	"errors"
	"fmt"
)

var (
	// ErrManualUnavailable reports that a manual's index is missing or unreadable.
	ErrManualUnavailable = errors.New("manual unavailable")
	// ErrSessionBusy is returned when a session already has a question in flight.
	ErrSessionBusy = errors.New("session is answering another question")
	// ErrSessionNotFound is returned for unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")
)

// ManualUnavailableError carries the manual and the load failure. It matches
// ErrManualUnavailable with errors.Is.
type ManualUnavailableError struct {
	Manual string
	Err    error
}

func (e *ManualUnavailableError) Error() string {
	return fmt.Sprintf("manual %q unavailable: %v", e.Manual, e.Err)
}

func (e *ManualUnavailableError) Unwrap() error { return e.Err }

func (e *ManualUnavailableError) Is(target error) bool { return target == ErrManualUnavailable }

// StreamError reports a completion that failed after the answer started streaming.
// Partial holds the visible text delivered before the failure.
type StreamError struct {
	Partial string
	Err     error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("answer interrupted: %v", e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }
