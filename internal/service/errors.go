package service

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionBusy        = errors.New("session is busy with another operation")
	ErrSubmissionInFlight = errors.New("a submission is already in flight for this session")
	ErrSessionCompleted   = errors.New("session is completed, reset to start over")
	ErrAtFirstQuestion    = errors.New("already at the first question")
	ErrNotFinished        = errors.New("session has no final prompt yet")
	ErrArchiveDisabled    = errors.New("prompt archive is not configured")
	ErrAnswerRequired     = errors.New("answer is required")
)

// TransportError is a submission that never produced a usable reply: the
// request could not be made, or the service answered with a non-2xx status.
type TransportError struct {
	StatusCode int    // 0 when no response was received
	Body       string // truncated response body, if any
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("generation service returned %d", e.StatusCode)
	}
	if e.Err != nil {
		return "generation service unreachable: " + e.Err.Error()
	}
	return "generation service request failed"
}

func (e *TransportError) Unwrap() error { return e.Err }
