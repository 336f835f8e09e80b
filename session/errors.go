package session

import (
	"errors"
	"fmt"
)

// ErrInvalidEvent is returned for events that cannot be applied at all:
// unknown type, invalid rank or bucket, missing payload.
var ErrInvalidEvent = errors.New("invalid event")

// ReplayError pins a failed replay to the event that caused it.
type ReplayError struct {
	StepIndex int    `json:"step_index"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`

	err error
}

func (e *ReplayError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("replay error(step=%d reason=%s): %s", e.StepIndex, e.Reason, e.Message)
}

func (e *ReplayError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}
