package strategy

import "errors"

var (
	// ErrMissingStrategyEntry means the basic-strategy chart has a hole. The
	// chart is total, so this is an engine defect, never a usage error.
	ErrMissingStrategyEntry = errors.New("missing basic strategy entry")
	ErrInvalidHand          = errors.New("invalid hand")
)
