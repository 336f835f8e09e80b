package lobby

import (
	"errors"

	"blackjack-lite/blackjack"
	"blackjack-lite/blackjack/strategy"
	"blackjack-lite/card"
	"blackjack-lite/counting"
	"blackjack-lite/session"
)

// ErrBadRequest marks transport-level decode failures.
var ErrBadRequest = errors.New("bad request")

// ErrorKind groups errors by who is at fault.
type ErrorKind byte

const (
	KindInternal ErrorKind = 0
	KindInvalid  ErrorKind = 1
	KindNotFound ErrorKind = 2
	KindLimit    ErrorKind = 3
)

// Classify maps an engine or lobby error to its kind. Anything not
// recognised as caller input is a defect.
func Classify(err error) ErrorKind {
	var rulesErr blackjack.InvalidRulesError
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return KindNotFound
	case errors.Is(err, ErrTooManySessions):
		return KindLimit
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, session.ErrInvalidEvent),
		errors.Is(err, card.ErrInvalidRank),
		errors.Is(err, card.ErrInvalidBucket),
		errors.Is(err, strategy.ErrInvalidHand),
		errors.Is(err, counting.ErrUnknownSystem),
		errors.As(err, &rulesErr):
		return KindInvalid
	}
	return KindInternal
}
