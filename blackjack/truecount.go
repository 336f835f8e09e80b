package blackjack

import (
	"math"

	"blackjack-lite/card"
)

// DecksRemaining converts a card total into fractional decks.
func DecksRemaining(cards int) float64 {
	return float64(cards) / card.CardsPerDeck
}

// TrueCount normalises the running count per remaining deck. An empty shoe
// yields 0.
func TrueCount(runningCount int, decksRemaining float64) float64 {
	if decksRemaining <= 0 {
		return 0
	}
	return float64(runningCount) / decksRemaining
}

// RoundTrueCount rounds half away from zero; table lookups use this value.
func RoundTrueCount(tc float64) int {
	return int(math.Round(tc))
}
