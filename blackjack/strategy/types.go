package strategy

import (
	"fmt"

	"blackjack-lite/blackjack"
	"blackjack-lite/card"

	"github.com/shopspring/decimal"
)

// Hand value bounds per hand type. Pair values are per card (aces = 11).
const (
	MinHard = 4
	MaxHard = 21
	MinSoft = 12
	MaxSoft = 21
	MinPair = 2
	MaxPair = 11
)

// HandQuery is one recommendation request.
type HandQuery struct {
	HandType     blackjack.HandType `json:"hand_type"`
	HandValue    int                `json:"hand_value"`
	DealerUpcard card.Rank          `json:"dealer_upcard"`
}

func (q HandQuery) Validate() error {
	if !q.DealerUpcard.Valid() {
		return fmt.Errorf("%w: dealer upcard: %w", ErrInvalidHand, card.ErrInvalidRank)
	}
	lo, hi := valueRange(q.HandType)
	if lo == 0 {
		return fmt.Errorf("%w: hand type %d", ErrInvalidHand, byte(q.HandType))
	}
	if q.HandValue < lo || q.HandValue > hi {
		return fmt.Errorf("%w: %s value %d outside %d..%d", ErrInvalidHand, q.HandType, q.HandValue, lo, hi)
	}
	return nil
}

func valueRange(h blackjack.HandType) (int, int) {
	switch h {
	case blackjack.HandTypeHard:
		return MinHard, MaxHard
	case blackjack.HandTypeSoft:
		return MinSoft, MaxSoft
	case blackjack.HandTypePair:
		return MinPair, MaxPair
	}
	return 0, 0
}

// String renders e.g. "hard 16 vs 10", "soft 19 (A,8) vs 6", "pair 9s vs 7".
func (q HandQuery) String() string {
	return fmt.Sprintf("%s vs %s", handLabel(q.HandType, q.HandValue), q.DealerUpcard)
}

func handLabel(h blackjack.HandType, v int) string {
	switch h {
	case blackjack.HandTypeSoft:
		if v >= 13 && v <= 21 {
			kicker, _ := card.RankFromValue(v - 11)
			return fmt.Sprintf("soft %d (A,%s)", v, kicker)
		}
		return fmt.Sprintf("soft %d", v)
	case blackjack.HandTypePair:
		r, err := card.RankFromValue(v)
		if err != nil {
			return fmt.Sprintf("pair %d", v)
		}
		return fmt.Sprintf("pair %ss", r)
	}
	return fmt.Sprintf("%s %d", h, v)
}

// Tier identifies which layer of the decision procedure produced the action.
type Tier byte

const (
	TierNone      Tier = 0
	TierInsurance Tier = 1
	TierSurrender Tier = 2
	TierDeviation Tier = 3
	TierBasic     Tier = 4
)

var TierDictionary = map[Tier]string{
	TierNone:      "none",
	TierInsurance: "insurance",
	TierSurrender: "surrender",
	TierDeviation: "index_deviation",
	TierBasic:     "basic_strategy",
}

func (t Tier) String() string {
	if s, ok := TierDictionary[t]; ok {
		return s
	}
	return "unknown"
}

func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Tier) UnmarshalText(b []byte) error {
	for tier, name := range TierDictionary {
		if tier != TierNone && name == string(b) {
			*t = tier
			return nil
		}
	}
	return fmt.Errorf("unknown tier %q", b)
}

// Recommendation is derived per request and never stored.
type Recommendation struct {
	Action blackjack.Action `json:"action"`
	// Fallback is what to do when Action is not permitted at the table
	// (doubling after three cards, surrender not offered on this hand).
	Fallback blackjack.Action `json:"fallback,omitempty"`
	Tier     Tier             `json:"tier"`
	// Deviation is set when Tier is TierDeviation.
	Deviation *Deviation `json:"deviation,omitempty"`
	Reasoning string     `json:"reasoning"`

	TakeInsurance bool `json:"take_insurance"`

	TrueCount           float64         `json:"true_count"`
	RoundedTrueCount    int             `json:"rounded_true_count"`
	CountAdjustedEV     decimal.Decimal `json:"count_adjusted_ev"`
	RecommendedBetUnits int             `json:"recommended_bet_units"`
}
