package strategy

import (
	"blackjack-lite/blackjack"
	"blackjack-lite/card"
)

// Deviation departs from basic strategy once the rounded true count reaches
// MinTrueCount. There is no upper bound.
type Deviation struct {
	HandType     blackjack.HandType `json:"hand_type"`
	HandValue    int                `json:"hand_value"`
	DealerUpcard card.Rank          `json:"dealer_upcard"`
	MinTrueCount int                `json:"min_true_count"`
	Action       blackjack.Action   `json:"action"`
	Fallback     blackjack.Action   `json:"fallback,omitempty"`

	// RequiresSurrender entries only apply when the table offers surrender.
	RequiresSurrender bool `json:"requires_surrender,omitempty"`
}

func (d Deviation) matches(q HandQuery) bool {
	return d.HandType == q.HandType && d.HandValue == q.HandValue && d.DealerUpcard == q.DealerUpcard
}

func (d Deviation) applies(q HandQuery, roundedTC int, r blackjack.Rules) bool {
	if !d.matches(q) || roundedTC < d.MinTrueCount {
		return false
	}
	return !d.RequiresSurrender || r.SurrenderAllowed()
}

func hard(v int, up card.Rank, tc int, a blackjack.Action) Deviation {
	d := Deviation{HandType: blackjack.HandTypeHard, HandValue: v, DealerUpcard: up, MinTrueCount: tc, Action: a}
	if a == blackjack.ActionDouble {
		d.Fallback = blackjack.ActionHit
	}
	return d
}

func soft(v int, up card.Rank, tc int, a blackjack.Action) Deviation {
	d := Deviation{HandType: blackjack.HandTypeSoft, HandValue: v, DealerUpcard: up, MinTrueCount: tc, Action: a}
	if a == blackjack.ActionDouble {
		d.Fallback = blackjack.ActionStand
	}
	return d
}

func pair(v int, up card.Rank, tc int, a blackjack.Action) Deviation {
	return Deviation{HandType: blackjack.HandTypePair, HandValue: v, DealerUpcard: up, MinTrueCount: tc, Action: a}
}

func surrender(v int, up card.Rank, tc int) Deviation {
	d := hard(v, up, tc, blackjack.ActionSurrender)
	d.RequiresSurrender = true
	return d
}

// deviations is evaluated in order; the first applicable entry wins.
var deviations = []Deviation{
	hard(16, card.Rank10, 0, blackjack.ActionStand),
	hard(15, card.Rank10, 4, blackjack.ActionStand),
	pair(10, card.Rank5, 5, blackjack.ActionSplit),
	pair(10, card.Rank6, 4, blackjack.ActionSplit),
	hard(10, card.Rank10, 4, blackjack.ActionDouble),
	hard(12, card.Rank3, 2, blackjack.ActionStand),
	hard(12, card.Rank2, 3, blackjack.ActionStand),
	hard(11, card.RankA, 1, blackjack.ActionDouble),
	hard(9, card.Rank2, 1, blackjack.ActionDouble),
	hard(10, card.RankA, 4, blackjack.ActionDouble),
	hard(9, card.Rank7, 3, blackjack.ActionDouble),
	hard(16, card.Rank9, 5, blackjack.ActionStand),
	hard(8, card.Rank6, 2, blackjack.ActionDouble),
	soft(19, card.Rank6, 3, blackjack.ActionDouble),
	soft(19, card.Rank5, 1, blackjack.ActionDouble),
	soft(19, card.Rank4, 3, blackjack.ActionDouble),
	pair(9, card.Rank7, 3, blackjack.ActionSplit),

	surrender(14, card.Rank10, 3),
	surrender(15, card.Rank9, 2),
	surrender(15, card.RankA, 1),
}

// Deviations returns a copy of the index table in evaluation order.
func Deviations() []Deviation {
	return append([]Deviation(nil), deviations...)
}

type surrenderKey struct {
	Value  int
	Upcard card.Rank
}

// surrenderSet holds the hard totals surrendered whenever surrender is offered.
var surrenderSet = map[surrenderKey]bool{
	{16, card.Rank9}:  true,
	{16, card.Rank10}: true,
	{16, card.RankA}:  true,
	{15, card.Rank10}: true,
}

// surrenderSetH17 adds the hands that become surrenders when the dealer hits
// soft 17.
var surrenderSetH17 = map[surrenderKey]bool{
	{15, card.RankA}: true,
	{17, card.RankA}: true,
}

func inSurrenderSet(q HandQuery, r blackjack.Rules) bool {
	if q.HandType != blackjack.HandTypeHard {
		return false
	}
	k := surrenderKey{Value: q.HandValue, Upcard: q.DealerUpcard}
	if surrenderSet[k] {
		return true
	}
	return r.DealerHitsSoft17 && surrenderSetH17[k]
}
