package blackjack

import (
	"math"

	"blackjack-lite/counting"

	"github.com/shopspring/decimal"
)

// All edge figures are percentage points; positive favours the house.
var (
	referenceEdge = decimal.RequireFromString("0.40")

	deltaHitsSoft17    = decimal.RequireFromString("0.22")
	deltaPays6to5      = decimal.RequireFromString("1.45")
	deltaPays2to1      = decimal.RequireFromString("-2.27")
	deltaENHC          = decimal.RequireFromString("0.11")
	deltaNoDAS         = decimal.RequireFromString("0.14")
	deltaLateSurrender = decimal.RequireFromString("-0.08")
	deltaEarlySurr     = decimal.RequireFromString("-0.24")
	deltaResplitAces   = decimal.RequireFromString("-0.08")
	deltaHitSplitAces  = decimal.RequireFromString("-0.19")

	deckCoefficient        = decimal.RequireFromString("-0.58")
	penetrationCoefficient = decimal.RequireFromString("-0.10")
	referenceDecks         = decimal.NewFromInt(6)
	referencePenetration   = decimal.RequireFromString("0.75")

	// advantagePerTrueCount is the player gain per unit of Hi-Lo true count.
	advantagePerTrueCount = decimal.RequireFromString("0.5")
	hiLoEfficiency        = 0.51
)

// EdgeTerm is one additive contribution to the house edge.
type EdgeTerm struct {
	Rule  string          `json:"rule"`
	Delta decimal.Decimal `json:"delta"`
}

// EdgeBreakdown lists the reference edge followed by every non-zero rule
// adjustment. Terms are independent; joint-rule effects are not modelled.
func EdgeBreakdown(r Rules) []EdgeTerm {
	terms := []EdgeTerm{{Rule: "reference", Delta: referenceEdge}}
	add := func(rule string, d decimal.Decimal) {
		if !d.IsZero() {
			terms = append(terms, EdgeTerm{Rule: rule, Delta: d})
		}
	}

	if r.DealerHitsSoft17 {
		add("dealer_hits_soft_17", deltaHitsSoft17)
	}
	switch r.BlackjackPays {
	case Pays6to5:
		add("blackjack_pays_6_5", deltaPays6to5)
	case Pays2to1:
		add("blackjack_pays_2_1", deltaPays2to1)
	}
	if r.ENHC {
		add("enhc", deltaENHC)
	}
	if !r.DAS {
		add("no_das", deltaNoDAS)
	}
	// early surrender already includes everything late surrender offers
	if r.EarlySurrender {
		add("early_surrender", deltaEarlySurr)
	} else if r.LateSurrender {
		add("late_surrender", deltaLateSurrender)
	}
	if r.ResplitAces {
		add("resplit_aces", deltaResplitAces)
	}
	if r.HitSplitAces {
		add("hit_split_aces", deltaHitSplitAces)
	}
	if r.NumDecks > 0 {
		inv := decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(r.NumDecks)))
		refInv := decimal.NewFromInt(1).Div(referenceDecks)
		add("num_decks", deckCoefficient.Mul(inv.Sub(refInv)).Round(4))
	}
	if r.Penetration > 0 {
		p := decimal.NewFromFloat(r.Penetration)
		add("penetration", penetrationCoefficient.Mul(p.Sub(referencePenetration)).Round(4))
	}
	return terms
}

// HouseEdge sums EdgeBreakdown.
func HouseEdge(r Rules) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range EdgeBreakdown(r) {
		sum = sum.Add(t.Delta)
	}
	return sum
}

// CountAdjustedEV returns the player's expected value in percent for the
// given house edge and unrounded true count. The per-count gain is scaled by
// the system's playing efficiency relative to Hi-Lo.
func CountAdjustedEV(houseEdge decimal.Decimal, trueCount float64, system counting.System) decimal.Decimal {
	gain := advantagePerTrueCount.Mul(efficiencyScale(system))
	return houseEdge.Neg().Add(decimal.NewFromFloat(trueCount).Mul(gain)).Round(4)
}

func efficiencyScale(system counting.System) decimal.Decimal {
	if system.PlayingEfficiency <= 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromFloat(system.PlayingEfficiency / hiLoEfficiency)
}

// RecommendBetUnits sizes the next bet from the unrounded true count: zero
// when wonging out, otherwise one unit per whole true count, at least one
// and at most MaxUnits.
func RecommendBetUnits(trueCount float64, r Rules) int {
	if r.BetRamp.WongOut && trueCount <= r.BetRamp.WongOutAt {
		return 0
	}
	maxUnits := r.BetRamp.MaxUnits
	if maxUnits < 1 {
		maxUnits = 1
	}
	if trueCount >= float64(maxUnits) {
		return maxUnits
	}
	if trueCount < 1 {
		return 1
	}
	return int(math.Floor(trueCount))
}
