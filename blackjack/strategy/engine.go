package strategy

import (
	"fmt"

	"blackjack-lite/blackjack"
	"blackjack-lite/card"
	"blackjack-lite/counting"
)

// InsuranceIndex is the rounded true count at which insurance is taken.
const InsuranceIndex = 3

// Engine turns (hand, upcard, true count, rules) into a Recommendation. It
// holds only immutable tables and is safe to share.
type Engine struct {
	systems *counting.Registry
	charts  map[variant]chart
}

// New builds and validates every chart variant. A chart with a hole fails
// here with ErrMissingStrategyEntry instead of at lookup time.
func New(systems *counting.Registry) (*Engine, error) {
	e := &Engine{
		systems: systems,
		charts:  make(map[variant]chart, 4),
	}
	for _, das := range []bool{true, false} {
		for _, h17 := range []bool{false, true} {
			v := variant{DAS: das, H17: h17}
			c, err := buildChart(v)
			if err != nil {
				return nil, err
			}
			if err := c.validate(); err != nil {
				return nil, fmt.Errorf("chart das=%v h17=%v: %w", das, h17, err)
			}
			e.charts[v] = c
		}
	}
	return e, nil
}

// MustNew is New for static wiring; it panics on a defective chart.
func MustNew(systems *counting.Registry) *Engine {
	e, err := New(systems)
	if err != nil {
		panic(err)
	}
	return e
}

// Recommend runs the decision procedure. Insurance is reported alongside
// the action; for the action the first matching tier of surrender, index
// deviation and basic strategy wins.
func (e *Engine) Recommend(q HandQuery, trueCount float64, rules blackjack.Rules) (Recommendation, error) {
	if err := q.Validate(); err != nil {
		return Recommendation{}, err
	}
	system, err := e.systems.Get(rules.CountingSystem)
	if err != nil {
		return Recommendation{}, err
	}

	rtc := blackjack.RoundTrueCount(trueCount)
	rec := Recommendation{
		TrueCount:           trueCount,
		RoundedTrueCount:    rtc,
		CountAdjustedEV:     blackjack.CountAdjustedEV(blackjack.HouseEdge(rules), trueCount, system),
		RecommendedBetUnits: blackjack.RecommendBetUnits(trueCount, rules),
	}

	// tier 1
	insuranceNote := ""
	if q.DealerUpcard == card.RankA && rules.Insurance {
		if rtc >= InsuranceIndex {
			rec.TakeInsurance = true
			insuranceNote = fmt.Sprintf(" Insurance: take it, true count %d >= %d.", rtc, InsuranceIndex)
		} else {
			insuranceNote = fmt.Sprintf(" Insurance: decline, true count %d < %d.", rtc, InsuranceIndex)
		}
	}

	play, err := e.playWithoutSurrenderSet(q, rtc, rules)
	if err != nil {
		return Recommendation{}, err
	}

	// tier 2
	if rules.SurrenderAllowed() && inSurrenderSet(q, rules) {
		rec.Action = blackjack.ActionSurrender
		rec.Fallback = play.Action
		rec.Tier = TierSurrender
		rec.Reasoning = fmt.Sprintf("Surrender: %s is in the surrender set; otherwise %s.", q, play.Action)
		rec.Reasoning += insuranceNote
		return rec, nil
	}

	rec.Action = play.Action
	rec.Fallback = play.Fallback
	rec.Tier = play.Tier
	rec.Deviation = play.Deviation
	rec.Reasoning = play.Reasoning + insuranceNote
	return rec, nil
}

// playWithoutSurrenderSet covers tiers 3 and 4.
func (e *Engine) playWithoutSurrenderSet(q HandQuery, rtc int, rules blackjack.Rules) (Recommendation, error) {
	for i := range deviations {
		d := deviations[i]
		if !d.applies(q, rtc, rules) {
			continue
		}
		fallback := d.Fallback
		if d.Action == blackjack.ActionSurrender || d.Action == blackjack.ActionSplit {
			basic, err := e.basic(q, rules)
			if err != nil {
				return Recommendation{}, err
			}
			fallback = basic.Action
		}
		return Recommendation{
			Action:    d.Action,
			Fallback:  fallback,
			Tier:      TierDeviation,
			Deviation: &d,
			Reasoning: fmt.Sprintf("Index deviation: %s -> %s at TC >= %d (true count %d).",
				q, d.Action, d.MinTrueCount, rtc),
		}, nil
	}

	cl, err := e.basic(q, rules)
	if err != nil {
		return Recommendation{}, err
	}
	return Recommendation{
		Action:    cl.Action,
		Fallback:  cl.Fallback,
		Tier:      TierBasic,
		Reasoning: fmt.Sprintf("Basic strategy: %s -> %s.", q, cl.Action),
	}, nil
}

func (e *Engine) basic(q HandQuery, rules blackjack.Rules) (cell, error) {
	c, ok := e.charts[variantOf(rules)]
	if !ok {
		return cell{}, fmt.Errorf("%w: no chart for das=%v h17=%v", ErrMissingStrategyEntry, rules.DAS, rules.DealerHitsSoft17)
	}
	return c.lookup(q)
}

// BasicAction returns the chart play for q, ignoring the count.
func (e *Engine) BasicAction(q HandQuery, rules blackjack.Rules) (blackjack.Action, error) {
	if err := q.Validate(); err != nil {
		return blackjack.ActionNone, err
	}
	cl, err := e.basic(q, rules)
	if err != nil {
		return blackjack.ActionNone, err
	}
	return cl.Action, nil
}
