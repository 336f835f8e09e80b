package strategy

import (
	"testing"

	"blackjack-lite/blackjack"
	"blackjack-lite/card"
	"blackjack-lite/counting"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(counting.Default())
	require.NoError(t, err)
	return e
}

func hardQ(v int, up card.Rank) HandQuery {
	return HandQuery{HandType: blackjack.HandTypeHard, HandValue: v, DealerUpcard: up}
}

func softQ(v int, up card.Rank) HandQuery {
	return HandQuery{HandType: blackjack.HandTypeSoft, HandValue: v, DealerUpcard: up}
}

func pairQ(v int, up card.Rank) HandQuery {
	return HandQuery{HandType: blackjack.HandTypePair, HandValue: v, DealerUpcard: up}
}

func TestRecommend_ScenarioB_Hard16Vs10StandsAtZero(t *testing.T) {
	e := newTestEngine(t)
	rec, err := e.Recommend(hardQ(16, card.Rank10), 0.3, blackjack.DefaultRules())
	require.NoError(t, err)

	assert.Equal(t, blackjack.ActionStand, rec.Action)
	assert.Equal(t, TierDeviation, rec.Tier)
	require.NotNil(t, rec.Deviation)
	assert.Equal(t, 0, rec.Deviation.MinTrueCount)
	assert.Equal(t, 0, rec.RoundedTrueCount)
	assert.Contains(t, rec.Reasoning, "Index deviation")
	assert.Contains(t, rec.Reasoning, "TC >= 0")
}

func TestRecommend_ScenarioC_Hard16Vs10HitsBelowIndex(t *testing.T) {
	e := newTestEngine(t)
	rec, err := e.Recommend(hardQ(16, card.Rank10), -0.6, blackjack.DefaultRules())
	require.NoError(t, err)

	assert.Equal(t, -1, rec.RoundedTrueCount)
	assert.Equal(t, blackjack.ActionHit, rec.Action)
	assert.Equal(t, TierBasic, rec.Tier)
	assert.Nil(t, rec.Deviation)
	assert.Contains(t, rec.Reasoning, "Basic strategy")
}

func TestRecommend_ScenarioD_InsuranceAlongsideAction(t *testing.T) {
	e := newTestEngine(t)
	rules := blackjack.DefaultRules()
	rules.Insurance = true

	rec, err := e.Recommend(hardQ(16, card.RankA), 2.6, rules)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.RoundedTrueCount)
	assert.True(t, rec.TakeInsurance)
	assert.Equal(t, blackjack.ActionHit, rec.Action)
	assert.NotEqual(t, TierInsurance, rec.Tier)
	assert.Contains(t, rec.Reasoning, "Insurance: take it")

	rec, err = e.Recommend(hardQ(20, card.RankA), 3, rules)
	require.NoError(t, err)
	assert.True(t, rec.TakeInsurance)
	assert.Equal(t, blackjack.ActionStand, rec.Action)
}

func TestRecommend_InsuranceDeclined(t *testing.T) {
	e := newTestEngine(t)
	rules := blackjack.DefaultRules()

	rec, err := e.Recommend(hardQ(16, card.RankA), 2.4, rules)
	require.NoError(t, err)
	assert.False(t, rec.TakeInsurance)

	rules.Insurance = false
	rec, err = e.Recommend(hardQ(16, card.RankA), 8, rules)
	require.NoError(t, err)
	assert.False(t, rec.TakeInsurance)

	rules.Insurance = true
	rec, err = e.Recommend(hardQ(16, card.Rank10), 8, rules)
	require.NoError(t, err)
	assert.False(t, rec.TakeInsurance, "insurance only against an ace")
}

func TestRecommend_SurrenderTierBeatsDeviation(t *testing.T) {
	e := newTestEngine(t)
	rules := blackjack.DefaultRules()
	rules.LateSurrender = true

	rec, err := e.Recommend(hardQ(16, card.Rank10), 1, rules)
	require.NoError(t, err)
	assert.Equal(t, blackjack.ActionSurrender, rec.Action)
	assert.Equal(t, TierSurrender, rec.Tier)
	assert.Equal(t, blackjack.ActionStand, rec.Fallback, "fallback follows the count")

	rec, err = e.Recommend(hardQ(16, card.Rank10), -2, rules)
	require.NoError(t, err)
	assert.Equal(t, blackjack.ActionHit, rec.Fallback)

	for _, q := range []HandQuery{hardQ(16, card.Rank9), hardQ(16, card.RankA), hardQ(15, card.Rank10)} {
		rec, err := e.Recommend(q, 0, rules)
		require.NoError(t, err)
		assert.Equal(t, blackjack.ActionSurrender, rec.Action, q.String())
	}

	// not in the set
	rec, err = e.Recommend(hardQ(15, card.Rank9), 0, rules)
	require.NoError(t, err)
	assert.Equal(t, blackjack.ActionHit, rec.Action)

	// pairs are never surrendered by the set
	rec, err = e.Recommend(pairQ(8, card.Rank10), 0, rules)
	require.NoError(t, err)
	assert.Equal(t, blackjack.ActionSplit, rec.Action)
}

func TestRecommend_NoSurrenderWithoutRule(t *testing.T) {
	e := newTestEngine(t)
	rec, err := e.Recommend(hardQ(16, card.Rank9), 0, blackjack.DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, blackjack.ActionHit, rec.Action)

	rec, err = e.Recommend(hardQ(14, card.Rank10), 5, blackjack.DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, blackjack.ActionHit, rec.Action, "surrender deviations need the rule")
}

func TestRecommend_EarlySurrenderAndH17Set(t *testing.T) {
	e := newTestEngine(t)
	rules := blackjack.DefaultRules()
	rules.EarlySurrender = true

	rec, err := e.Recommend(hardQ(17, card.RankA), 0, rules)
	require.NoError(t, err)
	assert.Equal(t, blackjack.ActionStand, rec.Action)

	rules.DealerHitsSoft17 = true
	rec, err = e.Recommend(hardQ(17, card.RankA), 0, rules)
	require.NoError(t, err)
	assert.Equal(t, blackjack.ActionSurrender, rec.Action)
	assert.Equal(t, blackjack.ActionStand, rec.Fallback)
}

func TestRecommend_SurrenderDeviations(t *testing.T) {
	e := newTestEngine(t)
	rules := blackjack.DefaultRules()
	rules.LateSurrender = true

	rec, err := e.Recommend(hardQ(14, card.Rank10), 3, rules)
	require.NoError(t, err)
	assert.Equal(t, blackjack.ActionSurrender, rec.Action)
	assert.Equal(t, TierDeviation, rec.Tier)
	assert.Equal(t, blackjack.ActionHit, rec.Fallback)

	rec, err = e.Recommend(hardQ(14, card.Rank10), 2, rules)
	require.NoError(t, err)
	assert.Equal(t, blackjack.ActionHit, rec.Action)
}

func TestRecommend_DeviationThresholds(t *testing.T) {
	e := newTestEngine(t)
	rules := blackjack.DefaultRules()
	rules.LateSurrender = true
	rules.EarlySurrender = false

	for _, d := range Deviations() {
		q := HandQuery{HandType: d.HandType, HandValue: d.HandValue, DealerUpcard: d.DealerUpcard}
		if rules.SurrenderAllowed() && inSurrenderSet(q, rules) {
			continue
		}

		for tc := d.MinTrueCount; tc <= d.MinTrueCount+6; tc++ {
			rec, err := e.Recommend(q, float64(tc), rules)
			require.NoError(t, err)
			assert.Equal(t, TierDeviation, rec.Tier, "%s at %d", q, tc)
			assert.Equal(t, d.Action, rec.Action, "%s at %d", q, tc)
		}

		rec, err := e.Recommend(q, float64(d.MinTrueCount-1), rules)
		require.NoError(t, err)
		if rec.Tier == TierDeviation {
			// a lower-indexed entry for the same hand may still fire
			require.NotNil(t, rec.Deviation)
			assert.Less(t, rec.Deviation.MinTrueCount, d.MinTrueCount, q.String())
		}
	}
}

func TestRecommend_CanonicalDeviations(t *testing.T) {
	e := newTestEngine(t)
	rules := blackjack.DefaultRules()

	cases := []struct {
		q     HandQuery
		index int
		want  blackjack.Action
		basic blackjack.Action
	}{
		{hardQ(15, card.Rank10), 4, blackjack.ActionStand, blackjack.ActionHit},
		{hardQ(10, card.Rank10), 4, blackjack.ActionDouble, blackjack.ActionHit},
		{hardQ(10, card.RankA), 4, blackjack.ActionDouble, blackjack.ActionHit},
		{hardQ(12, card.Rank3), 2, blackjack.ActionStand, blackjack.ActionHit},
		{hardQ(12, card.Rank2), 3, blackjack.ActionStand, blackjack.ActionHit},
		{hardQ(9, card.Rank2), 1, blackjack.ActionDouble, blackjack.ActionHit},
		{hardQ(9, card.Rank7), 3, blackjack.ActionDouble, blackjack.ActionHit},
		{softQ(19, card.Rank6), 3, blackjack.ActionDouble, blackjack.ActionStand},
		{pairQ(9, card.Rank7), 3, blackjack.ActionSplit, blackjack.ActionStand},
	}
	for _, c := range cases {
		at, err := e.Recommend(c.q, float64(c.index), rules)
		require.NoError(t, err)
		assert.Equal(t, c.want, at.Action, "%s at index", c.q)

		below, err := e.Recommend(c.q, float64(c.index)-0.6, rules)
		require.NoError(t, err)
		assert.Equal(t, c.basic, below.Action, "%s below index", c.q)
	}
}

func TestRecommend_DoubleFallbacks(t *testing.T) {
	e := newTestEngine(t)
	rules := blackjack.DefaultRules()

	rec, err := e.Recommend(hardQ(11, card.Rank6), 0, rules)
	require.NoError(t, err)
	assert.Equal(t, blackjack.ActionDouble, rec.Action)
	assert.Equal(t, blackjack.ActionHit, rec.Fallback)

	rec, err = e.Recommend(softQ(18, card.Rank4), 0, rules)
	require.NoError(t, err)
	assert.Equal(t, blackjack.ActionDouble, rec.Action)
	assert.Equal(t, blackjack.ActionStand, rec.Fallback)

	rec, err = e.Recommend(softQ(19, card.Rank6), 4, rules)
	require.NoError(t, err)
	assert.Equal(t, blackjack.ActionDouble, rec.Action)
	assert.Equal(t, blackjack.ActionStand, rec.Fallback)
}

func TestBasicAction_SpotChecks(t *testing.T) {
	e := newTestEngine(t)
	s17 := blackjack.DefaultRules()

	cases := []struct {
		q    HandQuery
		want blackjack.Action
	}{
		{hardQ(8, card.Rank5), blackjack.ActionHit},
		{hardQ(11, card.RankA), blackjack.ActionHit},
		{hardQ(12, card.Rank4), blackjack.ActionStand},
		{hardQ(13, card.Rank2), blackjack.ActionStand},
		{hardQ(16, card.Rank7), blackjack.ActionHit},
		{hardQ(17, card.RankA), blackjack.ActionStand},
		{softQ(13, card.Rank5), blackjack.ActionDouble},
		{softQ(17, card.Rank2), blackjack.ActionHit},
		{softQ(18, card.Rank2), blackjack.ActionStand},
		{softQ(18, card.Rank9), blackjack.ActionHit},
		{softQ(20, card.Rank6), blackjack.ActionStand},
		{pairQ(11, card.RankA), blackjack.ActionSplit},
		{pairQ(8, card.RankA), blackjack.ActionSplit},
		{pairQ(10, card.Rank6), blackjack.ActionStand},
		{pairQ(5, card.Rank9), blackjack.ActionDouble},
		{pairQ(9, card.Rank7), blackjack.ActionStand},
		{pairQ(9, card.Rank8), blackjack.ActionSplit},
		{pairQ(4, card.Rank5), blackjack.ActionSplit},
		{pairQ(2, card.Rank2), blackjack.ActionSplit},
	}
	for _, c := range cases {
		got, err := e.BasicAction(c.q, s17)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, c.q.String())
	}
}

func TestBasicAction_DASVariants(t *testing.T) {
	e := newTestEngine(t)
	noDAS := blackjack.DefaultRules()
	noDAS.DAS = false

	cases := []struct {
		q          HandQuery
		das, nodas blackjack.Action
	}{
		{pairQ(2, card.Rank2), blackjack.ActionSplit, blackjack.ActionHit},
		{pairQ(3, card.Rank3), blackjack.ActionSplit, blackjack.ActionHit},
		{pairQ(4, card.Rank5), blackjack.ActionSplit, blackjack.ActionHit},
		{pairQ(6, card.Rank2), blackjack.ActionSplit, blackjack.ActionHit},
		{pairQ(7, card.Rank7), blackjack.ActionSplit, blackjack.ActionSplit},
	}
	for _, c := range cases {
		got, err := e.BasicAction(c.q, blackjack.DefaultRules())
		require.NoError(t, err)
		assert.Equal(t, c.das, got, "das %s", c.q)

		got, err = e.BasicAction(c.q, noDAS)
		require.NoError(t, err)
		assert.Equal(t, c.nodas, got, "no das %s", c.q)
	}
}

func TestBasicAction_H17Overrides(t *testing.T) {
	e := newTestEngine(t)
	h17 := blackjack.DefaultRules()
	h17.DealerHitsSoft17 = true

	for _, q := range []HandQuery{hardQ(11, card.RankA), softQ(18, card.Rank2), softQ(19, card.Rank6)} {
		got, err := e.BasicAction(q, h17)
		require.NoError(t, err)
		assert.Equal(t, blackjack.ActionDouble, got, q.String())

		got, err = e.BasicAction(q, blackjack.DefaultRules())
		require.NoError(t, err)
		assert.NotEqual(t, blackjack.ActionDouble, got, q.String())
	}
}

func TestCharts_AreTotal(t *testing.T) {
	e := newTestEngine(t)
	require.Len(t, e.charts, 4)
	for v, c := range e.charts {
		require.NoError(t, c.validate(), "variant %+v", v)
	}

	for _, das := range []bool{true, false} {
		for _, h17 := range []bool{true, false} {
			rules := blackjack.DefaultRules()
			rules.DAS = das
			rules.DealerHitsSoft17 = h17
			for _, h := range []blackjack.HandType{blackjack.HandTypeHard, blackjack.HandTypeSoft, blackjack.HandTypePair} {
				lo, hi := valueRange(h)
				for v := lo; v <= hi; v++ {
					for _, up := range card.AllRanks {
						for _, tc := range []float64{-5, 0, 5} {
							rec, err := e.Recommend(HandQuery{HandType: h, HandValue: v, DealerUpcard: up}, tc, rules)
							require.NoError(t, err)
							assert.NotEqual(t, blackjack.ActionNone, rec.Action)
						}
					}
				}
			}
		}
	}
}

func TestChart_MissingEntryIsDetected(t *testing.T) {
	c, err := buildChart(variant{DAS: true})
	require.NoError(t, err)
	delete(c, chartKey{HandType: blackjack.HandTypeSoft, Value: 15, Upcard: card.Rank7})

	assert.ErrorIs(t, c.validate(), ErrMissingStrategyEntry)
	_, err = c.lookup(softQ(15, card.Rank7))
	assert.ErrorIs(t, err, ErrMissingStrategyEntry)
}

func TestRecommend_InvalidInput(t *testing.T) {
	e := newTestEngine(t)
	rules := blackjack.DefaultRules()

	bad := []HandQuery{
		hardQ(3, card.Rank5),
		hardQ(22, card.Rank5),
		softQ(11, card.Rank5),
		pairQ(1, card.Rank5),
		pairQ(12, card.Rank5),
		{HandType: blackjack.HandTypeInvalid, HandValue: 12, DealerUpcard: card.Rank5},
		hardQ(12, card.RankInvalid),
	}
	for _, q := range bad {
		_, err := e.Recommend(q, 0, rules)
		assert.ErrorIs(t, err, ErrInvalidHand, "%+v", q)
	}
	_, err := e.Recommend(hardQ(12, card.RankInvalid), 0, rules)
	assert.ErrorIs(t, err, card.ErrInvalidRank)

	rules.CountingSystem = "nope"
	_, err = e.Recommend(hardQ(12, card.Rank5), 0, rules)
	assert.ErrorIs(t, err, counting.ErrUnknownSystem)
}

func TestRecommend_CarriesEVAndBetUnits(t *testing.T) {
	e := newTestEngine(t)
	rules := blackjack.DefaultRules()

	rec, err := e.Recommend(hardQ(12, card.Rank5), 4.4, rules)
	require.NoError(t, err)
	assert.InDelta(t, 4.4, rec.TrueCount, 1e-12)
	assert.Equal(t, 4, rec.RoundedTrueCount)
	assert.Equal(t, 4, rec.RecommendedBetUnits)
	assert.True(t, rec.CountAdjustedEV.Equal(decimal.RequireFromString("1.8")), "got %s", rec.CountAdjustedEV)

	bad := rules
	bad.BlackjackPays = blackjack.Pays6to5
	rec2, err := e.Recommend(hardQ(12, card.Rank5), 4.4, bad)
	require.NoError(t, err)
	assert.True(t, rec.CountAdjustedEV.Sub(rec2.CountAdjustedEV).Equal(decimal.RequireFromString("1.45")))
}

func TestHandQueryString(t *testing.T) {
	assert.Equal(t, "hard 16 vs 10", hardQ(16, card.Rank10).String())
	assert.Equal(t, "soft 19 (A,8) vs 6", softQ(19, card.Rank6).String())
	assert.Equal(t, "pair 9s vs 7", pairQ(9, card.Rank7).String())
	assert.Equal(t, "pair As vs A", pairQ(11, card.RankA).String())
}

func TestTierText(t *testing.T) {
	for tier, name := range TierDictionary {
		var got Tier
		if tier == TierNone {
			assert.Error(t, got.UnmarshalText([]byte(name)))
			continue
		}
		text, err := tier.MarshalText()
		require.NoError(t, err)
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, tier, got)
	}
	var got Tier
	assert.Error(t, got.UnmarshalText([]byte("bogus")))
}
