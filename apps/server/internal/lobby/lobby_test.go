package lobby

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"blackjack-lite/blackjack"
	"blackjack-lite/blackjack/strategy"
	"blackjack-lite/card"
	"blackjack-lite/counting"
	"blackjack-lite/session"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLobby(t *testing.T, max int) *Lobby {
	t.Helper()
	reg := counting.Default()
	logger, _ := test.NewNullLogger()
	return New(blackjack.DefaultRules(), reg, strategy.MustNew(reg), max, logger)
}

func TestLobby_CreateGetRemove(t *testing.T) {
	l := newTestLobby(t, 0)

	e, err := l.Create(nil)
	require.NoError(t, err)
	_, err = uuid.Parse(e.ID)
	assert.NoError(t, err)

	got, err := l.Get(e.ID)
	require.NoError(t, err)
	assert.Same(t, e, got)
	assert.Equal(t, []string{e.ID}, l.IDs())

	l.Remove(e.ID)
	_, err = l.Get(e.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, l.Count())
}

func TestLobby_CreateWithRules(t *testing.T) {
	l := newTestLobby(t, 0)

	rules := blackjack.DefaultRules()
	rules.NumDecks = 2
	e, err := l.Create(&rules)
	require.NoError(t, err)
	assert.Equal(t, 104, e.View().State.TotalRemaining)

	rules.CountingSystem = "nope"
	_, err = l.Create(&rules)
	assert.ErrorIs(t, err, counting.ErrUnknownSystem)
	assert.Equal(t, KindInvalid, Classify(err))
	assert.Equal(t, 1, l.Count())
}

func TestLobby_Limit(t *testing.T) {
	l := newTestLobby(t, 2)
	for i := 0; i < 2; i++ {
		_, err := l.Create(nil)
		require.NoError(t, err)
	}
	_, err := l.Create(nil)
	assert.ErrorIs(t, err, ErrTooManySessions)
	assert.Equal(t, KindLimit, Classify(err))
}

func TestEntry_ApplyAndRecommend(t *testing.T) {
	l := newTestLobby(t, 0)
	e, err := l.Create(nil)
	require.NoError(t, err)

	applied, view, err := e.Apply(session.Deal(card.Rank5))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 1, view.State.RunningCount)
	assert.True(t, view.HouseEdge.Equal(blackjack.HouseEdge(blackjack.DefaultRules())))

	rec, _, err := e.Recommend(strategy.HandQuery{
		HandType: blackjack.HandTypeHard, HandValue: 16, DealerUpcard: card.Rank10,
	})
	require.NoError(t, err)
	assert.Equal(t, blackjack.ActionStand, rec.Action)

	_, _, err = e.Apply(session.Deal(card.RankInvalid))
	assert.Equal(t, KindInvalid, Classify(err))
}

func TestEntry_SerialisesConcurrentWriters(t *testing.T) {
	l := newTestLobby(t, 0)
	e, err := l.Create(nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, _, err := e.Apply(session.Deal(card.Rank2))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	view := e.View()
	assert.Equal(t, 24, view.State.CardsDealt)
	assert.Equal(t, 24, view.State.HistoryLen)
	assert.Equal(t, 0, view.State.Remaining[card.Rank2])
}

func TestEntry_UpdateRulesKeepsConcurrentEdits(t *testing.T) {
	l := newTestLobby(t, 0)
	e, err := l.Create(nil)
	require.NoError(t, err)

	edits := []func(*blackjack.Rules){
		func(r *blackjack.Rules) { r.DAS = false },
		func(r *blackjack.Rules) { r.Insurance = false },
		func(r *blackjack.Rules) { r.LateSurrender = true },
		func(r *blackjack.Rules) { r.ResplitAces = true },
		func(r *blackjack.Rules) { r.HitSplitAces = true },
		func(r *blackjack.Rules) { r.DealerHitsSoft17 = true },
	}
	var wg sync.WaitGroup
	for _, edit := range edits {
		wg.Add(1)
		go func(edit func(*blackjack.Rules)) {
			defer wg.Done()
			_, err := e.UpdateRules(func(r *blackjack.Rules) error {
				edit(r)
				return nil
			})
			assert.NoError(t, err)
		}(edit)
	}
	wg.Wait()

	rules := e.View().Rules
	assert.False(t, rules.DAS)
	assert.False(t, rules.Insurance)
	assert.True(t, rules.LateSurrender)
	assert.True(t, rules.ResplitAces)
	assert.True(t, rules.HitSplitAces)
	assert.True(t, rules.DealerHitsSoft17)
}

func TestEntry_UpdateRulesErrorLeavesSessionAlone(t *testing.T) {
	l := newTestLobby(t, 0)
	e, err := l.Create(nil)
	require.NoError(t, err)
	_, _, err = e.Apply(session.Deal(card.Rank5))
	require.NoError(t, err)

	_, err = e.UpdateRules(func(r *blackjack.Rules) error {
		r.DAS = false
		return ErrBadRequest
	})
	require.ErrorIs(t, err, ErrBadRequest)

	_, err = e.UpdateRules(func(r *blackjack.Rules) error {
		r.Penetration = 2
		return nil
	})
	var invalid blackjack.InvalidRulesError
	require.ErrorAs(t, err, &invalid)

	view := e.View()
	assert.True(t, view.Rules.DAS)
	assert.Equal(t, blackjack.DefaultRules().Penetration, view.Rules.Penetration)
	assert.Equal(t, 1, view.State.RunningCount)
}

func TestEntry_ResetWithoutDeckCountKeepsCurrent(t *testing.T) {
	l := newTestLobby(t, 0)
	rules := blackjack.DefaultRules()
	rules.NumDecks = 2
	e, err := l.Create(&rules)
	require.NoError(t, err)
	_, _, err = e.Apply(session.Deal(card.RankA))
	require.NoError(t, err)

	applied, view, err := e.Apply(session.ResetEvent(0))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 2, view.Rules.NumDecks)
	assert.Equal(t, 0, view.State.HistoryLen)
	assert.Equal(t, 8, view.State.Remaining[card.RankA])
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{fmt.Errorf("x: %w", ErrSessionNotFound), KindNotFound},
		{fmt.Errorf("%w: json", ErrBadRequest), KindInvalid},
		{card.ErrInvalidRank, KindInvalid},
		{card.ErrInvalidBucket, KindInvalid},
		{strategy.ErrInvalidHand, KindInvalid},
		{session.ErrInvalidEvent, KindInvalid},
		{blackjack.InvalidRulesError("num_decks"), KindInvalid},
		{strategy.ErrMissingStrategyEntry, KindInternal},
		{errors.New("boom"), KindInternal},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Classify(c.err), c.err.Error())
	}
}
