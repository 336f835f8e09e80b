package session

import (
	"fmt"

	"blackjack-lite/blackjack"
	"blackjack-lite/blackjack/strategy"
	"blackjack-lite/card"
	"blackjack-lite/counting"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Session owns one shoe, its history and running count, and the rules it is
// played under. It is not safe for concurrent use; callers serialise access.
type Session struct {
	rules   blackjack.Rules
	systems *counting.Registry
	engine  *strategy.Engine
	shoe    *blackjack.Shoe
	log     logrus.FieldLogger
}

type Option func(*Session)

// WithLogger replaces the default standard-logger entry.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

func New(rules blackjack.Rules, systems *counting.Registry, engine *strategy.Engine, opts ...Option) (*Session, error) {
	if systems == nil || engine == nil {
		return nil, fmt.Errorf("session: registry and engine are required")
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	system, err := systems.Get(rules.CountingSystem)
	if err != nil {
		return nil, err
	}
	shoe, err := blackjack.NewShoe(rules.NumDecks, system)
	if err != nil {
		return nil, err
	}

	s := &Session{
		rules:   rules,
		systems: systems,
		engine:  engine,
		shoe:    shoe,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "session")
	return s, nil
}

// ---- events ----

// DealCard records one dealt card. A depleted rank is absorbed and reported
// as false; an invalid rank is an error.
func (s *Session) DealCard(r card.Rank) (bool, error) {
	if !r.Valid() {
		return false, fmt.Errorf("%w: deal: %w", ErrInvalidEvent, card.ErrInvalidRank)
	}
	ok := s.shoe.Apply(r)
	s.log.WithFields(logrus.Fields{"rank": r, "applied": ok, "rc": s.shoe.RunningCount()}).Debug("deal")
	return ok, nil
}

// CorrectCard puts a mistakenly entered card back. It is not undoable.
func (s *Session) CorrectCard(r card.Rank) (bool, error) {
	if !r.Valid() {
		return false, fmt.Errorf("%w: correct: %w", ErrInvalidEvent, card.ErrInvalidRank)
	}
	ok := s.shoe.Remove(r)
	s.log.WithFields(logrus.Fields{"rank": r, "applied": ok, "rc": s.shoe.RunningCount()}).Debug("correct")
	return ok, nil
}

// Undo reverts the last dealt card. It returns false on an empty history.
func (s *Session) Undo() bool {
	entry, ok := s.shoe.Undo()
	fields := logrus.Fields{"applied": ok, "rc": s.shoe.RunningCount()}
	if ok {
		fields["rank"] = entry.Rank
	}
	s.log.WithFields(fields).Debug("undo")
	return ok
}

// Reset starts a fresh shoe of numDecks decks. The rules follow the new deck
// count so edge and shuffle queries stay consistent with the shoe.
func (s *Session) Reset(numDecks int) error {
	next := s.rules
	next.NumDecks = numDecks
	if err := next.Validate(); err != nil {
		return err
	}
	if err := s.shoe.Reset(numDecks); err != nil {
		return err
	}
	s.rules = next
	s.log.WithField("num_decks", numDecks).Info("shoe reset")
	return nil
}

// QuickCount deals the first available rank of bucket b.
func (s *Session) QuickCount(b card.Bucket) (card.Rank, bool, error) {
	if !b.Valid() {
		return card.RankInvalid, false, fmt.Errorf("%w: quick count: %w", ErrInvalidEvent, card.ErrInvalidBucket)
	}
	r, ok := s.shoe.QuickApply(b)
	fields := logrus.Fields{"bucket": b, "applied": ok}
	if ok {
		fields["rank"] = r
	}
	s.log.WithFields(fields).Debug("quick count")
	return r, ok, nil
}

// SetRules swaps the rule set. A new counting system rebinds the shoe and a
// new deck count resets it; otherwise the shoe is kept as is.
func (s *Session) SetRules(rules blackjack.Rules) error {
	if err := rules.Validate(); err != nil {
		return err
	}
	system, err := s.systems.Get(rules.CountingSystem)
	if err != nil {
		return err
	}

	switch {
	case rules.CountingSystem != s.rules.CountingSystem:
		if rules.NumDecks != s.shoe.NumDecks() {
			if err := s.shoe.Reset(rules.NumDecks); err != nil {
				return err
			}
		}
		s.shoe.Rebind(system)
		s.log.WithField("system", system.ID).Info("counting system changed, shoe reset")
	case rules.NumDecks != s.rules.NumDecks:
		if err := s.shoe.Reset(rules.NumDecks); err != nil {
			return err
		}
		s.log.WithField("num_decks", rules.NumDecks).Info("deck count changed, shoe reset")
	}
	s.rules = rules
	return nil
}

// ---- queries ----

func (s *Session) Rules() blackjack.Rules { return s.rules }

func (s *Session) ShoeSnapshot() map[card.Rank]int { return s.shoe.Snapshot() }

func (s *Session) State() blackjack.ShoeSnapshot { return s.shoe.FullSnapshot() }

func (s *Session) RunningCount() int { return s.shoe.RunningCount() }

func (s *Session) TrueCount() float64 { return s.shoe.TrueCount() }

func (s *Session) DecksRemaining() float64 { return s.shoe.DecksRemaining() }

func (s *Session) CardsByCountCategory() [3]blackjack.CategoryCount { return s.shoe.Categories() }

func (s *Session) HistoryLen() int { return s.shoe.HistoryLen() }

// ShuffleDue reports whether the cut card has been reached.
func (s *Session) ShuffleDue() bool { return s.shoe.PenetrationReached(s.rules.Penetration) }

func (s *Session) HouseEdge() decimal.Decimal { return blackjack.HouseEdge(s.rules) }

func (s *Session) EdgeBreakdown() []blackjack.EdgeTerm { return blackjack.EdgeBreakdown(s.rules) }

// Recommend advises on a hand against the current true count. It never
// changes shoe state.
func (s *Session) Recommend(h blackjack.HandType, value int, upcard card.Rank) (strategy.Recommendation, error) {
	return s.RecommendQuery(strategy.HandQuery{HandType: h, HandValue: value, DealerUpcard: upcard})
}

func (s *Session) RecommendQuery(q strategy.HandQuery) (strategy.Recommendation, error) {
	rec, err := s.engine.Recommend(q, s.shoe.TrueCount(), s.rules)
	if err != nil {
		return strategy.Recommendation{}, err
	}
	s.log.WithFields(logrus.Fields{
		"hand":   q.String(),
		"action": rec.Action,
		"tier":   rec.Tier,
		"tc":     rec.RoundedTrueCount,
	}).Debug("recommend")
	return rec, nil
}
