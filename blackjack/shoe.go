package blackjack

import (
	"fmt"

	"blackjack-lite/card"
	"blackjack-lite/counting"
)

// HistoryEntry records enough to reverse one Apply exactly.
type HistoryEntry struct {
	Rank              card.Rank
	Weight            int
	PriorRunningCount int
	PriorRemaining    [card.NumRanks]int
}

// Shoe tracks per-rank remaining cards and the running count of a single
// shoe. It is not safe for concurrent use; the owner serialises access.
type Shoe struct {
	numDecks     int
	system       counting.System
	remaining    [card.NumRanks]int
	runningCount int
	history      []HistoryEntry
}

func NewShoe(numDecks int, system counting.System) (*Shoe, error) {
	s := &Shoe{system: system}
	if err := s.Reset(numDecks); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset refills every rank, zeroes the running count and drops history.
func (s *Shoe) Reset(numDecks int) error {
	if numDecks < 1 || numDecks > MaxDecks {
		return invalidRules("num_decks must be between 1 and %d, got %d", MaxDecks, numDecks)
	}
	s.numDecks = numDecks
	s.refill()
	return nil
}

// Rebind switches counting systems. The running count of the old system
// means nothing under the new tags, so the shoe is refilled at its current
// deck count.
func (s *Shoe) Rebind(system counting.System) {
	s.system = system
	s.refill()
}

func (s *Shoe) refill() {
	for _, r := range card.AllRanks {
		s.remaining[r.Index()] = r.Capacity(s.numDecks)
	}
	s.runningCount = 0
	s.history = s.history[:0]
}

// Apply deals one card of rank r. It returns false (and changes nothing)
// when r is invalid or already depleted.
func (s *Shoe) Apply(r card.Rank) bool {
	if !r.Valid() {
		return false
	}
	i := r.Index()
	if s.remaining[i] == 0 {
		return false
	}
	w := s.system.Weight(r)
	s.history = append(s.history, HistoryEntry{
		Rank:              r,
		Weight:            w,
		PriorRunningCount: s.runningCount,
		PriorRemaining:    s.remaining,
	})
	s.remaining[i]--
	s.runningCount += w
	return true
}

// Remove puts one card of rank r back as a manual correction. It is not
// recorded in history and cannot be undone.
func (s *Shoe) Remove(r card.Rank) bool {
	if !r.Valid() {
		return false
	}
	i := r.Index()
	if s.remaining[i] >= r.Capacity(s.numDecks) {
		return false
	}
	s.remaining[i]++
	s.runningCount -= s.system.Weight(r)
	return true
}

// Undo reverses the most recent Apply by restoring its snapshot verbatim.
func (s *Shoe) Undo() (HistoryEntry, bool) {
	n := len(s.history)
	if n == 0 {
		return HistoryEntry{}, false
	}
	last := s.history[n-1]
	s.history = s.history[:n-1]
	s.remaining = last.PriorRemaining
	s.runningCount = last.PriorRunningCount
	return last, true
}

// QuickApply deals the first available rank of the bucket in its fixed
// priority order. It is a no-op when every rank of the bucket is gone.
func (s *Shoe) QuickApply(b card.Bucket) (card.Rank, bool) {
	for _, r := range b.Ranks() {
		if s.remaining[r.Index()] > 0 {
			return r, s.Apply(r)
		}
	}
	return card.RankInvalid, false
}

func (s *Shoe) NumDecks() int { return s.numDecks }

func (s *Shoe) System() counting.System { return s.system }

func (s *Shoe) RunningCount() int { return s.runningCount }

func (s *Shoe) HistoryLen() int { return len(s.history) }

func (s *Shoe) Remaining(r card.Rank) int {
	if !r.Valid() {
		return 0
	}
	return s.remaining[r.Index()]
}

func (s *Shoe) TotalRemaining() int {
	total := 0
	for _, n := range s.remaining {
		total += n
	}
	return total
}

// CardsDealt is the net number of cards out of the shoe.
func (s *Shoe) CardsDealt() int {
	return s.numDecks*card.CardsPerDeck - s.TotalRemaining()
}

// PenetrationReached reports whether the dealt fraction has hit the cut card.
func (s *Shoe) PenetrationReached(penetration float64) bool {
	total := s.numDecks * card.CardsPerDeck
	if total == 0 {
		return false
	}
	return float64(s.CardsDealt())/float64(total) >= penetration
}

func (s *Shoe) DecksRemaining() float64 {
	return DecksRemaining(s.TotalRemaining())
}

func (s *Shoe) TrueCount() float64 {
	return TrueCount(s.runningCount, s.DecksRemaining())
}

// CategoryCount is the remaining share of one count category.
type CategoryCount struct {
	Bucket  card.Bucket `json:"bucket"`
	Cards   int         `json:"cards"`
	Percent float64     `json:"percent"`
}

// Categories groups the remaining cards by the sign of their tag in the
// bound system, ordered +1, 0, -1.
func (s *Shoe) Categories() [3]CategoryCount {
	out := [3]CategoryCount{
		{Bucket: card.BucketLow},
		{Bucket: card.BucketNeutral},
		{Bucket: card.BucketHigh},
	}
	for _, r := range card.AllRanks {
		n := s.remaining[r.Index()]
		switch w := s.system.Weight(r); {
		case w > 0:
			out[0].Cards += n
		case w == 0:
			out[1].Cards += n
		default:
			out[2].Cards += n
		}
	}
	if total := s.TotalRemaining(); total > 0 {
		for i := range out {
			out[i].Percent = float64(out[i].Cards) * 100 / float64(total)
		}
	}
	return out
}

func (s *Shoe) String() string {
	return fmt.Sprintf("shoe(decks=%d remaining=%d rc=%d history=%d)",
		s.numDecks, s.TotalRemaining(), s.runningCount, len(s.history))
}
