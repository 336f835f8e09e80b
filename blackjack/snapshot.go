package blackjack

import "blackjack-lite/card"

type ShoeSnapshot struct {
	NumDecks       int               `json:"num_decks"`
	CountingSystem string            `json:"counting_system"`
	Remaining      map[card.Rank]int `json:"remaining"`
	TotalRemaining int               `json:"total_remaining"`
	CardsDealt     int               `json:"cards_dealt"`
	RunningCount   int               `json:"running_count"`
	DecksRemaining float64           `json:"decks_remaining"`
	TrueCount      float64           `json:"true_count"`
	HistoryLen     int               `json:"history_len"`
	Categories     [3]CategoryCount  `json:"categories"`
}

// Snapshot returns a detached copy of the per-rank counts.
func (s *Shoe) Snapshot() map[card.Rank]int {
	out := make(map[card.Rank]int, card.NumRanks)
	for _, r := range card.AllRanks {
		out[r] = s.remaining[r.Index()]
	}
	return out
}

func (s *Shoe) FullSnapshot() ShoeSnapshot {
	return ShoeSnapshot{
		NumDecks:       s.numDecks,
		CountingSystem: s.system.ID,
		Remaining:      s.Snapshot(),
		TotalRemaining: s.TotalRemaining(),
		CardsDealt:     s.CardsDealt(),
		RunningCount:   s.runningCount,
		DecksRemaining: s.DecksRemaining(),
		TrueCount:      s.TrueCount(),
		HistoryLen:     len(s.history),
		Categories:     s.Categories(),
	}
}
