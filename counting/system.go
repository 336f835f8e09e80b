package counting

import (
	"fmt"

	"blackjack-lite/card"
)

// HiLo is the identifier of the balanced level-one reference system.
const HiLo = "hilo"

// System is a named rank→tag table. It is a value type; copies handed out by
// the registry cannot alter the registered table.
type System struct {
	ID   string
	Name string

	// PlayingEfficiency and BettingCorrelation are the published figures
	// for the system (0..1). They scale the EV model relative to Hi-Lo.
	PlayingEfficiency  float64
	BettingCorrelation float64

	weights [card.NumRanks]int
}

// NewSystem builds a System. Every one of the ten ranks must be tagged.
func NewSystem(id, name string, weights map[card.Rank]int, pe, bc float64) (System, error) {
	if id == "" {
		return System{}, fmt.Errorf("counting system id must not be empty")
	}
	s := System{
		ID:                 id,
		Name:               name,
		PlayingEfficiency:  pe,
		BettingCorrelation: bc,
	}
	for _, r := range card.AllRanks {
		w, ok := weights[r]
		if !ok {
			return System{}, fmt.Errorf("counting system %q: missing weight for rank %s", id, r)
		}
		s.weights[r.Index()] = w
	}
	for r := range weights {
		if !r.Valid() {
			return System{}, fmt.Errorf("counting system %q: %w", id, card.ErrInvalidRank)
		}
	}
	return s, nil
}

func mustSystem(id, name string, weights map[card.Rank]int, pe, bc float64) System {
	s, err := NewSystem(id, name, weights, pe, bc)
	if err != nil {
		panic(err)
	}
	return s
}

// Weight returns the tag of r, or 0 for an invalid rank.
func (s System) Weight(r card.Rank) int {
	if !r.Valid() {
		return 0
	}
	return s.weights[r.Index()]
}

// Weights returns a copy of the table keyed by rank.
func (s System) Weights() map[card.Rank]int {
	out := make(map[card.Rank]int, card.NumRanks)
	for _, r := range card.AllRanks {
		out[r] = s.weights[r.Index()]
	}
	return out
}

// Level is the largest absolute tag in the table.
func (s System) Level() int {
	lvl := 0
	for _, w := range s.weights {
		if w < 0 {
			w = -w
		}
		if w > lvl {
			lvl = w
		}
	}
	return lvl
}

// Balanced reports whether a full deck sums to zero.
func (s System) Balanced() bool {
	sum := 0
	for _, r := range card.AllRanks {
		sum += s.Weight(r) * r.Capacity(1)
	}
	return sum == 0
}

// builtins are registered by Default.
var builtins = []System{
	mustSystem(HiLo, "Hi-Lo", map[card.Rank]int{
		card.Rank2: 1, card.Rank3: 1, card.Rank4: 1, card.Rank5: 1, card.Rank6: 1,
		card.Rank7: 0, card.Rank8: 0, card.Rank9: 0,
		card.Rank10: -1, card.RankA: -1,
	}, 0.51, 0.97),
	mustSystem("ko", "Knock-Out", map[card.Rank]int{
		card.Rank2: 1, card.Rank3: 1, card.Rank4: 1, card.Rank5: 1, card.Rank6: 1,
		card.Rank7: 1, card.Rank8: 0, card.Rank9: 0,
		card.Rank10: -1, card.RankA: -1,
	}, 0.55, 0.98),
	mustSystem("hiopt1", "Hi-Opt I", map[card.Rank]int{
		card.Rank2: 0, card.Rank3: 1, card.Rank4: 1, card.Rank5: 1, card.Rank6: 1,
		card.Rank7: 0, card.Rank8: 0, card.Rank9: 0,
		card.Rank10: -1, card.RankA: 0,
	}, 0.61, 0.88),
	mustSystem("hiopt2", "Hi-Opt II", map[card.Rank]int{
		card.Rank2: 1, card.Rank3: 1, card.Rank4: 2, card.Rank5: 2, card.Rank6: 1,
		card.Rank7: 1, card.Rank8: 0, card.Rank9: 0,
		card.Rank10: -2, card.RankA: 0,
	}, 0.67, 0.91),
	mustSystem("omega2", "Omega II", map[card.Rank]int{
		card.Rank2: 1, card.Rank3: 1, card.Rank4: 2, card.Rank5: 2, card.Rank6: 2,
		card.Rank7: 1, card.Rank8: 0, card.Rank9: -1,
		card.Rank10: -2, card.RankA: 0,
	}, 0.67, 0.92),
	mustSystem("zen", "Zen Count", map[card.Rank]int{
		card.Rank2: 1, card.Rank3: 1, card.Rank4: 2, card.Rank5: 2, card.Rank6: 2,
		card.Rank7: 1, card.Rank8: 0, card.Rank9: 0,
		card.Rank10: -2, card.RankA: -1,
	}, 0.63, 0.96),
}
