package blackjack

import (
	"fmt"
	"os"

	"blackjack-lite/counting"

	"gopkg.in/yaml.v3"
)

// MaxDecks is the largest shoe the edge model accepts.
const MaxDecks = 8

// Payouts for a natural.
const (
	Pays3to2 = 1.5
	Pays6to5 = 1.2
	Pays2to1 = 2.0
)

// BetRamp controls bet sizing.
type BetRamp struct {
	MaxUnits  int     `yaml:"max_units" json:"max_units"`
	WongOut   bool    `yaml:"wong_out" json:"wong_out"`
	WongOutAt float64 `yaml:"wong_out_at" json:"wong_out_at"`
}

// Rules is the casino rule set. It is passed by value and never mutated by
// the engine.
type Rules struct {
	NumDecks         int     `yaml:"num_decks" json:"num_decks"`
	Penetration      float64 `yaml:"penetration" json:"penetration"`
	DealerHitsSoft17 bool    `yaml:"dealer_hits_soft_17" json:"dealer_hits_soft_17"`
	BlackjackPays    float64 `yaml:"blackjack_pays" json:"blackjack_pays"`
	ENHC             bool    `yaml:"enhc" json:"enhc"`
	DAS              bool    `yaml:"das" json:"das"`
	LateSurrender    bool    `yaml:"late_surrender" json:"late_surrender"`
	EarlySurrender   bool    `yaml:"early_surrender" json:"early_surrender"`
	Insurance        bool    `yaml:"insurance" json:"insurance"`
	ResplitAces      bool    `yaml:"resplit_aces" json:"resplit_aces"`
	HitSplitAces     bool    `yaml:"hit_split_aces" json:"hit_split_aces"`
	CountingSystem   string  `yaml:"counting_system" json:"counting_system"`

	BetRamp BetRamp `yaml:"bet_ramp" json:"bet_ramp"`
}

// DefaultRules returns the reference game: six decks, dealer stands on soft
// 17, 3:2 naturals, hole card, double after split, no surrender.
func DefaultRules() Rules {
	return Rules{
		NumDecks:         6,
		Penetration:      0.75,
		DealerHitsSoft17: false,
		BlackjackPays:    Pays3to2,
		ENHC:             false,
		DAS:              true,
		LateSurrender:    false,
		EarlySurrender:   false,
		Insurance:        true,
		ResplitAces:      false,
		HitSplitAces:     false,
		CountingSystem:   counting.HiLo,
		BetRamp: BetRamp{
			MaxUnits:  8,
			WongOut:   false,
			WongOutAt: -1,
		},
	}
}

// SurrenderAllowed reports whether any form of surrender is offered.
func (r Rules) SurrenderAllowed() bool {
	return r.LateSurrender || r.EarlySurrender
}

// TotalCards is the number of cards in a fresh shoe.
func (r Rules) TotalCards() int {
	return r.NumDecks * 52
}

func (r Rules) Validate() error {
	if r.NumDecks < 1 || r.NumDecks > MaxDecks {
		return invalidRules("num_decks must be between 1 and %d, got %d", MaxDecks, r.NumDecks)
	}
	if r.Penetration <= 0 || r.Penetration > 1 {
		return invalidRules("penetration must be in (0, 1], got %v", r.Penetration)
	}
	switch r.BlackjackPays {
	case Pays3to2, Pays6to5, Pays2to1:
	default:
		return invalidRules("blackjack_pays must be one of 1.5, 1.2, 2.0, got %v", r.BlackjackPays)
	}
	if r.CountingSystem == "" {
		return invalidRules("counting_system must be set")
	}
	if r.BetRamp.MaxUnits < 1 {
		return invalidRules("bet_ramp.max_units must be >= 1, got %d", r.BetRamp.MaxUnits)
	}
	return nil
}

// ParseRules reads YAML over DefaultRules, so a file only needs the fields it
// changes.
func ParseRules(data []byte) (Rules, error) {
	rules := DefaultRules()
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("parse rules YAML: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

// LoadRules reads and validates a YAML rules file.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(data)
}
