package strategy

import (
	"fmt"
	"strings"

	"blackjack-lite/blackjack"
	"blackjack-lite/card"
)

// cell is one chart entry: the play and what to do if it is not allowed.
type cell struct {
	Action   blackjack.Action
	Fallback blackjack.Action
}

type chartKey struct {
	HandType blackjack.HandType
	Value    int
	Upcard   card.Rank
}

type chart map[chartKey]cell

// variant selects the chart for the rules that change basic strategy.
type variant struct {
	DAS bool
	H17 bool
}

func variantOf(r blackjack.Rules) variant {
	return variant{DAS: r.DAS, H17: r.DealerHitsSoft17}
}

// Rows are indexed by dealer upcard 2,3,4,5,6,7,8,9,10,A.
//
// H  hit           S  stand
// Dh double/hit    Ds double/stand
// P  split
var hardRows = map[int]string{
	4:  "H  H  H  H  H  H  H  H  H  H",
	5:  "H  H  H  H  H  H  H  H  H  H",
	6:  "H  H  H  H  H  H  H  H  H  H",
	7:  "H  H  H  H  H  H  H  H  H  H",
	8:  "H  H  H  H  H  H  H  H  H  H",
	9:  "H  Dh Dh Dh Dh H  H  H  H  H",
	10: "Dh Dh Dh Dh Dh Dh Dh Dh H  H",
	11: "Dh Dh Dh Dh Dh Dh Dh Dh Dh H",
	12: "H  H  S  S  S  H  H  H  H  H",
	13: "S  S  S  S  S  H  H  H  H  H",
	14: "S  S  S  S  S  H  H  H  H  H",
	15: "S  S  S  S  S  H  H  H  H  H",
	16: "S  S  S  S  S  H  H  H  H  H",
	17: "S  S  S  S  S  S  S  S  S  S",
	18: "S  S  S  S  S  S  S  S  S  S",
	19: "S  S  S  S  S  S  S  S  S  S",
	20: "S  S  S  S  S  S  S  S  S  S",
	21: "S  S  S  S  S  S  S  S  S  S",
}

var softRows = map[int]string{
	12: "H  H  H  H  H  H  H  H  H  H",
	13: "H  H  H  Dh Dh H  H  H  H  H",
	14: "H  H  H  Dh Dh H  H  H  H  H",
	15: "H  H  Dh Dh Dh H  H  H  H  H",
	16: "H  H  Dh Dh Dh H  H  H  H  H",
	17: "H  Dh Dh Dh Dh H  H  H  H  H",
	18: "S  Ds Ds Ds Ds S  S  H  H  H",
	19: "S  S  S  S  S  S  S  S  S  S",
	20: "S  S  S  S  S  S  S  S  S  S",
	21: "S  S  S  S  S  S  S  S  S  S",
}

var pairRowsDAS = map[int]string{
	2:  "P  P  P  P  P  P  H  H  H  H",
	3:  "P  P  P  P  P  P  H  H  H  H",
	4:  "H  H  H  P  P  H  H  H  H  H",
	5:  "Dh Dh Dh Dh Dh Dh Dh Dh H  H",
	6:  "P  P  P  P  P  H  H  H  H  H",
	7:  "P  P  P  P  P  P  H  H  H  H",
	8:  "P  P  P  P  P  P  P  P  P  P",
	9:  "P  P  P  P  P  S  P  P  S  S",
	10: "S  S  S  S  S  S  S  S  S  S",
	11: "P  P  P  P  P  P  P  P  P  P",
}

// pairRowsNoDAS only lists the rows that differ from pairRowsDAS.
var pairRowsNoDAS = map[int]string{
	2: "H  H  P  P  P  P  H  H  H  H",
	3: "H  H  P  P  P  P  H  H  H  H",
	4: "H  H  H  H  H  H  H  H  H  H",
	6: "H  P  P  P  P  H  H  H  H  H",
}

// h17Overrides are the plays that change when the dealer hits soft 17.
var h17Overrides = map[chartKey]string{
	{blackjack.HandTypeHard, 11, card.RankA}: "Dh",
	{blackjack.HandTypeSoft, 18, card.Rank2}: "Ds",
	{blackjack.HandTypeSoft, 19, card.Rank6}: "Ds",
}

func parseCode(code string) (cell, error) {
	switch code {
	case "H":
		return cell{Action: blackjack.ActionHit}, nil
	case "S":
		return cell{Action: blackjack.ActionStand}, nil
	case "Dh":
		return cell{Action: blackjack.ActionDouble, Fallback: blackjack.ActionHit}, nil
	case "Ds":
		return cell{Action: blackjack.ActionDouble, Fallback: blackjack.ActionStand}, nil
	case "P":
		return cell{Action: blackjack.ActionSplit}, nil
	}
	return cell{}, fmt.Errorf("unknown chart code %q", code)
}

func (c chart) addRows(h blackjack.HandType, rows map[int]string) error {
	for value, row := range rows {
		codes := strings.Fields(row)
		if len(codes) != card.NumRanks {
			return fmt.Errorf("%s %d: want %d columns, got %d", h, value, card.NumRanks, len(codes))
		}
		for i, code := range codes {
			cl, err := parseCode(code)
			if err != nil {
				return fmt.Errorf("%s %d vs %s: %w", h, value, card.AllRanks[i], err)
			}
			c[chartKey{HandType: h, Value: value, Upcard: card.AllRanks[i]}] = cl
		}
	}
	return nil
}

// buildChart assembles the chart for one rule variant.
func buildChart(v variant) (chart, error) {
	c := make(chart)
	if err := c.addRows(blackjack.HandTypeHard, hardRows); err != nil {
		return nil, err
	}
	if err := c.addRows(blackjack.HandTypeSoft, softRows); err != nil {
		return nil, err
	}
	if err := c.addRows(blackjack.HandTypePair, pairRowsDAS); err != nil {
		return nil, err
	}
	if !v.DAS {
		if err := c.addRows(blackjack.HandTypePair, pairRowsNoDAS); err != nil {
			return nil, err
		}
	}
	if v.H17 {
		for k, code := range h17Overrides {
			cl, err := parseCode(code)
			if err != nil {
				return nil, err
			}
			c[k] = cl
		}
	}
	return c, nil
}

// validate checks that every reachable (hand, upcard) pair has an entry.
func (c chart) validate() error {
	for _, h := range []blackjack.HandType{blackjack.HandTypeHard, blackjack.HandTypeSoft, blackjack.HandTypePair} {
		lo, hi := valueRange(h)
		for v := lo; v <= hi; v++ {
			for _, up := range card.AllRanks {
				cl, ok := c[chartKey{HandType: h, Value: v, Upcard: up}]
				if !ok || cl.Action == blackjack.ActionNone {
					return fmt.Errorf("%w: %s vs %s", ErrMissingStrategyEntry, handLabel(h, v), up)
				}
			}
		}
	}
	return nil
}

func (c chart) lookup(q HandQuery) (cell, error) {
	cl, ok := c[chartKey{HandType: q.HandType, Value: q.HandValue, Upcard: q.DealerUpcard}]
	if !ok || cl.Action == blackjack.ActionNone {
		return cell{}, fmt.Errorf("%w: %s", ErrMissingStrategyEntry, q)
	}
	return cl, nil
}
