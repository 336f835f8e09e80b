package card

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRank   = errors.New("invalid rank")
	ErrInvalidBucket = errors.New("invalid count bucket")
)

// Rank is a blackjack rank. Tens and faces share Rank10 because they
// are indistinguishable for both play and counting.
//
// Encoding:
// - 0: invalid (zero value, never accepted by the shoe)
// - 1..8: Rank2..Rank9
// - 9: Rank10 (T, J, Q, K)
// - 10: RankA
type Rank byte

func (r Rank) String() string {
	switch {
	case r == Rank10:
		return "10"
	case r == RankA:
		return "A"
	case r.Valid():
		return fmt.Sprintf("%d", int(r)+1)
	}
	return "Invalid"
}

// Valid reports whether r is one of the ten playable ranks.
func (r Rank) Valid() bool {
	return r >= Rank2 && r <= RankA
}

// Index returns the 0-based position of r in AllRanks, or -1.
func (r Rank) Index() int {
	if !r.Valid() {
		return -1
	}
	return int(r) - 1
}

// Value returns the blackjack point value, counting the ace as 11.
func (r Rank) Value() int {
	switch {
	case r == RankA:
		return 11
	case r == Rank10:
		return 10
	case r.Valid():
		return int(r) + 1
	}
	return 0
}

func (r Rank) IsAce() bool {
	return r == RankA
}

// Capacity is the number of cards of this rank in a fresh shoe.
func (r Rank) Capacity(numDecks int) int {
	if !r.Valid() || numDecks <= 0 {
		return 0
	}
	if r == Rank10 {
		return 16 * numDecks
	}
	return 4 * numDecks
}

// Bucket returns the quick-count bucket the rank belongs to.
func (r Rank) Bucket() Bucket {
	switch {
	case r >= Rank2 && r <= Rank6:
		return BucketLow
	case r >= Rank7 && r <= Rank9:
		return BucketNeutral
	case r == Rank10 || r == RankA:
		return BucketHigh
	}
	return BucketInvalid
}

// ParseRank converts strings like "7", "10", "T", "K" or "a" into a Rank.
func ParseRank(s string) (Rank, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "2":
		return Rank2, nil
	case "3":
		return Rank3, nil
	case "4":
		return Rank4, nil
	case "5":
		return Rank5, nil
	case "6":
		return Rank6, nil
	case "7":
		return Rank7, nil
	case "8":
		return Rank8, nil
	case "9":
		return Rank9, nil
	case "10", "T", "J", "Q", "K":
		return Rank10, nil
	case "A":
		return RankA, nil
	}
	return RankInvalid, fmt.Errorf("%w: %q", ErrInvalidRank, s)
}

// RankFromValue maps a point value (2..11) back to its rank.
func RankFromValue(v int) (Rank, error) {
	switch {
	case v >= 2 && v <= 9:
		return Rank(v - 1), nil
	case v == 10:
		return Rank10, nil
	case v == 11 || v == 1:
		return RankA, nil
	}
	return RankInvalid, fmt.Errorf("%w: value %d", ErrInvalidRank, v)
}

func (r Rank) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRank, byte(r))
	}
	return []byte(r.String()), nil
}

func (r *Rank) UnmarshalText(b []byte) error {
	parsed, err := ParseRank(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
