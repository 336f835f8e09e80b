package card

import "fmt"

const RankInvalid Rank = 0

const (
	Rank2 Rank = iota + 0x01
	Rank3
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
	Rank9
	Rank10
	RankA
)

// NumRanks is the number of distinct blackjack ranks.
const NumRanks = 10

// CardsPerDeck is the size of a single 52-card deck.
const CardsPerDeck = 52

// AllRanks lists the ranks in ascending order (ace last).
var AllRanks = [NumRanks]Rank{
	Rank2, Rank3, Rank4, Rank5, Rank6, Rank7, Rank8, Rank9, Rank10, RankA,
}

// Bucket 快速记牌分组: +1 (2-6), 0 (7-9), -1 (10, A)
type Bucket int8

const (
	BucketInvalid Bucket = 2
	BucketLow     Bucket = 1
	BucketNeutral Bucket = 0
	BucketHigh    Bucket = -1
)

// bucketOrder is the fixed priority used when a quick-count press must pick
// a concrete rank from its bucket.
var bucketOrder = map[Bucket][]Rank{
	BucketLow:     {Rank2, Rank3, Rank4, Rank5, Rank6},
	BucketNeutral: {Rank7, Rank8, Rank9},
	BucketHigh:    {Rank10, RankA},
}

// Ranks returns the bucket's ranks in quick-count priority order.
func (b Bucket) Ranks() []Rank {
	return append([]Rank(nil), bucketOrder[b]...)
}

func (b Bucket) Valid() bool {
	_, ok := bucketOrder[b]
	return ok
}

func (b Bucket) String() string {
	switch b {
	case BucketLow:
		return "+1"
	case BucketNeutral:
		return "0"
	case BucketHigh:
		return "-1"
	}
	return "invalid"
}

// ParseBucket accepts "+1"/"1"/"low", "0"/"neutral" and "-1"/"high".
func ParseBucket(s string) (Bucket, bool) {
	switch s {
	case "+1", "1", "low", "LOW":
		return BucketLow, true
	case "0", "neutral", "NEUTRAL":
		return BucketNeutral, true
	case "-1", "high", "HIGH":
		return BucketHigh, true
	}
	return BucketInvalid, false
}

func (b Bucket) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBucket, int8(b))
	}
	return []byte(b.String()), nil
}

func (b *Bucket) UnmarshalText(text []byte) error {
	parsed, ok := ParseBucket(string(text))
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidBucket, text)
	}
	*b = parsed
	return nil
}
