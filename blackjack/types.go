package blackjack

import (
	"fmt"
	"strings"
)

// HandType 手牌类型
type HandType byte

const (
	HandTypeInvalid HandType = 0
	HandTypeHard    HandType = 1
	HandTypeSoft    HandType = 2
	HandTypePair    HandType = 3
)

var HandTypeDictionary = map[HandType]string{
	HandTypeHard: "hard",
	HandTypeSoft: "soft",
	HandTypePair: "pair",
}

func (h HandType) String() string {
	if s, ok := HandTypeDictionary[h]; ok {
		return s
	}
	return "invalid"
}

func ParseHandType(s string) (HandType, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for h, name := range HandTypeDictionary {
		if name == needle {
			return h, nil
		}
	}
	return HandTypeInvalid, fmt.Errorf("invalid hand type %q", s)
}

func (h HandType) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *HandType) UnmarshalText(b []byte) error {
	parsed, err := ParseHandType(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Action 玩家动作
type Action byte

const (
	ActionNone      Action = 0
	ActionStand     Action = 1
	ActionHit       Action = 2
	ActionDouble    Action = 3
	ActionSplit     Action = 4
	ActionSurrender Action = 5
)

var ActionDictionary = map[Action]string{
	ActionNone:      "NONE",
	ActionStand:     "STAND",
	ActionHit:       "HIT",
	ActionDouble:    "DOUBLE",
	ActionSplit:     "SPLIT",
	ActionSurrender: "SURRENDER",
}

func (a Action) String() string {
	if s, ok := ActionDictionary[a]; ok {
		return s
	}
	return "UNKNOWN"
}

func (a Action) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// ParseAction reads an action name. NONE is output-only and never parses.
func ParseAction(s string) (Action, error) {
	needle := strings.ToUpper(strings.TrimSpace(s))
	for a, name := range ActionDictionary {
		if a != ActionNone && name == needle {
			return a, nil
		}
	}
	return ActionNone, fmt.Errorf("invalid action %q", s)
}

func (a *Action) UnmarshalText(b []byte) error {
	parsed, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
