package session

import (
	"errors"
	"fmt"
	"strings"

	"blackjack-lite/blackjack"
	"blackjack-lite/blackjack/strategy"
	"blackjack-lite/card"
	"blackjack-lite/counting"
)

// EventType 事件类型
type EventType byte

const (
	EventInvalid  EventType = 0
	EventDeal     EventType = 1
	EventCorrect  EventType = 2
	EventUndo     EventType = 3
	EventReset    EventType = 4
	EventQuick    EventType = 5
	EventSetRules EventType = 6
)

var EventTypeDictionary = map[EventType]string{
	EventDeal:     "deal",
	EventCorrect:  "correct",
	EventUndo:     "undo",
	EventReset:    "reset",
	EventQuick:    "quick",
	EventSetRules: "set_rules",
}

func (t EventType) String() string {
	if s, ok := EventTypeDictionary[t]; ok {
		return s
	}
	return "invalid"
}

func (t EventType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *EventType) UnmarshalText(b []byte) error {
	needle := strings.ToLower(strings.TrimSpace(string(b)))
	for et, name := range EventTypeDictionary {
		if name == needle {
			*t = et
			return nil
		}
	}
	return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, b)
}

// Event is one recorded input. Only the field matching Type is read.
type Event struct {
	Type     EventType        `json:"type"`
	Rank     card.Rank        `json:"rank,omitempty"`
	Bucket   *card.Bucket     `json:"bucket,omitempty"`
	NumDecks int              `json:"num_decks,omitempty"`
	Rules    *blackjack.Rules `json:"rules,omitempty"`
}

func Deal(r card.Rank) Event    { return Event{Type: EventDeal, Rank: r} }
func Correct(r card.Rank) Event { return Event{Type: EventCorrect, Rank: r} }
func UndoEvent() Event          { return Event{Type: EventUndo} }
func ResetEvent(n int) Event    { return Event{Type: EventReset, NumDecks: n} }

func Quick(b card.Bucket) Event {
	return Event{Type: EventQuick, Bucket: &b}
}

func SetRulesEvent(r blackjack.Rules) Event {
	return Event{Type: EventSetRules, Rules: &r}
}

// Apply dispatches ev. The bool reports whether shoe state changed; absorbed
// no-ops (depleted rank, empty history) return false without an error.
func (s *Session) Apply(ev Event) (bool, error) {
	switch ev.Type {
	case EventDeal:
		return s.DealCard(ev.Rank)
	case EventCorrect:
		return s.CorrectCard(ev.Rank)
	case EventUndo:
		return s.Undo(), nil
	case EventReset:
		if err := s.Reset(ev.NumDecks); err != nil {
			return false, err
		}
		return true, nil
	case EventQuick:
		if ev.Bucket == nil {
			return false, fmt.Errorf("%w: quick count without bucket", ErrInvalidEvent)
		}
		_, ok, err := s.QuickCount(*ev.Bucket)
		return ok, err
	case EventSetRules:
		if ev.Rules == nil {
			return false, fmt.Errorf("%w: set_rules without rules", ErrInvalidEvent)
		}
		if err := s.SetRules(*ev.Rules); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, fmt.Errorf("%w: type %d", ErrInvalidEvent, byte(ev.Type))
}

// Step is the state right after one replayed event.
type Step struct {
	Index   int                    `json:"index"`
	Event   Event                  `json:"event"`
	Applied bool                   `json:"applied"`
	State   blackjack.ShoeSnapshot `json:"state"`
}

// Tape records a replay. Rules is the rule set in force after the last event.
type Tape struct {
	Rules blackjack.Rules `json:"rules"`
	Steps []Step          `json:"steps"`
}

// Replay builds a fresh session and feeds it events in order. The same rules
// and events always produce the same session.
func Replay(rules blackjack.Rules, systems *counting.Registry, engine *strategy.Engine, events []Event, opts ...Option) (*Session, *Tape, error) {
	s, err := New(rules, systems, engine, opts...)
	if err != nil {
		return nil, nil, &ReplayError{StepIndex: -1, Reason: "session_init_failed", Message: err.Error(), err: err}
	}

	tape := &Tape{Rules: rules, Steps: make([]Step, 0, len(events))}
	for i, ev := range events {
		applied, err := s.Apply(ev)
		if err != nil {
			return nil, nil, &ReplayError{StepIndex: i, Reason: replayReason(err), Message: err.Error(), err: err}
		}
		tape.Steps = append(tape.Steps, Step{
			Index:   i,
			Event:   ev,
			Applied: applied,
			State:   s.State(),
		})
	}
	tape.Rules = s.Rules()
	return s, tape, nil
}

func replayReason(err error) string {
	var rulesErr blackjack.InvalidRulesError
	switch {
	case errors.Is(err, ErrInvalidEvent):
		return "invalid_event"
	case errors.Is(err, counting.ErrUnknownSystem):
		return "unknown_counting_system"
	case errors.As(err, &rulesErr):
		return "invalid_rules"
	}
	return "apply_failed"
}
