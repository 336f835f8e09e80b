package lobby

import (
	"errors"
	"sort"
	"sync"

	"blackjack-lite/blackjack"
	"blackjack-lite/blackjack/strategy"
	"blackjack-lite/counting"
	"blackjack-lite/session"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
)

// Lobby owns every live session. Each session has its own lock so one slow
// client never blocks another.
type Lobby struct {
	mu       sync.RWMutex
	sessions map[string]*Entry

	rules   blackjack.Rules
	systems *counting.Registry
	engine  *strategy.Engine
	max     int
	log     logrus.FieldLogger
}

// Entry is one session plus its single-writer lock.
type Entry struct {
	ID string

	mu sync.Mutex
	s  *session.Session
}

// View is what transports send back after every request.
type View struct {
	ID         string                 `json:"id"`
	Rules      blackjack.Rules        `json:"rules"`
	State      blackjack.ShoeSnapshot `json:"state"`
	ShuffleDue bool                   `json:"shuffle_due"`
	HouseEdge  decimal.Decimal        `json:"house_edge"`
}

func New(rules blackjack.Rules, systems *counting.Registry, engine *strategy.Engine, maxSessions int, log logrus.FieldLogger) *Lobby {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Lobby{
		sessions: make(map[string]*Entry),
		rules:    rules,
		systems:  systems,
		engine:   engine,
		max:      maxSessions,
		log:      log.WithField("component", "lobby"),
	}
}

// DefaultRules is the rule set new sessions start from.
func (l *Lobby) DefaultRules() blackjack.Rules { return l.rules }

func (l *Lobby) Systems() *counting.Registry { return l.systems }

// Create opens a session. A nil rules pointer means the lobby defaults.
func (l *Lobby) Create(rules *blackjack.Rules) (*Entry, error) {
	r := l.rules
	if rules != nil {
		r = *rules
	}
	id := uuid.NewString()
	s, err := session.New(r, l.systems, l.engine,
		session.WithLogger(l.log.WithField("session_id", id)))
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.max > 0 && len(l.sessions) >= l.max {
		return nil, ErrTooManySessions
	}
	e := &Entry{ID: id, s: s}
	l.sessions[id] = e
	l.log.WithFields(logrus.Fields{"session_id": id, "total": len(l.sessions)}).Info("session created")
	return e, nil
}

func (l *Lobby) Get(id string) (*Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

func (l *Lobby) Remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.sessions[id]; !ok {
		return
	}
	delete(l.sessions, id)
	l.log.WithFields(logrus.Fields{"session_id": id, "total": len(l.sessions)}).Info("session removed")
}

func (l *Lobby) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.sessions)
}

// IDs returns the live session ids, sorted.
func (l *Lobby) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.sessions))
	for id := range l.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Apply runs one event under the session lock. A reset without a deck count
// keeps the session's current one.
func (e *Entry) Apply(ev session.Event) (bool, View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ev.Type == session.EventReset && ev.NumDecks == 0 {
		ev.NumDecks = e.s.Rules().NumDecks
	}
	applied, err := e.s.Apply(ev)
	if err != nil {
		return false, View{}, err
	}
	return applied, e.view(), nil
}

// UpdateRules lets fn edit a copy of the current rules and applies the result,
// all under the session lock.
func (e *Entry) UpdateRules(fn func(*blackjack.Rules) error) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rules := e.s.Rules()
	if err := fn(&rules); err != nil {
		return View{}, err
	}
	if err := e.s.SetRules(rules); err != nil {
		return View{}, err
	}
	return e.view(), nil
}

func (e *Entry) Recommend(q strategy.HandQuery) (strategy.Recommendation, View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.s.RecommendQuery(q)
	if err != nil {
		return strategy.Recommendation{}, View{}, err
	}
	return rec, e.view(), nil
}

func (e *Entry) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view()
}

func (e *Entry) view() View {
	return View{
		ID:         e.ID,
		Rules:      e.s.Rules(),
		State:      e.s.State(),
		ShuffleDue: e.s.ShuffleDue(),
		HouseEdge:  e.s.HouseEdge(),
	}
}
