package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"blackjack-lite/apps/server/internal/lobby"
	"blackjack-lite/blackjack"
	"blackjack-lite/blackjack/strategy"
	"blackjack-lite/card"
	"blackjack-lite/session"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type rankRequest struct {
	Rank card.Rank `json:"rank"`
}

type resetRequest struct {
	NumDecks int `json:"num_decks"`
}

type quickRequest struct {
	Bucket *card.Bucket `json:"bucket"`
}

type eventResponse struct {
	Applied bool       `json:"applied"`
	View    lobby.View `json:"view"`
}

type recommendResponse struct {
	Recommendation strategy.Recommendation `json:"recommendation"`
	View           lobby.View              `json:"view"`
}

type systemInfo struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Level              int     `json:"level"`
	Balanced           bool    `json:"balanced"`
	PlayingEfficiency  float64 `json:"playing_efficiency"`
	BettingCorrelation float64 `json:"betting_correlation"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.lobby.Count(),
	})
}

func (s *Server) handleSystems(w http.ResponseWriter, r *http.Request) {
	reg := s.lobby.Systems()
	out := make([]systemInfo, 0, reg.Count())
	for _, id := range reg.IDs() {
		sys, err := reg.Get(id)
		if err != nil {
			continue
		}
		out = append(out, systemInfo{
			ID:                 sys.ID,
			Name:               sys.Name,
			Level:              sys.Level(),
			Balanced:           sys.Balanced(),
			PlayingEfficiency:  sys.PlayingEfficiency,
			BettingCorrelation: sys.BettingCorrelation,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var rules *blackjack.Rules
	if r.ContentLength != 0 {
		// Partial bodies overlay the lobby defaults.
		base := s.lobby.DefaultRules()
		if err := decode(r, &base); err != nil {
			s.writeError(w, r, err)
			return
		}
		rules = &base
	}
	e, err := s.lobby.Create(rules)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, e.View())
}

func (s *Server) entry(w http.ResponseWriter, r *http.Request) (*lobby.Entry, bool) {
	e, err := s.lobby.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return e, true
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, e.View())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	s.lobby.Remove(e.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request, ev session.Event) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	applied, view, err := e.Apply(ev)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !applied {
		s.log.WithFields(logrus.Fields{"session_id": e.ID, "event": ev.Type}).Debug("event absorbed as no-op")
	}
	s.writeJSON(w, http.StatusOK, eventResponse{Applied: applied, View: view})
}

func (s *Server) handleDeal(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.apply(w, r, session.Deal(req.Rank))
}

func (s *Server) handleCorrect(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.apply(w, r, session.Correct(req.Rank))
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, session.UndoEvent())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.apply(w, r, session.ResetEvent(req.NumDecks))
}

func (s *Server) handleQuick(w http.ResponseWriter, r *http.Request) {
	var req quickRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Bucket == nil {
		s.writeError(w, r, fmt.Errorf("%w: bucket is required", lobby.ErrBadRequest))
		return
	}
	s.apply(w, r, session.Quick(*req.Bucket))
}

// handleRules overlays the body on the session's current rules.
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", lobby.ErrBadRequest, err))
		return
	}
	view, err := e.UpdateRules(func(rules *blackjack.Rules) error {
		return decodeJSON(bytes.NewReader(body), rules)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, eventResponse{Applied: true, View: view})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var q strategy.HandQuery
	if err := decode(r, &q); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	rec, view, err := e.Recommend(q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, recommendResponse{Recommendation: rec, View: view})
}
