//go:build js && wasm

package main

import (
	"encoding/json"
	"errors"
	"syscall/js"

	"blackjack-lite/blackjack"
	"blackjack-lite/blackjack/strategy"
	"blackjack-lite/counting"
	"blackjack-lite/session"
)

var (
	systems = counting.Default()
	engine  = strategy.MustNew(systems)
)

type replayRequest struct {
	Rules  *blackjack.Rules `json:"rules,omitempty"`
	Events []session.Event  `json:"events"`
}

type replayResponse struct {
	OK    bool                 `json:"ok"`
	Tape  *session.Tape        `json:"tape,omitempty"`
	Error *session.ReplayError `json:"error,omitempty"`
}

type recommendRequest struct {
	replayRequest
	Hand strategy.HandQuery `json:"hand"`
}

type recommendResponse struct {
	OK             bool                     `json:"ok"`
	State          *blackjack.ShoeSnapshot  `json:"state,omitempty"`
	Recommendation *strategy.Recommendation `json:"recommendation,omitempty"`
	Error          *session.ReplayError     `json:"error,omitempty"`
}

func main() {
	js.Global().Set("__advisorReplay", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) < 1 {
			return mustJSON(replayResponse{Error: requestError("invalid_request", "missing request payload")})
		}
		return mustJSON(handleReplay(args[0].String()))
	}))
	js.Global().Set("__advisorRecommend", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) < 1 {
			return mustJSON(recommendResponse{Error: requestError("invalid_request", "missing request payload")})
		}
		return mustJSON(handleRecommend(args[0].String()))
	}))

	select {}
}

func handleReplay(raw string) replayResponse {
	var req replayRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return replayResponse{Error: requestError("invalid_json", err.Error())}
	}
	_, tape, err := replay(req)
	if err != nil {
		return replayResponse{Error: err}
	}
	return replayResponse{OK: true, Tape: tape}
}

func handleRecommend(raw string) recommendResponse {
	var req recommendRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return recommendResponse{Error: requestError("invalid_json", err.Error())}
	}
	s, _, rerr := replay(req.replayRequest)
	if rerr != nil {
		return recommendResponse{Error: rerr}
	}
	rec, err := s.RecommendQuery(req.Hand)
	if err != nil {
		return recommendResponse{Error: requestError("recommend_failed", err.Error())}
	}
	state := s.State()
	return recommendResponse{OK: true, State: &state, Recommendation: &rec}
}

func replay(req replayRequest) (*session.Session, *session.Tape, *session.ReplayError) {
	rules := blackjack.DefaultRules()
	if req.Rules != nil {
		rules = *req.Rules
	}
	s, tape, err := session.Replay(rules, systems, engine, req.Events)
	if err != nil {
		var replayErr *session.ReplayError
		if errors.As(err, &replayErr) {
			return nil, nil, replayErr
		}
		return nil, nil, requestError("replay_failed", err.Error())
	}
	return s, tape, nil
}

func requestError(reason, msg string) *session.ReplayError {
	return &session.ReplayError{StepIndex: -1, Reason: reason, Message: msg}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		b2, _ := json.Marshal(replayResponse{Error: requestError("marshal_failed", err.Error())})
		return string(b2)
	}
	return string(b)
}
