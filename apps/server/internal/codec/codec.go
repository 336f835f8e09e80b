package codec

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"blackjack-lite/apps/server/internal/lobby"
	"blackjack-lite/blackjack"
	"blackjack-lite/blackjack/strategy"
	"blackjack-lite/card"
	"blackjack-lite/session"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Request types beyond the session events.
const (
	TypeState     = "state"
	TypeRecommend = "recommend"
)

// Request is one client envelope. Text frames carry it as JSON, binary
// frames as a protobuf-encoded google.protobuf.Struct of the same shape.
type Request struct {
	ID       string              `json:"id,omitempty"`
	Type     string              `json:"type"`
	Rank     card.Rank           `json:"rank,omitempty"`
	Bucket   *card.Bucket        `json:"bucket,omitempty"`
	NumDecks int                 `json:"num_decks,omitempty"`
	Rules    *blackjack.Rules    `json:"rules,omitempty"`
	Hand     *strategy.HandQuery `json:"hand,omitempty"`
}

// Event converts an event request. The bool is false for non-event types.
func (r Request) Event() (session.Event, bool, error) {
	switch strings.ToLower(r.Type) {
	case TypeState, TypeRecommend:
		return session.Event{}, false, nil
	}
	var et session.EventType
	if err := et.UnmarshalText([]byte(r.Type)); err != nil {
		return session.Event{}, false, err
	}
	return session.Event{
		Type:     et,
		Rank:     r.Rank,
		Bucket:   r.Bucket,
		NumDecks: r.NumDecks,
		Rules:    r.Rules,
	}, true, nil
}

// ErrorBody mirrors the HTTP status the same failure would get.
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Response struct {
	ID             string                   `json:"id,omitempty"`
	Type           string                   `json:"type"`
	ServerTsMs     int64                    `json:"server_ts_ms"`
	Applied        *bool                    `json:"applied,omitempty"`
	View           *lobby.View              `json:"view,omitempty"`
	Recommendation *strategy.Recommendation `json:"recommendation,omitempty"`
	Error          *ErrorBody               `json:"error,omitempty"`
}

// NewResponse stamps a response for req.
func NewResponse(req Request) Response {
	return Response{ID: req.ID, Type: req.Type, ServerTsMs: time.Now().UnixMilli()}
}

func DecodeJSON(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", lobby.ErrBadRequest, err)
	}
	return req, nil
}

func EncodeJSON(resp Response) ([]byte, error) {
	return json.Marshal(resp)
}

func DecodeProto(data []byte) (Request, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return Request{}, fmt.Errorf("%w: %v", lobby.ErrBadRequest, err)
	}
	var req Request
	if err := FromStruct(&st, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", lobby.ErrBadRequest, err)
	}
	return req, nil
}

func EncodeProto(resp Response) ([]byte, error) {
	st, err := ToStruct(resp)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

// ToStruct converts any JSON-encodable value into a Struct. Numbers become
// doubles, as in protobuf's JSON mapping.
func ToStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("struct payload must be a JSON object: %w", err)
	}
	return structpb.NewStruct(m)
}

// FromStruct decodes st into out through its JSON form.
func FromStruct(st *structpb.Struct, out any) error {
	raw, err := json.Marshal(st.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
