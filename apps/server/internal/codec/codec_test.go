package codec

import (
	"testing"

	"blackjack-lite/apps/server/internal/lobby"
	"blackjack-lite/blackjack"
	"blackjack-lite/card"
	"blackjack-lite/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestDecodeJSON(t *testing.T) {
	req, err := DecodeJSON([]byte(`{"id":"7","type":"recommend","hand":{"hand_type":"soft","hand_value":18,"dealer_upcard":"9"}}`))
	require.NoError(t, err)
	assert.Equal(t, "7", req.ID)
	require.NotNil(t, req.Hand)
	assert.Equal(t, blackjack.HandTypeSoft, req.Hand.HandType)
	assert.Equal(t, 18, req.Hand.HandValue)
	assert.Equal(t, card.Rank9, req.Hand.DealerUpcard)

	_, err = DecodeJSON([]byte(`{"type":"deal","rank":"X"}`))
	assert.ErrorIs(t, err, lobby.ErrBadRequest)
}

func TestRequestEvent(t *testing.T) {
	ev, ok, err := Request{Type: "deal", Rank: card.RankA}.Event()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, session.Deal(card.RankA), ev)

	_, ok, err = Request{Type: TypeRecommend}.Event()
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = Request{Type: "shuffle"}.Event()
	assert.ErrorIs(t, err, session.ErrInvalidEvent)
}

func TestDecodeProto(t *testing.T) {
	st, err := structpb.NewStruct(map[string]any{
		"id":     "q1",
		"type":   "quick",
		"bucket": "-1",
	})
	require.NoError(t, err)
	data, err := proto.Marshal(st)
	require.NoError(t, err)

	req, err := DecodeProto(data)
	require.NoError(t, err)
	assert.Equal(t, "quick", req.Type)
	require.NotNil(t, req.Bucket)
	assert.Equal(t, card.BucketHigh, *req.Bucket)

	st, err = structpb.NewStruct(map[string]any{"type": "reset", "num_decks": 2})
	require.NoError(t, err)
	data, err = proto.Marshal(st)
	require.NoError(t, err)
	req, err = DecodeProto(data)
	require.NoError(t, err)
	assert.Equal(t, 2, req.NumDecks)

	_, err = DecodeProto([]byte{0xff, 0xff})
	assert.ErrorIs(t, err, lobby.ErrBadRequest)
}

func TestEncodeProto(t *testing.T) {
	applied := true
	resp := NewResponse(Request{ID: "a", Type: "undo"})
	resp.Applied = &applied

	data, err := EncodeProto(resp)
	require.NoError(t, err)

	var st structpb.Struct
	require.NoError(t, proto.Unmarshal(data, &st))
	m := st.AsMap()
	assert.Equal(t, "a", m["id"])
	assert.Equal(t, "undo", m["type"])
	assert.Equal(t, true, m["applied"])
}
