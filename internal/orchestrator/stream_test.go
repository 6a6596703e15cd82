package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice_agent/internal/gateway"
	"voice_agent/internal/model"
)

func drain(ch <-chan StreamEvent) []StreamEvent {
	var out []StreamEvent
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func TestStreamTurnRecordsOnDone(t *testing.T) {
	ctx := context.Background()
	h := newHarness(&stubGateway{events: []gateway.Event{
		{Type: gateway.EventDelta, Content: "Happy to "},
		{Type: gateway.EventDelta, Content: "help!"},
		{Type: gateway.EventDone, Content: "Happy to help!"},
	}}, nil)

	ch, err := h.orch.StreamTurn(ctx, TurnRequest{SessionID: "s1", BusinessID: "hotel", Message: "I need a room for 2"})
	require.NoError(t, err)
	events := drain(ch)

	require.Len(t, events, 3)
	assert.Equal(t, "Happy to ", events[0].Content)
	last := events[2]
	assert.Equal(t, gateway.EventDone, last.Type)
	require.NotNil(t, last.Result)
	assert.True(t, last.Result.Success)
	assert.Equal(t, "Happy to help!", last.Result.Answer)
	assert.Equal(t, "2", last.Result.Facts.Value(model.FactPartySize))
	assert.Equal(t, StateRecorded, last.Result.Path[len(last.Result.Path)-1])

	s, _, err := h.sessions.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, s.Turns, 2)
	assert.Equal(t, "Happy to help!", s.Turns[1].Text)
}

func TestStreamTurnFailureRecordsFallback(t *testing.T) {
	ctx := context.Background()
	h := newHarness(&stubGateway{events: []gateway.Event{
		{Type: gateway.EventError, Err: "API error: 500"},
	}}, nil)

	ch, err := h.orch.StreamTurn(ctx, TurnRequest{SessionID: "s1", Message: "hello"})
	require.NoError(t, err)
	events := drain(ch)

	require.Len(t, events, 1)
	assert.Equal(t, gateway.EventError, events[0].Type)
	assert.Equal(t, gateway.FallbackAnswer, events[0].Content)
	assert.Equal(t, "API error: 500", events[0].Result.Error)

	s, _, err := h.sessions.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, s.Turns, 2)
	assert.Equal(t, gateway.FallbackAnswer, s.Turns[1].Text)
}

func TestStreamTurnCancelledRecordsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := newHarness(&stubGateway{block: true}, nil)

	ch, err := h.orch.StreamTurn(ctx, TurnRequest{SessionID: "s1", Message: "hello"})
	require.NoError(t, err)

	time.AfterFunc(20*time.Millisecond, cancel)
	assert.Empty(t, drain(ch))

	s, found, err := h.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Empty(t, s.Turns)

	// the session lock was released
	res, err := h.orch.HandleTurn(context.Background(), TurnRequest{SessionID: "s1", Message: "hello again"})
	require.NoError(t, err)
	assert.Equal(t, StateRecorded, res.Path[len(res.Path)-1])
}

func TestStreamTurnRejectsBadInput(t *testing.T) {
	h := newHarness(&stubGateway{}, nil)
	_, err := h.orch.StreamTurn(context.Background(), TurnRequest{Message: ""})
	assert.ErrorIs(t, err, ErrEmptyUtterance)
}
