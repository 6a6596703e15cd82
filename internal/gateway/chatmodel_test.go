package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedModel struct {
	toolsSeen []*schema.ToolInfo
	err       error
	chunks    []string
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.toolsSeen = model.GetCommonOptions(&model.Options{}, opts...).Tools

	last := input[len(input)-1]
	if last.Role == schema.Tool {
		return schema.AssistantMessage("Good news: "+last.Content, nil), nil
	}
	if len(m.toolsSeen) > 0 {
		return schema.AssistantMessage("", []schema.ToolCall{{
			ID:       "call-1",
			Function: schema.FunctionCall{Name: "check_availability", Arguments: `{"date":"tomorrow"}`},
		}}), nil
	}
	return schema.AssistantMessage("Plain answer", nil), nil
}

func (m *scriptedModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if m.err != nil {
		return nil, m.err
	}
	var msgs []*schema.Message
	for _, c := range m.chunks {
		msgs = append(msgs, schema.AssistantMessage(c, nil))
	}
	return schema.StreamReaderFromArray(msgs), nil
}

type availabilityTool struct {
	args string
}

func (a *availabilityTool) Info(context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{Name: "check_availability", Desc: "check a date"}, nil
}

func (a *availabilityTool) InvokableRun(_ context.Context, args string, _ ...tool.Option) (string, error) {
	a.args = args
	return "tomorrow is available", nil
}

func TestChatModelSubmitPlain(t *testing.T) {
	ctx := context.Background()
	m := &scriptedModel{}
	g, err := NewChatModel(ctx, m, &availabilityTool{})
	require.NoError(t, err)

	res := g.Submit(ctx, "hello", SearchTools())
	require.True(t, res.Success)
	assert.Equal(t, "Plain answer", res.Answer)
	assert.Empty(t, m.toolsSeen, "platform tools have no local counterpart")
}

func TestChatModelSubmitRunsTools(t *testing.T) {
	ctx := context.Background()
	m := &scriptedModel{}
	avail := &availabilityTool{}
	g, err := NewChatModel(ctx, m, avail)
	require.NoError(t, err)

	res := g.Submit(ctx, "is tomorrow free?", FunctionTools("https://agent.example.com"))
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Good news: tomorrow is available", res.Answer)
	assert.Equal(t, `{"date":"tomorrow"}`, avail.args)

	calls, ok := res.ToolCalls.([]ToolCallRecord)
	require.True(t, ok)
	require.Len(t, calls, 1)
	assert.Equal(t, "check_availability", calls[0].Name)
}

func TestChatModelSubmitFailure(t *testing.T) {
	ctx := context.Background()
	g, err := NewChatModel(ctx, &scriptedModel{err: errors.New("quota exceeded")})
	require.NoError(t, err)

	res := g.Submit(ctx, "hello", nil)
	assert.False(t, res.Success)
	assert.Equal(t, FallbackAnswer, res.Answer)
	assert.Equal(t, "quota exceeded", res.Error)
}

func TestChatModelStream(t *testing.T) {
	ctx := context.Background()
	g, err := NewChatModel(ctx, &scriptedModel{chunks: []string{"Wel", "", "come"}})
	require.NoError(t, err)

	events := collect(g.Stream(ctx, "hi", nil))
	assert.Equal(t, []Event{
		{Type: EventDelta, Content: "Wel"},
		{Type: EventDelta, Content: "come"},
		{Type: EventDone, Content: "Welcome"},
	}, events)

	g, err = NewChatModel(ctx, &scriptedModel{err: errors.New("down")})
	require.NoError(t, err)
	assert.Equal(t, []Event{{Type: EventError, Err: "down"}}, collect(g.Stream(ctx, "hi", nil)))
}

func TestChatModelStreamWithToolsAnswersInOnePiece(t *testing.T) {
	ctx := context.Background()
	g, err := NewChatModel(ctx, &scriptedModel{}, &availabilityTool{})
	require.NoError(t, err)

	events := collect(g.Stream(ctx, "is tomorrow free?", FunctionTools("https://agent.example.com")))
	require.Len(t, events, 2)
	assert.Equal(t, Event{Type: EventDelta, Content: "Good news: tomorrow is available"}, events[0])
	assert.Equal(t, EventDone, events[1].Type)
}
