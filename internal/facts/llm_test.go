package facts

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vmodel "voice_agent/internal/model"
)

type fakeChatModel struct {
	reply string
	err   error
	seen  []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.seen = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func TestParseFactsFencedReply(t *testing.T) {
	reply := "```json\n{\"name\": \"Ana\", \"party_size\": 4, \"wants_to_book\": true, \"vip\": false, \"notes\": null}\n```"
	facts := ParseFacts(reply)

	assert.Equal(t, []string{"name", "party_size", "wants_to_book"}, facts.Keys())
	assert.Equal(t, "Ana", facts.Value("name"))
	assert.Equal(t, "4", facts.Value("party_size"))
	assert.Equal(t, vmodel.FactTrue, facts.Value("wants_to_book"))
}

func TestParseFactsRepairsAndNormalises(t *testing.T) {
	facts := ParseFacts(`Sure! Here you go: {"Seating Preference": "terrace", "dietary": ["vegan", "nut free", {"x": 1}], "address": {"city": "Rome"},}`)

	assert.Equal(t, "terrace", facts.Value("seating_preference"))
	assert.Equal(t, "vegan, nut free", facts.Value("dietary"))
	assert.False(t, facts.Has("address"))
}

func TestParseFactsRejectsNonObjects(t *testing.T) {
	assert.Equal(t, 0, ParseFacts("I cannot help with that").Len())
	assert.Equal(t, 0, ParseFacts(`["a", "b"]`).Len())
	assert.Equal(t, 0, ParseFacts(`{"name": "Ana"`).Len())
}

func TestLLMExtract(t *testing.T) {
	ctx := context.Background()
	fake := &fakeChatModel{reply: `{"name": "Ana", "party_size": "2"}`}
	ext, err := NewLLM(ctx, fake)
	require.NoError(t, err)

	facts := ext.Extract(ctx, "I'm Ana, table for two", "Agent: How many guests?")
	assert.Equal(t, "Ana", facts.Value("name"))
	assert.Equal(t, "2", facts.Value("party_size"))

	require.Len(t, fake.seen, 2)
	assert.Equal(t, schema.System, fake.seen[0].Role)
	assert.Contains(t, fake.seen[0].Content, "return {}")
	assert.Contains(t, fake.seen[1].Content, "I'm Ana, table for two")
	assert.Contains(t, fake.seen[1].Content, "Agent: How many guests?")
}

func TestLLMExtractFailureIsEmpty(t *testing.T) {
	ctx := context.Background()
	ext, err := NewLLM(ctx, &fakeChatModel{err: errors.New("rate limited")})
	require.NoError(t, err)
	assert.Equal(t, 0, ext.Extract(ctx, "I'm Ana", "").Len())

	ext, err = NewLLM(ctx, &fakeChatModel{reply: "no idea"})
	require.NoError(t, err)
	assert.Equal(t, 0, ext.Extract(ctx, "I'm Ana", "").Len())
}

func TestHybridBackground(t *testing.T) {
	ctx := context.Background()
	slow, err := NewLLM(ctx, &fakeChatModel{reply: `{"dietary_restriction": "vegan"}`})
	require.NoError(t, err)
	h := &Hybrid{Fast: NewDeterministic("2025"), Slow: slow}

	fast := h.Extract(ctx, "table for 4 please, I'm vegan", "")
	assert.Equal(t, "4", fast.Value(vmodel.FactPartySize))

	wait := h.Background(ctx, "table for 4 please, I'm vegan", "")
	assert.Equal(t, "vegan", wait().Value("dietary_restriction"))
}
