package facts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"voice_agent/internal/logger"
	vmodel "voice_agent/internal/model"
)

const extractionSystemPrompt = `You extract customer details from a single message sent to a business voice agent.

Return ONLY a JSON object, no prose and no markdown. Use short, descriptive lowercase keys with
underscores, for example: name, phone, email, party_size, reservation_date, reservation_time,
seating_preference, budget, bedrooms, service_interest, membership_type.

Rules:
- Only include details the customer actually stated in the message. Never guess or invent values.
- Use the recent conversation only to understand what the message refers to.
- Do not call any tools or search for anything.
- Use true for yes/no facts the customer clearly expressed (for example "wants_to_book": true).
- If nothing is stated, return {{}}.`

const extractionUserPrompt = `Recent conversation:
{context}

Customer message:
{text}`

// LLM delegates extraction to a chat model through an eino chain.
type LLM struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewLLM compiles the extraction chain around chatModel.
func NewLLM(ctx context.Context, chatModel model.BaseChatModel) (*LLM, error) {
	template := prompt.FromMessages(schema.FString,
		schema.SystemMessage(extractionSystemPrompt),
		schema.UserMessage(extractionUserPrompt),
	)

	chain, err := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(template).
		AppendChatModel(chatModel).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating extraction chain: %w", err)
	}
	return &LLM{chain: chain}, nil
}

// Extract asks the model for facts. Failures are logged and yield an empty set.
func (l *LLM) Extract(ctx context.Context, text, conversation string) vmodel.FactSet {
	var empty vmodel.FactSet
	text = strings.TrimSpace(text)
	if text == "" {
		return empty
	}
	if strings.TrimSpace(conversation) == "" {
		conversation = "(none)"
	}

	start := time.Now()
	msg, err := l.chain.Invoke(ctx, map[string]any{
		"text":    text,
		"context": conversation,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("llm extraction failed")
		return empty
	}

	facts := ParseFacts(msg.Content)
	logger.Debug().
		Int("facts", facts.Len()).
		Dur("took", time.Since(start)).
		Msg("llm extraction done")
	return facts
}

// Hybrid runs the deterministic rules inline and exposes the LLM pass
// separately so callers can overlap it with other work.
type Hybrid struct {
	Fast Extractor
	Slow Extractor
}

// Extract runs only the fast extractor.
func (h *Hybrid) Extract(ctx context.Context, text, conversation string) vmodel.FactSet {
	return h.Fast.Extract(ctx, text, conversation)
}

// Background starts the slow extractor and returns a function that waits for
// its result.
func (h *Hybrid) Background(ctx context.Context, text, conversation string) func() vmodel.FactSet {
	done := make(chan vmodel.FactSet, 1)
	go func() {
		done <- h.Slow.Extract(ctx, text, conversation)
	}()
	return func() vmodel.FactSet {
		return <-done
	}
}
