package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"voice_agent/internal/logger"
)

const maxToolRounds = 4

// ChatModel answers prompts with an eino chat model. Function tool
// declarations are served by the local tools registered here; platform
// search tools have no local counterpart and are ignored.
type ChatModel struct {
	model model.BaseChatModel
	tools map[string]tool.InvokableTool
	infos []*schema.ToolInfo
}

// ToolCallRecord is one local tool invocation made while answering.
type ToolCallRecord struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Result    string `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewChatModel wraps m, making tools available to it.
func NewChatModel(ctx context.Context, m model.BaseChatModel, tools ...tool.InvokableTool) (*ChatModel, error) {
	g := &ChatModel{model: m, tools: make(map[string]tool.InvokableTool, len(tools))}
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get tool info: %w", err)
		}
		g.tools[info.Name] = t
		g.infos = append(g.infos, info)
	}
	return g, nil
}

func (g *ChatModel) Configured() bool {
	return g.model != nil
}

// wantsTools reports whether any declared function tool is served locally.
func (g *ChatModel) wantsTools(decl []Tool) bool {
	for _, d := range decl {
		if d.Type == ToolTypeFunction {
			if _, ok := g.tools[d.Name]; ok {
				return true
			}
		}
	}
	return false
}

// Submit runs the model, executing requested tool calls until it answers.
func (g *ChatModel) Submit(ctx context.Context, prompt string, decl []Tool) Result {
	if g.model == nil {
		return failure("chat model not configured")
	}

	var opts []model.Option
	if g.wantsTools(decl) {
		opts = append(opts, model.WithTools(g.infos))
	}

	messages := []*schema.Message{schema.UserMessage(prompt)}
	var calls []ToolCallRecord

	for round := 0; round <= maxToolRounds; round++ {
		msg, err := g.model.Generate(ctx, messages, opts...)
		if err != nil {
			logger.Error().Err(err).Int("round", round).Msg("chat model call failed")
			return failure(err.Error())
		}

		if len(msg.ToolCalls) == 0 {
			answer := strings.TrimSpace(msg.Content)
			if answer == "" {
				return failure("empty answer")
			}
			res := Result{Success: true, Answer: answer}
			if len(calls) > 0 {
				res.ToolCalls = calls
			}
			return res
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			record := g.runTool(ctx, call)
			calls = append(calls, record)
			content := record.Result
			if record.Error != "" {
				content = "error: " + record.Error
			}
			messages = append(messages, schema.ToolMessage(content, call.ID))
		}
	}
	return failure("too many tool rounds")
}

func (g *ChatModel) runTool(ctx context.Context, call schema.ToolCall) ToolCallRecord {
	record := ToolCallRecord{Name: call.Function.Name, Arguments: call.Function.Arguments}
	t, ok := g.tools[call.Function.Name]
	if !ok {
		record.Error = "unknown tool " + call.Function.Name
		return record
	}

	out, err := t.InvokableRun(ctx, call.Function.Arguments)
	if err != nil {
		logger.Warn().Err(err).Str("tool", record.Name).Msg("tool call failed")
		record.Error = err.Error()
		return record
	}
	logger.Debug().Str("tool", record.Name).Msg("tool call done")
	record.Result = out
	return record
}

// Stream streams the model's answer. Turns that need local tools are
// answered through Submit and delivered as a single delta.
func (g *ChatModel) Stream(ctx context.Context, prompt string, decl []Tool) <-chan Event {
	out := make(chan Event, 16)

	go func() {
		defer close(out)

		if g.model == nil || g.wantsTools(decl) {
			res := g.Submit(ctx, prompt, decl)
			if !res.Success {
				send(ctx, out, Event{Type: EventError, Err: res.Error})
				return
			}
			if send(ctx, out, Event{Type: EventDelta, Content: res.Answer}) {
				send(ctx, out, Event{Type: EventDone, Content: res.Answer})
			}
			return
		}

		reader, err := g.model.Stream(ctx, []*schema.Message{schema.UserMessage(prompt)})
		if err != nil {
			send(ctx, out, Event{Type: EventError, Err: err.Error()})
			return
		}
		defer reader.Close()

		var answer strings.Builder
		for {
			chunk, err := reader.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				send(ctx, out, Event{Type: EventError, Err: err.Error()})
				return
			}
			if chunk.Content == "" {
				continue
			}
			answer.WriteString(chunk.Content)
			if !send(ctx, out, Event{Type: EventDelta, Content: chunk.Content}) {
				return
			}
		}

		if strings.TrimSpace(answer.String()) == "" {
			send(ctx, out, Event{Type: EventError, Err: "empty answer"})
			return
		}
		send(ctx, out, Event{Type: EventDone, Content: answer.String()})
	}()

	return out
}
