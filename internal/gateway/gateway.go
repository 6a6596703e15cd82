// Package gateway talks to the hosted reasoning engine that writes the
// agent's answers.
package gateway

import "context"

// FallbackAnswer is spoken whenever the engine cannot produce an answer.
const FallbackAnswer = "I apologize, but I'm having technical difficulties. Please try again."

// Result is the outcome of one blocking call. Failures carry FallbackAnswer
// and a reason in Error.
type Result struct {
	Success   bool   `json:"success"`
	Answer    string `json:"answer"`
	Error     string `json:"error,omitempty"`
	ToolCalls any    `json:"tool_calls,omitempty"`
	Sources   any    `json:"sources,omitempty"`
}

func failure(reason string) Result {
	return Result{Success: false, Answer: FallbackAnswer, Error: reason}
}

// EventType tags streaming events.
type EventType string

const (
	EventDelta EventType = "delta"
	EventDone  EventType = "done"
	EventError EventType = "error"
)

// Event is one streaming update. A done event carries the whole answer in
// Content; an error event carries the reason in Err.
type Event struct {
	Type    EventType `json:"type"`
	Content string    `json:"content,omitempty"`
	Err     string    `json:"error,omitempty"`
}

// Gateway submits prompts to the reasoning engine. Implementations never
// panic and report failures through Result and error events.
type Gateway interface {
	Submit(ctx context.Context, prompt string, tools []Tool) Result
	// Stream yields delta events followed by exactly one done or error
	// event, then closes the channel.
	Stream(ctx context.Context, prompt string, tools []Tool) <-chan Event
	// Configured reports whether credentials are present.
	Configured() bool
}

// send delivers ev unless ctx is done first.
func send(ctx context.Context, ch chan<- Event, ev Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
