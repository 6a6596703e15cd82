package orchestrator

import (
	"context"

	"voice_agent/internal/gateway"
	"voice_agent/internal/logger"
)

// StreamEvent is one update of a streamed turn. The last event of a turn is
// a done or error event carrying the final result; an error event's Content
// is the fallback answer.
type StreamEvent struct {
	Type    gateway.EventType `json:"type"`
	Content string            `json:"content,omitempty"`
	Result  *TurnResult       `json:"result,omitempty"`
}

// StreamTurn runs a turn and streams the answer as it is produced. Input
// errors are returned before anything is streamed. The turn is recorded
// once the answer is complete or the engine fails; when ctx is cancelled
// first nothing is recorded.
func (o *Orchestrator) StreamTurn(ctx context.Context, req TurnRequest) (<-chan StreamEvent, error) {
	t, err := o.newTurn(req)
	if err != nil {
		return nil, err
	}

	unlock, err := o.lock(ctx, t.sessionID)
	if err != nil {
		return nil, err
	}
	if err := o.processor.run(ctx, t, StateReceived, StateContextBuilt); err != nil {
		unlock()
		return nil, err
	}

	out := make(chan StreamEvent, 16)
	go func() {
		defer close(out)
		defer unlock()

		finished := false
		for ev := range o.deps.Gateway.Stream(ctx, t.prompt, t.tools) {
			switch ev.Type {
			case gateway.EventDelta:
				if !emit(ctx, out, StreamEvent{Type: gateway.EventDelta, Content: ev.Content}) {
					logger.Debug().Str("session_id", t.sessionID).Msg("stream abandoned")
					return
				}
			case gateway.EventDone:
				t.succeed(ev.Content)
				finished = true
			case gateway.EventError:
				t.fail(ev.Err)
				finished = true
			}
		}

		if ctx.Err() != nil {
			logger.Debug().Str("session_id", t.sessionID).Msg("stream cancelled, turn not recorded")
			return
		}
		if !finished {
			t.fail("stream ended without an answer")
		}
		t.path = append(t.path, StateAnswered)

		if err := o.processor.run(ctx, t, StateRecorded, StateRecorded); err != nil {
			t.fail(err.Error())
		}

		final := StreamEvent{Type: gateway.EventDone, Content: t.answer, Result: o.result(t)}
		if !t.success {
			final.Type = gateway.EventError
		}
		emit(ctx, out, final)
	}()
	return out, nil
}

func emit(ctx context.Context, ch chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
