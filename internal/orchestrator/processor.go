package orchestrator

import (
	"context"
	"fmt"

	"voice_agent/internal/logger"
)

// State names one step of a turn.
type State string

const (
	StateReceived     State = "RECEIVED"
	StateExtracted    State = "EXTRACTED"
	StateLookedUp     State = "LOOKED_UP"
	StateContextBuilt State = "CONTEXT_BUILT"
	StateAnswered     State = "ANSWERED"
	StateRecorded     State = "RECORDED"
)

type step func(ctx context.Context, t *turn) error

// processor runs the steps of a turn along a fixed flow and records the
// path it took.
type processor struct {
	steps map[State]step
	next  map[State]State
}

func newProcessor() *processor {
	return &processor{
		steps: make(map[State]step),
		next:  make(map[State]State),
	}
}

// add registers fn for state s. next is "" for the final state.
func (p *processor) add(s State, fn step, next State) {
	p.steps[s] = fn
	p.next[s] = next
}

// run executes the flow from state from through state last.
func (p *processor) run(ctx context.Context, t *turn, from, last State) error {
	for cur := from; cur != ""; cur = p.next[cur] {
		fn, ok := p.steps[cur]
		if !ok {
			return fmt.Errorf("step not found: %s", cur)
		}
		if err := fn(ctx, t); err != nil {
			logger.Error().Err(err).Str("session_id", t.sessionID).Str("state", string(cur)).Msg("turn step failed")
			return fmt.Errorf("error executing step %s: %w", cur, err)
		}
		t.path = append(t.path, cur)
		logger.Debug().Str("session_id", t.sessionID).Str("state", string(cur)).Msg("turn step done")

		if cur == last {
			break
		}
	}
	return nil
}
