package orchestrator

import (
	"context"
	"strings"

	"voice_agent/internal/classifier"
	"voice_agent/internal/contextbuilder"
	"voice_agent/internal/gateway"
	"voice_agent/internal/logger"
	"voice_agent/internal/model"
	"voice_agent/internal/session"
)

// recentTurns is how much history the extractor sees.
const recentTurns = 6

// backgrounder is implemented by extractors with a slow pass that can run
// alongside the engine call.
type backgrounder interface {
	Background(ctx context.Context, text, recent string) func() model.FactSet
}

func (o *Orchestrator) receive(ctx context.Context, t *turn) error {
	s, err := o.deps.Sessions.GetOrCreate(ctx, t.sessionID, t.businessID)
	if err != nil {
		return err
	}
	// a session stays with the business it started with
	if s.BusinessID != t.businessID {
		if b, ok := o.deps.Catalog.Get(s.BusinessID); ok {
			t.businessID = s.BusinessID
			t.business = b
		}
	}
	t.session = s
	return nil
}

func (o *Orchestrator) extract(ctx context.Context, t *turn) error {
	recent := renderRecent(t.session.RecentTurns(recentTurns))

	found := o.deps.Extractor.Extract(ctx, t.utterance, recent)
	if bg, ok := o.deps.Extractor.(backgrounder); ok {
		t.background = bg.Background(ctx, t.utterance, recent)
	}

	if found.Len() > 0 {
		accepted, err := o.deps.Sessions.UpdateFacts(ctx, t.sessionID, found)
		if err != nil {
			return err
		}
		logger.Debug().Str("session_id", t.sessionID).Strs("facts", accepted.Keys()).Msg("facts extracted")
	}
	return o.reload(ctx, t)
}

func (o *Orchestrator) lookUp(ctx context.Context, t *turn) error {
	name := t.session.Facts.Name()
	if name == "" || t.session.IsReturningCustomer {
		return nil
	}
	found, err := o.deps.Sessions.LookupAndMerge(ctx, t.sessionID, name)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	return o.reload(ctx, t)
}

func (o *Orchestrator) buildContext(_ context.Context, t *turn) error {
	t.prompt = contextbuilder.Build(contextbuilder.Input{
		BusinessName: t.business.Name,
		SystemPrompt: t.business.SystemPrompt,
		FactSummary:  session.Summary(t.session),
		History:      t.session.Turns,
		Utterance:    t.utterance,
		Facts:        t.session.Facts,
		Returning:    t.session.IsReturningCustomer,
	})
	t.tools = classifier.Decide(t.utterance).Tools(o.deps.ToolsURL)
	return nil
}

func (o *Orchestrator) answer(ctx context.Context, t *turn) error {
	res := o.deps.Gateway.Submit(ctx, t.prompt, t.tools)
	if !res.Success {
		t.fail(res.Error)
		return nil
	}
	t.succeed(res.Answer)
	return nil
}

func (o *Orchestrator) record(ctx context.Context, t *turn) error {
	if err := o.deps.Sessions.AddTurn(ctx, t.sessionID, model.RoleCustomer, t.utterance); err != nil {
		return err
	}
	if err := o.deps.Sessions.AddTurn(ctx, t.sessionID, model.RoleAgent, t.answer); err != nil {
		return err
	}

	if err := o.reload(ctx, t); err != nil {
		return err
	}
	if t.success {
		if confirmed := o.confirm.Extract(t.answer, t.session.Facts); confirmed.Len() > 0 {
			if _, err := o.deps.Sessions.UpdateFacts(ctx, t.sessionID, confirmed); err != nil {
				return err
			}
		}
	}
	if t.background != nil {
		if late := t.background(); late.Len() > 0 {
			if _, err := o.deps.Sessions.UpdateFacts(ctx, t.sessionID, late); err != nil {
				return err
			}
		}
	}
	return o.reload(ctx, t)
}

func (o *Orchestrator) reload(ctx context.Context, t *turn) error {
	s, err := o.deps.Sessions.GetOrCreate(ctx, t.sessionID, t.businessID)
	if err != nil {
		return err
	}
	t.session = s
	return nil
}

func (t *turn) succeed(answer string) {
	t.answer = stripRolePrefix(answer, t.business.Name)
	t.success = true
}

func (t *turn) fail(reason string) {
	logger.Warn().Str("session_id", t.sessionID).Str("reason", reason).Msg("engine failed, using fallback answer")
	t.answer = gateway.FallbackAnswer
	t.success = false
	t.reason = reason
}

// stripRolePrefix removes role labels the engine sometimes puts in front of
// its answer.
func stripRolePrefix(answer, businessName string) string {
	answer = strings.TrimSpace(answer)
	prefixes := []string{"You:", "Assistant:", "Agent:"}
	if businessName != "" {
		prefixes = append(prefixes, businessName+":")
	}
	for _, p := range prefixes {
		if strings.HasPrefix(answer, p) {
			answer = strings.TrimSpace(answer[len(p):])
		}
	}
	return answer
}

func renderRecent(turns []model.Turn) string {
	var b strings.Builder
	for _, turn := range turns {
		role := "Customer"
		if turn.Role == model.RoleAgent {
			role = "Agent"
		}
		b.WriteString(role + ": " + turn.Text + "\n")
	}
	return strings.TrimSpace(b.String())
}
