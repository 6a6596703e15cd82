// Package orchestrator drives one conversational turn: it extracts facts,
// consults the customer directory, builds the prompt, asks the reasoning
// engine and records the outcome.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"voice_agent/internal/catalog"
	"voice_agent/internal/directory"
	"voice_agent/internal/facts"
	"voice_agent/internal/gateway"
	"voice_agent/internal/logger"
	"voice_agent/internal/model"
	"voice_agent/internal/session"
)

// DefaultSessionID is used when a request carries no session id.
const DefaultSessionID = "default"

var (
	ErrEmptyUtterance  = errors.New("no message provided")
	ErrUnknownBusiness = errors.New("unknown business")
)

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Sessions  *session.Manager
	Directory directory.Directory
	Catalog   *catalog.Catalog
	Extractor facts.Extractor
	Gateway   gateway.Gateway
	// ToolsURL is where the engine reaches the business function tools.
	// Function tools are not offered when it is empty.
	ToolsURL string
}

// Orchestrator runs turns. Turns of one session are serialised; different
// sessions run in parallel.
type Orchestrator struct {
	deps      Deps
	confirm   facts.Confirmation
	processor *processor
	locks     sync.Map
}

// TurnRequest is one customer utterance.
type TurnRequest struct {
	SessionID  string
	BusinessID string
	Message    string
}

// TurnResult is what a finished turn reports back.
type TurnResult struct {
	Answer    string        `json:"response"`
	Success   bool          `json:"success"`
	Business  string        `json:"business"`
	Error     string        `json:"error,omitempty"`
	Facts     model.FactSet `json:"facts"`
	Returning bool          `json:"returning"`
	Path      []State       `json:"path"`
}

// turn is the state carried between steps.
type turn struct {
	sessionID  string
	businessID string
	utterance  string

	business   catalog.Business
	session    *model.Session
	background func() model.FactSet
	prompt     string
	tools      []gateway.Tool

	answer  string
	success bool
	reason  string
	path    []State
}

// New creates an orchestrator.
func New(deps Deps) *Orchestrator {
	o := &Orchestrator{deps: deps}

	p := newProcessor()
	p.add(StateReceived, o.receive, StateExtracted)
	p.add(StateExtracted, o.extract, StateLookedUp)
	p.add(StateLookedUp, o.lookUp, StateContextBuilt)
	p.add(StateContextBuilt, o.buildContext, StateAnswered)
	p.add(StateAnswered, o.answer, StateRecorded)
	p.add(StateRecorded, o.record, "")
	o.processor = p

	return o
}

// HandleTurn runs a full turn. Engine failures do not fail the turn: the
// fallback answer is recorded and returned with Success false. Errors are
// returned for invalid input and session storage failures only.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	t, err := o.newTurn(req)
	if err != nil {
		return nil, err
	}

	unlock, err := o.lock(ctx, t.sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	start := time.Now()
	if err := o.processor.run(ctx, t, StateReceived, StateRecorded); err != nil {
		return nil, err
	}

	res := o.result(t)
	logger.Info().
		Str("session_id", t.sessionID).
		Str("business_id", t.businessID).
		Bool("success", res.Success).
		Dur("took", time.Since(start)).
		Msg("turn completed")
	return res, nil
}

// newTurn validates a request and fills in defaults.
func (o *Orchestrator) newTurn(req TurnRequest) (*turn, error) {
	utterance := strings.TrimSpace(req.Message)
	if utterance == "" {
		return nil, ErrEmptyUtterance
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	businessID := strings.TrimSpace(req.BusinessID)
	if businessID == "" {
		businessID = o.deps.Catalog.DefaultID()
	}
	business, ok := o.deps.Catalog.Get(businessID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBusiness, businessID)
	}

	return &turn{
		sessionID:  sessionID,
		businessID: businessID,
		utterance:  utterance,
		business:   business,
	}, nil
}

func (o *Orchestrator) result(t *turn) *TurnResult {
	res := &TurnResult{
		Answer:   t.answer,
		Success:  t.success,
		Business: t.business.Name,
		Error:    t.reason,
		Path:     append([]State(nil), t.path...),
	}
	if t.session != nil {
		res.Facts = t.session.Facts.Clone()
		res.Returning = t.session.IsReturningCustomer
	}
	return res
}

// lock serialises work on one session. The returned function releases it.
func (o *Orchestrator) lock(ctx context.Context, sessionID string) (func(), error) {
	v, _ := o.locks.LoadOrStore(sessionID, make(chan struct{}, 1))
	ch := v.(chan struct{})
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Greeting is the opening line for a session.
type Greeting struct {
	Greeting string `json:"greeting"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`
}

// Greeting returns the business greeting, personalised when the session
// already knows the caller's name. The directory is not consulted since a
// new session has no name to look up yet. Unknown businesses fall back to
// the default one.
func (o *Orchestrator) Greeting(ctx context.Context, sessionID, businessID string) (Greeting, error) {
	business, ok := o.deps.Catalog.Get(businessID)
	if !ok {
		business, _ = o.deps.Catalog.Get(o.deps.Catalog.DefaultID())
	}
	g := Greeting{Greeting: business.Greeting, Name: business.Name, Icon: business.Icon}

	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	s, found, err := o.deps.Sessions.Get(ctx, sessionID)
	if err != nil {
		return g, err
	}
	if found {
		if name := s.Facts.Name(); name != "" {
			g.Greeting = fmt.Sprintf("Welcome back, %s! %s", name, business.Greeting)
		}
	}
	return g, nil
}

// Reset forgets a session.
func (o *Orchestrator) Reset(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	unlock, err := o.lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := o.deps.Sessions.Reset(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to reset session: %w", err)
	}
	logger.Info().Str("session_id", sessionID).Msg("session reset")
	return nil
}

// Snapshot is a read-only dump of what the agent remembers.
type Snapshot struct {
	Customers map[string]model.FactSet `json:"customers"`
	Sessions  map[string]model.FactSet `json:"sessions"`
}

// Snapshot lists every directory entry and the facts of every session.
func (o *Orchestrator) Snapshot(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Customers: map[string]model.FactSet{}, Sessions: map[string]model.FactSet{}}

	if o.deps.Directory != nil {
		customers, err := o.deps.Directory.ListAll(ctx)
		if err != nil {
			return snap, fmt.Errorf("failed to list customers: %w", err)
		}
		snap.Customers = customers
	}

	sessions, err := o.deps.Sessions.List(ctx)
	if err != nil {
		return snap, fmt.Errorf("failed to list sessions: %w", err)
	}
	for _, s := range sessions {
		snap.Sessions[s.ID] = s.Facts
	}
	return snap, nil
}
