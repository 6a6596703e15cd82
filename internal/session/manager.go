// Package session keeps per-conversation memory: the rolling turn history and
// the facts learned so far, backed by the customer directory for callers who
// come back.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"voice_agent/internal/directory"
	"voice_agent/internal/logger"
	"voice_agent/internal/model"
)

const (
	returningHeader = "[RETURNING CUSTOMER - Found in our records!]"
	customerHeader  = "[CUSTOMER INFORMATION]"
	summaryFooter   = "[Use this information in your response. If asked about these details, provide them.]"
)

var rejectedValues = map[string]bool{"none": true, "null": true, "unknown": true}

// Manager implements session memory on top of a Repository. Operations on
// one session must be serialised by the caller.
type Manager struct {
	repo      Repository
	directory directory.Directory
	window    int
	now       func() time.Time
}

// NewManager returns a manager keeping at most window turns per session.
func NewManager(repo Repository, dir directory.Directory, window int) *Manager {
	if window <= 0 {
		window = 20
	}
	return &Manager{repo: repo, directory: dir, window: window, now: time.Now}
}

// Window is the number of turns kept per session.
func (m *Manager) Window() int {
	return m.window
}

// GetOrCreate returns the session, creating it for businessID when missing.
// An existing session keeps the business it was created for.
func (m *Manager) GetOrCreate(ctx context.Context, sessionID, businessID string) (*model.Session, error) {
	s, err := m.repo.Get(ctx, sessionID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := m.now()
	s = &model.Session{
		ID:         sessionID,
		BusinessID: businessID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := m.repo.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	logger.Debug().Str("session_id", sessionID).Str("business_id", businessID).Msg("session created")
	return s, nil
}

// Get reads a session without creating it.
func (m *Manager) Get(ctx context.Context, sessionID string) (*model.Session, bool, error) {
	s, err := m.repo.Get(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// AddTurn appends a turn and drops the oldest ones beyond the window.
func (m *Manager) AddTurn(ctx context.Context, sessionID string, role model.Role, text string) error {
	s, err := m.repo.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	now := m.now()
	s.Turns = append(s.Turns, model.Turn{Role: role, Text: text, Timestamp: now})
	if len(s.Turns) > m.window {
		s.Turns = append([]model.Turn(nil), s.Turns[len(s.Turns)-m.window:]...)
	}
	s.UpdatedAt = now
	return m.repo.Save(ctx, s)
}

// UpdateFacts merges facts into the session and returns the ones accepted.
// Blank values and placeholders such as "none" or "unknown" are dropped.
// Once the session knows a name and something else about the customer the
// facts are written through to the directory.
func (m *Manager) UpdateFacts(ctx context.Context, sessionID string, facts model.FactSet) (model.FactSet, error) {
	var accepted model.FactSet
	s, err := m.repo.Get(ctx, sessionID)
	if err != nil {
		return accepted, err
	}

	for _, k := range facts.Keys() {
		v := strings.TrimSpace(facts.Value(k))
		if v == "" || rejectedValues[strings.ToLower(v)] {
			continue
		}
		key := model.NormalizeFactKey(k)
		if key == "" {
			continue
		}
		s.Facts.Set(key, v)
		accepted.Set(key, v)
	}
	if accepted.Len() == 0 {
		return accepted, nil
	}

	m.saveToDirectory(ctx, s)
	s.UpdatedAt = m.now()
	if err := m.repo.Save(ctx, s); err != nil {
		return accepted, err
	}
	return accepted, nil
}

// notMeaningful lists facts that alone do not justify a directory entry.
// Intent flags only say what the caller wants, not who they are.
var notMeaningful = map[string]bool{
	model.FactName:                      true,
	model.FactCustomerName:              true,
	model.FactWantsToBook:               true,
	model.FactClaimsExistingReservation: true,
}

// saveToDirectory writes the session facts through when there is a name and
// at least one other meaningful fact. Failures are logged only.
func (m *Manager) saveToDirectory(ctx context.Context, s *model.Session) {
	if m.directory == nil {
		return
	}
	name := s.Facts.Name()
	if name == "" {
		return
	}

	var payload model.FactSet
	meaningful := 0
	for _, k := range s.Facts.Keys() {
		if strings.HasPrefix(k, "_") {
			continue
		}
		payload.Set(k, s.Facts.Value(k))
		if !notMeaningful[k] {
			meaningful++
		}
	}
	if meaningful == 0 {
		return
	}

	created, err := m.directory.Save(ctx, name, s.BusinessID, payload)
	if err != nil {
		logger.Warn().Err(err).Str("session_id", s.ID).Str("business_id", s.BusinessID).Msg("failed to save customer")
		return
	}
	if created {
		key := directory.Key(name, s.BusinessID)
		if !slices.Contains(s.CreatedEntries, key) {
			s.CreatedEntries = append(s.CreatedEntries, key)
		}
		logger.Info().Str("session_id", s.ID).Str("customer", key).Msg("customer saved")
	}
}

// LookupAndMerge copies directory facts for name into keys the session does
// not know yet. It reports whether the customer was found. Entries this
// session created itself do not mark the caller as returning.
func (m *Manager) LookupAndMerge(ctx context.Context, sessionID, name string) (bool, error) {
	if m.directory == nil || strings.TrimSpace(name) == "" {
		return false, nil
	}
	s, err := m.repo.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}

	stored, found, err := m.directory.Find(ctx, name, s.BusinessID)
	if err != nil {
		logger.Warn().Err(err).Str("session_id", sessionID).Msg("customer lookup failed")
		return false, nil
	}
	if !found {
		return false, nil
	}

	restored := 0
	for _, k := range stored.Keys() {
		v := stored.Value(k)
		if strings.TrimSpace(v) == "" || s.Facts.Has(k) {
			continue
		}
		s.Facts.Set(k, v)
		restored++
	}
	if !slices.Contains(s.CreatedEntries, directory.Key(name, s.BusinessID)) {
		s.IsReturningCustomer = true
	}
	s.UpdatedAt = m.now()

	logger.Info().
		Str("session_id", sessionID).
		Bool("returning", s.IsReturningCustomer).
		Int("restored", restored).
		Msg("customer found in directory")
	return true, m.repo.Save(ctx, s)
}

// ContextSummary renders the known facts for the prompt, or "" when none.
func (m *Manager) ContextSummary(ctx context.Context, sessionID string) (string, error) {
	s, err := m.repo.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return Summary(s), nil
}

// Summary renders the fact block of a session.
func Summary(s *model.Session) string {
	var lines []string
	for _, k := range s.Facts.Keys() {
		if strings.HasPrefix(k, "_") {
			continue
		}
		lines = append(lines, fmt.Sprintf("• %s: %s", displayKey(k), s.Facts.Value(k)))
	}
	if len(lines) == 0 {
		return ""
	}

	header := customerHeader
	if s.IsReturningCustomer {
		header = returningHeader
	}
	return header + "\n" + strings.Join(lines, "\n") + "\n\n" + summaryFooter
}

func displayKey(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Reset forgets a session.
func (m *Manager) Reset(ctx context.Context, sessionID string) error {
	return m.repo.Delete(ctx, sessionID)
}

// List returns every session.
func (m *Manager) List(ctx context.Context) ([]*model.Session, error) {
	return m.repo.List(ctx)
}
