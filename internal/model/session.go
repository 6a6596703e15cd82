package model

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
)

// Turn is one utterance in a conversation.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the per-conversation memory record.
type Session struct {
	ID                  string    `json:"id"`
	BusinessID          string    `json:"business_id"`
	Turns               []Turn    `json:"turns"`
	Facts               FactSet   `json:"facts"`
	IsReturningCustomer bool      `json:"is_returning_customer"`
	CreatedEntries      []string  `json:"created_entries,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Turns = append([]Turn(nil), s.Turns...)
	out.CreatedEntries = append([]string(nil), s.CreatedEntries...)
	out.Facts = s.Facts.Clone()
	return &out
}

// RecentTurns returns at most n of the latest turns.
func (s *Session) RecentTurns(n int) []Turn {
	if n <= 0 || len(s.Turns) <= n {
		return s.Turns
	}
	return s.Turns[len(s.Turns)-n:]
}
