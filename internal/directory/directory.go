// Package directory stores customer facts across sessions, keyed by business
// and case-folded customer name.
package directory

import (
	"context"
	"errors"
	"strings"
	"time"

	"voice_agent/internal/model"
)

// ErrConflict is returned when an entry keeps changing underneath a save.
var ErrConflict = errors.New("directory entry changed concurrently")

// Directory is the cross-session customer store.
type Directory interface {
	// Save merges facts into the entry for (name, businessID). Blank names
	// are ignored. created reports whether the entry did not exist before.
	Save(ctx context.Context, name, businessID string, facts model.FactSet) (created bool, err error)
	// Find returns a copy of the stored facts.
	Find(ctx context.Context, name, businessID string) (model.FactSet, bool, error)
	// ListAll returns every entry keyed "business:name".
	ListAll(ctx context.Context) (map[string]model.FactSet, error)
}

// Entry is the stored form of one customer.
type Entry struct {
	Name       string        `json:"name"`
	BusinessID string        `json:"business_id"`
	Facts      model.FactSet `json:"facts"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// NormalizeName case-folds and trims a customer name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Key returns the scoped lookup key for a customer.
func Key(name, businessID string) string {
	return businessID + ":" + NormalizeName(name)
}

// merge applies facts to entry, creating it when nil. Empty incoming values
// never overwrite stored ones.
func merge(entry *Entry, name, businessID string, facts model.FactSet, now time.Time) *Entry {
	name = strings.TrimSpace(name)
	if entry == nil {
		entry = &Entry{}
		entry.Facts.Set(model.FactName, name)
	}

	for _, k := range facts.Keys() {
		if v := facts.Value(k); strings.TrimSpace(v) != "" {
			entry.Facts.Set(k, v)
		}
	}

	entry.Name = name
	entry.BusinessID = businessID
	entry.Facts.Set(model.FactName, name)
	entry.UpdatedAt = now
	return entry
}
