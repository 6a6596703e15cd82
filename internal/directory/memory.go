package directory

import (
	"context"
	"strings"
	"sync"
	"time"

	"voice_agent/internal/model"
)

// Memory keeps entries for the lifetime of the process.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	now     func() time.Time
}

// NewMemory returns an empty in-memory directory.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*Entry), now: time.Now}
}

func (m *Memory) Save(_ context.Context, name, businessID string, facts model.FactSet) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, nil
	}
	key := Key(name, businessID)

	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.entries[key]
	m.entries[key] = merge(existing, name, businessID, facts, m.now())
	return !ok, nil
}

func (m *Memory) Find(_ context.Context, name, businessID string) (model.FactSet, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[Key(name, businessID)]
	if !ok {
		return model.FactSet{}, false, nil
	}
	return entry.Facts.Clone(), true, nil
}

func (m *Memory) ListAll(_ context.Context) (map[string]model.FactSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]model.FactSet, len(m.entries))
	for k, e := range m.entries {
		out[k] = e.Facts.Clone()
	}
	return out, nil
}
