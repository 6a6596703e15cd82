package directory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofrs/flock"

	"voice_agent/internal/model"
)

// ErrLockTimeout is returned when the lock file stays held past the lock timeout.
var ErrLockTimeout = errors.New("timed out waiting for lock")

// File keeps every entry in one JSON document. A lock file next to it
// serialises writers across processes; the mutex does the same in-process.
type File struct {
	path        string
	lock        *flock.Flock
	lockTimeout time.Duration
	mu          sync.Mutex
	now         func() time.Time
}

// NewFile returns a directory persisted at path, creating its parent
// directory when needed.
func NewFile(path string, lockTimeout time.Duration) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if lockTimeout <= 0 {
		lockTimeout = 500 * time.Millisecond
	}
	return &File{
		path:        path,
		lock:        flock.New(path + ".lock"),
		lockTimeout: lockTimeout,
		now:         time.Now,
	}, nil
}

func (f *File) Save(ctx context.Context, name, businessID string, facts model.FactSet) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.acquire(ctx, f.lock.TryLockContext); err != nil {
		return false, err
	}
	defer f.lock.Unlock() //nolint:errcheck

	doc, err := f.read()
	if err != nil {
		return false, err
	}

	key := Key(name, businessID)
	existing, ok := doc[key]
	doc[key] = merge(existing, name, businessID, facts, f.now())

	data, err := sonic.ConfigStd.MarshalIndent(doc, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to marshal customers: %w", err)
	}
	if err := f.atomicWrite(data); err != nil {
		return false, err
	}
	return !ok, nil
}

func (f *File) Find(ctx context.Context, name, businessID string) (model.FactSet, bool, error) {
	doc, err := f.snapshot(ctx)
	if err != nil {
		return model.FactSet{}, false, err
	}
	entry, ok := doc[Key(name, businessID)]
	if !ok {
		return model.FactSet{}, false, nil
	}
	return entry.Facts, true, nil
}

func (f *File) ListAll(ctx context.Context) (map[string]model.FactSet, error) {
	doc, err := f.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.FactSet, len(doc))
	for k, e := range doc {
		out[k] = e.Facts
	}
	return out, nil
}

func (f *File) snapshot(ctx context.Context) (map[string]*Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.acquire(ctx, f.lock.TryRLockContext); err != nil {
		return nil, err
	}
	defer f.lock.Unlock() //nolint:errcheck
	return f.read()
}

func (f *File) acquire(ctx context.Context, try func(context.Context, time.Duration) (bool, error)) error {
	ctx, cancel := context.WithTimeout(ctx, f.lockTimeout)
	defer cancel()

	locked, err := try(ctx, 10*time.Millisecond)
	switch {
	case errors.Is(err, context.DeadlineExceeded), err == nil && !locked:
		return fmt.Errorf("%w: %s after %s", ErrLockTimeout, f.path, f.lockTimeout)
	case err != nil:
		return fmt.Errorf("failed to acquire lock on %s: %w", f.path, err)
	}
	return nil
}

// read loads the document; a missing or empty file is an empty directory.
func (f *File) read() (map[string]*Entry, error) {
	doc := make(map[string]*Entry)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(data) == 0) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", f.path, err)
	}
	return doc, nil
}

func (f *File) atomicWrite(data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(f.path), "customers_tmp_*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return nil
}
