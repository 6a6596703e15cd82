package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"voice_agent/internal/logger"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Business is the static persona configuration of one business type.
type Business struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Icon          string   `yaml:"icon" json:"icon"`
	Color         string   `yaml:"color" json:"color"`
	Category      string   `yaml:"category" json:"category"`
	Greeting      string   `yaml:"greeting" json:"greeting"`
	SystemPrompt  string   `yaml:"system_prompt" json:"-"`
	SampleQueries []string `yaml:"sample_queries" json:"sample_queries"`
}

// File is the YAML document shape of a catalog file.
type File struct {
	DefaultBusiness string     `yaml:"default_business"`
	Businesses      []Business `yaml:"businesses"`
}

// Catalog is a read-mostly lookup table of businesses. A file-backed
// catalog can be reloaded while the server runs.
type Catalog struct {
	mu              sync.RWMutex
	businesses      map[string]Business
	defaultBusiness string
	filePath        string
}

// New returns a catalog holding the built-in businesses.
func New(defaultBusiness string) *Catalog {
	c := &Catalog{defaultBusiness: defaultBusiness}
	c.replace(Builtin())
	return c
}

// Load returns a catalog with the built-in businesses overlaid by the YAML
// file at path. Entries in the file replace built-ins with the same id.
func Load(path, defaultBusiness string) (*Catalog, error) {
	c := New(defaultBusiness)
	c.filePath = path
	if err := c.reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the business with the given id.
func (c *Catalog) Get(id string) (Business, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.businesses[id]
	return b, ok
}

// DefaultID is the business used when a request names none.
func (c *Catalog) DefaultID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultBusiness
}

// List returns all businesses ordered by id.
func (c *Catalog) List() []Business {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Business, 0, len(c.businesses))
	for _, b := range c.businesses {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Catalog) replace(list []Business) {
	m := make(map[string]Business, len(list))
	for _, b := range list {
		m[b.ID] = b
	}
	c.mu.Lock()
	c.businesses = m
	c.mu.Unlock()
}

func (c *Catalog) reload() error {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		return fmt.Errorf("error reading catalog file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("error parsing catalog YAML: %w", err)
	}

	merged := make(map[string]Business)
	for _, b := range Builtin() {
		merged[b.ID] = b
	}
	for _, b := range file.Businesses {
		if b.ID == "" {
			return fmt.Errorf("catalog entry %q has no id", b.Name)
		}
		merged[b.ID] = b
	}

	list := make([]Business, 0, len(merged))
	for _, b := range merged {
		list = append(list, b)
	}
	c.replace(list)

	if file.DefaultBusiness != "" {
		c.mu.Lock()
		c.defaultBusiness = file.DefaultBusiness
		c.mu.Unlock()
	}

	logger.Info().Str("file", c.filePath).Int("businesses", len(list)).Msg("catalog loaded")
	return nil
}

// Watch reloads the catalog file whenever it changes until ctx is done.
func (c *Catalog) Watch(ctx context.Context) error {
	if c.filePath == "" {
		return fmt.Errorf("catalog has no backing file")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(c.filePath); err != nil {
		watcher.Close() //nolint:errcheck
		return err
	}

	go func() {
		defer watcher.Close() //nolint:errcheck
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				c.handleEvent(watcher, event)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn().Err(err).Msg("catalog watch error")
			}
		}
	}()

	logger.Info().Str("file", c.filePath).Msg("watching catalog file")
	return nil
}

func (c *Catalog) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) {
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
		if err := c.reload(); err != nil {
			logger.Warn().Err(err).Msg("catalog reload failed, keeping previous version")
		}
		return
	}

	// Editors often replace the file, which drops the watch.
	if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
		if err := watcher.Add(c.filePath); err == nil {
			if err := c.reload(); err != nil {
				logger.Warn().Err(err).Msg("catalog reload failed, keeping previous version")
			}
		}
	}
}
