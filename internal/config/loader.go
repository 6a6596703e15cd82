package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"voice_agent/internal/model"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the full service configuration, read from the environment.
type Config struct {
	Log        model.LogConfig        `envconfig:"LOG"`
	Server     model.ServerConfig     `envconfig:"SERVER"`
	Gateway    model.GatewayConfig    `envconfig:"GATEWAY"`
	LLM        model.LLMConfig        `envconfig:"LLM"`
	Extraction model.ExtractionConfig `envconfig:"EXTRACTION"`
	Session    model.SessionConfig    `envconfig:"SESSION"`
	Directory  model.DirectoryConfig  `envconfig:"DIRECTORY"`
	Redis      model.RedisConfig      `envconfig:"REDIS"`
	Transcribe model.TranscribeConfig `envconfig:"TRANSCRIBE"`
	Catalog    model.CatalogConfig    `envconfig:"CATALOG"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error loading %s: %w", f, err)
		}
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks enumerated settings and the combinations they require.
func (c *Config) Validate() error {
	var errs []error

	check := func(field, value string, allowed ...string) {
		for _, a := range allowed {
			if strings.EqualFold(value, a) {
				return
			}
		}
		errs = append(errs, fmt.Errorf("%s must be one of %s, got %q", field, strings.Join(allowed, "|"), value))
	}

	check("GATEWAY_BACKEND", c.Gateway.Backend, "runs", "chatmodel")
	check("LLM_PROVIDER", c.LLM.Provider, "openai", "ollama", "deepseek", "ark")
	check("EXTRACTION_MODE", c.Extraction.Mode, "deterministic", "llm", "hybrid")
	check("SESSION_BACKEND", c.Session.Backend, "memory", "redis")
	check("DIRECTORY_BACKEND", c.Directory.Backend, "memory", "redis", "file")

	if c.Session.HistoryWindow <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_HISTORY_WINDOW must be positive"))
	}
	if c.Gateway.MaxPolls <= 0 {
		errs = append(errs, fmt.Errorf("GATEWAY_MAX_POLLS must be positive"))
	}
	if c.UsesRedis() && c.Redis.URL == "" {
		errs = append(errs, fmt.Errorf("REDIS_URL is required when a redis backend is selected"))
	}
	if c.Directory.Backend == "file" && c.Directory.FilePath == "" {
		errs = append(errs, fmt.Errorf("DIRECTORY_FILE_PATH is required for the file directory"))
	}

	return errors.Join(errs...)
}

// UsesRedis reports whether any backend needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return strings.EqualFold(c.Session.Backend, "redis") || strings.EqualFold(c.Directory.Backend, "redis")
}

// NeedsChatModel reports whether an eino chat model has to be built.
func (c *Config) NeedsChatModel() bool {
	return strings.EqualFold(c.Gateway.Backend, "chatmodel") || !strings.EqualFold(c.Extraction.Mode, "deterministic")
}
