package model

import "time"

// ----------------------------------------------------
// ================ Config ================

// LogConfig holds logger settings
type LogConfig struct {
	Level      string `envconfig:"LEVEL" default:"info"`
	Format     string `envconfig:"FORMAT" default:"console"`
	Output     string `envconfig:"OUTPUT" default:"stdout"`
	FilePath   string `envconfig:"FILE_PATH" default:"logs/voice-agent.log"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"rfc3339"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"PORT" default:"5001"`
	PublicURL       string        `envconfig:"PUBLIC_URL"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// GatewayConfig holds reasoning engine settings
type GatewayConfig struct {
	Backend      string        `envconfig:"BACKEND" default:"runs"`
	BaseURL      string        `envconfig:"BASE_URL" default:"https://api.subconscious.dev/v1"`
	APIKey       string        `envconfig:"API_KEY"`
	Engine       string        `envconfig:"ENGINE" default:"tim-large"`
	Timeout      time.Duration `envconfig:"TIMEOUT" default:"60s"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"2s"`
	MaxPolls     int           `envconfig:"MAX_POLLS" default:"30"`
}

// LLMConfig holds chat model settings for the eino-backed components
type LLMConfig struct {
	Provider    string  `envconfig:"PROVIDER" default:"openai"`
	Model       string  `envconfig:"MODEL" default:"gpt-4o-mini"`
	BaseURL     string  `envconfig:"BASE_URL"`
	APIKey      string  `envconfig:"API_KEY"`
	MaxTokens   int     `envconfig:"MAX_TOKENS" default:"512"`
	Temperature float64 `envconfig:"TEMPERATURE" default:"0.2"`
}

// ExtractionConfig selects the fact extraction strategy
type ExtractionConfig struct {
	Mode        string `envconfig:"MODE" default:"deterministic"`
	AssumedYear string `envconfig:"ASSUMED_YEAR" default:"2025"`
}

// SessionConfig holds session memory settings
type SessionConfig struct {
	Backend       string        `envconfig:"BACKEND" default:"memory"`
	HistoryWindow int           `envconfig:"HISTORY_WINDOW" default:"20"`
	TTL           time.Duration `envconfig:"TTL" default:"0s"`
}

// DirectoryConfig holds customer directory settings
type DirectoryConfig struct {
	Backend     string        `envconfig:"BACKEND" default:"memory"`
	FilePath    string        `envconfig:"FILE_PATH" default:"data/customers.json"`
	LockTimeout time.Duration `envconfig:"LOCK_TIMEOUT" default:"500ms"`
}

// RedisConfig holds the shared Redis connection settings
type RedisConfig struct {
	URL string `envconfig:"URL"`
}

// TranscribeConfig holds speech-to-text settings
type TranscribeConfig struct {
	APIKey  string `envconfig:"API_KEY"`
	BaseURL string `envconfig:"BASE_URL"`
	Model   string `envconfig:"MODEL" default:"whisper-1"`
}

// CatalogConfig holds business catalog settings
type CatalogConfig struct {
	FilePath        string `envconfig:"FILE_PATH"`
	Watch           bool   `envconfig:"WATCH" default:"false"`
	DefaultBusiness string `envconfig:"DEFAULT_BUSINESS" default:"hotel"`
}
