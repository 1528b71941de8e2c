// Package config loads environment-sourced settings. Configuration is
// read once at startup; nothing re-reads the environment mid-session.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every tunable the game reads from the environment.
type Config struct {
	LogLevel string `envconfig:"STORYLOOM_LOG_LEVEL" default:"info"`
	// DataDir overrides the XDG-derived data directory when set.
	DataDir string `envconfig:"STORYLOOM_DATA_DIR"`

	// Story agent. An empty API key disables AI narration and the game
	// falls back to template text.
	AIAPIKey     string        `envconfig:"STORYLOOM_AI_API_KEY"`
	AIBaseURL    string        `envconfig:"STORYLOOM_AI_BASE_URL" default:"https://openrouter.ai/api/v1"`
	AIModel      string        `envconfig:"STORYLOOM_AI_MODEL" default:"deepseek/deepseek-chat-v3-0324:free"`
	AITimeout    time.Duration `envconfig:"STORYLOOM_AI_TIMEOUT" default:"30s"`
	AIMaxRetries int           `envconfig:"STORYLOOM_AI_MAX_RETRIES" default:"2"`

	// AutosaveSlot receives a snapshot whenever the player returns to
	// the main menu. Empty disables autosave.
	AutosaveSlot string `envconfig:"STORYLOOM_AUTOSAVE_SLOT" default:"autosave"`
}

// AIEnabled reports whether the story agent is configured.
func (c *Config) AIEnabled() bool { return c.AIAPIKey != "" }

// Load reads an optional .env file and then the process environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("load %s: %w", envFile, err)
			}
		}
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	return &cfg, nil
}
