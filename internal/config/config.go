// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colosseum-live/arena/internal/discussion"
	"github.com/colosseum-live/arena/internal/lifecycle"
	"github.com/colosseum-live/arena/internal/store"
	"github.com/colosseum-live/arena/internal/verdict"
)

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Agents     AgentsConfig     `yaml:"agents"`
	Discussion DiscussionConfig `yaml:"discussion"`
	Verdict    VerdictConfig    `yaml:"verdict"`
	Lifecycle  LifecycleConfig  `yaml:"lifecycle"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// LedgerConfig holds the indexer/ledger endpoint settings.
type LedgerConfig struct {
	BaseURL string `yaml:"base_url"`
}

// AgentsConfig holds remote agent call settings.
type AgentsConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// DiscussionConfig tunes the discussion orchestrator.
type DiscussionConfig struct {
	TurnBudget int           `yaml:"turn_budget"`
	TurnDelay  time.Duration `yaml:"turn_delay"`
	// KeepAliveCycles injects a moderator nudge every N full speaker
	// cycles. The nudge can destabilize some agents, so 0 (off) is the
	// default.
	KeepAliveCycles int `yaml:"keep_alive_cycles"`
}

// VerdictConfig tunes the verdict protocol.
type VerdictConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

// LifecycleConfig tunes the lifecycle monitor.
type LifecycleConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8184,
		},
		Storage: StorageConfig{
			DBPath: store.DefaultDBPath(),
		},
		Ledger: LedgerConfig{
			BaseURL: "http://localhost:8545",
		},
		Agents: AgentsConfig{
			Timeout: 2 * time.Minute,
		},
		Discussion: DiscussionConfig{
			TurnBudget:      discussion.DefaultTurnBudget,
			TurnDelay:       discussion.DefaultTurnDelay,
			KeepAliveCycles: 0,
		},
		Verdict: VerdictConfig{
			MaxAttempts: verdict.DefaultMaxAttempts,
		},
		Lifecycle: LifecycleConfig{
			PollInterval: lifecycle.DefaultPollInterval,
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from a specific path, merging over defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file, proceed with defaults
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Apply .env overrides if file exists
	if env, err := LoadEnv(".env"); err == nil {
		ApplyEnvOverrides(cfg, env)
	}

	return cfg, nil
}

// SaveTo saves the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "arena.yaml"
	}
	return filepath.Join(home, ".arena", "config.yaml")
}
