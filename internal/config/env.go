package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadEnv reads a .env file and returns a map of key-value pairs.
// It ignores comments (starting with #) and empty lines.
func LoadEnv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	env := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove inline comments
		if idx := strings.Index(value, " #"); idx != -1 {
			value = strings.TrimSpace(value[:idx])
		}

		// Remove quotes if present
		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}

		env[key] = value
	}

	return env, scanner.Err()
}

// ApplyEnvOverrides updates the configuration based on environment variables.
func ApplyEnvOverrides(cfg *Config, env map[string]string) {
	if val, ok := env["SERVER_PORT"]; ok {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}

	if val, ok := env["DB_PATH"]; ok {
		cfg.Storage.DBPath = val
	}

	if val, ok := env["LEDGER_URL"]; ok {
		cfg.Ledger.BaseURL = val
	}

	if val, ok := env["AGENT_TIMEOUT"]; ok {
		if d, ok := parseDurationValue(val); ok {
			cfg.Agents.Timeout = d
		}
	}

	if val, ok := env["TURN_BUDGET"]; ok {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Discussion.TurnBudget = n
		}
	}

	if val, ok := env["TURN_DELAY"]; ok {
		if d, ok := parseDurationValue(val); ok {
			cfg.Discussion.TurnDelay = d
		}
	}

	if val, ok := env["KEEP_ALIVE_CYCLES"]; ok {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Discussion.KeepAliveCycles = n
		}
	}

	if val, ok := env["VERDICT_MAX_ATTEMPTS"]; ok {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Verdict.MaxAttempts = n
		}
	}

	if val, ok := env["POLL_INTERVAL"]; ok {
		if d, ok := parseDurationValue(val); ok {
			cfg.Lifecycle.PollInterval = d
		}
	}
}

// parseDurationValue accepts either a plain number of seconds or a Go
// duration string.
func parseDurationValue(val string) (time.Duration, bool) {
	if seconds, err := strconv.Atoi(val); err == nil {
		return time.Duration(seconds) * time.Second, true
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d, true
	}
	return 0, false
}
