package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
)

// Load reads configuration from an optional JSON file and applies
// environment overrides on top. A missing file is not an error; defaults
// plus environment win.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	for prefix, target := range map[string]any{
		"GOLEMBOT_PATHS":          &cfg.Paths,
		"GOLEMBOT_MODEL":          &cfg.Model,
		"GOLEMBOT_TURN":           &cfg.Turn,
		"GOLEMBOT_PROVIDER":       &cfg.Provider,
		"GOLEMBOT_CHANNELS_SLACK": &cfg.Channels.Slack,
		"GOLEMBOT_RATELIMIT":      &cfg.RateLimit,
		"GOLEMBOT_JOURNAL":        &cfg.Journal,
		"GOLEMBOT_TRACE":          &cfg.Trace,
	} {
		if err := envconfig.Process(prefix, target); err != nil {
			return fmt.Errorf("env override %s: %w", prefix, err)
		}
	}
	if v := os.Getenv("GOLEMBOT_LOCALE"); v != "" {
		cfg.Locale = v
	}
	return nil
}
