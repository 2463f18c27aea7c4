package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Turn.MaxIterations != 5 || cfg.Turn.MaxModelCalls != 20 {
		t.Errorf("defaults not applied: %+v", cfg.Turn)
	}
	if cfg.Turn.Deadline != 10*time.Minute {
		t.Errorf("deadline default = %v", cfg.Turn.Deadline)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"turn": {"maxIterations": 2, "maxModelCalls": 3},
		"model": {"name": "custom-model"},
		"locale": "de"
	}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Turn.MaxIterations != 2 || cfg.Turn.MaxModelCalls != 3 {
		t.Errorf("file values not applied: %+v", cfg.Turn)
	}
	if cfg.Model.Name != "custom-model" || cfg.Locale != "de" {
		t.Errorf("model=%q locale=%q", cfg.Model.Name, cfg.Locale)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"model": {"name": "from-file"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOLEMBOT_MODEL_MODEL", "from-env")
	t.Setenv("GOLEMBOT_TURN_MAX_ITERATIONS", "9")
	t.Setenv("GOLEMBOT_LOCALE", "de")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model.Name != "from-env" {
		t.Errorf("model = %q, want env override", cfg.Model.Name)
	}
	if cfg.Turn.MaxIterations != 9 {
		t.Errorf("max iterations = %d", cfg.Turn.MaxIterations)
	}
	if cfg.Locale != "de" {
		t.Errorf("locale = %q", cfg.Locale)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDefaultTiers(t *testing.T) {
	cfg := Default()
	if _, ok := cfg.Model.Tiers[cfg.Model.RoutingTier]; !ok {
		t.Errorf("routing tier %q has no tier config", cfg.Model.RoutingTier)
	}
}
