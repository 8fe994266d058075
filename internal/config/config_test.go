package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(cfg.Portfolio.Symbols) != 5 {
		t.Errorf("default symbols = %v", cfg.Portfolio.Symbols)
	}
	if cfg.Portfolio.StartingBalance != 80000 {
		t.Errorf("default starting balance = %v", cfg.Portfolio.StartingBalance)
	}
	if cfg.Strategy.LongWindow != 200 || cfg.Strategy.FastWindow != 20 {
		t.Errorf("default windows = %d/%d", cfg.Strategy.FastWindow, cfg.Strategy.LongWindow)
	}
	if cfg.Risk.DailyLossLimit != 0.01 || cfg.Risk.MaxDrawdownLimit != 0.06 {
		t.Errorf("default risk limits = %v/%v", cfg.Risk.DailyLossLimit, cfg.Risk.MaxDrawdownLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
portfolio:
  symbols: [SPY, QQQ]
  starting_balance: 50000
strategy:
  stop_pct: 0.02
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APCA_API_KEY_ID", "test-key")
	t.Setenv("APCA_API_SECRET_KEY", "test-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Portfolio.Symbols) != 2 || cfg.Portfolio.Symbols[0] != "SPY" {
		t.Errorf("symbols = %v", cfg.Portfolio.Symbols)
	}
	if cfg.Portfolio.StartingBalance != 50000 {
		t.Errorf("starting balance = %v", cfg.Portfolio.StartingBalance)
	}
	if cfg.Strategy.StopPct != 0.02 {
		t.Errorf("stop pct = %v", cfg.Strategy.StopPct)
	}
	// Unset fields still get defaults.
	if cfg.Strategy.TargetPct != 0.06 {
		t.Errorf("target pct = %v", cfg.Strategy.TargetPct)
	}
	if cfg.Broker.KeyID != "test-key" || cfg.Broker.SecretKey != "test-secret" {
		t.Error("env overrides not applied")
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no symbols", func(c *Config) { c.Portfolio.Symbols = nil }},
		{"negative balance", func(c *Config) { c.Portfolio.StartingBalance = -1 }},
		{"fast >= long", func(c *Config) { c.Strategy.FastWindow = 300 }},
		{"stop out of range", func(c *Config) { c.Strategy.StopPct = 1.5 }},
		{"daily limit out of range", func(c *Config) { c.Risk.DailyLossLimit = 1 }},
		{"alpaca without keys", func(c *Config) {
			c.Broker.Provider = "alpaca"
			c.Broker.KeyID = ""
			c.Broker.SecretKey = ""
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			if err != nil {
				t.Fatal(err)
			}
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
