package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider string `yaml:"provider"` // alpaca | yahoo | mock
		BaseURL  string `yaml:"base_url"`
	} `yaml:"data_source"`
	Broker struct {
		Provider  string `yaml:"provider"` // alpaca | paper
		BaseURL   string `yaml:"base_url"`
		KeyID     string `yaml:"key_id"`
		SecretKey string `yaml:"secret_key"`
	} `yaml:"broker"`
	Portfolio struct {
		Symbols         []string `yaml:"symbols"`
		Interval        string   `yaml:"interval"`
		StartingBalance float64  `yaml:"starting_balance"`
	} `yaml:"portfolio"`
	Strategy struct {
		FastWindow    int     `yaml:"fast_window"`
		SlowWindow    int     `yaml:"slow_window"`
		LongWindow    int     `yaml:"long_window"`
		RSIPeriod     int     `yaml:"rsi_period"`
		StopPct       float64 `yaml:"stop_pct"`
		TargetPct     float64 `yaml:"target_pct"`
		AllocFraction float64 `yaml:"alloc_fraction"`
	} `yaml:"strategy"`
	Risk struct {
		DailyLossLimit   float64 `yaml:"daily_loss_limit"`
		MaxDrawdownLimit float64 `yaml:"max_drawdown_limit"`
		StateFile        string  `yaml:"state_file"`
	} `yaml:"risk"`
	Schedule struct {
		CycleCron  string `yaml:"cycle_cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Status struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"status"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Broker.KeyID = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Broker.SecretKey = v
	}
	if v := os.Getenv("APCA_API_BASE_URL"); v != "" {
		cfg.Broker.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("STARTING_BALANCE"); v != "" {
		var balance float64
		if _, err := fmt.Sscanf(v, "%f", &balance); err == nil {
			cfg.Portfolio.StartingBalance = balance
		}
	}
	if v := os.Getenv("CRON_CYCLE"); v != "" {
		cfg.Schedule.CycleCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.DataSource.BaseURL == "" {
		cfg.DataSource.BaseURL = "https://data.alpaca.markets"
	}
	if cfg.Broker.Provider == "" {
		cfg.Broker.Provider = "paper"
	}
	if cfg.Broker.BaseURL == "" {
		cfg.Broker.BaseURL = "https://paper-api.alpaca.markets"
	}
	if len(cfg.Portfolio.Symbols) == 0 {
		cfg.Portfolio.Symbols = []string{"TSLA", "AAPL", "GLD", "USO", "SPY"}
	}
	if cfg.Portfolio.Interval == "" {
		cfg.Portfolio.Interval = "1h"
	}
	if cfg.Portfolio.StartingBalance == 0 {
		cfg.Portfolio.StartingBalance = 80000
	}
	if cfg.Strategy.FastWindow == 0 {
		cfg.Strategy.FastWindow = 20
	}
	if cfg.Strategy.SlowWindow == 0 {
		cfg.Strategy.SlowWindow = 50
	}
	if cfg.Strategy.LongWindow == 0 {
		cfg.Strategy.LongWindow = 200
	}
	if cfg.Strategy.RSIPeriod == 0 {
		cfg.Strategy.RSIPeriod = 14
	}
	if cfg.Strategy.StopPct == 0 {
		cfg.Strategy.StopPct = 0.015
	}
	if cfg.Strategy.TargetPct == 0 {
		cfg.Strategy.TargetPct = 0.06
	}
	if cfg.Strategy.AllocFraction == 0 {
		cfg.Strategy.AllocFraction = 0.45
	}
	if cfg.Risk.DailyLossLimit == 0 {
		cfg.Risk.DailyLossLimit = 0.01
	}
	if cfg.Risk.MaxDrawdownLimit == 0 {
		cfg.Risk.MaxDrawdownLimit = 0.06
	}
	if cfg.Risk.StateFile == "" {
		cfg.Risk.StateFile = "data/risk_state.json"
	}
	if cfg.Schedule.CycleCron == "" {
		cfg.Schedule.CycleCron = "0 5 * * * *" // five past every hour
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/tradewarden.db"
	}
	if cfg.Status.ListenAddr == "" {
		cfg.Status.ListenAddr = ":8085"
	}

	return cfg, nil
}

// Validate checks that all required fields are consistent.
func (c *Config) Validate() error {
	if len(c.Portfolio.Symbols) == 0 {
		return fmt.Errorf("portfolio.symbols is required")
	}
	if c.Portfolio.StartingBalance <= 0 {
		return fmt.Errorf("portfolio.starting_balance must be positive")
	}
	if c.Strategy.FastWindow <= 1 || c.Strategy.LongWindow <= 1 {
		return fmt.Errorf("strategy windows must be greater than 1")
	}
	if c.Strategy.FastWindow >= c.Strategy.LongWindow {
		return fmt.Errorf("strategy.fast_window must be smaller than long_window")
	}
	if c.Strategy.RSIPeriod <= 0 {
		return fmt.Errorf("strategy.rsi_period must be positive")
	}
	if c.Strategy.StopPct <= 0 || c.Strategy.StopPct >= 1 {
		return fmt.Errorf("strategy.stop_pct must be in (0, 1)")
	}
	if c.Strategy.TargetPct <= 0 || c.Strategy.TargetPct >= 1 {
		return fmt.Errorf("strategy.target_pct must be in (0, 1)")
	}
	if c.Strategy.AllocFraction <= 0 || c.Strategy.AllocFraction > 1 {
		return fmt.Errorf("strategy.alloc_fraction must be in (0, 1]")
	}
	if c.Risk.DailyLossLimit <= 0 || c.Risk.DailyLossLimit >= 1 {
		return fmt.Errorf("risk.daily_loss_limit must be in (0, 1)")
	}
	if c.Risk.MaxDrawdownLimit <= 0 || c.Risk.MaxDrawdownLimit >= 1 {
		return fmt.Errorf("risk.max_drawdown_limit must be in (0, 1)")
	}
	if c.Broker.Provider == "alpaca" && (c.Broker.KeyID == "" || c.Broker.SecretKey == "") {
		return fmt.Errorf("broker.key_id and broker.secret_key are required for alpaca")
	}
	if c.DataSource.Provider == "alpaca" && (c.Broker.KeyID == "" || c.Broker.SecretKey == "") {
		return fmt.Errorf("alpaca data source requires broker credentials")
	}
	return nil
}
