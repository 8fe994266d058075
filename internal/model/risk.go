package model

import "time"

// RiskState tracks the capital-preservation state for one running
// strategy instance. Mutated only by the risk governor.
type RiskState struct {
	InitialBalance       float64   `json:"initial_balance"`
	DailyRiskLimit       float64   `json:"daily_risk_limit"`
	MaxDrawdownLimit     float64   `json:"max_drawdown_limit"`
	DailyStartingBalance float64   `json:"daily_starting_balance"`
	CurrentDay           string    `json:"current_day"` // calendar date, "2006-01-02"
	HighWaterMark        float64   `json:"high_water_mark"`
	InCooldown           bool      `json:"in_cooldown"`
	Blown                bool      `json:"blown"` // drawdown breach, sticky for the run
	UpdatedAt            time.Time `json:"updated_at"`
}
