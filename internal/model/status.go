package model

import "time"

// StatusSnapshot is an immutable view of the trading engine taken at a
// cycle boundary. Safe to hand to the status server and notifier while
// the next cycle runs.
type StatusSnapshot struct {
	Time         time.Time     `json:"time"`
	State        string        `json:"state"` // WARMUP, RUNNING, HALTED
	Cash         float64       `json:"cash"`
	Equity       float64       `json:"equity"`
	DailyLossPct float64       `json:"daily_loss_pct"`
	DrawdownPct  float64       `json:"drawdown_pct"`
	Halted       bool          `json:"halted"`
	HaltReason   string        `json:"halt_reason,omitempty"`
	Positions    []Position    `json:"positions"`
	Risk         RiskState     `json:"risk"`
	Equities     []EquityPoint `json:"equities,omitempty"` // most recent observations
}
