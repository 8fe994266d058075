package risk

import (
	"fmt"
	"log"
	"sync"
	"time"

	"TradeWarden/internal/model"
)

// State classifies the governor's current verdict axis.
type State string

const (
	StateNormal    State = "NORMAL"
	StateDailyHalt State = "DAILY_HALT" // same-day, auto-resets at the day boundary
	StateDrawnDown State = "DRAWN_DOWN" // sticky for the remainder of the run
)

const dayLayout = "2006-01-02"

// Governor enforces the daily loss kill-switch and the trailing
// high-water-mark drawdown halt. Safe for concurrent snapshot reads;
// Check is called only from the orchestrator's single step path.
type Governor struct {
	mu       sync.Mutex
	state    *model.RiskState
	filePath string // optional, persists across live restarts
}

// New creates a Governor with a fresh state seeded from the starting
// balance. The caller validates the configuration; a non-positive
// balance still hard-halts on the first Check rather than dividing by zero.
func New(initialBalance, dailyRiskLimit, maxDrawdownLimit float64) *Governor {
	return &Governor{
		state: &model.RiskState{
			InitialBalance:       initialBalance,
			DailyRiskLimit:       dailyRiskLimit,
			MaxDrawdownLimit:     maxDrawdownLimit,
			DailyStartingBalance: initialBalance,
			HighWaterMark:        initialBalance,
		},
	}
}

// NewPersistent creates a Governor backed by a JSON state file so that a
// restarted live bot keeps its high-water mark and current-day baseline.
// A missing or empty file starts fresh from the given balance.
func NewPersistent(filePath string, initialBalance, dailyRiskLimit, maxDrawdownLimit float64) (*Governor, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	if state.InitialBalance == 0 {
		state = &model.RiskState{
			InitialBalance:       initialBalance,
			DailyStartingBalance: initialBalance,
			HighWaterMark:        initialBalance,
		}
	}
	// Limits always come from the current config, not the saved file.
	state.DailyRiskLimit = dailyRiskLimit
	state.MaxDrawdownLimit = maxDrawdownLimit

	g := &Governor{state: state, filePath: filePath}
	if err := g.save(); err != nil {
		return nil, err
	}
	return g, nil
}

// Check evaluates one equity observation and returns whether trading is
// allowed this step. The daily check is evaluated strictly before the
// drawdown check, so a step breaching both reports the daily reason.
// Cooldown never suppresses the checks: every call re-evaluates both
// limits, and the high-water mark keeps rising whenever the daily check
// passes.
func (g *Governor) Check(ts time.Time, equity float64) (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.state
	defer g.persist()

	day := ts.Format(dayLayout)
	if day != s.CurrentDay {
		s.CurrentDay = day
		s.DailyStartingBalance = equity
		s.InCooldown = false
	}

	if s.DailyStartingBalance <= 0 || s.HighWaterMark <= 0 {
		s.Blown = true
		return false, "❌ ACCOUNT BLOWN: non-positive balance"
	}

	dailyLossPct := (s.DailyStartingBalance - equity) / s.DailyStartingBalance
	if dailyLossPct >= s.DailyRiskLimit {
		s.InCooldown = true
		return false, fmt.Sprintf("🛑 DAILY LIMIT HIT: down %.2f%% today", dailyLossPct*100)
	}

	if equity > s.HighWaterMark {
		s.HighWaterMark = equity
	}

	if s.Blown {
		return false, "❌ ACCOUNT BLOWN: max drawdown previously breached"
	}
	drawdownPct := (s.HighWaterMark - equity) / s.HighWaterMark
	if drawdownPct >= s.MaxDrawdownLimit {
		s.Blown = true
		return false, fmt.Sprintf("❌ ACCOUNT BLOWN: max drawdown %.2f%% hit", drawdownPct*100)
	}

	return true, "✅ risk ok"
}

// CurrentState classifies the governor for status reporting.
func (g *Governor) CurrentState() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case g.state.Blown:
		return StateDrawnDown
	case g.state.InCooldown:
		return StateDailyHalt
	default:
		return StateNormal
	}
}

// Snapshot returns a copy of the risk state.
func (g *Governor) Snapshot() model.RiskState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return *g.state
}

// DailyLossPct returns the current-day loss fraction for the given equity.
func (g *Governor) DailyLossPct(equity float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.DailyStartingBalance <= 0 {
		return 0
	}
	return (g.state.DailyStartingBalance - equity) / g.state.DailyStartingBalance
}

// DrawdownPct returns the current trailing drawdown fraction for the given equity.
func (g *Governor) DrawdownPct(equity float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.HighWaterMark <= 0 {
		return 0
	}
	return (g.state.HighWaterMark - equity) / g.state.HighWaterMark
}

// persist is called with the mutex held.
func (g *Governor) persist() {
	if g.filePath == "" {
		return
	}
	if err := SaveState(g.filePath, g.state); err != nil {
		log.Printf("[ERROR] failed to save risk state: %v", err)
	}
}

func (g *Governor) save() error {
	if g.filePath == "" {
		return nil
	}
	return SaveState(g.filePath, g.state)
}
