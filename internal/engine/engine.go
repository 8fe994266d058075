package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"TradeWarden/internal/calculator"
	"TradeWarden/internal/collector"
	"TradeWarden/internal/ledger"
	"TradeWarden/internal/model"
	"TradeWarden/internal/recorder"
	"TradeWarden/internal/risk"
	"TradeWarden/internal/strategy"
)

// State is the orchestrator's lifecycle phase.
type State string

const (
	StateWarmup  State = "WARMUP"  // indicator history still filling
	StateRunning State = "RUNNING" // stepping normally, cooldowns included
	StateHalted  State = "HALTED"  // drawdown breach or manual halt, terminal until resume
)

// Engine is the cycle orchestrator: it aligns bar histories across the
// portfolio, runs the governor gate, and drives the per-asset strategy
// steps in a fixed order so every run over the same data is identical.
type Engine struct {
	calcParams calculator.Params
	strat      *strategy.Engine
	book       *ledger.Book
	gov        *risk.Governor
	rec        recorder.Recorder
	symbols    []string
	interval   string

	stepMu       sync.Mutex // serializes stepping against snapshot reads
	mu           sync.RWMutex
	state        State
	haltReason   string
	lastStepTime time.Time
	curve        []model.EquityPoint
}

// New creates an orchestrator over the given components. The symbol
// order is the book's fixed order; it decides the per-step asset
// iteration sequence.
func New(calcParams calculator.Params, strat *strategy.Engine, book *ledger.Book,
	gov *risk.Governor, rec recorder.Recorder, interval string) *Engine {
	return &Engine{
		calcParams: calcParams,
		strat:      strat,
		book:       book,
		gov:        gov,
		rec:        rec,
		symbols:    book.Symbols(),
		interval:   interval,
		state:      StateWarmup,
	}
}

// ReplayReport summarizes one historical replay.
type ReplayReport struct {
	StartTime      time.Time
	EndTime        time.Time
	Steps          int
	FinalEquity    float64
	ReturnPct      float64
	MaxDrawdownPct float64
	Curve          []model.EquityPoint
}

// Replay runs the full step loop over historical bar sets, one aligned
// timestamp at a time. The first long-window timestamps are consumed as
// warm-up: no governor checks, no strategy steps, no equity points.
func (e *Engine) Replay(ctx context.Context, barsets map[string][]model.Bar) (*ReplayReport, error) {
	frames, timeline, err := e.alignFrames(barsets)
	if err != nil {
		return nil, err
	}
	if len(timeline) <= e.calcParams.LongWindow {
		return nil, fmt.Errorf("replay: %d aligned bars, need more than the %d-bar warm-up",
			len(timeline), e.calcParams.LongWindow)
	}

	active := timeline[e.calcParams.LongWindow:]
	e.setState(StateRunning, "")

	for _, ts := range active {
		e.step(ctx, ts, frames)
	}

	e.mu.RLock()
	curve := append([]model.EquityPoint(nil), e.curve...)
	e.mu.RUnlock()

	report := &ReplayReport{
		StartTime:   active[0],
		EndTime:     active[len(active)-1],
		Steps:       len(active),
		FinalEquity: curve[len(curve)-1].Equity,
		Curve:       curve,
	}
	initial := e.gov.Snapshot().InitialBalance
	if initial > 0 {
		report.ReturnPct = (report.FinalEquity - initial) / initial * 100
	}
	report.MaxDrawdownPct = maxDrawdown(curve) * 100
	return report, nil
}

// RunCycle fetches the latest history and advances the loop by at most
// one step, the newest aligned timestamp. Safe to call repeatedly on a
// schedule: a cycle that lands on an already-processed bar is a no-op.
func (e *Engine) RunCycle(ctx context.Context, coll *collector.Collector) error {
	lookback := collector.IntervalDuration(e.interval) * time.Duration(e.calcParams.LongWindow+50) * 4
	end := time.Now().UTC()
	start := end.Add(-lookback)

	barsets, err := coll.CollectAll(start, end)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	frames, timeline, err := e.alignFrames(barsets)
	if err != nil {
		return err
	}
	if len(timeline) <= e.calcParams.LongWindow {
		log.Printf("[WARN] %d aligned bars, still warming up (need %d)",
			len(timeline), e.calcParams.LongWindow+1)
		// A data shortfall never clears HALTED or its reason.
		if e.CurrentState() == StateRunning {
			e.setState(StateWarmup, "")
		}
		return nil
	}

	ts := timeline[len(timeline)-1]
	e.mu.RLock()
	seen := !ts.After(e.lastStepTime)
	e.mu.RUnlock()
	if seen {
		log.Printf("[INFO] no new bar since %s, skipping cycle", ts.Format(time.RFC3339))
		return nil
	}

	if e.CurrentState() == StateWarmup {
		e.setState(StateRunning, "")
	}
	equity := e.step(ctx, ts, frames)

	if err := e.rec.RecordEquity(&recorder.EquitySnapshot{Time: ts, Equity: equity}); err != nil {
		log.Printf("[ERROR] record equity: %v", err)
	}
	return nil
}

// step runs the governor gate and the per-asset strategy for one aligned
// timestamp, then appends the post-step equity point. Returns that equity.
func (e *Engine) step(ctx context.Context, ts time.Time, frames map[string]map[time.Time]model.IndicatorFrame) float64 {
	e.stepMu.Lock()
	defer e.stepMu.Unlock()

	prices := make(map[string]float64, len(e.symbols))
	stepFrames := make(map[string]model.IndicatorFrame, len(e.symbols))
	for _, s := range e.symbols {
		f := frames[s][ts]
		stepFrames[s] = f
		prices[s] = f.Close
	}

	equity := e.book.Equity(prices)

	// A halted run keeps observing equity so drawdown depth stays
	// visible, but never trades again.
	if e.CurrentState() == StateHalted {
		return e.appendEquity(ts, prices)
	}

	allowed, reason := e.gov.Check(ts, equity)
	if !allowed {
		log.Printf("[WARN] trading denied at %s: %s", ts.Format(time.RFC3339), reason)
		e.forceCloseAll(ctx, stepFrames)
		if e.gov.CurrentState() == risk.StateDrawnDown {
			e.setState(StateHalted, reason)
		} else {
			e.setHaltReason(reason)
		}
		return e.appendEquity(ts, prices)
	}
	e.setHaltReason("")

	for _, s := range e.symbols {
		e.strat.Step(ctx, s, stepFrames[s], equity)
	}
	return e.appendEquity(ts, prices)
}

// forceCloseAll flattens every open position at the step's close prices.
func (e *Engine) forceCloseAll(ctx context.Context, stepFrames map[string]model.IndicatorFrame) {
	for _, s := range e.symbols {
		if e.book.Position(s).IsFlat() {
			continue
		}
		f := stepFrames[s]
		e.strat.ClosePosition(ctx, s, f.Close, f.Bar)
	}
}

// appendEquity records the post-step equity point and remembers the
// step time so a repeated live cycle does not double-step.
func (e *Engine) appendEquity(ts time.Time, prices map[string]float64) float64 {
	equity := e.book.Equity(prices)
	e.mu.Lock()
	e.curve = append(e.curve, model.EquityPoint{Time: ts, Equity: equity})
	e.lastStepTime = ts
	e.mu.Unlock()
	return equity
}

// alignFrames computes indicator frames per symbol and intersects the
// timestamps so every step sees a bar for every tracked asset.
func (e *Engine) alignFrames(barsets map[string][]model.Bar) (map[string]map[time.Time]model.IndicatorFrame, []time.Time, error) {
	frames := make(map[string]map[time.Time]model.IndicatorFrame, len(e.symbols))
	for _, s := range e.symbols {
		bars, ok := barsets[s]
		if !ok || len(bars) == 0 {
			return nil, nil, fmt.Errorf("align: no bars for %s", s)
		}
		series := calculator.Compute(bars, e.calcParams)
		bySymbol := make(map[time.Time]model.IndicatorFrame, len(series))
		for _, f := range series {
			bySymbol[f.Time] = f
		}
		frames[s] = bySymbol
	}

	var timeline []time.Time
	for ts := range frames[e.symbols[0]] {
		shared := true
		for _, s := range e.symbols[1:] {
			if _, ok := frames[s][ts]; !ok {
				shared = false
				break
			}
		}
		if shared {
			timeline = append(timeline, ts)
		}
	}
	if len(timeline) == 0 {
		return nil, nil, fmt.Errorf("align: no shared timestamps across %d assets", len(e.symbols))
	}
	sort.Slice(timeline, func(i, j int) bool { return timeline[i].Before(timeline[j]) })
	return frames, timeline, nil
}

// maxDrawdown computes the deepest peak-to-trough fraction of the curve.
func maxDrawdown(curve []model.EquityPoint) float64 {
	var peak, worst float64
	for _, pt := range curve {
		if pt.Equity > peak {
			peak = pt.Equity
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - pt.Equity) / peak; dd > worst {
			worst = dd
		}
	}
	return worst
}

// CurrentState returns the orchestrator's lifecycle phase.
func (e *Engine) CurrentState() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// HaltReason returns the most recent denial reason, empty when trading.
func (e *Engine) HaltReason() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.haltReason
}

// ManualHalt stops all trading until Resume. Open positions are kept;
// operators flatten explicitly if they want out of the market.
func (e *Engine) ManualHalt(reason string) {
	log.Printf("[WARN] manual halt: %s", reason)
	e.setState(StateHalted, reason)
}

// Resume re-enables trading after a manual halt. A governor-blown
/// account stays halted: the drawdown breach is final.
func (e *Engine) Resume() error {
	if e.gov.CurrentState() == risk.StateDrawnDown {
		return fmt.Errorf("cannot resume: max drawdown breached")
	}
	log.Printf("[INFO] trading resumed")
	e.setState(StateRunning, "")
	return nil
}

// Snapshot assembles the full status view for the API and notifier.
func (e *Engine) Snapshot() model.StatusSnapshot {
	e.stepMu.Lock()
	defer e.stepMu.Unlock()

	e.mu.RLock()
	state := e.state
	haltReason := e.haltReason
	lastStep := e.lastStepTime
	curve := append([]model.EquityPoint(nil), e.curve...)
	e.mu.RUnlock()

	var equity float64
	if len(curve) > 0 {
		equity = curve[len(curve)-1].Equity
	} else {
		equity = e.book.Equity(nil)
	}

	return model.StatusSnapshot{
		Time:         lastStep,
		State:        string(state),
		Cash:         e.book.Cash(),
		Equity:       equity,
		DailyLossPct: e.gov.DailyLossPct(equity),
		DrawdownPct:  e.gov.DrawdownPct(equity),
		Halted:       state == StateHalted,
		HaltReason:   haltReason,
		Positions:    e.book.Snapshot(),
		Risk:         e.gov.Snapshot(),
		Equities:     curve,
	}
}

func (e *Engine) setState(s State, reason string) {
	e.mu.Lock()
	e.state = s
	e.haltReason = reason
	e.mu.Unlock()
}

func (e *Engine) setHaltReason(reason string) {
	e.mu.Lock()
	e.haltReason = reason
	e.mu.Unlock()
}
