package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeWarden/internal/calculator"
	"TradeWarden/internal/collector"
	"TradeWarden/internal/ledger"
	"TradeWarden/internal/model"
	"TradeWarden/internal/recorder"
	"TradeWarden/internal/risk"
	"TradeWarden/internal/strategy"
)

// countingBroker fills everything and counts submissions.
type countingBroker struct {
	orders int
}

func (b *countingBroker) Name() string { return "counting" }
func (b *countingBroker) SubmitMarketOrder(context.Context, string, float64, model.TradeAction) error {
	b.orders++
	return nil
}

var stratParams = strategy.Params{StopPct: 0.015, TargetPct: 0.06, AllocFraction: 0.45}

func newTestOrchestrator(book *ledger.Book, gov *risk.Governor, brk *countingBroker, longWindow int) *Engine {
	strat := strategy.NewEngine(stratParams, book, brk, recorder.NewNoopRecorder())
	params := calculator.Params{FastWindow: 3, SlowWindow: 4, LongWindow: longWindow, RSIPeriod: 3}
	return New(params, strat, book, gov, recorder.NewNoopRecorder(), "1h")
}

// flatBars builds a constant-price series: every indicator converges to
// the price, so no entry condition can ever fire.
func flatBars(price float64, n int) []model.Bar {
	bars := make([]model.Bar, n)
	base := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = model.Bar{
			Time: base.Add(time.Duration(i) * time.Hour),
			Open: price, High: price, Low: price, Close: price, Volume: 1000,
		}
	}
	return bars
}

// holdFrame is a hand-built frame that triggers neither exits nor
// entries for a position entered at 100.
func holdFrame(ts time.Time, price float64) model.IndicatorFrame {
	return model.IndicatorFrame{
		Bar:       model.Bar{Time: ts, Open: price, High: price, Low: price, Close: price},
		SMAFast:   price + 50, // close never above: no long trend-exit
		SMASlow:   price,
		SMALong:   model.Undefined, // entries held off
		StdFast:   1,
		BandUpper: model.Undefined,
		BandLower: model.Undefined,
		RSI:       50,
	}
}

func frameSet(symbol string, ts time.Time, price float64) map[string]map[time.Time]model.IndicatorFrame {
	return map[string]map[time.Time]model.IndicatorFrame{
		symbol: {ts: holdFrame(ts, price)},
	}
}

func TestReplay_WarmupProducesNoActivity(t *testing.T) {
	brk := &countingBroker{}
	book := ledger.NewBook(100000, []string{"AAPL", "TSLA"})
	gov := risk.New(100000, 0.01, 0.06)
	e := newTestOrchestrator(book, gov, brk, 5)

	barsets := map[string][]model.Bar{
		"AAPL": flatBars(100, 30),
		"TSLA": flatBars(200, 30),
	}
	report, err := e.Replay(context.Background(), barsets)
	require.NoError(t, err)

	// The first long-window bars never reach the governor or the
	// strategy: the curve only starts after warm-up.
	assert.Equal(t, 25, len(report.Curve))
	assert.Equal(t, 25, report.Steps)
	assert.Zero(t, brk.orders)
}

func TestReplay_TooShortForWarmupFails(t *testing.T) {
	brk := &countingBroker{}
	book := ledger.NewBook(100000, []string{"AAPL"})
	e := newTestOrchestrator(book, risk.New(100000, 0.01, 0.06), brk, 5)

	_, err := e.Replay(context.Background(), map[string][]model.Bar{"AAPL": flatBars(100, 5)})
	require.Error(t, err)
}

func TestReplay_NoSignalRoundTrip(t *testing.T) {
	brk := &countingBroker{}
	book := ledger.NewBook(100000, []string{"AAPL", "TSLA"})
	gov := risk.New(100000, 0.01, 0.06)
	e := newTestOrchestrator(book, gov, brk, 5)

	barsets := map[string][]model.Bar{
		"AAPL": flatBars(100, 40),
		"TSLA": flatBars(200, 40),
	}
	report, err := e.Replay(context.Background(), barsets)
	require.NoError(t, err)

	assert.Zero(t, brk.orders)
	assert.Equal(t, 100000.0, book.Cash())
	assert.Equal(t, 100000.0, report.FinalEquity)
	assert.Zero(t, report.ReturnPct)
	assert.Zero(t, report.MaxDrawdownPct)
	for _, pt := range report.Curve {
		assert.Equal(t, 100000.0, pt.Equity)
	}
	assert.Equal(t, StateRunning, e.CurrentState())
}

func TestReplay_AlignmentDropsUnsharedTimestamps(t *testing.T) {
	brk := &countingBroker{}
	book := ledger.NewBook(100000, []string{"AAPL", "TSLA"})
	e := newTestOrchestrator(book, risk.New(100000, 0.01, 0.06), brk, 5)

	// TSLA misses the last 10 bars: only the shared 30 align.
	barsets := map[string][]model.Bar{
		"AAPL": flatBars(100, 40),
		"TSLA": flatBars(200, 30),
	}
	report, err := e.Replay(context.Background(), barsets)
	require.NoError(t, err)
	assert.Equal(t, 25, report.Steps)
}

func TestStep_DailyHaltForceClosesPositions(t *testing.T) {
	brk := &countingBroker{}
	book := ledger.NewBook(100000, []string{"AAPL"})
	gov := risk.New(100000, 0.01, 0.06)
	e := newTestOrchestrator(book, gov, brk, 5)
	e.setState(StateRunning, "")

	book.Open("AAPL", model.SideLong, 100, 100) // cash 90000, equity 100000 @ 100

	day := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	e.step(context.Background(), day, frameSet("AAPL", day, 100))
	require.Equal(t, StateRunning, e.CurrentState())

	// Same day, price collapses: equity 98900, down 1.1% on the day.
	later := day.Add(time.Hour)
	e.step(context.Background(), later, frameSet("AAPL", later, 89))

	assert.True(t, book.Position("AAPL").IsFlat(), "daily halt must flatten the book")
	assert.Equal(t, 1, brk.orders)
	assert.InDelta(t, 98900, book.Cash(), 1e-9)

	// A daily halt is a cooldown, not a terminal state.
	assert.Equal(t, StateRunning, e.CurrentState())
	assert.Equal(t, risk.StateDailyHalt, gov.CurrentState())
	assert.NotEmpty(t, e.HaltReason())
}

func TestStep_DrawdownBreachIsTerminal(t *testing.T) {
	brk := &countingBroker{}
	book := ledger.NewBook(100000, []string{"AAPL"})
	gov := risk.New(100000, 0.5, 0.01) // daily limit out of the way
	e := newTestOrchestrator(book, gov, brk, 5)
	e.setState(StateRunning, "")

	book.Open("AAPL", model.SideLong, 100, 100)

	day := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	e.step(context.Background(), day, frameSet("AAPL", day, 100))

	// 1% trailing drawdown breached: forced flat and HALTED for good.
	later := day.Add(time.Hour)
	e.step(context.Background(), later, frameSet("AAPL", later, 90))

	assert.True(t, book.Position("AAPL").IsFlat())
	assert.Equal(t, StateHalted, e.CurrentState())
	assert.Equal(t, 1, brk.orders)

	// Further steps observe equity but never trade.
	final := later.Add(time.Hour)
	e.step(context.Background(), final, frameSet("AAPL", final, 90))
	assert.Equal(t, 1, brk.orders)
	assert.Equal(t, StateHalted, e.CurrentState())

	// Equity observation continues while halted.
	snap := e.Snapshot()
	assert.Equal(t, final, snap.Time)
	assert.True(t, snap.Halted)

	// A blown account cannot be resumed.
	require.Error(t, e.Resume())
}

func TestManualHaltAndResume(t *testing.T) {
	brk := &countingBroker{}
	book := ledger.NewBook(100000, []string{"AAPL"})
	gov := risk.New(100000, 0.01, 0.06)
	e := newTestOrchestrator(book, gov, brk, 5)
	e.setState(StateRunning, "")

	book.Open("AAPL", model.SideLong, 100, 100)

	e.ManualHalt("operator requested")
	require.Equal(t, StateHalted, e.CurrentState())

	// Manual halt keeps positions: no forced liquidation.
	day := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	e.step(context.Background(), day, frameSet("AAPL", day, 100))
	assert.Zero(t, brk.orders)
	assert.Equal(t, model.SideLong, book.Position("AAPL").Side)

	require.NoError(t, e.Resume())
	assert.Equal(t, StateRunning, e.CurrentState())
}

// cannedFetcher serves a fixed bar series for every symbol.
type cannedFetcher struct {
	bars []model.Bar
}

func (f *cannedFetcher) Name() string { return "canned" }
func (f *cannedFetcher) FetchBars(string, string, time.Time, time.Time) ([]model.Bar, error) {
	return f.bars, nil
}

func TestRunCycle_ShortHistoryKeepsHaltedState(t *testing.T) {
	brk := &countingBroker{}
	book := ledger.NewBook(100000, []string{"AAPL"})
	gov := risk.New(100000, 0.01, 0.06)
	e := newTestOrchestrator(book, gov, brk, 5)
	e.ManualHalt("operator requested")

	// The feed comes back too thin to step; the halt and its reason
	// must survive the cycle.
	coll := collector.NewCollector(&cannedFetcher{bars: flatBars(100, 3)}, []string{"AAPL"}, "1h")
	require.NoError(t, e.RunCycle(context.Background(), coll))

	assert.Equal(t, StateHalted, e.CurrentState())
	assert.Equal(t, "operator requested", e.HaltReason())

	// From RUNNING the same shortfall degrades back to warm-up.
	require.NoError(t, e.Resume())
	require.Equal(t, StateRunning, e.CurrentState())
	require.NoError(t, e.RunCycle(context.Background(), coll))
	assert.Equal(t, StateWarmup, e.CurrentState())
}

func TestSnapshot_ReflectsBookAndGovernor(t *testing.T) {
	brk := &countingBroker{}
	book := ledger.NewBook(100000, []string{"AAPL", "TSLA"})
	gov := risk.New(100000, 0.01, 0.06)
	e := newTestOrchestrator(book, gov, brk, 5)

	snap := e.Snapshot()
	assert.Equal(t, string(StateWarmup), snap.State)
	assert.Equal(t, 100000.0, snap.Cash)
	assert.Equal(t, 100000.0, snap.Equity)
	assert.Len(t, snap.Positions, 2)
	assert.False(t, snap.Halted)
}
