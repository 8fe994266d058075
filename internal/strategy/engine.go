package strategy

import (
	"context"
	"log"
	"math"

	"TradeWarden/internal/broker"
	"TradeWarden/internal/ledger"
	"TradeWarden/internal/model"
	"TradeWarden/internal/recorder"
)

// Params holds the per-asset trade management settings.
type Params struct {
	StopPct       float64 // stop distance from entry, e.g. 0.015
	TargetPct     float64 // target distance from entry, e.g. 0.06
	AllocFraction float64 // fraction of the 1/N equity share committed per entry
}

// Engine makes the per-asset open/hold/close decision each step:
// mean-reversion band entries gated by the long-horizon trend, managed
// by stop, target and trend-following exits. It is the sole mutator of
// the position ledger.
type Engine struct {
	params Params
	book   *ledger.Book
	broker broker.Broker
	rec    recorder.Recorder
}

// NewEngine creates a strategy engine over the given ledger.
func NewEngine(params Params, book *ledger.Book, brk broker.Broker, rec recorder.Recorder) *Engine {
	return &Engine{params: params, book: book, broker: brk, rec: rec}
}

// Step runs the exit-then-entry procedure for one asset. equity is the
// portfolio total computed at the top of the step; entries size off it.
// At most one exit condition fires per step, checked in priority order:
// stop, target, trend-exit.
func (e *Engine) Step(ctx context.Context, symbol string, frame model.IndicatorFrame, equity float64) {
	pos := e.book.Position(symbol)

	switch pos.Side {
	case model.SideLong:
		stop := pos.Entry * (1 - e.params.StopPct)
		target := pos.Entry * (1 + e.params.TargetPct)
		switch {
		case frame.Low <= stop:
			// Worst-case fill assumption: the stop price, not the bar's low.
			e.ClosePosition(ctx, symbol, stop, frame.Bar)
		case frame.High >= target:
			e.ClosePosition(ctx, symbol, target, frame.Bar)
		case model.Defined(frame.SMAFast) && frame.Close > frame.SMAFast:
			e.ClosePosition(ctx, symbol, frame.Close, frame.Bar)
		}

	case model.SideShort:
		stop := pos.Entry * (1 + e.params.StopPct)
		target := pos.Entry * (1 - e.params.TargetPct)
		switch {
		case frame.High >= stop:
			e.ClosePosition(ctx, symbol, stop, frame.Bar)
		case frame.Low <= target:
			e.ClosePosition(ctx, symbol, target, frame.Bar)
		case model.Defined(frame.SMAFast) && frame.Close < frame.SMAFast:
			e.ClosePosition(ctx, symbol, frame.Close, frame.Bar)
		}
	}

	if !e.book.Position(symbol).IsFlat() {
		return
	}
	e.evaluateEntry(ctx, symbol, frame, equity)
}

func (e *Engine) evaluateEntry(ctx context.Context, symbol string, frame model.IndicatorFrame, equity float64) {
	// An undefined indicator is a no-signal, never an error.
	if !model.Defined(frame.BandLower) || !model.Defined(frame.BandUpper) || !model.Defined(frame.SMALong) {
		return
	}

	// Equal-weight allocation with a safety buffer: commit only a
	// fraction of the 1/N equity share per asset. The shares overlap
	// deliberately so simultaneous drawdowns stay bounded.
	allocation := equity / float64(len(e.book.Symbols()))
	notional := allocation * e.params.AllocFraction
	qty := math.Floor(notional / frame.Close)
	if qty <= 0 {
		return // insufficient capital for a single share
	}

	switch {
	case frame.Close < frame.BandLower && frame.Close > frame.SMALong:
		// Oversold pullback within an uptrend.
		e.openPosition(ctx, symbol, model.SideLong, qty, frame.Bar)
	case frame.Close > frame.BandUpper && frame.Close < frame.SMALong:
		// Overbought pullback within a downtrend.
		e.openPosition(ctx, symbol, model.SideShort, qty, frame.Bar)
	}
}

// ClosePosition flattens the asset at the given fill price. Called by
// Step for managed exits and by the orchestrator when the risk governor
// denies the step. A rejected submission leaves the ledger untouched.
func (e *Engine) ClosePosition(ctx context.Context, symbol string, price float64, bar model.Bar) {
	pos := e.book.Position(symbol)
	if pos.IsFlat() {
		return
	}

	action := model.ActionSell
	if pos.Side == model.SideShort {
		action = model.ActionBuy
	}
	qty := math.Abs(pos.Quantity)

	if err := e.broker.SubmitMarketOrder(ctx, symbol, qty, action); err != nil {
		log.Printf("[ERROR] close %s %s rejected, keeping position: %v", symbol, pos.Side, err)
		return
	}

	e.book.Close(symbol, price)
	e.record(&recorder.Trade{
		Symbol: symbol, Action: action, Quantity: qty, Price: price, Time: bar.Time,
	})
	log.Printf("[INFO] closed %s %s %.0f @ %.2f", pos.Side, symbol, qty, price)
}

func (e *Engine) openPosition(ctx context.Context, symbol string, side model.Side, qty float64, bar model.Bar) {
	action := model.ActionBuy
	if side == model.SideShort {
		action = model.ActionSell
	}

	if err := e.broker.SubmitMarketOrder(ctx, symbol, qty, action); err != nil {
		log.Printf("[ERROR] open %s %s rejected, staying flat: %v", symbol, side, err)
		return
	}

	e.book.Open(symbol, side, qty, bar.Close)
	e.record(&recorder.Trade{
		Symbol: symbol, Action: action, Quantity: qty, Price: bar.Close, Time: bar.Time,
	})
	log.Printf("[INFO] opened %s %s %.0f @ %.2f", side, symbol, qty, bar.Close)
}

func (e *Engine) record(t *recorder.Trade) {
	if err := e.rec.RecordTrade(t); err != nil {
		log.Printf("[ERROR] record trade: %v", err)
	}
}
