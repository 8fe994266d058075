package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"TradeWarden/internal/collector"
	"TradeWarden/internal/engine"
	"TradeWarden/internal/notifier"
	"TradeWarden/internal/recorder"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the live trading cycle on a cron cadence and turns
// cycle outcomes into Telegram alerts.
type Scheduler struct {
	Cron      *cron.Cron
	Engine    *engine.Engine
	Collector *collector.Collector
	Notifier  *notifier.TelegramNotifier
	Recorder  recorder.Recorder
	Ctx       context.Context

	lastState engine.State
	lastFill  time.Time
	primed    bool
}

// NewScheduler creates a new Scheduler. Overlapping cycles are skipped
// rather than queued so a slow data fetch never stacks steps.
func NewScheduler(ctx context.Context, eng *engine.Engine, col *collector.Collector,
	tn *notifier.TelegramNotifier, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron: cron.New(cron.WithSeconds(), cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
			cron.Recover(cron.DefaultLogger),
		)),
		Engine:    eng,
		Collector: col,
		Notifier:  tn,
		Recorder:  rec,
		Ctx:       ctx,
		lastState: eng.CurrentState(),
	}
}

// Register registers the trading cycle task.
func (s *Scheduler) Register(cycleCron string) error {
	if _, err := s.Cron.AddFunc(cycleCron, s.cycleTask); err != nil {
		return fmt.Errorf("register cycle task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunCycleNow executes the trading cycle immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunCycleNow() {
	s.cycleTask()
}

func (s *Scheduler) cycleTask() {
	log.Println("[INFO] running trading cycle")
	if err := s.Engine.RunCycle(s.Ctx, s.Collector); err != nil {
		log.Printf("[ERROR] trading cycle: %v", err)
		s.trySend(fmt.Sprintf("❌ 交易周期失败: %v", err))
		return
	}
	s.alertOnHalt()
	s.alertOnFills()
}

// alertOnHalt pushes one alert when the orchestrator transitions into
// HALTED; repeated halted cycles stay quiet.
func (s *Scheduler) alertOnHalt() {
	state := s.Engine.CurrentState()
	defer func() { s.lastState = state }()

	if state != engine.StateHalted || s.lastState == engine.StateHalted {
		return
	}
	snap := s.Engine.Snapshot()
	s.trySend(notifier.FormatHaltAlert(snap.HaltReason, &snap))
}

// alertOnFills pushes one message per trade journalled since the last cycle.
func (s *Scheduler) alertOnFills() {
	trades, err := s.Recorder.TradeHistory(50)
	if err != nil {
		log.Printf("[ERROR] read trade history: %v", err)
		return
	}
	for _, tr := range s.freshFills(trades) {
		s.trySend(notifier.FormatFillAlert(&tr))
	}
}

// freshFills returns the not-yet-announced trades in chronological order.
// trades is newest-first. New fills are detected by timestamp against the
// newest trade seen so far, so alerts keep flowing after the journal
// outgrows the history query limit. The first call only records the
// baseline: a restart must not replay old journal entries.
func (s *Scheduler) freshFills(trades []recorder.Trade) []recorder.Trade {
	if !s.primed {
		s.primed = true
		if len(trades) > 0 {
			s.lastFill = trades[0].Time
		}
		return nil
	}

	var fresh []recorder.Trade
	for _, tr := range trades {
		if !tr.Time.After(s.lastFill) {
			break
		}
		fresh = append(fresh, tr)
	}
	if len(fresh) == 0 {
		return nil
	}
	s.lastFill = fresh[0].Time

	for i, j := 0, len(fresh)-1; i < j; i, j = i+1, j-1 {
		fresh[i], fresh[j] = fresh[j], fresh[i]
	}
	return fresh
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "查看状态", "/status":
		snap := s.Engine.Snapshot()
		return notifier.FormatStatus(&snap)
	case "查看持仓", "/positions":
		snap := s.Engine.Snapshot()
		return notifier.FormatPositions(snap.Positions)
	case "查看成交", "/history":
		trades, err := s.Recorder.TradeHistory(20)
		if err != nil {
			return fmt.Sprintf("❌ 读取成交记录失败: %v", err)
		}
		return notifier.FormatTradeHistory(trades)
	case "停止交易", "/halt":
		s.Engine.ManualHalt("telegram command")
		return "🛑 已停止交易,持仓保留。发送 /resume 恢复。"
	case "恢复交易", "/resume":
		if err := s.Engine.Resume(); err != nil {
			return fmt.Sprintf("❌ 无法恢复: %v", err)
		}
		return "✅ 已恢复交易"
	default:
		return "可用命令:\n• 查看状态 /status\n• 查看持仓 /positions\n• 查看成交 /history\n• 停止交易 /halt\n• 恢复交易 /resume"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
