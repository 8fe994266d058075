package notifier

import (
	"fmt"
	"strings"

	"TradeWarden/internal/model"
	"TradeWarden/internal/recorder"
)

// FormatStatus formats the portfolio status into a Telegram message.
func FormatStatus(snap *model.StatusSnapshot) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>TradeWarden 状态</b> | %s\n\n", snap.Time.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("运行状态: %s\n", snap.State))
	b.WriteString(fmt.Sprintf("总权益: $%.2f\n", snap.Equity))
	b.WriteString(fmt.Sprintf("现金: $%.2f\n", snap.Cash))
	b.WriteString(fmt.Sprintf("当日亏损: %.2f%% | 回撤: %.2f%%\n", snap.DailyLossPct*100, snap.DrawdownPct*100))
	b.WriteString(fmt.Sprintf("最高水位: $%.2f\n", snap.Risk.HighWaterMark))

	if snap.Halted {
		b.WriteString(fmt.Sprintf("\n🛑 <b>已停止交易</b>: %s\n", snap.HaltReason))
	}

	open := 0
	for _, p := range snap.Positions {
		if !p.IsFlat() {
			open++
		}
	}
	b.WriteString(fmt.Sprintf("\n持仓数: %d/%d\n", open, len(snap.Positions)))
	return b.String()
}

// FormatPositions formats the open positions for display.
func FormatPositions(positions []model.Position) string {
	var b strings.Builder
	b.WriteString("📦 <b>当前持仓</b>\n\n")

	open := 0
	for _, p := range positions {
		if p.IsFlat() {
			continue
		}
		open++
		b.WriteString(fmt.Sprintf("%s: %s %.0f股 @ %.2f\n", p.Symbol, p.Side, p.Quantity, p.Entry))
	}
	if open == 0 {
		b.WriteString("空仓\n")
	}
	return b.String()
}

// FormatTradeHistory formats recent fills, newest first.
func FormatTradeHistory(trades []recorder.Trade) string {
	var b strings.Builder
	b.WriteString("📜 <b>最近成交</b>\n\n")

	if len(trades) == 0 {
		b.WriteString("暂无成交记录\n")
		return b.String()
	}
	for _, t := range trades {
		b.WriteString(fmt.Sprintf("%s %s %s %.0f @ %.2f\n",
			t.Time.Format("01-02 15:04"), t.Action, t.Symbol, t.Quantity, t.Price))
	}
	return b.String()
}

// FormatHaltAlert formats the risk-halt push notification.
func FormatHaltAlert(reason string, snap *model.StatusSnapshot) string {
	var b strings.Builder
	b.WriteString("🚨 <b>风控触发</b>\n\n")
	b.WriteString(fmt.Sprintf("%s\n\n", reason))
	b.WriteString(fmt.Sprintf("总权益: $%.2f\n", snap.Equity))
	b.WriteString(fmt.Sprintf("当日亏损: %.2f%% | 回撤: %.2f%%\n", snap.DailyLossPct*100, snap.DrawdownPct*100))
	b.WriteString("所有持仓已强制平仓")
	return b.String()
}

// FormatFillAlert formats a single executed trade notification.
func FormatFillAlert(t *recorder.Trade) string {
	emoji := "🟢"
	if t.Action == model.ActionSell {
		emoji = "🔴"
	}
	return fmt.Sprintf("%s <b>成交</b> %s %s %.0f股 @ %.2f",
		emoji, t.Action, t.Symbol, t.Quantity, t.Price)
}
