package risk

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int, hour int) time.Time {
	return time.Date(2024, 6, d, hour, 0, 0, 0, time.UTC)
}

func TestCheck_DailyLimitHit(t *testing.T) {
	g := New(100000, 0.01, 0.06)

	allowed, reason := g.Check(day(3, 9), 100000)
	require.True(t, allowed, reason)

	// Down 1.01% on the same day.
	allowed, reason = g.Check(day(3, 10), 98990)
	assert.False(t, allowed)
	assert.Contains(t, reason, "DAILY LIMIT")
	assert.Equal(t, StateDailyHalt, g.CurrentState())
}

func TestCheck_DailyLimitBoundaryEquality(t *testing.T) {
	g := New(100000, 0.01, 0.06)
	g.Check(day(3, 9), 100000)

	// Exactly at starting*(1-limit): the threshold is >=, not strictly greater.
	allowed, reason := g.Check(day(3, 10), 99000)
	assert.False(t, allowed)
	assert.Contains(t, reason, "DAILY LIMIT")
}

func TestCheck_DrawdownHit(t *testing.T) {
	g := New(100000, 0.01, 0.06)
	g.Check(day(3, 9), 120000) // raises the high-water mark

	// New day so the daily baseline resets; down exactly 6% from HWM.
	allowed, reason := g.Check(day(4, 9), 112800)
	assert.False(t, allowed)
	assert.Contains(t, reason, "ACCOUNT BLOWN")
	assert.Equal(t, StateDrawnDown, g.CurrentState())
}

func TestCheck_DrawdownIsSticky(t *testing.T) {
	g := New(100000, 0.01, 0.06)
	g.Check(day(3, 9), 120000)
	g.Check(day(4, 9), 112800) // breach

	// Equity recovering does not clear the halt.
	allowed, reason := g.Check(day(5, 9), 125000)
	assert.False(t, allowed)
	assert.Contains(t, reason, "ACCOUNT BLOWN")
}

func TestCheck_DailyReportedBeforeDrawdown(t *testing.T) {
	g := New(100000, 0.01, 0.06)
	g.Check(day(3, 9), 120000)

	// Down 10% intraday breaches both limits; the daily reason wins.
	g.Check(day(4, 9), 120000)
	allowed, reason := g.Check(day(4, 10), 108000)
	assert.False(t, allowed)
	assert.Contains(t, reason, "DAILY LIMIT")
}

func TestCheck_DayBoundaryResetsDailyHalt(t *testing.T) {
	g := New(100000, 0.01, 0.06)
	g.Check(day(3, 9), 100000)

	allowed, _ := g.Check(day(3, 15), 98500)
	require.False(t, allowed)

	// Next calendar day: the baseline resets to the first observation.
	allowed, reason := g.Check(day(4, 9), 98500)
	assert.True(t, allowed, reason)
	assert.Equal(t, 98500.0, g.Snapshot().DailyStartingBalance)
	assert.False(t, g.Snapshot().InCooldown)
}

func TestCheck_IdempotentAfterDayReset(t *testing.T) {
	g := New(100000, 0.01, 0.06)

	a1, r1 := g.Check(day(3, 9), 99500)
	a2, r2 := g.Check(day(3, 9), 99500)
	assert.Equal(t, a1, a2)
	assert.Equal(t, r1, r2)
}

func TestCheck_HighWaterMarkMonotonic(t *testing.T) {
	g := New(100000, 0.01, 0.30)
	equities := []float64{100000, 104000, 99000, 110000, 101000, 108000}

	prev := 0.0
	for i, eq := range equities {
		g.Check(day(3+i, 9), eq)
		hwm := g.Snapshot().HighWaterMark
		if hwm < prev {
			t.Fatalf("high-water mark decreased: %v -> %v", prev, hwm)
		}
		prev = hwm
	}
	assert.Equal(t, 110000.0, prev)
}

func TestCheck_NonPositiveBalanceHardHalts(t *testing.T) {
	g := New(0, 0.01, 0.06)
	allowed, reason := g.Check(day(3, 9), 0)
	assert.False(t, allowed)
	assert.True(t, strings.Contains(reason, "ACCOUNT BLOWN"), reason)
	assert.Equal(t, StateDrawnDown, g.CurrentState())
}

func TestNewPersistent_RoundTrip(t *testing.T) {
	path := t.TempDir() + "/risk_state.json"

	g, err := NewPersistent(path, 80000, 0.01, 0.06)
	require.NoError(t, err)
	g.Check(day(3, 9), 95000) // HWM rises to 95000

	// A restarted governor keeps the high-water mark and current day.
	g2, err := NewPersistent(path, 80000, 0.01, 0.06)
	require.NoError(t, err)
	s := g2.Snapshot()
	assert.Equal(t, 95000.0, s.HighWaterMark)
	assert.Equal(t, "2024-06-03", s.CurrentDay)
}
