package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeWarden/internal/model"
	"TradeWarden/internal/recorder"
)

// journal builds a newest-first trade list whose oldest entry sits at
// base and each later entry one hour apart, mirroring TradeHistory order.
func journal(base time.Time, n int) []recorder.Trade {
	trades := make([]recorder.Trade, n)
	for i := 0; i < n; i++ {
		trades[i] = recorder.Trade{
			Symbol:   "TSLA",
			Action:   model.ActionBuy,
			Quantity: 1,
			Price:    200,
			Time:     base.Add(time.Duration(n-1-i) * time.Hour),
		}
	}
	return trades
}

func TestFreshFills_FirstCallOnlyPrimes(t *testing.T) {
	s := &Scheduler{}
	base := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

	assert.Empty(t, s.freshFills(journal(base, 5)))
	assert.Empty(t, s.freshFills(journal(base, 5)), "unchanged journal must stay quiet")
}

func TestFreshFills_ChronologicalOrder(t *testing.T) {
	s := &Scheduler{}
	base := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

	s.freshFills(journal(base, 2))
	fresh := s.freshFills(journal(base, 5))

	require.Len(t, fresh, 3)
	assert.True(t, fresh[0].Time.Before(fresh[1].Time), "alerts go out oldest first")
	assert.True(t, fresh[1].Time.Before(fresh[2].Time))
}

// Once the journal reaches the history query limit its length stops
// changing, so fill detection has to go by trade timestamps.
func TestFreshFills_JournalAtQueryLimit(t *testing.T) {
	s := &Scheduler{}
	base := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

	s.freshFills(journal(base, 50))

	// Three more fills land; the query still returns 50 rows, now
	// shifted three hours forward.
	fresh := s.freshFills(journal(base.Add(3*time.Hour), 50))
	require.Len(t, fresh, 3)
	assert.Equal(t, base.Add(50*time.Hour), fresh[0].Time)
	assert.Equal(t, base.Add(52*time.Hour), fresh[2].Time)

	// And again: the baseline advanced, so nothing is re-announced.
	assert.Empty(t, s.freshFills(journal(base.Add(3*time.Hour), 50)))
}

func TestFreshFills_EmptyJournal(t *testing.T) {
	s := &Scheduler{}
	base := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

	assert.Empty(t, s.freshFills(nil))

	// The first real fills after an empty start are announced.
	fresh := s.freshFills(journal(base, 2))
	require.Len(t, fresh, 2)
	assert.Equal(t, base, fresh[0].Time)
}
