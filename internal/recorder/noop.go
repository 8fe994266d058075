package recorder

import "TradeWarden/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordTrade(_ *Trade) error           { return nil }
func (n *NoopRecorder) RecordEquity(_ *EquitySnapshot) error { return nil }
func (n *NoopRecorder) TradeHistory(_ int) ([]Trade, error)  { return nil, nil }
func (n *NoopRecorder) EquityHistory(_ int) ([]model.EquityPoint, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
