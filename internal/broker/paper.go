package broker

import (
	"context"
	"log"

	"TradeWarden/internal/model"
)

// PaperBroker fills every market order immediately at the requested
// quantity. Used for historical replay and paper-trading runs where the
// ledger itself is the source of truth.
type PaperBroker struct {
	Verbose bool
}

// NewPaperBroker creates a simulation broker.
func NewPaperBroker(verbose bool) *PaperBroker {
	return &PaperBroker{Verbose: verbose}
}

func (p *PaperBroker) Name() string { return "paper" }

func (p *PaperBroker) SubmitMarketOrder(_ context.Context, symbol string, qty float64, side model.TradeAction) error {
	if p.Verbose {
		log.Printf("[INFO] paper fill: %s %.0f %s", side, qty, symbol)
	}
	return nil
}
