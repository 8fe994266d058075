package ledger

import (
	"math"

	"TradeWarden/internal/model"
)

// Book holds the cash balance and exactly one Position per tracked
// asset. It is owned by the strategy engine: all mutations flow through
// Open/Close/ForceClose so cash and position always move together.
// Readers get copies via Snapshot.
type Book struct {
	cash      float64
	symbols   []string // fixed iteration order
	positions map[string]*model.Position
}

// NewBook creates a Book with the given starting cash and one flat
// position per symbol.
func NewBook(cash float64, symbols []string) *Book {
	b := &Book{
		cash:      cash,
		symbols:   append([]string(nil), symbols...),
		positions: make(map[string]*model.Position, len(symbols)),
	}
	for _, s := range symbols {
		b.positions[s] = &model.Position{Symbol: s, Side: model.SideFlat}
	}
	return b
}

// Cash returns the current cash balance.
func (b *Book) Cash() float64 { return b.cash }

// Symbols returns the tracked assets in their fixed iteration order.
func (b *Book) Symbols() []string { return b.symbols }

// Position returns a copy of the position for the given symbol.
func (b *Book) Position(symbol string) model.Position {
	if p, ok := b.positions[symbol]; ok {
		return *p
	}
	return model.Position{Symbol: symbol, Side: model.SideFlat}
}

// Snapshot returns copies of all positions in iteration order.
func (b *Book) Snapshot() []model.Position {
	out := make([]model.Position, 0, len(b.symbols))
	for _, s := range b.symbols {
		out = append(out, *b.positions[s])
	}
	return out
}

// Equity returns cash plus the mark-to-market value of every open
// position at the given prices. A symbol missing from prices is valued
// at its entry price.
func (b *Book) Equity(prices map[string]float64) float64 {
	equity := b.cash
	for _, s := range b.symbols {
		p := b.positions[s]
		if p.IsFlat() {
			continue
		}
		price, ok := prices[s]
		if !ok {
			price = p.Entry
		}
		equity += p.MarketValue(price)
	}
	return equity
}

// Open establishes a new position. qty is the unsigned share count; the
// stored quantity is signed by side. A LONG spends cash, a SHORT
// collects the sale proceeds.
func (b *Book) Open(symbol string, side model.Side, qty, price float64) {
	p := b.positions[symbol]
	switch side {
	case model.SideLong:
		b.cash -= qty * price
		p.Side = model.SideLong
		p.Quantity = qty
	case model.SideShort:
		b.cash += qty * price
		p.Side = model.SideShort
		p.Quantity = -qty
	default:
		return
	}
	p.Entry = price
}

// Close flattens the position at the given fill price, realizing P&L
// into cash immediately. A LONG sells its shares, a SHORT buys back the
// borrowed shares.
func (b *Book) Close(symbol string, price float64) {
	p := b.positions[symbol]
	if p.IsFlat() {
		return
	}
	switch p.Side {
	case model.SideLong:
		b.cash += p.Quantity * price
	case model.SideShort:
		b.cash -= math.Abs(p.Quantity) * price
	}
	p.Side = model.SideFlat
	p.Quantity = 0
	p.Entry = 0
}
