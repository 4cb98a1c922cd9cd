package model

import "github.com/shopspring/decimal"

// AccountContext is the frozen account view handed to destinations for one call.
// Implementations must not change while a call is in flight.
type AccountContext interface {
	// TotalValue is the total portfolio value; it may be zero or negative.
	TotalValue() decimal.Decimal
	// Price returns the last reference price of sym.
	Price(sym Symbol) (decimal.Decimal, bool)
	// Holdings returns the currently invested positions.
	Holdings() []Holding
}

// Holding is a live position.
type Holding struct {
	Symbol   Symbol          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Value is the signed market value of the position.
func (h Holding) Value() decimal.Decimal {
	return h.Quantity.Mul(h.Price)
}

// Snapshot is an immutable AccountContext. The constructor copies its inputs.
type Snapshot struct {
	total    decimal.Decimal
	prices   map[string]decimal.Decimal
	holdings []Holding
}

// NewSnapshot freezes total value, reference prices (keyed by Symbol.Key) and holdings.
// A holding's own price is used when prices has no entry for its symbol.
func NewSnapshot(total decimal.Decimal, prices map[string]decimal.Decimal, holdings []Holding) *Snapshot {
	s := &Snapshot{
		total:    total,
		prices:   make(map[string]decimal.Decimal, len(prices)+len(holdings)),
		holdings: append([]Holding(nil), holdings...),
	}
	for _, h := range holdings {
		if !h.Price.IsZero() {
			s.prices[h.Symbol.Key()] = h.Price
		}
	}
	for k, v := range prices {
		s.prices[k] = v
	}
	return s
}

func (s *Snapshot) TotalValue() decimal.Decimal { return s.total }

func (s *Snapshot) Price(sym Symbol) (decimal.Decimal, bool) {
	p, ok := s.prices[sym.Key()]
	return p, ok
}

func (s *Snapshot) Holdings() []Holding {
	return append([]Holding(nil), s.holdings...)
}
