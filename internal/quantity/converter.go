// Package quantity converts portfolio weights into signed share counts.
package quantity

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Checker-Finance/signal-exports/pkg/model"
)

// DefaultMarginBuffer is the haircut applied to the notional before dividing by price.
var DefaultMarginBuffer = decimal.RequireFromString("0.995")

// ErrNoPrice is returned when the account context has no positive price for the target symbol.
var ErrNoPrice = errors.New("no reference price")

// Converter turns weight targets into share quantities.
type Converter struct {
	buffer decimal.Decimal
}

// Option configures a Converter.
type Option func(*Converter)

// WithMarginBuffer overrides the 0.995 default.
func WithMarginBuffer(b decimal.Decimal) Option {
	return func(c *Converter) { c.buffer = b }
}

// NewConverter returns a Converter using DefaultMarginBuffer unless overridden.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{buffer: DefaultMarginBuffer}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Quantity computes weight * totalValue * buffer / price truncated toward zero.
// Zero results are returned as-is; filtering is the caller's choice.
func (c *Converter) Quantity(acct model.AccountContext, target model.PortfolioTarget) (int64, error) {
	if target.Quantity.IsZero() {
		return 0, nil
	}
	price, ok := acct.Price(target.Symbol)
	if !ok || !price.IsPositive() {
		return 0, fmt.Errorf("%w for %s", ErrNoPrice, target.Symbol)
	}
	return Shares(target.Quantity, acct.TotalValue(), price, c.buffer), nil
}

// Shares is the pure arithmetic behind Quantity. price must be positive.
func Shares(weight, total, price, buffer decimal.Decimal) int64 {
	raw := weight.Mul(total).Mul(buffer).Div(price)
	return raw.Truncate(0).IntPart()
}
