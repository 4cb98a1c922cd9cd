package model

import "github.com/shopspring/decimal"

// PortfolioTarget is the desired position for one symbol in one export cycle.
// Quantity is a fraction of total account value in [-1, 1] (negative is short)
// for weight producers, or an absolute share count for quantity producers.
type PortfolioTarget struct {
	Symbol   Symbol          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
}

// NewPercentTarget builds a weight target.
func NewPercentTarget(sym Symbol, weight decimal.Decimal) PortfolioTarget {
	return PortfolioTarget{Symbol: sym, Quantity: weight}
}

// NewPercentTargetFloat is a convenience wrapper for literal weights.
func NewPercentTargetFloat(sym Symbol, weight float64) PortfolioTarget {
	return PortfolioTarget{Symbol: sym, Quantity: decimal.NewFromFloat(weight)}
}
