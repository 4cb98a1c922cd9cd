package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

var (
	minWeight = decimal.NewFromInt(-1)
	maxWeight = decimal.NewFromInt(1)
)

// ExportRequest triggers one export cycle for an account.
// When Targets is empty the targets are derived from current holdings.
type ExportRequest struct {
	AccountID string          `json:"accountId"`
	Date      string          `json:"date"`
	Targets   []TargetRequest `json:"targets"`
}

// TargetRequest is one desired weight.
type TargetRequest struct {
	Symbol string          `json:"symbol"`
	Weight decimal.Decimal `json:"weight"`
}

// Validate checks required fields and weight bounds.
func (r *ExportRequest) Validate() error {
	if r.AccountID == "" {
		return fmt.Errorf("accountId is required")
	}
	if r.Date != "" {
		if _, err := time.Parse(dateLayout, r.Date); err != nil {
			return fmt.Errorf("date must be YYYY-MM-DD")
		}
	}
	for i, t := range r.Targets {
		if t.Symbol == "" {
			return fmt.Errorf("targets[%d].symbol is required", i)
		}
		if t.Weight.LessThan(minWeight) || t.Weight.GreaterThan(maxWeight) {
			return fmt.Errorf("targets[%d].weight must be between -1 and 1", i)
		}
	}
	return nil
}

// ExportDate returns the parsed date, or the zero time when none was given.
func (r *ExportRequest) ExportDate() time.Time {
	if r.Date == "" {
		return time.Time{}
	}
	d, _ := time.Parse(dateLayout, r.Date)
	return d
}

func (r *ExportRequest) tickers() []string {
	out := make([]string, len(r.Targets))
	for i, t := range r.Targets {
		out[i] = t.Symbol
	}
	return out
}
