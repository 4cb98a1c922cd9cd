package signalexport

import (
	"fmt"

	"github.com/Checker-Finance/signal-exports/pkg/model"
)

// DeriveTargets builds one weight target per invested holding:
// weight = holding value / total account value, in holdings order.
// It fails with ErrNonPositiveAccountValue when total value is not positive.
func DeriveTargets(acct model.AccountContext) ([]model.PortfolioTarget, error) {
	total := acct.TotalValue()
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", ErrNonPositiveAccountValue, total)
	}

	holdings := acct.Holdings()
	targets := make([]model.PortfolioTarget, 0, len(holdings))
	for _, h := range holdings {
		if h.Quantity.IsZero() {
			continue
		}
		price := h.Price
		if p, ok := acct.Price(h.Symbol); ok {
			price = p
		}
		value := h.Quantity.Mul(price)
		targets = append(targets, model.NewPercentTarget(h.Symbol, value.Div(total)))
	}
	return targets, nil
}
