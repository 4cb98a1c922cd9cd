package quantity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Checker-Finance/signal-exports/pkg/model"
)

var spy = model.NewEquity("SPY", "usa")

func account(total, price int64) model.AccountContext {
	return model.NewSnapshot(
		decimal.NewFromInt(total),
		map[string]decimal.Decimal{spy.Key(): decimal.NewFromInt(price)},
		nil,
	)
}

func TestConverter_Quantity(t *testing.T) {
	tests := []struct {
		name   string
		weight string
		want   int64
	}{
		{"0.2 of 50000 at 100 truncates 99.5", "0.2", 99},
		{"0.3 of 50000 at 100 truncates 149.25", "0.3", 149},
		{"small weight", "0.01", 4},
		{"full short truncates toward zero", "-1.0", -497},
		{"zero weight", "0", 0},
		{"tiny weight yields zero shares", "0.0001", 0},
	}

	c := NewConverter()
	acct := account(50000, 100)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Quantity(acct, model.NewPercentTarget(spy, decimal.RequireFromString(tt.weight)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Decimal arithmetic makes truncation exactly symmetric, so no tie-boundary
// asymmetry shows up here; a float implementation could differ by one unit.
func TestConverter_OddSymmetry(t *testing.T) {
	c := NewConverter()
	for _, price := range []int64{1, 7, 100, 333, 4999} {
		acct := account(123457, price)
		for _, w := range []string{"0.001", "0.05", "0.1234", "0.5", "0.999", "1"} {
			weight := decimal.RequireFromString(w)
			pos, err := c.Quantity(acct, model.NewPercentTarget(spy, weight))
			require.NoError(t, err)
			neg, err := c.Quantity(acct, model.NewPercentTarget(spy, weight.Neg()))
			require.NoError(t, err)
			assert.Equal(t, pos, -neg, "price=%d weight=%s", price, w)
		}
	}
}

func TestConverter_RoundTrip(t *testing.T) {
	c := NewConverter(WithMarginBuffer(decimal.NewFromInt(1)))
	for _, price := range []int64{3, 17, 100, 251} {
		acct := account(98765, price)
		for _, q := range []int64{1, 7, 42, 300, -5, -120} {
			weight := decimal.NewFromInt(q * price).Div(decimal.NewFromInt(98765))
			got, err := c.Quantity(acct, model.NewPercentTarget(spy, weight))
			require.NoError(t, err)
			assert.InDelta(t, q, got, 1, "price=%d q=%d", price, q)
		}
	}
}

func TestConverter_MissingPrice(t *testing.T) {
	c := NewConverter()
	acct := model.NewSnapshot(decimal.NewFromInt(50000), nil, nil)

	_, err := c.Quantity(acct, model.NewPercentTargetFloat(spy, 0.2))
	require.ErrorIs(t, err, ErrNoPrice)

	q, err := c.Quantity(acct, model.NewPercentTarget(spy, decimal.Zero))
	require.NoError(t, err, "zero weight never needs a price")
	assert.Zero(t, q)
}

func TestConverter_WithMarginBuffer(t *testing.T) {
	c := NewConverter(WithMarginBuffer(decimal.NewFromInt(1)))
	got, err := c.Quantity(account(50000, 100), model.NewPercentTargetFloat(spy, 0.2))
	require.NoError(t, err)
	assert.Equal(t, int64(100), got)
}

func TestShares_NegativeAccountValue(t *testing.T) {
	got := Shares(decimal.RequireFromString("0.2"), decimal.NewFromInt(-50000), decimal.NewFromInt(100), DefaultMarginBuffer)
	assert.Equal(t, int64(-99), got)
}
