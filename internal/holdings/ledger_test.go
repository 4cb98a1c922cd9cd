package holdings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/signal-exports/pkg/model"
)

// ─── Fakes ────────────────────────────────────────────────────────────────────

type fakeRow struct {
	vals []string
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanStrings(r.vals, dest)
}

type fakeRows struct {
	data [][]string
	pos  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return scanStrings(r.data[r.pos-1], dest)
}

func scanStrings(vals []string, dest []any) error {
	if len(vals) != len(dest) {
		return fmt.Errorf("scan: %d values into %d targets", len(vals), len(dest))
	}
	for i, d := range dest {
		p, ok := d.(*string)
		if !ok {
			return fmt.Errorf("scan: unsupported target %T", d)
		}
		*p = vals[i]
	}
	return nil
}

type fakeDB struct {
	cash     map[string]string
	holdings map[string][][]string
	queryErr error
}

func (db *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	cash, ok := db.cash[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{vals: []string{cash}}
}

func (db *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	if db.queryErr != nil {
		return nil, db.queryErr
	}
	return &fakeRows{data: db.holdings[args[0].(string)]}, nil
}

type fakeRef struct {
	symbols map[string]model.Symbol
	prices  map[string]decimal.Decimal
}

func (r *fakeRef) GetSymbol(_ context.Context, ticker string) (model.Symbol, bool, error) {
	s, ok := r.symbols[strings.ToUpper(ticker)]
	return s, ok, nil
}

func (r *fakeRef) Prices(_ context.Context, tickers []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	for _, t := range tickers {
		if p, ok := r.prices[strings.ToUpper(t)]; ok {
			out[strings.ToUpper(t)] = p
		}
	}
	return out, nil
}

func newLedger(db *fakeDB) *Ledger {
	ref := &fakeRef{
		symbols: map[string]model.Symbol{
			"SPY":    model.NewEquity("SPY", "usa"),
			"EURUSD": model.NewForex("EURUSD", "oanda"),
		},
		prices: map[string]decimal.Decimal{
			"SPY":  decimal.NewFromInt(500),
			"AAPL": decimal.NewFromInt(200),
		},
	}
	return New(db, ref, zap.NewNop())
}

// ─── Snapshot ─────────────────────────────────────────────────────────────────

func TestSnapshot(t *testing.T) {
	db := &fakeDB{
		cash: map[string]string{"acct-1": "10000"},
		holdings: map[string][][]string{"acct-1": {
			{"SPY", "20", "480"},
			{"EURUSD", "-10000", "1.10"},
		}},
	}

	snap, err := newLedger(db).Snapshot(context.Background(), "acct-1", "AAPL")
	require.NoError(t, err)

	// 10000 cash + 20*500 (reference price wins) - 10000*1.10 (ledger price fallback)
	assert.Equal(t, "9000", snap.TotalValue().String())

	holdings := snap.Holdings()
	require.Len(t, holdings, 2)
	assert.Equal(t, model.SecurityTypeEquity, holdings[0].Symbol.Type)
	assert.Equal(t, model.SecurityTypeForex, holdings[1].Symbol.Type)

	price, ok := snap.Price(model.NewEquity("AAPL", "usa"))
	require.True(t, ok, "extra ticker priced")
	assert.Equal(t, "200", price.String())

	price, ok = snap.Price(model.NewForex("EURUSD", "oanda"))
	require.True(t, ok)
	assert.Equal(t, "1.1", price.String())
}

func TestSnapshot_UnknownSymbolFallsBackToEquity(t *testing.T) {
	db := &fakeDB{
		cash:     map[string]string{"acct-1": "0"},
		holdings: map[string][][]string{"acct-1": {{"ibm", "5", "150"}}},
	}

	snap, err := newLedger(db).Snapshot(context.Background(), "acct-1")
	require.NoError(t, err)

	holdings := snap.Holdings()
	require.Len(t, holdings, 1)
	assert.Equal(t, model.NewEquity("IBM", ""), holdings[0].Symbol)
	assert.Equal(t, "750", snap.TotalValue().String())
}

func TestSnapshot_AccountNotFound(t *testing.T) {
	_, err := newLedger(&fakeDB{}).Snapshot(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSnapshot_QueryError(t *testing.T) {
	db := &fakeDB{cash: map[string]string{"acct-1": "1"}, queryErr: errors.New("connection reset")}
	_, err := newLedger(db).Snapshot(context.Background(), "acct-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestSnapshot_BadNumeric(t *testing.T) {
	db := &fakeDB{
		cash:     map[string]string{"acct-1": "1"},
		holdings: map[string][][]string{"acct-1": {{"SPY", "lots", "1"}}},
	}
	_, err := newLedger(db).Snapshot(context.Background(), "acct-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantity of SPY")
}
