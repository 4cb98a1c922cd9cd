// Package holdings reads account positions from the Postgres ledger and turns
// them into frozen account snapshots.
package holdings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Checker-Finance/signal-exports/internal/store"
	"github.com/Checker-Finance/signal-exports/pkg/model"
)

// ErrAccountNotFound is returned when the ledger has no row for the account.
var ErrAccountNotFound = errors.New("account not found")

// DB is the subset of *pgxpool.Pool the ledger uses.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Ledger joins ledger positions with symbol reference data.
type Ledger struct {
	db     DB
	ref    store.Reference
	logger *zap.Logger
}

func New(db DB, ref store.Reference, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{db: db, ref: ref, logger: logger}
}

type position struct {
	ticker    string
	quantity  decimal.Decimal
	lastPrice decimal.Decimal
}

// Cash returns the uninvested cash balance of accountID.
func (l *Ledger) Cash(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var raw string
	err := l.db.QueryRow(ctx, `
		SELECT cash::text
		FROM ledger.accounts
		WHERE account_id = $1
	`, accountID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("read cash for %s: %w", accountID, err)
	}
	cash, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse cash %q: %w", raw, err)
	}
	return cash, nil
}

func (l *Ledger) positions(ctx context.Context, accountID string) ([]position, error) {
	rows, err := l.db.Query(ctx, `
		SELECT symbol, quantity::text, last_price::text
		FROM ledger.holdings
		WHERE account_id = $1 AND quantity <> 0
		ORDER BY symbol
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("read holdings for %s: %w", accountID, err)
	}
	defer rows.Close()

	out := make([]position, 0)
	for rows.Next() {
		var ticker, qty, price string
		if err := rows.Scan(&ticker, &qty, &price); err != nil {
			return nil, err
		}
		p := position{ticker: ticker}
		if p.quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("parse quantity of %s: %w", ticker, err)
		}
		if p.lastPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse last price of %s: %w", ticker, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Snapshot freezes accountID's holdings, cash and reference prices.
// Total value is cash plus the signed value of every holding. extraTickers
// are priced as well so targets for symbols not yet held can be sized.
func (l *Ledger) Snapshot(ctx context.Context, accountID string, extraTickers ...string) (*model.Snapshot, error) {
	cash, err := l.Cash(ctx, accountID)
	if err != nil {
		return nil, err
	}
	positions, err := l.positions(ctx, accountID)
	if err != nil {
		return nil, err
	}

	tickers := make([]string, 0, len(positions)+len(extraTickers))
	for _, p := range positions {
		tickers = append(tickers, p.ticker)
	}
	tickers = append(tickers, extraTickers...)

	prices, err := l.ref.Prices(ctx, tickers)
	if err != nil {
		return nil, err
	}

	total := cash
	holdings := make([]model.Holding, 0, len(positions))
	for _, p := range positions {
		sym, err := l.symbol(ctx, p.ticker)
		if err != nil {
			return nil, err
		}
		price, ok := prices[sym.Key()]
		if !ok {
			price = p.lastPrice
		}
		h := model.Holding{Symbol: sym, Quantity: p.quantity, Price: price}
		total = total.Add(h.Value())
		holdings = append(holdings, h)
	}

	l.logger.Debug("holdings.snapshot",
		zap.String("account_id", accountID),
		zap.Int("holdings", len(holdings)),
		zap.String("total_value", total.String()))
	return model.NewSnapshot(total, prices, holdings), nil
}

// symbol falls back to a bare equity when the reference has no metadata.
func (l *Ledger) symbol(ctx context.Context, ticker string) (model.Symbol, error) {
	sym, ok, err := l.ref.GetSymbol(ctx, ticker)
	if err != nil {
		return model.Symbol{}, fmt.Errorf("symbol %s: %w", ticker, err)
	}
	if !ok {
		l.logger.Warn("holdings.symbol_unknown", zap.String("ticker", ticker))
		return model.NewEquity(strings.ToUpper(ticker), ""), nil
	}
	return sym, nil
}
