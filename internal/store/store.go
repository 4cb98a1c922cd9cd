// Package store keeps symbol reference data (security metadata and last
// prices) in Redis.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Checker-Finance/signal-exports/pkg/model"
)

// Reference resolves symbol metadata and reference prices.
type Reference interface {
	GetSymbol(ctx context.Context, ticker string) (model.Symbol, bool, error)
	Prices(ctx context.Context, tickers []string) (map[string]decimal.Decimal, error)
}

// Store is the full symbol reference contract.
type Store interface {
	Reference
	PutSymbol(ctx context.Context, sym model.Symbol) error
	PutPrice(ctx context.Context, ticker string, price decimal.Decimal, ttl time.Duration) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest any) error
	HealthCheck(ctx context.Context) error
	Close() error
}

// RedisStore implements Store on a single Redis database.
type RedisStore struct {
	redis  *redis.Client
	logger *zap.Logger
}

// New connects to Redis and verifies the connection.
func New(addr string, db int, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{redis: rdb, logger: logger}, nil
}

func symbolKey(ticker string) string {
	return "symbol:" + strings.ToUpper(strings.TrimSpace(ticker))
}

func priceKey(ticker string) string {
	return "price:" + strings.ToUpper(strings.TrimSpace(ticker))
}

// PutSymbol stores sym under symbol:<TICKER> without expiry.
func (s *RedisStore) PutSymbol(ctx context.Context, sym model.Symbol) error {
	if sym.Ticker == "" {
		return errors.New("symbol ticker is required")
	}
	if err := s.SetJSON(ctx, symbolKey(sym.Ticker), sym, 0); err != nil {
		s.logger.Error("store.redis.put_symbol_failed", zap.String("ticker", sym.Ticker), zap.Error(err))
		return err
	}
	return nil
}

// GetSymbol reports false when the ticker is unknown.
func (s *RedisStore) GetSymbol(ctx context.Context, ticker string) (model.Symbol, bool, error) {
	var sym model.Symbol
	err := s.GetJSON(ctx, symbolKey(ticker), &sym)
	if errors.Is(err, redis.Nil) {
		return model.Symbol{}, false, nil
	}
	if err != nil {
		return model.Symbol{}, false, err
	}
	return sym, true, nil
}

// PutPrice records the last price of ticker. A zero ttl keeps it until overwritten.
func (s *RedisStore) PutPrice(ctx context.Context, ticker string, price decimal.Decimal, ttl time.Duration) error {
	return s.redis.Set(ctx, priceKey(ticker), price.String(), ttl).Err()
}

// Prices returns the known prices of tickers keyed by upper-case ticker.
// Missing or unparsable entries are omitted.
func (s *RedisStore) Prices(ctx context.Context, tickers []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(tickers))
	if len(tickers) == 0 {
		return out, nil
	}

	keys := make([]string, len(tickers))
	for i, t := range tickers {
		keys[i] = priceKey(t)
	}
	vals, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read prices: %w", err)
	}

	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		p, err := decimal.NewFromString(raw)
		if err != nil {
			s.logger.Warn("store.redis.bad_price", zap.String("key", keys[i]), zap.String("value", raw))
			continue
		}
		out[strings.ToUpper(strings.TrimSpace(tickers[i]))] = p
	}
	return out, nil
}

func (s *RedisStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, key, data, ttl).Err()
}

func (s *RedisStore) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (s *RedisStore) HealthCheck(ctx context.Context) error {
	if s.redis == nil {
		return fmt.Errorf("redis not initialized")
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}
