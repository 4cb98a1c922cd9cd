package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Checker-Finance/signal-exports/internal/collective2"
	"github.com/Checker-Finance/signal-exports/internal/config"
	"github.com/Checker-Finance/signal-exports/internal/crunchdao"
	"github.com/Checker-Finance/signal-exports/internal/instruments"
	"github.com/Checker-Finance/signal-exports/internal/numerai"
	"github.com/Checker-Finance/signal-exports/internal/quantity"
	"github.com/Checker-Finance/signal-exports/internal/rate"
	internalsecrets "github.com/Checker-Finance/signal-exports/internal/secrets"
	"github.com/Checker-Finance/signal-exports/internal/signalexport"
	"github.com/Checker-Finance/signal-exports/pkg/logger"
	"github.com/Checker-Finance/signal-exports/pkg/secrets"
)

// destinationFactory builds destinations from their YAML entry and resolved credentials.
type destinationFactory struct {
	cfg       *config.Config
	provider  secrets.Provider
	rateMgr   *rate.Manager
	converter *quantity.Converter
	stop      <-chan struct{}
}

func (f *destinationFactory) build(ctx context.Context, dc config.DestinationConfig) (signalexport.Destination, error) {
	log := logger.For(dc.Name)
	if dc.RequestsPerSecond > 0 || dc.Burst > 0 {
		f.rateMgr.Configure(dc.Name, rate.Config{RequestsPerSecond: dc.RequestsPerSecond, Burst: dc.Burst})
	}

	switch dc.Name {
	case collective2.Name:
		creds, err := resolve(ctx, f, dc.Name, internalsecrets.ParseCollective2)
		if err != nil {
			return nil, err
		}
		return collective2.New(log, creds, f.rateMgr, f.converter)

	case crunchdao.Name:
		codes, err := registry(dc, log)
		if err != nil {
			return nil, err
		}
		creds, err := resolve(ctx, f, dc.Name, internalsecrets.ParseCrunchDAO)
		if err != nil {
			return nil, err
		}
		return crunchdao.New(log, creds, codes, f.rateMgr)

	case numerai.Name:
		overrides, err := registry(dc, log)
		if err != nil {
			return nil, err
		}
		creds, err := resolve(ctx, f, dc.Name, internalsecrets.ParseNumerai)
		if err != nil {
			return nil, err
		}
		return numerai.New(log, creds, overrides, f.rateMgr)
	}
	return nil, fmt.Errorf("unknown destination %q", dc.Name)
}

func resolve[T any](ctx context.Context, f *destinationFactory, name string, parse func(map[string]string) (T, error)) (T, error) {
	cache := secrets.NewCache[T](f.cfg.CacheTTL)
	go cache.StartCleaner(f.cfg.CleanupFreq, f.stop)
	r := internalsecrets.NewResolver(logger.L(), f.cfg.Env, name, f.provider, cache)
	return r.Resolve(ctx, parse)
}

// registry loads a destination's identifier table: the file first, then inline entries.
func registry(dc config.DestinationConfig, log *zap.Logger) (*instruments.Registry, error) {
	r := instruments.NewRegistry(dc.Name, log)
	if dc.InstrumentsFile != "" {
		if err := r.LoadFromFile(dc.InstrumentsFile); err != nil {
			return nil, err
		}
	}
	r.Load(dc.Instruments)
	return r, nil
}
