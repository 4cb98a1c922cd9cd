// Package numerai exports equity weights as Numerai Signals submissions.
package numerai

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Checker-Finance/signal-exports/internal/instruments"
	"github.com/Checker-Finance/signal-exports/internal/rate"
	"github.com/Checker-Finance/signal-exports/internal/signalexport"
	"github.com/Checker-Finance/signal-exports/pkg/utils"
)

// Config holds the static destination configuration.
type Config struct {
	PublicID  string
	SecretKey string
	ModelID   string
	BaseURL   string
}

// New returns a ready-to-register Numerai destination. overrides maps tickers
// to country codes that differ from their market's default and may be nil.
func New(logger *zap.Logger, cfg Config, overrides *instruments.Registry, rateMgr *rate.Manager) (*signalexport.Adapter, error) {
	if cfg.PublicID == "" || cfg.SecretKey == "" {
		return nil, errors.New("numerai: public id and secret key are required")
	}
	if cfg.ModelID == "" {
		return nil, errors.New("numerai: model id is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("numerai.configured",
		zap.String("model_id", cfg.ModelID),
		zap.String("public_id", utils.MaskSecret(cfg.PublicID)))
	creds := Credentials{PublicID: cfg.PublicID, SecretKey: cfg.SecretKey}
	return signalexport.NewAdapter(
		logger,
		NewFormat(overrides),
		NewTransport(logger, cfg.BaseURL, creds, cfg.ModelID, rateMgr),
	), nil
}
