// Package collective2 exports portfolio targets as Collective2 desired positions.
package collective2

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Checker-Finance/signal-exports/internal/quantity"
	"github.com/Checker-Finance/signal-exports/internal/rate"
	"github.com/Checker-Finance/signal-exports/internal/signalexport"
	"github.com/Checker-Finance/signal-exports/pkg/utils"
)

// Config holds the static destination configuration.
type Config struct {
	APIKey   string
	SystemID int
	BaseURL  string
}

// New returns a ready-to-register Collective2 destination.
func New(logger *zap.Logger, cfg Config, rateMgr *rate.Manager, converter *quantity.Converter) (*signalexport.Adapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("collective2: api key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("collective2.configured",
		zap.Int("system_id", cfg.SystemID),
		zap.String("api_key", utils.MaskSecret(cfg.APIKey)))
	return signalexport.NewAdapter(
		logger,
		NewFormat(cfg.APIKey, cfg.SystemID, converter),
		NewTransport(logger, cfg.BaseURL, rateMgr),
	), nil
}
