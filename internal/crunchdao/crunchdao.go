// Package crunchdao exports equity weights as CrunchDAO alpha submissions.
package crunchdao

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
	APIKey  string
	Model   string
	Label   string
	Comment string
	BaseURL string
}

// New returns a ready-to-register CrunchDAO destination.
func New(logger *zap.Logger, cfg Config, codes *instruments.Registry, rateMgr *rate.Manager) (*signalexport.Adapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("crunchdao: api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("crunchdao: model is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("crunchdao.configured",
		zap.String("model", cfg.Model),
		zap.String("api_key", utils.MaskSecret(cfg.APIKey)),
		zap.Int("instrument_codes", codes.Len()))
	info := SubmissionInfo{Model: cfg.Model, Label: cfg.Label, Comment: cfg.Comment}
	return signalexport.NewAdapter(
		logger,
		NewFormat(codes),
		NewTransport(logger, cfg.BaseURL, cfg.APIKey, info, rateMgr),
	), nil
}
