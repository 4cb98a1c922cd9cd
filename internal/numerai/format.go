package numerai

import (
	"bytes"
	"encoding/csv"

	"github.com/Checker-Finance/signal-exports/internal/instruments"
	"github.com/Checker-Finance/signal-exports/internal/signalexport"
	"github.com/Checker-Finance/signal-exports/pkg/model"
)

// Name is the destination name used in logs, metrics and events.
const Name = "numerai"

// MinTargets is the smallest universe Numerai Signals accepts.
const MinTargets = 10

var header = []string{"numerai_ticker", "signal"}

// Format renders weight targets as a Numerai Signals predictions CSV.
type Format struct {
	overrides *instruments.Registry
}

// NewFormat returns a Format. overrides may be nil.
func NewFormat(overrides *instruments.Registry) *Format {
	return &Format{overrides: overrides}
}

func (f *Format) Name() string { return Name }

// Validate accepts batches of at least MinTargets equities whose markets map to a country code.
func (f *Format) Validate(targets []model.PortfolioTarget) bool {
	if len(targets) < MinTargets {
		return false
	}
	for _, t := range targets {
		if _, err := Ticker(t.Symbol, f.overrides); err != nil {
			return false
		}
	}
	return true
}

func (f *Format) BuildMessage(p signalexport.SendParams) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, t := range p.Targets {
		ticker, err := Ticker(t.Symbol, f.overrides)
		if err != nil {
			return nil, err
		}
		if err := w.Write([]string{ticker, t.Quantity.String()}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
