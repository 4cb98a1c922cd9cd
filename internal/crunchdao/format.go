package crunchdao

import (
	"bytes"
	"encoding/csv"
	"time"

	"github.com/Checker-Finance/signal-exports/internal/instruments"
	"github.com/Checker-Finance/signal-exports/internal/signalexport"
	"github.com/Checker-Finance/signal-exports/pkg/model"
)

// Name is the destination name used in logs, metrics and events.
const Name = "crunchdao"

const dateLayout = "2006-01-02"

var header = []string{"ticker", "date", "signal"}

// Format renders weight targets as a CrunchDAO alpha submission CSV.
type Format struct {
	codes *instruments.Registry
	now   func() time.Time
}

// NewFormat returns a Format resolving instrument codes through codes.
func NewFormat(codes *instruments.Registry) *Format {
	return &Format{codes: codes, now: time.Now}
}

func (f *Format) Name() string { return Name }

// Validate accepts non-empty batches of equities with a known instrument code.
func (f *Format) Validate(targets []model.PortfolioTarget) bool {
	if len(targets) == 0 {
		return false
	}
	for _, t := range targets {
		if _, err := Ticker(t.Symbol, f.codes); err != nil {
			return false
		}
	}
	return true
}

// BuildMessage writes one row per target: ticker, submission date, weight.
func (f *Format) BuildMessage(p signalexport.SendParams) ([]byte, error) {
	date := p.Date
	if date.IsZero() {
		date = f.now()
	}
	day := date.Format(dateLayout)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, t := range p.Targets {
		ticker, err := Ticker(t.Symbol, f.codes)
		if err != nil {
			return nil, err
		}
		if err := w.Write([]string{ticker, day, t.Quantity.String()}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
