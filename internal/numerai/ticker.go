package numerai

import (
	"fmt"

	"github.com/Checker-Finance/signal-exports/internal/instruments"
	"github.com/Checker-Finance/signal-exports/internal/signalexport"
	"github.com/Checker-Finance/signal-exports/pkg/model"
)

// Ticker returns "<ticker> <country>", e.g. "AAPL US". The country code comes
// from overrides when the ticker is listed there, otherwise from the symbol's market.
func Ticker(sym model.Symbol, overrides *instruments.Registry) (string, error) {
	if sym.Type != model.SecurityTypeEquity {
		return "", fmt.Errorf("%w: %s is %s", signalexport.ErrUnsupportedSymbol, sym.Ticker, sym.Type)
	}
	if overrides != nil {
		if code, ok := overrides.Code(sym.Ticker); ok {
			return sym.Ticker + " " + code, nil
		}
	}
	code, ok := instruments.CountryCode(sym.Market)
	if !ok {
		return "", fmt.Errorf("%w: no numerai country code for market %q", signalexport.ErrUnsupportedSymbol, sym.Market)
	}
	return sym.Ticker + " " + code, nil
}
