package crunchdao

import (
	"fmt"

	"github.com/Checker-Finance/signal-exports/internal/instruments"
	"github.com/Checker-Finance/signal-exports/internal/signalexport"
	"github.com/Checker-Finance/signal-exports/pkg/model"
)

// Ticker returns "<ticker> <code>" where code is the CrunchDAO instrument
// code registered for the symbol.
func Ticker(sym model.Symbol, codes *instruments.Registry) (string, error) {
	if sym.Type != model.SecurityTypeEquity {
		return "", fmt.Errorf("%w: %s is %s", signalexport.ErrUnsupportedSymbol, sym.Ticker, sym.Type)
	}
	if codes == nil {
		return "", fmt.Errorf("%w: no instrument codes loaded", signalexport.ErrUnsupportedSymbol)
	}
	code, ok := codes.Code(sym.Ticker)
	if !ok {
		return "", fmt.Errorf("%w: no crunchdao code for %s", signalexport.ErrUnsupportedSymbol, sym.Ticker)
	}
	return sym.Ticker + " " + code, nil
}
