package collective2

import (
	"fmt"

	"github.com/Checker-Finance/signal-exports/internal/signalexport"
	"github.com/Checker-Finance/signal-exports/pkg/model"
)

// futureMonthCodes are the exchange month letters, January first.
var futureMonthCodes = [12]byte{'F', 'G', 'H', 'J', 'K', 'M', 'N', 'Q', 'U', 'V', 'X', 'Z'}

// Option month letters: calls use A-L and puts M-X, January first.
const (
	callMonthBase = 'A'
	putMonthBase  = 'M'
)

// Ticker translates sym into Collective2's symbol convention.
//
//	equity, forex  SPY, EURUSD
//	future         @ESZ8        root, month code, last digit of expiry year
//	option         SPY2115A45   root, YY, DD, right+month letter, strike
func Ticker(sym model.Symbol) (string, error) {
	switch sym.Type {
	case model.SecurityTypeEquity, model.SecurityTypeForex:
		if sym.Ticker == "" {
			return "", fmt.Errorf("%w: empty ticker", signalexport.ErrUnsupportedSymbol)
		}
		return sym.Ticker, nil
	case model.SecurityTypeFuture:
		return futureTicker(sym)
	case model.SecurityTypeOption:
		return optionTicker(sym)
	default:
		return "", fmt.Errorf("%w: %s has security type %q", signalexport.ErrUnsupportedSymbol, sym, sym.Type)
	}
}

func futureTicker(sym model.Symbol) (string, error) {
	if sym.Expiry.IsZero() || sym.Root() == "" {
		return "", fmt.Errorf("%w: future %s needs a root and expiry", signalexport.ErrUnsupportedSymbol, sym)
	}
	month := futureMonthCodes[sym.Expiry.Month()-1]
	return fmt.Sprintf("@%s%c%d", sym.Root(), month, sym.Expiry.Year()%10), nil
}

func optionTicker(sym model.Symbol) (string, error) {
	if sym.Expiry.IsZero() || sym.Underlying == "" || !sym.Strike.IsPositive() {
		return "", fmt.Errorf("%w: option %s needs underlying, expiry and strike", signalexport.ErrUnsupportedSymbol, sym)
	}
	var base byte
	switch sym.Right {
	case model.OptionRightCall:
		base = callMonthBase
	case model.OptionRightPut:
		base = putMonthBase
	default:
		return "", fmt.Errorf("%w: option %s has right %q", signalexport.ErrUnsupportedSymbol, sym, sym.Right)
	}
	letter := base + byte(sym.Expiry.Month()-1)
	return fmt.Sprintf("%s%02d%02d%c%s",
		sym.Underlying,
		sym.Expiry.Year()%100,
		sym.Expiry.Day(),
		letter,
		sym.Strike.String(),
	), nil
}

// typeTag maps security types to Collective2's "typeofsymbol" values.
func typeTag(t model.SecurityType) (string, bool) {
	switch t {
	case model.SecurityTypeEquity:
		return "stock", true
	case model.SecurityTypeForex:
		return "forex", true
	case model.SecurityTypeFuture:
		return "future", true
	case model.SecurityTypeOption:
		return "option", true
	default:
		return "", false
	}
}
