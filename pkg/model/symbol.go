package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SecurityType classifies a tradable instrument.
type SecurityType string

const (
	SecurityTypeBase   SecurityType = "base"
	SecurityTypeEquity SecurityType = "equity"
	SecurityTypeForex  SecurityType = "forex"
	SecurityTypeFuture SecurityType = "future"
	SecurityTypeOption SecurityType = "option"
	SecurityTypeCrypto SecurityType = "crypto"
	SecurityTypeIndex  SecurityType = "index"
	SecurityTypeCfd    SecurityType = "cfd"
)

// ParseSecurityType maps a case-insensitive name onto a SecurityType.
// Unknown names map to SecurityTypeBase.
func ParseSecurityType(s string) SecurityType {
	switch t := SecurityType(strings.ToLower(strings.TrimSpace(s))); t {
	case SecurityTypeEquity, SecurityTypeForex, SecurityTypeFuture, SecurityTypeOption,
		SecurityTypeCrypto, SecurityTypeIndex, SecurityTypeCfd:
		return t
	default:
		return SecurityTypeBase
	}
}

// OptionRight is the call/put flag of an option contract.
type OptionRight string

const (
	OptionRightCall OptionRight = "call"
	OptionRightPut  OptionRight = "put"
)

// Symbol identifies an instrument together with its derivative descriptors.
// Underlying, Expiry, Strike and Right are only meaningful for futures and options.
type Symbol struct {
	Ticker     string          `json:"ticker"`
	Type       SecurityType    `json:"securityType"`
	Market     string          `json:"market"`
	Underlying string          `json:"underlying,omitempty"`
	Expiry     time.Time       `json:"expiry"`
	Strike     decimal.Decimal `json:"strike"`
	Right      OptionRight     `json:"right,omitempty"`
}

// NewEquity returns an equity symbol listed on market.
func NewEquity(ticker, market string) Symbol {
	return Symbol{Ticker: ticker, Type: SecurityTypeEquity, Market: market}
}

// NewForex returns a currency pair symbol, e.g. EURUSD.
func NewForex(pair, market string) Symbol {
	return Symbol{Ticker: pair, Type: SecurityTypeForex, Market: market}
}

// NewFuture returns a futures contract on root expiring at expiry.
func NewFuture(ticker, root, market string, expiry time.Time) Symbol {
	return Symbol{
		Ticker:     ticker,
		Type:       SecurityTypeFuture,
		Market:     market,
		Underlying: root,
		Expiry:     expiry,
	}
}

// NewOption returns an option contract on underlying.
func NewOption(ticker, underlying, market string, right OptionRight, strike decimal.Decimal, expiry time.Time) Symbol {
	return Symbol{
		Ticker:     ticker,
		Type:       SecurityTypeOption,
		Market:     market,
		Underlying: underlying,
		Expiry:     expiry,
		Strike:     strike,
		Right:      right,
	}
}

// Root returns the underlying root for derivatives and the ticker otherwise.
func (s Symbol) Root() string {
	if s.Underlying != "" {
		return s.Underlying
	}
	return s.Ticker
}

// Key is the lookup key used for prices and holdings.
func (s Symbol) Key() string {
	return strings.ToUpper(s.Ticker)
}

func (s Symbol) String() string {
	return s.Ticker
}
