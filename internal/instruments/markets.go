package instruments

import "strings"

// countryCodes maps listing markets to the two-letter country codes Numerai
// appends to tickers ("AAPL US", "SAN SP").
var countryCodes = map[string]string{
	"usa":       "US",
	"india":     "IN",
	"spain":     "SP",
	"germany":   "GR",
	"uk":        "LN",
	"france":    "FP",
	"japan":     "JP",
	"hongkong":  "HK",
	"australia": "AU",
	"canada":    "CN",
}

// CountryCode returns the Numerai country code for a listing market.
func CountryCode(market string) (string, bool) {
	code, ok := countryCodes[strings.ToLower(strings.TrimSpace(market))]
	return code, ok
}
