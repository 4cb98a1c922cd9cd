package collective2

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Checker-Finance/signal-exports/internal/quantity"
	"github.com/Checker-Finance/signal-exports/internal/signalexport"
	"github.com/Checker-Finance/signal-exports/pkg/model"
)

// Name is the destination name used in logs, metrics and events.
const Name = "collective2"

// Position is one entry of the desired-positions payload.
type Position struct {
	Symbol       string `json:"symbol"`
	TypeOfSymbol string `json:"typeofsymbol"`
	Quant        int64  `json:"quant"`
}

// DesiredPositions is the setDesiredPositions request body. Field order is the wire order.
type DesiredPositions struct {
	Positions []Position `json:"positions"`
	SystemID  int        `json:"systemid"`
	APIKey    string     `json:"apikey"`
}

// Format converts weight targets into a Collective2 desired-positions message.
type Format struct {
	apiKey    string
	systemID  int
	converter *quantity.Converter
}

// NewFormat returns a Format that embeds apiKey and systemID in every message.
func NewFormat(apiKey string, systemID int, converter *quantity.Converter) *Format {
	if converter == nil {
		converter = quantity.NewConverter()
	}
	return &Format{apiKey: apiKey, systemID: systemID, converter: converter}
}

func (f *Format) Name() string { return Name }

// Validate accepts non-empty batches of equities, forex, futures and options
// whose tickers all translate.
func (f *Format) Validate(targets []model.PortfolioTarget) bool {
	if len(targets) == 0 {
		return false
	}
	for _, t := range targets {
		if _, ok := typeTag(t.Symbol.Type); !ok {
			return false
		}
		if _, err := Ticker(t.Symbol); err != nil {
			return false
		}
	}
	return true
}

// BuildMessage converts each weight into a share quantity and serializes the
// positions in input order.
func (f *Format) BuildMessage(p signalexport.SendParams) ([]byte, error) {
	body := DesiredPositions{
		Positions: make([]Position, 0, len(p.Targets)),
		SystemID:  f.systemID,
		APIKey:    f.apiKey,
	}
	for _, t := range p.Targets {
		ticker, err := Ticker(t.Symbol)
		if err != nil {
			return nil, err
		}
		tag, ok := typeTag(t.Symbol.Type)
		if !ok {
			return nil, fmt.Errorf("%w: %s", signalexport.ErrUnsupportedSymbol, t.Symbol)
		}
		quant, err := f.converter.Quantity(p.Account, t)
		if err != nil {
			return nil, err
		}
		body.Positions = append(body.Positions, Position{Symbol: ticker, TypeOfSymbol: tag, Quant: quant})
	}
	return json.Marshal(body)
}

// Redact hides the API key when the message is logged.
func (f *Format) Redact(msg []byte) []byte {
	if f.apiKey == "" {
		return msg
	}
	return bytes.ReplaceAll(msg, []byte(strconv.Quote(f.apiKey)), []byte(`"***"`))
}
