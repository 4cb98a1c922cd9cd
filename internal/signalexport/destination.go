// Package signalexport dispatches portfolio targets to signal-copying destinations.
package signalexport

import (
	"context"
	"errors"
	"time"

	"github.com/Checker-Finance/signal-exports/pkg/model"
)

var (
	// ErrRejected marks a batch refused by a destination's validation rules.
	// No network call is made for a rejected batch.
	ErrRejected = errors.New("targets rejected")

	// ErrUnsupportedSymbol is returned by ticker translators for symbols a
	// destination cannot represent.
	ErrUnsupportedSymbol = errors.New("unsupported symbol")

	// ErrNonPositiveAccountValue is returned when weights cannot be derived
	// because total account value is zero or negative.
	ErrNonPositiveAccountValue = errors.New("total account value must be positive")
)

// SendParams is the per-call input of a destination.
type SendParams struct {
	Targets []model.PortfolioTarget
	Account model.AccountContext
	// Date is the strategy's current (simulated or live) date.
	Date time.Time
}

// Destination is one registered signal-copying service.
type Destination interface {
	Name() string
	// Send validates, serializes and delivers targets. It returns nil only when
	// the message was built and the transport accepted it.
	Send(ctx context.Context, p SendParams) error
	// Close releases transport resources.
	Close() error
}

// Format is the destination-specific half of an adapter: batch rules and wire format.
type Format interface {
	Name() string
	Validate(targets []model.PortfolioTarget) bool
	BuildMessage(p SendParams) ([]byte, error)
}

// Transport delivers a built message to the destination.
type Transport interface {
	Deliver(ctx context.Context, msg []byte) error
	Close() error
}
