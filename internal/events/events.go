// Package events publishes export outcome events to the message bus.
package events

import (
	"context"
	"errors"
	"strings"

	"github.com/Checker-Finance/signal-exports/pkg/model"
)

// Subject returns the subject (NATS) or routing key (RabbitMQ) for a destination's events.
func Subject(destination string) string {
	return "evt.signal_export." + strings.ToLower(destination) + ".v1"
}

// Publisher is implemented by every broker backend.
type Publisher interface {
	PublishExport(ctx context.Context, ev model.ExportEvent) error
	Close() error
}

// Multi fans an event out to several brokers. Every broker is attempted.
type Multi []Publisher

func (m Multi) PublishExport(ctx context.Context, ev model.ExportEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishExport(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
