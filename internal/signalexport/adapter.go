package signalexport

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/signal-exports/internal/metrics"
)

// Adapter composes a Format and a Transport into a Destination.
// It holds no per-call state; concurrent Sends build independent messages.
type Adapter struct {
	logger    *zap.Logger
	format    Format
	transport Transport
}

// NewAdapter wires format and transport. Both are required.
func NewAdapter(logger *zap.Logger, format Format, transport Transport) *Adapter {
	if format == nil || transport == nil {
		panic("signalexport: adapter requires a format and a transport")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		logger:    logger.With(zap.String("destination", format.Name())),
		format:    format,
		transport: transport,
	}
}

func (a *Adapter) Name() string { return a.format.Name() }

// Send runs validate → build → deliver.
func (a *Adapter) Send(ctx context.Context, p SendParams) error {
	name := a.format.Name()
	start := time.Now()
	metrics.SetExportTargets(name, len(p.Targets))

	a.logger.Info(name+".send.start", zap.Int("targets", len(p.Targets)))

	if !a.format.Validate(p.Targets) {
		metrics.IncExport(name, metrics.OutcomeRejected)
		a.logger.Warn(name+".send.rejected", zap.Int("targets", len(p.Targets)))
		return fmt.Errorf("%w by %s: batch of %d targets failed validation", ErrRejected, name, len(p.Targets))
	}

	msg, err := a.format.BuildMessage(p)
	if err != nil {
		metrics.IncExport(name, metrics.OutcomeRejected)
		a.logger.Warn(name+".build_message.failed", zap.Error(err))
		return fmt.Errorf("%w by %s: %w", ErrRejected, name, err)
	}
	a.logger.Debug(name+".message", zap.ByteString("payload", a.redact(msg)))

	if err := a.transport.Deliver(ctx, msg); err != nil {
		metrics.IncExport(name, metrics.OutcomeFailed)
		a.logger.Error(name+".send.failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return fmt.Errorf("%s delivery: %w", name, err)
	}

	metrics.IncExport(name, metrics.OutcomeDelivered)
	a.logger.Info(name+".send.complete",
		zap.Int("bytes", len(msg)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (a *Adapter) Close() error {
	return a.transport.Close()
}

// Redactor is implemented by formats whose message embeds credentials.
type Redactor interface {
	Redact(msg []byte) []byte
}

func (a *Adapter) redact(msg []byte) []byte {
	if r, ok := a.format.(Redactor); ok {
		return r.Redact(msg)
	}
	return msg
}
