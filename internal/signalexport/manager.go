package signalexport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Checker-Finance/signal-exports/internal/metrics"
	"github.com/Checker-Finance/signal-exports/pkg/model"
)

// EventPublisher receives one event per destination per cycle.
type EventPublisher interface {
	PublishExport(ctx context.Context, ev model.ExportEvent) error
}

// Result is the outcome of one destination in a cycle.
type Result struct {
	Destination string
	Delivered   bool
	Err         error
}

// Report collects the per-destination results of one cycle.
type Report struct {
	CycleID uuid.UUID
	Targets int
	Results []Result
}

// OK reports whether at least one destination is registered and all of them delivered.
func (r Report) OK() bool {
	if len(r.Results) == 0 {
		return false
	}
	for _, res := range r.Results {
		if !res.Delivered {
			return false
		}
	}
	return true
}

// Manager holds the registered destinations and runs export cycles.
type Manager struct {
	logger       *zap.Logger
	mu           sync.RWMutex
	destinations []Destination
	publisher    EventPublisher
	now          func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithPublisher emits an ExportEvent after each destination.
func WithPublisher(p EventPublisher) ManagerOption {
	return func(m *Manager) { m.publisher = p }
}

// WithClock overrides time.Now, used for the default export date.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager returns a Manager with no destinations.
func NewManager(logger *zap.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{logger: logger, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Register adds a destination. Registering nil is a programming error.
func (m *Manager) Register(d Destination) {
	if d == nil {
		panic("signalexport: nil destination")
	}
	m.mu.Lock()
	m.destinations = append(m.destinations, d)
	m.mu.Unlock()
	m.logger.Info("signal_export.destination_registered", zap.String("destination", d.Name()))
}

// Destinations returns the registered destination names in registration order.
func (m *Manager) Destinations() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, len(m.destinations))
	for i, d := range m.destinations {
		names[i] = d.Name()
	}
	return names
}

// ExportCurrentTargets derives targets from acct's holdings and exports them.
// When total value is not positive it returns ErrNonPositiveAccountValue and
// contacts no destination.
func (m *Manager) ExportCurrentTargets(ctx context.Context, acct model.AccountContext, date time.Time) (Report, error) {
	targets, err := DeriveTargets(acct)
	if err != nil {
		m.logger.Warn("signal_export.derive_targets.failed", zap.Error(err))
		return Report{CycleID: uuid.New()}, err
	}
	return m.Export(ctx, targets, acct, date), nil
}

// Export sends the same targets and account context to every destination in
// turn. One destination's failure does not affect the others.
func (m *Manager) Export(ctx context.Context, targets []model.PortfolioTarget, acct model.AccountContext, date time.Time) Report {
	start := time.Now()
	defer metrics.ObserveDuration(metrics.ExportCycleDuration, start)

	if date.IsZero() {
		date = m.now()
	}

	m.mu.RLock()
	dests := append([]Destination(nil), m.destinations...)
	m.mu.RUnlock()

	report := Report{
		CycleID: uuid.New(),
		Targets: len(targets),
		Results: make([]Result, 0, len(dests)),
	}
	log := m.logger.With(zap.String("cycle_id", report.CycleID.String()))
	log.Info("signal_export.cycle.start",
		zap.Int("targets", len(targets)),
		zap.Int("destinations", len(dests)))

	for _, d := range dests {
		// Each destination gets its own copy so none can observe another's mutations.
		params := SendParams{
			Targets: append([]model.PortfolioTarget(nil), targets...),
			Account: acct,
			Date:    date,
		}
		err := d.Send(ctx, params)
		res := Result{Destination: d.Name(), Delivered: err == nil, Err: err}
		report.Results = append(report.Results, res)
		m.publish(ctx, log, report.CycleID, res, len(targets))
	}

	log.Info("signal_export.cycle.complete",
		zap.Bool("ok", report.OK()),
		zap.Duration("elapsed", time.Since(start)))
	return report
}

// Close closes every destination and joins their errors.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for _, d := range m.destinations {
		if err := d.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.destinations = nil
	return errors.Join(errs...)
}

func (m *Manager) publish(ctx context.Context, log *zap.Logger, cycleID uuid.UUID, res Result, targets int) {
	if m.publisher == nil {
		return
	}
	ev := model.ExportEvent{
		ID:          uuid.New(),
		CycleID:     cycleID,
		Destination: res.Destination,
		Delivered:   res.Delivered,
		Targets:     targets,
		Timestamp:   m.now().UTC(),
	}
	if res.Err != nil {
		ev.Reason = res.Err.Error()
	}
	if err := m.publisher.PublishExport(ctx, ev); err != nil {
		log.Warn("signal_export.event_publish_failed",
			zap.String("destination", res.Destination),
			zap.Error(err))
	}
}
