package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/signal-exports/internal/signalexport"
	"github.com/Checker-Finance/signal-exports/pkg/model"
)

// Exporter runs one export cycle from an account's current holdings.
type Exporter interface {
	ExportCurrentTargets(ctx context.Context, acct model.AccountContext, date time.Time) (signalexport.Report, error)
}

// AccountSource builds a frozen account view.
type AccountSource interface {
	Snapshot(ctx context.Context, accountID string, extraTickers ...string) (*model.Snapshot, error)
}

// StatusWriter persists the last cycle summary per account.
type StatusWriter interface {
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CycleStatus is the summary stored after every scheduled cycle.
type CycleStatus struct {
	AccountID   string            `json:"account_id"`
	CycleID     string            `json:"cycle_id,omitempty"`
	OK          bool              `json:"ok"`
	Error       string            `json:"error,omitempty"`
	Delivered   map[string]bool   `json:"delivered,omitempty"`
	Reasons     map[string]string `json:"reasons,omitempty"`
	CompletedAt time.Time         `json:"completed_at"`
}

// StatusKey is the store key of an account's last CycleStatus.
func StatusKey(accountID string) string {
	return "export:last:" + accountID
}

// NewCycleStatus summarizes a report.
func NewCycleStatus(accountID string, report signalexport.Report, err error, at time.Time) CycleStatus {
	st := CycleStatus{AccountID: accountID, OK: err == nil && report.OK(), CompletedAt: at.UTC()}
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.CycleID = report.CycleID.String()
	st.Delivered = make(map[string]bool, len(report.Results))
	for _, r := range report.Results {
		st.Delivered[r.Destination] = r.Delivered
		if r.Err != nil {
			if st.Reasons == nil {
				st.Reasons = make(map[string]string)
			}
			st.Reasons[r.Destination] = r.Err.Error()
		}
	}
	return st
}

// ExportScheduler exports current holdings of a fixed set of accounts on an interval.
type ExportScheduler struct {
	logger     *zap.Logger
	exporter   Exporter
	accounts   AccountSource
	status     StatusWriter
	accountIDs []string
	interval   time.Duration
	now        func() time.Time
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewExportScheduler constructs the job. status may be nil.
func NewExportScheduler(
	logger *zap.Logger,
	exporter Exporter,
	accounts AccountSource,
	status StatusWriter,
	accountIDs []string,
	interval time.Duration,
) *ExportScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportScheduler{
		logger:     logger,
		exporter:   exporter,
		accounts:   accounts,
		status:     status,
		accountIDs: append([]string(nil), accountIDs...),
		interval:   interval,
		now:        time.Now,
		stopCh:     make(chan struct{}),
	}
}

// Start blocks, running a cycle every interval until Stop or ctx cancellation.
func (s *ExportScheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("export_scheduler.started",
		zap.Duration("interval", s.interval),
		zap.Strings("accounts", s.accountIDs))

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-s.stopCh:
			s.logger.Info("export_scheduler.stopped (manual stop)")
			return
		case <-ctx.Done():
			s.logger.Info("export_scheduler.stopped (context canceled)")
			return
		}
	}
}

// Stop halts the scheduler. It is safe to call more than once.
func (s *ExportScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// RunOnce exports every configured account once.
func (s *ExportScheduler) RunOnce(ctx context.Context) {
	for _, id := range s.accountIDs {
		if ctx.Err() != nil {
			return
		}
		s.exportAccount(ctx, id)
	}
}

func (s *ExportScheduler) exportAccount(ctx context.Context, accountID string) {
	start := s.now()
	log := s.logger.With(zap.String("account_id", accountID))
	log.Info("export_scheduler.running")

	var report signalexport.Report
	snap, err := s.accounts.Snapshot(ctx, accountID)
	if err == nil {
		report, err = s.exporter.ExportCurrentTargets(ctx, snap, start)
	}

	switch {
	case errors.Is(err, signalexport.ErrNonPositiveAccountValue):
		log.Warn("export_scheduler.skipped", zap.Error(err))
	case err != nil:
		log.Error("export_scheduler.export_failed", zap.Error(err))
	case !report.OK():
		log.Warn("export_scheduler.partial", zap.String("cycle_id", report.CycleID.String()))
	default:
		log.Info("export_scheduler.success",
			zap.String("cycle_id", report.CycleID.String()),
			zap.Duration("duration", s.now().Sub(start)))
	}

	if s.status == nil {
		return
	}
	st := NewCycleStatus(accountID, report, err, s.now())
	if err := s.status.SetJSON(ctx, StatusKey(accountID), st, 0); err != nil {
		log.Warn("export_scheduler.status_write_failed", zap.Error(err))
	}
}
