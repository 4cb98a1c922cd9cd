package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Checker-Finance/signal-exports/internal/holdings"
	"github.com/Checker-Finance/signal-exports/internal/jobs"
	"github.com/Checker-Finance/signal-exports/internal/signalexport"
	"github.com/Checker-Finance/signal-exports/internal/store"
	"github.com/Checker-Finance/signal-exports/pkg/model"
)

// ExportService runs export cycles.
type ExportService interface {
	Export(ctx context.Context, targets []model.PortfolioTarget, acct model.AccountContext, date time.Time) signalexport.Report
	ExportCurrentTargets(ctx context.Context, acct model.AccountContext, date time.Time) (signalexport.Report, error)
	Destinations() []string
}

// StatusReader loads the last scheduled cycle summary.
type StatusReader interface {
	GetJSON(ctx context.Context, key string, dest any) error
}

// ExportHandler serves the export endpoints.
type ExportHandler struct {
	logger   *zap.Logger
	service  ExportService
	accounts jobs.AccountSource
	symbols  store.Reference
	status   StatusReader
}

// NewExportHandler creates an ExportHandler. status may be nil.
func NewExportHandler(
	logger *zap.Logger,
	service ExportService,
	accounts jobs.AccountSource,
	symbols store.Reference,
	status StatusReader,
) *ExportHandler {
	return &ExportHandler{
		logger:   logger,
		service:  service,
		accounts: accounts,
		symbols:  symbols,
		status:   status,
	}
}

// CreateExportHandler runs a cycle with explicit targets, or with targets derived
// from holdings when none are given.
func (h *ExportHandler) CreateExportHandler(c *fiber.Ctx) error {
	var req ExportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ctx := c.UserContext()
	acct, err := h.accounts.Snapshot(ctx, req.AccountID, req.tickers()...)
	if err != nil {
		if errors.Is(err, holdings.ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		h.logger.Error("signal_export.api.snapshot_failed",
			zap.String("account_id", req.AccountID),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var report signalexport.Report
	if len(req.Targets) == 0 {
		report, err = h.service.ExportCurrentTargets(ctx, acct, req.ExportDate())
		if errors.Is(err, signalexport.ErrNonPositiveAccountValue) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
	} else {
		targets, status, err := h.resolveTargets(ctx, req.Targets)
		if err != nil {
			return c.Status(status).JSON(fiber.Map{"error": err.Error()})
		}
		report = h.service.Export(ctx, targets, acct, req.ExportDate())
	}

	h.logger.Info("signal_export.api.export",
		zap.String("account_id", req.AccountID),
		zap.String("cycle_id", report.CycleID.String()),
		zap.Bool("ok", report.OK()))

	code := fiber.StatusOK
	if !report.OK() {
		code = fiber.StatusMultiStatus
	}
	return c.Status(code).JSON(toExportResponse(report))
}

func (h *ExportHandler) resolveTargets(ctx context.Context, reqs []TargetRequest) ([]model.PortfolioTarget, int, error) {
	targets := make([]model.PortfolioTarget, 0, len(reqs))
	for _, t := range reqs {
		sym, ok, err := h.symbols.GetSymbol(ctx, t.Symbol)
		if err != nil {
			return nil, fiber.StatusInternalServerError, err
		}
		if !ok {
			return nil, fiber.StatusUnprocessableEntity, errors.New("unknown symbol " + t.Symbol)
		}
		targets = append(targets, model.NewPercentTarget(sym, t.Weight))
	}
	return targets, fiber.StatusOK, nil
}

// DestinationsHandler lists the registered destinations.
func (h *ExportHandler) DestinationsHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"destinations": h.service.Destinations()})
}

// LastExportHandler returns the last scheduled cycle for :accountId.
func (h *ExportHandler) LastExportHandler(c *fiber.Ctx) error {
	if h.status == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "export status is not recorded"})
	}
	accountID := c.Params("accountId")

	var st jobs.CycleStatus
	err := h.status.GetJSON(c.UserContext(), jobs.StatusKey(accountID), &st)
	if errors.Is(err, redis.Nil) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no export recorded for " + accountID})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(st)
}
