package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/Checker-Finance/signal-exports/internal/api"
	"github.com/Checker-Finance/signal-exports/internal/config"
	"github.com/Checker-Finance/signal-exports/internal/events"
	"github.com/Checker-Finance/signal-exports/internal/holdings"
	"github.com/Checker-Finance/signal-exports/internal/jobs"
	"github.com/Checker-Finance/signal-exports/internal/quantity"
	"github.com/Checker-Finance/signal-exports/internal/rate"
	internalsecrets "github.com/Checker-Finance/signal-exports/internal/secrets"
	"github.com/Checker-Finance/signal-exports/internal/signalexport"
	"github.com/Checker-Finance/signal-exports/internal/store"
	"github.com/Checker-Finance/signal-exports/pkg/logger"
	"github.com/Checker-Finance/signal-exports/pkg/secrets"
	"github.com/Checker-Finance/signal-exports/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [signal-exporter]...")
	logg.Info("connection to DSN: ", utils.MaskDSN(cfg.DatabaseURL))

	destConfigs, err := config.LoadDestinations(cfg.DestinationsFile)
	if err != nil {
		logg.Fatalw("failed to load destinations", "error", err)
	}

	// --- Secrets provider ---
	var provider secrets.Provider
	switch cfg.SecretsSource {
	case "env":
		provider = secrets.NewEnvProvider(internalsecrets.Fields...)
	default:
		awsProvider, err := secrets.NewAWSProvider(ctx, cfg.AWSRegion)
		if err != nil {
			logg.Fatalw("failed to create AWS Secrets Manager provider", "error", err)
		}
		provider = awsProvider
		if found, err := internalsecrets.DiscoverDestinations(ctx, logger.L(), provider, cfg.Env); err != nil {
			logg.Warnw("failed to discover destinations from AWS Secrets Manager", "error", err)
		} else {
			logg.Infow("destination secrets found", "destinations", found)
		}
	}

	// --- Event publishers ---
	var nc *nats.Conn
	var publishers events.Multi
	if cfg.UsesNATS() {
		nc, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			logg.Fatalw("failed to connect to NATS", "error", err)
		}
		pub, err := events.NewNATS(nc, cfg.ServiceName, logger.For("events"))
		if err != nil {
			logg.Fatalw("failed to init NATS publisher", "error", err)
		}
		publishers = append(publishers, pub)
	}
	if cfg.UsesRabbitMQ() {
		pub, err := events.NewRabbitMQ(cfg.RabbitMQURL, cfg.RabbitMQExchange, logger.For("events"))
		if err != nil {
			logg.Fatalw("failed to init RabbitMQ publisher", "error", err)
		}
		publishers = append(publishers, pub)
	}

	var managerOpts []signalexport.ManagerOption
	if len(publishers) > 0 {
		managerOpts = append(managerOpts, signalexport.WithPublisher(publishers))
	}
	manager := signalexport.NewManager(logger.For("signal_export"), managerOpts...)

	// --- Destinations ---
	stopCleaners := make(chan struct{})
	factory := &destinationFactory{
		cfg:       cfg,
		provider:  provider,
		rateMgr:   rate.NewManager(rate.Config{RequestsPerSecond: 1, Burst: 1}),
		converter: quantity.NewConverter(quantity.WithMarginBuffer(cfg.MarginBuffer)),
		stop:      stopCleaners,
	}
	for _, dc := range destConfigs {
		if dc.Disabled {
			logg.Infow("destination disabled", "destination", dc.Name)
			continue
		}
		dest, err := factory.build(ctx, dc)
		if err != nil {
			logg.Warnw("destination not registered", "destination", dc.Name, "error", err)
			continue
		}
		manager.Register(dest)
	}
	if len(manager.Destinations()) == 0 {
		logg.Warn("no destinations registered; exports will report nothing delivered")
	}

	// --- Symbol reference (Redis) ---
	st, err := store.New(cfg.RedisAddr, cfg.RedisDB, logger.For("store"))
	if err != nil {
		logg.Fatalw("failed to init store", "error", err)
	}

	// --- Holdings ledger (Postgres) ---
	pool, err := newPool(ctx, cfg)
	if err != nil {
		logg.Fatalw("failed to connect to postgres", "error", err)
	}
	ledger := holdings.New(pool, st, logger.For("holdings"))

	// --- Scheduler ---
	scheduler := jobs.NewExportScheduler(logger.For("jobs"), manager, ledger, st, cfg.ExportAccounts, cfg.ExportInterval)

	// --- Fiber HTTP Server ---
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BodyLimit:    cfg.HTTPBodyLimit,
	})
	handler := api.NewExportHandler(logger.For("api"), manager, ledger, st, st)
	api.RegisterRoutes(app, nc, st, handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		return app.Listen(fmt.Sprintf(":%d", cfg.Port))
	})
	if len(cfg.ExportAccounts) > 0 {
		g.Go(func() error {
			scheduler.Start(gctx)
			return nil
		})
	} else {
		logg.Info("EXPORT_ACCOUNTS empty; scheduled exports disabled")
	}
	g.Go(func() error {
		<-gctx.Done()
		logg.Info("shutting down [signal-exporter]...")
		scheduler.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	logg.Infow("[signal-exporter] running",
		"env", cfg.Env,
		"destinations", manager.Destinations(),
		"events", cfg.EventsBroker,
		"export_interval", cfg.ExportInterval)

	if err := g.Wait(); err != nil {
		logg.Warnw("signal-exporter.stopped_with_error", "error", err)
	}

	close(stopCleaners)
	if err := manager.Close(); err != nil {
		logg.Warnw("destinations.close_failed", "error", err)
	}
	if nc != nil {
		if err := nc.Drain(); err != nil {
			logg.Warnw("nats.drain_failed", "error", err)
		}
	}
	if err := publishers.Close(); err != nil {
		logg.Warnw("publishers.close_failed", "error", err)
	}
	pool.Close()
	if err := st.Close(); err != nil {
		logg.Warnw("store.close_failed", "error", err)
	}
}

func newPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pgCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid pg config: %w", err)
	}
	if cfg.PGMaxConns > 0 {
		pgCfg.MaxConns = int32(cfg.PGMaxConns)
	}
	if cfg.PGMinConns > 0 {
		pgCfg.MinConns = int32(cfg.PGMinConns)
	}
	if cfg.PGMaxConnLifetime > 0 {
		pgCfg.MaxConnLifetime = cfg.PGMaxConnLifetime
	}
	if cfg.PGMaxConnIdleTime > 0 {
		pgCfg.MaxConnIdleTime = cfg.PGMaxConnIdleTime
	}
	if cfg.PGHealthCheckPeriod > 0 {
		pgCfg.HealthCheckPeriod = cfg.PGHealthCheckPeriod
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return pgxpool.NewWithConfig(connectCtx, pgCfg)
}
