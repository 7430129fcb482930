package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"BlogIngest/internal/config"
	"BlogIngest/internal/domain"
	"BlogIngest/internal/infrastructure/browser"
	"BlogIngest/internal/infrastructure/codec"
	"BlogIngest/internal/infrastructure/httpapi"
	"BlogIngest/internal/infrastructure/parser"
	"BlogIngest/internal/infrastructure/scheduler"
	"BlogIngest/internal/infrastructure/storage"
	"BlogIngest/internal/logging"
	"BlogIngest/internal/ports"
	"BlogIngest/internal/recency"
	"BlogIngest/internal/scanner"
	"BlogIngest/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	ingest    *usecase.IngestService
	scheduler *usecase.Scheduler
	server    *httpapi.Server
	closers   []func() error
}

// New builds the application graph. The job store connection is opened here.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.Scheduler.CronExpression != "" {
		if err := scheduler.ValidateSpec(cfg.Scheduler.CronExpression); err != nil {
			return nil, err
		}
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	launcher := browser.NewChromeLauncher(browser.OptionsFromConfig(cfg.Crawler), baseLogger.With("component", "browser"))
	registry := scanner.NewRegistry()
	registry.Register(cfg.Ingest.LinkType, parser.NewVelogCrawler(launcher, cfg.Crawler, baseLogger.With("component", "crawler.velog")))

	a.ingest = usecase.NewIngestService(usecase.IngestDeps{
		Store:    store,
		Crawlers: registry,
		Codec:    codec.NewGzipJSON(),
		Reducer: recency.Reducer{
			WindowDays: cfg.Digest.RecentWindowDays,
			MaxTextLen: cfg.Digest.MaxTextLen,
			Location:   cfg.Digest.Location(),
		},
		LinkType: cfg.Ingest.LinkType,
		Logger:   baseLogger.With("component", "ingest"),
	})

	cronDriver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Digest.Location(), baseLogger.With("component", "cron"))
	a.scheduler = usecase.NewScheduler(cronDriver, a.ingest, cfg.Scheduler.BatchSize, baseLogger.With("component", "sweep"))

	if !strings.EqualFold(cfg.Logging.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	httpLog := baseLogger.With("component", "http")
	router := httpapi.NewRouter(httpapi.NewHandler(a.ingest, httpLog), httpLog)
	a.server = httpapi.NewServer(cfg.Server, router, httpLog)

	return a, nil
}

func (a *Application) openStore(ctx context.Context) (ports.JobStore, error) {
	if a.cfg.Database.InMemory() {
		a.logger.Warn("using in-memory job store; state is lost on exit")
		return storage.NewMemoryJobStore(), nil
	}

	db, err := storage.Open(ctx, a.cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	return storage.NewPostgresJobStore(db, a.cfg.Database.Tables), nil
}

// Serve runs the HTTP API and the pending sweep until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		a.logger.Info("shutdown requested")
	}

	stopCtx := context.WithoutCancel(ctx)
	if serveErr == nil {
		serveErr = a.server.Shutdown(stopCtx)
	}
	return errors.Join(serveErr, a.scheduler.Stop(stopCtx))
}

// Preview crawls one profile and reduces it without touching any job.
func (a *Application) Preview(ctx context.Context, url string) (domain.Preview, error) {
	return a.ingest.Preview(ctx, url)
}

// Close releases the job store connection.
func (a *Application) Close() error {
	var errs []error
	for _, closeFn := range a.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}
