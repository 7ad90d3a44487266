package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"AlertTrack/internal/config"
	"AlertTrack/internal/domain"
	"AlertTrack/internal/infrastructure/csvstore"
	"AlertTrack/internal/infrastructure/detail"
	"AlertTrack/internal/infrastructure/firecrawl"
	"AlertTrack/internal/infrastructure/httpfetch"
	"AlertTrack/internal/infrastructure/listing"
	"AlertTrack/internal/infrastructure/llm"
	"AlertTrack/internal/infrastructure/pdf"
	"AlertTrack/internal/infrastructure/scheduler"
	"AlertTrack/internal/infrastructure/storage"
	"AlertTrack/internal/infrastructure/telegram"
	"AlertTrack/internal/logging"
	"AlertTrack/internal/policy/throttle"
	"AlertTrack/internal/ports"
	"AlertTrack/internal/progress"
	"AlertTrack/internal/progress/sinks"
	"AlertTrack/internal/resolver"
	"AlertTrack/internal/strategy"
	"AlertTrack/internal/usecase"
)

const stopTimeout = 30 * time.Second

// ErrStorageDisabled is returned by history lookups when no database is configured.
var ErrStorageDisabled = errors.New("snapshot storage is not configured")

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	registry   *strategy.Registry
	scan       *usecase.ScanService
	summarizer ports.Summarizer
	snapshots  *storage.SnapshotRepository
	progress   *progress.Fanout
}

// New builds the application graph. The snapshot database is opened here, so
// callers must Close the application.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	fetcher := httpfetch.New(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxRetries)

	var source ports.ListingSource
	switch cfg.Listing.Source {
	case config.ListingSourceFeed:
		feedURL := cfg.Listing.FeedLocation()
		source = listing.NewFeedListing(fetcher, func(string) string { return feedURL }, baseLogger.With("component", "listing.feed"))
	default:
		source = listing.NewHTMLListing(fetcher, cfg.Listing.ItemSelector, baseLogger.With("component", "listing.html"))
	}

	scraper := firecrawl.NewClient(cfg.Extraction.Endpoint, cfg.Extraction.APIKey, cfg.Extraction.Timeout, cfg.Extraction.MaxRetries)
	registry := strategy.NewRegistry(
		detail.NewMarkdownStrategy(scraper),
		detail.NewDocumentStrategy(scraper, cfg.Extraction.DocumentPrompt),
		detail.NewHTMLStrategy(fetcher),
	)
	if _, err := registry.Resolve(cfg.Extraction.Strategy); err != nil {
		return nil, fmt.Errorf("extraction.strategy: %w (available: %v)", err, registry.Names())
	}

	fanout, err := newProgress(cfg, baseLogger)
	if err != nil {
		return nil, err
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Listing:          source,
		Resolver:         resolver.New(registry, baseLogger.With("component", "resolver")),
		Documents:        pdf.NewExtractor(fetcher, baseLogger.With("component", "pdf")),
		Throttle:         throttle.New(cfg.Extraction.Delay),
		Progress:         fanout,
		Logger:           baseLogger.With("component", "pipeline"),
		ExtractDocuments: cfg.Extraction.ExtractDocumentText,
	})

	a := &Application{
		cfg:      cfg,
		logger:   baseLogger,
		registry: registry,
		progress: fanout,
	}

	deps := usecase.ScanDeps{
		Pipeline:    pipeline,
		Writer:      csvstore.NewWriter(cfg.Output.Schema),
		Logger:      baseLogger.With("component", "scan"),
		OutputPath:  cfg.Output.Path,
		DigestItems: cfg.Notifications.Telegram.MaxItems,
	}

	if chat := llm.NewChatGPTClient(cfg.ChatGPT); chat.Configured() {
		a.summarizer = chat
		deps.Summarizer = chat
	}

	if cfg.Notifications.Telegram.Enabled() {
		deps.Notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	if cfg.Storage.Enabled() {
		repo, err := storage.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
		if err != nil {
			return nil, fmt.Errorf("open snapshot storage: %w", err)
		}
		a.snapshots = repo
		deps.Snapshots = repo
	}

	a.scan = usecase.NewScanService(deps)
	return a, nil
}

func newProgress(cfg config.Config, logger *slog.Logger) (*progress.Fanout, error) {
	progressSinks := []progress.Sink{sinks.NewLogSink(logger.With("component", "progress"))}
	if cfg.Metrics.Textfile != "" {
		prom, err := sinks.NewPrometheusSink(prometheus.NewRegistry(), cfg.Metrics.Textfile)
		if err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
		progressSinks = append(progressSinks, prom)
	}
	return progress.NewFanout(logger.With("component", "progress"), progressSinks...), nil
}

// Strategies lists the registered extraction strategies.
func (a *Application) Strategies() []string {
	return a.registry.Names()
}

// Summarizer is nil unless ChatGPT credentials are configured.
func (a *Application) Summarizer() ports.Summarizer {
	return a.summarizer
}

// Scan runs one pass over the listing. An empty strategy uses the configured one.
func (a *Application) Scan(ctx context.Context, strategyName string) (usecase.Result, error) {
	if strategyName == "" {
		strategyName = a.cfg.Extraction.Strategy
	}
	if _, err := a.registry.Resolve(strategyName); err != nil {
		return usecase.Result{}, err
	}
	return a.scan.Scan(ctx, a.cfg.Listing.URL, strategyName)
}

// Watch rescans on the configured interval until ctx is cancelled.
func (a *Application) Watch(ctx context.Context) error {
	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval, a.cfg.Scheduler.Location())
	watcher := usecase.NewScheduler(driver, a.scan, a.cfg.Listing.URL, a.cfg.Extraction.Strategy, a.logger.With("component", "scheduler"))

	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("watching for alerts", "interval", a.cfg.Scheduler.Interval, "timezone", a.cfg.Scheduler.Location().String())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return watcher.Stop(stopCtx)
}

// Runs returns the most recent snapshots, newest first.
func (a *Application) Runs(ctx context.Context, limit uint64) ([]domain.RunInfo, error) {
	if a.snapshots == nil {
		return nil, ErrStorageDisabled
	}
	return a.snapshots.ListRuns(ctx, limit)
}

// LoadRun reads a stored snapshot; an empty id means the latest run.
func (a *Application) LoadRun(ctx context.Context, runID string) (domain.RunInfo, domain.EnrichedDataset, error) {
	if a.snapshots == nil {
		return domain.RunInfo{}, nil, ErrStorageDisabled
	}
	if runID == "" {
		return a.snapshots.LoadLatest(ctx)
	}
	run, err := a.snapshots.GetRun(ctx, runID)
	if err != nil {
		return domain.RunInfo{}, nil, err
	}
	dataset, err := a.snapshots.LoadRun(ctx, runID)
	if err != nil {
		return domain.RunInfo{}, nil, err
	}
	return run, dataset, nil
}

// Close flushes progress sinks and releases the database.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if err := a.progress.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.snapshots != nil {
		if err := a.snapshots.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
