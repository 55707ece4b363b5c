// Package app builds the long-lived services of the extractor and owns their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/product-catalog-extractor/internal/aggregator"
	"github.com/JakeFAU/product-catalog-extractor/internal/api"
	"github.com/JakeFAU/product-catalog-extractor/internal/catalog"
	"github.com/JakeFAU/product-catalog-extractor/internal/clock/system"
	"github.com/JakeFAU/product-catalog-extractor/internal/config"
	"github.com/JakeFAU/product-catalog-extractor/internal/export"
	"github.com/JakeFAU/product-catalog-extractor/internal/extract"
	"github.com/JakeFAU/product-catalog-extractor/internal/fetcher"
	collyfetcher "github.com/JakeFAU/product-catalog-extractor/internal/fetcher/colly"
	"github.com/JakeFAU/product-catalog-extractor/internal/hash/sha256"
	"github.com/JakeFAU/product-catalog-extractor/internal/id/uuid"
	"github.com/JakeFAU/product-catalog-extractor/internal/pipeline"
	"github.com/JakeFAU/product-catalog-extractor/internal/proxy"
	"github.com/JakeFAU/product-catalog-extractor/internal/ratelimit"
	gcppublisher "github.com/JakeFAU/product-catalog-extractor/internal/publisher/pubsub"
	gcsstorage "github.com/JakeFAU/product-catalog-extractor/internal/storage/gcs"
	localstorage "github.com/JakeFAU/product-catalog-extractor/internal/storage/local"
	memorystorage "github.com/JakeFAU/product-catalog-extractor/internal/storage/memory"
	pgstore "github.com/JakeFAU/product-catalog-extractor/internal/storage/postgres"
	"github.com/JakeFAU/product-catalog-extractor/internal/telemetry"
)

// App holds the shared services for one process.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	blobs     catalog.BlobStore
	products  *pgstore.ProductStore
	publisher *gcppublisher.Publisher
	pipeline  *pipeline.Pipeline
	proxy     *proxy.Handler
	apiServer *api.Server

	pubsubClient  *pubsub.Client
	storageClient *storage.Client

	source         catalog.Fetcher
	tracerShutdown func(context.Context) error
}

// Option overrides a dependency during Build.
type Option func(*App)

// WithFetcher replaces the Colly page source (before retries are applied).
func WithFetcher(f catalog.Fetcher) Option {
	return func(a *App) {
		a.source = f
	}
}

// WithBlobStore replaces the configured export backend.
func WithBlobStore(b catalog.BlobStore) Option {
	return func(a *App) {
		a.blobs = b
	}
}

// Build creates the application's dependencies from cfg.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &App{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(app)
	}

	app.logger.Info("building application dependencies",
		zap.String("base_url", cfg.Scraper.BaseURL),
		zap.String("storage_backend", cfg.Storage.Backend),
	)

	tp, err := telemetry.InitTracerProvider(ctx, telemetry.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("tracer init failed: %w", err)
	}
	app.tracerShutdown = tp.Shutdown

	if err := app.setupStorage(ctx); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.setupDatabase(ctx); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.setupPublisher(ctx); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.setupProxy(); err != nil {
		app.Close()
		return nil, err
	}
	app.setupPipeline()

	app.apiServer = api.NewServer(app.pipeline, app.proxyOrNil(), api.Config{
		RequestTimeout: cfg.RequestTimeout(),
		AuthEnabled:    cfg.Auth.Enabled,
		APIKey:         cfg.Auth.APIKey,
	}, logger)
	return app, nil
}

func (a *App) setupStorage(ctx context.Context) error {
	if a.blobs != nil {
		return nil
	}
	switch a.cfg.Storage.Backend {
	case config.BackendGCS:
		a.logger.Info("using GCS storage backend", zap.String("bucket", a.cfg.Storage.GCSBucket))
		client, err := storage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("gcs client init failed: %w", err)
		}
		a.storageClient = client
		store, err := gcsstorage.New(client, gcsstorage.Config{
			Bucket:       a.cfg.Storage.GCSBucket,
			Prefix:       a.cfg.Storage.Prefix,
			CacheControl: a.cfg.Storage.CacheControl,
		})
		if err != nil {
			return fmt.Errorf("gcs blob store init failed: %w", err)
		}
		a.blobs = store
	case config.BackendLocal:
		a.logger.Info("using local storage backend", zap.String("path", a.cfg.Storage.BaseDir))
		store, err := localstorage.New(localstorage.Config{BaseDir: a.cfg.Storage.BaseDir})
		if err != nil {
			return fmt.Errorf("local blob store init failed: %w", err)
		}
		a.blobs = store
	case config.BackendMemory:
		a.logger.Info("using in-memory storage backend")
		a.blobs = memorystorage.NewBlobStore()
	default:
		return fmt.Errorf("unknown storage backend: %s", a.cfg.Storage.Backend)
	}
	return nil
}

func (a *App) setupDatabase(ctx context.Context) error {
	if a.cfg.DB.DSN == "" {
		a.logger.Warn("no DSN specified for database, products will not be persisted")
		return nil
	}
	store, err := pgstore.NewProductStore(ctx, pgstore.ProductStoreConfig{
		DSN:      a.cfg.DB.DSN,
		Table:    a.cfg.DB.Table,
		MaxConns: a.cfg.DB.MaxConns,
		MinConns: a.cfg.DB.MinConns,
	})
	if err != nil {
		return fmt.Errorf("product store init failed: %w", err)
	}
	a.products = store
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("product store schema: %w", err)
	}
	a.logger.Info("product store initialized", zap.String("table", a.cfg.DB.Table))
	return nil
}

func (a *App) setupPublisher(ctx context.Context) error {
	if a.cfg.PubSub.TopicName == "" || a.cfg.PubSub.ProjectID == "" {
		a.logger.Warn("no Pub/Sub topic configured, run notifications disabled")
		return nil
	}
	client, err := pubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
	if err != nil {
		return fmt.Errorf("pubsub client init failed: %w", err)
	}
	a.pubsubClient = client
	a.publisher = gcppublisher.New(client, a.cfg.PubSub.TopicName)
	a.logger.Info("Pub/Sub publisher initialized",
		zap.String("project", a.cfg.PubSub.ProjectID),
		zap.String("topic", a.cfg.PubSub.TopicName),
	)
	return nil
}

func (a *App) setupProxy() error {
	if !a.cfg.Proxy.Enabled {
		return nil
	}
	h, err := proxy.New(proxy.Config{
		Upstream: a.cfg.Proxy.Upstream,
		Prefix:   a.cfg.Proxy.Prefix,
		Timeout:  time.Duration(a.cfg.Proxy.TimeoutSeconds) * time.Second,
	}, nil, a.logger, proxy.WithLimiter(ratelimit.New(ratelimit.Config{
		DefaultRPS:   a.cfg.Proxy.RatePerSecond,
		DefaultBurst: a.cfg.Proxy.Burst,
	})))
	if err != nil {
		return fmt.Errorf("proxy init failed: %w", err)
	}
	a.proxy = h
	a.logger.Info("proxy enabled", zap.String("upstream", a.cfg.Proxy.Upstream), zap.String("prefix", h.Prefix()))
	return nil
}

func (a *App) setupPipeline() {
	clock := system.New()
	ids := uuid.New()

	source := a.source
	if source == nil {
		source = collyfetcher.New(collyfetcher.Config{
			UserAgent:     a.cfg.Scraper.UserAgent,
			Timeout:       a.cfg.FetchTimeout(),
			RespectRobots: a.cfg.Scraper.RespectRobots,
		})
	}
	retrying := fetcher.NewRetrying(
		source,
		fetcher.NewFixedRetryPolicy(a.cfg.Scraper.MaxRetries, a.cfg.RetryDelay()),
		clock,
		a.logger,
	)
	extractor := extract.New(extract.Config{
		MinContainerMatches: a.cfg.Scraper.MinContainerMatches,
		MaxCandidates:       a.cfg.Scraper.MaxCandidates,
	}, clock, a.logger)
	agg := aggregator.New(retrying, extractor, ids, clock, clock, aggregator.Config{
		BaseURL:         a.cfg.Scraper.BaseURL,
		MinProducts:     a.cfg.Scraper.MinProducts,
		MaxSubPages:     a.cfg.Scraper.MaxSubPages,
		SubPageDelay:    a.cfg.SubPageDelay(),
		FallbackEnabled: a.cfg.Scraper.FallbackEnabled,
	}, a.logger)

	var products catalog.ProductStore
	if a.products != nil {
		products = a.products
	}
	var publisher catalog.Publisher
	if a.publisher != nil {
		publisher = a.publisher
	}
	a.pipeline = pipeline.New(
		agg,
		export.NewSink(a.blobs, sha256.New(), a.logger),
		products,
		publisher,
		ids,
		clock,
		pipeline.Config{Topic: a.cfg.PubSub.TopicName},
		a.logger,
	)
}

func (a *App) proxyOrNil() api.Proxy {
	if a.proxy == nil {
		return nil
	}
	return a.proxy
}

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Pipeline returns the run pipeline.
func (a *App) Pipeline() *pipeline.Pipeline {
	return a.pipeline
}

// Execute runs one extraction through the pipeline.
func (a *App) Execute(ctx context.Context, baseURL string) (pipeline.Report, error) {
	report, err := a.pipeline.Execute(ctx, baseURL)
	if err != nil {
		return report, fmt.Errorf("execute run: %w", err)
	}
	return report, nil
}

// BlobStore returns the configured export backend.
func (a *App) BlobStore() catalog.BlobStore {
	return a.blobs
}

// Handler returns the HTTP API handler.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Serve runs the HTTP server until ctx is canceled, then shuts it down.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// Close releases clients and pools. It is safe to call on a partially built App.
func (a *App) Close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	if a.storageClient != nil {
		if err := a.storageClient.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if a.products != nil {
		a.products.Close()
	}
	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
	a.logger.Info("shutdown complete")
}
