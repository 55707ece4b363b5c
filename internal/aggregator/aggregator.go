// Package aggregator drives one extraction run: it fetches the base page,
// extracts and deduplicates products, sweeps a few category sub-pages when the
// result is sparse, and substitutes the fallback catalog when live extraction
// cannot produce enough records.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/product-catalog-extractor/internal/catalog"
	"github.com/JakeFAU/product-catalog-extractor/internal/detector"
	"github.com/JakeFAU/product-catalog-extractor/internal/extract"
	"github.com/JakeFAU/product-catalog-extractor/internal/metrics"
)

// Fallback reasons recorded on a Result.
const (
	ReasonBaseFetchFailed      = "base_fetch_failed"
	ReasonInsufficientProducts = "insufficient_products"
)

// PageExtractor turns a fetched page into candidate products.
type PageExtractor interface {
	ExtractPage(body []byte, pageURL string) (extract.PageResult, error)
}

// Config tunes a run.
type Config struct {
	BaseURL         string
	MinProducts     int
	MaxSubPages     int
	SubPageDelay    time.Duration
	SubPageKeywords []string
	FallbackEnabled bool
}

// DefaultConfig returns the stock run settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:         "https://othoba.com/electronics-appliances",
		MinProducts:     10,
		MaxSubPages:     3,
		SubPageDelay:    2 * time.Second,
		SubPageKeywords: DefaultSubPageKeywords,
		FallbackEnabled: true,
	}
}

// Result is the outcome of one run.
type Result struct {
	BaseURL        string            `json:"baseUrl"`
	Products       []catalog.Product `json:"products"`
	Stats          catalog.Stats     `json:"stats"`
	State          State             `json:"state"`
	UsedFallback   bool              `json:"usedFallback"`
	FallbackReason string            `json:"fallbackReason,omitempty"`
	StartedAt      time.Time         `json:"startedAt"`
	FinishedAt     time.Time         `json:"finishedAt"`
	PagesFetched   int               `json:"pagesFetched"`
	Transitions    []Transition      `json:"transitions"`
}

// Aggregator runs extractions. It holds no per-run state, so one value may
// serve several runs.
type Aggregator struct {
	fetcher   catalog.Fetcher
	extractor PageExtractor
	ids       catalog.IDGenerator
	clock     catalog.Clock
	sleeper   catalog.Sleeper
	detector  *detector.Heuristic
	cfg       Config
	logger    *zap.Logger
}

// New constructs an Aggregator.
func New(
	fetcher catalog.Fetcher,
	extractor PageExtractor,
	ids catalog.IDGenerator,
	clock catalog.Clock,
	sleeper catalog.Sleeper,
	cfg Config,
	logger *zap.Logger,
) *Aggregator {
	if cfg.MinProducts <= 0 {
		cfg.MinProducts = DefaultConfig().MinProducts
	}
	if cfg.MaxSubPages < 0 {
		cfg.MaxSubPages = 0
	}
	if cfg.SubPageKeywords == nil {
		cfg.SubPageKeywords = DefaultSubPageKeywords
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		fetcher:   fetcher,
		extractor: extractor,
		ids:       ids,
		clock:     clock,
		sleeper:   sleeper,
		detector:  detector.NewHeuristic(0),
		cfg:       cfg,
		logger:    logger.Named("aggregator"),
	}
}

// Run extracts the configured base URL.
func (a *Aggregator) Run(ctx context.Context) (Result, error) {
	return a.RunURL(ctx, a.cfg.BaseURL)
}

// RunURL extracts baseURL, or the configured base URL when baseURL is empty.
// With fallback enabled it always returns a DONE result; otherwise a terminal
// base fetch failure yields a FAILED result and the chained *catalog.FetchError.
func (a *Aggregator) RunURL(ctx context.Context, baseURL string) (Result, error) {
	if baseURL == "" {
		baseURL = a.cfg.BaseURL
	}
	r := newRun(baseURL, a.clock)
	logger := a.logger.With(zap.String("base_url", baseURL))

	r.to(StateFetchingBase)
	doc, err := a.fetcher.Fetch(ctx, baseURL)
	if err != nil {
		if !a.cfg.FallbackEnabled {
			logger.Error("base page fetch failed", zap.Error(err))
			r.to(StateFailed)
			res := a.finish(r)
			return res, fmt.Errorf("fetch base page: %w", err)
		}
		logger.Warn("base page fetch failed, using fallback catalog", zap.Error(err))
		return a.fallback(r, ReasonBaseFetchFailed), nil
	}
	r.pages++

	r.to(StateExtracting)
	a.harvest(r, doc, logger)

	if r.set.Len() < a.cfg.MinProducts {
		r.to(StateSweepingSubPages)
		a.sweep(ctx, r, doc, logger)
	}

	if r.set.Len() < a.cfg.MinProducts && a.cfg.FallbackEnabled {
		logger.Warn("too few products extracted, using fallback catalog",
			zap.Int("extracted", r.set.Len()),
			zap.Int("min_products", a.cfg.MinProducts),
		)
		return a.fallback(r, ReasonInsufficientProducts), nil
	}

	r.products = r.set.Products()
	r.to(StateDone)
	metrics.ObserveAccepted(baseURL, len(r.products))
	logger.Info("run complete",
		zap.Int("products", len(r.products)),
		zap.Int("pages_fetched", r.pages),
	)
	return a.finish(r), nil
}

func (a *Aggregator) harvest(r *run, doc catalog.Document, logger *zap.Logger) {
	page, err := a.extractor.ExtractPage(doc.Body, doc.URL)
	if err != nil {
		if errors.Is(err, catalog.ErrNoProducts) {
			scripted := a.detector.ScriptRendered(doc)
			if scripted {
				metrics.ObserveScriptRendered(doc.URL)
			}
			logger.Info("no products on page",
				zap.String("url", doc.URL),
				zap.Bool("script_rendered", scripted),
			)
		} else {
			logger.Warn("page extraction failed", zap.String("url", doc.URL), zap.Error(err))
		}
		return
	}

	added, duplicates := 0, 0
	for _, candidate := range page.Candidates {
		p, err := catalog.Finalize(catalog.Normalize(candidate), a.ids)
		if err != nil {
			logger.Warn("finalize product", zap.String("name", candidate.Name), zap.Error(err))
			continue
		}
		if len(p.Images) == 0 {
			metrics.ObserveRejected("no_images")
			continue
		}
		if !r.set.Add(p) {
			duplicates++
			continue
		}
		added++
	}
	logger.Info("page extracted",
		zap.String("url", doc.URL),
		zap.String("selector", page.Selector),
		zap.Int("candidates", len(page.Candidates)),
		zap.Int("rejected", page.Rejected),
		zap.Int("added", added),
		zap.Int("duplicates", duplicates),
		zap.Int("total", r.set.Len()),
	)
}

func (a *Aggregator) sweep(ctx context.Context, r *run, base catalog.Document, logger *zap.Logger) {
	links, err := DiscoverSubPages(base.Body, base.URL, a.cfg.SubPageKeywords, a.cfg.MaxSubPages)
	if err != nil {
		logger.Warn("sub-page discovery failed", zap.Error(err))
		return
	}
	logger.Info("sweeping sub-pages", zap.Strings("links", links))

	for i, link := range links {
		if i > 0 {
			if err := a.sleeper.Sleep(ctx, a.cfg.SubPageDelay); err != nil {
				logger.Warn("sub-page sweep interrupted", zap.Error(err))
				return
			}
		}
		doc, err := a.fetcher.Fetch(ctx, link)
		if err != nil {
			logger.Warn("sub-page fetch failed", zap.String("url", link), zap.Error(err))
			continue
		}
		r.pages++
		a.harvest(r, doc, logger)
		if r.set.Len() >= a.cfg.MinProducts {
			return
		}
	}
}

func (a *Aggregator) fallback(r *run, reason string) Result {
	r.to(StateFallback)
	r.products = catalog.Fallback(r.baseURL, a.clock.Now())
	r.usedFallback = true
	r.fallbackReason = reason
	metrics.ObserveFallback(reason)
	a.logger.Info("fallback catalog substituted",
		zap.String("base_url", r.baseURL),
		zap.String("reason", reason),
		zap.Int("discarded", r.set.Len()),
		zap.Int("products", len(r.products)),
	)
	r.to(StateDone)
	return a.finish(r)
}

func (a *Aggregator) finish(r *run) Result {
	finished := a.clock.Now()
	metrics.ObserveRun(string(r.state), finished.Sub(r.startedAt))
	return Result{
		BaseURL:        r.baseURL,
		Products:       r.products,
		Stats:          catalog.ComputeStats(r.products),
		State:          r.state,
		UsedFallback:   r.usedFallback,
		FallbackReason: r.fallbackReason,
		StartedAt:      r.startedAt,
		FinishedAt:     finished,
		PagesFetched:   r.pages,
		Transitions:    r.transitions,
	}
}
