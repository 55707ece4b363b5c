// Package extract turns listing-page HTML into candidate product records.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/product-catalog-extractor/internal/catalog"
	"github.com/JakeFAU/product-catalog-extractor/internal/metrics"
	"github.com/JakeFAU/product-catalog-extractor/internal/selector"
)

// Config tunes page extraction.
type Config struct {
	ContainerSelectors  []selector.Selector
	MinContainerMatches int
	MaxCandidates       int
}

// DefaultConfig returns the stock container cascade.
func DefaultConfig() Config {
	return Config{
		ContainerSelectors:  ContainerSelectors,
		MinContainerMatches: 4,
		MaxCandidates:       50,
	}
}

// PageResult holds the candidates found on one page.
type PageResult struct {
	URL        string
	Selector   string
	Heuristic  bool
	Containers int
	Candidates []catalog.Product
	Rejected   int
}

// Extractor reads product cards out of listing pages.
type Extractor struct {
	cfg     Config
	clock   catalog.Clock
	element func(*goquery.Selection, *url.URL) (catalog.Product, error)
	logger  *zap.Logger
}

// New constructs an Extractor.
func New(cfg Config, clock catalog.Clock, logger *zap.Logger) *Extractor {
	defaults := DefaultConfig()
	if len(cfg.ContainerSelectors) == 0 {
		cfg.ContainerSelectors = defaults.ContainerSelectors
	}
	if cfg.MinContainerMatches <= 0 {
		cfg.MinContainerMatches = defaults.MinContainerMatches
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = defaults.MaxCandidates
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{cfg: cfg, clock: clock, element: Element, logger: logger.Named("extract")}
}

// ExtractPage parses body and returns the candidates found on it. A page
// without any resolvable container yields catalog.ErrNoProducts. Failures on
// individual candidates are logged and counted, never returned.
func (e *Extractor) ExtractPage(body []byte, pageURL string) (PageResult, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return PageResult{}, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return PageResult{}, fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	res := selector.ResolveOrScan(doc.Selection, e.cfg.ContainerSelectors, e.cfg.MinContainerMatches)
	out := PageResult{URL: pageURL}
	if !res.OK() {
		e.logger.Info("no product containers found", zap.String("url", pageURL))
		return out, catalog.ErrNoProducts
	}
	out.Selector = res.Label()
	out.Heuristic = res.Outcome == selector.Scanned
	out.Containers = res.Len()
	e.logger.Debug("resolved product containers",
		zap.String("url", pageURL),
		zap.String("selector", out.Selector),
		zap.Int("count", out.Containers),
	)

	now := e.clock.Now()
	res.Elements.EachWithBreak(func(i int, el *goquery.Selection) bool {
		if i >= e.cfg.MaxCandidates {
			return false
		}
		p, err := e.candidate(i, el, base)
		if err != nil {
			out.Rejected++
			metrics.ObserveRejected(rejectReason(err))
			e.logger.Debug("candidate rejected", zap.String("url", pageURL), zap.Error(err))
			return true
		}
		p.SourceURL = pageURL
		p.ScrapedAt = now
		p.LiveScraped = true
		out.Candidates = append(out.Candidates, p)
		return true
	})
	return out, nil
}

func (e *Extractor) candidate(i int, el *goquery.Selection, base *url.URL) (p catalog.Product, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &catalog.ExtractionError{Index: i, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	p, err = e.element(el, base)
	if err != nil {
		return catalog.Product{}, &catalog.ExtractionError{Index: i, Err: err}
	}
	return p, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, catalog.ErrNoName):
		return "no_name"
	case errors.Is(err, catalog.ErrNoImages):
		return "no_images"
	default:
		return "error"
	}
}
