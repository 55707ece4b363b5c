// Package fetcher wraps a single-attempt page source with bounded retries.
package fetcher

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/product-catalog-extractor/internal/catalog"
	"github.com/JakeFAU/product-catalog-extractor/internal/metrics"
)

const (
	// DefaultMaxRetries is the number of retries after the initial attempt.
	DefaultMaxRetries = 3
	// DefaultRetryDelay separates attempts.
	DefaultRetryDelay = 5 * time.Second
	// DefaultDelay is the politeness pause between sub-page fetches.
	DefaultDelay = 2 * time.Second
)

// RetryPolicy decides whether and when to try again.
type RetryPolicy interface {
	ShouldRetry(err error, attempt int) bool
	Backoff(attempt int) time.Duration
}

// FixedRetryPolicy retries every transport error, timeouts included, waiting
// the same delay each time. A robots.txt refusal is final.
type FixedRetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// NewFixedRetryPolicy builds a policy; negative values fall back to defaults.
func NewFixedRetryPolicy(maxRetries int, delay time.Duration) FixedRetryPolicy {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	if delay < 0 {
		delay = DefaultRetryDelay
	}
	return FixedRetryPolicy{MaxRetries: maxRetries, Delay: delay}
}

// ShouldRetry reports whether attempt (1-based) may be followed by another.
func (p FixedRetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil || errors.Is(err, catalog.ErrDisallowed) {
		return false
	}
	return attempt <= p.MaxRetries
}

// Backoff returns the wait before the next attempt.
func (p FixedRetryPolicy) Backoff(int) time.Duration {
	return p.Delay
}

// Retrying is a catalog.Fetcher that retries its source.
type Retrying struct {
	source  catalog.Fetcher
	policy  RetryPolicy
	sleeper catalog.Sleeper
	logger  *zap.Logger
}

// NewRetrying wraps source with policy.
func NewRetrying(source catalog.Fetcher, policy RetryPolicy, sleeper catalog.Sleeper, logger *zap.Logger) *Retrying {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrying{
		source:  source,
		policy:  policy,
		sleeper: sleeper,
		logger:  logger.Named("fetcher"),
	}
}

// Fetch tries source until it succeeds or the policy gives up. The returned
// error is always a *catalog.FetchError.
func (r *Retrying) Fetch(ctx context.Context, url string) (catalog.Document, error) {
	attempt := 0
	for {
		attempt++
		doc, err := r.source.Fetch(ctx, url)
		if err == nil {
			doc.Attempts = attempt
			metrics.ObserveFetch(url, "success", len(doc.Body))
			return doc, nil
		}
		metrics.ObserveFetch(url, "error", 0)
		// Only the caller's context ends retries early. A request timeout
		// also wraps context.DeadlineExceeded but is retryable.
		if ctxErr := ctx.Err(); ctxErr != nil {
			r.logger.Warn("fetch abandoned", zap.String("url", url), zap.Int("attempts", attempt), zap.Error(err))
			return catalog.Document{}, &catalog.FetchError{URL: url, Attempts: attempt, Err: errors.Join(ctxErr, err)}
		}
		if !r.policy.ShouldRetry(err, attempt) {
			r.logger.Warn("fetch failed", zap.String("url", url), zap.Int("attempts", attempt), zap.Error(err))
			return catalog.Document{}, &catalog.FetchError{URL: url, Attempts: attempt, Err: err}
		}
		delay := r.policy.Backoff(attempt)
		r.logger.Info("fetch attempt failed, retrying",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if sleepErr := r.sleeper.Sleep(ctx, delay); sleepErr != nil {
			return catalog.Document{}, &catalog.FetchError{URL: url, Attempts: attempt, Err: errors.Join(sleepErr, err)}
		}
	}
}
