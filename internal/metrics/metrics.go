// Package metrics exposes Prometheus collectors for the catalog extractor.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchAttemptsTotal         *prometheus.CounterVec
	fetchBytesTotal            *prometheus.CounterVec
	candidatesRejectedTotal    *prometheus.CounterVec
	productsAcceptedTotal      *prometheus.CounterVec
	runsTotal                  *prometheus.CounterVec
	runDurationSeconds         prometheus.Histogram
	fallbacksTotal             *prometheus.CounterVec
	proxyRequestsTotal         *prometheus.CounterVec
	rateLimitDelaySeconds      *prometheus.HistogramVec
	scriptRenderedPagesTotal   *prometheus.CounterVec
	robotsFallbacksTotal       *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_fetch_attempts_total",
				Help: "Total number of fetch attempts, labeled by site and outcome.",
			},
			[]string{"site", "outcome"},
		)

		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_fetch_bytes_total",
				Help: "Total number of bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		candidatesRejectedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_candidates_rejected_total",
				Help: "Candidate elements dropped during extraction, labeled by reason.",
			},
			[]string{"reason"},
		)

		productsAcceptedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_products_accepted_total",
				Help: "Products accepted into a run, labeled by site.",
			},
			[]string{"site"},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_runs_total",
				Help: "Total number of runs, labeled by terminal state.",
			},
			[]string{"state"},
		)

		runDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "catalog_run_duration_seconds",
				Help:    "Histogram of run durations.",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
		)

		fallbacksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_fallbacks_total",
				Help: "Runs that substituted the fallback catalog, labeled by reason.",
			},
			[]string{"reason"},
		)

		proxyRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_proxy_requests_total",
				Help: "Proxied upstream requests, labeled by status code.",
			},
			[]string{"code"},
		)

		rateLimitDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_ratelimit_delay_seconds",
				Help:    "Time spent waiting on the per-host rate limiter.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"site"},
		)

		scriptRenderedPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_script_rendered_pages_total",
				Help: "Pages with no products that look script-rendered, labeled by site.",
			},
			[]string{"site"},
		)

		robotsFallbacksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_robots_fallbacks_total",
				Help: "robots.txt lookups that timed out and were treated as allow-all, labeled by site.",
			},
			[]string{"site"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one fetch attempt.
func ObserveFetch(site string, outcome string, bytesFetched int) {
	Init()
	sanitizedSite := SanitizeSite(site)
	fetchAttemptsTotal.WithLabelValues(sanitizedSite, outcome).Inc()
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(sanitizedSite).Add(float64(bytesFetched))
	}
}

// ObserveRejected counts a dropped candidate.
func ObserveRejected(reason string) {
	Init()
	candidatesRejectedTotal.WithLabelValues(reason).Inc()
}

// ObserveAccepted counts products accepted for a site.
func ObserveAccepted(site string, n int) {
	Init()
	if n > 0 {
		productsAcceptedTotal.WithLabelValues(SanitizeSite(site)).Add(float64(n))
	}
}

// ObserveRun records a finished run.
func ObserveRun(state string, duration time.Duration) {
	Init()
	runsTotal.WithLabelValues(state).Inc()
	runDurationSeconds.Observe(duration.Seconds())
}

// ObserveFallback counts a fallback substitution.
func ObserveFallback(reason string) {
	Init()
	fallbacksTotal.WithLabelValues(reason).Inc()
}

// ObserveProxy counts a proxied request.
func ObserveProxy(code int) {
	Init()
	proxyRequestsTotal.WithLabelValues(strconv.Itoa(code)).Inc()
}

// ObserveRateLimitDelay records how long a request waited for a token.
func ObserveRateLimitDelay(site string, delay time.Duration) {
	Init()
	rateLimitDelaySeconds.WithLabelValues(site).Observe(delay.Seconds())
}

// ObserveScriptRendered counts an empty page that appears to need script execution.
func ObserveScriptRendered(site string) {
	Init()
	scriptRenderedPagesTotal.WithLabelValues(SanitizeSite(site)).Inc()
}

// ObserveRobotsFallback counts a robots.txt lookup replaced by allow-all.
func ObserveRobotsFallback(site string) {
	Init()
	robotsFallbacksTotal.WithLabelValues(SanitizeSite(site)).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
