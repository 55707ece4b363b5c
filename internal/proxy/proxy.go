// Package proxy forwards requests under a path prefix to a fixed upstream site
// and rewrites root-relative links in HTML responses so they stay behind the prefix.
package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/product-catalog-extractor/internal/metrics"
)

// DefaultUserAgent is sent upstream when the caller did not supply one.
const DefaultUserAgent = "Mozilla/5.0"

// DefaultMaxBodyBytes caps the upstream body the proxy will relay.
const DefaultMaxBodyBytes = 10 << 20

var rewrittenAttributes = []string{"href", "src", "action"}

// Config configures a Handler.
type Config struct {
	Upstream string
	Prefix   string
	Timeout  time.Duration
	// MaxBodyBytes defaults to DefaultMaxBodyBytes. Larger bodies fail the request.
	MaxBodyBytes int64
}

// Limiter paces upstream requests.
type Limiter interface {
	Wait(ctx context.Context, url string) error
}

// Option customizes a Handler.
type Option func(*Handler)

// WithLimiter makes every upstream request wait on l first.
func WithLimiter(l Limiter) Option {
	return func(h *Handler) {
		h.limiter = l
	}
}

// Handler is an http.Handler that passes requests through to Upstream.
type Handler struct {
	upstream *url.URL
	prefix   string
	client   *http.Client
	maxBody  int64
	limiter  Limiter
	logger   *zap.Logger
}

// New constructs a Handler. A nil client gets a default client with cfg.Timeout.
func New(cfg Config, client *http.Client, logger *zap.Logger, opts ...Option) (*Handler, error) {
	upstream, err := url.Parse(cfg.Upstream)
	if err != nil {
		return nil, fmt.Errorf("parse upstream: %w", err)
	}
	if upstream.Scheme != "http" && upstream.Scheme != "https" {
		return nil, fmt.Errorf("upstream must be an http(s) URL: %q", cfg.Upstream)
	}
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	h := &Handler{
		upstream: upstream,
		maxBody:  maxBody,
		prefix:   strings.TrimSuffix(cfg.Prefix, "/"),
		client:   client,
		logger:   logger.Named("proxy"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Prefix returns the path prefix the handler is mounted under.
func (h *Handler) Prefix() string {
	return h.prefix
}

// ServeHTTP forwards r upstream and writes the (possibly rewritten) response.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := h.target(r.URL)
	status, err := h.forward(w, r, target)
	if err != nil {
		h.logger.Warn("proxy request failed", zap.String("url", target), zap.Error(err))
		status = http.StatusInternalServerError
		http.Error(w, "Error fetching site: "+err.Error(), status)
	}
	metrics.ObserveProxy(status)
}

func (h *Handler) target(in *url.URL) string {
	path := strings.TrimPrefix(in.Path, h.prefix)
	out := *h.upstream
	out.Path = strings.TrimSuffix(h.upstream.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	if path == "" || path == "/" {
		out.Path = h.upstream.Path
	}
	out.RawQuery = in.RawQuery
	out.Fragment = ""
	return out.String()
}

func (h *Handler) forward(w http.ResponseWriter, r *http.Request, target string) (int, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(r.Context(), target); err != nil {
			return 0, err
		}
	}
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	ua := r.Header.Get("User-Agent")
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch upstream: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBody+1))
	if err != nil {
		return 0, fmt.Errorf("read upstream body: %w", err)
	}
	if int64(len(body)) > h.maxBody {
		return 0, fmt.Errorf("upstream body exceeds %d bytes", h.maxBody)
	}

	contentType := resp.Header.Get("Content-Type")
	if isHTML(contentType) {
		if rewritten, rerr := RewriteHTML(body, h.prefix); rerr == nil {
			body = rewritten
		} else {
			h.logger.Debug("html rewrite skipped", zap.String("url", target), zap.Error(rerr))
		}
	}
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(body); err != nil {
		h.logger.Debug("write proxy response", zap.Error(err))
	}
	return resp.StatusCode, nil
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html"
}

// RewriteHTML prefixes every root-relative href, src and action attribute with prefix.
// Protocol-relative ("//host") and absolute references are left alone.
func RewriteHTML(body []byte, prefix string) ([]byte, error) {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return body, nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	for _, attr := range rewrittenAttributes {
		doc.Find("[" + attr + "]").Each(func(_ int, sel *goquery.Selection) {
			val, _ := sel.Attr(attr)
			if rootRelative(val) && !strings.HasPrefix(val, prefix+"/") {
				sel.SetAttr(attr, prefix+val)
			}
		})
	}
	html, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return []byte(html), nil
}

func rootRelative(ref string) bool {
	return strings.HasPrefix(ref, "/") && !strings.HasPrefix(ref, "//")
}
