package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seenRequest struct {
	path      string
	query     string
	userAgent string
}

func newUpstream(t *testing.T, contentType string, status int, body string) (*httptest.Server, <-chan seenRequest) {
	t.Helper()
	seen := make(chan seenRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- seenRequest{path: r.URL.Path, query: r.URL.RawQuery, userAgent: r.Header.Get("User-Agent")}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestHandlerForwardsPathQueryAndDefaultUserAgent(t *testing.T) {
	t.Parallel()

	upstream, seen := newUpstream(t, "application/json", http.StatusOK, `{"ok":true}`)
	h, err := New(Config{Upstream: upstream.URL + "/site", Prefix: "/proxy"}, upstream.Client(), nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proxy/products?page=2", nil))

	got := <-seen
	assert.Equal(t, "/site/products", got.path)
	assert.Equal(t, "page=2", got.query)
	assert.Equal(t, DefaultUserAgent, got.userAgent)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestHandlerCopiesUserAgentAndRootPath(t *testing.T) {
	t.Parallel()

	upstream, seen := newUpstream(t, "text/plain", http.StatusOK, "home")
	h, err := New(Config{Upstream: upstream.URL + "/site", Prefix: "/proxy/"}, upstream.Client(), nil)
	require.NoError(t, err)
	assert.Equal(t, "/proxy", h.Prefix())

	req := httptest.NewRequest(http.MethodGet, "/proxy", nil)
	req.Header.Set("User-Agent", "catalog-test/1.0")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	got := <-seen
	assert.Equal(t, "/site", got.path)
	assert.Equal(t, "catalog-test/1.0", got.userAgent)
	assert.Equal(t, "home", rec.Body.String())
}

func TestHandlerRewritesHTML(t *testing.T) {
	t.Parallel()

	page := `<html><body>
<a href="/about">About</a>
<a href="https://othoba.com/x">Abs</a>
<img src="//cdn.othoba.com/a.png">
<img src="/img/b.png">
<form action="/search"></form>
<a href="/proxy/already">Already</a>
</body></html>`
	upstream, _ := newUpstream(t, "text/html; charset=utf-8", http.StatusOK, page)
	h, err := New(Config{Upstream: upstream.URL, Prefix: "/proxy"}, upstream.Client(), nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proxy/", nil))

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, `href="/proxy/about"`)
	assert.Contains(t, body, `href="https://othoba.com/x"`)
	assert.Contains(t, body, `src="//cdn.othoba.com/a.png"`)
	assert.Contains(t, body, `src="/proxy/img/b.png"`)
	assert.Contains(t, body, `action="/proxy/search"`)
	assert.Contains(t, body, `href="/proxy/already"`)
}

func TestHandlerMirrorsUpstreamStatus(t *testing.T) {
	t.Parallel()

	upstream, _ := newUpstream(t, "text/plain", http.StatusNotFound, "missing")
	h, err := New(Config{Upstream: upstream.URL, Prefix: "/proxy"}, upstream.Client(), nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proxy/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "missing", rec.Body.String())
}

func TestHandlerUpstreamFailure(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.NotFoundHandler())
	target := upstream.URL
	upstream.Close()

	h, err := New(Config{Upstream: target, Prefix: "/proxy"}, nil, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proxy/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Error fetching site: "), rec.Body.String())
}

type stubLimiter struct {
	urls []string
	err  error
}

func (l *stubLimiter) Wait(_ context.Context, url string) error {
	l.urls = append(l.urls, url)
	return l.err
}

func TestHandlerWaitsOnLimiter(t *testing.T) {
	t.Parallel()

	upstream, _ := newUpstream(t, "text/plain", http.StatusOK, "ok")
	limiter := &stubLimiter{}
	h, err := New(Config{Upstream: upstream.URL, Prefix: "/proxy"}, upstream.Client(), nil, WithLimiter(limiter))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proxy/a?b=c", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{upstream.URL + "/a?b=c"}, limiter.urls)
}

func TestHandlerLimiterRejects(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("upstream must not be called")
	}))
	t.Cleanup(upstream.Close)
	h, err := New(Config{Upstream: upstream.URL, Prefix: "/proxy"}, upstream.Client(), nil,
		WithLimiter(&stubLimiter{err: errors.New("rate limit wait: context canceled")}))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proxy/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate limit wait")
}

func TestHandlerRejectsOversizedBody(t *testing.T) {
	t.Parallel()

	upstream, _ := newUpstream(t, "text/html", http.StatusOK, strings.Repeat("x", 32))
	h, err := New(Config{Upstream: upstream.URL, Prefix: "/proxy", MaxBodyBytes: 16}, upstream.Client(), nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proxy/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error fetching site: upstream body exceeds 16 bytes")
}

func TestHandlerRelaysBodyAtLimit(t *testing.T) {
	t.Parallel()

	upstream, _ := newUpstream(t, "text/plain", http.StatusOK, strings.Repeat("y", 16))
	h, err := New(Config{Upstream: upstream.URL, Prefix: "/proxy", MaxBodyBytes: 16}, upstream.Client(), nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proxy/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, strings.Repeat("y", 16), rec.Body.String())
}

func TestNewRejectsBadUpstream(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Upstream: "ftp://othoba.com"}, nil, nil)
	assert.Error(t, err)
	_, err = New(Config{Upstream: "://bad"}, nil, nil)
	assert.Error(t, err)
}

func TestRewriteHTMLWithoutPrefix(t *testing.T) {
	t.Parallel()

	in := []byte(`<a href="/x">x</a>`)
	out, err := RewriteHTML(in, "")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
