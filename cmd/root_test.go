package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/product-catalog-extractor/internal/aggregator"
	"github.com/JakeFAU/product-catalog-extractor/internal/config"
	"github.com/JakeFAU/product-catalog-extractor/internal/export"
	"github.com/JakeFAU/product-catalog-extractor/internal/pipeline"
)

type mockApp struct {
	mock.Mock
}

func (m *mockApp) Logger() *zap.Logger {
	return zap.NewNop()
}

func (m *mockApp) Execute(ctx context.Context, baseURL string) (pipeline.Report, error) {
	args := m.Called(ctx, baseURL)
	return args.Get(0).(pipeline.Report), args.Error(1)
}

func (m *mockApp) Serve(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockApp) Close() {
	m.Called()
}

// useMockApp swaps the factory for the duration of a test. Tests that call it
// must not run in parallel.
func useMockApp(t *testing.T, a *mockApp, factoryErr error) *config.Config {
	t.Helper()
	var seen config.Config
	orig := newApp
	newApp = func(_ context.Context, cfg config.Config, _ *zap.Logger) (App, error) {
		seen = cfg
		if factoryErr != nil {
			return nil, factoryErr
		}
		return a, nil
	}
	t.Cleanup(func() { newApp = orig })
	return &seen
}

func TestScrapeCommandPrintsSummary(t *testing.T) {
	a := new(mockApp)
	report := pipeline.Report{
		RunID: "run-7",
		Result: aggregator.Result{
			BaseURL:        "https://shop.example.com/tv",
			State:          aggregator.StateDone,
			PagesFetched:   2,
			UsedFallback:   true,
			FallbackReason: aggregator.ReasonInsufficientProducts,
		},
		Export: &export.Output{
			Document: export.Artifact{URI: "memory://runs/run-7/catalog.json"},
			Summary:  export.Artifact{URI: "memory://runs/run-7/summary.json"},
		},
	}
	a.On("Execute", mock.Anything, "https://shop.example.com/tv").Return(report, nil).Once()
	a.On("Close").Return().Once()
	useMockApp(t, a, nil)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"scrape", "--url", "https://shop.example.com/tv"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	var got scrapeSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "run-7", got.RunID)
	assert.Equal(t, "DONE", got.State)
	assert.True(t, got.UsedFallback)
	assert.Equal(t, "memory://runs/run-7/catalog.json", got.DocumentURI)
	a.AssertExpectations(t)
}

func TestScrapeCommandPropagatesError(t *testing.T) {
	a := new(mockApp)
	a.On("Execute", mock.Anything, "").Return(pipeline.Report{}, errors.New("fetch base page: refused")).Once()
	useMockApp(t, a, nil)

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"scrape"})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestServeCommandRunsServer(t *testing.T) {
	a := new(mockApp)
	a.On("Serve", mock.Anything).Return(nil).Once()
	a.On("Close").Return().Once()
	useMockApp(t, a, nil)

	root := newRootCmd()
	root.SetArgs([]string{"serve"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	a.AssertExpectations(t)
}

func TestRootLoadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scraper:\n  min_products: 7\nstorage:\n  backend: memory\n"), 0o600))

	a := new(mockApp)
	a.On("Serve", mock.Anything).Return(nil).Once()
	a.On("Close").Return().Once()
	seen := useMockApp(t, a, nil)

	root := newRootCmd()
	root.SetArgs([]string{"--config", path, "serve"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, 7, seen.Scraper.MinProducts)
	assert.Equal(t, config.BackendMemory, seen.Storage.Backend)
}

func TestRootFactoryError(t *testing.T) {
	useMockApp(t, new(mockApp), errors.New("gcs client init failed"))

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"scrape"})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize application services")
}

func TestResolveAppMissing(t *testing.T) {
	t.Parallel()

	_, err := resolveApp(context.Background())
	assert.Error(t, err)
}
