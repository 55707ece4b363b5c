package gcs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// newTestClient creates a storage client pointed at a test server.
func newTestClient(t *testing.T, handler http.Handler) *storage.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := storage.NewClient(context.Background(), option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Bucket: "b"})
	assert.Error(t, err)

	client := newTestClient(t, http.NotFoundHandler())
	_, err = New(client, Config{})
	assert.Error(t, err)
}

func TestPutObject(t *testing.T) {
	t.Parallel()

	bucketName := "catalog-exports"
	objectName := "runs/catalog/run-1.json"
	objectData := `{"electronics_products":[]}`

	// Simulates the GCS JSON API for multipart uploads.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, fmt.Sprintf("/upload/storage/v1/b/%s/o", bucketName))
		assert.Equal(t, objectName, r.URL.Query().Get("name"))
		assert.Equal(t, "multipart", r.URL.Query().Get("uploadType"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Contains(t, string(body), objectData)
		assert.Contains(t, string(body), "application/json")

		fmt.Fprintln(w, `{ "name": "`+objectName+`", "bucket": "`+bucketName+`" }`)
	})

	store, err := New(newTestClient(t, handler), Config{Bucket: bucketName, Prefix: "/runs/"})
	require.NoError(t, err)

	uri, err := store.PutObject(context.Background(), "catalog/run-1.json", "application/json", strings.NewReader(objectData))
	require.NoError(t, err)
	assert.Equal(t, "gs://catalog-exports/runs/catalog/run-1.json", uri)
}

func TestPutObjectErrors(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	store, err := New(newTestClient(t, handler), Config{Bucket: "catalog-exports"})
	require.NoError(t, err)

	_, err = store.PutObject(context.Background(), "", "application/json", strings.NewReader("{}"))
	assert.Error(t, err)

	_, err = store.PutObject(context.Background(), "../other/catalog.json", "application/json", strings.NewReader("{}"))
	assert.ErrorContains(t, err, "escapes")

	_, err = store.PutObject(context.Background(), "catalog.json", "application/json", strings.NewReader("{}"))
	assert.Error(t, err)
}

func TestPutObjectDefaultsContentTypeAndCacheControl(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "summary.json", r.URL.Query().Get("name"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Contains(t, string(body), DefaultContentType)
		assert.Contains(t, string(body), "no-cache")
		fmt.Fprintln(w, `{ "name": "summary.json", "bucket": "catalog-exports" }`)
	})

	store, err := New(newTestClient(t, handler), Config{Bucket: "catalog-exports", CacheControl: "no-cache"})
	require.NoError(t, err)

	uri, err := store.PutObject(context.Background(), "/summary.json", "", strings.NewReader(`{"total_products":20}`))
	require.NoError(t, err)
	assert.Equal(t, "gs://catalog-exports/summary.json", uri)
}
