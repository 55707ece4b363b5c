package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/product-catalog-extractor/internal/aggregator"
	"github.com/JakeFAU/product-catalog-extractor/internal/catalog"
)

const contentType = "application/json"

// Artifact describes one written object.
type Artifact struct {
	Path string `json:"path"`
	URI  string `json:"uri"`
	Hash string `json:"hash"`
	Size int    `json:"size"`
}

// Output lists the artifacts written for a run.
type Output struct {
	RunID    string   `json:"runId"`
	Document Artifact `json:"document"`
	Summary  Artifact `json:"summary"`
}

// Sink writes run exports to a BlobStore.
type Sink struct {
	store  catalog.BlobStore
	hasher catalog.Hasher
	logger *zap.Logger
}

// NewSink constructs a Sink.
func NewSink(store catalog.BlobStore, hasher catalog.Hasher, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{store: store, hasher: hasher, logger: logger.Named("export")}
}

// Write stores the catalog document and summary for a run under runs/<runID>/.
func (s *Sink) Write(ctx context.Context, res aggregator.Result, runID string) (Output, error) {
	if s == nil || s.store == nil || s.hasher == nil {
		return Output{}, &catalog.PersistenceError{Op: "export", Err: errors.New("sink is not configured")}
	}
	if runID == "" {
		return Output{}, &catalog.PersistenceError{Op: "export", Err: errors.New("run id is required")}
	}

	doc, err := s.put(ctx, fmt.Sprintf("runs/%s/catalog.json", runID), BuildDocument(res))
	if err != nil {
		return Output{}, err
	}
	summary, err := s.put(ctx, fmt.Sprintf("runs/%s/summary.json", runID), BuildSummary(res))
	if err != nil {
		return Output{}, err
	}

	s.logger.Info("catalog exported",
		zap.String("run_id", runID),
		zap.String("document_uri", doc.URI),
		zap.String("hash", doc.Hash),
		zap.Int("products", len(res.Products)),
	)
	return Output{RunID: runID, Document: doc, Summary: summary}, nil
}

func (s *Sink) put(ctx context.Context, path string, v any) (Artifact, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Artifact{}, &catalog.PersistenceError{Op: "encode " + path, Err: err}
	}
	hash, err := s.hasher.Hash(data)
	if err != nil {
		return Artifact{}, &catalog.PersistenceError{Op: "hash " + path, Err: err}
	}
	uri, err := s.store.PutObject(ctx, path, contentType, bytes.NewReader(data))
	if err != nil {
		return Artifact{}, &catalog.PersistenceError{Op: "put " + path, Err: err}
	}
	return Artifact{Path: path, URI: uri, Hash: hash, Size: len(data)}, nil
}
