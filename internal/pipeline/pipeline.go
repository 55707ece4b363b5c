// Package pipeline runs one extraction and hands the result to the export,
// persistence and notification stages.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/JakeFAU/product-catalog-extractor/internal/aggregator"
	"github.com/JakeFAU/product-catalog-extractor/internal/catalog"
	"github.com/JakeFAU/product-catalog-extractor/internal/export"
)

// Runner produces a run result for a base URL.
type Runner interface {
	RunURL(ctx context.Context, baseURL string) (aggregator.Result, error)
}

// Exporter writes the result artifacts of a run.
type Exporter interface {
	Write(ctx context.Context, res aggregator.Result, runID string) (export.Output, error)
}

// Config tunes the pipeline.
type Config struct {
	// Topic receives run-completed notifications; empty disables publishing.
	Topic string
}

// Report describes a completed pipeline execution.
type Report struct {
	RunID     string            `json:"runId"`
	Result    aggregator.Result `json:"result"`
	Export    *export.Output    `json:"export,omitempty"`
	Persisted bool              `json:"persisted"`
	MessageID string            `json:"messageId,omitempty"`
}

// Pipeline wires a Runner to the optional downstream stages. Nil stages are skipped.
type Pipeline struct {
	runner    Runner
	exporter  Exporter
	products  catalog.ProductStore
	publisher catalog.Publisher
	ids       catalog.IDGenerator
	clock     catalog.Clock
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Pipeline.
func New(
	runner Runner,
	exporter Exporter,
	products catalog.ProductStore,
	publisher catalog.Publisher,
	ids catalog.IDGenerator,
	clock catalog.Clock,
	cfg Config,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		runner:    runner,
		exporter:  exporter,
		products:  products,
		publisher: publisher,
		ids:       ids,
		clock:     clock,
		cfg:       cfg,
		logger:    logger.Named("pipeline"),
	}
}

// Execute runs the extraction for baseURL and then exports, persists and announces it.
// On a downstream failure the partial report is returned with the error.
func (p *Pipeline) Execute(ctx context.Context, baseURL string) (report Report, err error) {
	ctx, span := otel.Tracer("catalog/pipeline").Start(ctx, "pipeline.Execute")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	runID, err := p.ids.NewID()
	if err != nil {
		return Report{}, fmt.Errorf("generate run id: %w", err)
	}
	span.SetAttributes(attribute.String("catalog.run_id", runID))
	logger := p.logger.With(zap.String("run_id", runID))

	res, err := p.runner.RunURL(ctx, baseURL)
	report = Report{RunID: runID, Result: res}
	span.SetAttributes(
		attribute.Int("catalog.products", len(res.Products)),
		attribute.Bool("catalog.fallback", res.UsedFallback),
	)
	if err != nil {
		return report, fmt.Errorf("run %s: %w", runID, err)
	}

	if p.exporter != nil {
		out, err := p.exporter.Write(ctx, res, runID)
		if err != nil {
			return report, err
		}
		report.Export = &out
	}

	if p.products != nil {
		if err := p.products.SaveProducts(ctx, runID, res.Products); err != nil {
			return report, err
		}
		report.Persisted = true
	}

	if p.publisher != nil && p.cfg.Topic != "" {
		id, err := p.publisher.Publish(ctx, p.cfg.Topic, p.payload(report))
		if err != nil {
			return report, &catalog.PersistenceError{Op: "publish run " + runID, Err: err}
		}
		report.MessageID = id
	}

	logger.Info("run completed",
		zap.String("state", string(res.State)),
		zap.Int("products", len(res.Products)),
		zap.Bool("fallback", res.UsedFallback),
		zap.Bool("persisted", report.Persisted),
		zap.String("message_id", report.MessageID),
	)
	return report, nil
}

func (p *Pipeline) payload(report Report) map[string]any {
	res := report.Result
	payload := map[string]any{
		"run_id":          report.RunID,
		"base_url":        res.BaseURL,
		"state":           string(res.State),
		"total":           len(res.Products),
		"fallback":        res.UsedFallback,
		"fallback_reason": res.FallbackReason,
		"timestamp":       p.clock.Now().Format(time.RFC3339),
	}
	if report.Export != nil {
		payload["blob_uri"] = report.Export.Document.URI
		payload["hash"] = report.Export.Document.Hash
	}
	return payload
}
