package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/gearhub/gearhub/internal/document"
	jobmetrics "github.com/gearhub/gearhub/internal/jobs"
	"github.com/gearhub/gearhub/internal/platform/httpx"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DocumentLoader loads the renderable form of one document.
type DocumentLoader func(ctx context.Context, id int64) (document.Document, error)

// PDFExporter renders and caches PDFs.
type PDFExporter interface {
	PDF(ctx context.Context, doc document.Document) ([]byte, error)
}

// DocumentRenderJob renders PDFs off the request path so a later download is
// served from cache.
type DocumentRenderJob struct {
	Loaders  map[string]DocumentLoader
	Exporter PDFExporter
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewDocumentRenderJob wires dependencies for the render handler.
func NewDocumentRenderJob(loaders map[string]DocumentLoader, exporter PDFExporter, logger *slog.Logger, metrics *jobmetrics.Metrics) *DocumentRenderJob {
	return &DocumentRenderJob{Loaders: loaders, Exporter: exporter, Logger: logger, Metrics: metrics}
}

// Handle processes TaskDocumentRender tasks.
func (j *DocumentRenderJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Exporter == nil {
		return errors.New("document render: handler not configured")
	}
	var payload DocumentRenderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w", asynq.SkipRetry)
	}
	load, ok := j.Loaders[payload.Kind]
	if !ok {
		return fmt.Errorf("unknown document kind %q: %w", payload.Kind, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskDocumentRender)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("kind", payload.Kind), slog.Int64("id", payload.ID))
	doc, err := load(ctx, payload.ID)
	if err != nil {
		logger.Error("load document", slog.Any("error", err))
		if errors.Is(err, httpx.ErrNotFound) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}
	pdf, err := j.Exporter.PDF(ctx, doc)
	if err != nil {
		logger.Error("render document", slog.Any("error", err))
		return err
	}
	j.metrics().ObservePDF(payload.Kind, len(pdf))
	logger.Info("document pre-rendered", slog.String("number", doc.Number), slog.Int("bytes", len(pdf)))
	return nil
}

func (j *DocumentRenderJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DocumentRenderJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
