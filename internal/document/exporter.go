package document

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/gearhub/gearhub/internal/platform/cache"
)

// Exporter caches rendered PDFs and collapses concurrent renders of the same
// document revision into one call.
type Exporter struct {
	renderer *Renderer
	store    *cache.Store
	group    singleflight.Group
	logger   *slog.Logger
}

func NewExporter(renderer *Renderer, store *cache.Store, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{renderer: renderer, store: store, logger: logger}
}

// CacheKey identifies one revision of a document.
func (e *Exporter) CacheKey(ctx context.Context, doc Document) (string, error) {
	kind := strings.ToLower(strings.ReplaceAll(string(doc.Kind), " ", "_"))
	return e.store.Key(ctx, "pdf", kind, doc.Number, strconv.FormatInt(doc.UpdatedAt.UnixNano(), 10))
}

// Cached returns the stored PDF for doc without rendering.
func (e *Exporter) Cached(ctx context.Context, doc Document) ([]byte, bool, error) {
	key, err := e.CacheKey(ctx, doc)
	if err != nil {
		return nil, false, err
	}
	return e.store.GetBytes(ctx, key)
}

// PDF returns the cached PDF or renders and stores it.
func (e *Exporter) PDF(ctx context.Context, doc Document) ([]byte, error) {
	key, err := e.CacheKey(ctx, doc)
	if err != nil {
		e.logger.Warn("document cache key", slog.Any("error", err))
		return e.renderer.PDF(ctx, doc)
	}
	if data, ok, err := e.store.GetBytes(ctx, key); err != nil {
		e.logger.Warn("document cache read", slog.String("key", key), slog.Any("error", err))
	} else if ok {
		return data, nil
	}

	v, err, _ := e.group.Do(key, func() (any, error) {
		pdf, err := e.renderer.PDF(ctx, doc)
		if err != nil {
			return nil, err
		}
		if err := e.store.SetBytes(ctx, key, pdf); err != nil {
			e.logger.Warn("document cache write", slog.String("key", key), slog.Any("error", err))
		}
		return pdf, nil
	})
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return v.([]byte), nil
}

// XLSX renders the spreadsheet export. Spreadsheets are cheap and not cached.
func (e *Exporter) XLSX(doc Document) ([]byte, error) {
	return e.renderer.XLSX(doc)
}

// HTML renders the page set without converting it.
func (e *Exporter) HTML(ctx context.Context, doc Document) (string, error) {
	return e.renderer.HTML(ctx, doc)
}
