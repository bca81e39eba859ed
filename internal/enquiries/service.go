package enquiries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gearhub/gearhub/internal/catalog"
	"github.com/gearhub/gearhub/internal/platform/httpx"
	"github.com/gearhub/gearhub/internal/shared"
)

var ErrAlreadyClosed = fmt.Errorf("enquiry already closed: %w", httpx.ErrConflict)

// ProductCatalog checks that an enquiry names a real product.
type ProductCatalog interface {
	Lookup(ctx context.Context, ids []int64) (map[int64]catalog.Product, error)
}

type Service struct {
	repo     Repository
	products ProductCatalog
	audit    shared.ActivityRecorder
	logger   *slog.Logger
}

func NewService(repo Repository, products ProductCatalog, audit shared.ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, products: products, audit: audit, logger: logger}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Enquiry, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	if req.ProductID != nil {
		if _, err := s.products.Lookup(ctx, []int64{*req.ProductID}); err != nil {
			if errors.Is(err, httpx.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown product %d", httpx.ErrValidation, *req.ProductID)
			}
			return nil, fmt.Errorf("verify product: %w", err)
		}
	}

	id, err := s.repo.Create(ctx, Enquiry{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     strings.TrimSpace(req.Phone),
		Company:   strings.TrimSpace(req.Company),
		ProductID: req.ProductID,
		Message:   strings.TrimSpace(req.Message),
	})
	if err != nil {
		return nil, fmt.Errorf("create enquiry: %w", err)
	}
	s.logger.Info("enquiry received", slog.Int64("id", id))
	shared.RecordActivity(ctx, s.audit, s.logger, "enquiry.create", "enquiry", id, nil)
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Enquiry, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListRequest) ([]Enquiry, int, error) {
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 25
	}
	return s.repo.List(ctx, req)
}

// Close marks an open enquiry handled.
func (s *Service) Close(ctx context.Context, id int64) (*Enquiry, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == StatusClosed {
		return nil, ErrAlreadyClosed
	}
	if err := s.repo.Close(ctx, id, shared.ActorID(ctx)); err != nil {
		return nil, fmt.Errorf("close enquiry: %w", err)
	}
	shared.RecordActivity(ctx, s.audit, s.logger, "enquiry.close", "enquiry", id, nil)
	return s.repo.Get(ctx, id)
}
