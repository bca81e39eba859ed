package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gearhub/gearhub/internal/platform/cache"
	"github.com/gearhub/gearhub/internal/platform/httpx"
	"github.com/gearhub/gearhub/internal/shared"
)

// Service provides catalog use cases.
type Service struct {
	repo   Repository
	cache  *cache.Store
	audit  shared.ActivityRecorder
	logger *slog.Logger
}

// NewService constructs the catalog service. A nil store disables caching.
func NewService(repo Repository, store *cache.Store, audit shared.ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: store, audit: audit, logger: logger}
}

// ListProducts returns a page of products, served from cache when possible.
func (s *Service) ListProducts(ctx context.Context, filters ListFilters) (ProductPage, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	load := func(ctx context.Context) (any, error) {
		items, total, err := s.repo.ListProducts(ctx, filters)
		if err != nil {
			return nil, err
		}
		return ProductPage{Items: items, Total: total}, nil
	}

	key, err := s.cache.Key(ctx, "products", filters.cacheKey())
	if err != nil {
		s.logger.Warn("catalog cache key", slog.Any("error", err))
		value, err := load(ctx)
		if err != nil {
			return ProductPage{}, err
		}
		return value.(ProductPage), nil
	}

	var page ProductPage
	if err := s.cache.FetchJSON(ctx, key, &page, load); err != nil {
		return ProductPage{}, err
	}
	return page, nil
}

// GetProduct returns a single product.
func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, fmt.Errorf("%w: invalid product id", httpx.ErrValidation)
	}
	return s.repo.GetProduct(ctx, id)
}

// Lookup returns the products keyed by id. Missing ids are reported as not found.
func (s *Service) Lookup(ctx context.Context, ids []int64) (map[int64]Product, error) {
	if len(ids) == 0 {
		return map[int64]Product{}, nil
	}
	products, err := s.repo.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			return nil, fmt.Errorf("product %d: %w", id, httpx.ErrNotFound)
		}
	}
	return out, nil
}

// CreateProduct validates and stores a new product.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	if err := validateProduct(in); err != nil {
		return Product{}, err
	}
	id, err := s.repo.CreateProduct(ctx, in)
	if err != nil {
		return Product{}, err
	}
	s.invalidate(ctx)
	shared.RecordActivity(ctx, s.audit, s.logger, "product.create", "product", id, map[string]any{"sku": in.SKU})
	return s.repo.GetProduct(ctx, id)
}

// UpdateProduct replaces a product's fields.
func (s *Service) UpdateProduct(ctx context.Context, id int64, in ProductInput) (Product, error) {
	if err := validateProduct(in); err != nil {
		return Product{}, err
	}
	if err := s.repo.UpdateProduct(ctx, id, in); err != nil {
		return Product{}, err
	}
	s.invalidate(ctx)
	shared.RecordActivity(ctx, s.audit, s.logger, "product.update", "product", id, map[string]any{"sku": in.SKU})
	return s.repo.GetProduct(ctx, id)
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	shared.RecordActivity(ctx, s.audit, s.logger, "product.delete", "product", id, nil)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("catalog cache bump", slog.Any("error", err))
	}
}

func validateProduct(in ProductInput) error {
	if err := httpx.Validate(in); err != nil {
		return err
	}
	for name, v := range map[string]bool{
		"mrp_price":    in.MRPPrice.IsNegative(),
		"dealer_price": in.DealerPrice.IsNegative(),
		"shop_price":   in.ShopPrice.IsNegative(),
		"gst_rate":     in.GSTRate.IsNegative(),
	} {
		if v {
			return fmt.Errorf("%w: %s must not be negative", httpx.ErrValidation, name)
		}
	}
	if in.MRPPrice.IsZero() && in.DealerPrice.IsZero() && in.ShopPrice.IsZero() {
		return fmt.Errorf("%w: at least one price is required", httpx.ErrValidation)
	}
	return nil
}

// Categories lists categories.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// CreateCategory adds a category.
func (s *Service) CreateCategory(ctx context.Context, in NameInput) (Category, error) {
	name, slug, err := nameAndSlug(in.Name)
	if err != nil {
		return Category{}, err
	}
	return s.repo.CreateCategory(ctx, name, slug)
}

// SubCategories lists sub-categories, optionally for one category.
func (s *Service) SubCategories(ctx context.Context, categoryID *int64) ([]SubCategory, error) {
	return s.repo.ListSubCategories(ctx, categoryID)
}

// CreateSubCategory adds a sub-category.
func (s *Service) CreateSubCategory(ctx context.Context, in SubCategoryInput) (SubCategory, error) {
	name, slug, err := nameAndSlug(in.Name)
	if err != nil {
		return SubCategory{}, err
	}
	return s.repo.CreateSubCategory(ctx, in.CategoryID, name, slug)
}

// Brands lists brands.
func (s *Service) Brands(ctx context.Context) ([]Brand, error) {
	return s.repo.ListBrands(ctx)
}

// CreateBrand adds a brand.
func (s *Service) CreateBrand(ctx context.Context, in NameInput) (Brand, error) {
	name, slug, err := nameAndSlug(in.Name)
	if err != nil {
		return Brand{}, err
	}
	return s.repo.CreateBrand(ctx, name, slug)
}

// Tags lists tags.
func (s *Service) Tags(ctx context.Context) ([]Tag, error) {
	return s.repo.ListTags(ctx)
}

// CreateTag adds a tag.
func (s *Service) CreateTag(ctx context.Context, in NameInput) (Tag, error) {
	name, slug, err := nameAndSlug(in.Name)
	if err != nil {
		return Tag{}, err
	}
	return s.repo.CreateTag(ctx, name, slug)
}

var errEmptySlug = errors.New("name must contain letters or digits")

func nameAndSlug(raw string) (string, string, error) {
	name := strings.TrimSpace(raw)
	slug := Slugify(name)
	if slug == "" {
		return "", "", fmt.Errorf("%w: %w", httpx.ErrValidation, errEmptySlug)
	}
	return name, slug, nil
}
