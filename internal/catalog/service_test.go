package catalog

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearhub/gearhub/internal/platform/cache"
	"github.com/gearhub/gearhub/internal/platform/httpx"
	"github.com/gearhub/gearhub/internal/rbac"
	"github.com/gearhub/gearhub/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	products  map[int64]Product
	nextID    int64
	listCalls int
	brands    []Brand
}

func newMockRepository() *mockRepository {
	return &mockRepository{products: make(map[int64]Product), nextID: 1}
}

func (m *mockRepository) ListProducts(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	m.listCalls++
	out := make([]Product, 0, len(m.products))
	for id := int64(1); id < m.nextID; id++ {
		p, ok := m.products[id]
		if !ok || (filters.ActiveOnly && !p.IsActive) {
			continue
		}
		if filters.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filters.Search)) {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockRepository) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, ok := m.products[id]
	if !ok {
		return Product{}, httpx.ErrNotFound
	}
	return p, nil
}

func (m *mockRepository) GetProducts(ctx context.Context, ids []int64) ([]Product, error) {
	var out []Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockRepository) CreateProduct(ctx context.Context, in ProductInput) (int64, error) {
	for _, p := range m.products {
		if p.SKU == in.SKU {
			return 0, httpx.ErrDuplicate
		}
	}
	id := m.nextID
	m.nextID++
	m.products[id] = Product{
		ID: id, SKU: in.SKU, Name: in.Name,
		MRPPrice: in.MRPPrice, DealerPrice: in.DealerPrice, ShopPrice: in.ShopPrice,
		GSTRate: in.GSTRate, IsActive: isActive(in),
	}
	return id, nil
}

func (m *mockRepository) UpdateProduct(ctx context.Context, id int64, in ProductInput) error {
	p, ok := m.products[id]
	if !ok {
		return httpx.ErrNotFound
	}
	p.Name = in.Name
	p.MRPPrice = in.MRPPrice
	p.DealerPrice = in.DealerPrice
	p.IsActive = isActive(in)
	m.products[id] = p
	return nil
}

func (m *mockRepository) DeleteProduct(ctx context.Context, id int64) error {
	if _, ok := m.products[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockRepository) ListCategories(ctx context.Context) ([]Category, error) { return nil, nil }

func (m *mockRepository) CreateCategory(ctx context.Context, name, slug string) (Category, error) {
	return Category{ID: 1, Name: name, Slug: slug}, nil
}

func (m *mockRepository) ListSubCategories(ctx context.Context, categoryID *int64) ([]SubCategory, error) {
	return nil, nil
}

func (m *mockRepository) CreateSubCategory(ctx context.Context, categoryID int64, name, slug string) (SubCategory, error) {
	return SubCategory{ID: 1, CategoryID: categoryID, Name: name, Slug: slug}, nil
}

func (m *mockRepository) ListBrands(ctx context.Context) ([]Brand, error) { return m.brands, nil }

func (m *mockRepository) CreateBrand(ctx context.Context, name, slug string) (Brand, error) {
	b := Brand{ID: int64(len(m.brands) + 1), Name: name, Slug: slug}
	m.brands = append(m.brands, b)
	return b, nil
}

func (m *mockRepository) ListTags(ctx context.Context) ([]Tag, error) { return nil, nil }

func (m *mockRepository) CreateTag(ctx context.Context, name, slug string) (Tag, error) {
	return Tag{ID: 1, Name: name, Slug: slug}, nil
}

type recordingAudit struct {
	actions []string
}

func (r *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	r.actions = append(r.actions, log.Action)
	return nil
}

func newTestService(t *testing.T) (*Service, *mockRepository, *recordingAudit) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMockRepository()
	audit := &recordingAudit{}
	return NewService(repo, cache.NewStore(client, "catalog", time.Minute), audit, nil), repo, audit
}

func ballInput() ProductInput {
	return ProductInput{
		SKU:         "FB-001",
		Name:        "Match Football",
		MRPPrice:    decimal.RequireFromString("1500"),
		DealerPrice: decimal.RequireFromString("1000"),
		GSTRate:     decimal.RequireFromString("12"),
	}
}

// ============================================================================
// SERVICE TESTS
// ============================================================================

func TestService_ListProductsIsCachedUntilWrite(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	_, err := svc.CreateProduct(ctx, ballInput())
	require.NoError(t, err)

	first, err := svc.ListProducts(ctx, ListFilters{Page: 1, Limit: 10})
	require.NoError(t, err)
	second, err := svc.ListProducts(ctx, ListFilters{Page: 1, Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.listCalls)
	assert.Equal(t, first.Total, second.Total)
	assert.True(t, second.Items[0].DealerPrice.Equal(decimal.RequireFromString("1000")))

	in := ballInput()
	in.SKU = "FB-002"
	_, err = svc.CreateProduct(ctx, in)
	require.NoError(t, err)

	third, err := svc.ListProducts(ctx, ListFilters{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
	assert.Equal(t, 2, third.Total)
}

func TestService_CreateProductValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, audit := newTestService(t)

	in := ballInput()
	in.DealerPrice = decimal.RequireFromString("-1")
	_, err := svc.CreateProduct(ctx, in)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateProduct(ctx, ProductInput{SKU: "X", Name: "No price"})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateProduct(ctx, ProductInput{Name: "Missing SKU", MRPPrice: decimal.NewFromInt(1)})
	assert.Error(t, err)

	assert.Empty(t, audit.actions)
}

func TestService_WritesAreAudited(t *testing.T) {
	ctx := context.Background()
	svc, _, audit := newTestService(t)

	p, err := svc.CreateProduct(ctx, ballInput())
	require.NoError(t, err)
	in := ballInput()
	in.Name = "Match Football Pro"
	_, err = svc.UpdateProduct(ctx, p.ID, in)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProduct(ctx, p.ID))

	assert.Equal(t, []string{"product.create", "product.update", "product.delete"}, audit.actions)
}

func TestService_Lookup(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	p, err := svc.CreateProduct(ctx, ballInput())
	require.NoError(t, err)

	found, err := svc.Lookup(ctx, []int64{p.ID})
	require.NoError(t, err)
	assert.Equal(t, "FB-001", found[p.ID].SKU)

	_, err = svc.Lookup(ctx, []int64{p.ID, 99})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestService_CreateBrandSlug(t *testing.T) {
	svc, _, _ := newTestService(t)

	b, err := svc.CreateBrand(context.Background(), NameInput{Name: "  Señor Sports Co. "})
	require.NoError(t, err)
	assert.Equal(t, "Señor Sports Co.", b.Name)
	assert.Equal(t, "senor-sports-co", b.Slug)

	_, err = svc.CreateBrand(context.Background(), NameInput{Name: "!!!"})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestProduct_ForBuilder(t *testing.T) {
	p := Product{ID: 4, SKU: "BAT-1", Name: "Bat", CategoryName: "Cricket", BrandName: "SG",
		MRPPrice: decimal.NewFromInt(900), DealerPrice: decimal.NewFromInt(700)}
	bp := p.ForBuilder()
	assert.Equal(t, "Cricket", bp.Category)
	assert.True(t, bp.Prices.Dealer.Equal(decimal.NewFromInt(700)))
}

// ============================================================================
// HANDLER TESTS
// ============================================================================

func TestHandler_DealerPriceOnlyForStaff(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.CreateProduct(context.Background(), ballInput())
	require.NoError(t, err)
	h := NewHandler(discardLogger(), svc, rbacMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "dealer_price")
	assert.Contains(t, rec.Body.String(), `"mrp_price":"1500"`)

	req = httptest.NewRequest(http.MethodGet, "/products", nil)
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), &shared.Principal{UserID: 1, Role: shared.RoleAdmin}))
	rec = httptest.NewRecorder()
	h.List(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"dealer_price":"1000"`)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rbacMiddleware() rbac.Middleware {
	return rbac.Middleware{Logger: discardLogger()}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "running-shoes", Slugify("Running Shoes"))
	assert.Equal(t, "cafe-creme-x", Slugify("café   crème X"))
}
