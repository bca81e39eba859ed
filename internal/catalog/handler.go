package catalog

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gearhub/gearhub/internal/platform/httpx"
	"github.com/gearhub/gearhub/internal/rbac"
	"github.com/gearhub/gearhub/internal/shared"
)

// Handler serves catalog endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a catalog handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	staff := shared.PrincipalFromContext(r.Context()).IsStaff()
	q := r.URL.Query()
	filters := ListFilters{
		Page:          httpx.IntQuery(r, "page", 1),
		Limit:         httpx.IntQuery(r, "limit", 20),
		CategoryID:    httpx.Int64Query(r, "category_id"),
		SubCategoryID: httpx.Int64Query(r, "sub_category_id"),
		BrandID:       httpx.Int64Query(r, "brand_id"),
		TagID:         httpx.Int64Query(r, "tag_id"),
		MinPrice:      decimalQuery(q.Get("min_price")),
		MaxPrice:      decimalQuery(q.Get("max_price")),
		Search:        strings.TrimSpace(q.Get("search")),
		ActiveOnly:    !staff,
	}

	page, err := h.service.ListProducts(r.Context(), filters)
	if err != nil {
		h.logger.Error("list products failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	views := make([]ProductView, 0, len(page.Items))
	for _, p := range page.Items {
		views = append(views, NewProductView(p, staff))
	}
	httpx.JSON(w, http.StatusOK, httpx.Page[ProductView]{
		Items: views,
		Total: page.Total,
		Page:  filters.Page,
		Limit: filters.Limit,
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	staff := shared.PrincipalFromContext(r.Context()).IsStaff()
	if !product.IsActive && !staff {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, NewProductView(product, staff))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.service.CreateProduct(r.Context(), in)
	if err != nil {
		h.logger.Warn("create product failed", slog.String("sku", in.SKU), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, NewProductView(product, true))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in ProductInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.service.UpdateProduct(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewProductView(product, true))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Categories(r.Context())
	respondList(w, items, err)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in NameInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.CreateCategory(r.Context(), in)
	respondCreated(w, item, err)
}

func (h *Handler) ListSubCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.SubCategories(r.Context(), httpx.Int64Query(r, "category_id"))
	respondList(w, items, err)
}

func (h *Handler) CreateSubCategory(w http.ResponseWriter, r *http.Request) {
	var in SubCategoryInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.CreateSubCategory(r.Context(), in)
	respondCreated(w, item, err)
}

func (h *Handler) ListBrands(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Brands(r.Context())
	respondList(w, items, err)
}

func (h *Handler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	var in NameInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.CreateBrand(r.Context(), in)
	respondCreated(w, item, err)
}

func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Tags(r.Context())
	respondList(w, items, err)
}

func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var in NameInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.CreateTag(r.Context(), in)
	respondCreated(w, item, err)
}

func respondList[T any](w http.ResponseWriter, items []T, err error) {
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func respondCreated[T any](w http.ResponseWriter, item T, err error) {
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func decimalQuery(raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &v
}
