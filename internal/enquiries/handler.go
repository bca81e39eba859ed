package enquiries

import (
	"log/slog"
	"net/http"

	"github.com/gearhub/gearhub/internal/platform/httpx"
	"github.com/gearhub/gearhub/internal/rbac"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	e, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": e.ID, "status": e.Status})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := httpx.IntQuery(r, "limit", 25)
	page := httpx.IntQuery(r, "page", 1)
	req := ListRequest{
		Search: r.URL.Query().Get("q"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	switch raw := Status(r.URL.Query().Get("status")); raw {
	case "":
	case StatusOpen, StatusClosed:
		req.Status = &raw
	default:
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", "status must be open or closed")
		return
	}
	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list enquiries failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []Enquiry{}
	}
	httpx.JSON(w, http.StatusOK, httpx.Page[Enquiry]{Items: items, Total: total, Page: page, Limit: limit})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	e, err := h.service.Close(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}
