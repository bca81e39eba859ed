package orders

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/gearhub/gearhub/internal/document"
	"github.com/gearhub/gearhub/internal/platform/httpx"
	"github.com/gearhub/gearhub/internal/rbac"
	"github.com/gearhub/gearhub/internal/shared"
	"github.com/gearhub/gearhub/jobs"
)

// Exporter renders documents to downloadable formats.
type Exporter interface {
	PDF(ctx context.Context, doc document.Document) ([]byte, error)
	XLSX(doc document.Document) ([]byte, error)
}

// RenderQueue schedules background PDF renders.
type RenderQueue interface {
	EnqueueDocumentRender(ctx context.Context, payload jobs.DocumentRenderPayload) (*asynq.TaskInfo, error)
}

type Handler struct {
	logger   *slog.Logger
	service  *Service
	exporter Exporter
	queue    RenderQueue
	rbac     rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, exporter Exporter, queue RenderQueue, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, exporter: exporter, queue: queue, rbac: rbac}
}

func listRequest(r *http.Request) (ListOrdersRequest, int, error) {
	limit := httpx.IntQuery(r, "limit", 25)
	page := httpx.IntQuery(r, "page", 1)
	req := ListOrdersRequest{
		CustomerID: httpx.Int64Query(r, "customer_id"),
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := OrderStatus(raw)
		req.Status = &status
	}
	var err error
	if req.DateFrom, err = httpx.DateQuery(r, "date_from"); err != nil {
		return req, page, err
	}
	req.DateTo, err = httpx.DateQuery(r, "date_to")
	return req, page, err
}

func (h *Handler) respondList(w http.ResponseWriter, items []OrderWithDetails, total, page, limit int) {
	if items == nil {
		items = []OrderWithDetails{}
	}
	httpx.JSON(w, http.StatusOK, httpx.Page[OrderWithDetails]{Items: items, Total: total, Page: page, Limit: limit})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req, page, err := listRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list orders failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.respondList(w, items, total, page, req.Limit)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) CreateFromQuotation(w http.ResponseWriter, r *http.Request) {
	var req CreateFromQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.CreateFromQuotation(r.Context(), req, shared.ActorID(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.UpdateStatus(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	doc, err := h.service.Document(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.writePDF(w, r, doc)
}

func (h *Handler) RenderAsync(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if _, err := h.service.Get(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	info, err := h.queue.EnqueueDocumentRender(r.Context(), jobs.DocumentRenderPayload{Kind: jobs.DocumentOrder, ID: id})
	if err != nil {
		h.logger.Error("enqueue order render", slog.Int64("id", id), slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue unavailable", "could not schedule the render")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{
		"task_id": info.ID,
		"queue":   info.Queue,
		"pdf_url": strings.TrimSuffix(r.URL.Path, "/async"),
	})
}

func (h *Handler) XLSX(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	doc, err := h.service.Document(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	data, err := h.exporter.XLSX(doc)
	if err != nil {
		h.logger.Error("render order xlsx", slog.String("number", doc.Number), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.File(w, document.XLSXContentType, "attachment", doc.Filename("xlsx"), data)
}

// Portal endpoints. RequireCustomer guarantees CustomerID is set.

func customerID(r *http.Request) int64 {
	return *shared.PrincipalFromContext(r.Context()).CustomerID
}

func (h *Handler) Place(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Place(r.Context(), customerID(r), shared.ActorID(r.Context()), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) PortalPrice(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	preview, err := h.service.Preview(r.Context(), customerID(r), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, preview)
}

func (h *Handler) PortalList(w http.ResponseWriter, r *http.Request) {
	req, page, err := listRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, total, err := h.service.ListForCustomer(r.Context(), customerID(r), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondList(w, items, total, page, req.Limit)
}

func (h *Handler) PortalShow(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.GetForCustomer(r.Context(), customerID(r), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) PortalPDF(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	doc, err := h.service.CustomerDocument(r.Context(), customerID(r), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.writePDF(w, r, doc)
}

func (h *Handler) PortalCancel(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req CancelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.Cancel(r.Context(), customerID(r), id, req.Reason)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) writePDF(w http.ResponseWriter, r *http.Request, doc document.Document) {
	pdf, err := h.exporter.PDF(r.Context(), doc)
	if err != nil {
		h.logger.Error("render order pdf", slog.String("number", doc.Number), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Render failed", "the PDF renderer is unavailable")
		return
	}
	httpx.File(w, "application/pdf", "inline", doc.Filename("pdf"), pdf)
}
