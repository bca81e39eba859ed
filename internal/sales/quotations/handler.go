package quotations

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
	HTML(ctx context.Context, doc document.Document) (string, error)
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

func (h *Handler) Price(w http.ResponseWriter, r *http.Request) {
	var req PriceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp, err := h.service.Price(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := httpx.IntQuery(r, "limit", 25)
	page := httpx.IntQuery(r, "page", 1)
	req := ListQuotationsRequest{
		CustomerID: httpx.Int64Query(r, "customer_id"),
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := QuotationStatus(raw)
		req.Status = &status
	}
	var err error
	if req.DateFrom, err = httpx.DateQuery(r, "date_from"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.DateTo, err = httpx.DateQuery(r, "date_to"); err != nil {
		httpx.RespondError(w, err)
		return
	}

	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list quotations failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []QuotationWithDetails{}
	}
	httpx.JSON(w, http.StatusOK, httpx.Page[QuotationWithDetails]{Items: items, Total: total, Page: page, Limit: limit})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Create(r.Context(), req, shared.ActorID(r.Context()))
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
	var req UpdateQuotationRequest
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
	q, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
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
	doc, ok := h.document(w, r)
	if !ok {
		return
	}
	pdf, err := h.exporter.PDF(r.Context(), doc)
	if err != nil {
		h.logger.Error("render quotation pdf", slog.String("number", doc.Number), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Render failed", "the PDF renderer is unavailable")
		return
	}
	httpx.File(w, "application/pdf", "inline", doc.Filename("pdf"), pdf)
}

// Preview returns the rendered HTML pages without converting them to PDF.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}
	html, err := h.exporter.HTML(r.Context(), doc)
	if err != nil {
		h.logger.Error("render quotation preview", slog.String("number", doc.Number), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
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
	info, err := h.queue.EnqueueDocumentRender(r.Context(), jobs.DocumentRenderPayload{Kind: jobs.DocumentQuotation, ID: id})
	if err != nil {
		h.logger.Error("enqueue quotation render", slog.Int64("id", id), slog.Any("error", err))
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
	doc, ok := h.document(w, r)
	if !ok {
		return
	}
	data, err := h.exporter.XLSX(doc)
	if err != nil {
		h.logger.Error("render quotation xlsx", slog.String("number", doc.Number), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.File(w, document.XLSXContentType, "attachment", doc.Filename("xlsx"), data)
}

func (h *Handler) document(w http.ResponseWriter, r *http.Request) (document.Document, bool) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return document.Document{}, false
	}
	doc, err := h.service.Document(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return document.Document{}, false
	}
	return doc, true
}
