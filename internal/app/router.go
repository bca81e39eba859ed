package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/gearhub/gearhub/internal/audit/http"
	"github.com/gearhub/gearhub/internal/auth"
	"github.com/gearhub/gearhub/internal/catalog"
	"github.com/gearhub/gearhub/internal/enquiries"
	"github.com/gearhub/gearhub/internal/observability"
	"github.com/gearhub/gearhub/internal/platform/httpx"
	"github.com/gearhub/gearhub/internal/rbac"
	"github.com/gearhub/gearhub/internal/sales/customers"
	"github.com/gearhub/gearhub/internal/sales/orders"
	"github.com/gearhub/gearhub/internal/sales/quotations"
	"github.com/gearhub/gearhub/jobs"
	"github.com/gearhub/gearhub/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Tokens         *auth.TokenManager
	RBACMiddleware rbac.Middleware
	Metrics        *observability.Metrics

	AuthHandler      *auth.Handler
	CatalogHandler   *catalog.Handler
	CustomerHandler  *customers.Handler
	QuotationHandler *quotations.Handler
	OrderHandler     *orders.Handler
	EnquiryHandler   *enquiries.Handler
	AuditHandler     *audithttp.Handler
	ReportHandler    *report.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with GearHub defaults. Domain routes
// live under /api/v1; probes and metrics stay at the root.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Tokens:  params.Tokens,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, httpx.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method not allowed", r.Method+" is not supported here")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if params.AuthHandler != nil {
			params.AuthHandler.MountRoutes(r)
		}
		if params.CatalogHandler != nil {
			params.CatalogHandler.MountRoutes(r)
		}
		if params.CustomerHandler != nil {
			params.CustomerHandler.MountRoutes(r)
		}
		if params.QuotationHandler != nil {
			params.QuotationHandler.MountRoutes(r)
		}
		if params.OrderHandler != nil {
			params.OrderHandler.MountRoutes(r)
		}
		if params.EnquiryHandler != nil {
			params.EnquiryHandler.MountRoutes(r)
		}
		if params.AuditHandler != nil {
			params.AuditHandler.MountRoutes(r)
		}

		r.Group(func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequireStaff())
			if params.ReportHandler != nil {
				r.Route("/admin/report", params.ReportHandler.MountRoutes)
			}
			if params.JobHandler != nil {
				r.Route("/admin/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	return r
}
