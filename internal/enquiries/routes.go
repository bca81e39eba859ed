package enquiries

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the public form endpoint, limited per client IP,
// and the staff inbox.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(httprate.LimitByIP(5, time.Minute)).Post("/enquiries", h.Create)

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireStaff())
		r.Get("/admin/enquiries", h.List)
		r.Get("/admin/enquiries/{id}", h.Show)
		r.Post("/admin/enquiries/{id}/close", h.Close)
	})
}
