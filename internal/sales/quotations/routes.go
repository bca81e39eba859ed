package quotations

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireStaff())
		r.Post("/admin/quotations/price", h.Price)
		r.Get("/admin/quotations", h.List)
		r.Post("/admin/quotations", h.Create)
		r.Get("/admin/quotations/{id}", h.Show)
		r.Put("/admin/quotations/{id}", h.Update)
		r.Patch("/admin/quotations/{id}/status", h.UpdateStatus)
		r.Delete("/admin/quotations/{id}", h.Delete)
		r.Get("/admin/quotations/{id}/pdf", h.PDF)
		r.Get("/admin/quotations/{id}/preview", h.Preview)
		r.Post("/admin/quotations/{id}/pdf/async", h.RenderAsync)
		r.Get("/admin/quotations/{id}/xlsx", h.XLSX)
	})
}
