package orders

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireStaff())
		r.Get("/admin/orders", h.List)
		r.Post("/admin/orders", h.CreateFromQuotation)
		r.Get("/admin/orders/{id}", h.Show)
		r.Put("/admin/orders/{id}", h.Update)
		r.Patch("/admin/orders/{id}/status", h.UpdateStatus)
		r.Delete("/admin/orders/{id}", h.Delete)
		r.Get("/admin/orders/{id}/pdf", h.PDF)
		r.Post("/admin/orders/{id}/pdf/async", h.RenderAsync)
		r.Get("/admin/orders/{id}/xlsx", h.XLSX)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCustomer())
		r.Post("/portal/orders", h.Place)
		r.Post("/portal/orders/price", h.PortalPrice)
		r.Get("/portal/orders", h.PortalList)
		r.Get("/portal/orders/{id}", h.PortalShow)
		r.Get("/portal/orders/{id}/pdf", h.PortalPDF)
		r.Post("/portal/orders/{id}/cancel", h.PortalCancel)
	})
}
