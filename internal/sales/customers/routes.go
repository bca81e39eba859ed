package customers

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.Register)

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCustomer())
		r.Get("/portal/me", h.Me)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireStaff())
		r.Get("/admin/customer-types", h.ListTypes)
		r.Post("/admin/customer-types", h.CreateType)
		r.Get("/admin/customer-types/{id}", h.ShowType)
		r.Put("/admin/customer-types/{id}", h.UpdateType)

		r.Get("/admin/customers", h.List)
		r.Post("/admin/customers", h.Create)
		r.Get("/admin/customers/{id}", h.Show)
		r.Put("/admin/customers/{id}", h.Update)
		r.Delete("/admin/customers/{id}", h.Delete)
		r.Get("/admin/customers/{id}/tier", h.ShowTier)
		r.Post("/admin/customers/{id}/approve", h.Approve)
		r.Post("/admin/customers/{id}/reject", h.Reject)
	})
}
