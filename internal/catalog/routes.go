package catalog

import "github.com/go-chi/chi/v5"

// MountRoutes registers the public catalog reads and the staff-only writes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.List)
	r.Get("/products/{id}", h.Show)
	r.Get("/categories", h.ListCategories)
	r.Get("/sub-categories", h.ListSubCategories)
	r.Get("/brands", h.ListBrands)
	r.Get("/tags", h.ListTags)

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireStaff())
		r.Post("/products", h.Create)
		r.Put("/products/{id}", h.Update)
		r.Delete("/products/{id}", h.Delete)
		r.Post("/categories", h.CreateCategory)
		r.Post("/sub-categories", h.CreateSubCategory)
		r.Post("/brands", h.CreateBrand)
		r.Post("/tags", h.CreateTag)
	})
}
