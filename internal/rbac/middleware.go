// Package rbac gates routes by the caller's role.
package rbac

import (
	"log/slog"
	"net/http"

	"github.com/gearhub/gearhub/internal/platform/httpx"
	"github.com/gearhub/gearhub/internal/shared"
)

// Staff is the role set allowed into the back office.
var Staff = []shared.Role{shared.RoleAdmin, shared.RoleSuperAdmin}

// Middleware wires role authorization helpers for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAuthenticated rejects anonymous callers.
func (m Middleware) RequireAuthenticated() func(http.Handler) http.Handler {
	return m.RequireAny()
}

// RequireAny ensures the current user holds at least one of roles. With no
// roles any authenticated user passes.
func (m Middleware) RequireAny(roles ...shared.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := shared.PrincipalFromContext(r.Context())
			if p == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if hasAnyRole(p.Role, roles) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Debug("rbac denied", slog.Int64("user_id", p.UserID), slog.String("role", string(p.Role)), slog.String("path", r.URL.Path))
			}
			httpx.RespondError(w, httpx.ErrForbidden)
		})
	}
}

// RequireStaff is RequireAny(Staff...).
func (m Middleware) RequireStaff() func(http.Handler) http.Handler {
	return m.RequireAny(Staff...)
}

// RequireCustomer admits portal users linked to a customer record.
func (m Middleware) RequireCustomer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.RequireAny(shared.RoleCustomer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p := shared.PrincipalFromContext(r.Context()); p.CustomerID == nil {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func hasAnyRole(role shared.Role, required []shared.Role) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}
