package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gearhub/gearhub/internal/shared"
)

func serve(t *testing.T, mw func(http.Handler) http.Handler, p *shared.Principal) int {
	t.Helper()
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if p != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRequireStaff(t *testing.T) {
	m := Middleware{}
	assert.Equal(t, http.StatusUnauthorized, serve(t, m.RequireStaff(), nil))
	assert.Equal(t, http.StatusForbidden, serve(t, m.RequireStaff(), &shared.Principal{UserID: 1, Role: shared.RoleCustomer}))
	assert.Equal(t, http.StatusNoContent, serve(t, m.RequireStaff(), &shared.Principal{UserID: 1, Role: shared.RoleAdmin}))
	assert.Equal(t, http.StatusNoContent, serve(t, m.RequireStaff(), &shared.Principal{UserID: 1, Role: shared.RoleSuperAdmin}))
}

func TestRequireAuthenticated(t *testing.T) {
	m := Middleware{}
	assert.Equal(t, http.StatusUnauthorized, serve(t, m.RequireAuthenticated(), nil))
	assert.Equal(t, http.StatusNoContent, serve(t, m.RequireAuthenticated(), &shared.Principal{UserID: 3, Role: shared.RoleCustomer}))
}

func TestRequireCustomer(t *testing.T) {
	m := Middleware{}
	customerID := int64(42)
	assert.Equal(t, http.StatusForbidden, serve(t, m.RequireCustomer(), &shared.Principal{UserID: 3, Role: shared.RoleCustomer}))
	assert.Equal(t, http.StatusForbidden, serve(t, m.RequireCustomer(), &shared.Principal{UserID: 1, Role: shared.RoleAdmin, CustomerID: &customerID}))
	assert.Equal(t, http.StatusNoContent, serve(t, m.RequireCustomer(), &shared.Principal{UserID: 3, Role: shared.RoleCustomer, CustomerID: &customerID}))
}
