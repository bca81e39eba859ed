package shared

import "context"

// Role is the authorisation role carried by a bearer token.
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleCustomer   Role = "customer"
)

// Principal identifies the authenticated caller.
type Principal struct {
	UserID     int64
	Email      string
	Role       Role
	CustomerID *int64
}

// IsStaff reports whether the principal may use back-office features,
// including seeing dealer prices.
func (p *Principal) IsStaff() bool {
	return p != nil && (p.Role == RoleAdmin || p.Role == RoleSuperAdmin)
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}

// ActorID returns the principal's user id or zero for anonymous callers.
func ActorID(ctx context.Context) int64 {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.UserID
	}
	return 0
}
