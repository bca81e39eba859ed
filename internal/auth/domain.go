package auth

import (
	"time"

	"github.com/gearhub/gearhub/internal/shared"
)

// User represents an authenticated user account.
type User struct {
	ID             int64
	Email          string
	Name           string
	PasswordHash   string
	Role           shared.Role
	CustomerID     *int64
	CustomerStatus string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Principal converts the user into the identity carried on requests.
func (u *User) Principal() *shared.Principal {
	return &shared.Principal{UserID: u.ID, Email: u.Email, Role: u.Role, CustomerID: u.CustomerID}
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
}
