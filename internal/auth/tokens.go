package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gearhub/gearhub/internal/shared"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevokedToken = errors.New("token revoked")
)

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID     int64  `json:"user_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	CustomerID *int64 `json:"customer_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 bearer tokens. Revoked token ids are
// kept in Redis until the token would have expired anyway.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	redis  *redis.Client
	now    func() time.Time
}

// NewTokenManager constructs a TokenManager. A nil redis client disables revocation.
func NewTokenManager(secret string, ttl time.Duration, client *redis.Client) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, redis: client, now: time.Now}
}

// Issue signs a token for the principal.
func (m *TokenManager) Issue(p *shared.Principal) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := &Claims{
		UserID:     p.UserID,
		Email:      p.Email,
		Role:       string(p.Role),
		CustomerID: p.CustomerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprint(p.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	return signed, exp, err
}

// Parse verifies the signature, expiry and revocation state of raw.
func (m *TokenManager) Parse(ctx context.Context, raw string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if m.redis != nil && claims.ID != "" {
		n, err := m.redis.Exists(ctx, revokedKey(claims.ID)).Result()
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if n > 0 {
			return nil, ErrRevokedToken
		}
	}
	return claims, nil
}

// Revoke blocks the token for the rest of its lifetime.
func (m *TokenManager) Revoke(ctx context.Context, claims *Claims) error {
	if m.redis == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return m.redis.Set(ctx, revokedKey(claims.ID), 1, ttl).Err()
}

func revokedKey(id string) string {
	return "auth:revoked:" + id
}

// Principal converts verified claims into a request principal.
func (c *Claims) Principal() *shared.Principal {
	return &shared.Principal{
		UserID:     c.UserID,
		Email:      c.Email,
		Role:       shared.Role(c.Role),
		CustomerID: c.CustomerID,
	}
}
