package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the typ claim
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Payload is the identity snapshot embedded in every token
type Payload struct {
	ID      string
	Email   string
	IsAdmin bool
}

// Claims is the JWT body. Subject holds the identity id and DeviceID is only set on refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
	Type     string `json:"typ"`
	DeviceID string `json:"device_id,omitempty"`
}

// Payload returns the identity part of the claims
func (c *Claims) Payload() Payload {
	return Payload{ID: c.Subject, Email: c.Email, IsAdmin: c.IsAdmin}
}

// IssuedAtTime is the iat claim, zero when absent
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// Pair is an access/refresh token pair returned to a client
type Pair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}
