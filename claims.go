package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the request-facing view of a decoded token. The code claim,
// when present, holds a hash of the challenge code, never the plaintext.
type AuthClaims interface {
	Subject() string
	UserID() string
	ResetCode() string
	HasResetCode() bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID  string `json:"uid,omitempty"`
	Code string `json:"code,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// ResetCode returns the hashed challenge code, empty when absent.
func (c *JWTClaims) ResetCode() string {
	return c.Code
}

// HasResetCode reports whether the token was issued for the challenge step
// of a password reset.
func (c *JWTClaims) HasResetCode() bool {
	return c.Code != ""
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
