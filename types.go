package identity

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Authenticator holds methods to deal with primary authentication
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// CredentialHasher is a one way hasher used for passwords and reset codes.
// Both secret types go through the same algorithm; there is no distinction
// between hashing a password and hashing a challenge code.
type CredentialHasher interface {
	Hash(secret string) (string, error)
	Compare(secret, hash string) error
}

// TokenService issues and validates the signed bearer tokens that carry all
// authentication state in this package.
type TokenService interface {
	// IssueSession mints a uid-only token with the session TTL.
	IssueSession(uid string) (string, error)
	// IssueChallenge mints a reset token carrying a hashed challenge code.
	IssueChallenge(uid, codeHash string) (string, error)
	// IssueReset mints a uid-only token with the reset TTL, used after a
	// challenge code has been verified.
	IssueReset(uid string) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// UserStore is the persistence boundary the flows depend on. The record is
// never cached beyond a single request.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUID(ctx context.Context, uid string) (*User, error)
	CreateIdentity(ctx context.Context, record *User) (*User, error)
	ResetPassword(ctx context.Context, uid string, passwordHash string) error
}

// NotificationGateway delivers out of band messages (reset codes) to users.
type NotificationGateway interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// Config holds identity options
type Config interface {
	GetSigningKey() string
	GetContextKey() string
	GetTokenExpiration() int
	GetResetTokenExpiration() int
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
