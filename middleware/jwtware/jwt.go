// Package jwtware is the authorization gate: it extracts a bearer token from
// the Authorization header, validates it, and attaches the decoded claims to
// the request before any protected handler runs. A missing, malformed or
// expired token short-circuits the request with the same 401 response.
package jwtware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

var (
	// DefaultContextKey is where validated claims are stored in request locals.
	DefaultContextKey = "claims"
	// DefaultAuthScheme is the expected Authorization header scheme.
	DefaultAuthScheme = "Bearer"

	ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")
)

// AuthClaims interface for structured claims without import cycles
// This mirrors the AuthClaims interface from the identity package
type AuthClaims interface {
	Subject() string
	UserID() string
	ResetCode() string
	HasResetCode() bool
	Expires() time.Time
	IssuedAt() time.Time
}

// TokenValidator interface for validating tokens without import cycles
// This mirrors the TokenService.Validate method from the identity package
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

type Config struct {
	// Filter skips the gate for matching requests.
	Filter func(*fiber.Ctx) bool
	// ErrorHandler converts extraction/validation failures into a response.
	// The default collapses every failure into one 401 envelope.
	ErrorHandler fiber.ErrorHandler
	// ContextKey is the locals key the decoded claims are stored under.
	ContextKey string
	// AuthScheme is the Authorization header scheme, normally Bearer.
	AuthScheme string
	// TokenValidator is required for token validation
	TokenValidator TokenValidator
	// ContextEnricher propagates claims to the standard Go context. If
	// provided it is called after successful validation and its result
	// replaces the request's user context.
	ContextEnricher func(ctx context.Context, claims AuthClaims) context.Context
}

func configDefaults(config ...Config) Config {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = DefaultAuthScheme
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}
	if cfg.TokenValidator == nil {
		panic("jwtware: missing TokenValidator")
	}

	return cfg
}

// New creates the gate middleware.
func New(config ...Config) fiber.Handler {
	cfg := configDefaults(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := ExtractRawToken(c, cfg.AuthScheme)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		claims, err := cfg.TokenValidator.Validate(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, claims)

		if cfg.ContextEnricher != nil {
			c.SetUserContext(cfg.ContextEnricher(c.UserContext(), claims))
		}

		return c.Next()
	}
}

// ExtractRawToken pulls the bearer token out of the Authorization header.
func ExtractRawToken(c *fiber.Ctx, authScheme string) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", ErrJWTMissingOrMalformed
	}

	if authScheme == "" {
		return header, nil
	}

	prefix := authScheme + " "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrJWTMissingOrMalformed
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrJWTMissingOrMalformed
	}

	return token, nil
}

// ClaimsFromLocals recovers the claims stored by the gate, using the default
// context key.
func ClaimsFromLocals(c *fiber.Ctx, key string) (AuthClaims, bool) {
	if key == "" {
		key = DefaultContextKey
	}
	claims, ok := c.Locals(key).(AuthClaims)
	return claims, ok
}

// defaultErrorHandler answers every gate failure identically. Whether the
// token was absent, forged, malformed or expired is not leaked to clients.
func defaultErrorHandler(c *fiber.Ctx, _ error) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"meta": fiber.Map{
			"status": fiber.StatusUnauthorized,
			"error": fiber.Map{
				"code":    fiber.StatusUnauthorized,
				"message": "Unauthenticated",
			},
		},
		"data": fiber.Map{},
	})
}
