package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenServiceImpl implements the TokenService interface. Validation is pure:
// no I/O, no shared mutable state, safe for concurrent use.
type TokenServiceImpl struct {
	signingKey []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
}

var _ TokenService = (*TokenServiceImpl)(nil)

// NewTokenService creates a new TokenService instance. Session and reset
// tokens carry independent TTLs; non-positive values fall back to the
// historic one-year default.
func NewTokenService(signingKey []byte, sessionTTL, resetTTL time.Duration, issuer string, audience jwt.ClaimStrings, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	if sessionTTL <= 0 {
		sessionTTL = 365 * 24 * time.Hour
	}
	if resetTTL <= 0 {
		resetTTL = sessionTTL
	}
	return &TokenServiceImpl{
		signingKey: signingKey,
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
		issuer:     issuer,
		audience:   audience,
		logger:     logger,
	}
}

// NewTokenServiceFromConfig builds a TokenService from a Config. Expirations
// are expressed in hours; zero values fall back the same way NewTokenService
// falls back.
func NewTokenServiceFromConfig(cfg Config, logger Logger) *TokenServiceImpl {
	return NewTokenService(
		[]byte(cfg.GetSigningKey()),
		time.Duration(cfg.GetTokenExpiration())*time.Hour,
		time.Duration(cfg.GetResetTokenExpiration())*time.Hour,
		cfg.GetIssuer(),
		jwt.ClaimStrings(cfg.GetAudience()),
		logger,
	)
}

// IssueSession mints a uid-only token for an authenticated user.
func (ts *TokenServiceImpl) IssueSession(uid string) (string, error) {
	return ts.Issue(uid, "", ts.sessionTTL)
}

// IssueChallenge mints the CODE_ISSUED token of the reset flow. The codeHash
// argument must already be hashed; the plaintext code never enters a token.
func (ts *TokenServiceImpl) IssueChallenge(uid, codeHash string) (string, error) {
	return ts.Issue(uid, codeHash, ts.resetTTL)
}

// IssueReset mints the CODE_VERIFIED token of the reset flow. Dropping the
// code claim narrows the token's power to the final password update.
func (ts *TokenServiceImpl) IssueReset(uid string) (string, error) {
	return ts.Issue(uid, "", ts.resetTTL)
}

// Issue signs a token with the given uid, optional hashed code claim and TTL.
func (ts *TokenServiceImpl) Issue(uid, codeHash string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   uid,
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID:  uid,
		Code: codeHash,
	}

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a token string, returning structured claims.
// Expired, forged and malformed tokens all come back as an auth failure;
// callers must not surface the distinction to clients.
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate claims")
	return nil, ErrTokenMalformed
}
