package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// Auther implements primary authentication against a UserStore.
type Auther struct {
	store  UserStore
	hasher CredentialHasher
	tokens TokenService
	logger Logger
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(store UserStore, tokens TokenService) *Auther {
	return &Auther{
		store:  store,
		tokens: tokens,
		hasher: NewHasher(secretHashCost()),
		logger: defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithHasher overrides the credential hasher, e.g. to lower the cost in tests.
func (s *Auther) WithHasher(hasher CredentialHasher) *Auther {
	if hasher != nil {
		s.hasher = hasher
	}
	return s
}

// Login verifies the email/password pair and returns a signed session token.
// An unknown email and a wrong password produce the same ErrInvalidCredentials
// so the response does not leak which factor failed.
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if goerrors.Is(err, ErrUserNotFound) || goerrors.IsNotFound(err) {
			return "", ErrInvalidCredentials
		}
		s.logger.Error("Login user lookup error", "error", err)
		return "", WrapStoreError(err, "failed to retrieve user during login")
	}

	if err := s.hasher.Compare(password, user.PasswordHash); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.IssueSession(user.UID())
	if err != nil {
		s.logger.Error("Login token issuance error", "error", err)
		return "", err
	}

	return token, nil
}
