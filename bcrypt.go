package identity

import (
	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// Hasher is the bcrypt-backed CredentialHasher. The salt is generated per
// call and embedded in the output, so no separate salt storage exists.
// Passwords and reset challenge codes are hashed identically.
type Hasher struct {
	cost int
}

var _ CredentialHasher = (*Hasher)(nil)

// NewHasher creates a Hasher with the given bcrypt cost. Costs outside the
// bcrypt range fall back to the package default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = secretHashCost()
	}
	return &Hasher{cost: cost}
}

// Hash will generate a salted hash for the given secret
func (h *Hasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrNoEmptyString
	}

	out, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", goerrors.Wrap(err, ErrHashingFailed.Category, ErrHashingFailed.Message).
			WithTextCode(ErrHashingFailed.TextCode)
	}
	return string(out), nil
}

// Compare validates the given cleartext secret against a hash. A mismatch is
// reported as ErrMismatchedHashAndSecret, never as a panic or internal error.
func (h *Hasher) Compare(secret, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		// Corrupt hashes and plain mismatches are indistinguishable to callers.
		return ErrMismatchedHashAndSecret
	}
	return nil
}

// HashSecret will generate a hash using the default cost
func HashSecret(secret string) (string, error) {
	return NewHasher(secretHashCost()).Hash(secret)
}

// CompareSecretAndHash will validate the given cleartext secret matches the
// hashed secret
func CompareSecretAndHash(secret, hash string) error {
	return NewHasher(secretHashCost()).Compare(secret, hash)
}
