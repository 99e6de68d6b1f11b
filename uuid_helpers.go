package identity

import (
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// NewUID returns a fresh random uid for a new identity.
func NewUID() uuid.UUID {
	return uuid.New()
}

// DeterministicUID derives a stable uid from an email address, for callers
// that need reproducible ids across environments (fixtures, imports).
func DeterministicUID(email string) (uuid.UUID, error) {
	return hashid.NewUUID(NormalizeEmail(email))
}

// IsUID reports whether the value parses as a uid.
func IsUID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}
