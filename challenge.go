package identity

import (
	"crypto/rand"
	"fmt"
	"math/big"

	goerrors "github.com/goliatone/go-errors"
)

// challengeCodeSpace bounds the numeric reset code: six digits, zero padded.
var challengeCodeSpace = big.NewInt(1_000_000)

// NewChallengeCode generates a uniformly distributed six digit reset code.
// The code exists only between the reset request and the code submission; it
// is never persisted, only its hash travels inside the challenge token.
func NewChallengeCode() (string, error) {
	n, err := rand.Int(rand.Reader, challengeCodeSpace)
	if err != nil {
		return "", goerrors.Wrap(err, ErrHashingFailed.Category, "failed to generate challenge code").
			WithTextCode(ErrHashingFailed.TextCode)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
