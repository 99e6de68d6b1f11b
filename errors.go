package identity

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes surfaced in error envelopes so clients can match on a stable
// identifier rather than on the message string.
const (
	TextCodeInvalidPhone       = "INVALID_PHONE_NUMBER"
	TextCodeEmailInUse         = "EMAIL_IN_USE"
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeUserNotFound       = "USER_NOT_FOUND"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeWrongResetCode     = "WRONG_RESET_CODE"
	TextCodeMalformedChallenge = "MALFORMED_CHALLENGE"
	TextCodeHashingFailed      = "HASHING_FAILED"
	TextCodeNotificationFailed = "NOTIFICATION_FAILED"
	TextCodeEmptySecret        = "EMPTY_SECRET"
)

// ErrInvalidPhoneNumber is returned when a phone number does not match the
// supported regional format.
var ErrInvalidPhoneNumber = goerrors.New("invalid phone number", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidPhone).
	WithCode(goerrors.CodeBadRequest)

// ErrEmailAlreadyInUse is returned when registering with a taken email.
var ErrEmailAlreadyInUse = goerrors.New("email address already in use", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailInUse).
	WithCode(goerrors.CodeConflict)

// ErrInvalidCredentials covers both an unknown email and a wrong password.
// The two cases are deliberately indistinguishable to the caller.
var ErrInvalidCredentials = goerrors.New("wrong login or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrUserNotFound is returned when a reset flow references an account that
// does not exist (or no longer exists).
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrTokenExpired is the structured error for expired tokens.
var ErrTokenExpired = goerrors.New("authentication token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed covers tokens that fail signature checks or cannot be
// parsed. Callers must treat it exactly like ErrTokenExpired when responding
// to clients.
var ErrTokenMalformed = goerrors.New("authentication token is invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrWrongResetCode is returned when the submitted challenge code does not
// match the hash embedded in the reset token.
var ErrWrongResetCode = goerrors.New("reset code is wrong", goerrors.CategoryAuth).
	WithTextCode(TextCodeWrongResetCode).
	WithCode(goerrors.CodeBadRequest)

// ErrMalformedChallenge is returned when a reset step receives a token that
// carries no challenge code claim, e.g. a plain login token.
var ErrMalformedChallenge = goerrors.New("token carries no reset challenge", goerrors.CategoryBadInput).
	WithTextCode(TextCodeMalformedChallenge).
	WithCode(goerrors.CodeBadRequest)

// ErrHashingFailed signals a failure in the underlying hash function or its
// entropy source.
var ErrHashingFailed = goerrors.New("failed to hash secret", goerrors.CategoryInternal).
	WithTextCode(TextCodeHashingFailed).
	WithCode(goerrors.CodeInternal)

// ErrNoEmptyString rejects empty secrets before they reach the hasher.
var ErrNoEmptyString = goerrors.New("secret must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptySecret).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndSecret is the non-error mismatch result of Compare.
var ErrMismatchedHashAndSecret = goerrors.New("secret does not match hash", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// WrapNotificationError tags a gateway send failure. The flow step that
// triggered the send aborts with no durable state change.
func WrapNotificationError(err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to dispatch notification").
		WithTextCode(TextCodeNotificationFailed).
		WithCode(goerrors.CodeInternal)
}

// WrapStoreError tags an unexpected persistence failure.
func WrapStoreError(err error, msg string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg).
		WithCode(goerrors.CodeInternal)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
