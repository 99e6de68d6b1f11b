package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type VerifyResetCodeMessage struct {
	// Claims are the decoded challenge token claims, attached to the request
	// by the authorization gate before this handler runs.
	Claims     AuthClaims
	Code       string `json:"code"`
	OnResponse func(resp *VerifyResetCodeResponse)
}

func (e VerifyResetCodeMessage) Type() string { return "user.password_reset.verify" }

type VerifyResetCodeResponse struct {
	// Token is the CODE_VERIFIED token. It carries no code claim, so it can
	// no longer pass this step; its only power is the final password update.
	Token string
}

// VerifyResetCodeHandler performs the CODE_ISSUED -> CODE_VERIFIED
// transition: compare the submitted code against the hash embedded in the
// token and, on match, exchange the token for a narrower uid-only one.
type VerifyResetCodeHandler struct {
	store  UserStore
	hasher CredentialHasher
	tokens TokenService
	logger Logger
}

func NewVerifyResetCodeHandler(store UserStore, tokens TokenService) *VerifyResetCodeHandler {
	return &VerifyResetCodeHandler{
		store:  store,
		tokens: tokens,
		hasher: NewHasher(secretHashCost()),
		logger: defLogger{},
	}
}

func (h *VerifyResetCodeHandler) WithHasher(hasher CredentialHasher) *VerifyResetCodeHandler {
	if hasher != nil {
		h.hasher = hasher
	}
	return h
}

func (h *VerifyResetCodeHandler) WithLogger(logger Logger) *VerifyResetCodeHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyResetCodeHandler) Execute(ctx context.Context, event VerifyResetCodeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during reset code verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyResetCodeHandler) execute(ctx context.Context, event VerifyResetCodeMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Claims == nil || !event.Claims.HasResetCode() {
		return ErrMalformedChallenge
	}

	if err := h.hasher.Compare(event.Code, event.Claims.ResetCode()); err != nil {
		return ErrWrongResetCode
	}

	// The account may have been deleted between steps; re-resolve it.
	user, err := h.store.GetByUID(ctx, event.Claims.UserID())
	if err != nil {
		if goerrors.Is(err, ErrUserNotFound) || goerrors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return WrapStoreError(err, "failed to retrieve user for code verification")
	}

	token, err := h.tokens.IssueReset(user.UID())
	if err != nil {
		return err
	}

	if event.OnResponse != nil {
		event.OnResponse(&VerifyResetCodeResponse{Token: token})
	}

	return nil
}
