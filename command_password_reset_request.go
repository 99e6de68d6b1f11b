package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// resetCodeSubject is the subject line used for challenge code emails.
const resetCodeSubject = "RESET CODE"

type RequestPasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *RequestPasswordResetResponse)
}

func (e RequestPasswordResetMessage) Type() string { return "user.password_reset.request" }

type RequestPasswordResetResponse struct {
	// Token is the CODE_ISSUED challenge token. It is the sole carrier of
	// reset session state; if the client loses it the flow restarts.
	Token string
}

// RequestPasswordResetHandler performs the first transition of the reset
// state machine (REQUESTED -> CODE_ISSUED): generate a one-time code, embed
// its hash in a signed token, and mail the plaintext code to the account
// owner. A failed dispatch aborts the step and no token is handed out.
type RequestPasswordResetHandler struct {
	store    UserStore
	hasher   CredentialHasher
	tokens   TokenService
	notifier NotificationGateway
	logger   Logger
}

func NewRequestPasswordResetHandler(store UserStore, tokens TokenService, notifier NotificationGateway) *RequestPasswordResetHandler {
	return &RequestPasswordResetHandler{
		store:    store,
		tokens:   tokens,
		notifier: notifier,
		hasher:   NewHasher(secretHashCost()),
		logger:   defLogger{},
	}
}

func (h *RequestPasswordResetHandler) WithHasher(hasher CredentialHasher) *RequestPasswordResetHandler {
	if hasher != nil {
		h.hasher = hasher
	}
	return h
}

func (h *RequestPasswordResetHandler) WithLogger(logger Logger) *RequestPasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RequestPasswordResetHandler) Execute(ctx context.Context, event RequestPasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestPasswordResetHandler) execute(ctx context.Context, event RequestPasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.store.GetByEmail(ctx, NormalizeEmail(event.Email))
	if err != nil {
		if goerrors.Is(err, ErrUserNotFound) || goerrors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return WrapStoreError(err, "failed to retrieve user for password reset")
	}

	code, err := NewChallengeCode()
	if err != nil {
		return err
	}

	codeHash, err := h.hasher.Hash(code)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash challenge code")
	}

	token, err := h.tokens.IssueChallenge(user.UID(), codeHash)
	if err != nil {
		return err
	}

	if err := h.notifier.Send(ctx, user.Email, resetCodeSubject, code); err != nil {
		h.logger.Error("password reset notification failed", "error", err)
		return WrapNotificationError(err)
	}

	if event.OnResponse != nil {
		event.OnResponse(&RequestPasswordResetResponse{Token: token})
	}

	return nil
}
