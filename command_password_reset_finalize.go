package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type FinalizePasswordResetMessage struct {
	// Claims are the decoded CODE_VERIFIED token claims.
	Claims     AuthClaims
	Password   string `json:"password"`
	OnResponse func(resp *FinalizePasswordResetResponse)
}

func (e FinalizePasswordResetMessage) Type() string { return "user.password_reset.finalize" }

type FinalizePasswordResetResponse struct {
	Success bool
}

// FinalizePasswordResetHandler performs the terminal COMPLETED transition:
// hash the new password and persist it. This is the only durable mutation in
// the entire reset flow. The token is not invalidated afterwards, so a
// still-unexpired token may repeat this step (re-setting the same password).
type FinalizePasswordResetHandler struct {
	store  UserStore
	hasher CredentialHasher
	logger Logger
}

func NewFinalizePasswordResetHandler(store UserStore) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		store:  store,
		hasher: NewHasher(secretHashCost()),
		logger: defLogger{},
	}
}

func (h *FinalizePasswordResetHandler) WithHasher(hasher CredentialHasher) *FinalizePasswordResetHandler {
	if hasher != nil {
		h.hasher = hasher
	}
	return h
}

func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Claims == nil || event.Claims.UserID() == "" {
		return ErrTokenMalformed
	}

	hash, err := h.hasher.Hash(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash new password")
	}

	if err := h.store.ResetPassword(ctx, event.Claims.UserID(), hash); err != nil {
		if goerrors.Is(err, ErrUserNotFound) || goerrors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return WrapStoreError(err, "failed to update password")
	}

	if event.OnResponse != nil {
		event.OnResponse(&FinalizePasswordResetResponse{Success: true})
	}

	return nil
}
