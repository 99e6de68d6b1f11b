package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type RegisterUserMessage struct {
	FirstName      string `json:"name"`
	LastName       string `json:"surname"`
	Email          string `json:"email"`
	Phone          string `json:"telephone"`
	Password       string `json:"password"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	UseHashid      bool   `json:"-"`
	OnResponse     func(resp *RegisterUserResponse)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserResponse struct {
	User *User
}

// RegisterUserHandler creates new accounts. Each step is a hard gate: phone
// format, email uniqueness, password hashing, uid assignment, persistence.
// The first failure aborts with no state written.
type RegisterUserHandler struct {
	store  UserStore
	hasher CredentialHasher
	logger Logger
}

func NewRegisterUserHandler(store UserStore, hasher CredentialHasher, logger Logger) *RegisterUserHandler {
	if hasher == nil {
		hasher = NewHasher(secretHashCost())
	}
	if logger == nil {
		logger = defLogger{}
	}
	return &RegisterUserHandler{store: store, hasher: hasher, logger: logger}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if !IsValidPhoneNumber(event.Phone) {
		return ErrInvalidPhoneNumber
	}

	email := NormalizeEmail(event.Email)

	if _, err := h.store.GetByEmail(ctx, email); err == nil {
		return ErrEmailAlreadyInUse
	} else if !goerrors.Is(err, ErrUserNotFound) && !goerrors.IsNotFound(err) {
		return WrapStoreError(err, "failed to check email uniqueness")
	}

	hash, err := h.hasher.Hash(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		FirstName:      event.FirstName,
		LastName:       event.LastName,
		Email:          email,
		Phone:          NormalizePhoneNumber(event.Phone),
		ProfilePicture: event.ProfilePicture,
		PasswordHash:   hash,
		ID:             NewUID(),
	}

	if event.UseHashid {
		if id, err := DeterministicUID(email); err == nil {
			user.ID = id
		}
	}

	created, err := h.store.CreateIdentity(ctx, user)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
	}

	if event.OnResponse != nil {
		event.OnResponse(&RegisterUserResponse{User: created})
	}

	return nil
}
