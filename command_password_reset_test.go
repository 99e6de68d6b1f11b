package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	identity "github.com/lernago/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, store *memUserStore, email, password string) *identity.User {
	t.Helper()

	hash, err := testHasher().Hash(password)
	require.NoError(t, err)

	user := &identity.User{
		ID:           uuid.New(),
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        email,
		Phone:        "+374 12345678",
		PasswordHash: hash,
	}

	_, err = store.CreateIdentity(context.Background(), user)
	require.NoError(t, err)
	return user
}

func TestRequestPasswordResetHandler(t *testing.T) {
	ctx := context.Background()
	hasher := testHasher()
	tokens := newTestTokenService()

	t.Run("issues a challenge token and mails the code", func(t *testing.T) {
		store := newMemUserStore()
		gateway := &recordingGateway{}
		user := seedUser(t, store, "ada@example.com", "oldPassword1")

		handler := identity.NewRequestPasswordResetHandler(store, tokens, gateway).
			WithHasher(hasher)

		var resp *identity.RequestPasswordResetResponse
		err := handler.Execute(ctx, identity.RequestPasswordResetMessage{
			Email:      "ada@example.com",
			OnResponse: func(r *identity.RequestPasswordResetResponse) { resp = r },
		})
		require.NoError(t, err)
		require.NotNil(t, resp)
		require.NotEmpty(t, resp.Token)

		assert.Equal(t, 1, gateway.Sent)
		assert.Equal(t, "ada@example.com", gateway.Recipient)
		assert.Equal(t, "RESET CODE", gateway.Subject)
		assert.Regexp(t, `^\d{6}$`, gateway.Body)

		claims, err := tokens.Validate(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, user.UID(), claims.UserID())
		assert.True(t, claims.HasResetCode())

		// The token carries a hash of the code, never the plaintext
		assert.NotEqual(t, gateway.Body, claims.ResetCode())
		assert.NotContains(t, resp.Token, gateway.Body)
		assert.NoError(t, hasher.Compare(gateway.Body, claims.ResetCode()))
	})

	t.Run("unknown email yields user not found", func(t *testing.T) {
		store := newMemUserStore()
		gateway := &recordingGateway{}

		handler := identity.NewRequestPasswordResetHandler(store, tokens, gateway).
			WithHasher(hasher)

		err := handler.Execute(ctx, identity.RequestPasswordResetMessage{
			Email: "nobody@example.com",
		})
		assert.ErrorIs(t, err, identity.ErrUserNotFound)
		assert.Equal(t, 0, gateway.Sent)
	})

	t.Run("failed dispatch aborts with no token", func(t *testing.T) {
		store := newMemUserStore()
		seedUser(t, store, "ada@example.com", "oldPassword1")

		notifier := new(MockNotificationGateway)
		notifier.On("Send", mock.Anything, "ada@example.com", "RESET CODE", mock.Anything).
			Return(errors.New("smtp: connection refused")).Once()

		logger := &MockLogger{}
		logger.On("Error", mock.AnythingOfType("string"), mock.Anything).Maybe()

		handler := identity.NewRequestPasswordResetHandler(store, tokens, notifier).
			WithHasher(hasher).
			WithLogger(logger)

		responded := false
		err := handler.Execute(ctx, identity.RequestPasswordResetMessage{
			Email:      "ada@example.com",
			OnResponse: func(*identity.RequestPasswordResetResponse) { responded = true },
		})

		assert.Error(t, err)
		assert.False(t, responded)
		notifier.AssertExpectations(t)
	})
}

func TestVerifyResetCodeHandler(t *testing.T) {
	ctx := context.Background()
	hasher := testHasher()
	tokens := newTestTokenService()

	issueChallenge := func(t *testing.T, store *memUserStore, email string) (string, identity.AuthClaims) {
		t.Helper()

		gateway := &recordingGateway{}
		handler := identity.NewRequestPasswordResetHandler(store, tokens, gateway).
			WithHasher(hasher)

		var resp *identity.RequestPasswordResetResponse
		require.NoError(t, handler.Execute(ctx, identity.RequestPasswordResetMessage{
			Email:      email,
			OnResponse: func(r *identity.RequestPasswordResetResponse) { resp = r },
		}))

		claims, err := tokens.Validate(resp.Token)
		require.NoError(t, err)
		return gateway.Body, claims
	}

	t.Run("exchanges a correct code for a narrowed token", func(t *testing.T) {
		store := newMemUserStore()
		user := seedUser(t, store, "ada@example.com", "oldPassword1")
		code, claims := issueChallenge(t, store, "ada@example.com")

		handler := identity.NewVerifyResetCodeHandler(store, tokens).WithHasher(hasher)

		var resp *identity.VerifyResetCodeResponse
		err := handler.Execute(ctx, identity.VerifyResetCodeMessage{
			Claims:     claims,
			Code:       code,
			OnResponse: func(r *identity.VerifyResetCodeResponse) { resp = r },
		})
		require.NoError(t, err)
		require.NotNil(t, resp)

		narrowed, err := tokens.Validate(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, user.UID(), narrowed.UserID())
		assert.False(t, narrowed.HasResetCode())
	})

	t.Run("wrong code is rejected", func(t *testing.T) {
		store := newMemUserStore()
		seedUser(t, store, "ada@example.com", "oldPassword1")
		code, claims := issueChallenge(t, store, "ada@example.com")

		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}

		handler := identity.NewVerifyResetCodeHandler(store, tokens).WithHasher(hasher)

		err := handler.Execute(ctx, identity.VerifyResetCodeMessage{
			Claims: claims,
			Code:   wrong,
		})
		assert.ErrorIs(t, err, identity.ErrWrongResetCode)
	})

	t.Run("login token cannot pass the code step", func(t *testing.T) {
		store := newMemUserStore()
		user := seedUser(t, store, "ada@example.com", "oldPassword1")

		sessionToken, err := tokens.IssueSession(user.UID())
		require.NoError(t, err)
		claims, err := tokens.Validate(sessionToken)
		require.NoError(t, err)

		handler := identity.NewVerifyResetCodeHandler(store, tokens).WithHasher(hasher)

		err = handler.Execute(ctx, identity.VerifyResetCodeMessage{
			Claims: claims,
			Code:   "123456",
		})
		assert.ErrorIs(t, err, identity.ErrMalformedChallenge)
	})

	t.Run("verified token cannot be replayed against the code step", func(t *testing.T) {
		store := newMemUserStore()
		user := seedUser(t, store, "ada@example.com", "oldPassword1")

		narrowedToken, err := tokens.IssueReset(user.UID())
		require.NoError(t, err)
		claims, err := tokens.Validate(narrowedToken)
		require.NoError(t, err)

		handler := identity.NewVerifyResetCodeHandler(store, tokens).WithHasher(hasher)

		err = handler.Execute(ctx, identity.VerifyResetCodeMessage{
			Claims: claims,
			Code:   "123456",
		})
		assert.ErrorIs(t, err, identity.ErrMalformedChallenge)
	})

	t.Run("missing claims are rejected", func(t *testing.T) {
		store := newMemUserStore()
		handler := identity.NewVerifyResetCodeHandler(store, tokens).WithHasher(hasher)

		err := handler.Execute(ctx, identity.VerifyResetCodeMessage{Code: "123456"})
		assert.ErrorIs(t, err, identity.ErrMalformedChallenge)
	})

	t.Run("deleted account yields user not found", func(t *testing.T) {
		store := newMemUserStore()
		seedUser(t, store, "ada@example.com", "oldPassword1")
		code, claims := issueChallenge(t, store, "ada@example.com")

		// Simulate deletion between the request and the verification
		empty := newMemUserStore()
		handler := identity.NewVerifyResetCodeHandler(empty, tokens).WithHasher(hasher)

		err := handler.Execute(ctx, identity.VerifyResetCodeMessage{
			Claims: claims,
			Code:   code,
		})
		assert.ErrorIs(t, err, identity.ErrUserNotFound)
	})
}

func TestFinalizePasswordResetHandler(t *testing.T) {
	ctx := context.Background()
	hasher := testHasher()
	tokens := newTestTokenService()

	t.Run("updates the stored password hash", func(t *testing.T) {
		store := newMemUserStore()
		user := seedUser(t, store, "ada@example.com", "oldPassword1")
		oldHash := user.PasswordHash

		resetToken, err := tokens.IssueReset(user.UID())
		require.NoError(t, err)
		claims, err := tokens.Validate(resetToken)
		require.NoError(t, err)

		handler := identity.NewFinalizePasswordResetHandler(store).WithHasher(hasher)

		var resp *identity.FinalizePasswordResetResponse
		err = handler.Execute(ctx, identity.FinalizePasswordResetMessage{
			Claims:     claims,
			Password:   "newPassword2",
			OnResponse: func(r *identity.FinalizePasswordResetResponse) { resp = r },
		})
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.True(t, resp.Success)

		stored, err := store.GetByUID(ctx, user.UID())
		require.NoError(t, err)
		assert.NotEqual(t, oldHash, stored.PasswordHash)
		assert.NoError(t, hasher.Compare("newPassword2", stored.PasswordHash))
		assert.Error(t, hasher.Compare("oldPassword1", stored.PasswordHash))
	})

	t.Run("missing claims are rejected", func(t *testing.T) {
		store := newMemUserStore()
		handler := identity.NewFinalizePasswordResetHandler(store).WithHasher(hasher)

		err := handler.Execute(ctx, identity.FinalizePasswordResetMessage{
			Password: "newPassword2",
		})
		assert.ErrorIs(t, err, identity.ErrTokenMalformed)
	})

	t.Run("unknown uid yields user not found", func(t *testing.T) {
		store := newMemUserStore()
		handler := identity.NewFinalizePasswordResetHandler(store).WithHasher(hasher)

		resetToken, err := tokens.IssueReset(uuid.NewString())
		require.NoError(t, err)
		claims, err := tokens.Validate(resetToken)
		require.NoError(t, err)

		err = handler.Execute(ctx, identity.FinalizePasswordResetMessage{
			Claims:   claims,
			Password: "newPassword2",
		})
		assert.ErrorIs(t, err, identity.ErrUserNotFound)
	})
}

// TestPasswordResetRoundTrip walks the full stateless reset flow, each step
// carrying over only the token returned by the previous one.
func TestPasswordResetRoundTrip(t *testing.T) {
	ctx := context.Background()
	hasher := testHasher()
	tokens := newTestTokenService()

	store := newMemUserStore()
	gateway := &recordingGateway{}
	user := seedUser(t, store, "ada@example.com", "oldPassword1")

	request := identity.NewRequestPasswordResetHandler(store, tokens, gateway).WithHasher(hasher)
	verify := identity.NewVerifyResetCodeHandler(store, tokens).WithHasher(hasher)
	finalize := identity.NewFinalizePasswordResetHandler(store).WithHasher(hasher)
	authenticator := identity.NewAuthenticator(store, tokens).WithHasher(hasher)

	// Step 1: request the reset, receive the challenge token and the code
	var challenge *identity.RequestPasswordResetResponse
	require.NoError(t, request.Execute(ctx, identity.RequestPasswordResetMessage{
		Email:      "ada@example.com",
		OnResponse: func(r *identity.RequestPasswordResetResponse) { challenge = r },
	}))
	require.NotNil(t, challenge)
	code := gateway.Body

	// Step 2: submit the mailed code, receive the narrowed token
	challengeClaims, err := tokens.Validate(challenge.Token)
	require.NoError(t, err)

	var verified *identity.VerifyResetCodeResponse
	require.NoError(t, verify.Execute(ctx, identity.VerifyResetCodeMessage{
		Claims:     challengeClaims,
		Code:       code,
		OnResponse: func(r *identity.VerifyResetCodeResponse) { verified = r },
	}))
	require.NotNil(t, verified)

	// Step 3: set the new password using the narrowed token
	resetClaims, err := tokens.Validate(verified.Token)
	require.NoError(t, err)

	var done *identity.FinalizePasswordResetResponse
	require.NoError(t, finalize.Execute(ctx, identity.FinalizePasswordResetMessage{
		Claims:     resetClaims,
		Password:   "newPassword2",
		OnResponse: func(r *identity.FinalizePasswordResetResponse) { done = r },
	}))
	require.NotNil(t, done)
	assert.True(t, done.Success)

	// The old password no longer works, the new one does
	_, err = authenticator.Login(ctx, "ada@example.com", "oldPassword1")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	sessionToken, err := authenticator.Login(ctx, "ada@example.com", "newPassword2")
	require.NoError(t, err)

	claims, err := tokens.Validate(sessionToken)
	require.NoError(t, err)
	assert.Equal(t, user.UID(), claims.UserID())
}
