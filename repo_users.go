package identity

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var ResetUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// Users is the Bun-backed users repository. It satisfies UserStore, so it
// plugs straight into the flows, and additionally exposes the generic
// repository surface for callers that need it.
type Users interface {
	repository.Repository[*User]
	UserStore

	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	CreateIdentityTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	ResetPasswordTx(ctx context.Context, tx bun.IDB, uid string, passwordHash string) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users     = (*users)(nil)
	_ UserStore = (*users)(nil)
)

func NewUserStore(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, WrapStoreError(err, "failed to select user by email")
	}

	return record, nil
}

func (a *users) GetByUID(ctx context.Context, uid string) (*User, error) {
	id, err := uuid.Parse(uid)
	if err != nil {
		return nil, ErrUserNotFound
	}

	record := &User{}
	err = a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, WrapStoreError(err, "failed to select user by id")
	}

	return record, nil
}

func (a *users) CreateIdentity(ctx context.Context, record *User) (*User, error) {
	return a.CreateIdentityTx(ctx, a.db, record)
}

func (a *users) CreateIdentityTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	prepareUserDefaults(record)

	created, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		// The unique index on email is the last line of defense behind the
		// flow-level pre-check.
		if isUniqueViolation(err) {
			return nil, ErrEmailAlreadyInUse
		}
		return nil, WrapStoreError(err, "could not create user")
	}

	return created, nil
}

func (a *users) ResetPassword(ctx context.Context, uid string, passwordHash string) error {
	return a.ResetPasswordTx(ctx, a.db, uid, passwordHash)
}

func (a *users) ResetPasswordTx(ctx context.Context, tx bun.IDB, uid string, passwordHash string) error {
	id, err := uuid.Parse(uid)
	if err != nil {
		return ErrUserNotFound
	}

	res, err := a.Repository.RawTx(ctx, tx, ResetUserPasswordSQL, passwordHash, id.String())
	if err != nil {
		return WrapStoreError(err, "failed to update password hash")
	}

	if len(res) == 0 {
		return ErrUserNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.Email = NormalizeEmail(record.Email)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
