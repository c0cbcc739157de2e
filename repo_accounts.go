package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var setAccountPasswordSQL = `UPDATE "accounts" AS "acc"
SET
	"password_hash" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"acc"."deleted_at" IS NULL
AND (
	"acc"."id" = ?
) RETURNING *;`

type Accounts interface {
	repository.Repository[*Account]

	ByEmail(ctx context.Context, email string) (*Account, error)
	ByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)
	ByKey(ctx context.Context, key LookupKey) (*Account, error)
	ByKeyTx(ctx context.Context, tx bun.IDB, key LookupKey) (*Account, error)

	Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, record *Account) (*Account, error)
	Remove(ctx context.Context, id uuid.UUID) error

	SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error
	MarkVerified(ctx context.Context, id uuid.UUID) (*Account, error)

	StoreRefreshHash(ctx context.Context, id uuid.UUID, hash string) error
	RotateRefreshHash(ctx context.Context, id uuid.UUID, currentHash, nextHash string) error
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) ByEmail(ctx context.Context, email string) (*Account, error) {
	return a.ByEmailTx(ctx, a.db, email)
}

func (a *accounts) ByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("lower(?TableAlias.email) = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) ByKey(ctx context.Context, key LookupKey) (*Account, error) {
	return a.ByKeyTx(ctx, a.db, key)
}

// ByKeyTx resolves an account by email, phone, or both. Matching mirrors
// the lookup semantics of the OTP ledger: when both channels are present
// both must match.
func (a *accounts) ByKeyTx(ctx context.Context, tx bun.IDB, key LookupKey) (*Account, error) {
	if key.IsZero() {
		return nil, ErrMissingLookupKey
	}

	record := &Account{}
	q := tx.NewSelect().Model(record)

	if key.HasEmail() {
		q = q.Where("lower(?TableAlias.email) = ?", key.Email())
	}
	if key.HasPhone() {
		q = q.Where("?TableAlias.phone = ?", key.Phone())
	}

	if err := q.Limit(1).Scan(ctx); err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	prepareAccountDefaults(record)

	if err := a.ensureUnique(ctx, tx, record.Email, record.Phone, uuid.Nil); err != nil {
		return nil, err
	}

	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

// UpdateProfile applies a partial update. Email and phone changes re-check
// uniqueness, excluding the record's own id.
func (a *accounts) UpdateProfile(ctx context.Context, id uuid.UUID, record *Account) (*Account, error) {
	if record.Email != "" {
		record.Email = NormalizeEmail(record.Email)
	}

	if err := a.ensureUnique(ctx, a.db, record.Email, record.Phone, id); err != nil {
		return nil, err
	}

	record.ID = id
	return a.Repository.UpdateTx(ctx, a.db, record, repository.UpdateByID(id.String()), repository.UpdateSkipZeroValues())
}

// Remove hard-deletes the account record.
func (a *accounts) Remove(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*Account)(nil)).
		Where("id = ?", id.String()).
		ForceDelete().
		Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAccountNotFound
	}

	return nil
}

func (a *accounts) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.SetPasswordTx(ctx, a.db, id, passwordHash)
}

func (a *accounts) SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := a.Repository.RawTx(ctx, tx, setAccountPasswordSQL, passwordHash, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// MarkVerified transitions the account to verified. The transition is
// one-way: there is no path back to unverified.
func (a *accounts) MarkVerified(ctx context.Context, id uuid.UUID) (*Account, error) {
	now := time.Now()
	record := &Account{
		ID:         id,
		IsVerified: true,
		UpdatedAt:  &now,
	}
	return a.Repository.UpdateTx(ctx, a.db, record, repository.UpdateByID(id.String()), repository.UpdateSkipZeroValues())
}

func (a *accounts) StoreRefreshHash(ctx context.Context, id uuid.UUID, hash string) error {
	_, err := a.db.NewUpdate().
		Model((*Account)(nil)).
		Set("refresh_token_hash = ?", hash).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id.String()).
		Exec(ctx)
	return err
}

// RotateRefreshHash overwrites the stored refresh hash only if it still
// holds the expected current value. The update is a single statement so
// two concurrent refresh calls presenting the same token cannot both
// rotate: the loser sees zero rows and gets the replay rejection.
func (a *accounts) RotateRefreshHash(ctx context.Context, id uuid.UUID, currentHash, nextHash string) error {
	res, err := a.db.NewUpdate().
		Model((*Account)(nil)).
		Set("refresh_token_hash = ?", nextHash).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id.String()).
		Where("refresh_token_hash = ?", currentHash).
		Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRefreshReuse
	}

	return nil
}

func (a *accounts) ensureUnique(ctx context.Context, tx bun.IDB, email, phone string, selfID uuid.UUID) error {
	if email != "" {
		q := tx.NewSelect().
			Model((*Account)(nil)).
			Where("lower(email) = ?", NormalizeEmail(email))
		if selfID != uuid.Nil {
			q = q.Where("id != ?", selfID.String())
		}
		if exists, err := q.Exists(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "email uniqueness check failed")
		} else if exists {
			return ErrEmailTaken
		}
	}

	if phone != "" {
		q := tx.NewSelect().
			Model((*Account)(nil)).
			Where("phone = ?", phone)
		if selfID != uuid.Nil {
			q = q.Where("id != ?", selfID.String())
		}
		if exists, err := q.Exists(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "phone uniqueness check failed")
		} else if exists {
			return ErrPhoneTaken
		}
	}

	return nil
}
