package identity_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	identity "github.com/goliatone/go-identity"
)

func seedAccount(t *testing.T, repo identity.Accounts, email, phone string) *identity.Account {
	t.Helper()

	hash, err := identity.HashPassword("Sup3r$ecret")
	require.NoError(t, err)

	account, err := repo.Create(context.Background(), &identity.Account{
		Name:         "Test Account",
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		IsActive:     true,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, account.ID)

	return account
}

func TestAccountsCreateDefaults(t *testing.T) {
	db := setupTestDB(t)
	repo := identity.NewAccountsRepository(db)

	account := seedAccount(t, repo, "  USER@Example.com ", "9876543210")

	assert.Equal(t, "user@example.com", account.Email)
	assert.Equal(t, identity.RoleUser, account.Role)
	assert.False(t, account.IsVerified)
}

func TestAccountsCreateDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := identity.NewAccountsRepository(db)

	seedAccount(t, repo, "user@example.com", "9876543210")

	// uniqueness is case-insensitive
	_, err := repo.Create(context.Background(), &identity.Account{
		Name:  "Duplicate",
		Email: "USER@example.com",
		Phone: "1112223333",
	})
	assert.ErrorIs(t, err, identity.ErrEmailTaken)
}

func TestAccountsCreateDuplicatePhone(t *testing.T) {
	db := setupTestDB(t)
	repo := identity.NewAccountsRepository(db)

	seedAccount(t, repo, "user@example.com", "9876543210")

	_, err := repo.Create(context.Background(), &identity.Account{
		Name:  "Duplicate",
		Email: "other@example.com",
		Phone: "9876543210",
	})
	assert.ErrorIs(t, err, identity.ErrPhoneTaken)
}

func TestAccountsByEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := identity.NewAccountsRepository(db)
	ctx := context.Background()

	created := seedAccount(t, repo, "user@example.com", "9876543210")

	got, err := repo.ByEmail(ctx, "User@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = repo.ByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, identity.ErrAccountNotFound)
}

func TestAccountsByKey(t *testing.T) {
	db := setupTestDB(t)
	repo := identity.NewAccountsRepository(db)
	ctx := context.Background()

	created := seedAccount(t, repo, "user@example.com", "9876543210")

	got, err := repo.ByKey(ctx, identity.ByPhone("9876543210"))
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	got, err = repo.ByKey(ctx, identity.ByEmailAndPhone("user@example.com", "9876543210"))
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	// both channels must match when both are present
	_, err = repo.ByKey(ctx, identity.ByEmailAndPhone("user@example.com", "0000000000"))
	assert.ErrorIs(t, err, identity.ErrAccountNotFound)

	_, err = repo.ByKey(ctx, identity.ByEmailAndPhone("", ""))
	assert.ErrorIs(t, err, identity.ErrMissingLookupKey)
}

func TestAccountsUpdateProfile(t *testing.T) {
	db := setupTestDB(t)
	repo := identity.NewAccountsRepository(db)
	ctx := context.Background()

	account := seedAccount(t, repo, "user@example.com", "9876543210")
	other := seedAccount(t, repo, "other@example.com", "1112223333")

	// keeping your own email is not a conflict
	updated, err := repo.UpdateProfile(ctx, account.ID, &identity.Account{
		Name:  "Renamed",
		Email: "user@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "user@example.com", updated.Email)

	// taking another account's email is
	_, err = repo.UpdateProfile(ctx, account.ID, &identity.Account{Email: other.Email})
	assert.ErrorIs(t, err, identity.ErrEmailTaken)

	_, err = repo.UpdateProfile(ctx, account.ID, &identity.Account{Phone: other.Phone})
	assert.ErrorIs(t, err, identity.ErrPhoneTaken)
}

func TestAccountsSetPassword(t *testing.T) {
	db := setupTestDB(t)
	repo := identity.NewAccountsRepository(db)
	ctx := context.Background()

	account := seedAccount(t, repo, "user@example.com", "9876543210")

	newHash, err := identity.HashPassword("N3w$ecret!")
	require.NoError(t, err)

	require.NoError(t, repo.SetPassword(ctx, account.ID, newHash))

	got, err := repo.ByEmail(ctx, account.Email)
	require.NoError(t, err)
	assert.NoError(t, identity.ComparePasswordAndHash("N3w$ecret!", got.PasswordHash))

	err = repo.SetPassword(ctx, uuid.New(), newHash)
	assert.ErrorIs(t, err, identity.ErrAccountNotFound)
}

func TestAccountsMarkVerified(t *testing.T) {
	db := setupTestDB(t)
	repo := identity.NewAccountsRepository(db)
	ctx := context.Background()

	account := seedAccount(t, repo, "user@example.com", "9876543210")
	require.False(t, account.IsVerified)

	_, err := repo.MarkVerified(ctx, account.ID)
	require.NoError(t, err)

	got, err := repo.ByEmail(ctx, account.Email)
	require.NoError(t, err)
	assert.True(t, got.IsVerified)
}

func TestAccountsRemove(t *testing.T) {
	db := setupTestDB(t)
	repo := identity.NewAccountsRepository(db)
	ctx := context.Background()

	account := seedAccount(t, repo, "user@example.com", "9876543210")

	require.NoError(t, repo.Remove(ctx, account.ID))

	_, err := repo.ByEmail(ctx, account.Email)
	assert.ErrorIs(t, err, identity.ErrAccountNotFound)

	assert.ErrorIs(t, repo.Remove(ctx, account.ID), identity.ErrAccountNotFound)
}

func TestAccountsRotateRefreshHash(t *testing.T) {
	db := setupTestDB(t)
	repo := identity.NewAccountsRepository(db)
	ctx := context.Background()

	account := seedAccount(t, repo, "user@example.com", "9876543210")

	require.NoError(t, repo.StoreRefreshHash(ctx, account.ID, "hash-1"))

	// rotation succeeds while the stored hash matches
	require.NoError(t, repo.RotateRefreshHash(ctx, account.ID, "hash-1", "hash-2"))

	// the stale hash no longer rotates
	err := repo.RotateRefreshHash(ctx, account.ID, "hash-1", "hash-3")
	assert.ErrorIs(t, err, identity.ErrRefreshReuse)

	got, err := repo.ByEmail(ctx, account.Email)
	require.NoError(t, err)
	assert.Equal(t, "hash-2", got.RefreshTokenHash)
}

func TestRepositoryManagerValidate(t *testing.T) {
	db := setupTestDB(t)
	repo := identity.NewRepositoryManager(db)

	assert.NoError(t, repo.Validate())
	assert.NotNil(t, repo.Accounts())
	assert.NotNil(t, repo.Otps())
}

func TestRepositoryManagerRunInTx(t *testing.T) {
	db := setupTestDB(t)
	repo := identity.NewRepositoryManager(db)
	ctx := context.Background()

	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := repo.Accounts().CreateTx(ctx, tx, &identity.Account{
			Name:  "In Tx",
			Email: "tx@example.com",
		})
		return err
	})
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = repo.RunInTx(cancelled, nil, func(ctx context.Context, tx bun.Tx) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
