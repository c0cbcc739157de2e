package identity_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	identity "github.com/goliatone/go-identity"
)

const (
	sqliteCreateAccounts = `CREATE TABLE accounts (
    id TEXT NOT NULL PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    phone TEXT UNIQUE,
    password_hash TEXT,
    refresh_token_hash TEXT,
    role TEXT NOT NULL DEFAULT 'user',
    is_verified BOOLEAN NOT NULL DEFAULT FALSE,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    profile_picture TEXT,
    provider TEXT,
    provider_id TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    deleted_at TIMESTAMP
);`

	sqliteCreateOtps = `CREATE TABLE otps (
    id TEXT NOT NULL PRIMARY KEY,
    email TEXT,
    phone TEXT,
    code TEXT NOT NULL,
    expires_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = db.Exec(sqliteCreateAccounts)
	require.NoError(t, err)
	_, err = db.Exec(sqliteCreateOtps)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func testConfig() *identity.RuntimeConfig {
	return &identity.RuntimeConfig{
		AccessSigningKey:  "access-secret-for-tests",
		RefreshSigningKey: "refresh-secret-for-tests",
		AccessTokenTTL:    15 * time.Minute,
		RefreshTokenTTL:   7 * 24 * time.Hour,
		Issuer:            "identity-tests",
	}
}

// MockGateway implements identity.NotificationGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) SendEmail(ctx context.Context, to, subject, html string) error {
	args := m.Called(ctx, to, subject, html)
	return args.Error(0)
}

func (m *MockGateway) SendSMS(ctx context.Context, to, body string) error {
	args := m.Called(ctx, to, body)
	return args.Error(0)
}

// MockSocialVerifier implements identity.SocialVerifier
type MockSocialVerifier struct {
	mock.Mock
}

func (m *MockSocialVerifier) VerifyCode(ctx context.Context, code string) (identity.SocialClaims, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(identity.SocialClaims), args.Error(1)
}

type testLogger struct {
	t *testing.T
}

func (l testLogger) Debug(format string, args ...any) { l.t.Log(append([]any{"[DBG]", format}, args...)...) }
func (l testLogger) Info(format string, args ...any)  { l.t.Log(append([]any{"[INF]", format}, args...)...) }
func (l testLogger) Warn(format string, args ...any)  { l.t.Log(append([]any{"[WRN]", format}, args...)...) }
func (l testLogger) Error(format string, args ...any) { l.t.Log(append([]any{"[ERR]", format}, args...)...) }

func newTestAuther(t *testing.T, db *bun.DB, gateway identity.NotificationGateway) *identity.Auther {
	t.Helper()

	cfg := testConfig()
	repo := identity.NewRepositoryManager(db)
	otp := identity.NewOtpLedger(db, cfg, testLogger{t})
	tokens := identity.NewTokenIssuer(cfg, testLogger{t})

	return identity.NewAuther(repo, otp, tokens, gateway).WithLogger(testLogger{t})
}
