package identity_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	identity "github.com/goliatone/go-identity"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", identity.NormalizeEmail(" User@Example.COM "))
	assert.Equal(t, "", identity.NormalizeEmail("   "))
}

func TestAccountHasPassword(t *testing.T) {
	var missing *identity.Account
	assert.False(t, missing.HasPassword())

	assert.False(t, (&identity.Account{}).HasPassword())
	assert.True(t, (&identity.Account{PasswordHash: "$argon2id$..."}).HasPassword())
}

func TestAccountSummary(t *testing.T) {
	id := uuid.New()
	account := &identity.Account{
		ID:           id,
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		Phone:        "9876543210",
		PasswordHash: "secret-hash",
		IsVerified:   true,
	}

	summary := account.Summary()
	assert.Equal(t, id.String(), summary.ID)
	assert.Equal(t, "Ada Lovelace", summary.Name)
	assert.Equal(t, "ada@example.com", summary.Email)
	assert.Equal(t, "9876543210", summary.Phone)
	assert.True(t, summary.IsVerified)
}

func TestOtpRecordExpired(t *testing.T) {
	now := time.Now()
	record := &identity.OtpRecord{ExpiresAt: now.Add(10 * time.Minute)}

	assert.False(t, record.Expired(now))
	assert.False(t, record.Expired(now.Add(10*time.Minute-time.Second)))
	// the boundary itself is dead
	assert.True(t, record.Expired(now.Add(10*time.Minute)))
	assert.True(t, record.Expired(now.Add(11*time.Minute)))
}
