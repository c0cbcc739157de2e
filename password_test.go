package identity_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "github.com/goliatone/go-identity"
)

func TestHashPassword(t *testing.T) {
	hash, err := identity.HashPassword("Sup3r$ecret")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	assert.NoError(t, identity.ComparePasswordAndHash("Sup3r$ecret", hash))
}

func TestHashPasswordEmpty(t *testing.T) {
	_, err := identity.HashPassword("")
	assert.Error(t, err)
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	a, err := identity.HashPassword("Sup3r$ecret")
	require.NoError(t, err)

	b, err := identity.HashPassword("Sup3r$ecret")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NoError(t, identity.ComparePasswordAndHash("Sup3r$ecret", a))
	assert.NoError(t, identity.ComparePasswordAndHash("Sup3r$ecret", b))
}

func TestComparePasswordAndHashMismatch(t *testing.T) {
	hash, err := identity.HashPassword("Sup3r$ecret")
	require.NoError(t, err)

	err = identity.ComparePasswordAndHash("wrong-password", hash)
	assert.ErrorIs(t, err, identity.ErrMismatchedHashAndPassword)
}

func TestComparePasswordAndHashMalformed(t *testing.T) {
	cases := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not a hash", "plaintext"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$a2V5"},
		{"bad salt encoding", "$argon2id$v=19$m=65536,t=1,p=4$!!!$a2V5"},
		{"missing sections", "$argon2id$v=19$m=65536,t=1,p=4"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := identity.ComparePasswordAndHash("Sup3r$ecret", tc.hash)
			assert.Error(t, err)
			assert.NotErrorIs(t, err, identity.ErrMismatchedHashAndPassword)
		})
	}
}

func TestRandomPasswordHash(t *testing.T) {
	hash := identity.RandomPasswordHash()
	require.NotEmpty(t, hash)

	assert.NotEqual(t, hash, identity.RandomPasswordHash())
}
