package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "github.com/goliatone/go-identity"
)

func TestLookupKey(t *testing.T) {
	key := identity.ByEmail("  USER@Example.COM ")
	assert.Equal(t, "user@example.com", key.Email())
	assert.True(t, key.HasEmail())
	assert.False(t, key.HasPhone())
	assert.False(t, key.IsZero())
	assert.Equal(t, "user@example.com", key.Destination())

	key = identity.ByPhone(" 9876543210 ")
	assert.Equal(t, "9876543210", key.Phone())
	assert.True(t, key.HasPhone())
	assert.Equal(t, "9876543210", key.Destination())

	key = identity.ByEmailAndPhone("user@example.com", "9876543210")
	assert.True(t, key.HasEmail())
	assert.True(t, key.HasPhone())
	// email wins as the delivery channel when both are present
	assert.Equal(t, "user@example.com", key.Destination())

	assert.True(t, identity.ByEmailAndPhone("", "").IsZero())
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		region  string
		want    string
		wantErr bool
	}{
		{"national format", "(415) 555-2671", "US", "4155552671", false},
		{"e164", "+14155552671", "", "4155552671", false},
		{"india e164", "+919876543210", "", "9876543210", false},
		{"garbage", "not-a-number", "US", "", true},
		{"too short", "123", "US", "", true},
		{"empty", "", "US", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := identity.NormalizePhone(tc.input, tc.region)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
