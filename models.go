package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountRole is the account's role
type AccountRole = string

const (
	// RoleUser is the default role assigned on registration
	RoleUser AccountRole = "user"
	// RoleAdmin is an administrative role
	RoleAdmin AccountRole = "admin"
)

// Account is the identity record. An account can authenticate with a
// password, with a federated provider, or both. Accounts without a
// password hash must carry provider and provider_id.
type Account struct {
	bun.BaseModel    `bun:"table:accounts,alias:acc"`
	ID               uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name             string     `bun:"name,notnull" json:"name,omitempty"`
	Email            string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone            string     `bun:"phone,unique,nullzero" json:"phone,omitempty"`
	PasswordHash     string     `bun:"password_hash" json:"-"`
	RefreshTokenHash string     `bun:"refresh_token_hash" json:"-"`
	Role             AccountRole `bun:"role,notnull" json:"role,omitempty"`
	IsVerified       bool       `bun:"is_verified" json:"is_verified"`
	IsActive         bool       `bun:"is_active" json:"is_active"`
	ProfilePicture   string     `bun:"profile_picture" json:"profile_picture,omitempty"`
	Provider         string     `bun:"provider" json:"provider,omitempty"`
	ProviderID       string     `bun:"provider_id" json:"provider_id,omitempty"`
	CreatedAt        *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt        *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// HasPassword reports whether the account can authenticate with credentials.
func (a *Account) HasPassword() bool {
	return a != nil && a.PasswordHash != ""
}

// Summary returns the subset of account fields exposed in flow responses.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:         a.ID.String(),
		Name:       a.Name,
		Email:      a.Email,
		Phone:      a.Phone,
		IsVerified: a.IsVerified,
	}
}

// AccountSummary is the account shape returned by auth flows
type AccountSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	IsVerified bool   `json:"isVerified"`
}

// OtpRecord is a one-time passcode scoped to an (email, phone) key.
// At most one live record exists per key; issuing a new code replaces
// the previous record for the same key. Expiry is checked lazily at
// verification time, expired rows stay around until superseded.
type OtpRecord struct {
	bun.BaseModel `bun:"table:otps,alias:otp"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email" json:"email,omitempty"`
	Phone         string     `bun:"phone" json:"phone,omitempty"`
	Code          string     `bun:"code,notnull" json:"-"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Expired reports whether the code is past its expiry at the given instant.
// The boundary is exclusive: a code presented exactly at expires_at is dead.
func (o *OtpRecord) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// TokenPair is the access/refresh pair minted on every successful
// login, register, refresh, and social login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	record.Email = NormalizeEmail(record.Email)

	if record.Role == "" {
		record.Role = RoleUser
	}
}

// NormalizeEmail lowercases and trims an email address. Email uniqueness
// is case-insensitive, so every lookup and write goes through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
