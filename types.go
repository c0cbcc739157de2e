package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds identity options
type Config interface {
	GetAccessSigningKey() string
	GetRefreshSigningKey() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetIssuer() string
	GetAudience() []string
	GetOtpLength() int
	GetOtpTTL() time.Duration
}

// TokenIssuer mints and verifies the access/refresh token pair. The two
// token classes are signed under independent secrets and lifetimes.
type TokenIssuer interface {
	Mint(accountID, email string) (TokenPair, error)
	VerifyAccess(token string) (*TokenClaims, error)
	VerifyRefresh(token string) (*TokenClaims, error)
	RefreshHash(token string) string
}

// OtpLedger issues, verifies, and consumes one-time passcodes keyed by
// (email, phone). Issue atomically replaces any live code for the key.
type OtpLedger interface {
	Issue(ctx context.Context, key LookupKey) (*OtpRecord, error)
	Verify(ctx context.Context, key LookupKey, code string) (*OtpRecord, error)
	Consume(ctx context.Context, id uuid.UUID) error
	Newest(ctx context.Context, key LookupKey) (*OtpRecord, error)
}

// NotificationGateway delivers passcodes out of band. Delivery failure is
// non-fatal to the flow that triggered it; the orchestrator logs and
// keeps going.
type NotificationGateway interface {
	SendEmail(ctx context.Context, to, subject, html string) error
	SendSMS(ctx context.Context, to, body string) error
}

// SocialClaims is the verified identity assertion produced by a
// SocialVerifier. The orchestrator treats it as trusted input.
type SocialClaims struct {
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	ProfilePic string `json:"profilePic,omitempty"`
	Provider   string `json:"provider"`
	ProviderID string `json:"providerId"`
}

// SocialVerifier exchanges an external authorization code for a verified
// identity claim. Implementations live under social/.
type SocialVerifier interface {
	VerifyCode(ctx context.Context, code string) (SocialClaims, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
