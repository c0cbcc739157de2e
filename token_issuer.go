package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// ErrTokenExpired is returned when a presented token verified but is past
// its expiry.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned when a presented token fails signature or
// format checks.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(goerrors.CodeUnauthorized)

// TokenClaims is the payload carried by both token classes: the account id
// as subject plus the email.
type TokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// AccountID returns the subject claim.
func (c *TokenClaims) AccountID() string {
	return c.RegisteredClaims.Subject
}

// TokenIssuerImpl implements the TokenIssuer interface
type TokenIssuerImpl struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
}

// NewTokenIssuer creates a new TokenIssuer instance
func NewTokenIssuer(cfg Config, logger Logger) TokenIssuer {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenIssuerImpl{
		accessKey:  []byte(cfg.GetAccessSigningKey()),
		refreshKey: []byte(cfg.GetRefreshSigningKey()),
		accessTTL:  cfg.GetAccessTokenTTL(),
		refreshTTL: cfg.GetRefreshTokenTTL(),
		issuer:     cfg.GetIssuer(),
		audience:   cfg.GetAudience(),
		logger:     logger,
	}
}

// Mint signs the access and refresh tokens for an account. The two
// signatures are independent and run concurrently.
func (ts *TokenIssuerImpl) Mint(accountID, email string) (TokenPair, error) {
	var pair TokenPair
	var accessErr, refreshErr error

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		pair.AccessToken, accessErr = ts.sign(accountID, email, ts.accessKey, ts.accessTTL)
	}()

	go func() {
		defer wg.Done()
		pair.RefreshToken, refreshErr = ts.sign(accountID, email, ts.refreshKey, ts.refreshTTL)
	}()

	wg.Wait()

	if accessErr != nil {
		return TokenPair{}, goerrors.Wrap(accessErr, goerrors.CategoryInternal, "failed to sign access token")
	}
	if refreshErr != nil {
		return TokenPair{}, goerrors.Wrap(refreshErr, goerrors.CategoryInternal, "failed to sign refresh token")
	}

	return pair, nil
}

// VerifyAccess validates a token against the access secret.
func (ts *TokenIssuerImpl) VerifyAccess(token string) (*TokenClaims, error) {
	return ts.verify(token, ts.accessKey)
}

// VerifyRefresh validates a token against the refresh secret. Expiry and
// signature failures are distinguishable so callers can log them apart,
// even though both surface as the same rejected-refresh outcome.
func (ts *TokenIssuerImpl) VerifyRefresh(token string) (*TokenClaims, error) {
	return ts.verify(token, ts.refreshKey)
}

// RefreshHash is the one-way hash persisted server-side for rotation
// comparison. It is deterministic so the rotation compare-and-swap can run
// as a single UPDATE against the stored value.
func (ts *TokenIssuerImpl) RefreshHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (ts *TokenIssuerImpl) sign(accountID, email string, key []byte, ttl time.Duration) (string, error) {
	now := time.Now()

	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	// jti makes every minted token unique even under identical claims
	// and timestamps, so no two refresh tokens ever share a stored hash
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   accountID,
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func (ts *TokenIssuerImpl) verify(tokenString string, key []byte) (*TokenClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenIssuer verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenIssuer verify could not decode claims")
	return nil, ErrTokenMalformed
}
