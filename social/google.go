package social

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	identity "github.com/goliatone/go-identity"
)

const (
	defaultTokenURL = "https://oauth2.googleapis.com/token"
	defaultJWKSURL  = "https://www.googleapis.com/oauth2/v3/certs"
)

// googleIssuers are the two issuer values Google signs ID tokens with.
var googleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

// GoogleConfig holds Google OAuth configuration.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string

	TokenURL string
	JWKSURL  string

	HTTPClient *http.Client
}

// GoogleVerifier exchanges an authorization code for a Google ID token
// and verifies the token's signature against Google's published JWK set
// before trusting any profile claim in it.
type GoogleVerifier struct {
	config     GoogleConfig
	httpClient *http.Client
	jwks       *keyfunc.JWKS
}

var _ identity.SocialVerifier = (*GoogleVerifier)(nil)

// NewGoogleVerifier creates a verifier and starts the background JWKS
// refresh. Close it when the host shuts down.
func NewGoogleVerifier(cfg GoogleConfig) (*GoogleVerifier, error) {
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = defaultJWKSURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
		Client: client,
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to refresh google JWK set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, err
	}

	return &GoogleVerifier{
		config:     cfg,
		httpClient: client,
		jwks:       jwks,
	}, nil
}

// Close stops the background JWKS refresh.
func (p *GoogleVerifier) Close() {
	if p.jwks != nil {
		p.jwks.EndBackground()
	}
}

// Name identifies the provider.
func (p *GoogleVerifier) Name() string {
	return "google"
}

// VerifyCode implements identity.SocialVerifier.
func (p *GoogleVerifier) VerifyCode(ctx context.Context, code string) (identity.SocialClaims, error) {
	idToken, err := p.exchange(ctx, code)
	if err != nil {
		return identity.SocialClaims{}, err
	}
	return p.verifyIDToken(idToken)
}

func (p *GoogleVerifier) exchange(ctx context.Context, code string) (string, error) {
	data := url.Values{
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"code":          {code},
		"redirect_uri":  {p.config.CallbackURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", wrap(ErrExchangeFailed, &ProviderError{
			Provider:  "google",
			Operation: "exchange",
			Err:       err,
		})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var tokenResp googleTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", wrap(ErrExchangeFailed, &ProviderError{
			Provider:    "google",
			Operation:   "exchange",
			Status:      resp.StatusCode,
			Code:        "invalid_response",
			Description: "failed to decode token response",
			Err:         err,
		})
	}

	if resp.StatusCode != http.StatusOK || tokenResp.Error != "" {
		return "", wrap(ErrExchangeFailed, &ProviderError{
			Provider:    "google",
			Operation:   "exchange",
			Status:      resp.StatusCode,
			Code:        tokenResp.Error,
			Description: tokenResp.ErrorDesc,
		})
	}

	if tokenResp.IDToken == "" {
		return "", wrap(ErrExchangeFailed, &ProviderError{
			Provider:    "google",
			Operation:   "exchange",
			Status:      resp.StatusCode,
			Code:        "missing_id_token",
			Description: "missing id token",
		})
	}

	return tokenResp.IDToken, nil
}

type googleIDClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (p *GoogleVerifier) verifyIDToken(idToken string) (identity.SocialClaims, error) {
	claims := &googleIDClaims{}

	token, err := jwt.ParseWithClaims(idToken, claims, p.jwks.Keyfunc,
		jwt.WithAudience(p.config.ClientID),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{"RS256"}),
	)
	if err != nil || !token.Valid {
		return identity.SocialClaims{}, wrap(ErrAssertionRejected, &ProviderError{
			Provider:    "google",
			Operation:   "verify",
			Code:        "invalid_id_token",
			Description: "id token failed verification",
			Err:         err,
		})
	}

	if !issuedByGoogle(claims.Issuer) {
		return identity.SocialClaims{}, wrap(ErrAssertionRejected, &ProviderError{
			Provider:    "google",
			Operation:   "verify",
			Code:        "invalid_issuer",
			Description: "unexpected id token issuer",
		})
	}

	if claims.Email == "" || claims.Subject == "" {
		return identity.SocialClaims{}, wrap(ErrAssertionRejected, &ProviderError{
			Provider:    "google",
			Operation:   "verify",
			Code:        "missing_claims",
			Description: "id token missing email or subject",
		})
	}

	return identity.SocialClaims{
		Email:      claims.Email,
		FullName:   claims.Name,
		ProfilePic: claims.Picture,
		Provider:   p.Name(),
		ProviderID: claims.Subject,
	}, nil
}

func issuedByGoogle(issuer string) bool {
	for _, iss := range googleIssuers {
		if issuer == iss {
			return true
		}
	}
	return false
}

type googleTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
	IDToken     string `json:"id_token"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}
