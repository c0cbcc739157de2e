package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const defaultBrevoURL = "https://api.brevo.com/v3/smtp/email"

// BrevoConfig holds transactional email credentials.
type BrevoConfig struct {
	APIKey    string
	FromEmail string
	FromName  string

	APIURL     string
	HTTPClient *http.Client
}

// BrevoMailer delivers transactional email through the Brevo SMTP API.
type BrevoMailer struct {
	config     BrevoConfig
	httpClient *http.Client
}

// NewBrevoMailer returns a new BrevoMailer
func NewBrevoMailer(cfg BrevoConfig) *BrevoMailer {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultBrevoURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &BrevoMailer{
		config:     cfg,
		httpClient: client,
	}
}

type brevoSendRequest struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

// SendEmail posts one transactional message to the Brevo API.
func (m *BrevoMailer) SendEmail(ctx context.Context, to, subject, html string) error {
	if to == "" || subject == "" || html == "" {
		return goerrors.New("email recipient, subject, and body are required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	payload := brevoSendRequest{
		Sender:      map[string]string{"email": m.config.FromEmail, "name": m.config.FromName},
		To:          []map[string]string{{"email": to}},
		Subject:     subject,
		HTMLContent: html,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode email request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.APIURL, bytes.NewReader(body))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build email request")
	}

	req.Header.Set("api-key", m.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "email delivery request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var detail map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&detail)
		return goerrors.New("email provider rejected message", goerrors.CategoryOperation).
			WithMetadata(map[string]any{
				"status": resp.StatusCode,
				"detail": detail,
			})
	}

	return nil
}
