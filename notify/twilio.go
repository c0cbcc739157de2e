package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// TwilioConfig holds SMS delivery credentials.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string

	APIURL     string
	HTTPClient *http.Client
}

// TwilioSender delivers SMS through the Twilio messages API.
type TwilioSender struct {
	config     TwilioConfig
	httpClient *http.Client
}

// NewTwilioSender returns a new TwilioSender
func NewTwilioSender(cfg TwilioConfig) *TwilioSender {
	if cfg.APIURL == "" {
		cfg.APIURL = fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", cfg.AccountSID)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &TwilioSender{
		config:     cfg,
		httpClient: client,
	}
}

// SendSMS posts one outbound message to the Twilio API.
func (s *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	if to == "" || body == "" {
		return goerrors.New("sms recipient and body are required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	data := url.Values{}
	data.Set("To", to)
	data.Set("From", s.config.FromNumber)
	data.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIURL, strings.NewReader(data.Encode()))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build sms request")
	}

	req.SetBasicAuth(s.config.AccountSID, s.config.AuthToken)
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "sms delivery request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return goerrors.New("sms provider rejected message", goerrors.CategoryOperation).
			WithMetadata(map[string]any{
				"status": resp.StatusCode,
				"detail": string(detail),
			})
	}

	return nil
}
