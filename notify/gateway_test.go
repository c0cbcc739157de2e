package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-identity/notify"
)

func TestBrevoMailerSendEmail(t *testing.T) {
	var captured map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-api-key", r.Header.Get("api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	mailer := notify.NewBrevoMailer(notify.BrevoConfig{
		APIKey:    "test-api-key",
		FromEmail: "noreply@example.com",
		FromName:  "Example",
		APIURL:    srv.URL,
	})

	err := mailer.SendEmail(context.Background(), "user@example.com", "Verify your account", "<h2>1234</h2>")
	require.NoError(t, err)

	sender, ok := captured["sender"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "noreply@example.com", sender["email"])

	to, ok := captured["to"].([]any)
	require.True(t, ok)
	require.Len(t, to, 1)
	assert.Equal(t, "user@example.com", to[0].(map[string]any)["email"])

	assert.Equal(t, "Verify your account", captured["subject"])
	assert.Equal(t, "<h2>1234</h2>", captured["htmlContent"])
}

func TestBrevoMailerRejectedMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "invalid api key"})
	}))
	defer srv.Close()

	mailer := notify.NewBrevoMailer(notify.BrevoConfig{
		APIKey:    "bad-key",
		FromEmail: "noreply@example.com",
		FromName:  "Example",
		APIURL:    srv.URL,
	})

	err := mailer.SendEmail(context.Background(), "user@example.com", "Subject", "<p>body</p>")
	assert.Error(t, err)
}

func TestBrevoMailerEmptyInputs(t *testing.T) {
	mailer := notify.NewBrevoMailer(notify.BrevoConfig{APIKey: "k", FromEmail: "f@example.com", FromName: "F"})

	assert.Error(t, mailer.SendEmail(context.Background(), "", "Subject", "<p>body</p>"))
	assert.Error(t, mailer.SendEmail(context.Background(), "user@example.com", "", "<p>body</p>"))
	assert.Error(t, mailer.SendEmail(context.Background(), "user@example.com", "Subject", ""))
}

func TestTwilioSenderSendSMS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		sid, token, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "test-sid", sid)
		assert.Equal(t, "test-token", token)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+19876543210", r.Form.Get("To"))
		assert.Equal(t, "+15550001111", r.Form.Get("From"))
		assert.Contains(t, r.Form.Get("Body"), "Your OTP is")

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := notify.NewTwilioSender(notify.TwilioConfig{
		AccountSID: "test-sid",
		AuthToken:  "test-token",
		FromNumber: "+15550001111",
		APIURL:     srv.URL,
	})

	err := sender.SendSMS(context.Background(), "+19876543210", "Your OTP is: 1234")
	assert.NoError(t, err)
}

func TestTwilioSenderRejectedMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"invalid number"}`))
	}))
	defer srv.Close()

	sender := notify.NewTwilioSender(notify.TwilioConfig{
		AccountSID: "test-sid",
		AuthToken:  "test-token",
		FromNumber: "+15550001111",
		APIURL:     srv.URL,
	})

	err := sender.SendSMS(context.Background(), "not-a-number", "body")
	assert.Error(t, err)
}

func TestGatewayNilChannelsAreNoops(t *testing.T) {
	gateway := notify.NewGateway(nil, nil)

	assert.NoError(t, gateway.SendEmail(context.Background(), "user@example.com", "s", "b"))
	assert.NoError(t, gateway.SendSMS(context.Background(), "+19876543210", "b"))
}

func TestGatewayDelegates(t *testing.T) {
	emailCalled := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		emailCalled = true
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	mailer := notify.NewBrevoMailer(notify.BrevoConfig{
		APIKey:    "k",
		FromEmail: "noreply@example.com",
		FromName:  "Example",
		APIURL:    srv.URL,
	})

	gateway := notify.NewGateway(mailer, nil)

	require.NoError(t, gateway.SendEmail(context.Background(), "user@example.com", "s", "<p>b</p>"))
	assert.True(t, emailCalled)
}
