package identity

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// LookupKey identifies an account (and its OTP scope) by email, phone, or
// both. Flows that accept either channel take a LookupKey instead of two
// nullable fields so "at least one present" holds by construction.
type LookupKey struct {
	email string
	phone string
}

// ByEmail builds a key from an email address.
func ByEmail(email string) LookupKey {
	return LookupKey{email: NormalizeEmail(email)}
}

// ByPhone builds a key from a phone number.
func ByPhone(phone string) LookupKey {
	return LookupKey{phone: strings.TrimSpace(phone)}
}

// ByEmailAndPhone builds a key carrying both channels. Either side may be
// empty as long as one is set.
func ByEmailAndPhone(email, phone string) LookupKey {
	return LookupKey{email: NormalizeEmail(email), phone: strings.TrimSpace(phone)}
}

func (k LookupKey) Email() string { return k.email }
func (k LookupKey) Phone() string { return k.phone }

// HasEmail reports whether the key carries an email channel.
func (k LookupKey) HasEmail() bool { return k.email != "" }

// HasPhone reports whether the key carries a phone channel.
func (k LookupKey) HasPhone() bool { return k.phone != "" }

// IsZero reports whether neither channel is present.
func (k LookupKey) IsZero() bool { return k.email == "" && k.phone == "" }

// Destination returns the delivery target, preferring email over SMS.
func (k LookupKey) Destination() string {
	if k.email != "" {
		return k.email
	}
	return k.phone
}

// NormalizePhone parses a raw phone number and returns its national
// significant digits. Numbers without a country prefix are parsed against
// the default region.
func NormalizePhone(raw, defaultRegion string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrNoEmptyString
	}

	if defaultRegion == "" {
		defaultRegion = "US"
	}

	num, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "invalid phone number").
			WithCode(goerrors.CodeBadRequest)
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", goerrors.New("invalid phone number", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	return phonenumbers.GetNationalSignificantNumber(num), nil
}
