package identity

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeInvalidCreds marks failed credential checks
	TextCodeInvalidCreds = "INVALID_CREDENTIALS"
	// TextCodeAccountDeactivated marks logins against inactive accounts
	TextCodeAccountDeactivated = "ACCOUNT_DEACTIVATED"
	// TextCodePasswordLoginUnavailable marks social-only accounts
	TextCodePasswordLoginUnavailable = "PASSWORD_LOGIN_UNAVAILABLE"
	// TextCodeAccountNotFound marks lookups with no matching account
	TextCodeAccountNotFound = "ACCOUNT_NOT_FOUND"
	// TextCodeEmailTaken marks duplicate email on create/update
	TextCodeEmailTaken = "EMAIL_EXISTS"
	// TextCodePhoneTaken marks duplicate phone on create/update
	TextCodePhoneTaken = "PHONE_EXISTS"
	// TextCodeOtpRejected covers wrong code, wrong key, and expiry alike
	TextCodeOtpRejected = "OTP_EXPIRED_OR_INVALID"
	// TextCodeRefreshRejected covers every refresh verification failure
	TextCodeRefreshRejected = "INVALID_REFRESH_TOKEN"
	// TextCodeRefreshReuse marks a stored-hash mismatch on rotation
	TextCodeRefreshReuse = "REFRESH_TOKEN_REUSE"
	// TextCodePasswordReuse marks a new password equal to the current one
	TextCodePasswordReuse = "PASSWORD_REUSE"
	// TextCodeCurrentPasswordWrong marks a failed current-password check
	TextCodeCurrentPasswordWrong = "CURRENT_PASSWORD_INCORRECT"
	// TextCodeSessionNotFound marks requests with no authenticated caller
	TextCodeSessionNotFound = "SESSION_NOT_FOUND"
)

// ErrAccountNotFound is returned when no account matches the lookup key.
var ErrAccountNotFound = goerrors.New("User not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrInvalidCredentials is returned on a bad email/password pair. The same
// error covers unknown email and wrong password so callers cannot probe
// for registered addresses.
var ErrInvalidCredentials = goerrors.New("Invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountDeactivated is returned when an inactive account attempts to log in.
var ErrAccountDeactivated = goerrors.New("Your account has been deactivated. Please contact support for assistance.", goerrors.CategoryAuthz).
	WithTextCode(TextCodeAccountDeactivated).
	WithCode(goerrors.CodeForbidden)

// ErrPasswordLoginUnavailable is returned when a social-only account is
// asked to authenticate, reset, or change a password.
var ErrPasswordLoginUnavailable = goerrors.New("Password login not available for this account", goerrors.CategoryAuth).
	WithTextCode(TextCodePasswordLoginUnavailable).
	WithCode(goerrors.CodeUnauthorized)

// ErrEmailTaken is returned on duplicate email during create or update.
var ErrEmailTaken = goerrors.New("Email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(goerrors.CodeConflict)

// ErrPhoneTaken is returned on duplicate phone during create or update.
var ErrPhoneTaken = goerrors.New("Phone already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodePhoneTaken).
	WithCode(goerrors.CodeConflict)

// ErrOtpRejected is the single undifferentiated OTP failure: wrong code,
// wrong key, or expired record all surface identically so the response
// never reveals whether a code exists for the key.
var ErrOtpRejected = goerrors.New("Invalid or Expired OTP", goerrors.CategoryBadInput).
	WithTextCode(TextCodeOtpRejected).
	WithCode(goerrors.CodeBadRequest)

// ErrRefreshRejected normalizes every refresh verification failure,
// expired and tampered alike, into one external outcome.
var ErrRefreshRejected = goerrors.New("Invalid refresh token", goerrors.CategoryAuthz).
	WithTextCode(TextCodeRefreshRejected).
	WithCode(goerrors.CodeForbidden)

// ErrRefreshReuse is returned when a presented refresh token verifies but
// does not match the stored hash: the token was already rotated out, which
// we treat as replay. No revocation cascade is triggered beyond rejection.
var ErrRefreshReuse = goerrors.New("Access denied", goerrors.CategoryAuthz).
	WithTextCode(TextCodeRefreshReuse).
	WithCode(goerrors.CodeForbidden)

// ErrPasswordReuse is returned when the new password hashes equal to the
// stored one during reset or change.
var ErrPasswordReuse = goerrors.New("New password must be different from the current password", goerrors.CategoryBadInput).
	WithTextCode(TextCodePasswordReuse).
	WithCode(goerrors.CodeBadRequest)

// ErrCurrentPasswordWrong is returned when the current-password check
// fails during a password change.
var ErrCurrentPasswordWrong = goerrors.New("Current password is incorrect", goerrors.CategoryBadInput).
	WithTextCode(TextCodeCurrentPasswordWrong).
	WithCode(goerrors.CodeBadRequest)

// ErrSessionNotFound is returned when a flow requiring an authenticated
// caller runs without one.
var ErrSessionNotFound = goerrors.New("unable to find session", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionNotFound).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty inputs to hashing helpers.
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest)

// ErrMissingLookupKey is returned when neither email nor phone is provided
// to a flow that needs at least one.
var ErrMissingLookupKey = goerrors.New("Email or Phone not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
