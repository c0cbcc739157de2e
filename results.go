package identity

import "time"

// Flow response messages. These are part of the external contract.
const (
	MsgRegistered      = "Registration successful. OTP sent to email."
	MsgLoggedIn        = "Login successful"
	MsgOtpResent       = "OTP sent successfully to your email address"
	MsgOtpVerified     = "OTP verified successfully"
	MsgPasswordReset   = "Password reset successfully"
	MsgPasswordChanged = "Password Change Successfully."
	MsgSocialLoggedIn  = "Registration & Login successful"
)

// RegisterResult is returned by Register. The issued code and expiry are
// echoed back to the caller alongside the minted pair.
type RegisterResult struct {
	Message   string         `json:"message"`
	Otp       string         `json:"otp"`
	OtpExpire *time.Time     `json:"otpExpire,omitempty"`
	User      AccountSummary `json:"user"`
	TokenPair
}

// SessionResult is returned by Login and SocialLogin.
type SessionResult struct {
	Message  string         `json:"message"`
	Verified bool           `json:"verified"`
	Otp      string         `json:"otp,omitempty"`
	User     AccountSummary `json:"user"`
	TokenPair
}

// OtpResult is returned by ResendOtp.
type OtpResult struct {
	Message   string     `json:"message"`
	Otp       string     `json:"otp"`
	OtpExpire *time.Time `json:"otpExpire,omitempty"`
}

// ForgetPasswordResult is returned by ForgetPassword.
type ForgetPasswordResult struct {
	Message string `json:"message"`
	Otp     string `json:"otp"`
}

// MessageResult is the bare confirmation shape shared by VerifyOtp,
// ResetPassword, and ChangePassword.
type MessageResult struct {
	Message string `json:"message"`
}
