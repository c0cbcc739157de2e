package identity

import "fmt"

// Notification copy for the OTP channels. Kept as plain builders: the
// repository renders no views, hosts that want branded mail swap the
// gateway implementation.

const (
	subjectRegisterOtp = "Verify your account"
	subjectResendOtp   = "Verification Code"
	subjectResetOtp    = "Reset Password Verification Code"
)

func registerOtpEmail(code string) string {
	return fmt.Sprintf(
		"<p>Welcome! Use the verification code below to activate your account.</p><h2>%s</h2><p>The code expires in 10 minutes.</p>",
		code,
	)
}

func resetOtpEmail(code string) string {
	return fmt.Sprintf(
		"<p>We received a request to reset your password. Use the code below to continue.</p><h2>%s</h2><p>The code expires in 10 minutes. If you did not request this, ignore this email.</p>",
		code,
	)
}

func otpSMS(code string) string {
	return fmt.Sprintf(
		"Your OTP is: %s. Please do not share it with anyone. It will expire in 10 minutes.",
		code,
	)
}
