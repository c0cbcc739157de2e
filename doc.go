// Package identity provides credential and session lifecycle primitives
// (registration, password login, OTP verification, JWT issuance with
// refresh rotation) backed by Bun repositories.
//
// Account lifecycle:
//   - Accounts are created unverified and become verified through a numeric
//     OTP delivered over email or SMS. Login succeeds before verification
//     but re-issues the verification code alongside the session tokens.
//   - Password reset follows the same OTP channel: an issued code must be
//     verified and is consumed exactly once when the new password lands.
//
// Sessions:
//   - Mint produces an access/refresh JWT pair. A hash of the active
//     refresh token is stored on the account so rotation can detect stale
//     or replayed tokens: a refresh with a token that no longer matches the
//     stored hash is rejected and the mismatch surfaces as ErrRefreshReuse.
//
// Social sign-in:
//   - SocialVerifier adapters exchange a provider authorization code for
//     verified profile claims. First-time social accounts are provisioned
//     already verified; returning accounts are matched by email.
package identity
