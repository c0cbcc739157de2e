package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// Auther composes the credential store, OTP ledger, token issuer,
// notification gateway, and social verifier into the account lifecycle
// flows. Collaborators are injected at construction; there is no
// container or registry behind it.
type Auther struct {
	repo     RepositoryManager
	otp      OtpLedger
	tokens   TokenIssuer
	gateway  NotificationGateway
	verifier SocialVerifier
	logger   Logger
}

// NewAuther returns a new Auther
func NewAuther(repo RepositoryManager, otp OtpLedger, tokens TokenIssuer, gateway NotificationGateway) *Auther {
	return &Auther{
		repo:    repo,
		otp:     otp,
		tokens:  tokens,
		gateway: gateway,
		logger:  defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithSocialVerifier configures the external identity boundary used by
// SocialLoginWithCode.
func (s *Auther) WithSocialVerifier(verifier SocialVerifier) *Auther {
	s.verifier = verifier
	return s
}

// RegisterInput carries the registration payload. UseHashid derives the
// account id deterministically from the email.
type RegisterInput struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	UseHashid bool   `json:"-"`
}

// Register creates an unverified account, issues its verification code,
// and mints the first session. OTP delivery failure does not roll the
// registration back; it is logged and the code is still returned.
func (s *Auther) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	account := &Account{
		Name:         input.Name,
		Email:        NormalizeEmail(input.Email),
		Phone:        input.Phone,
		PasswordHash: hash,
		IsVerified:   false,
		IsActive:     true,
	}

	if input.UseHashid {
		if id, err := hashid.NewUUID(account.Email); err == nil {
			account.ID = id
		}
	}

	account, err = s.repo.Accounts().Create(ctx, account)
	if err != nil {
		return nil, err
	}

	record, err := s.otp.Issue(ctx, ByEmail(account.Email))
	if err != nil {
		return nil, err
	}

	if err := s.gateway.SendEmail(ctx, account.Email, subjectRegisterOtp, registerOtpEmail(record.Code)); err != nil {
		s.logger.Warn("Register otp delivery failed", "email", account.Email, "error", err)
	}

	pair, err := s.startSession(ctx, account)
	if err != nil {
		return nil, err
	}

	return &RegisterResult{
		Message:   MsgRegistered,
		Otp:       record.Code,
		OtpExpire: &record.ExpiresAt,
		User:      account.Summary(),
		TokenPair: pair,
	}, nil
}

// Login authenticates an email/password pair. Unverified accounts still
// log in; they get a fresh verification code in the response so clients
// can prompt for it.
func (s *Auther) Login(ctx context.Context, email, password string) (*SessionResult, error) {
	account, err := s.validateCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	var otp string
	if !account.IsVerified {
		record, err := s.otp.Issue(ctx, ByEmail(account.Email))
		if err != nil {
			return nil, err
		}
		otp = record.Code

		if err := s.gateway.SendEmail(ctx, account.Email, subjectRegisterOtp, registerOtpEmail(record.Code)); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to deliver verification code")
		}
	}

	pair, err := s.startSession(ctx, account)
	if err != nil {
		return nil, err
	}

	return &SessionResult{
		Message:   MsgLoggedIn,
		Verified:  account.IsVerified,
		Otp:       otp,
		User:      account.Summary(),
		TokenPair: pair,
	}, nil
}

// ResendOtp issues a fresh verification code for the account's email.
// The new code supersedes any previous one for that key: clients must
// always act on the most recently received code.
func (s *Auther) ResendOtp(ctx context.Context, email string) (*OtpResult, error) {
	account, err := s.repo.Accounts().ByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if _, err := s.otp.Issue(ctx, ByEmail(account.Email)); err != nil {
		return nil, err
	}

	// Report the stored record, not the in-memory one.
	record, err := s.otp.Newest(ctx, ByEmail(account.Email))
	if err != nil {
		return nil, err
	}

	if err := s.gateway.SendEmail(ctx, account.Email, subjectResendOtp, registerOtpEmail(record.Code)); err != nil {
		s.logger.Warn("ResendOtp delivery failed", "email", account.Email, "error", err)
	}

	return &OtpResult{
		Message:   MsgOtpResent,
		Otp:       record.Code,
		OtpExpire: &record.ExpiresAt,
	}, nil
}

// ForgetPassword issues a recovery code for the key and delivers it via
// email when the key carries one, falling back to SMS.
func (s *Auther) ForgetPassword(ctx context.Context, key LookupKey) (*ForgetPasswordResult, error) {
	if key.IsZero() {
		return nil, ErrMissingLookupKey
	}

	if _, err := s.repo.Accounts().ByKey(ctx, key); err != nil {
		return nil, err
	}

	record, err := s.otp.Issue(ctx, key)
	if err != nil {
		return nil, err
	}

	if key.HasEmail() {
		if err := s.gateway.SendEmail(ctx, key.Email(), subjectResetOtp, resetOtpEmail(record.Code)); err != nil {
			s.logger.Warn("ForgetPassword email delivery failed", "email", key.Email(), "error", err)
		}
	} else {
		if err := s.gateway.SendSMS(ctx, key.Phone(), otpSMS(record.Code)); err != nil {
			s.logger.Warn("ForgetPassword sms delivery failed", "phone", key.Phone(), "error", err)
		}
	}

	return &ForgetPasswordResult{
		Message: "OTP sent to " + key.Destination(),
		Otp:     record.Code,
	}, nil
}

// VerifyOtp checks a code against the key and consumes it. A first
// successful verification moves an unverified account to verified; the
// transition never runs in reverse. Codes are single-use, a second
// verify with the same code fails.
func (s *Auther) VerifyOtp(ctx context.Context, key LookupKey, code string) (*MessageResult, error) {
	account, err := s.repo.Accounts().ByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	record, err := s.otp.Verify(ctx, key, code)
	if err != nil {
		return nil, err
	}

	if !account.IsVerified {
		if _, err := s.repo.Accounts().MarkVerified(ctx, account.ID); err != nil {
			return nil, err
		}
	}

	if err := s.otp.Consume(ctx, record.ID); err != nil {
		return nil, err
	}

	return &MessageResult{Message: MsgOtpVerified}, nil
}

// ResetPassword turns a valid recovery code into a new password. Social
// only accounts cannot take this path, and the new password must differ
// from the stored one.
func (s *Auther) ResetPassword(ctx context.Context, key LookupKey, code, newPassword string) (*MessageResult, error) {
	record, err := s.otp.Verify(ctx, key, code)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.Accounts().ByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if !account.HasPassword() {
		return nil, ErrPasswordLoginUnavailable
	}

	if err := ComparePasswordAndHash(newPassword, account.PasswordHash); err == nil {
		return nil, ErrPasswordReuse
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	if err := s.repo.Accounts().SetPassword(ctx, account.ID, hash); err != nil {
		return nil, err
	}

	if err := s.otp.Consume(ctx, record.ID); err != nil {
		return nil, err
	}

	return &MessageResult{Message: MsgPasswordReset}, nil
}

// ChangePassword rotates the password of an authenticated account after
// re-checking the current one.
func (s *Auther) ChangePassword(ctx context.Context, accountID uuid.UUID, currentPassword, newPassword string) (*MessageResult, error) {
	account, err := s.repo.Accounts().GetByID(ctx, accountID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if !account.HasPassword() {
		return nil, ErrPasswordLoginUnavailable
	}

	if err := ComparePasswordAndHash(currentPassword, account.PasswordHash); err != nil {
		return nil, ErrCurrentPasswordWrong
	}

	if err := ComparePasswordAndHash(newPassword, account.PasswordHash); err == nil {
		return nil, ErrPasswordReuse
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	if err := s.repo.Accounts().SetPassword(ctx, account.ID, hash); err != nil {
		return nil, err
	}

	return &MessageResult{Message: MsgPasswordChanged}, nil
}

// RefreshTokens rotates a refresh token. The presented token must verify
// against the refresh secret AND match the stored hash; the overwrite is
// a compare-and-swap, so of two concurrent calls holding the same valid
// token exactly one rotates and the other is rejected as replay. A
// detected mismatch only rejects the stale token, it does not revoke the
// account's session.
func (s *Auther) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		if goerrors.Is(err, ErrTokenExpired) {
			s.logger.Info("RefreshTokens rejected expired token")
		} else {
			s.logger.Warn("RefreshTokens rejected malformed token", "error", err)
		}
		return nil, ErrRefreshRejected
	}

	account, err := s.repo.Accounts().ByEmail(ctx, claims.Email)
	if err != nil {
		return nil, ErrRefreshRejected
	}

	if account.RefreshTokenHash == "" {
		return nil, ErrRefreshRejected
	}

	presented := s.tokens.RefreshHash(refreshToken)

	pair, err := s.tokens.Mint(account.ID.String(), account.Email)
	if err != nil {
		return nil, err
	}

	next := s.tokens.RefreshHash(pair.RefreshToken)
	if err := s.repo.Accounts().RotateRefreshHash(ctx, account.ID, presented, next); err != nil {
		if goerrors.Is(err, ErrRefreshReuse) {
			s.logger.Warn("RefreshTokens detected stale token replay", "account", account.ID.String())
			return nil, ErrRefreshReuse
		}
		return nil, err
	}

	return &pair, nil
}

// SocialLogin signs in a federated identity, creating the account on
// first use. The provider claim is trusted as-is: later logins with the
// same email reuse the account without re-checking provider identity.
func (s *Auther) SocialLogin(ctx context.Context, claims SocialClaims) (*SessionResult, error) {
	email := NormalizeEmail(claims.Email)

	account, err := s.repo.Accounts().ByEmail(ctx, email)
	if err != nil {
		if !goerrors.Is(err, ErrAccountNotFound) {
			return nil, err
		}

		account, err = s.repo.Accounts().Create(ctx, &Account{
			Name:           claims.FullName,
			Email:          email,
			ProfilePicture: claims.ProfilePic,
			Provider:       claims.Provider,
			ProviderID:     claims.ProviderID,
			IsVerified:     true,
			IsActive:       true,
		})
		if err != nil {
			return nil, err
		}
	}

	pair, err := s.startSession(ctx, account)
	if err != nil {
		return nil, err
	}

	return &SessionResult{
		Message:   MsgSocialLoggedIn,
		Verified:  account.IsVerified,
		User:      account.Summary(),
		TokenPair: pair,
	}, nil
}

// SocialLoginWithCode resolves an authorization code through the
// configured verifier, then runs the SocialLogin flow on the resulting
// claims.
func (s *Auther) SocialLoginWithCode(ctx context.Context, code string) (*SessionResult, error) {
	if s.verifier == nil {
		return nil, goerrors.New("no social verifier configured", goerrors.CategoryOperation)
	}

	claims, err := s.verifier.VerifyCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return s.SocialLogin(ctx, claims)
}

// UpdateProfile applies a partial account update with uniqueness
// re-checks on email/phone. A non-empty password is re-hashed.
func (s *Auther) UpdateProfile(ctx context.Context, accountID uuid.UUID, update *Account, newPassword string) (*Account, error) {
	if _, err := s.repo.Accounts().GetByID(ctx, accountID.String()); err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if newPassword != "" {
		hash, err := HashPassword(newPassword)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}
		update.PasswordHash = hash
	}

	return s.repo.Accounts().UpdateProfile(ctx, accountID, update)
}

// RemoveAccount hard-deletes an account.
func (s *Auther) RemoveAccount(ctx context.Context, accountID uuid.UUID) error {
	return s.repo.Accounts().Remove(ctx, accountID)
}

// AccountFromAccessToken resolves the authenticated account behind an
// access token. Transport layers run this ahead of flows that need a
// caller identity.
func (s *Auther) AccountFromAccessToken(ctx context.Context, token string) (*Account, error) {
	claims, err := s.tokens.VerifyAccess(token)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	account, err := s.repo.Accounts().GetByID(ctx, claims.AccountID())
	if err != nil {
		return nil, ErrSessionNotFound
	}

	return account, nil
}

func (s *Auther) validateCredentials(ctx context.Context, email, password string) (*Account, error) {
	account, err := s.repo.Accounts().ByEmail(ctx, email)
	if err != nil {
		if goerrors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !account.IsActive {
		return nil, ErrAccountDeactivated
	}

	if !account.HasPassword() {
		return nil, ErrPasswordLoginUnavailable
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}

// startSession mints a token pair and persists the refresh hash.
func (s *Auther) startSession(ctx context.Context, account *Account) (TokenPair, error) {
	pair, err := s.tokens.Mint(account.ID.String(), account.Email)
	if err != nil {
		return TokenPair{}, err
	}

	hash := s.tokens.RefreshHash(pair.RefreshToken)
	if err := s.repo.Accounts().StoreRefreshHash(ctx, account.ID, hash); err != nil {
		return TokenPair{}, err
	}

	return pair, nil
}
