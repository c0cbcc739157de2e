package identity

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// AuthControllerRoutes lets hosts remap endpoint paths
type AuthControllerRoutes struct {
	Register       string
	Login          string
	ResendOtp      string
	VerifyOtp      string
	ForgetPassword string
	ResetPassword  string
	ChangePassword string
	Refresh        string
	SocialLogin    string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Auther       *Auther
	Routes       *AuthControllerRoutes
	ErrorHandler fiber.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithAuther(auther *Auther) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Register:       "/register",
			Login:          "/login",
			ResendOtp:      "/resend-otp",
			VerifyOtp:      "/verify-otp",
			ForgetPassword: "/forget-password",
			ResetPassword:  "/reset-password",
			ChangePassword: "/change-password",
			Refresh:        "/refresh",
			SocialLogin:    "/social/login",
		},
	}

	c.ErrorHandler = c.defaultErrHandler

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Auther in identity controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the lifecycle endpoints on the given router.
func RegisterAuthRoutes(app fiber.Router, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegisterPost)
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Post(controller.Routes.ResendOtp, controller.ResendOtpPost)
	app.Post(controller.Routes.VerifyOtp, controller.VerifyOtpPost)
	app.Post(controller.Routes.ForgetPassword, controller.ForgetPasswordPost)
	app.Post(controller.Routes.ResetPassword, controller.ResetPasswordPost)
	app.Post(controller.Routes.ChangePassword, controller.RequireSession, controller.ChangePasswordPost)
	app.Post(controller.Routes.Refresh, controller.RefreshPost)
	app.Post(controller.Routes.SocialLogin, controller.SocialLoginPost)

	return controller
}

var (
	otpPattern           = regexp.MustCompile(`^\d{4}$`)
	nationalPhonePattern = regexp.MustCompile(`^\d{10,11}$`)
	letterClass          = regexp.MustCompile(`[a-zA-Z]`)
	digitClass           = regexp.MustCompile(`\d`)
	specialClass         = regexp.MustCompile(`[@$!%*?&#^()\-_=+\[\]{};:'",.<>/\\|~]`)
)

// ValidatePhoneNumber accepts numbers already in national digit form and
// anything else only when it parses as a valid phone number.
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := canonicalPhone(s); err != nil {
		return fmt.Errorf("must be a valid phone number")
	}
	return nil
}

// canonicalPhone maps a payload phone to the stored national digit form,
// so "+1 (415) 555-2671" and "4155552671" land on the same account.
func canonicalPhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if nationalPhonePattern.MatchString(raw) {
		return raw, nil
	}
	return NormalizePhone(raw, "")
}

// ValidatePasswordStrength enforces the account password policy: 6 to 20
// characters with at least one letter, one digit, and one special
// character. RE2 has no lookahead so the classes are checked one by one.
func ValidatePasswordStrength(value any) error {
	s, _ := value.(string)
	if len(s) < 6 || len(s) > 20 {
		return fmt.Errorf("must be between 6 and 20 characters")
	}
	if !letterClass.MatchString(s) || !digitClass.MatchString(s) || !specialClass.MatchString(s) {
		return fmt.Errorf("must include a letter, a number, and a special character")
	}
	return nil
}

// FormatValidationErrorToMap flattens ozzo field errors for JSON output
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if verr, ok := err.(validation.Errors); ok {
		for field, ferr := range verr {
			out[field] = ferr.Error()
		}
		return out
	}
	out["payload"] = err.Error()
	return out
}

// RegisterPayload is the registration body
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.Required, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.Password, validation.Required, validation.By(ValidatePasswordStrength)),
	)
}

func (a *AuthController) RegisterPost(ctx *fiber.Ctx) error {
	payload := new(RegisterPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return a.parseError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= IDENTITY REGISTER =======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=================================")
	}

	phone, err := canonicalPhone(payload.Phone)
	if err != nil {
		return a.validationError(ctx, validation.Errors{"phone": err})
	}

	res, err := a.Auther.Register(ctx.UserContext(), RegisterInput{
		Name:     payload.Name,
		Email:    payload.Email,
		Phone:    phone,
		Password: payload.Password,
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Status(http.StatusCreated).JSON(res)
}

// LoginPayload is the login body
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) LoginPost(ctx *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return a.parseError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	res, err := a.Auther.Login(ctx.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(res)
}

// ResendOtpPayload holds the resend target
type ResendOtpPayload struct {
	Email string `json:"email"`
}

// Validate will run validation rules
func (r ResendOtpPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) ResendOtpPost(ctx *fiber.Ctx) error {
	payload := new(ResendOtpPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return a.parseError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	res, err := a.Auther.ResendOtp(ctx.UserContext(), payload.Email)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(res)
}

// VerifyOtpPayload carries a lookup key plus the code to check
type VerifyOtpPayload struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
	Otp   string `json:"otp"`
}

// Validate will run validation rules
func (r VerifyOtpPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.Otp, validation.Required, validation.Match(otpPattern)),
	)
}

func (r VerifyOtpPayload) lookupKey() LookupKey {
	phone := r.Phone
	if phone != "" {
		if p, err := canonicalPhone(phone); err == nil {
			phone = p
		}
	}

	switch {
	case r.Email != "" && phone != "":
		return ByEmailAndPhone(r.Email, phone)
	case r.Email != "":
		return ByEmail(r.Email)
	case phone != "":
		return ByPhone(phone)
	}
	return LookupKey{}
}

func (a *AuthController) VerifyOtpPost(ctx *fiber.Ctx) error {
	payload := new(VerifyOtpPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return a.parseError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	res, err := a.Auther.VerifyOtp(ctx.UserContext(), payload.lookupKey(), payload.Otp)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(res)
}

// ForgetPasswordPayload holds the recovery target
type ForgetPasswordPayload struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Validate will run validation rules
func (r ForgetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
	)
}

func (a *AuthController) ForgetPasswordPost(ctx *fiber.Ctx) error {
	payload := new(ForgetPasswordPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return a.parseError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	key := VerifyOtpPayload{Email: payload.Email, Phone: payload.Phone}.lookupKey()

	res, err := a.Auther.ForgetPassword(ctx.UserContext(), key)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(res)
}

// ResetPasswordPayload finalizes a recovery: key, code, new password
type ResetPasswordPayload struct {
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Otp         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// Validate will run validation rules
func (r ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.Otp, validation.Required, validation.Match(otpPattern)),
		validation.Field(&r.NewPassword, validation.Required, validation.By(ValidatePasswordStrength)),
	)
}

func (a *AuthController) ResetPasswordPost(ctx *fiber.Ctx) error {
	payload := new(ResetPasswordPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return a.parseError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	key := VerifyOtpPayload{Email: payload.Email, Phone: payload.Phone}.lookupKey()

	res, err := a.Auther.ResetPassword(ctx.UserContext(), key, payload.Otp, payload.NewPassword)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(res)
}

// ChangePasswordPayload rotates the password of the authenticated caller
type ChangePasswordPayload struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Validate will run validation rules
func (r ChangePasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.By(ValidatePasswordStrength)),
	)
}

func (a *AuthController) ChangePasswordPost(ctx *fiber.Ctx) error {
	account, ok := ctx.Locals(sessionAccountKey).(*Account)
	if !ok || account == nil {
		return a.ErrorHandler(ctx, ErrSessionNotFound)
	}

	payload := new(ChangePasswordPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return a.parseError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	res, err := a.Auther.ChangePassword(ctx.UserContext(), account.ID, payload.CurrentPassword, payload.NewPassword)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(res)
}

// RefreshPayload carries the refresh token to rotate
type RefreshPayload struct {
	RefreshToken string `json:"refreshToken"`
}

// Validate will run validation rules
func (r RefreshPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

func (a *AuthController) RefreshPost(ctx *fiber.Ctx) error {
	payload := new(RefreshPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return a.parseError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	pair, err := a.Auther.RefreshTokens(ctx.UserContext(), payload.RefreshToken)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(pair)
}

// SocialLoginPayload exchanges a provider authorization code for a session
type SocialLoginPayload struct {
	Code string `json:"code"`
}

// Validate will run validation rules
func (r SocialLoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required),
	)
}

func (a *AuthController) SocialLoginPost(ctx *fiber.Ctx) error {
	payload := new(SocialLoginPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return a.parseError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	res, err := a.Auther.SocialLoginWithCode(ctx.UserContext(), payload.Code)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(res)
}

const sessionAccountKey = "identity:account"

// RequireSession resolves the bearer token ahead of protected handlers
// and stores the account in both fiber locals and the request context.
func (a *AuthController) RequireSession(ctx *fiber.Ctx) error {
	token := bearerToken(ctx.Get(fiber.HeaderAuthorization))
	if token == "" {
		return a.ErrorHandler(ctx, ErrSessionNotFound)
	}

	account, err := a.Auther.AccountFromAccessToken(ctx.UserContext(), token)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	ctx.Locals(sessionAccountKey, account)
	ctx.SetUserContext(WithContext(ctx.UserContext(), account))

	return ctx.Next()
}

func bearerToken(header string) string {
	const scheme = "Bearer "
	if len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
		return strings.TrimSpace(header[len(scheme):])
	}
	return ""
}

func (a *AuthController) parseError(ctx *fiber.Ctx, err error) error {
	a.Logger.Error("identity controller parse payload: ", "error", err)
	return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Error parsing body",
	})
}

func (a *AuthController) validationError(ctx *fiber.Ctx, err error) error {
	a.Logger.Error("identity controller validate payload: ", "error", err)
	return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
		"success":    false,
		"message":    "Error validating payload",
		"validation": FormatValidationErrorToMap(err),
	})
}

func (a *AuthController) defaultErrHandler(ctx *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	a.Logger.Info(
		"identity controller error",
		"error", richErr.Message,
		"category", richErr.Category,
		"text_code", richErr.TextCode,
		"path", ctx.Path(),
	)

	status := richErr.Code
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}

	body := fiber.Map{
		"success": false,
		"message": richErr.Message,
	}
	if richErr.TextCode != "" {
		body["code"] = richErr.TextCode
	}

	return ctx.Status(status).JSON(body)
}
