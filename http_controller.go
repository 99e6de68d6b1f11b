package identity

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"

	"github.com/lernago/go-identity/middleware/jwtware"
)

type AuthControllerRoutes struct {
	Register       string
	Login          string
	ForgetPassword string
	SubmitCode     string
	ResetPassword  string
}

type AuthController struct {
	Debug      bool
	Logger     Logger
	Store      UserStore
	Auth       Authenticator
	Tokens     TokenService
	Hasher     CredentialHasher
	Notifier   NotificationGateway
	ContextKey string
	AuthScheme string
	Routes     *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithUserStore(store UserStore) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Store = store
		return c
	}
}

func WithTokenService(tokens TokenService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Tokens = tokens
		return c
	}
}

func WithNotificationGateway(notifier NotificationGateway) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Notifier = notifier
		return c
	}
}

func WithAuthenticator(auth Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auth = auth
		return c
	}
}

func WithCredentialHasher(hasher CredentialHasher) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Hasher = hasher
		return c
	}
}

// WithConfig wires the controller's token service and gate settings from a
// Config. Apply it after WithControllerLogger so the token service picks up
// the right logger.
func WithConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if cfg == nil {
			return c
		}
		if key := cfg.GetContextKey(); key != "" {
			c.ContextKey = key
		}
		if scheme := cfg.GetAuthScheme(); scheme != "" {
			c.AuthScheme = scheme
		}
		c.Tokens = NewTokenServiceFromConfig(cfg, c.Logger)
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:     defLogger{},
		ContextKey: jwtware.DefaultContextKey,
		Routes: &AuthControllerRoutes{
			Register:       "/register",
			Login:          "/login",
			ForgetPassword: "/forgetPassword",
			SubmitCode:     "/submitCode",
			ResetPassword:  "/resetPassword",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Store == nil {
		panic("Missing UserStore in auth controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in auth controller...")
	}

	if c.Notifier == nil {
		panic("Missing NotificationGateway in auth controller...")
	}

	if c.Hasher == nil {
		c.Hasher = NewHasher(secretHashCost())
	}

	if c.Auth == nil {
		c.Auth = NewAuthenticator(c.Store, c.Tokens).WithLogger(c.Logger)
	}

	return c
}

// RegisterAuthRoutes mounts the five endpoints under /auth. The two reset
// continuation routes sit behind the authorization gate.
func RegisterAuthRoutes(app fiber.Router, controller *AuthController) {
	gate := controller.ProtectedRoute()

	grp := app.Group("/auth")
	grp.Post(controller.Routes.Register, controller.Register)
	grp.Post(controller.Routes.Login, controller.Login)
	grp.Post(controller.Routes.ForgetPassword, controller.ForgetPassword)
	grp.Post(controller.Routes.SubmitCode, gate, controller.SubmitCode)
	grp.Put(controller.Routes.ResetPassword, gate, controller.ResetPassword)
}

// ProtectedRoute builds the gate middleware wired to this controller's
// token service.
func (a *AuthController) ProtectedRoute() fiber.Handler {
	return jwtware.New(jwtware.Config{
		ContextKey:     a.ContextKey,
		AuthScheme:     a.AuthScheme,
		TokenValidator: gateValidator{tokens: a.Tokens},
		ContextEnricher: func(ctx context.Context, claims jwtware.AuthClaims) context.Context {
			if authClaims, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(ctx, authClaims)
			}
			return ctx
		},
	})
}

// gateValidator adapts TokenService to the middleware's mirror interface.
type gateValidator struct {
	tokens TokenService
}

func (v gateValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// RegisterPayload is the registration request body
type RegisterPayload struct {
	Name           string `json:"name"`
	Surname        string `json:"surname"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Telephone      string `json:"telephone"`
	ProfilePicture string `json:"profile_picture"`
}

// Validate will run validation rules
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Surname, validation.Required),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 16)),
		validation.Field(&r.Telephone, validation.Required),
	)
}

// LoginPayload is the login request body
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// ForgetPasswordPayload starts the reset flow
type ForgetPasswordPayload struct {
	Email string `json:"email"`
}

// Validate will run validation rules
func (r ForgetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// SubmitCodePayload carries the challenge code typed in by the user
type SubmitCodePayload struct {
	Code string `json:"code"`
}

// Validate will run validation rules
func (r SubmitCodePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, validation.Length(6, 6), is.Digit),
	)
}

// ResetPasswordPayload carries the replacement password
type ResetPasswordPayload struct {
	Password string `json:"password"`
}

// Validate will run validation rules
func (r ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required, validation.Length(8, 16)),
	)
}

func (a *AuthController) Register(c *fiber.Ctx) error {
	res := NewResponseEnvelope()
	payload := new(RegisterPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload", "error", err)
		return res.Fail(badRequest(err)).WriteJSON(c)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register validate payload", "error", err)
		return res.Fail(badRequest(err)).WriteJSON(c)
	}

	if a.Debug {
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	handler := NewRegisterUserHandler(a.Store, a.Hasher, a.Logger)
	msg := RegisterUserMessage{
		FirstName:      payload.Name,
		LastName:       payload.Surname,
		Email:          payload.Email,
		Phone:          payload.Telephone,
		Password:       payload.Password,
		ProfilePicture: payload.ProfilePicture,
	}

	if err := handler.Execute(c.UserContext(), msg); err != nil {
		a.Logger.Error("register user", "error", err)
		return res.Fail(err).WriteJSON(c)
	}

	return res.Set("message", "User registered successfully").WriteJSON(c)
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	res := NewResponseEnvelope()
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return res.Fail(badRequest(err)).WriteJSON(c)
	}

	if err := payload.Validate(); err != nil {
		return res.Fail(badRequest(err)).WriteJSON(c)
	}

	token, err := a.Auth.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Error("login", "error", err)
		return res.Fail(err).WriteJSON(c)
	}

	return res.Set("token", token).WriteJSON(c)
}

func (a *AuthController) ForgetPassword(c *fiber.Ctx) error {
	res := NewResponseEnvelope()
	payload := new(ForgetPasswordPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("forget password parse payload", "error", err)
		return res.Fail(badRequest(err)).WriteJSON(c)
	}

	if err := payload.Validate(); err != nil {
		return res.Fail(badRequest(err)).WriteJSON(c)
	}

	handler := NewRequestPasswordResetHandler(a.Store, a.Tokens, a.Notifier).
		WithHasher(a.Hasher).
		WithLogger(a.Logger)

	msg := RequestPasswordResetMessage{
		Email: payload.Email,
		OnResponse: func(resp *RequestPasswordResetResponse) {
			res.Set("token", resp.Token)
		},
	}

	if err := handler.Execute(c.UserContext(), msg); err != nil {
		a.Logger.Error("forget password", "error", err)
		return res.Fail(err).WriteJSON(c)
	}

	return res.WriteJSON(c)
}

func (a *AuthController) SubmitCode(c *fiber.Ctx) error {
	res := NewResponseEnvelope()
	payload := new(SubmitCodePayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("submit code parse payload", "error", err)
		return res.Fail(badRequest(err)).WriteJSON(c)
	}

	if err := payload.Validate(); err != nil {
		return res.Fail(badRequest(err)).WriteJSON(c)
	}

	claims, ok := a.requestClaims(c)
	if !ok {
		return res.Fail(ErrTokenMalformed).WriteJSON(c)
	}

	handler := NewVerifyResetCodeHandler(a.Store, a.Tokens).
		WithHasher(a.Hasher).
		WithLogger(a.Logger)

	msg := VerifyResetCodeMessage{
		Claims: claims,
		Code:   payload.Code,
		OnResponse: func(resp *VerifyResetCodeResponse) {
			res.Set("token", resp.Token)
		},
	}

	if err := handler.Execute(c.UserContext(), msg); err != nil {
		a.Logger.Error("submit code", "error", err)
		return res.Fail(err).WriteJSON(c)
	}

	return res.WriteJSON(c)
}

func (a *AuthController) ResetPassword(c *fiber.Ctx) error {
	res := NewResponseEnvelope()
	payload := new(ResetPasswordPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("reset password parse payload", "error", err)
		return res.Fail(badRequest(err)).WriteJSON(c)
	}

	if err := payload.Validate(); err != nil {
		return res.Fail(badRequest(err)).WriteJSON(c)
	}

	claims, ok := a.requestClaims(c)
	if !ok {
		return res.Fail(ErrTokenMalformed).WriteJSON(c)
	}

	handler := NewFinalizePasswordResetHandler(a.Store).
		WithHasher(a.Hasher).
		WithLogger(a.Logger)

	msg := FinalizePasswordResetMessage{
		Claims:   claims,
		Password: payload.Password,
		OnResponse: func(resp *FinalizePasswordResetResponse) {
			res.Set("message", "Request has ended successfully")
		},
	}

	if err := handler.Execute(c.UserContext(), msg); err != nil {
		a.Logger.Error("reset password", "error", err)
		return res.Fail(err).WriteJSON(c)
	}

	return res.WriteJSON(c)
}

// requestClaims recovers the claims the gate attached, trying the request
// context first and falling back to fiber locals.
func (a *AuthController) requestClaims(c *fiber.Ctx) (AuthClaims, bool) {
	if claims, ok := GetClaims(c.UserContext()); ok {
		return claims, true
	}
	if claims, ok := c.Locals(a.ContextKey).(AuthClaims); ok {
		return claims, true
	}
	return nil, false
}

func badRequest(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, err.Error()).
		WithCode(goerrors.CodeBadRequest)
}
