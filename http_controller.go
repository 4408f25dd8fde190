package accounts

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// AccountControllerRoutes configures the endpoint paths
type AccountControllerRoutes struct {
	Register             string
	Activate             string
	Deactivate           string
	Login                string
	Logout               string
	Password             string
	ResendActivation     string
	PasswordResetRequest string
	PasswordReset        string
}

// AccountController is the JSON edge in front of the Lifecycle service
type AccountController struct {
	Debug     bool
	Logger    Logger
	Lifecycle *Lifecycle
	Auther    *RouteAuthenticator
	Routes    *AccountControllerRoutes
}

type AccountControllerOption func(*AccountController) *AccountController

func WithControllerLogger(l Logger) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func WithControllerDebug(debug bool) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Debug = debug
		return c
	}
}

func NewAccountController(lifecycle *Lifecycle, auther *RouteAuthenticator, opts ...AccountControllerOption) *AccountController {
	c := &AccountController{
		Logger:    defLogger{},
		Lifecycle: lifecycle,
		Auther:    auther,
		Routes: &AccountControllerRoutes{
			Register:             "/register",
			Activate:             "/activate/:token",
			Deactivate:           "/deactivate/:token",
			Login:                "/login",
			Logout:               "/logout",
			Password:             "/password",
			ResendActivation:     "/activation/resend",
			PasswordResetRequest: "/password/reset-request",
			PasswordReset:        "/password/reset",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Lifecycle == nil {
		panic("Missing Lifecycle in account controller...")
	}

	if c.Auther == nil {
		panic("Missing RouteAuthenticator in account controller...")
	}

	return c
}

// RegisterAccountRoutes mounts the controller on a fiber router
func RegisterAccountRoutes(app fiber.Router, controller *AccountController) {
	app.Post(controller.Routes.Register, controller.RegisterPost)
	app.Put(controller.Routes.Activate, controller.ActivatePut)
	app.Put(controller.Routes.Deactivate, controller.DeactivatePut)
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Post(controller.Routes.Logout, controller.LogoutPost)
	app.Post(controller.Routes.ResendActivation, controller.ResendActivationPost)
	app.Post(controller.Routes.PasswordResetRequest, controller.PasswordResetRequestPost)
	app.Post(controller.Routes.PasswordReset, controller.PasswordResetPost)

	app.Put(
		controller.Routes.Password,
		controller.Auther.ProtectedRoute(DefaultAuthErrorHandler),
		controller.PasswordPut,
	)
}

// RegisterPayload is the registration body
type RegisterPayload struct {
	Login           string `form:"login" json:"login"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will run validation rules
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Login, validation.Required, validation.Length(3, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(8, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AccountController) RegisterPost(c *fiber.Ctx) error {
	payload := new(RegisterPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register validate payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "invalid registration payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println("======= ACCOUNTS REGISTER =======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=================================")
	}

	msg := RegisterAccountMessage{
		Login:    payload.Login,
		Email:    payload.Email,
		Password: payload.Password,
	}

	if _, err := a.Lifecycle.Register(c.UserContext(), msg); err != nil {
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "account registered, check your email for the activation link",
	})
}

func (a *AccountController) ActivatePut(c *fiber.Ctx) error {
	if err := a.Lifecycle.Activate(c.UserContext(), c.Params("token")); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{"message": "account activated"})
}

func (a *AccountController) DeactivatePut(c *fiber.Ctx) error {
	if err := a.Lifecycle.Deactivate(c.UserContext(), c.Params("token")); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{"message": "account deactivated"})
}

// LoginPayload is the login body
type LoginPayload struct {
	Login    string `form:"login" json:"login"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Login, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AccountController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "invalid login payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	result, err := a.Auther.Login(c, LoginMessage{
		Login:    payload.Login,
		Password: payload.Password,
	})
	if err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "logged in",
		"token":   result.Token,
	})
}

func (a *AccountController) LogoutPost(c *fiber.Ctx) error {
	instruction := a.Auther.Logout(c)
	return c.JSON(instruction)
}

// PasswordPayload carries a new password plus confirmation
type PasswordPayload struct {
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will run validation rules
func (r PasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

// PasswordPut changes the password of the authenticated caller. The
// principal travels from the verified session, never from the body.
func (a *AccountController) PasswordPut(c *fiber.Ctx) error {
	session, err := GetSession(c, a.Auther.cfg.GetContextKey())
	if err != nil {
		return a.renderError(c, err)
	}

	payload := new(PasswordPayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("password parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "invalid password payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if err := a.Lifecycle.ChangePassword(c.UserContext(), session.GetLogin(), payload.Password); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{"message": "password changed"})
}

// ResendActivationPayload resolves an account by login or email
type ResendActivationPayload struct {
	Identifier string `form:"identifier" json:"identifier"`
}

func (r ResendActivationPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required),
	)
}

func (a *AccountController) ResendActivationPost(c *fiber.Ctx) error {
	payload := new(ResendActivationPayload)

	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "invalid payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if err := a.Lifecycle.ResendActivation(c.UserContext(), payload.Identifier); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{"message": "activation email sent"})
}

// PasswordResetRequestPayload holds the address to send a reset grant to
type PasswordResetRequestPayload struct {
	Email string `form:"email" json:"email"`
}

func (r PasswordResetRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AccountController) PasswordResetRequestPost(c *fiber.Ctx) error {
	payload := new(PasswordResetRequestPayload)

	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "invalid payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if err := a.Lifecycle.RequestPasswordReset(c.UserContext(), payload.Email); err != nil {
		return a.renderError(c, err)
	}

	// same response whether or not the address resolved to an account
	return c.JSON(fiber.Map{"message": "if the address exists, a reset email is on its way"})
}

// PasswordResetPayload redeems a reset grant
type PasswordResetPayload struct {
	Token           string `form:"token" json:"token"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

func (r PasswordResetPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AccountController) PasswordResetPost(c *fiber.Ctx) error {
	payload := new(PasswordResetPayload)

	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "invalid payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if err := a.Lifecycle.FinalizePasswordReset(c.UserContext(), FinalizePasswordResetMessage{
		Token:    payload.Token,
		Password: payload.Password,
	}); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{"message": "password changed"})
}

func (a *AccountController) renderError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "an unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	a.Logger.Error(
		"request failed (%v/%s): %s",
		richErr.Category, richErr.TextCode, richErr.Message,
	)

	body := fiber.Map{"error": richErr.Message}
	if richErr.TextCode != "" {
		body["text_code"] = richErr.TextCode
	}

	return c.Status(statusForError(richErr)).JSON(body)
}

func statusForError(err *goerrors.Error) int {
	if err.Code > 0 {
		return err.Code
	}

	switch err.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return fiber.StatusBadRequest
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return fmt.Errorf("values must match")
		}
		return nil
	}
}
