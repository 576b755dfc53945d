package console

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

// AuthControllerRoutes holds the paths the controller mounts.
type AuthControllerRoutes struct {
	Login            string
	Logout           string
	Register         string
	ForgotPassword   string
	ResetPassword    string
	SuperadminVerify string
}

// AuthControllerViews holds the template names the controller renders.
type AuthControllerViews struct {
	Login            string
	Register         string
	ForgotPassword   string
	ResetPassword    string
	SuperadminVerify string
}

// AuthController is the browser-facing surface for the auth flows: it binds
// form payloads, runs client-side validation, and drives the session
// controller and nomination flow. Report and admin CRUD screens live
// elsewhere; only the session core renders here.
type AuthController struct {
	Debug      bool
	Logger     Logger
	Sessions   *SessionController
	Auth       *AuthAPI
	Nomination *NominationFlow
	Guard      *HTTPGuard
	Routes     *AuthControllerRoutes
	Views      *AuthControllerViews
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

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(sessions *SessionController, auth *AuthAPI, nomination *NominationFlow, guard *HTTPGuard, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:     defLogger{},
		Sessions:   sessions,
		Auth:       auth,
		Nomination: nomination,
		Guard:      guard,
		Routes: &AuthControllerRoutes{
			Login:            "/login",
			Logout:           "/logout",
			Register:         "/register",
			ForgotPassword:   "/forgot-password",
			ResetPassword:    "/reset-password",
			SuperadminVerify: "/superadmin/confirm",
		},
		Views: &AuthControllerViews{
			Login:            "login",
			Register:         "register",
			ForgotPassword:   "forgot_password",
			ResetPassword:    "reset_password",
			SuperadminVerify: "superadmin_confirm",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Sessions == nil {
		panic("Missing SessionController in auth controller...")
	}

	if c.Guard == nil {
		panic("Missing HTTPGuard in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the auth flows on the router.
func RegisterAuthRoutes[T any](app router.Router[T], controller *AuthController) {
	app.Get(controller.Routes.Login, controller.LoginShow).
		SetName("sign-in.get")
	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("sign-in.post")

	app.Get(controller.Routes.Logout, controller.LogOut).
		SetName("sign-out.get")

	app.Get(controller.Routes.Register, controller.RegistrationShow).
		SetName("register.get")
	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("register.post")

	app.Get(controller.Routes.ForgotPassword, controller.ForgotPasswordShow).
		SetName("pwd-forgot.get")
	app.Post(controller.Routes.ForgotPassword, controller.ForgotPasswordPost).
		SetName("pwd-forgot.post")

	app.Get(controller.Routes.ResetPassword, controller.ResetPasswordShow).
		SetName("pwd-reset.get")
	app.Post(controller.Routes.ResetPassword, controller.ResetPasswordPost).
		SetName("pwd-reset.post")

	app.Get(controller.Routes.SuperadminVerify, controller.SuperadminConfirmShow).
		SetName("superadmin-confirm.get")
	app.Post(controller.Routes.SuperadminVerify, controller.SuperadminConfirmPost).
		SetName("superadmin-confirm.post")
}

func (a *AuthController) LoginShow(ctx router.Context) error {
	return ctx.Render(a.Views.Login, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)
	errs := map[string]string{}

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		errs["form"] = "Failed to parse form"
		return ctx.Status(fiber.StatusBadRequest).Render(a.Views.Login, router.ViewContext{
			"errors": errs,
			"record": payload,
		})
	}

	if a.Debug {
		a.Logger.Debug("login payload: %s", print.MaybePrettyJSON(payload))
	}

	session, err := a.Sessions.Login(ctx.Context(), *payload)
	if err != nil {
		if IsValidationError(err) {
			return ctx.Render(a.Views.Login, router.ViewContext{
				"record":     payload,
				"validation": FormatValidationErrorToMap(err),
			})
		}

		errs["authentication"] = UserMessage(err)
		return ctx.Render(a.Views.Login, router.ViewContext{
			"errors": errs,
			"record": payload,
		})
	}

	a.Logger.Info("login ok: user=%s role=%s", session.UserID, session.Role)

	redirect := a.Guard.GetRedirect(ctx, a.Guard.cfg.GetLandingPath())
	return ctx.Redirect(redirect, router.StatusSeeOther)
}

func (a *AuthController) LogOut(ctx router.Context) error {
	a.Sessions.Logout()
	return ctx.Redirect(a.Guard.cfg.GetLoginPath(), router.StatusTemporaryRedirect)
}

func (a *AuthController) RegistrationShow(ctx router.Context) error {
	return ctx.Render(a.Views.Register, router.ViewContext{
		"errors": map[string]string{},
		"record": RegisterRequest{},
		"roles":  []UserRole{RoleUser, RoleAdmin},
	})
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Register, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	session, err := a.Sessions.Register(ctx.Context(), *payload)
	if err != nil {
		if IsValidationError(err) {
			a.Logger.Error("register validate payload: %v", err)
			return flash.WithError(ctx, router.ViewContext{
				"error_message":  err.Error(),
				"system_message": "Error validating payload",
			}).Render(a.Views.Register, router.ViewContext{
				"record":     payload,
				"validation": FormatValidationErrorToMap(err),
			})
		}

		a.Logger.Error("register error: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  UserMessage(err),
			"system_message": "Registration failed",
		}).Render(a.Views.Register, router.ViewContext{
			"record": payload,
			"errors": map[string]string{"registration": UserMessage(err)},
		})
	}

	a.Logger.Info("registered: user=%s role=%s", session.UserID, session.Role)

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Successful user registration",
	}).Redirect(a.Guard.cfg.GetLandingPath(), fiber.StatusSeeOther)
}

func (a *AuthController) ForgotPasswordShow(ctx router.Context) error {
	return ctx.Render(a.Views.ForgotPassword, router.ViewContext{
		"errors": nil,
	})
}

// ForgotPasswordPayload holds values for a reset request
type ForgotPasswordPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r ForgotPasswordPayload) Validate() error {
	return wrapValidation(validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	))
}

func (a *AuthController) ForgotPasswordPost(ctx router.Context) error {
	payload := new(ForgotPasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("forgot password parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.ForgotPassword, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
		})
	}

	if err := payload.Validate(); err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.ForgotPassword, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	resetToken, err := a.Auth.ForgotPassword(ctx.Context(), payload.Email)
	if err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  UserMessage(err),
			"system_message": "Failed to send reset email",
		}).Render(a.Views.ForgotPassword, router.ViewContext{
			"errors": map[string]string{"email": UserMessage(err)},
			"record": payload,
		})
	}

	view := router.ViewContext{
		"errors": nil,
		"sent":   true,
	}
	// dev backends hand the token back directly; prefill the reset form
	if resetToken != "" {
		view["reset_token"] = resetToken
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Password reset link sent to your email",
	}).Render(a.Views.ForgotPassword, view)
}

func (a *AuthController) ResetPasswordShow(ctx router.Context) error {
	return ctx.Render(a.Views.ResetPassword, router.ViewContext{
		"errors": nil,
		"token":  ctx.Query("token", ""),
	})
}

// ResetPasswordPayload holds values for completing a reset
type ResetPasswordPayload struct {
	Token           string `form:"token" json:"token"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"-"`
}

// Validate will validate the payload
func (r ResetPasswordPayload) Validate() error {
	return wrapValidation(validation.ValidateStruct(&r,
		validation.Field(
			&r.Token,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(8, 0),
		),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	))
}

func (a *AuthController) ResetPasswordPost(ctx router.Context) error {
	payload := new(ResetPasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("reset password parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.ResetPassword, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
		})
	}

	if err := payload.Validate(); err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.ResetPassword, router.ViewContext{
			"validation": FormatValidationErrorToMap(err),
			"token":      payload.Token,
		})
	}

	if err := a.Auth.ResetPassword(ctx.Context(), payload.Token, payload.Password); err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  UserMessage(err),
			"system_message": "Password reset failed",
		}).Render(a.Views.ResetPassword, router.ViewContext{
			"errors": map[string]string{"reset": UserMessage(err)},
			"token":  payload.Token,
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Password changed, sign in with your new password",
	}).Redirect(a.Routes.Login, fiber.StatusSeeOther)
}

func (a *AuthController) SuperadminConfirmShow(ctx router.Context) error {
	// nomination emails link here with both values prefilled
	return ctx.Render(a.Views.SuperadminVerify, router.ViewContext{
		"errors": nil,
		"email":  ctx.Query("email", ""),
		"code":   ctx.Query("code", ""),
	})
}

// SuperadminConfirmPayload holds the nominee's confirmation values
type SuperadminConfirmPayload struct {
	Email string `form:"email" json:"email"`
	Code  string `form:"code" json:"code"`
}

func (a *AuthController) SuperadminConfirmPost(ctx router.Context) error {
	payload := new(SuperadminConfirmPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("superadmin confirm parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.SuperadminVerify, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
		})
	}

	user, err := a.Nomination.Confirm(ctx.Context(), payload.Email, payload.Code)
	if err != nil {
		if IsValidationError(err) {
			return ctx.Render(a.Views.SuperadminVerify, router.ViewContext{
				"validation": FormatValidationErrorToMap(err),
				"email":      payload.Email,
				"code":       payload.Code,
			})
		}

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  UserMessage(err),
			"system_message": "Invalid or expired code",
		}).Render(a.Views.SuperadminVerify, router.ViewContext{
			"errors": map[string]string{"code": UserMessage(err)},
			"email":  payload.Email,
		})
	}

	if a.Debug {
		a.Logger.Debug("nomination confirmed: %s", print.MaybePrettyJSON(user))
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Role upgraded to Super Admin",
	}).Redirect("/admin", fiber.StatusSeeOther)
}
