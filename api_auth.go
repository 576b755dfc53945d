package console

import (
	"context"
	"net/http"
)

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// RegisterRequest payload. ConfirmPassword is checked client-side and never
// leaves the process; Register strips it from the wire payload.
type RegisterRequest struct {
	Name            string   `form:"name" json:"name"`
	Email           string   `form:"email" json:"email"`
	Phone           string   `form:"phone" json:"phone,omitempty"`
	Password        string   `form:"password" json:"password"`
	ConfirmPassword string   `form:"confirm_password" json:"confirm_password"`
	Role            UserRole `form:"role" json:"role"`
}

type registerWirePayload struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone,omitempty"`
	Password string   `json:"password"`
	Role     UserRole `json:"role"`
}

type authResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type forgotPasswordResponse struct {
	// ResetToken comes back only from non-production backends; see
	// AuthAPI.ForgotPassword.
	ResetToken string `json:"resetToken,omitempty"`
}

// AuthAPI wraps the /auth endpoints.
type AuthAPI struct {
	gw     *Gateway
	logger Logger
}

func NewAuthAPI(gw *Gateway) *AuthAPI {
	return &AuthAPI{gw: gw, logger: defLogger{}}
}

func (a *AuthAPI) WithLogger(logger Logger) *AuthAPI {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// Login exchanges credentials for a token and profile. The caller is
// expected to have validated the payload already; the server remains
// authoritative.
func (a *AuthAPI) Login(ctx context.Context, payload LoginRequest) (string, User, error) {
	res := authResponse{}
	if err := a.gw.Do(ctx, http.MethodPost, "/auth/login", payload, &res); err != nil {
		return "", User{}, err
	}
	return res.Token, res.User, nil
}

// Register creates an account and logs it in.
func (a *AuthAPI) Register(ctx context.Context, payload RegisterRequest) (string, User, error) {
	wire := registerWirePayload{
		Name:     payload.Name,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Password: payload.Password,
		Role:     payload.Role,
	}

	res := authResponse{}
	if err := a.gw.Do(ctx, http.MethodPost, "/auth/register", wire, &res); err != nil {
		return "", User{}, err
	}
	return res.Token, res.User, nil
}

// ForgotPassword requests a reset email. Some backends hand the reset token
// straight back in the response as a development shortcut; we decode it so
// the dev flow works, but warn loudly because a production deployment must
// deliver it out of band only.
func (a *AuthAPI) ForgotPassword(ctx context.Context, email string) (string, error) {
	res := forgotPasswordResponse{}
	if err := a.gw.Do(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, &res); err != nil {
		return "", err
	}

	if res.ResetToken != "" {
		a.logger.Warn("forgot-password response carried a reset token; this is a development-only behavior")
	}

	return res.ResetToken, nil
}

// ResetPassword completes a reset with the token delivered by email.
func (a *AuthAPI) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	payload := map[string]string{
		"resetToken":  resetToken,
		"newPassword": newPassword,
	}
	return a.gw.Do(ctx, http.MethodPost, "/auth/reset-password", payload, nil)
}
