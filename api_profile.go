package console

import (
	"context"
	"net/http"
)

// ProfileUpdate payload for PUT /profile.
type ProfileUpdate struct {
	Name  string `form:"name" json:"name,omitempty"`
	Email string `form:"email" json:"email,omitempty"`
	Phone string `form:"phone" json:"phone,omitempty"`
}

// ChangePasswordRequest payload for PUT /profile/password. ConfirmPassword
// is checked client-side only; ChangePassword strips it from the wire
// payload.
type ChangePasswordRequest struct {
	CurrentPassword string `form:"current_password" json:"currentPassword"`
	NewPassword     string `form:"new_password" json:"newPassword"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

type changePasswordWirePayload struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type profileResponse struct {
	User User `json:"user"`
}

// ProfileAPI wraps the /profile endpoints.
type ProfileAPI struct {
	gw *Gateway
}

func NewProfileAPI(gw *Gateway) *ProfileAPI {
	return &ProfileAPI{gw: gw}
}

// Get fetches the authenticated account. The controller uses this call to
// re-validate a rehydrated token instead of trusting storage.
func (p *ProfileAPI) Get(ctx context.Context) (User, error) {
	res := profileResponse{}
	if err := p.gw.Do(ctx, http.MethodGet, "/profile", nil, &res); err != nil {
		return User{}, err
	}
	return res.User, nil
}

// Update edits the profile and returns the server's view of the account;
// feed the result into SessionController.UpdateUser to keep the cached
// profile consistent.
func (p *ProfileAPI) Update(ctx context.Context, payload ProfileUpdate) (User, error) {
	res := profileResponse{}
	if err := p.gw.Do(ctx, http.MethodPut, "/profile", payload, &res); err != nil {
		return User{}, err
	}
	return res.User, nil
}

// ChangePassword rotates the password for the authenticated account.
func (p *ProfileAPI) ChangePassword(ctx context.Context, payload ChangePasswordRequest) error {
	wire := changePasswordWirePayload{
		CurrentPassword: payload.CurrentPassword,
		NewPassword:     payload.NewPassword,
	}
	return p.gw.Do(ctx, http.MethodPut, "/profile/password", wire, nil)
}
