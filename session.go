package console

import (
	"fmt"
	"time"
)

// Session holds the client-side authenticated identity. The token is an
// opaque bearer credential; the profile fields mirror whatever the server
// last told us about the account.
type Session struct {
	UserID   string     `json:"user_id,omitempty"`
	Name     string     `json:"name,omitempty"`
	Email    string     `json:"email,omitempty"`
	Phone    string     `json:"phone,omitempty"`
	Role     UserRole   `json:"role,omitempty"`
	IsActive bool       `json:"is_active,omitempty"`
	Token    string     `json:"token,omitempty"`
	IssuedAt *time.Time `json:"issued_at,omitempty"`
}

// Valid reports whether the session satisfies the all-or-nothing invariant:
// a token is present if and only if the user id and role are present.
// Partial state reads as unauthenticated.
func (s *Session) Valid() bool {
	if s == nil {
		return false
	}
	return s.Token != "" && s.UserID != "" && s.Role.IsValid()
}

// UserUpdate is a partial profile/role update merged into the session after
// profile edits or role promotion, without re-authenticating.
type UserUpdate struct {
	Name     *string   `json:"name,omitempty"`
	Email    *string   `json:"email,omitempty"`
	Phone    *string   `json:"phone,omitempty"`
	Role     *UserRole `json:"role,omitempty"`
	IsActive *bool     `json:"is_active,omitempty"`
}

// Apply merges the non-nil fields into a copy of the session.
func (u UserUpdate) Apply(s Session) Session {
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.Email != nil {
		s.Email = *u.Email
	}
	if u.Phone != nil {
		s.Phone = *u.Phone
	}
	if u.Role != nil {
		s.Role = *u.Role
	}
	if u.IsActive != nil {
		s.IsActive = *u.IsActive
	}
	return s
}

// TODO: enable only in development!
func (s Session) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"user=%s email=%s role=%s active=%t iat=%s",
		s.UserID,
		s.Email,
		s.Role,
		s.IsActive,
		issuedAt,
	)
}

// sessionFromUser builds a session out of a login/register response pair.
func sessionFromUser(token string, user User) Session {
	now := time.Now()
	return Session{
		UserID:   user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Phone:    user.Phone,
		Role:     user.Role,
		IsActive: user.IsActive,
		Token:    token,
		IssuedAt: &now,
	}
}

// User is the account record as the server reports it.
type User struct {
	ID        string     `json:"_id,omitempty"`
	Name      string     `json:"name,omitempty"`
	Email     string     `json:"email,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Role      UserRole   `json:"role,omitempty"`
	IsActive  bool       `json:"isActive"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}
