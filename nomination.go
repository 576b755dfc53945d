package console

import (
	"context"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// NominationFlow is the two-step, out-of-band superadmin promotion
// protocol. It holds no persistent state: the one-time code's expiry and
// single-use enforcement are entirely server-side.
type NominationFlow struct {
	admin    *AdminAPI
	sessions *SessionController
	logger   Logger
	sink     ActivitySink
}

func NewNominationFlow(admin *AdminAPI, sessions *SessionController) *NominationFlow {
	return &NominationFlow{
		admin:    admin,
		sessions: sessions,
		logger:   defLogger{},
		sink:     noopActivitySink{},
	}
}

func (n *NominationFlow) WithLogger(logger Logger) *NominationFlow {
	if logger != nil {
		n.logger = logger
	}
	return n
}

func (n *NominationFlow) WithActivitySink(sink ActivitySink) *NominationFlow {
	n.sink = normalizeActivitySink(sink)
	return n
}

// Initiate requests a nomination for another admin's account. The server
// generates and emails the nominee a one-time 6-digit code.
func (n *NominationFlow) Initiate(ctx context.Context, userID string) error {
	if userID == "" {
		return goerrors.New("nominee user id is required", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}
	return n.admin.NominateSuperadmin(ctx, userID)
}

// Confirm submits the nominee's email and code. On acceptance the updated
// role is merged into the local session immediately, no re-login needed. On
// rejection no local state changes.
func (n *NominationFlow) Confirm(ctx context.Context, email, code string) (User, error) {
	if err := ValidateNomination(email, code); err != nil {
		return User{}, err
	}

	user, err := n.admin.VerifySuperadmin(ctx, email, code)
	if err != nil {
		// invalid and expired codes come back as plain rejections; build a
		// fresh error per call, WithMetadata mutates its receiver
		if IsRejectionError(err) {
			return User{}, goerrors.New("invalid or expired nomination code", goerrors.CategoryBadInput).
				WithTextCode(TextCodeNominationRejected).
				WithCode(goerrors.CodeBadRequest).
				WithMetadata(map[string]any{
					"server_message": UserMessage(err),
				})
		}
		return User{}, err
	}

	if !user.Role.IsValid() {
		return User{}, goerrors.New("server returned no role for confirmed nomination", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal)
	}

	role := user.Role
	if current, ok := n.sessions.Current(); ok && strings.EqualFold(current.Email, email) {
		n.sessions.UpdateUser(UserUpdate{Role: &role})
	}

	n.logger.Info("superadmin nomination confirmed: email=%s", email)

	if err := n.sink.Record(ctx, ActivityEvent{
		EventType: ActivityEventRoleChanged,
		UserID:    user.ID,
		Email:     email,
		ToRole:    role,
		Metadata:  map[string]any{"flow": "nomination", "status": http.StatusOK},
	}); err != nil {
		n.logger.Warn("activity sink error: %v", err)
	}

	return user, nil
}
