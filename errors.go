package console

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeAccountInactive    = "ACCOUNT_INACTIVE"
	TextCodeSessionInvalidated = "SESSION_INVALIDATED"
	TextCodeNotAuthenticated   = "NOT_AUTHENTICATED"
	TextCodeNominationRejected = "NOMINATION_REJECTED"
)

// ErrInvalidCredentials is returned when the server rejects a login.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountInactive is returned when the account has been deactivated.
var ErrAccountInactive = goerrors.New("account is deactivated", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountInactive).
	WithCode(goerrors.CodeForbidden)

// ErrSessionInvalidated is returned after a 401/403 tears the session down.
var ErrSessionInvalidated = goerrors.New("session invalidated by server", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionInvalidated).
	WithCode(goerrors.CodeUnauthorized)

// ErrNotAuthenticated is returned for operations that need a live session.
var ErrNotAuthenticated = goerrors.New("not authenticated", goerrors.CategoryAuth).
	WithTextCode(TextCodeNotAuthenticated).
	WithCode(goerrors.CodeUnauthorized)

// IsValidationError reports client-side, pre-submission field failures.
// These never reach the network layer.
func IsValidationError(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryValidation
}

// IsAuthorizationError reports 401/403 responses, the one error kind with a
// global side effect (session teardown plus redirect to login).
func IsAuthorizationError(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryAuth ||
		richErr.Category == goerrors.CategoryAuthz
}

// IsTransportError reports network failures and 5xx responses, surfaced as
// a generic failure notice with no retry.
func IsTransportError(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryOperation ||
		richErr.Category == goerrors.CategoryInternal
}

// IsRejectionError reports non-auth 4xx responses whose server message is
// surfaced verbatim to the user.
func IsRejectionError(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	switch richErr.Category {
	case goerrors.CategoryBadInput, goerrors.CategoryConflict, goerrors.CategoryNotFound:
		return true
	default:
		return false
	}
}

// UserMessage extracts the message intended for presentation. Rejection
// errors carry the server's wording verbatim; everything else falls back to
// the rich error message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if msg, ok := richErr.Metadata["server_message"].(string); ok && msg != "" {
			return msg
		}
		return richErr.Message
	}
	return err.Error()
}
