package console

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// SessionReader is the read-only projection of the controller state that the
// route guard consumes. The controller is the only writer.
type SessionReader interface {
	Current() (Session, bool)
	IsLoading() bool
	IsAuthenticated() bool
	IsAdmin() bool
	IsSuperAdmin() bool
}

// TokenSource yields the current bearer token, empty when anonymous.
type TokenSource func() string

// SessionStore persists the session between process runs. Implementations
// must treat partial records as absent.
type SessionStore interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, session Session) error
	Clear(ctx context.Context) error
}

// Config holds console options
type Config interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
	GetLoginPath() string
	GetLandingPath() string
	GetRejectedRouteKey() string
	GetAuthScheme() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] CONSOLE "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] CONSOLE "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] CONSOLE "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] CONSOLE "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
