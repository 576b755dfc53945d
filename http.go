package console

import (
	"net/http"
	"time"

	"github.com/goliatone/go-router"
)

// SessionContextKey is where guarded handlers find the Session snapshot.
const SessionContextKey = "console_session"

// HTTPGuard applies RouteGuard decisions to browser navigation. The
// rejected route is recorded in a short-lived cookie so a successful login
// can send the user back where they were headed.
type HTTPGuard struct {
	guard    *RouteGuard
	sessions SessionReader
	cfg      Config
	Logger   Logger

	// LoadingHandler renders the neutral placeholder while the session is
	// rehydrating; it never redirects.
	LoadingHandler func(c router.Context) error
}

func NewHTTPGuard(sessions SessionReader, cfg Config) *HTTPGuard {
	h := &HTTPGuard{
		guard:    NewRouteGuard(sessions, cfg),
		sessions: sessions,
		cfg:      cfg,
		Logger:   defLogger{},
	}

	h.LoadingHandler = func(c router.Context) error {
		return c.Render("loading", router.ViewContext{})
	}

	return h
}

// Protected guards a route. Role requirements compose: Protected() needs
// authentication only, Protected(RoleAdmin) needs admin, and so on.
func (h *HTTPGuard) Protected(minRole ...UserRole) router.MiddlewareFunc {
	route := Route{}
	if len(minRole) > 0 {
		switch minRole[0] {
		case RoleSuperAdmin:
			route.RequireSuperAdmin = true
		case RoleAdmin:
			route.RequireAdmin = true
		}
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			requested := route
			requested.Path = c.OriginalURL()

			decision := h.guard.Evaluate(requested)

			switch decision.Action {
			case ActionLoading:
				return h.LoadingHandler(c)

			case ActionRedirect:
				if decision.RecordedPath != "" {
					h.SetRedirect(c)
				}
				h.Logger.Info("navigation rejected: path=%s redirect=%s", requested.Path, decision.Target)
				return c.Redirect(decision.Target, redirectStatus(c))

			default:
				if session, ok := h.sessions.Current(); ok {
					c.Locals(SessionContextKey, &session)
				}
				return hf(c)
			}
		}
	}
}

// GetRouterSession retrieves the session snapshot a Protected middleware
// stored for the current request.
func GetRouterSession(c router.Context) (*Session, error) {
	raw := c.Locals(SessionContextKey)
	if raw == nil {
		return nil, ErrNotAuthenticated
	}

	session, ok := raw.(*Session)
	if !ok || !session.Valid() {
		return nil, ErrNotAuthenticated
	}

	return session, nil
}

// SetRedirect records the originally requested location.
func (h *HTTPGuard) SetRedirect(c router.Context) {
	rejectedRoute := h.cfg.GetRejectedRouteKey()

	h.Logger.Info("setting redirect cookie: key=%s path=%s", rejectedRoute, c.OriginalURL())

	c.Cookie(&router.Cookie{
		Name:     rejectedRoute,
		Value:    c.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// GetRedirect pops the recorded location, falling back to def.
func (h *HTTPGuard) GetRedirect(c router.Context, def ...string) string {
	rejectedRoute := h.cfg.GetRejectedRouteKey()
	r := c.Cookies(rejectedRoute)
	if r == "" {
		if len(def) > 0 {
			return def[0]
		}
		return h.cfg.GetLandingPath()
	}
	h.cookieDel(c, rejectedRoute)
	return r
}

// GetRedirectOrDefault pops the recorded location, trying the referer
// before the configured landing page.
func (h *HTTPGuard) GetRedirectOrDefault(c router.Context) string {
	rejectedRoute := h.cfg.GetRejectedRouteKey()
	refererHeader := string(c.Referer())

	r := c.Cookies(rejectedRoute, refererHeader)
	if r == "" {
		r = h.cfg.GetLandingPath()
	}
	h.cookieDel(c, rejectedRoute)
	return r
}

func (h *HTTPGuard) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func redirectStatus(c router.Context) int {
	if c.Method() == string(router.GET) {
		return http.StatusFound
	}
	return http.StatusSeeOther
}
