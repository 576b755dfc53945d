package console

// GuardAction is the outcome of a route guard evaluation.
type GuardAction int

const (
	// ActionLoading renders a neutral placeholder; no redirect decision is
	// made while the session is still rehydrating.
	ActionLoading GuardAction = iota
	// ActionRedirect sends the navigation elsewhere.
	ActionRedirect
	// ActionRender lets the requested view through.
	ActionRender
)

// Route describes a guarded navigation target.
type Route struct {
	Path              string
	RequireAdmin      bool
	RequireSuperAdmin bool
}

// GuardDecision is what the presentation layer acts on. RecordedPath is set
// only for the login redirect so a successful login can return the user to
// where they were headed.
type GuardDecision struct {
	Action       GuardAction
	Target       string
	RecordedPath string
}

// RouteGuard gates rendering of protected views from the controller's
// read-only projection plus per-route role requirements.
type RouteGuard struct {
	sessions SessionReader
	cfg      Config
}

func NewRouteGuard(sessions SessionReader, cfg Config) *RouteGuard {
	return &RouteGuard{sessions: sessions, cfg: cfg}
}

// Evaluate runs on every navigation. Ordering matters: loading is checked
// first so a slow rehydration cannot bounce an authenticated user to login,
// and authentication before role since an anonymous user has no role to
// evaluate.
func (g *RouteGuard) Evaluate(route Route) GuardDecision {
	if g.sessions.IsLoading() {
		return GuardDecision{Action: ActionLoading}
	}

	if !g.sessions.IsAuthenticated() {
		return GuardDecision{
			Action:       ActionRedirect,
			Target:       g.cfg.GetLoginPath(),
			RecordedPath: route.Path,
		}
	}

	if route.RequireSuperAdmin && !g.sessions.IsSuperAdmin() {
		return GuardDecision{
			Action: ActionRedirect,
			Target: g.cfg.GetLandingPath(),
		}
	}

	if route.RequireAdmin && !g.sessions.IsAdmin() {
		return GuardDecision{
			Action: ActionRedirect,
			Target: g.cfg.GetLandingPath(),
		}
	}

	return GuardDecision{Action: ActionRender}
}
