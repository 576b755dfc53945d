package console

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionController is the single source of truth for "who is logged in and
// with what role". It is the only component permitted to mutate the Session;
// every mutation is applied under one lock together with its store write so
// concurrent triggers (say an auto-logout racing a profile update) cannot
// interleave.
type SessionController struct {
	mu      sync.Mutex
	session *Session
	state   *SessionStateMachine
	loading bool

	store   SessionStore
	authAPI *AuthAPI
	profile *ProfileAPI
	logger  Logger
	sink    ActivitySink

	ready     chan struct{}
	readyOnce sync.Once
}

var _ SessionReader = (*SessionController)(nil)

// NewSessionController builds a controller over the given store. Call
// Connect once the Gateway exists, then Rehydrate at process start.
func NewSessionController(store SessionStore, opts ...StateMachineOption) *SessionController {
	return &SessionController{
		store:   store,
		state:   NewSessionStateMachine(opts...),
		loading: true,
		logger:  defLogger{},
		sink:    noopActivitySink{},
		ready:   make(chan struct{}),
	}
}

func (c *SessionController) WithLogger(logger Logger) *SessionController {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (c *SessionController) WithActivitySink(sink ActivitySink) *SessionController {
	c.sink = normalizeActivitySink(sink)
	return c
}

// Connect wires the controller to the gateway: the typed auth/profile APIs
// are built on it and the controller subscribes to the global unauthorized
// event so any 401/403 tears the session down.
func (c *SessionController) Connect(gw *Gateway) *SessionController {
	c.authAPI = NewAuthAPI(gw).WithLogger(c.logger)
	c.profile = NewProfileAPI(gw)
	gw.OnUnauthorized(c.handleUnauthorized)
	return c
}

// Token implements TokenSource; hand it to NewGateway.
func (c *SessionController) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Valid() {
		return c.session.Token
	}
	return ""
}

// Current returns a snapshot of the session, false when anonymous.
func (c *SessionController) Current() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.session.Valid() {
		return Session{}, false
	}
	return *c.session, true
}

// IsLoading is true only during the initial rehydration; view decisions
// must wait for it to settle before evaluating authentication state.
func (c *SessionController) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// IsAuthenticated is true iff the session holds a non-empty token.
func (c *SessionController) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Valid()
}

// IsAdmin is true iff the role is admin or superadmin.
func (c *SessionController) IsAdmin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Valid() && c.session.Role.IsAdmin()
}

// IsSuperAdmin is true iff the role is exactly superadmin.
func (c *SessionController) IsSuperAdmin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Valid() && c.session.Role.IsSuperAdmin()
}

// Ready is closed once the initial rehydration settles.
func (c *SessionController) Ready() <-chan struct{} {
	return c.ready
}

// Rehydrate restores the persisted session at process start. Storage is not
// trusted: a JWT-shaped token that is already expired is dropped locally,
// anything else is re-validated against GET /profile before the session
// counts as authenticated. Failures of any kind settle as anonymous and are
// never surfaced as errors.
func (c *SessionController) Rehydrate(ctx context.Context) {
	defer c.settle()

	c.mu.Lock()
	if err := c.state.Transition(ctx, SessionStateRehydrating, nil, WithTransitionReason("process start")); err != nil {
		c.mu.Unlock()
		c.logger.Warn("rehydration skipped: %v", err)
		return
	}
	c.mu.Unlock()

	stored, err := c.store.Load(ctx)
	if err != nil || stored == nil || !stored.Valid() {
		if err != nil {
			c.logger.Warn("session load failed, starting anonymous: %v", err)
		}
		c.toAnonymous(ctx, "no stored session")
		return
	}

	if tokenLocallyExpired(stored.Token) {
		c.logger.Info("stored token expired, starting anonymous")
		if err := c.store.Clear(ctx); err != nil {
			c.logger.Warn("failed to drop expired session: %v", err)
		}
		c.toAnonymous(ctx, "stored token expired")
		return
	}

	// Hold the candidate so the gateway attaches its token for the
	// validation call; loading stays true so no view renders off it yet.
	c.mu.Lock()
	c.session = stored
	c.mu.Unlock()

	user, err := c.profile.Get(ctx)
	if err != nil {
		// a 401/403 already cleared everything through the listener
		c.logger.Info("rehydration validation failed, starting anonymous: %v", UserMessage(err))
		c.mu.Lock()
		c.session = nil
		c.mu.Unlock()
		c.toAnonymous(ctx, "validation failed")
		return
	}

	fresh := sessionFromUser(stored.Token, user)
	fresh.IssuedAt = stored.IssuedAt

	c.mu.Lock()
	c.session = &fresh
	if err := c.state.Transition(ctx, SessionStateAuthenticated, &fresh, WithTransitionReason("rehydrated")); err != nil {
		c.logger.Warn("rehydration transition rejected: %v", err)
	}
	c.mu.Unlock()

	if err := c.store.Save(ctx, fresh); err != nil {
		c.logger.Warn("failed to refresh stored session: %v", err)
	}

	c.record(ctx, ActivityEvent{
		EventType: ActivityEventSessionRehydrated,
		UserID:    fresh.UserID,
		Email:     fresh.Email,
		ToRole:    fresh.Role,
	})
}

// Login exchanges credentials for a session. On failure any prior session
// is left untouched; there is no automatic retry.
func (c *SessionController) Login(ctx context.Context, payload LoginRequest) (*Session, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	token, user, err := c.authAPI.Login(ctx, payload)
	if err != nil {
		c.record(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Email:     payload.Email,
			Metadata:  map[string]any{"error": UserMessage(err)},
		})
		return nil, err
	}

	session := sessionFromUser(token, user)
	if err := c.apply(ctx, session, "login"); err != nil {
		return nil, err
	}

	c.record(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		UserID:    session.UserID,
		Email:     session.Email,
		ToRole:    session.Role,
	})

	return &session, nil
}

// Register validates the payload client-side first; guaranteed-invalid
// input never costs a round trip. The server remains authoritative and can
// still reject.
func (c *SessionController) Register(ctx context.Context, payload RegisterRequest) (*Session, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	token, user, err := c.authAPI.Register(ctx, payload)
	if err != nil {
		return nil, err
	}

	session := sessionFromUser(token, user)
	if err := c.apply(ctx, session, "register"); err != nil {
		return nil, err
	}

	c.record(ctx, ActivityEvent{
		EventType: ActivityEventRegisterSuccess,
		UserID:    session.UserID,
		Email:     session.Email,
		ToRole:    session.Role,
	})

	return &session, nil
}

// Logout clears the session unconditionally. It always succeeds and never
// contacts the network.
func (c *SessionController) Logout() {
	ctx := context.Background()

	c.mu.Lock()
	prior := c.session
	c.session = nil
	if err := c.state.Transition(ctx, SessionStateAnonymous, nil, WithTransitionReason("logout")); err != nil {
		c.logger.Debug("logout transition: %v", err)
	}
	c.mu.Unlock()

	c.settle()

	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("failed to clear stored session: %v", err)
	}

	if prior.Valid() {
		c.record(ctx, ActivityEvent{
			EventType: ActivityEventLogout,
			UserID:    prior.UserID,
			Email:     prior.Email,
			FromRole:  prior.Role,
		})
	}
}

// UpdateUser merges a partial profile/role update into the session without
// re-authenticating; used after profile edits and role promotion.
func (c *SessionController) UpdateUser(update UserUpdate) {
	ctx := context.Background()

	c.mu.Lock()
	if !c.session.Valid() {
		c.mu.Unlock()
		c.logger.Warn("UpdateUser ignored: no active session")
		return
	}

	prior := *c.session
	merged := update.Apply(prior)
	c.session = &merged
	c.mu.Unlock()

	if err := c.store.Save(ctx, merged); err != nil {
		c.logger.Warn("failed to persist session update: %v", err)
	}

	if merged.Role != prior.Role {
		c.record(ctx, ActivityEvent{
			EventType: ActivityEventRoleChanged,
			UserID:    merged.UserID,
			Email:     merged.Email,
			FromRole:  prior.Role,
			ToRole:    merged.Role,
		})
	}
}

// apply installs a new session: memory and store move together so no
// half-written state is observable.
func (c *SessionController) apply(ctx context.Context, session Session, reason string) error {
	c.mu.Lock()
	if err := c.state.Transition(ctx, SessionStateAuthenticated, &session, WithTransitionReason(reason)); err != nil {
		c.mu.Unlock()
		return err
	}
	c.session = &session
	c.mu.Unlock()

	c.settle()

	if err := c.store.Save(ctx, session); err != nil {
		// the in-memory session stays valid; persistence is best-effort
		c.logger.Warn("failed to persist session: %v", err)
	}

	return nil
}

// handleUnauthorized is the gateway subscription: any 401/403 from any
// endpoint clears persisted and in-memory state before the caller sees the
// error.
func (c *SessionController) handleUnauthorized(ctx context.Context, status int, path string) {
	c.mu.Lock()
	prior := c.session
	c.session = nil
	if c.state.Current() == SessionStateAuthenticated {
		if err := c.state.Transition(ctx, SessionStateAnonymous, nil, WithTransitionReason("unauthorized response")); err != nil {
			c.logger.Debug("invalidation transition: %v", err)
		}
	}
	c.mu.Unlock()

	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("failed to clear stored session: %v", err)
	}

	if prior.Valid() {
		c.record(ctx, ActivityEvent{
			EventType: ActivityEventSessionInvalidated,
			UserID:    prior.UserID,
			Email:     prior.Email,
			FromRole:  prior.Role,
			Metadata:  map[string]any{"status": status, "path": path},
		})
	}
}

func (c *SessionController) toAnonymous(ctx context.Context, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
	if err := c.state.Transition(ctx, SessionStateAnonymous, nil, WithTransitionReason(reason)); err != nil {
		c.logger.Debug("anonymous transition: %v", err)
	}
}

// settle marks the initial loading phase as finished.
func (c *SessionController) settle() {
	c.mu.Lock()
	c.loading = false
	c.mu.Unlock()
	c.readyOnce.Do(func() { close(c.ready) })
}

func (c *SessionController) record(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := c.sink.Record(ctx, event); err != nil {
		c.logger.Warn("activity sink error: %v", err)
	}
}

// tokenLocallyExpired gives a fast local answer for JWT-shaped tokens. The
// token stays opaque otherwise: no signature check happens client-side and
// non-JWT tokens always go to the server for the verdict.
func tokenLocallyExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return exp.Before(time.Now())
}
