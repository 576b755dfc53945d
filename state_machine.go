package console

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidTransition = "INVALID_SESSION_STATE_TRANSITION"
)

// ErrInvalidTransition is returned when a requested session state change is
// not allowed.
var ErrInvalidTransition = goerrors.New("invalid session state transition", goerrors.CategoryConflict).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeConflict)

// SessionState is a lifecycle phase of the client session.
type SessionState string

const (
	// SessionStateUnknown is the zero state before rehydration starts.
	SessionStateUnknown SessionState = "unknown"
	// SessionStateRehydrating covers the initial load from persistent
	// storage; view decisions must wait for it to settle.
	SessionStateRehydrating SessionState = "rehydrating"
	// SessionStateAnonymous means no valid session is held.
	SessionStateAnonymous SessionState = "anonymous"
	// SessionStateAuthenticated means a valid session is held.
	SessionStateAuthenticated SessionState = "authenticated"
)

// TransitionContext is passed into hooks for additional processing.
type TransitionContext struct {
	From    SessionState
	To      SessionState
	Session *Session
	Reason  string
}

// TransitionHook is executed before or after a transition.
type TransitionHook func(ctx context.Context, tc TransitionContext) error

// TransitionOption customizes a single transition.
type TransitionOption func(*transitionOptions)

// WithTransitionReason sets the human-readable reason for the transition.
func WithTransitionReason(reason string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.reason = reason
	}
}

// WithBeforeTransitionHook adds a hook executed before the state update.
func WithBeforeTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.beforeHooks = append(opts.beforeHooks, h)
		}
	}
}

// WithAfterTransitionHook adds a hook executed after the state update.
func WithAfterTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.afterHooks = append(opts.afterHooks, h)
		}
	}
}

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*SessionStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *SessionStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineLogger overrides the logger used for hook failures.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *SessionStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

type transitionOptions struct {
	reason      string
	beforeHooks []TransitionHook
	afterHooks  []TransitionHook
}

// SessionStateMachine tracks the client session lifecycle and rejects
// transitions outside the allowed table.
type SessionStateMachine struct {
	transitions map[SessionState]map[SessionState]struct{}
	state       SessionState
	changedAt   time.Time
	now         func() time.Time
	logger      Logger
}

func NewSessionStateMachine(opts ...StateMachineOption) *SessionStateMachine {
	sm := &SessionStateMachine{
		state: SessionStateUnknown,
		transitions: map[SessionState]map[SessionState]struct{}{
			SessionStateUnknown: {
				SessionStateRehydrating: {},
				// login before rehydration, e.g. a fresh install
				SessionStateAnonymous:     {},
				SessionStateAuthenticated: {},
			},
			SessionStateRehydrating: {
				SessionStateAnonymous:     {},
				SessionStateAuthenticated: {},
			},
			SessionStateAnonymous: {
				SessionStateAuthenticated: {},
			},
			SessionStateAuthenticated: {
				SessionStateAnonymous: {},
			},
		},
		now:    time.Now,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

// Current returns the current state.
func (sm *SessionStateMachine) Current() SessionState {
	return sm.state
}

// Transition moves the machine to the target state after running any before
// hooks; same-state transitions are no-ops. Not safe for concurrent use,
// callers hold the controller lock.
func (sm *SessionStateMachine) Transition(ctx context.Context, target SessionState, session *Session, opts ...TransitionOption) error {
	from := sm.state
	if target == "" {
		return ErrInvalidTransition.WithMetadata(map[string]any{
			"reason": "target state is empty",
		})
	}

	if from == target {
		return nil
	}

	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	if !sm.canTransition(from, target) {
		return ErrInvalidTransition.WithMetadata(map[string]any{
			"from": string(from),
			"to":   string(target),
		})
	}

	tc := TransitionContext{
		From:    from,
		To:      target,
		Session: session,
		Reason:  options.reason,
	}

	if err := sm.runHooks(ctx, options.beforeHooks, tc); err != nil {
		return err
	}

	sm.state = target
	sm.changedAt = sm.now()

	if err := sm.runHooks(ctx, options.afterHooks, tc); err != nil {
		return err
	}

	return nil
}

func (sm *SessionStateMachine) runHooks(ctx context.Context, hooks []TransitionHook, tc TransitionContext) error {
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, tc); err != nil {
			sm.logger.Warn("session transition hook error: %v", err)
			return err
		}
	}
	return nil
}

func (sm *SessionStateMachine) canTransition(from, to SessionState) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}
