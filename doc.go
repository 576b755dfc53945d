// Package console implements the session and authorization core for the
// ResQLink incident-reporting console: a single-writer session controller,
// a bearer-token API gateway, role-gated route guards, and the superadmin
// nomination flow.
//
// Session lifecycle:
//   - SessionController owns the one Session value. It is the only component
//     allowed to mutate it; the Gateway and RouteGuard consume read-only
//     projections (token, role, authenticated flag).
//   - The session state machine centralizes the transition graph (unknown,
//     rehydrating, anonymous, authenticated) so login, logout, rehydration
//     and forced invalidation all follow the same legal moves.
//
// Gateway policy:
//   - Every outgoing request carries "Authorization: Bearer <token>" when a
//     token is available. Any 401/403 response fires the unauthorized
//     listeners before the error propagates; the controller subscribes and
//     tears the session down, the HTTP layer redirects to the login route.
//     The policy is global so no screen can opt out of invalidation.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter describing login, logout,
//     invalidation, and role-change events. Sinks run best-effort (errors
//     are logged) so you can forward to a store or queue without blocking
//     authentication.
package console
