// Package careauth provides the authentication and authorization core for
// care management clients: credential verification, session observation,
// tenant scoped user administration, and role gating.
//
// Session lifecycle:
//   - SessionWatcher subscribes to an IdentityStore and resolves every
//     principal change into a SessionUser backed by the Directory. Orphaned
//     credentials (a principal with no directory record) are revoked on
//     sight so clients never operate on half-provisioned accounts.
//   - SessionContext owns the mutable SessionState between Attach and
//     Detach. Reads outside that window panic, which keeps consumers honest
//     about lifecycle.
//
// Auth actions:
//   - Service exposes Login, Logout, ResetPassword, CreateUser,
//     GetCompanyData, GetCompanyUsers, and ToggleUserStatus. Every action
//     returns an Outcome envelope instead of an error so callers branch on
//     stable codes rather than provider specific failures.
//
// Authorization:
//   - Gate turns a SessionState into one of four decisions (loading,
//     unauthenticated, forbidden, admit) for route level protection.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Service to
//     describe login, logout, password reset, and user administration
//     events. Sinks run best-effort (errors are logged) so you can forward
//     to a database or queue without blocking authentication.
package careauth
