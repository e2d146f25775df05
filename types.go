package careauth

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Principal is the transient authentication principal issued by the
// identity store. It is distinct from the durable Identity Record (User):
// a principal can exist for a credential whose directory record was removed.
type Principal struct {
	UID   string
	Email string
}

// IdentityStore is the managed authentication backend boundary. The remote
// store owns credential verification and session tokens; this library only
// consumes it.
type IdentityStore interface {
	SignIn(ctx context.Context, email, password string) (*Principal, error)
	SignOut(ctx context.Context) error
	// ObserveSession registers a callback invoked with the current principal
	// (nil when signed out). Notifications are delivered serially. The
	// returned cancel detaches the callback and is safe to call twice.
	ObserveSession(onChange func(*Principal)) (cancel func())
	SendPasswordReset(ctx context.Context, email string) error
	CreateCredential(ctx context.Context, email, password string) (*Principal, error)
	UpdateDisplayName(ctx context.Context, principal *Principal, name string) error
	Token(ctx context.Context, principal *Principal) (string, error)
}

// Directory is the per-tenant document store boundary: identity and tenant
// records keyed by opaque IDs, with equality-filtered reads.
type Directory interface {
	User(ctx context.Context, id string) (*User, error)
	SaveUser(ctx context.Context, user *User) (*User, error)
	SetUserActive(ctx context.Context, id string, active bool) (*User, error)
	// TrackLogin stamps the user's last-login time. Best effort for callers:
	// login flows log a failure here but do not abort on it.
	TrackLogin(ctx context.Context, id string) error
	Company(ctx context.Context, id string) (*Company, error)
	CompanyUsers(ctx context.Context, companyID string) ([]*User, error)
}

// Config holds backend project configuration, supplied at process start.
type Config interface {
	GetProjectID() string
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
	GetJWKSEndpoint() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] CAREAUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] CAREAUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] CAREAUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] CAREAUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
