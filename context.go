package careauth

import (
	"context"
	"sync"

	"github.com/goliatone/go-print"
)

// CompanyLoadPolicy decides what happens to a session whose tenant record
// could not be fetched.
type CompanyLoadPolicy int

const (
	// CompanyLoadLenient keeps the user signed in and records the error.
	CompanyLoadLenient CompanyLoadPolicy = iota
	// CompanyLoadStrict treats a failed tenant fetch as no session.
	CompanyLoadStrict
)

// SessionContext is the single process-wide holder of session state. It has
// an explicit attach/detach lifecycle: Attach subscribes the watcher and
// initializes state to loading; every watcher emission recomputes state;
// Detach tears the subscription down. Reading outside the attach region is
// a programming error and panics.
type SessionContext struct {
	service *Service
	watcher *SessionWatcher
	logger  Logger
	retry   RetryPolicy
	policy  CompanyLoadPolicy
	Debug   bool

	mu       sync.RWMutex
	attached bool
	detached bool
	state    SessionState
	cancel   func()
}

// NewSessionContext returns a new SessionContext
func NewSessionContext(service *Service, watcher *SessionWatcher) *SessionContext {
	if service == nil {
		panic("careauth: missing Service in session context")
	}
	if watcher == nil {
		panic("careauth: missing SessionWatcher in session context")
	}

	return &SessionContext{
		service: service,
		watcher: watcher,
		logger:  defLogger{},
		retry:   DefaultRetryPolicy,
		policy:  CompanyLoadLenient,
	}
}

func (c *SessionContext) WithLogger(logger Logger) *SessionContext {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithCompanyLoadPolicy selects strict or lenient handling of tenant-fetch
// failures during session establishment.
func (c *SessionContext) WithCompanyLoadPolicy(policy CompanyLoadPolicy) *SessionContext {
	c.policy = policy
	return c
}

// WithRetryPolicy overrides the timeout/backoff policy for tenant fetches.
func (c *SessionContext) WithRetryPolicy(policy RetryPolicy) *SessionContext {
	c.retry = policy
	return c
}

// Attach starts the session lifecycle. A context attaches exactly once;
// attaching twice, or after Detach, panics.
func (c *SessionContext) Attach() {
	c.mu.Lock()
	if c.attached || c.detached {
		c.mu.Unlock()
		panic("careauth: session context attach out of lifecycle")
	}
	c.attached = true
	c.state = SessionState{Loading: true}
	c.mu.Unlock()

	c.cancel = c.watcher.Observe(c.onSession)
}

// Detach stops watching and ends the lifecycle. Idempotent.
func (c *SessionContext) Detach() {
	c.mu.Lock()
	if !c.attached {
		c.mu.Unlock()
		return
	}
	c.attached = false
	c.detached = true
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// onSession recomputes state from a watcher emission. It runs on the
// watcher's dispatch goroutine, which is the only writer.
func (c *SessionContext) onSession(user *SessionUser) {
	next := SessionState{}

	if user != nil {
		company, err := retryRead(context.Background(), c.retry, func(ctx context.Context) (*Company, error) {
			return c.service.directory.Company(ctx, user.CompanyID.String())
		})

		switch {
		case err == nil:
			next.User = user
			next.Company = company
		case c.policy == CompanyLoadStrict:
			c.logger.Error("tenant fetch failed, dropping session", "error", err)
			next.Err = "unable to load company data"
		default:
			c.logger.Warn("tenant fetch failed, keeping session", "error", err)
			next.User = user
			next.Err = "unable to load company data"
		}
	}

	c.mu.Lock()
	if !c.attached {
		c.mu.Unlock()
		return
	}
	c.state = next
	c.mu.Unlock()

	if c.Debug {
		c.logger.Debug("session state: %s", print.MaybePrettyJSON(next))
	}
}

// Snapshot returns a copy of the current session state.
func (c *SessionContext) Snapshot() SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.mustBeAttached()
	return c.state
}

// IsAuthenticated reports whether a session user is present.
func (c *SessionContext) IsAuthenticated() bool {
	return c.Snapshot().IsAuthenticated()
}

// IsAdmin reports whether the session user holds the admin role.
func (c *SessionContext) IsAdmin() bool {
	return c.Snapshot().IsAdmin()
}

// ClearError resets the error field without touching identity state.
func (c *SessionContext) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mustBeAttached()
	c.state.Err = ""
}

// Actions exposes the underlying Auth Actions service.
func (c *SessionContext) Actions() *Service {
	return c.service
}

// Login delegates to the Auth Actions and records the failure message in
// the session state, where it stays until cleared or overwritten.
func (c *SessionContext) Login(ctx context.Context, email, password string) Outcome[SessionUser] {
	out := c.service.Login(ctx, email, password)
	c.recordOutcome(out.Error)
	return out
}

// Logout delegates to the Auth Actions; the watcher clears identity state.
func (c *SessionContext) Logout(ctx context.Context) Outcome[Empty] {
	out := c.service.Logout(ctx)
	c.recordOutcome(out.Error)
	return out
}

// ResetPassword delegates to the Auth Actions and records failures.
func (c *SessionContext) ResetPassword(ctx context.Context, email string) Outcome[Empty] {
	out := c.service.ResetPassword(ctx, email)
	c.recordOutcome(out.Error)
	return out
}

func (c *SessionContext) recordOutcome(errInfo *ErrorInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mustBeAttached()
	if errInfo == nil {
		c.state.Err = ""
		return
	}
	c.state.Err = errInfo.Message
}

func (c *SessionContext) mustBeAttached() {
	if !c.attached {
		panic("careauth: session context used outside its attach region")
	}
}
