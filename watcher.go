package careauth

import (
	"context"
	"sync"

	"github.com/goliatone/go-errors"
)

// SessionWatcher turns identity-store session notifications into resolved
// session users. Each subscription runs its own serial dispatch loop, so
// observers see notifications one at a time, in backend-delivery order.
type SessionWatcher struct {
	identity  IdentityStore
	directory Directory
	logger    Logger
	retry     RetryPolicy
}

// NewSessionWatcher returns a new SessionWatcher
func NewSessionWatcher(identity IdentityStore, directory Directory) *SessionWatcher {
	return &SessionWatcher{
		identity:  identity,
		directory: directory,
		logger:    defLogger{},
		retry:     DefaultRetryPolicy,
	}
}

func (w *SessionWatcher) WithLogger(logger Logger) *SessionWatcher {
	if logger != nil {
		w.logger = logger
	}
	return w
}

// WithRetryPolicy overrides the timeout/backoff policy used when resolving
// directory records.
func (w *SessionWatcher) WithRetryPolicy(policy RetryPolicy) *SessionWatcher {
	w.retry = policy
	return w
}

// Observe subscribes to session changes. onChange receives the resolved
// session user, or nil when there is no session. The returned cancel
// detaches from the identity store, stops the dispatch loop, and is
// idempotent. Resolution failures degrade to "no session", never a panic.
func (w *SessionWatcher) Observe(onChange func(*SessionUser)) (cancel func()) {
	queue := make(chan *Principal, 16)
	done := make(chan struct{})

	detach := w.identity.ObserveSession(func(principal *Principal) {
		select {
		case queue <- principal:
		case <-done:
		}
	})

	go func() {
		for {
			select {
			case principal := <-queue:
				onChange(w.resolve(context.Background(), principal))
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			detach()
			close(done)
		})
	}
}

// resolve maps a raw principal to a session user. A principal whose
// directory record is gone is an orphaned credential: the remote session is
// revoked so the backend stops reporting it.
func (w *SessionWatcher) resolve(ctx context.Context, principal *Principal) *SessionUser {
	if principal == nil {
		return nil
	}

	user, err := retryRead(ctx, w.retry, func(ctx context.Context) (*User, error) {
		return w.directory.User(ctx, principal.UID)
	})
	if err != nil {
		if errors.IsNotFound(err) {
			w.logger.Warn("orphaned credential, revoking session", "uid", principal.UID)
			if err := w.identity.SignOut(ctx); err != nil {
				w.logger.Error("orphaned session revocation failed", "error", err)
			}
			return nil
		}

		w.logger.Error("session resolve failed, treating as signed out", "error", err)
		return nil
	}

	token, err := w.identity.Token(ctx, principal)
	if err != nil {
		w.logger.Error("session token fetch failed, treating as signed out", "error", err)
		return nil
	}

	return NewSessionUser(user, token)
}
