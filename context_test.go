package careauth_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	careauth "github.com/careloop/go-careauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestSessionContext(identity *MockIdentityStore, directory *MockDirectory) *careauth.SessionContext {
	svc := careauth.NewService(identity, directory).
		WithLogger(quietLogger{}).
		WithRetryPolicy(fastRetry)

	watcher := careauth.NewSessionWatcher(identity, directory).
		WithLogger(quietLogger{}).
		WithRetryPolicy(fastRetry)

	return careauth.NewSessionContext(svc, watcher).
		WithLogger(quietLogger{}).
		WithRetryPolicy(fastRetry)
}

func TestSessionContextLifecycle(t *testing.T) {
	t.Run("reads before attach panic", func(t *testing.T) {
		sc := newTestSessionContext(new(MockIdentityStore), new(MockDirectory))

		assert.Panics(t, func() { sc.Snapshot() })
		assert.Panics(t, func() { sc.IsAuthenticated() })
		assert.Panics(t, func() { sc.ClearError() })
	})

	t.Run("attach initializes to loading", func(t *testing.T) {
		sc := newTestSessionContext(new(MockIdentityStore), new(MockDirectory))

		sc.Attach()
		defer sc.Detach()

		state := sc.Snapshot()
		assert.True(t, state.Loading)
		assert.False(t, state.IsAuthenticated())
	})

	t.Run("double attach panics", func(t *testing.T) {
		sc := newTestSessionContext(new(MockIdentityStore), new(MockDirectory))

		sc.Attach()
		defer sc.Detach()

		assert.Panics(t, func() { sc.Attach() })
	})

	t.Run("attach after detach panics", func(t *testing.T) {
		sc := newTestSessionContext(new(MockIdentityStore), new(MockDirectory))

		sc.Attach()
		sc.Detach()

		assert.Panics(t, func() { sc.Attach() })
	})

	t.Run("detach is idempotent", func(t *testing.T) {
		sc := newTestSessionContext(new(MockIdentityStore), new(MockDirectory))

		sc.Attach()
		sc.Detach()
		assert.NotPanics(t, func() { sc.Detach() })
	})

	t.Run("missing dependencies panic", func(t *testing.T) {
		assert.Panics(t, func() { careauth.NewSessionContext(nil, nil) })
	})
}

func TestSessionContextStateUpdates(t *testing.T) {
	t.Run("session established with company", func(t *testing.T) {
		identity := new(MockIdentityStore)
		directory := new(MockDirectory)

		company := newTestCompany()
		user := newTestUser(company.ID, careauth.RoleAdmin)
		principal := principalFor(user)

		directory.On("User", mock.Anything, user.ID.String()).Return(user, nil).Once()
		identity.On("Token", mock.Anything, mock.Anything).Return("token-abc", nil).Once()
		directory.On("Company", mock.Anything, company.ID.String()).Return(company, nil).Once()

		sc := newTestSessionContext(identity, directory)
		sc.Attach()
		defer sc.Detach()

		identity.Emit(principal)

		require.Eventually(t, func() bool {
			return sc.IsAuthenticated()
		}, 2*time.Second, 10*time.Millisecond)

		state := sc.Snapshot()
		require.NotNil(t, state.User)
		require.NotNil(t, state.Company)
		assert.Equal(t, company.Name, state.Company.Name)
		assert.True(t, sc.IsAdmin())
		assert.Empty(t, state.Err)
	})

	t.Run("sign-out clears state", func(t *testing.T) {
		identity := new(MockIdentityStore)
		directory := new(MockDirectory)

		company := newTestCompany()
		user := newTestUser(company.ID, careauth.RoleUser)

		directory.On("User", mock.Anything, user.ID.String()).Return(user, nil).Once()
		identity.On("Token", mock.Anything, mock.Anything).Return("token-abc", nil).Once()
		directory.On("Company", mock.Anything, company.ID.String()).Return(company, nil).Once()

		sc := newTestSessionContext(identity, directory)
		sc.Attach()
		defer sc.Detach()

		identity.Emit(principalFor(user))
		require.Eventually(t, func() bool {
			return sc.IsAuthenticated()
		}, 2*time.Second, 10*time.Millisecond)

		identity.Emit(nil)
		require.Eventually(t, func() bool {
			return !sc.IsAuthenticated()
		}, 2*time.Second, 10*time.Millisecond)

		state := sc.Snapshot()
		assert.Nil(t, state.User)
		assert.Nil(t, state.Company)
		assert.False(t, state.Loading)
	})

	t.Run("lenient policy keeps user when tenant fetch fails", func(t *testing.T) {
		identity := new(MockIdentityStore)
		directory := new(MockDirectory)

		company := newTestCompany()
		user := newTestUser(company.ID, careauth.RoleUser)

		directory.On("User", mock.Anything, user.ID.String()).Return(user, nil).Once()
		identity.On("Token", mock.Anything, mock.Anything).Return("token-abc", nil).Once()
		directory.On("Company", mock.Anything, company.ID.String()).
			Return(nil, stderrors.New("deadline exceeded")).Once()

		sc := newTestSessionContext(identity, directory)
		sc.Attach()
		defer sc.Detach()

		identity.Emit(principalFor(user))

		require.Eventually(t, func() bool {
			return sc.IsAuthenticated()
		}, 2*time.Second, 10*time.Millisecond)

		state := sc.Snapshot()
		assert.Nil(t, state.Company)
		assert.Equal(t, "unable to load company data", state.Err)
	})

	t.Run("strict policy drops the session", func(t *testing.T) {
		identity := new(MockIdentityStore)
		directory := new(MockDirectory)

		company := newTestCompany()
		user := newTestUser(company.ID, careauth.RoleUser)

		directory.On("User", mock.Anything, user.ID.String()).Return(user, nil).Once()
		identity.On("Token", mock.Anything, mock.Anything).Return("token-abc", nil).Once()
		directory.On("Company", mock.Anything, company.ID.String()).
			Return(nil, stderrors.New("deadline exceeded")).Once()

		sc := newTestSessionContext(identity, directory).
			WithCompanyLoadPolicy(careauth.CompanyLoadStrict)
		sc.Attach()
		defer sc.Detach()

		identity.Emit(principalFor(user))

		require.Eventually(t, func() bool {
			return sc.Snapshot().Err != ""
		}, 2*time.Second, 10*time.Millisecond)

		state := sc.Snapshot()
		assert.Nil(t, state.User)
		assert.False(t, state.IsAuthenticated())
	})

	t.Run("clear error resets only the error", func(t *testing.T) {
		identity := new(MockIdentityStore)
		directory := new(MockDirectory)

		company := newTestCompany()
		user := newTestUser(company.ID, careauth.RoleUser)

		directory.On("User", mock.Anything, user.ID.String()).Return(user, nil).Once()
		identity.On("Token", mock.Anything, mock.Anything).Return("token-abc", nil).Once()
		directory.On("Company", mock.Anything, company.ID.String()).
			Return(nil, stderrors.New("deadline exceeded")).Once()

		sc := newTestSessionContext(identity, directory)
		sc.Attach()
		defer sc.Detach()

		identity.Emit(principalFor(user))

		require.Eventually(t, func() bool {
			return sc.Snapshot().Err != ""
		}, 2*time.Second, 10*time.Millisecond)

		sc.ClearError()

		state := sc.Snapshot()
		assert.Empty(t, state.Err)
		assert.True(t, state.IsAuthenticated())
	})
}

func TestSessionContextActions(t *testing.T) {
	ctx := context.Background()

	t.Run("failed login records the error message", func(t *testing.T) {
		identity := new(MockIdentityStore)
		directory := new(MockDirectory)

		identity.On("SignIn", ctx, "bad@example.com", "wrongpassword").
			Return(nil, careauth.ErrMismatchedHashAndPassword).Once()

		sc := newTestSessionContext(identity, directory)
		sc.Attach()
		defer sc.Detach()

		out := sc.Login(ctx, "bad@example.com", "wrongpassword")
		assert.False(t, out.Success)
		assert.Equal(t, "the credentials provided are invalid", sc.Snapshot().Err)
	})

	t.Run("successful action clears a stale error", func(t *testing.T) {
		identity := new(MockIdentityStore)
		directory := new(MockDirectory)

		identity.On("SignIn", ctx, "bad@example.com", "wrongpassword").
			Return(nil, careauth.ErrMismatchedHashAndPassword).Once()
		identity.On("SendPasswordReset", ctx, "coordinator@example.com").Return(nil).Once()

		sc := newTestSessionContext(identity, directory)
		sc.Attach()
		defer sc.Detach()

		sc.Login(ctx, "bad@example.com", "wrongpassword")
		require.NotEmpty(t, sc.Snapshot().Err)

		out := sc.ResetPassword(ctx, "coordinator@example.com")
		require.True(t, out.Success)
		assert.Empty(t, sc.Snapshot().Err)
	})

	t.Run("actions accessor exposes the service", func(t *testing.T) {
		sc := newTestSessionContext(new(MockIdentityStore), new(MockDirectory))
		assert.NotNil(t, sc.Actions())
	})
}
