package careauth_test

import (
	"context"
	"sync"
	"time"

	careauth "github.com/careloop/go-careauth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockIdentityStore implements careauth.IdentityStore. Session
// notifications are driven by tests through Emit.
type MockIdentityStore struct {
	mock.Mock

	mu        sync.Mutex
	observers []func(*careauth.Principal)
	detached  int
}

func (m *MockIdentityStore) SignIn(ctx context.Context, email, password string) (*careauth.Principal, error) {
	args := m.Called(ctx, email, password)
	var principal *careauth.Principal
	if v := args.Get(0); v != nil {
		principal = v.(*careauth.Principal)
	}
	return principal, args.Error(1)
}

func (m *MockIdentityStore) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockIdentityStore) ObserveSession(onChange func(*careauth.Principal)) func() {
	m.mu.Lock()
	m.observers = append(m.observers, onChange)
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			m.detached++
			m.mu.Unlock()
		})
	}
}

// Emit pushes a principal change to every registered observer.
func (m *MockIdentityStore) Emit(principal *careauth.Principal) {
	m.mu.Lock()
	observers := append([]func(*careauth.Principal){}, m.observers...)
	m.mu.Unlock()

	for _, fn := range observers {
		fn(principal)
	}
}

// DetachCount reports how many observers canceled their subscription.
func (m *MockIdentityStore) DetachCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detached
}

func (m *MockIdentityStore) SendPasswordReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockIdentityStore) CreateCredential(ctx context.Context, email, password string) (*careauth.Principal, error) {
	args := m.Called(ctx, email, password)
	var principal *careauth.Principal
	if v := args.Get(0); v != nil {
		principal = v.(*careauth.Principal)
	}
	return principal, args.Error(1)
}

func (m *MockIdentityStore) UpdateDisplayName(ctx context.Context, principal *careauth.Principal, name string) error {
	args := m.Called(ctx, principal, name)
	return args.Error(0)
}

func (m *MockIdentityStore) Token(ctx context.Context, principal *careauth.Principal) (string, error) {
	args := m.Called(ctx, principal)
	return args.String(0), args.Error(1)
}

// MockDirectory implements careauth.Directory
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) User(ctx context.Context, id string) (*careauth.User, error) {
	args := m.Called(ctx, id)
	var user *careauth.User
	if v := args.Get(0); v != nil {
		user = v.(*careauth.User)
	}
	return user, args.Error(1)
}

func (m *MockDirectory) SaveUser(ctx context.Context, user *careauth.User) (*careauth.User, error) {
	args := m.Called(ctx, user)
	var saved *careauth.User
	if v := args.Get(0); v != nil {
		saved = v.(*careauth.User)
	}
	return saved, args.Error(1)
}

func (m *MockDirectory) SetUserActive(ctx context.Context, id string, active bool) (*careauth.User, error) {
	args := m.Called(ctx, id, active)
	var user *careauth.User
	if v := args.Get(0); v != nil {
		user = v.(*careauth.User)
	}
	return user, args.Error(1)
}

func (m *MockDirectory) TrackLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDirectory) Company(ctx context.Context, id string) (*careauth.Company, error) {
	args := m.Called(ctx, id)
	var company *careauth.Company
	if v := args.Get(0); v != nil {
		company = v.(*careauth.Company)
	}
	return company, args.Error(1)
}

func (m *MockDirectory) CompanyUsers(ctx context.Context, companyID string) ([]*careauth.User, error) {
	args := m.Called(ctx, companyID)
	var users []*careauth.User
	if v := args.Get(0); v != nil {
		users = v.([]*careauth.User)
	}
	return users, args.Error(1)
}

type capturingSink struct {
	mu     sync.Mutex
	events []careauth.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt careauth.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) Events() []careauth.ActivityEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]careauth.ActivityEvent{}, c.events...)
}

// quietLogger keeps test output clean.
type quietLogger struct{}

func (quietLogger) Debug(format string, args ...any) {}
func (quietLogger) Info(format string, args ...any)  {}
func (quietLogger) Warn(format string, args ...any)  {}
func (quietLogger) Error(format string, args ...any) {}

// fastRetry keeps tests from sitting in backoff loops.
var fastRetry = careauth.RetryPolicy{
	Timeout:         2 * time.Second,
	MaxTries:        1,
	InitialInterval: time.Millisecond,
}

func newTestUser(companyID uuid.UUID, role careauth.UserRole) *careauth.User {
	return &careauth.User{
		ID:        uuid.New(),
		Email:     "coordinator@example.com",
		Name:      "Care Coordinator",
		CompanyID: companyID,
		Role:      role,
		IsActive:  true,
	}
}

func newTestCompany() *careauth.Company {
	return &careauth.Company{
		ID:   uuid.New(),
		Name: "Sunrise Care",
		Plan: careauth.PlanPro,
		Limits: careauth.UsageLimits{
			MonthlyAssessments: 100,
			MaxUsers:           25,
		},
	}
}

func principalFor(user *careauth.User) *careauth.Principal {
	return &careauth.Principal{
		UID:   user.ID.String(),
		Email: user.Email,
	}
}
