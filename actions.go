package careauth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// Service implements the Auth Actions: stateless operations against the
// identity store and directory that normalize every result into an Outcome
// envelope. No lower-level failure crosses the boundary unmapped.
type Service struct {
	identity     IdentityStore
	directory    Directory
	logger       Logger
	activitySink ActivitySink
	retry        RetryPolicy
	now          func() time.Time
	Debug        bool
}

// NewService returns a new Service
func NewService(identity IdentityStore, directory Directory) *Service {
	return &Service{
		identity:     identity,
		directory:    directory,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		retry:        DefaultRetryPolicy,
		now:          time.Now,
	}
}

func (s *Service) WithLogger(logger Logger) *Service {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Service) WithActivitySink(sink ActivitySink) *Service {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithRetryPolicy overrides the timeout/backoff policy used for directory reads.
func (s *Service) WithRetryPolicy(policy RetryPolicy) *Service {
	s.retry = policy
	return s
}

// WithClock injects a custom clock (useful for tests).
func (s *Service) WithClock(clock func() time.Time) *Service {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Login authenticates against the identity store, loads the Identity
// Record, and returns the session user with a fresh bearer token. Inactive
// accounts are rejected and their remote session revoked.
func (s *Service) Login(ctx context.Context, email, password string) Outcome[SessionUser] {
	principal, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		s.logger.Error("Login sign-in error", "error", err)
		s.emitEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"email": email,
			"error": err.Error(),
		})
		return FailFromError[SessionUser](err)
	}

	user, err := retryRead(ctx, s.retry, func(ctx context.Context) (*User, error) {
		return s.directory.User(ctx, principal.UID)
	})
	if err != nil {
		// Credential without a directory record: revoke before failing so
		// the watcher never observes a half-established session.
		s.revokeSession(ctx)
		s.logger.Error("Login identity record fetch error", "error", err)
		s.emitEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, principal.UID, map[string]any{
			"email": email,
			"error": err.Error(),
		})
		return FailFromError[SessionUser](err)
	}

	if !user.IsActive {
		s.revokeSession(ctx)
		s.logger.Warn("Login blocked for inactive account", "user_id", user.ID)
		s.emitEvent(ctx, ActivityEventLoginFailure, actorFromUser(user), user.ID.String(), map[string]any{
			"email": email,
			"error": ErrAccountInactive.Message,
		})
		return Fail[SessionUser](CodeAccountInactive, ErrAccountInactive.Message)
	}

	token, err := s.identity.Token(ctx, principal)
	if err != nil {
		s.revokeSession(ctx)
		s.logger.Error("Login token fetch error", "error", err)
		return FailFromError[SessionUser](err)
	}

	if err := s.directory.TrackLogin(ctx, principal.UID); err != nil {
		// Best effort, the session is already valid.
		s.logger.Warn("Login last-login stamp failed", "error", err)
	} else {
		now := s.now()
		user.LastLoginAt = &now
	}

	s.emitEvent(ctx, ActivityEventLoginSuccess, actorFromUser(user), user.ID.String(), map[string]any{
		"email": email,
	})

	out := OK(NewSessionUser(user, token))
	s.debugf("login outcome", out)
	return out
}

// Logout revokes the remote session unconditionally.
func (s *Service) Logout(ctx context.Context) Outcome[Empty] {
	if err := s.identity.SignOut(ctx); err != nil {
		s.logger.Error("Logout sign-out error", "error", err)
		return FailFromError[Empty](err)
	}

	s.emitEvent(ctx, ActivityEventLogout, ActorRef{Type: "user"}, "", nil)

	return OK[Empty](nil, "signed out")
}

// ResetPassword requests a password reset email from the identity store.
func (s *Service) ResetPassword(ctx context.Context, email string) Outcome[Empty] {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return Fail[Empty](CodeInvalidEmail, ErrInvalidEmail.Message)
	}

	if err := s.identity.SendPasswordReset(ctx, email); err != nil {
		s.logger.Error("ResetPassword request error", "error", err)
		if errors.IsNotFound(err) {
			return Fail[Empty](CodeNotFound, "no account found for this email")
		}
		return FailFromError[Empty](err)
	}

	s.emitEvent(ctx, ActivityEventPasswordReset, ActorRef{Type: "unknown"}, "", map[string]any{
		"email": email,
	})

	return OK[Empty](nil, "password reset email sent")
}

// CreateUserInput is the payload for provisioning a company user.
type CreateUserInput struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone_number"`
	Password  string    `json:"password"`
	CompanyID uuid.UUID `json:"company_id"`
	Role      UserRole  `json:"user_role"`
	// UseHashid derives the user ID deterministically from the email.
	UseHashid bool `json:"-"`
}

// Validate will run validation rules
func (in CreateUserInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Phone, validation.By(validatePhone)),
		validation.Field(&in.Password, validation.Required, validation.Length(6, 100)),
		validation.Field(&in.Role, validation.In(RoleUser, RoleAdmin)),
	)
}

func validatePhone(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}

	num, err := phonenumbers.Parse(raw, "US")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number", errors.CategoryValidation)
	}

	return nil
}

// CreateUser provisions a credential and Identity Record for a new company
// user. Only admins may call it, and the target company must exist. The
// preconditions run before any store call is made.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput, actor *SessionUser) Outcome[User] {
	if actor == nil || !actor.IsAdmin() {
		s.logger.Warn("CreateUser denied for non-admin actor")
		return Fail[User](CodeForbidden, ErrForbidden.Message)
	}

	if err := input.Validate(); err != nil {
		return failFromValidation[User](err)
	}

	if _, err := retryRead(ctx, s.retry, func(ctx context.Context) (*Company, error) {
		return s.directory.Company(ctx, input.CompanyID.String())
	}); err != nil {
		if errors.IsNotFound(err) {
			return Fail[User](CodeTenantNotFound, ErrTenantNotFound.Message)
		}
		s.logger.Error("CreateUser company lookup error", "error", err)
		return FailFromError[User](err)
	}

	principal, err := s.identity.CreateCredential(ctx, input.Email, input.Password)
	if err != nil {
		s.logger.Error("CreateUser credential error", "error", err)
		return FailFromError[User](err)
	}

	if err := s.identity.UpdateDisplayName(ctx, principal, input.Name); err != nil {
		s.logger.Error("CreateUser display name error", "error", err)
		return FailFromError[User](err)
	}

	role := input.Role
	if role == "" {
		role = RoleUser
	}

	user := &User{
		Email:     input.Email,
		Name:      input.Name,
		Phone:     input.Phone,
		CompanyID: input.CompanyID,
		Role:      role,
		IsActive:  true,
	}

	if id, err := uuid.Parse(principal.UID); err == nil {
		user.ID = id
	} else if input.UseHashid {
		if id, err := hashid.NewUUID(input.Email); err == nil {
			user.ID = id
		}
	}

	created, err := s.directory.SaveUser(ctx, user)
	if err != nil {
		s.logger.Error("CreateUser record write error", "error", err)
		return FailFromError[User](err)
	}

	s.emitEvent(ctx, ActivityEventUserCreated, actorFromUser(&actor.User), created.ID.String(), map[string]any{
		"company_id": created.CompanyID.String(),
		"role":       created.Role,
	})

	out := OK(created, "user created")
	s.debugf("create user outcome", out)
	return out
}

// GetCompanyData fetches the Tenant Record.
func (s *Service) GetCompanyData(ctx context.Context, companyID uuid.UUID) Outcome[Company] {
	company, err := retryRead(ctx, s.retry, func(ctx context.Context) (*Company, error) {
		return s.directory.Company(ctx, companyID.String())
	})
	if err != nil {
		if errors.IsNotFound(err) {
			return Fail[Company](CodeNotFound, ErrTenantNotFound.Message)
		}
		s.logger.Error("GetCompanyData fetch error", "error", err)
		return FailFromError[Company](err)
	}

	return OK(company)
}

// GetCompanyUsers returns every Identity Record in the actor's company.
// Actors may only list their own tenant.
func (s *Service) GetCompanyUsers(ctx context.Context, companyID uuid.UUID, actor *SessionUser) Outcome[[]*User] {
	if actor == nil || !actor.BelongsTo(companyID) {
		return Fail[[]*User](CodeForbidden, ErrForbidden.Message)
	}

	users, err := retryRead(ctx, s.retry, func(ctx context.Context) ([]*User, error) {
		return s.directory.CompanyUsers(ctx, companyID.String())
	})
	if err != nil {
		s.logger.Error("GetCompanyUsers fetch error", "error", err)
		return FailFromError[[]*User](err)
	}

	return OK(&users)
}

// ToggleUserStatus flips a user's active flag. The actor must be an admin
// in the target's company, and self-deactivation is always rejected.
func (s *Service) ToggleUserStatus(ctx context.Context, userID uuid.UUID, active bool, actor *SessionUser) Outcome[User] {
	if actor != nil && actor.ID == userID {
		return Fail[User](CodeForbidden, "you cannot change your own account status")
	}

	if actor == nil || !actor.IsAdmin() {
		return Fail[User](CodeForbidden, ErrForbidden.Message)
	}

	target, err := retryRead(ctx, s.retry, func(ctx context.Context) (*User, error) {
		return s.directory.User(ctx, userID.String())
	})
	if err != nil {
		if errors.IsNotFound(err) {
			return Fail[User](CodeNotFound, ErrIdentityNotFound.Message)
		}
		s.logger.Error("ToggleUserStatus fetch error", "error", err)
		return FailFromError[User](err)
	}

	if !target.BelongsTo(actor.CompanyID) {
		return Fail[User](CodeForbidden, ErrForbidden.Message)
	}

	updated, err := s.directory.SetUserActive(ctx, userID.String(), active)
	if err != nil {
		s.logger.Error("ToggleUserStatus update error", "error", err)
		return FailFromError[User](err)
	}

	s.emitEvent(ctx, ActivityEventUserStatusChanged, actorFromUser(&actor.User), userID.String(), map[string]any{
		"is_active": active,
	})

	return OK(updated)
}

// Empty is the Data type for envelope-only results.
type Empty struct{}

// revokeSession tears down the remote session, logging but otherwise
// swallowing failures: callers are already on an error path.
func (s *Service) revokeSession(ctx context.Context) {
	if err := s.identity.SignOut(ctx); err != nil {
		s.logger.Warn("session revocation failed", "error", err)
	}
}

func (s *Service) emitEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func (s *Service) debugf(label string, v any) {
	if !s.Debug {
		return
	}
	s.logger.Debug(label+": %s", print.MaybePrettyJSON(v))
}

func actorFromUser(user *User) ActorRef {
	if user == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   user.ID.String(),
		Type: "user",
	}
}

// failFromValidation translates ozzo field errors into the taxonomy,
// preferring the most specific code.
func failFromValidation[T any](err error) Outcome[T] {
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		if _, ok := fieldErrs["email"]; ok {
			return Fail[T](CodeInvalidEmail, ErrInvalidEmail.Message)
		}
		if _, ok := fieldErrs["password"]; ok {
			return Fail[T](CodeWeakPassword, ErrWeakPassword.Message)
		}
	}
	return Fail[T](CodeUnknown, err.Error())
}
