package careauth

import (
	"context"
	"sync"

	"github.com/goliatone/go-errors"
)

// MaxLoginAttempts is the maximum number of attempts a user gets
// in a period
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = "24h"

// LocalIdentityStore is an IdentityStore backed by the local user
// repository. Credentials are verified against stored bcrypt hashes and
// session tokens are minted with the configured TokenService.
//
// Use it when the deployment has no external identity provider. Session
// observers are notified serially, in registration order.
type LocalIdentityStore struct {
	repo   RepositoryManager
	tokens TokenService
	logger Logger

	mu        sync.Mutex
	current   *Principal
	observers map[int]func(*Principal)
	nextID    int
}

var _ IdentityStore = (*LocalIdentityStore)(nil)

func NewLocalIdentityStore(repo RepositoryManager, tokens TokenService) *LocalIdentityStore {
	repo.MustValidate()
	return &LocalIdentityStore{
		repo:      repo,
		tokens:    tokens,
		logger:    defLogger{},
		observers: map[int]func(*Principal){},
	}
}

func (s *LocalIdentityStore) WithLogger(logger Logger) *LocalIdentityStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *LocalIdentityStore) SignIn(ctx context.Context, email, password string) (*Principal, error) {
	user, err := s.repo.Users().GetByIdentifier(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*user.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			user.LoginAttempts = 0
		}
	}

	// if we have too many attempts in the given window, cool off!
	if user.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		// We have to increment the login_attempts counter and login_attempt_at
		if err2 := s.repo.Users().TrackAttemptedLogin(ctx, user); err2 != nil {
			return nil, errors.Wrap(err2, errors.CategoryInternal, "failed to track login attempt")
		}

		return nil, ErrMismatchedHashAndPassword
	}

	// reset the login_attempts counter and login_attempt_at
	if err := s.repo.Users().TrackSuccessfulLogin(ctx, user.ID); err != nil {
		s.logger.Error("failed to track successful login: %v", err)
	}

	principal := &Principal{
		UID:   user.ID.String(),
		Email: user.Email,
	}

	s.setCurrent(principal)

	return principal, nil
}

func (s *LocalIdentityStore) SignOut(ctx context.Context) error {
	s.setCurrent(nil)
	return nil
}

func (s *LocalIdentityStore) ObserveSession(onChange func(*Principal)) (cancel func()) {
	if onChange == nil {
		return func() {}
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = onChange
	current := s.current
	s.mu.Unlock()

	// new observers learn the current session state right away
	onChange(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

func (s *LocalIdentityStore) SendPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.Users().GetByIdentifier(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return errors.Wrap(err, errors.CategoryNotFound, "no account for email").
				WithCode(errors.CodeNotFound).
				WithMetadata(map[string]any{"email": email})
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user for password reset")
	}

	// TODO: wire a mailer once the notification transport lands
	s.logger.Info("password reset requested for %s", user.Email)

	return nil
}

func (s *LocalIdentityStore) CreateCredential(ctx context.Context, email, password string) (*Principal, error) {
	if email == "" {
		return nil, ErrInvalidEmail
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Users().GetByIdentifier(ctx, email); err == nil {
		return nil, ErrEmailAlreadyExists
	} else if !errors.IsNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check for existing credential")
	}

	user, err := s.repo.Users().Create(ctx, &User{
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	})
	if err != nil {
		return nil, err
	}

	return &Principal{
		UID:   user.ID.String(),
		Email: user.Email,
	}, nil
}

func (s *LocalIdentityStore) UpdateDisplayName(ctx context.Context, principal *Principal, name string) error {
	if principal == nil {
		return errors.New("principal is required", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}

	user, err := s.repo.Users().GetByIdentifier(ctx, principal.UID)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user for profile update")
	}

	user.Name = name
	_, err = s.repo.Users().Upsert(ctx, user)

	return err
}

func (s *LocalIdentityStore) Token(ctx context.Context, principal *Principal) (string, error) {
	if principal == nil {
		return "", errors.New("principal is required", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}

	user, err := s.repo.Users().GetByIdentifier(ctx, principal.UID)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user for token generation")
	}

	return s.tokens.Generate(user)
}

// setCurrent swaps the active principal and fans the change out to every
// registered observer. Callbacks run outside the lock so they can call
// back into the store.
func (s *LocalIdentityStore) setCurrent(principal *Principal) {
	s.mu.Lock()
	s.current = principal
	callbacks := make([]func(*Principal), 0, len(s.observers))
	for _, fn := range s.observers {
		callbacks = append(callbacks, fn)
	}
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(principal)
	}
}
