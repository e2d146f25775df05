package careauth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// bunDirectory implements Directory over a RepositoryManager.
type bunDirectory struct {
	repo RepositoryManager
}

var _ Directory = (*bunDirectory)(nil)

// NewDirectory builds a Directory backed by the given repository manager.
func NewDirectory(repo RepositoryManager) Directory {
	repo.MustValidate()
	return &bunDirectory{repo: repo}
}

func (d *bunDirectory) User(ctx context.Context, id string) (*User, error) {
	user, err := d.repo.Users().GetByIdentifier(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, "user")
	}
	return user, nil
}

func (d *bunDirectory) SaveUser(ctx context.Context, user *User) (*User, error) {
	if user == nil {
		return nil, errors.New("user is required", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}

	saved, err := d.repo.Users().Upsert(ctx, user)
	if err != nil {
		return nil, mapRepositoryError(err, "user")
	}
	return saved, nil
}

func (d *bunDirectory) SetUserActive(ctx context.Context, id string, active bool) (*User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid user id").
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{"id": id})
	}

	user, err := d.repo.Users().SetActive(ctx, uid, active)
	if err != nil {
		return nil, mapRepositoryError(err, "user")
	}
	return user, nil
}

func (d *bunDirectory) TrackLogin(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid user id").
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{"id": id})
	}

	return d.repo.Users().TrackSuccessfulLogin(ctx, uid)
}

func (d *bunDirectory) Company(ctx context.Context, id string) (*Company, error) {
	company, err := d.repo.Companies().GetByIdentifier(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, "company")
	}
	return company, nil
}

func (d *bunDirectory) CompanyUsers(ctx context.Context, companyID string) ([]*User, error) {
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid company id").
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{"company_id": companyID})
	}

	return d.repo.Users().ByCompany(ctx, cid)
}

// mapRepositoryError lifts repository errors into the package taxonomy so
// that callers can rely on errors.IsNotFound regardless of store.
func mapRepositoryError(err error, entity string) error {
	if repository.IsRecordNotFound(err) {
		return errors.Wrap(err, errors.CategoryNotFound, entity+" not found").
			WithCode(errors.CodeNotFound)
	}
	return err
}
