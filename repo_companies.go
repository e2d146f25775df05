package careauth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Companies is the tenant repository.
type Companies interface {
	repository.Repository[*Company]
}

type companies struct {
	repository.Repository[*Company]
	db *bun.DB
}

var (
	_ Companies                       = (*companies)(nil)
	_ repository.Repository[*Company] = (*companies)(nil)
)

func NewCompaniesRepository(db *bun.DB) Companies {
	repo := repository.NewRepository[*Company](db, repository.ModelHandlers[*Company]{
		NewRecord: func() *Company { return &Company{} },
		GetID: func(c *Company) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Company, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &companies{
		Repository: repo,
		db:         db,
	}
}

func (c *companies) Create(ctx context.Context, record *Company, criteria ...repository.InsertCriteria) (*Company, error) {
	return c.CreateTx(ctx, c.db, record, criteria...)
}

func (c *companies) CreateTx(ctx context.Context, tx bun.IDB, record *Company, criteria ...repository.InsertCriteria) (*Company, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return c.Repository.CreateTx(ctx, tx, record, criteria...)
}
