package bunrepo

import (
	"context"

	"github.com/EvanCNavarro/invela/pkg/domain"
	"github.com/EvanCNavarro/invela/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type CompanyRepository struct {
	base baseRepository[domain.Company]
}

func NewCompanyRepository(db *bun.DB) *CompanyRepository {
	handlers := repository.ModelHandlers[*domain.Company]{
		NewRecord:          func() *domain.Company { return &domain.Company{} },
		GetID:              func(c *domain.Company) uuid.UUID { return c.ID },
		SetID:              func(c *domain.Company, id uuid.UUID) { c.ID = id },
		GetIdentifier:      func() string { return "slug" },
		GetIdentifierValue: func(c *domain.Company) string { return c.Slug },
	}
	return &CompanyRepository{
		base: newBaseRepository[domain.Company](db, handlers, func(c *domain.Company) *domain.RecordMeta { return &c.RecordMeta }),
	}
}

func (r *CompanyRepository) Create(ctx context.Context, c *domain.Company) error {
	if c.AccreditationStatus == "" {
		c.AccreditationStatus = domain.AccreditationPending
	}
	return r.base.create(ctx, c)
}

func (r *CompanyRepository) Update(ctx context.Context, c *domain.Company) error {
	return r.base.update(ctx, c)
}

func (r *CompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	return r.base.getByID(ctx, id, false)
}

func (r *CompanyRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.Company], error) {
	return r.base.list(ctx, opts)
}

func (r *CompanyRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.base.softDelete(ctx, id)
}

func (r *CompanyRepository) GetBySlug(ctx context.Context, slug string) (*domain.Company, error) {
	record, err := r.base.repo.Get(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("slug = ?", slug).Where("deleted_at IS NULL")
	})
	if err != nil {
		return nil, mapError(err)
	}
	return record, nil
}

func (r *CompanyRepository) SetFileVaultUnlocked(ctx context.Context, id uuid.UUID, unlocked bool) error {
	company, err := r.base.getByID(ctx, id, true)
	if err != nil {
		return err
	}
	company.FileVaultUnlocked = unlocked
	return r.base.update(ctx, company)
}
