package memory

import (
	"context"

	"github.com/EvanCNavarro/invela/pkg/domain"
	"github.com/EvanCNavarro/invela/pkg/interfaces/store"
	"github.com/google/uuid"
)

type CompanyRepository struct {
	base baseMemoryRepo[domain.Company]
}

func NewCompanyRepository() *CompanyRepository {
	return &CompanyRepository{
		base: newBaseMemoryRepo(func(c *domain.Company) *domain.RecordMeta { return &c.RecordMeta }),
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
	result, err := r.base.listWhere(ctx, store.ListOptions{}, func(c *domain.Company) bool {
		return c.Slug == slug
	})
	if err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, store.ErrNotFound
	}
	company := result.Items[0]
	return &company, nil
}

func (r *CompanyRepository) SetFileVaultUnlocked(ctx context.Context, id uuid.UUID, unlocked bool) error {
	company, err := r.base.getByID(ctx, id, true)
	if err != nil {
		return err
	}
	company.FileVaultUnlocked = unlocked
	return r.base.update(ctx, company)
}
