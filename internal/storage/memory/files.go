package memory

import (
	"context"

	"github.com/EvanCNavarro/invela/pkg/domain"
	"github.com/EvanCNavarro/invela/pkg/interfaces/store"
	"github.com/google/uuid"
)

type VaultFileRepository struct {
	base baseMemoryRepo[domain.VaultFile]
}

func NewVaultFileRepository() *VaultFileRepository {
	return &VaultFileRepository{
		base: newBaseMemoryRepo(func(f *domain.VaultFile) *domain.RecordMeta { return &f.RecordMeta }),
	}
}

func (r *VaultFileRepository) Create(ctx context.Context, f *domain.VaultFile) error {
	if f.Status == "" {
		f.Status = domain.FileStatusUploaded
	}
	return r.base.create(ctx, f)
}

func (r *VaultFileRepository) Update(ctx context.Context, f *domain.VaultFile) error {
	return r.base.update(ctx, f)
}

func (r *VaultFileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.VaultFile, error) {
	return r.base.getByID(ctx, id, false)
}

func (r *VaultFileRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.VaultFile], error) {
	return r.base.list(ctx, opts)
}

func (r *VaultFileRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.base.softDelete(ctx, id)
}

func (r *VaultFileRepository) ListByCompany(ctx context.Context, companyID uuid.UUID, opts store.ListOptions) (store.ListResult[domain.VaultFile], error) {
	return r.base.listWhere(ctx, opts, func(f *domain.VaultFile) bool {
		return f.CompanyID == companyID
	})
}

func (r *VaultFileRepository) MarkDeleted(ctx context.Context, id uuid.UUID) error {
	file, err := r.base.getByID(ctx, id, true)
	if err != nil {
		return err
	}
	file.Status = domain.FileStatusDeleted
	return r.base.update(ctx, file)
}
