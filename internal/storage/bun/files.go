package bunrepo

import (
	"context"

	"github.com/EvanCNavarro/invela/pkg/domain"
	"github.com/EvanCNavarro/invela/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type VaultFileRepository struct {
	base baseRepository[domain.VaultFile]
}

func NewVaultFileRepository(db *bun.DB) *VaultFileRepository {
	handlers := repository.ModelHandlers[*domain.VaultFile]{
		NewRecord:          func() *domain.VaultFile { return &domain.VaultFile{} },
		GetID:              func(f *domain.VaultFile) uuid.UUID { return f.ID },
		SetID:              func(f *domain.VaultFile, id uuid.UUID) { f.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(f *domain.VaultFile) string { return f.ID.String() },
	}
	return &VaultFileRepository{
		base: newBaseRepository[domain.VaultFile](db, handlers, func(f *domain.VaultFile) *domain.RecordMeta { return &f.RecordMeta }),
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
	items, total, err := r.base.listWith(ctx, withCompany(companyID), withListOptions(opts))
	if err != nil {
		return store.ListResult[domain.VaultFile]{}, err
	}
	return store.ListResult[domain.VaultFile]{Items: items, Total: total}, nil
}

func (r *VaultFileRepository) MarkDeleted(ctx context.Context, id uuid.UUID) error {
	file, err := r.base.getByID(ctx, id, true)
	if err != nil {
		return err
	}
	file.Status = domain.FileStatusDeleted
	return r.base.update(ctx, file)
}
