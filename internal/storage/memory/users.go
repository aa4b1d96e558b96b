package memory

import (
	"context"

	"github.com/EvanCNavarro/invela/pkg/domain"
	"github.com/EvanCNavarro/invela/pkg/interfaces/store"
	"github.com/google/uuid"
)

type UserRepository struct {
	base baseMemoryRepo[domain.User]
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		base: newBaseMemoryRepo(func(u *domain.User) *domain.RecordMeta { return &u.RecordMeta }),
	}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	return r.base.create(ctx, u)
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	return r.base.update(ctx, u)
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.base.getByID(ctx, id, false)
}

func (r *UserRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.User], error) {
	return r.base.list(ctx, opts)
}

func (r *UserRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.base.softDelete(ctx, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	result, err := r.base.listWhere(ctx, store.ListOptions{}, func(u *domain.User) bool {
		return u.Email == email
	})
	if err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, store.ErrNotFound
	}
	user := result.Items[0]
	return &user, nil
}

func (r *UserRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]domain.User, error) {
	result, err := r.base.listWhere(ctx, store.ListOptions{}, func(u *domain.User) bool {
		return u.CompanyID == companyID
	})
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}
