package bunrepo

import (
	"context"

	"github.com/EvanCNavarro/invela/pkg/domain"
	"github.com/EvanCNavarro/invela/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type UserRepository struct {
	base baseRepository[domain.User]
}

func NewUserRepository(db *bun.DB) *UserRepository {
	handlers := repository.ModelHandlers[*domain.User]{
		NewRecord:          func() *domain.User { return &domain.User{} },
		GetID:              func(u *domain.User) uuid.UUID { return u.ID },
		SetID:              func(u *domain.User, id uuid.UUID) { u.ID = id },
		GetIdentifier:      func() string { return "email" },
		GetIdentifierValue: func(u *domain.User) string { return u.Email },
	}
	return &UserRepository{
		base: newBaseRepository[domain.User](db, handlers, func(u *domain.User) *domain.RecordMeta { return &u.RecordMeta }),
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
	record, err := r.base.repo.Get(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("email = ?", email).Where("deleted_at IS NULL")
	})
	if err != nil {
		return nil, mapError(err)
	}
	return record, nil
}

func (r *UserRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]domain.User, error) {
	items, _, err := r.base.listWith(ctx, withCompany(companyID), withoutDeleted())
	return items, err
}
