package store

import (
	"context"
	"errors"
	"time"

	"github.com/EvanCNavarro/invela/pkg/domain"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a record cannot be located.
var ErrNotFound = errors.New("store: not found")

// ListOptions capture pagination and filtering knobs common to repositories.
type ListOptions struct {
	Limit              int
	Offset             int
	Since              time.Time
	Until              time.Time
	IncludeSoftDeleted bool
}

// ListResult bundles records and totals.
type ListResult[T any] struct {
	Items []T
	Total int
}

// Repository defines base CRUD helpers reused by entity-specific interfaces.
type Repository[T any] interface {
	Create(ctx context.Context, record *T) error
	Update(ctx context.Context, record *T) error
	GetByID(ctx context.Context, id uuid.UUID) (*T, error)
	List(ctx context.Context, opts ListOptions) (ListResult[T], error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type CompanyRepository interface {
	Repository[domain.Company]
	GetBySlug(ctx context.Context, slug string) (*domain.Company, error)
	SetFileVaultUnlocked(ctx context.Context, id uuid.UUID, unlocked bool) error
}

type UserRepository interface {
	Repository[domain.User]
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]domain.User, error)
}

type TaskRepository interface {
	Repository[domain.Task]
	ListByCompany(ctx context.Context, companyID uuid.UUID, opts ListOptions) (ListResult[domain.Task], error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error
}

type VaultFileRepository interface {
	Repository[domain.VaultFile]
	ListByCompany(ctx context.Context, companyID uuid.UUID, opts ListOptions) (ListResult[domain.VaultFile], error)
	MarkDeleted(ctx context.Context, id uuid.UUID) error
}
