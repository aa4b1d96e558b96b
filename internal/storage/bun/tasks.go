package bunrepo

import (
	"context"
	"time"

	"github.com/EvanCNavarro/invela/pkg/domain"
	"github.com/EvanCNavarro/invela/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type TaskRepository struct {
	base baseRepository[domain.Task]
}

func NewTaskRepository(db *bun.DB) *TaskRepository {
	handlers := repository.ModelHandlers[*domain.Task]{
		NewRecord:          func() *domain.Task { return &domain.Task{} },
		GetID:              func(t *domain.Task) uuid.UUID { return t.ID },
		SetID:              func(t *domain.Task, id uuid.UUID) { t.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(t *domain.Task) string { return t.ID.String() },
	}
	return &TaskRepository{
		base: newBaseRepository[domain.Task](db, handlers, func(t *domain.Task) *domain.RecordMeta { return &t.RecordMeta }),
	}
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	if t.Status == "" {
		t.Status = domain.TaskStatusNotStarted
	}
	return r.base.create(ctx, t)
}

func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) error {
	return r.base.update(ctx, t)
}

func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return r.base.getByID(ctx, id, false)
}

func (r *TaskRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.Task], error) {
	return r.base.list(ctx, opts)
}

func (r *TaskRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.base.softDelete(ctx, id)
}

func (r *TaskRepository) ListByCompany(ctx context.Context, companyID uuid.UUID, opts store.ListOptions) (store.ListResult[domain.Task], error) {
	items, total, err := r.base.listWith(ctx, withCompany(companyID), withListOptions(opts))
	if err != nil {
		return store.ListResult[domain.Task]{}, err
	}
	return store.ListResult[domain.Task]{Items: items, Total: total}, nil
}

func (r *TaskRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error {
	task, err := r.base.getByID(ctx, id, true)
	if err != nil {
		return err
	}
	task.Status = status
	task.Progress = progress
	if status == domain.TaskStatusSubmitted && task.SubmittedAt.IsZero() {
		task.SubmittedAt = time.Now().UTC()
	}
	return r.base.update(ctx, task)
}
