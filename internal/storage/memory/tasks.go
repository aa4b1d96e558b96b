package memory

import (
	"context"
	"time"

	"github.com/EvanCNavarro/invela/pkg/domain"
	"github.com/EvanCNavarro/invela/pkg/interfaces/store"
	"github.com/google/uuid"
)

type TaskRepository struct {
	base baseMemoryRepo[domain.Task]
}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{
		base: newBaseMemoryRepo(func(t *domain.Task) *domain.RecordMeta { return &t.RecordMeta }),
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
	return r.base.listWhere(ctx, opts, func(t *domain.Task) bool {
		return t.CompanyID == companyID
	})
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
