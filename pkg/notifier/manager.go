package notifier

import (
	"context"
	"errors"
	"time"

	"github.com/EvanCNavarro/invela/pkg/domain"
	"github.com/EvanCNavarro/invela/pkg/interfaces/broadcaster"
	"github.com/EvanCNavarro/invela/pkg/interfaces/logger"
	"github.com/google/uuid"
)

// File vault actions carried in file_vault_update payloads.
const (
	FileActionAdded    = "added"
	FileActionDeleted  = "deleted"
	FileActionUnlocked = "unlocked"
)

// Manager is the producer facade the rest of the platform calls after a
// state change. Every method is fire and forget: a failed or empty
// broadcast is logged and swallowed, never surfaced to the caller, so a
// websocket problem can never fail a task mutation.
type Manager struct {
	broadcaster broadcaster.Broadcaster
	logger      logger.Logger
}

// Dependencies bundles the collaborators required by the manager.
type Dependencies struct {
	Broadcaster broadcaster.Broadcaster
	Logger      logger.Logger
}

var ErrMissingBroadcaster = errors.New("notifier: broadcaster is required")

// New constructs the notifier manager.
func New(deps Dependencies) (*Manager, error) {
	if deps.Broadcaster == nil {
		return nil, ErrMissingBroadcaster
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	return &Manager{
		broadcaster: deps.Broadcaster,
		logger:      deps.Logger,
	}, nil
}

// BroadcastTaskUpdate notifies the task's owning company that the task
// changed. The event carries only the task scope; the owning company is
// resolved when the event is delivered.
func (m *Manager) BroadcastTaskUpdate(ctx context.Context, task *domain.Task) {
	if task == nil {
		return
	}
	m.emit(ctx, broadcaster.Event{
		Kind:   broadcaster.KindTaskUpdate,
		TaskID: task.ID,
		Payload: map[string]any{
			"id":       task.ID.String(),
			"status":   task.Status,
			"progress": task.Progress,
		},
	})
}

// BroadcastFormSubmission notifies a company that one of its tasks was
// submitted.
func (m *Manager) BroadcastFormSubmission(ctx context.Context, task *domain.Task) {
	if task == nil {
		return
	}
	payload := map[string]any{
		"taskId":   task.ID.String(),
		"formType": task.Kind,
	}
	if !task.SubmittedAt.IsZero() {
		payload["submittedAt"] = task.SubmittedAt.UTC().Format(time.RFC3339)
	}
	m.emit(ctx, broadcaster.Event{
		Kind:      broadcaster.KindFormSubmission,
		CompanyID: task.CompanyID,
		TaskID:    task.ID,
		Payload:   payload,
	})
}

// BroadcastFileVaultUpdate notifies a company that its file vault changed.
// The file id is omitted for vault-level actions such as unlock.
func (m *Manager) BroadcastFileVaultUpdate(ctx context.Context, companyID uuid.UUID, fileID uuid.UUID, action string) {
	payload := map[string]any{"action": action}
	if fileID != uuid.Nil {
		payload["fileId"] = fileID.String()
	}
	m.emit(ctx, broadcaster.Event{
		Kind:      broadcaster.KindFileVaultUpdate,
		CompanyID: companyID,
		Payload:   payload,
	})
}

// BroadcastCompanyUpdate notifies a company that its profile changed, for
// example an accreditation decision or a new risk score.
func (m *Manager) BroadcastCompanyUpdate(ctx context.Context, company *domain.Company) {
	if company == nil {
		return
	}
	m.emit(ctx, broadcaster.Event{
		Kind:      broadcaster.KindCompanyUpdate,
		CompanyID: company.ID,
		Payload: map[string]any{
			"id":                  company.ID.String(),
			"accreditationStatus": company.AccreditationStatus,
			"riskScore":           company.RiskScore,
			"fileVaultUnlocked":   company.FileVaultUnlocked,
		},
	})
}

func (m *Manager) emit(ctx context.Context, event broadcaster.Event) {
	delivered, err := m.broadcaster.Broadcast(ctx, event)
	if err != nil {
		m.logger.Warn("broadcast failed",
			logger.Field{Key: "kind", Value: event.Kind},
			logger.Field{Key: "error", Value: err.Error()})
		return
	}
	m.logger.Debug("event emitted",
		logger.Field{Key: "kind", Value: event.Kind},
		logger.Field{Key: "delivered", Value: delivered})
}
