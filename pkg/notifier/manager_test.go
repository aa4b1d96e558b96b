package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/EvanCNavarro/invela/pkg/domain"
	"github.com/EvanCNavarro/invela/pkg/interfaces/broadcaster"
	"github.com/google/uuid"
)

type recordingBroadcaster struct {
	events []broadcaster.Event
	err    error
}

func (r *recordingBroadcaster) Broadcast(ctx context.Context, event broadcaster.Event) (int, error) {
	r.events = append(r.events, event)
	if r.err != nil {
		return 0, r.err
	}
	return 1, nil
}

func TestNewRequiresBroadcaster(t *testing.T) {
	if _, err := New(Dependencies{}); !errors.Is(err, ErrMissingBroadcaster) {
		t.Fatalf("expected ErrMissingBroadcaster, got %v", err)
	}
}

func TestBroadcastTaskUpdateScope(t *testing.T) {
	sink := &recordingBroadcaster{}
	mgr, err := New(Dependencies{Broadcaster: sink})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	task := &domain.Task{
		RecordMeta: domain.RecordMeta{ID: uuid.New()},
		CompanyID:  uuid.New(),
		Status:     domain.TaskStatusInProgress,
		Progress:   45,
	}
	mgr.BroadcastTaskUpdate(context.Background(), task)

	if len(sink.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(sink.events))
	}
	evt := sink.events[0]
	if evt.Kind != broadcaster.KindTaskUpdate {
		t.Fatalf("expected task_update, got %q", evt.Kind)
	}
	if evt.TaskID != task.ID {
		t.Fatalf("expected task scope %s, got %s", task.ID, evt.TaskID)
	}
	if evt.CompanyID != uuid.Nil {
		t.Fatal("task updates must carry task scope only")
	}
	if evt.Payload["status"] != domain.TaskStatusInProgress || evt.Payload["progress"] != 45 {
		t.Fatalf("unexpected payload: %v", evt.Payload)
	}
}

func TestBroadcastFormSubmission(t *testing.T) {
	sink := &recordingBroadcaster{}
	mgr, err := New(Dependencies{Broadcaster: sink})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	task := &domain.Task{
		RecordMeta: domain.RecordMeta{ID: uuid.New()},
		CompanyID:  uuid.New(),
		Kind:       domain.TaskKindKYB,
		Status:     domain.TaskStatusSubmitted,
	}
	mgr.BroadcastFormSubmission(context.Background(), task)

	evt := sink.events[0]
	if evt.Kind != broadcaster.KindFormSubmission {
		t.Fatalf("expected form_submission, got %q", evt.Kind)
	}
	if evt.CompanyID != task.CompanyID {
		t.Fatalf("expected company scope %s, got %s", task.CompanyID, evt.CompanyID)
	}
	if evt.Payload["formType"] != domain.TaskKindKYB {
		t.Fatalf("unexpected payload: %v", evt.Payload)
	}
}

func TestBroadcastFileVaultUpdateOmitsNilFile(t *testing.T) {
	sink := &recordingBroadcaster{}
	mgr, err := New(Dependencies{Broadcaster: sink})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	companyID := uuid.New()

	mgr.BroadcastFileVaultUpdate(context.Background(), companyID, uuid.Nil, FileActionUnlocked)

	evt := sink.events[0]
	if evt.Kind != broadcaster.KindFileVaultUpdate {
		t.Fatalf("expected file_vault_update, got %q", evt.Kind)
	}
	if _, ok := evt.Payload["fileId"]; ok {
		t.Fatal("vault-level actions must not carry a file id")
	}
	if evt.Payload["action"] != FileActionUnlocked {
		t.Fatalf("unexpected payload: %v", evt.Payload)
	}
}

func TestEmitSwallowsBroadcastErrors(t *testing.T) {
	sink := &recordingBroadcaster{err: errors.New("relay down")}
	mgr, err := New(Dependencies{Broadcaster: sink})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	company := &domain.Company{RecordMeta: domain.RecordMeta{ID: uuid.New()}}
	mgr.BroadcastCompanyUpdate(context.Background(), company)

	if len(sink.events) != 1 {
		t.Fatalf("expected the event to be attempted, got %d", len(sink.events))
	}
}

func TestNilInputsAreIgnored(t *testing.T) {
	sink := &recordingBroadcaster{}
	mgr, err := New(Dependencies{Broadcaster: sink})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	mgr.BroadcastTaskUpdate(context.Background(), nil)
	mgr.BroadcastFormSubmission(context.Background(), nil)
	mgr.BroadcastCompanyUpdate(context.Background(), nil)

	if len(sink.events) != 0 {
		t.Fatalf("expected no events for nil inputs, got %d", len(sink.events))
	}
}
