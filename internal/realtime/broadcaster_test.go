package realtime

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/EvanCNavarro/invela/internal/storage/memory"
	"github.com/EvanCNavarro/invela/pkg/domain"
	"github.com/EvanCNavarro/invela/pkg/interfaces/broadcaster"
	"github.com/google/uuid"
)

func newTestService(t *testing.T, registry *Registry, tasks *memory.TaskRepository) *Service {
	t.Helper()
	svc, err := New(Dependencies{Registry: registry, Tasks: tasks})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestBroadcastNoRecipients(t *testing.T) {
	registry := NewRegistry(nil)
	svc := newTestService(t, registry, nil)

	delivered, err := svc.Broadcast(context.Background(), broadcaster.Event{
		Kind:      broadcaster.KindCompanyUpdate,
		CompanyID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if delivered != 0 {
		t.Fatalf("expected 0 delivered, got %d", delivered)
	}
}

func TestBroadcastPartialFailure(t *testing.T) {
	registry := NewRegistry(nil)
	svc := newTestService(t, registry, nil)
	companyID := uuid.New()

	healthy := &fakeConn{id: "ok"}
	broken := &fakeConn{id: "broken", fail: true}
	registry.Register(healthy)
	registry.Register(broken)
	registry.Attach("ok", companyID, uuid.New())
	registry.Attach("broken", companyID, uuid.New())

	delivered, err := svc.Broadcast(context.Background(), broadcaster.Event{
		Kind:      broadcaster.KindFileVaultUpdate,
		CompanyID: companyID,
		Payload:   map[string]any{"action": "unlocked"},
	})
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if delivered != 1 {
		t.Fatalf("expected 1 delivered, got %d", delivered)
	}
	if !broken.closed {
		t.Fatal("expected failing connection to be closed")
	}
	if got := registry.Len(); got != 1 {
		t.Fatalf("expected failing connection unregistered, registry has %d", got)
	}
	if len(healthy.received()) != 1 {
		t.Fatalf("expected healthy connection to receive 1 frame, got %d", len(healthy.received()))
	}
}

func TestBroadcastCompanyIsolation(t *testing.T) {
	registry := NewRegistry(nil)
	tasks := memory.NewTaskRepository()
	svc := newTestService(t, registry, tasks)
	ctx := context.Background()

	companyA := uuid.New()
	companyB := uuid.New()

	task := &domain.Task{CompanyID: companyA, Kind: domain.TaskKindKYB, Title: "KYB Survey"}
	if err := tasks.Create(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	// Registration order must not matter for scoping.
	connB := &fakeConn{id: "b"}
	connA := &fakeConn{id: "a"}
	registry.Register(connB)
	registry.Attach("b", companyB, uuid.New())
	registry.Register(connA)
	registry.Attach("a", companyA, uuid.New())

	delivered, err := svc.Broadcast(ctx, broadcaster.Event{
		Kind:    broadcaster.KindTaskUpdate,
		TaskID:  task.ID,
		Payload: map[string]any{"status": domain.TaskStatusInProgress},
	})
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if delivered != 1 {
		t.Fatalf("expected 1 delivered, got %d", delivered)
	}
	if len(connB.received()) != 0 {
		t.Fatalf("company B connection must not observe company A events, got %d frames", len(connB.received()))
	}

	frames := connA.received()
	if len(frames) != 1 {
		t.Fatalf("expected exactly one frame for company A, got %d", len(frames))
	}

	var wire struct {
		Kind    string         `json:"kind"`
		TaskID  string         `json:"taskId"`
		Payload map[string]any `json:"payload"`
	}
	if err := json.Unmarshal(frames[0], &wire); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if wire.Kind != broadcaster.KindTaskUpdate {
		t.Fatalf("expected kind %q, got %q", broadcaster.KindTaskUpdate, wire.Kind)
	}
	if wire.TaskID != task.ID.String() {
		t.Fatalf("expected taskId %s, got %s", task.ID, wire.TaskID)
	}
	if wire.Payload["status"] != domain.TaskStatusInProgress {
		t.Fatalf("unexpected payload: %v", wire.Payload)
	}
}

func TestBroadcastUnresolvableTask(t *testing.T) {
	registry := NewRegistry(nil)
	tasks := memory.NewTaskRepository()
	svc := newTestService(t, registry, tasks)
	companyID := uuid.New()

	conn := &fakeConn{id: "c1"}
	registry.Register(conn)
	registry.Attach("c1", companyID, uuid.New())

	delivered, err := svc.Broadcast(context.Background(), broadcaster.Event{
		Kind:   broadcaster.KindTaskUpdate,
		TaskID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if delivered != 0 {
		t.Fatalf("expected 0 delivered for unknown task, got %d", delivered)
	}
	if len(conn.received()) != 0 {
		t.Fatalf("expected no frames, got %d", len(conn.received()))
	}
}

func TestBroadcastResolvesOwnerAtDeliveryTime(t *testing.T) {
	registry := NewRegistry(nil)
	tasks := memory.NewTaskRepository()
	svc := newTestService(t, registry, tasks)
	ctx := context.Background()

	companyA := uuid.New()
	companyB := uuid.New()

	task := &domain.Task{CompanyID: companyA, Kind: domain.TaskKindKY3P, Title: "Security Assessment"}
	if err := tasks.Create(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	connA := &fakeConn{id: "a"}
	connB := &fakeConn{id: "b"}
	registry.Register(connA)
	registry.Register(connB)
	registry.Attach("a", companyA, uuid.New())
	registry.Attach("b", companyB, uuid.New())

	// Reassign the task before delivery; the new owner gets the event.
	task.CompanyID = companyB
	if err := tasks.Update(ctx, task); err != nil {
		t.Fatalf("update task: %v", err)
	}

	delivered, err := svc.Broadcast(ctx, broadcaster.Event{
		Kind:   broadcaster.KindTaskUpdate,
		TaskID: task.ID,
	})
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if delivered != 1 {
		t.Fatalf("expected 1 delivered, got %d", delivered)
	}
	if len(connA.received()) != 0 {
		t.Fatalf("former owner must not receive the event, got %d frames", len(connA.received()))
	}
	if len(connB.received()) != 1 {
		t.Fatalf("current owner must receive the event, got %d frames", len(connB.received()))
	}
}
