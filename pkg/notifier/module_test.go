package notifier

import (
	"context"
	"testing"

	"github.com/EvanCNavarro/invela/internal/commands"
	"github.com/EvanCNavarro/invela/pkg/domain"
	"github.com/EvanCNavarro/invela/pkg/interfaces/broadcaster"
	"github.com/EvanCNavarro/invela/pkg/interfaces/logger"
	"github.com/EvanCNavarro/invela/pkg/storage"
	"github.com/google/uuid"
)

func TestModuleConstruction(t *testing.T) {
	module, err := NewModule(ModuleOptions{
		Logger:  &logger.Nop{},
		Storage: storage.NewMemoryProviders(),
	})
	if err != nil {
		t.Fatalf("module: %v", err)
	}
	defer module.Close()

	if module.Manager() == nil {
		t.Fatalf("expected manager")
	}
	if module.Registry() == nil || module.Hub() == nil {
		t.Fatalf("expected realtime registry and hub")
	}
	if module.Commands() == nil {
		t.Fatalf("expected command catalog")
	}
	if module.Relay() != nil {
		t.Fatalf("relay must be nil when disabled")
	}
}

func TestModuleBroadcasterOverride(t *testing.T) {
	sink := &recordingBroadcaster{}
	module, err := NewModule(ModuleOptions{
		Storage:     storage.NewMemoryProviders(),
		Broadcaster: sink,
	})
	if err != nil {
		t.Fatalf("module: %v", err)
	}
	defer module.Close()

	task := &domain.Task{
		RecordMeta: domain.RecordMeta{ID: uuid.New()},
		Status:     domain.TaskStatusReady,
		Progress:   90,
	}
	module.Manager().BroadcastTaskUpdate(context.Background(), task)

	if len(sink.events) != 1 {
		t.Fatalf("expected injected broadcaster to receive the event, got %d", len(sink.events))
	}
}

func TestModuleCommandsShareBroadcaster(t *testing.T) {
	sink := &recordingBroadcaster{}
	module, err := NewModule(ModuleOptions{
		Storage:     storage.NewMemoryProviders(),
		Broadcaster: sink,
	})
	if err != nil {
		t.Fatalf("module: %v", err)
	}
	defer module.Close()

	err = module.Commands().SeedDemoCompany.Execute(context.Background(), commands.SeedDemoCompany{
		Name: "Fanout Bank",
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if len(sink.events) != 4 {
		t.Fatalf("expected a broadcast per seeded task, got %d", len(sink.events))
	}
	for _, evt := range sink.events {
		if evt.Kind != broadcaster.KindTaskUpdate {
			t.Fatalf("expected task_update events, got %q", evt.Kind)
		}
	}
}
