package realtime

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
)

type fakeConn struct {
	id     string
	mu     sync.Mutex
	frames [][]byte
	fail   bool
	closed bool
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("write failed")
	}
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeConn) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.frames))
	copy(out, f.frames)
	return out
}

func TestRegistryFindByCompany(t *testing.T) {
	registry := NewRegistry(nil)
	companyA := uuid.New()
	companyB := uuid.New()

	attached := &fakeConn{id: "c1"}
	other := &fakeConn{id: "c2"}
	unscoped := &fakeConn{id: "c3"}

	registry.Register(attached)
	registry.Register(other)
	registry.Register(unscoped)
	registry.Attach("c1", companyA, uuid.New())
	registry.Attach("c2", companyB, uuid.New())

	conns := registry.FindByCompany(companyA)
	if len(conns) != 1 {
		t.Fatalf("expected 1 connection for company A, got %d", len(conns))
	}
	if conns[0].ID() != "c1" {
		t.Fatalf("expected c1, got %s", conns[0].ID())
	}

	registry.Unregister("c1")
	if conns := registry.FindByCompany(companyA); len(conns) != 0 {
		t.Fatalf("expected no connections after unregister, got %d", len(conns))
	}
}

func TestRegistryAttachUnknownID(t *testing.T) {
	registry := NewRegistry(nil)
	companyID := uuid.New()

	registry.Attach("missing", companyID, uuid.New())

	if got := registry.Len(); got != 0 {
		t.Fatalf("expected empty registry, got %d entries", got)
	}
	if conns := registry.FindByCompany(companyID); len(conns) != 0 {
		t.Fatalf("attach on unknown id must not create entries, got %d", len(conns))
	}
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	registry := NewRegistry(nil)
	conn := &fakeConn{id: "c1"}
	registry.Register(conn)

	registry.Unregister("c1")
	registry.Unregister("c1")
	registry.Unregister("never-existed")

	if got := registry.Len(); got != 0 {
		t.Fatalf("expected empty registry, got %d entries", got)
	}
}

func TestRegistryCloseAll(t *testing.T) {
	registry := NewRegistry(nil)
	first := &fakeConn{id: "c1"}
	second := &fakeConn{id: "c2"}
	registry.Register(first)
	registry.Register(second)

	registry.CloseAll()

	if got := registry.Len(); got != 0 {
		t.Fatalf("expected empty registry after CloseAll, got %d", got)
	}
	if !first.closed || !second.closed {
		t.Fatal("expected all connections closed")
	}
}

func TestRegistryRegisterReplacesExisting(t *testing.T) {
	registry := NewRegistry(nil)
	companyID := uuid.New()

	old := &fakeConn{id: "c1"}
	registry.Register(old)
	registry.Attach("c1", companyID, uuid.New())

	replacement := &fakeConn{id: "c1"}
	registry.Register(replacement)

	if conns := registry.FindByCompany(companyID); len(conns) != 0 {
		t.Fatalf("re-registered connection must start unscoped, got %d matches", len(conns))
	}
	if got := registry.Len(); got != 1 {
		t.Fatalf("expected 1 entry, got %d", got)
	}
}
