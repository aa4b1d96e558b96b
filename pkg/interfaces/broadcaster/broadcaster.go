package broadcaster

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Event kinds pushed to connected clients.
const (
	KindTaskUpdate      = "task_update"
	KindFileVaultUpdate = "file_vault_update"
	KindFormSubmission  = "form_submission"
	KindCompanyUpdate   = "company_update"
)

// Event is one ephemeral realtime message: a kind, a scope, and a payload.
// Events are never persisted; they exist only for the duration of a broadcast.
type Event struct {
	Kind      string
	CompanyID uuid.UUID
	TaskID    uuid.UUID
	Payload   map[string]any
}

// Encode serializes the event to its wire form, a single JSON text frame:
//
//	{"kind": "...", "companyId": "...", "taskId": "...", "payload": {...}}
//
// Scope identifiers are omitted when unset.
func (e Event) Encode() ([]byte, error) {
	msg := struct {
		Kind      string         `json:"kind"`
		CompanyID string         `json:"companyId,omitempty"`
		TaskID    string         `json:"taskId,omitempty"`
		Payload   map[string]any `json:"payload"`
	}{
		Kind:    e.Kind,
		Payload: e.Payload,
	}
	if msg.Payload == nil {
		msg.Payload = map[string]any{}
	}
	if e.CompanyID != uuid.Nil {
		msg.CompanyID = e.CompanyID.String()
	}
	if e.TaskID != uuid.Nil {
		msg.TaskID = e.TaskID.String()
	}
	return json.Marshal(msg)
}

// Broadcaster pushes one event to every connection matching its scope.
// Delivery is best effort: the returned count is the number of connections
// that accepted the write, and a partial failure never aborts the fan-out.
type Broadcaster interface {
	Broadcast(ctx context.Context, event Event) (int, error)
}

// Nop broadcaster discards events.
type Nop struct{}

var _ Broadcaster = (*Nop)(nil)

func (n *Nop) Broadcast(ctx context.Context, event Event) (int, error) { return 0, nil }
