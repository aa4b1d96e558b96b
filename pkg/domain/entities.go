package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecordMeta captures identifiers and audit fields shared across entities.
type RecordMeta struct {
	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	DeletedAt time.Time `bun:",soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureID assigns a UUID when the struct is about to be persisted.
func (m *RecordMeta) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
}

// JSONMap persists arbitrary metadata fields as JSON.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("null"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value any) error {
	if m == nil {
		return errors.New("JSONMap: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("JSONMap: unsupported type %T", value)
	}
}

// StringList stores []string as JSON.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	return json.Marshal([]string(s))
}

func (s *StringList) Scan(value any) error {
	if s == nil {
		return errors.New("StringList: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, (*[]string)(s))
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(s))
	default:
		return fmt.Errorf("StringList: unsupported type %T", value)
	}
}

// Company is a network participant going through onboarding and accreditation.
type Company struct {
	bun.BaseModel `bun:"table:companies"`
	RecordMeta

	Slug                string  `bun:",unique,nullzero,notnull" json:"slug"`
	Name                string  `bun:",nullzero,notnull" json:"name"`
	Category            string  `bun:",nullzero" json:"category"` // bank, fintech, invela
	AccreditationStatus string  `bun:",nullzero" json:"accreditation_status"`
	RiskScore           int     `bun:",nullzero" json:"risk_score"`
	FileVaultUnlocked   bool    `bun:",nullzero" json:"file_vault_unlocked"`
	Metadata            JSONMap `bun:"type:jsonb,nullzero" json:"metadata,omitempty"`
}

// User is an authenticated member of a company.
type User struct {
	bun.BaseModel `bun:"table:users"`
	RecordMeta

	Email        string    `bun:",unique,nullzero,notnull" json:"email"`
	FullName     string    `bun:",nullzero" json:"full_name"`
	CompanyID    uuid.UUID `bun:",nullzero,notnull,type:uuid" json:"company_id"`
	PasswordHash string    `bun:",nullzero" json:"-"`
	IsAdmin      bool      `bun:",nullzero" json:"is_admin"`
}

// Task tracks one onboarding survey or obligation owned by a company.
type Task struct {
	bun.BaseModel `bun:"table:tasks"`
	RecordMeta

	CompanyID   uuid.UUID `bun:",nullzero,notnull,type:uuid" json:"company_id"`
	Kind        string    `bun:",nullzero,notnull" json:"kind"`
	Title       string    `bun:",nullzero,notnull" json:"title"`
	Status      string    `bun:",nullzero" json:"status"`
	Progress    int       `bun:",nullzero" json:"progress"`
	AssignedTo  uuid.UUID `bun:",nullzero,type:uuid" json:"assigned_to,omitempty"`
	SubmittedAt time.Time `bun:",nullzero" json:"submitted_at,omitempty"`
	Metadata    JSONMap   `bun:"type:jsonb,nullzero" json:"metadata,omitempty"`
}

// VaultFile is a document stored in a company's file vault.
type VaultFile struct {
	bun.BaseModel `bun:"table:vault_files"`
	RecordMeta

	CompanyID  uuid.UUID `bun:",nullzero,notnull,type:uuid" json:"company_id"`
	Name       string    `bun:",nullzero,notnull" json:"name"`
	Kind       string    `bun:",nullzero" json:"kind"` // csv, pdf, generated report
	Size       int64     `bun:",nullzero" json:"size"`
	Status     string    `bun:",nullzero" json:"status"`
	UploadedBy uuid.UUID `bun:",nullzero,type:uuid" json:"uploaded_by,omitempty"`
	Metadata   JSONMap   `bun:"type:jsonb,nullzero" json:"metadata,omitempty"`
}

// Task kinds for the onboarding surveys.
const (
	TaskKindKYB         = "kyb"
	TaskKindKY3P        = "ky3p"
	TaskKindOpenBanking = "open_banking"
	TaskKindOnboarding  = "user_onboarding"
)

// Task lifecycle statuses. The realtime layer echoes transitions after the
// owning record commits them; it never drives the state machine itself.
const (
	TaskStatusNotStarted = "not_started"
	TaskStatusEmailSent  = "email_sent"
	TaskStatusInProgress = "in_progress"
	TaskStatusReady      = "ready_for_submission"
	TaskStatusSubmitted  = "submitted"
	TaskStatusApproved   = "approved"
)

// File statuses.
const (
	FileStatusUploading = "uploading"
	FileStatusUploaded  = "uploaded"
	FileStatusDeleted   = "deleted"
)

// Accreditation statuses.
const (
	AccreditationPending     = "pending"
	AccreditationInReview    = "in_review"
	AccreditationApproved    = "approved"
	AccreditationProvisional = "provisionally_approved"
)

// TaskProgressFor returns the canonical progress value for a status. Producers
// use it to repair records whose stored progress drifted from their status.
func TaskProgressFor(status string) (int, bool) {
	switch status {
	case TaskStatusNotStarted, TaskStatusEmailSent:
		return 0, true
	case TaskStatusInProgress:
		return 50, true
	case TaskStatusReady:
		return 90, true
	case TaskStatusSubmitted, TaskStatusApproved:
		return 100, true
	default:
		return 0, false
	}
}

// ValidTaskStatus reports whether s is a known lifecycle status.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusNotStarted, TaskStatusEmailSent, TaskStatusInProgress,
		TaskStatusReady, TaskStatusSubmitted, TaskStatusApproved:
		return true
	}
	return false
}
