package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/EvanCNavarro/invela/pkg/domain"
	"github.com/EvanCNavarro/invela/pkg/interfaces/store"
	"github.com/google/uuid"
)

func TestCompanyRepositoryMemory(t *testing.T) {
	repo := NewCompanyRepository()
	ctx := context.Background()

	company := &domain.Company{
		Slug: "data-recipient-7",
		Name: "Data Recipient 7",
	}
	if err := repo.Create(ctx, company); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetBySlug(ctx, "data-recipient-7")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if got.ID != company.ID {
		t.Fatalf("expected company %s, got %s", company.ID, got.ID)
	}

	if err := repo.SetFileVaultUnlocked(ctx, company.ID, true); err != nil {
		t.Fatalf("unlock vault: %v", err)
	}
	got, err = repo.GetByID(ctx, company.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if !got.FileVaultUnlocked {
		t.Fatalf("expected vault unlocked")
	}
}

func TestTaskRepositoryMemoryScoping(t *testing.T) {
	repo := NewTaskRepository()
	ctx := context.Background()

	companyA := uuid.New()
	companyB := uuid.New()

	for _, task := range []*domain.Task{
		{CompanyID: companyA, Kind: domain.TaskKindKYB, Title: "KYB Survey"},
		{CompanyID: companyA, Kind: domain.TaskKindKY3P, Title: "S&P KY3P Assessment"},
		{CompanyID: companyB, Kind: domain.TaskKindKYB, Title: "KYB Survey"},
	} {
		if err := repo.Create(ctx, task); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	result, err := repo.ListByCompany(ctx, companyA, store.ListOptions{})
	if err != nil {
		t.Fatalf("list by company: %v", err)
	}
	if result.Total != 2 {
		t.Fatalf("expected 2 tasks for company A, got %d", result.Total)
	}
	for _, task := range result.Items {
		if task.CompanyID != companyA {
			t.Fatalf("task %s leaked from another company", task.ID)
		}
	}
}

func TestTaskRepositoryMemoryUpdateStatus(t *testing.T) {
	repo := NewTaskRepository()
	ctx := context.Background()

	task := &domain.Task{CompanyID: uuid.New(), Kind: domain.TaskKindOpenBanking, Title: "Open Banking Survey"}
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.UpdateStatus(ctx, task.ID, domain.TaskStatusSubmitted, 100); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, err := repo.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.TaskStatusSubmitted || got.SubmittedAt.IsZero() {
		t.Fatalf("expected submitted task with timestamp, got %+v", got)
	}

	if err := repo.UpdateStatus(ctx, uuid.New(), domain.TaskStatusInProgress, 50); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown task, got %v", err)
	}
}

func TestVaultFileRepositoryMemory(t *testing.T) {
	repo := NewVaultFileRepository()
	ctx := context.Background()

	companyID := uuid.New()
	file := &domain.VaultFile{CompanyID: companyID, Name: "risk_report.csv", Kind: "csv"}
	if err := repo.Create(ctx, file); err != nil {
		t.Fatalf("create: %v", err)
	}
	if file.Status != domain.FileStatusUploaded {
		t.Fatalf("expected default status, got %s", file.Status)
	}

	if err := repo.MarkDeleted(ctx, file.ID); err != nil {
		t.Fatalf("mark deleted: %v", err)
	}

	result, err := repo.ListByCompany(ctx, companyID, store.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Total != 1 || result.Items[0].Status != domain.FileStatusDeleted {
		t.Fatalf("expected one deleted file, got %+v", result)
	}
}

func TestUserRepositoryMemory(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	companyID := uuid.New()
	user := &domain.User{Email: "cfo@acme.example", FullName: "Casey Flores", CompanyID: companyID}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByEmail(ctx, "cfo@acme.example")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.CompanyID != companyID {
		t.Fatalf("expected company %s, got %s", companyID, got.CompanyID)
	}

	members, err := repo.ListByCompany(ctx, companyID)
	if err != nil {
		t.Fatalf("list by company: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected 1 member, got %d", len(members))
	}
}
