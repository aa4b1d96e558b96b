package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/EvanCNavarro/invela/pkg/domain"
	"github.com/EvanCNavarro/invela/pkg/interfaces/logger"
	"github.com/EvanCNavarro/invela/pkg/interfaces/store"
	command "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// Catalog exposes go-command compatible handlers for maintenance tooling.
type Catalog struct {
	FixTask         command.Commander[FixTask]
	UnlockFileVault command.Commander[UnlockFileVault]
	SeedDemoCompany command.Commander[SeedDemoCompany]
}

type taskNotifier interface {
	BroadcastTaskUpdate(ctx context.Context, task *domain.Task)
	BroadcastFileVaultUpdate(ctx context.Context, companyID uuid.UUID, fileID uuid.UUID, action string)
}

// Dependencies wires repositories and the notifier into the catalog.
type Dependencies struct {
	Companies store.CompanyRepository
	Users     store.UserRepository
	Tasks     store.TaskRepository
	Notifier  taskNotifier
	Logger    logger.Logger
}

// NewCatalog builds the command catalog using the supplied dependencies.
func NewCatalog(deps Dependencies) (*Catalog, error) {
	if deps.Companies == nil {
		return nil, errors.New("commands: company repository is required")
	}
	if deps.Tasks == nil {
		return nil, errors.New("commands: task repository is required")
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}

	return &Catalog{
		FixTask:         fixTaskCommand{tasks: deps.Tasks, notifier: deps.Notifier, logger: deps.Logger},
		UnlockFileVault: unlockVaultCommand{companies: deps.Companies, notifier: deps.Notifier, logger: deps.Logger},
		SeedDemoCompany: seedCompanyCommand{companies: deps.Companies, users: deps.Users, tasks: deps.Tasks, notifier: deps.Notifier, logger: deps.Logger},
	}, nil
}

// FixTask reconciles a task whose progress drifted from its status.
type FixTask struct {
	TaskID uuid.UUID `json:"task_id"`
}

type fixTaskCommand struct {
	tasks    store.TaskRepository
	notifier taskNotifier
	logger   logger.Logger
}

func (c fixTaskCommand) Execute(ctx context.Context, msg FixTask) error {
	if msg.TaskID == uuid.Nil {
		return errors.New("commands: task id is required")
	}
	task, err := c.tasks.GetByID(ctx, msg.TaskID)
	if err != nil {
		return fmt.Errorf("commands: load task: %w", err)
	}
	expected, ok := domain.TaskProgressFor(task.Status)
	if !ok {
		return fmt.Errorf("commands: task %s has unknown status %q", task.ID, task.Status)
	}
	if task.Progress == expected {
		c.logger.Info("task already consistent",
			logger.Field{Key: "task_id", Value: task.ID.String()})
		return nil
	}
	if err := c.tasks.UpdateStatus(ctx, task.ID, task.Status, expected); err != nil {
		return fmt.Errorf("commands: update task: %w", err)
	}
	task.Progress = expected
	c.logger.Info("task progress reconciled",
		logger.Field{Key: "task_id", Value: task.ID.String()},
		logger.Field{Key: "progress", Value: expected})
	if c.notifier != nil {
		c.notifier.BroadcastTaskUpdate(ctx, task)
	}
	return nil
}

// UnlockFileVault grants a company access to its file vault.
type UnlockFileVault struct {
	CompanyID uuid.UUID `json:"company_id"`
}

type unlockVaultCommand struct {
	companies store.CompanyRepository
	notifier  taskNotifier
	logger    logger.Logger
}

func (c unlockVaultCommand) Execute(ctx context.Context, msg UnlockFileVault) error {
	if msg.CompanyID == uuid.Nil {
		return errors.New("commands: company id is required")
	}
	company, err := c.companies.GetByID(ctx, msg.CompanyID)
	if err != nil {
		return fmt.Errorf("commands: load company: %w", err)
	}
	if company.FileVaultUnlocked {
		c.logger.Info("file vault already unlocked",
			logger.Field{Key: "company_id", Value: company.ID.String()})
		return nil
	}
	if err := c.companies.SetFileVaultUnlocked(ctx, company.ID, true); err != nil {
		return fmt.Errorf("commands: unlock vault: %w", err)
	}
	c.logger.Info("file vault unlocked",
		logger.Field{Key: "company_id", Value: company.ID.String()})
	if c.notifier != nil {
		c.notifier.BroadcastFileVaultUpdate(ctx, company.ID, uuid.Nil, "unlocked")
	}
	return nil
}

// SeedDemoCompany creates a company with a user and the standard
// onboarding task set, ready for a demo walkthrough.
type SeedDemoCompany struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	UserEmail string `json:"user_email"`
}

type seedCompanyCommand struct {
	companies store.CompanyRepository
	users     store.UserRepository
	tasks     store.TaskRepository
	notifier  taskNotifier
	logger    logger.Logger
}

func (c seedCompanyCommand) Execute(ctx context.Context, msg SeedDemoCompany) error {
	name := strings.TrimSpace(msg.Name)
	if name == "" {
		return errors.New("commands: company name is required")
	}
	slug := strings.TrimSpace(msg.Slug)
	if slug == "" {
		slug = strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	}
	if existing, err := c.companies.GetBySlug(ctx, slug); err == nil {
		return fmt.Errorf("commands: company %q already exists", existing.Slug)
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	company := &domain.Company{
		Name:     name,
		Slug:     slug,
		Category: "FinTech",
	}
	if err := c.companies.Create(ctx, company); err != nil {
		return fmt.Errorf("commands: create company: %w", err)
	}

	if c.users != nil && strings.TrimSpace(msg.UserEmail) != "" {
		user := &domain.User{
			Email:     strings.ToLower(strings.TrimSpace(msg.UserEmail)),
			FullName:  name + " Admin",
			CompanyID: company.ID,
			IsAdmin:   true,
		}
		if err := c.users.Create(ctx, user); err != nil {
			return fmt.Errorf("commands: create user: %w", err)
		}
	}

	for _, kind := range []string{domain.TaskKindOnboarding, domain.TaskKindKYB, domain.TaskKindKY3P, domain.TaskKindOpenBanking} {
		task := &domain.Task{
			CompanyID: company.ID,
			Kind:      kind,
			Title:     seedTaskTitle(kind, name),
		}
		if err := c.tasks.Create(ctx, task); err != nil {
			return fmt.Errorf("commands: create %s task: %w", kind, err)
		}
		if c.notifier != nil {
			c.notifier.BroadcastTaskUpdate(ctx, task)
		}
	}

	c.logger.Info("demo company seeded",
		logger.Field{Key: "company_id", Value: company.ID.String()},
		logger.Field{Key: "slug", Value: company.Slug})
	return nil
}

func seedTaskTitle(kind, companyName string) string {
	switch kind {
	case domain.TaskKindKYB:
		return "KYB Survey: " + companyName
	case domain.TaskKindKY3P:
		return "S&P KY3P Security Assessment: " + companyName
	case domain.TaskKindOpenBanking:
		return "Open Banking Survey: " + companyName
	default:
		return "New User Invitation: " + companyName
	}
}
