package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/EvanCNavarro/invela/pkg/config"
	"github.com/EvanCNavarro/invela/pkg/domain"
	"github.com/EvanCNavarro/invela/pkg/interfaces/logger"
	"github.com/EvanCNavarro/invela/pkg/interfaces/store"
	"github.com/EvanCNavarro/invela/pkg/notifier"
	"github.com/EvanCNavarro/invela/pkg/storage"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a login attempt fails. The
// handler maps it to 401 without leaking which part was wrong.
var ErrInvalidCredentials = errors.New("server: invalid credentials")

// ErrForbidden is returned when a caller touches another company's data.
var ErrForbidden = errors.New("server: forbidden")

// App owns the HTTP surface: sessions, handlers, and the mutation
// methods that fire realtime events after a successful write.
type App struct {
	Config   config.Config
	Module   *notifier.Module
	Sessions *SessionStore
	Logger   logger.Logger

	storage  storage.Providers
	notifier *notifier.Manager
}

// NewApp builds the application over an assembled module.
func NewApp(cfg config.Config, module *notifier.Module, lgr logger.Logger) (*App, error) {
	if module == nil {
		return nil, errors.New("server: module is required")
	}
	if lgr == nil {
		lgr = &logger.Nop{}
	}
	return &App{
		Config:   cfg,
		Module:   module,
		Sessions: NewSessionStore(cfg.Auth.SessionTTL),
		Logger:   lgr,
		storage:  module.Storage(),
		notifier: module.Manager(),
	}, nil
}

// Authenticate verifies an email/password pair against the user store.
func (a *App) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := a.storage.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// UpdateTaskStatus moves a task through its lifecycle and notifies the
// owning company.
func (a *App) UpdateTaskStatus(ctx context.Context, session Session, taskID uuid.UUID, status string) (*domain.Task, error) {
	if !domain.ValidTaskStatus(status) {
		return nil, fmt.Errorf("server: unknown task status %q", status)
	}
	task, err := a.storage.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.CompanyID != session.CompanyID && !session.IsAdmin {
		return nil, ErrForbidden
	}
	progress, _ := domain.TaskProgressFor(status)
	if err := a.storage.Tasks.UpdateStatus(ctx, task.ID, status, progress); err != nil {
		return nil, err
	}
	updated, err := a.storage.Tasks.GetByID(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	a.notifier.BroadcastTaskUpdate(ctx, updated)
	return updated, nil
}

// SubmitTask marks a task submitted and emits the submission events. A
// first KYB submission also unlocks the company's file vault.
func (a *App) SubmitTask(ctx context.Context, session Session, taskID uuid.UUID) (*domain.Task, error) {
	task, err := a.storage.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.CompanyID != session.CompanyID && !session.IsAdmin {
		return nil, ErrForbidden
	}
	if task.Status == domain.TaskStatusSubmitted || task.Status == domain.TaskStatusApproved {
		return nil, fmt.Errorf("server: task %s already submitted", task.ID)
	}

	progress, _ := domain.TaskProgressFor(domain.TaskStatusSubmitted)
	if err := a.storage.Tasks.UpdateStatus(ctx, task.ID, domain.TaskStatusSubmitted, progress); err != nil {
		return nil, err
	}
	submitted, err := a.storage.Tasks.GetByID(ctx, task.ID)
	if err != nil {
		return nil, err
	}

	a.notifier.BroadcastFormSubmission(ctx, submitted)
	a.notifier.BroadcastTaskUpdate(ctx, submitted)

	if submitted.Kind == domain.TaskKindKYB {
		if err := a.unlockVault(ctx, submitted.CompanyID); err != nil {
			a.Logger.Warn("vault unlock after submission failed",
				logger.Field{Key: "company_id", Value: submitted.CompanyID.String()},
				logger.Field{Key: "error", Value: err.Error()})
		}
	}
	return submitted, nil
}

func (a *App) unlockVault(ctx context.Context, companyID uuid.UUID) error {
	company, err := a.storage.Companies.GetByID(ctx, companyID)
	if err != nil {
		return err
	}
	if company.FileVaultUnlocked {
		return nil
	}
	if err := a.storage.Companies.SetFileVaultUnlocked(ctx, company.ID, true); err != nil {
		return err
	}
	a.notifier.BroadcastFileVaultUpdate(ctx, company.ID, uuid.Nil, notifier.FileActionUnlocked)
	return nil
}

// AddFile records a vault file and notifies the company.
func (a *App) AddFile(ctx context.Context, session Session, name, kind string, size int64) (*domain.VaultFile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("server: file name is required")
	}
	file := &domain.VaultFile{
		CompanyID:  session.CompanyID,
		Name:       name,
		Kind:       kind,
		Size:       size,
		UploadedBy: session.UserID,
	}
	if err := a.storage.Files.Create(ctx, file); err != nil {
		return nil, err
	}
	a.notifier.BroadcastFileVaultUpdate(ctx, session.CompanyID, file.ID, notifier.FileActionAdded)
	return file, nil
}

// DeleteFile removes a vault file and notifies the company.
func (a *App) DeleteFile(ctx context.Context, session Session, fileID uuid.UUID) error {
	file, err := a.storage.Files.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if file.CompanyID != session.CompanyID && !session.IsAdmin {
		return ErrForbidden
	}
	if err := a.storage.Files.MarkDeleted(ctx, file.ID); err != nil {
		return err
	}
	a.notifier.BroadcastFileVaultUpdate(ctx, file.CompanyID, file.ID, notifier.FileActionDeleted)
	return nil
}

// Close releases module resources.
func (a *App) Close() error {
	if a == nil || a.Module == nil {
		return nil
	}
	return a.Module.Close()
}
