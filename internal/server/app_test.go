package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/EvanCNavarro/invela/pkg/config"
	"github.com/EvanCNavarro/invela/pkg/domain"
	"github.com/EvanCNavarro/invela/pkg/interfaces/broadcaster"
	"github.com/EvanCNavarro/invela/pkg/notifier"
	"github.com/EvanCNavarro/invela/pkg/storage"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcaster.Event
}

func (r *recordingBroadcaster) Broadcast(ctx context.Context, event broadcaster.Event) (int, error) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return 1, nil
}

func (r *recordingBroadcaster) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, evt := range r.events {
		out[i] = evt.Kind
	}
	return out
}

type fixture struct {
	app     *App
	sink    *recordingBroadcaster
	company *domain.Company
	user    *domain.User
	session Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	providers := storage.NewMemoryProviders()
	sink := &recordingBroadcaster{}

	module, err := notifier.NewModule(notifier.ModuleOptions{
		Storage:     providers,
		Broadcaster: sink,
	})
	if err != nil {
		t.Fatalf("module: %v", err)
	}
	t.Cleanup(func() { module.Close() })

	app, err := NewApp(config.Defaults(), module, nil)
	if err != nil {
		t.Fatalf("app: %v", err)
	}

	company := &domain.Company{Name: "DevelopCo", Slug: "developco"}
	if err := providers.Companies.Create(ctx, company); err != nil {
		t.Fatalf("create company: %v", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := &domain.User{
		Email:        "owner@developco.test",
		FullName:     "Develop Owner",
		CompanyID:    company.ID,
		PasswordHash: string(hash),
	}
	if err := providers.Users.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	return &fixture{
		app:     app,
		sink:    sink,
		company: company,
		user:    user,
		session: app.Sessions.Create(user.ID, company.ID, false),
	}
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.app.Authenticate(ctx, "Owner@DevelopCo.test", "password123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != f.user.ID {
		t.Fatalf("expected user %s, got %s", f.user.ID, user.ID)
	}

	if _, err := f.app.Authenticate(ctx, "owner@developco.test", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := f.app.Authenticate(ctx, "nobody@developco.test", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestUpdateTaskStatusBroadcasts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := &domain.Task{CompanyID: f.company.ID, Kind: domain.TaskKindKY3P, Title: "Security Assessment"}
	if err := f.app.storage.Tasks.Create(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	updated, err := f.app.UpdateTaskStatus(ctx, f.session, task.ID, domain.TaskStatusInProgress)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Progress != 50 {
		t.Fatalf("expected progress 50, got %d", updated.Progress)
	}

	kinds := f.sink.kinds()
	if len(kinds) != 1 || kinds[0] != broadcaster.KindTaskUpdate {
		t.Fatalf("expected one task_update, got %v", kinds)
	}

	if _, err := f.app.UpdateTaskStatus(ctx, f.session, task.ID, "bogus"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestUpdateTaskStatusCrossCompanyForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := &domain.Task{CompanyID: uuid.New(), Kind: domain.TaskKindKYB, Title: "Other company task"}
	if err := f.app.storage.Tasks.Create(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	if _, err := f.app.UpdateTaskStatus(ctx, f.session, task.ID, domain.TaskStatusInProgress); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(f.sink.kinds()) != 0 {
		t.Fatal("forbidden mutation must not broadcast")
	}
}

func TestSubmitKYBTaskUnlocksVault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := &domain.Task{CompanyID: f.company.ID, Kind: domain.TaskKindKYB, Title: "KYB Survey", Status: domain.TaskStatusReady}
	if err := f.app.storage.Tasks.Create(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	submitted, err := f.app.SubmitTask(ctx, f.session, task.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if submitted.Status != domain.TaskStatusSubmitted || submitted.Progress != 100 {
		t.Fatalf("unexpected task after submit: status=%s progress=%d", submitted.Status, submitted.Progress)
	}
	if submitted.SubmittedAt.IsZero() {
		t.Fatal("expected submission timestamp")
	}

	kinds := f.sink.kinds()
	want := []string{broadcaster.KindFormSubmission, broadcaster.KindTaskUpdate, broadcaster.KindFileVaultUpdate}
	if len(kinds) != len(want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, kinds)
		}
	}

	company, err := f.app.storage.Companies.GetByID(ctx, f.company.ID)
	if err != nil {
		t.Fatalf("reload company: %v", err)
	}
	if !company.FileVaultUnlocked {
		t.Fatal("expected vault unlocked after KYB submission")
	}

	// Double submission is rejected.
	if _, err := f.app.SubmitTask(ctx, f.session, task.ID); err == nil {
		t.Fatal("expected error for second submission")
	}
}

func TestSubmitNonKYBTaskKeepsVaultLocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := &domain.Task{CompanyID: f.company.ID, Kind: domain.TaskKindOpenBanking, Title: "Open Banking Survey"}
	if err := f.app.storage.Tasks.Create(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	if _, err := f.app.SubmitTask(ctx, f.session, task.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	kinds := f.sink.kinds()
	for _, kind := range kinds {
		if kind == broadcaster.KindFileVaultUpdate {
			t.Fatalf("open banking submission must not touch the vault, got %v", kinds)
		}
	}
}

func TestFileLifecycleBroadcasts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	file, err := f.app.AddFile(ctx, f.session, "soc2_report.pdf", "pdf", 2048)
	if err != nil {
		t.Fatalf("add file: %v", err)
	}
	if err := f.app.DeleteFile(ctx, f.session, file.ID); err != nil {
		t.Fatalf("delete file: %v", err)
	}

	kinds := f.sink.kinds()
	if len(kinds) != 2 || kinds[0] != broadcaster.KindFileVaultUpdate || kinds[1] != broadcaster.KindFileVaultUpdate {
		t.Fatalf("expected two file_vault_update events, got %v", kinds)
	}
	f.sink.mu.Lock()
	first, second := f.sink.events[0], f.sink.events[1]
	f.sink.mu.Unlock()
	if first.Payload["action"] != notifier.FileActionAdded || second.Payload["action"] != notifier.FileActionDeleted {
		t.Fatalf("unexpected actions: %v / %v", first.Payload, second.Payload)
	}
	if first.CompanyID != f.company.ID {
		t.Fatalf("expected company scope %s, got %s", f.company.ID, first.CompanyID)
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	store := NewSessionStore(10 * time.Millisecond)
	session := store.Create(uuid.New(), uuid.New(), false)

	if _, ok := store.Get(session.ID); !ok {
		t.Fatal("expected fresh session to resolve")
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok := store.Get(session.ID); ok {
		t.Fatal("expected session to expire")
	}

	store.Delete(session.ID)
	store.Delete("unknown")
}
