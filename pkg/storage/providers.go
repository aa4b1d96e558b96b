package storage

import (
	"context"
	"database/sql"

	bunrepo "github.com/EvanCNavarro/invela/internal/storage/bun"
	"github.com/EvanCNavarro/invela/internal/storage/memory"
	"github.com/EvanCNavarro/invela/pkg/domain"
	"github.com/EvanCNavarro/invela/pkg/interfaces/store"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
)

// Providers exposes all repositories needed by services.
type Providers struct {
	Companies   store.CompanyRepository
	Users       store.UserRepository
	Tasks       store.TaskRepository
	Files       store.VaultFileRepository
	Transaction store.TransactionManager
}

type Option func(*Providers)

// NewMemoryProviders returns repositories backed by in-memory maps.
func NewMemoryProviders(opts ...Option) Providers {
	providers := Providers{
		Companies:   memory.NewCompanyRepository(),
		Users:       memory.NewUserRepository(),
		Tasks:       memory.NewTaskRepository(),
		Files:       memory.NewVaultFileRepository(),
		Transaction: &store.NopTransactionManager{},
	}
	for _, opt := range opts {
		opt(&providers)
	}
	return providers
}

// NewBunProviders wires Bun-backed repositories using go-repository-bun.
// The caller is responsible for creating the *bun.DB instance (potentially
// via go-persistence-bun) and managing its lifecycle.
func NewBunProviders(db *bun.DB, opts ...Option) Providers {
	if db == nil {
		panic("storage: bun DB is required")
	}

	// Register models so go-persistence-bun migrations can pick them up.
	persistence.RegisterModel(
		(*domain.Company)(nil),
		(*domain.User)(nil),
		(*domain.Task)(nil),
		(*domain.VaultFile)(nil),
	)

	txManager := &bunTxManager{db: db}

	providers := Providers{
		Companies:   bunrepo.NewCompanyRepository(db),
		Users:       bunrepo.NewUserRepository(db),
		Tasks:       bunrepo.NewTaskRepository(db),
		Files:       bunrepo.NewVaultFileRepository(db),
		Transaction: txManager,
	}

	for _, opt := range opts {
		opt(&providers)
	}
	return providers
}

type bunTxManager struct {
	db *bun.DB
}

func (m *bunTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx)
	})
}
