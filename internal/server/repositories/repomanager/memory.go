package repomanager

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/attendance/internal/dbx"
	"github.com/dmitrijs2005/attendance/internal/server/repositories/marks"
	"github.com/dmitrijs2005/attendance/internal/server/repositories/memory"
	"github.com/dmitrijs2005/attendance/internal/server/repositories/roster"
	"github.com/dmitrijs2005/attendance/internal/server/repositories/sessions"
)

// InMemoryRepositoryManager serves every repository from one memory.Store.
// DB handles passed to it are ignored and may be nil.
type InMemoryRepositoryManager struct {
	store *memory.Store
	// txMu serializes units of work; the store has its own data lock.
	txMu sync.Mutex
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: memory.NewStore()}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

// RunInTx runs fn while holding the manager's unit-of-work lock. Writes are
// not rolled back when fn fails, so fn must validate before writing.
func (m *InMemoryRepositoryManager) RunInTx(ctx context.Context, _ *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, nil)
}

func (m *InMemoryRepositoryManager) Sessions(dbx.DBTX) sessions.Repository {
	return memory.NewSessionsRepository(m.store)
}

func (m *InMemoryRepositoryManager) Marks(dbx.DBTX) marks.Repository {
	return memory.NewMarksRepository(m.store)
}

func (m *InMemoryRepositoryManager) Roster(dbx.DBTX) roster.Repository {
	return memory.NewRosterRepository(m.store)
}
