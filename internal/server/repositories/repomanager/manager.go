package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/attendance/internal/dbx"
	"github.com/dmitrijs2005/attendance/internal/server/repositories/marks"
	"github.com/dmitrijs2005/attendance/internal/server/repositories/roster"
	"github.com/dmitrijs2005/attendance/internal/server/repositories/sessions"
)

// RepositoryManager vends repositories bound to a DB handle (a *sql.DB or a
// transaction) and runs units of work atomically.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	RunInTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error
	Sessions(db dbx.DBTX) sessions.Repository
	Marks(db dbx.DBTX) marks.Repository
	Roster(db dbx.DBTX) roster.Repository
}
