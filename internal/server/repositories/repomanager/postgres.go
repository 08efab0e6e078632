// Package repomanager provides RepositoryManager implementations: PostgreSQL
// (with goose migrations) and an in-memory one for database-less runs.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/attendance/internal/dbx"
	"github.com/dmitrijs2005/attendance/internal/server/migrations"
	"github.com/dmitrijs2005/attendance/internal/server/repositories/marks"
	"github.com/dmitrijs2005/attendance/internal/server/repositories/roster"
	"github.com/dmitrijs2005/attendance/internal/server/repositories/sessions"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Sessions returns a sessions.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewPostgresRepository(db)
}

// Marks returns a marks.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Marks(db dbx.DBTX) marks.Repository {
	return marks.NewPostgresRepository(db)
}

// Roster returns a roster.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Roster(db dbx.DBTX) roster.Repository {
	return roster.NewPostgresRepository(db)
}

// RunInTx runs fn inside a database transaction.
func (m *PostgresRepositoryManager) RunInTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return dbx.WithTx(ctx, db, nil, fn)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
