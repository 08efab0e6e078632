// Package server assembles the attendance application: storage selection,
// collaborators, services and the gRPC endpoint, run until a shutdown
// signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/attendance/internal/logging"
	"github.com/dmitrijs2005/attendance/internal/server/captures"
	"github.com/dmitrijs2005/attendance/internal/server/config"
	gs "github.com/dmitrijs2005/attendance/internal/server/grpc"
	"github.com/dmitrijs2005/attendance/internal/server/matching"
	"github.com/dmitrijs2005/attendance/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/attendance/internal/server/repositories/roster"
	"github.com/dmitrijs2005/attendance/internal/server/services"
	"github.com/dmitrijs2005/attendance/internal/timex"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) { return sql.Open("pgx", dsn) }

// pingBackoff bounds how long startup waits for the database.
var pingBackoff = func() retry.Backoff {
	return retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
}

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *gs.GRPCServer
}

// NewApp builds every component from c. With a DatabaseDSN it connects to
// PostgreSQL and migrates; otherwise it uses the in-memory store seeded
// from RosterFile.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	loc, err := c.Location()
	if err != nil {
		return nil, err
	}

	db, rm, err := openStore(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	if c.RosterFile != "" {
		if err := seedRoster(ctx, c.RosterFile, rm, db, logger); err != nil {
			closeDB(db)
			return nil, err
		}
	}

	matcher := matching.NewHTTPClient(c.MatcherURL, c.MatcherTimeout, nil)

	var archive captures.Archive = captures.Noop{}
	if c.S3Bucket != "" {
		archive = captures.NewS3Archive(captures.S3Options{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			User:         c.S3RootUser,
			Password:     c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	}

	att := services.NewAttendance(db, rm, c, timex.NewSystemClock(loc), matcher, archive, logger)
	srv := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, att, c.SecretKey)

	return &App{config: c, logger: logger, db: db, server: srv}, nil
}

func openStore(ctx context.Context, c *config.Config, l logging.Logger) (*sql.DB, repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == "" {
		l.Info(ctx, "using in-memory store")
		return nil, repomanager.NewInMemoryRepositoryManager(), nil
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	err = retry.Do(ctx, pingBackoff(), func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			l.Warn(ctx, "database not ready", "error", err.Error())
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		closeDB(db)
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		closeDB(db)
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return db, rm, nil
}

func seedRoster(ctx context.Context, path string, rm repomanager.RepositoryManager, db *sql.DB, l logging.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("roster file: %w", err)
	}
	defer f.Close()

	n, err := roster.Seed(ctx, rm.Roster(db), f)
	if err != nil {
		return fmt.Errorf("roster seed: %w", err)
	}
	l.Info(ctx, "roster seeded", "file", path, "students", n)
	return nil
}

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	defer closeDB(app.db)

	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.server.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		app.logger.Error(ctx, "app stopped", "error", err.Error())
		return err
	}
	app.logger.Info(ctx, "App stopped")
	return nil
}
