package server

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/attendance/internal/server/config"
	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.LogLevel = "error"
	return c
}

func TestNewApp_InMemoryWithRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sections":[{"id":"5b","name":"5-B","students":[{"id":"s1","name":"Asha","roll_no":"1"}]}]}`), 0o600))

	c := testConfig()
	c.RosterFile = path

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	assert.Nil(t, app.db)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
}

func TestNewApp_MissingRosterFile(t *testing.T) {
	c := testConfig()
	c.RosterFile = filepath.Join(t.TempDir(), "nope.json")

	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "roster file")
}

func TestNewApp_BadTimeZone(t *testing.T) {
	c := testConfig()
	c.TimeZone = "Mars/Olympus"

	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
}

func TestNewApp_DatabaseNeverReady(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	origOpen, origBackoff := openDB, pingBackoff
	t.Cleanup(func() { openDB, pingBackoff = origOpen, origBackoff })
	openDB = func(string) (*sql.DB, error) { return db, nil }
	pingBackoff = func() retry.Backoff { return retry.WithMaxRetries(1, retry.NewConstant(time.Millisecond)) }

	c := testConfig()
	c.DatabaseDSN = "postgres://example"

	_, err = NewApp(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db ping error")
	require.NoError(t, mock.ExpectationsWereMet())
}
