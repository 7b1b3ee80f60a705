// Package dbtestutil hands tests a Store. It is the in-memory fake unless
// DB is set, in which case a migrated PostgreSQL database is used.
package dbtestutil

import (
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/database/databasefake"
	"github.com/printwatch/printwatch/printd/database/migrations"
	"github.com/printwatch/printwatch/printd/database/postgres"
)

// WillUsePostgres returns true if a call to NewDB() will return a real,
// postgres-backed Store.
func WillUsePostgres() bool {
	return os.Getenv("DB") != ""
}

func NewDB(t testing.TB) database.Store {
	t.Helper()

	if !WillUsePostgres() {
		return databasefake.New()
	}

	connectionURL := os.Getenv("PRINTWATCH_PG_CONNECTION_URL")
	if connectionURL == "" {
		var (
			err     error
			closePg func()
		)
		connectionURL, closePg, err = postgres.Open()
		require.NoError(t, err)
		t.Cleanup(closePg)
	}
	sqlDB, err := sql.Open("postgres", connectionURL)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	err = migrations.Up(sqlDB)
	require.NoError(t, err)
	return database.New(sqlDB)
}
