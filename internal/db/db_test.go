// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"
)

func TestRunMigrationsSqlite(t *testing.T) {
	dsn := "file:test_migrations?mode=memory&cache=shared"
	dbConn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer func() { _ = dbConn.Close() }()

	if err := RunMigrations(dbConn, "sqlite"); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	// Second run must be a no-op.
	if err := RunMigrations(dbConn, "sqlite"); err != nil {
		t.Fatalf("RunMigrations (second run) failed: %v", err)
	}

	var count int
	if err := dbConn.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", "000001_create_initial_tables").Scan(&count); err != nil {
		t.Fatalf("query schema_migrations failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected initial migration recorded once, got %d", count)
	}
}

func TestOpenSqliteCreatesTables(t *testing.T) {
	bdb, err := Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = bdb.Close() }()

	ctx := context.Background()
	for _, table := range []string{"users", "refresh_tokens", "documents", "kv_entries"} {
		var names []string
		if err := QueryRawInto(ctx, bdb, &names, "SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table); err != nil {
			t.Fatalf("lookup %s failed: %v", table, err)
		}
		if len(names) != 1 {
			t.Fatalf("expected table %s to exist", table)
		}
	}
	if _, err := ExecRaw(ctx, bdb, "INSERT INTO kv_entries(cache_key, value) VALUES(?, ?)", "k", "v"); err != nil {
		t.Fatalf("ExecRaw insert failed: %v", err)
	}
	_, err = ExecRaw(ctx, bdb, "INSERT INTO kv_entries(cache_key, value) VALUES(?, ?)", "k", "v2")
	if !errors.Is(MapDBError(err), ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestOpenRejectsUnknownType(t *testing.T) {
	if _, err := Open("oracle", "whatever"); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestOpenPoolEnvOverrides(t *testing.T) {
	t.Setenv("STUDENTDIR_DB_MAX_OPEN_CONNS", "3")
	t.Setenv("STUDENTDIR_DB_MAX_IDLE_CONNS", "not-a-number")
	if got := envInt("STUDENTDIR_DB_MAX_OPEN_CONNS", 10); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := envInt("STUDENTDIR_DB_MAX_IDLE_CONNS", 10); got != 10 {
		t.Fatalf("expected default for invalid value, got %d", got)
	}
	bdb, err := Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = bdb.Close() }()
	if max := bdb.DB.Stats().MaxOpenConnections; max != 3 {
		t.Fatalf("expected MaxOpenConnections 3, got %d", max)
	}
}

func TestOpenPropagatesSQLOpenError(t *testing.T) {
	prev := sqlOpenFunc
	defer func() { sqlOpenFunc = prev }()
	sqlOpenFunc = func(string, string) (*sql.DB, error) { return nil, errors.New("boom") }
	if _, err := Open("sqlite", ":memory:"); err == nil {
		t.Fatalf("expected error from Open")
	}
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("CREATE TABLE a (x INT);\n\n CREATE TABLE b (y INT);  \n")
	if len(got) != 2 || got[1] != "CREATE TABLE b (y INT)" {
		t.Fatalf("unexpected split: %#v", got)
	}
}
