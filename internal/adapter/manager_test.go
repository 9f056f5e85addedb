package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/onyx-go/dbkit/internal/migration"
	"github.com/onyx-go/dbkit/internal/value"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(context.Background(), SQLiteConfig("file::memory:?cache=shared"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { m.Shutdown() })
	return m
}

func TestManagerConnectAndValidate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	c, err := m.Connect(ctx)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if c.ID == "" {
		t.Error("expected a non-empty connection ID")
	}
	if !m.IsValid(ctx, c) {
		t.Error("expected freshly connected connection to validate")
	}
	if err := m.Reset(ctx, c); err != nil {
		t.Errorf("Reset: %v", err)
	}
	if err := m.Close(c); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestManagerHasExpired(t *testing.T) {
	m := newTestManager(t)
	c, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer m.Close(c)

	if m.HasExpired(c) {
		t.Error("freshly created connection should not be expired")
	}
	c.createdAt = time.Now().Add(-48 * time.Hour)
	if !m.HasExpired(c) {
		t.Error("connection older than MaxLifetime should be expired")
	}
}

func TestConnectionExecAndQueryValues(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	c, err := m.Connect(ctx)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer m.Close(c)

	if _, err := c.ExecValues(ctx, "CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT, age INTEGER)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := c.ExecValues(ctx, "INSERT INTO people (name, age) VALUES (?, ?)", value.String("ada"), value.Int64(30)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := c.ExecValues(ctx, "INSERT INTO people (name, age) VALUES (?, ?)", value.String("grace"), value.Null()); err != nil {
		t.Fatalf("insert with null: %v", err)
	}

	rows, err := c.QueryValues(ctx, "SELECT name, age FROM people ORDER BY name")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0].Kind != value.KindString || rows[0][0].Str != "ada" {
		t.Fatalf("unexpected first row name: %+v", rows[0][0])
	}
	if !rows[1][1].IsNull() {
		t.Fatalf("expected grace's age to be null, got %+v", rows[1][1])
	}
}

func TestSQLExecutorExecutesAndCommits(t *testing.T) {
	m := newTestManager(t)
	exec := NewSQLExecutor(m.DB())
	ctx := context.Background()

	if _, err := exec.Execute(ctx, "CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)"); err != nil {
		t.Fatalf("Execute create table: %v", err)
	}

	tx, err := exec.BeginTransaction(ctx)
	if err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	if _, err := tx.Execute(ctx, "INSERT INTO widgets (name) VALUES ('gear')"); err != nil {
		t.Fatalf("insert in transaction: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	var transactionIface migration.Transaction = tx
	_ = transactionIface
}

func TestSQLExecutorRollsBackOnFailure(t *testing.T) {
	m := newTestManager(t)
	exec := NewSQLExecutor(m.DB())
	ctx := context.Background()

	if _, err := exec.Execute(ctx, "CREATE TABLE gadgets (id INTEGER PRIMARY KEY, name TEXT UNIQUE)"); err != nil {
		t.Fatalf("Execute create table: %v", err)
	}
	if _, err := exec.Execute(ctx, "INSERT INTO gadgets (name) VALUES ('widget')"); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	tx, err := exec.BeginTransaction(ctx)
	if err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	_, err = tx.Execute(ctx, "INSERT INTO gadgets (name) VALUES ('widget')") // violates UNIQUE
	if err == nil {
		t.Fatal("expected unique constraint violation")
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
}
