package dbkit

import (
	"context"
	"testing"

	"github.com/onyx-go/dbkit/internal/adapter"
	"github.com/onyx-go/dbkit/internal/logging"
	"github.com/onyx-go/dbkit/internal/pool"
)

func TestOpenMigrateAndClose(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	poolCfg := pool.DefaultConfig()
	poolCfg.MinConnections = 0
	poolCfg.MaxConnections = 2

	logCfg := logging.DefaultConfig()
	logCfg.Console.Level = logging.ErrorLevel

	db, err := Open(ctx, adapter.SQLiteConfig("file::memory:?cache=shared"), poolCfg, logCfg, dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	results, err := db.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate with no migration files: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results with an empty migrations directory, got %d", len(results))
	}

	handle, err := db.Pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	handle.Release(ctx)
}

func TestNewTableBuildsViaFacade(t *testing.T) {
	tbl, err := NewTable("widgets").ID().Table().String("name").NotNull().Table().Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tbl.Name != "widgets" {
		t.Fatalf("expected table name widgets, got %s", tbl.Name)
	}
	if len(tbl.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(tbl.Columns))
	}
}

func TestNewGeneratorReturnsDialectGenerator(t *testing.T) {
	g := NewGenerator("postgres")
	if g.Dialect() != "postgres" {
		t.Fatalf("expected postgres dialect, got %s", g.Dialect())
	}
}
