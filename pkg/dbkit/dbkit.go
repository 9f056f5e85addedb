// Package dbkit is the top-level facade over the toolkit: schema
// definition, dialect-aware DDL, the connection pool, and the migration
// engine, mirroring the teacher's thin pkg/onyx re-export facade over its
// own internal packages.
package dbkit

import (
	"context"

	"github.com/onyx-go/dbkit/internal/adapter"
	"github.com/onyx-go/dbkit/internal/ddl"
	"github.com/onyx-go/dbkit/internal/differ"
	"github.com/onyx-go/dbkit/internal/logging"
	"github.com/onyx-go/dbkit/internal/migration"
	"github.com/onyx-go/dbkit/internal/pool"
	"github.com/onyx-go/dbkit/internal/schema"
)

// Version identifies this toolkit release.
const Version = "0.1.0"

// Re-exported schema-building types, so callers depend only on this
// package rather than reaching into internal/schema directly.
type (
	Schema  = schema.Schema
	Table   = schema.Table
	Column  = schema.Column
	Index   = schema.Index
	ForeignKey = schema.ForeignKey
)

// NewTable starts a fluent table definition, re-exporting
// internal/schema.NewTable.
func NewTable(name string) *schema.TableBuilder { return schema.NewTable(name) }

// NewGenerator returns the ddl.Generator for the named dialect
// ("postgres", "mysql", "sqlite").
func NewGenerator(dialect string) ddl.Generator { return ddl.New(dialect) }

// Diff computes the ordered schema difference between from and to.
func Diff(from, to *schema.Schema, opts differ.Options) differ.SchemaDiff {
	return differ.Diff(from, to, opts)
}

// DB bundles a dialect connection Manager, its dbkit pool, the logging
// service every component reports through, and the migration machinery
// wired against the same underlying *sql.DB — the single entry point
// most callers need.
type DB struct {
	Manager  *adapter.Manager
	Pool     *pool.Pool[*adapter.Connection]
	Logging  *logging.Service
	Store    *migration.Store
	Planner  *migration.Planner
	Executor *migration.Executor
	History  migration.History
}

// Open connects to cfg's dialect/DSN, builds a bounded pool over it with
// poolCfg, starts a logging service from logCfg (pass logging.DefaultConfig()
// for console-only logging), and wires a file-backed migration store
// rooted at migrationsDir against an in-memory history. Callers needing a
// database-backed history or a custom SqlExecutor should assemble the
// internal packages directly instead.
func Open(ctx context.Context, cfg adapter.Config, poolCfg pool.Config, logCfg logging.Config, migrationsDir string) (*DB, error) {
	logSvc, err := logging.NewService(logCfg)
	if err != nil {
		return nil, err
	}
	logger := logSvc.Logger()

	mgr, err := adapter.NewManager(ctx, cfg)
	if err != nil {
		logSvc.Close()
		return nil, err
	}

	p, err := pool.New(ctx, poolCfg, mgr, logger)
	if err != nil {
		mgr.Shutdown()
		logSvc.Close()
		return nil, err
	}

	store := migration.NewStore(migrationsDir)
	store.Logger = logger
	migrations, err := store.LoadAll()
	if err != nil {
		p.Close()
		mgr.Shutdown()
		logSvc.Close()
		return nil, err
	}

	history := migration.NewMemoryHistory()
	planner := migration.NewPlanner(migrations, logger)
	gen := ddl.New(string(cfg.Dialect))
	executor := migration.NewExecutor(adapter.NewSQLExecutor(mgr.DB()), gen, history)
	executor.Logger = logger

	return &DB{
		Manager:  mgr,
		Pool:     p,
		Logging:  logSvc,
		Store:    store,
		Planner:  planner,
		Executor: executor,
		History:  history,
	}, nil
}

// Close drains the pool, shuts down the underlying connection, and stops
// the logging service's channels.
func (db *DB) Close() error {
	db.Pool.Close()
	dbErr := db.Manager.Shutdown()
	logErr := db.Logging.Close()
	if dbErr != nil {
		return dbErr
	}
	return logErr
}

// Migrate plans and applies every pending migration against the current
// history.
func (db *DB) Migrate(ctx context.Context) ([]migration.Result, error) {
	applied, err := db.History.GetApplied(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := db.Planner.PlanUp(applied, "")
	if err != nil {
		return nil, err
	}
	if len(plan) == 0 {
		return nil, nil
	}
	return db.Executor.Apply(ctx, plan)
}
