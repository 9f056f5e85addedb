package adapter

import (
	"context"
	"database/sql"

	"github.com/onyx-go/dbkit/internal/migration"
)

// SQLExecutor implements migration.SqlExecutor against a real *sql.DB,
// the seam internal/migration's Executor dispatches DDL through.
type SQLExecutor struct {
	db *sql.DB
}

// NewSQLExecutor wraps db for use as a migration.SqlExecutor.
func NewSQLExecutor(db *sql.DB) *SQLExecutor {
	return &SQLExecutor{db: db}
}

func (e *SQLExecutor) Execute(ctx context.Context, query string) (int64, error) {
	res, err := e.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (e *SQLExecutor) ExecuteInTransaction(ctx context.Context, stmts []string) ([]int64, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	affected := make([]int64, 0, len(stmts))
	for _, s := range stmts {
		res, err := tx.ExecContext(ctx, s)
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		affected = append(affected, n)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return affected, nil
}

func (e *SQLExecutor) BeginTransaction(ctx context.Context) (migration.Transaction, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTransaction{tx: tx}, nil
}

// sqlTransaction implements migration.Transaction against a *sql.Tx.
type sqlTransaction struct {
	tx *sql.Tx
}

func (t *sqlTransaction) Execute(ctx context.Context, query string) (int64, error) {
	res, err := t.tx.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (t *sqlTransaction) Commit() error   { return t.tx.Commit() }
func (t *sqlTransaction) Rollback() error { return t.tx.Rollback() }
