package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/onyx-go/dbkit/internal/ddl"
	"github.com/onyx-go/dbkit/internal/errors"
	"github.com/onyx-go/dbkit/internal/logging"
)

// Transaction is the in-flight transaction handle a SqlExecutor hands
// back from BeginTransaction, per §4.H/§6.
type Transaction interface {
	Execute(ctx context.Context, sql string) (int64, error)
	Commit() error
	Rollback() error
}

// SqlExecutor is the opaque SQL execution collaborator of §4.H: the
// executor never constructs connections itself, only dispatches text
// through this contract.
type SqlExecutor interface {
	Execute(ctx context.Context, sql string) (int64, error)
	ExecuteInTransaction(ctx context.Context, stmts []string) ([]int64, error)
	BeginTransaction(ctx context.Context) (Transaction, error)
}

// Result is the outcome of applying one PlannedMigration.
type Result struct {
	MigrationID        string
	Direction          Direction
	StatementsExecuted int
	Duration           time.Duration
	Err                error
}

// Executor is the transactional migration executor of §4.H.
type Executor struct {
	SQL            SqlExecutor
	DDL            ddl.Generator
	History        History
	UseTransactions bool
	DryRun         bool
	Logger         logging.Logger
}

// NewExecutor returns an Executor with UseTransactions defaulting to true,
// per §4.H.
func NewExecutor(sql SqlExecutor, gen ddl.Generator, history History) *Executor {
	return &Executor{
		SQL: sql, DDL: gen, History: history,
		UseTransactions: true,
		Logger:          logging.NewNullLogger(),
	}
}

// Apply runs the algorithm of §4.H over plan: acquire the lock, apply each
// entry in order, stop at the first failure, and always release the lock.
func (e *Executor) Apply(ctx context.Context, plan Plan) ([]Result, error) {
	lock, err := e.History.AcquireLock(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration: lock not acquired, plan not run: %w", err)
	}
	defer e.History.ReleaseLock(ctx, lock)

	results := make([]Result, 0, len(plan))
	for _, pm := range plan {
		res := e.applyOne(ctx, pm)
		results = append(results, res)
		if res.Err != nil {
			break
		}
	}
	return results, nil
}

func (e *Executor) applyOne(ctx context.Context, pm PlannedMigration) Result {
	start := time.Now()
	m := pm.Migration
	res := Result{MigrationID: m.ID, Direction: pm.Direction}
	ctx = logging.WithMigrationID(ctx, m.ID)

	stmts, err := e.statementsFor(pm)
	if err != nil {
		res.Err = errors.NewMigrationError(m.ID, "generate_ddl", err)
		e.recordFailure(ctx, pm, res.Err)
		return res
	}

	if e.DryRun {
		e.Logger.InfoContext(ctx, "migration: dry run, not dispatching statements", map[string]interface{}{
			"migration": m.ID, "statements": len(stmts),
		})
		res.Duration = time.Since(start)
		return res
	}

	executed, err := e.execute(ctx, stmts)
	res.StatementsExecuted = executed
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = errors.NewMigrationError(m.ID, "execute", err)
		e.recordFailure(ctx, pm, res.Err)
		return res
	}

	e.recordSuccess(ctx, pm, len(stmts), res.Duration)
	return res
}

// statementsFor renders the SQL to run for one planned entry, per §4.H:
// Up runs raw_sql_up first (if any) then each operation in listed order;
// Down runs raw_sql_down first then each operation's reverse in reverse
// list order.
func (e *Executor) statementsFor(pm PlannedMigration) ([]ddl.Statement, error) {
	m := pm.Migration
	var stmts []ddl.Statement

	if pm.Direction == Up {
		if m.RawSQLUp != "" {
			stmts = append(stmts, ddl.Statement{SQL: m.RawSQLUp, Reversible: m.RawSQLDown != "", ReverseSQL: m.RawSQLDown})
		}
		for _, op := range m.Operations {
			s, err := Translate(e.DDL, op)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, s...)
		}
		return stmts, nil
	}

	if m.RawSQLDown != "" {
		stmts = append(stmts, ddl.Statement{SQL: m.RawSQLDown})
	}
	for i := len(m.Operations) - 1; i >= 0; i-- {
		reversedOp, ok := Reverse(m.Operations[i])
		if !ok {
			return nil, fmt.Errorf("migration: operation %q has no automatic reverse; pair it with raw_sql or an explicit Down operation", m.Operations[i].Type)
		}
		s, err := Translate(e.DDL, reversedOp)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s...)
	}
	return stmts, nil
}

// execute dispatches stmts per the UseTransactions flag: transactional
// mode begins, runs each statement, and rolls back whole on any failure;
// non-transactional mode runs statements individually and stops at the
// first failure.
func (e *Executor) execute(ctx context.Context, stmts []ddl.Statement) (int, error) {
	if e.UseTransactions {
		tx, err := e.SQL.BeginTransaction(ctx)
		if err != nil {
			return 0, err
		}
		executed := 0
		for _, s := range stmts {
			if _, err := tx.Execute(ctx, s.SQL); err != nil {
				_ = tx.Rollback()
				return executed, err
			}
			executed++
		}
		if err := tx.Commit(); err != nil {
			return executed, err
		}
		return executed, nil
	}

	executed := 0
	for _, s := range stmts {
		if _, err := e.SQL.Execute(ctx, s.SQL); err != nil {
			return executed, err
		}
		executed++
	}
	return executed, nil
}

func (e *Executor) recordSuccess(ctx context.Context, pm PlannedMigration, statements int, d time.Duration) {
	m := pm.Migration
	rec := Record{
		ID: m.ID, Name: m.Name, App: m.App, Checksum: m.Checksum,
		DurationMs: d.Milliseconds(), StatementsCount: statements,
	}
	var err error
	if pm.Direction == Up {
		err = e.History.RecordApplied(ctx, rec)
	} else {
		err = e.History.RecordRollback(ctx, m.ID)
	}
	if err != nil {
		e.Logger.ErrorContext(ctx, "migration: failed to record history", map[string]interface{}{"migration": m.ID, "error": err.Error()})
	}
}

func (e *Executor) recordFailure(ctx context.Context, pm PlannedMigration, failure error) {
	m := pm.Migration
	if mh, ok := e.History.(*MemoryHistory); ok {
		_ = mh.RecordFailed(ctx, Record{ID: m.ID, Name: m.Name, App: m.App, Checksum: m.Checksum}, failure.Error())
		return
	}
	// A database-backed History has no generic RecordFailed in the §4.H
	// contract; callers wiring a custom adapter are expected to record the
	// failure through RecordApplied with a Failed-carrying Record shape, or
	// extend their own History implementation accordingly.
	e.Logger.ErrorContext(ctx, "migration: execution failed", map[string]interface{}{"migration": m.ID, "error": failure.Error()})
}
