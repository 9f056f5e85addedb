package migration

import (
	"fmt"

	"github.com/onyx-go/dbkit/internal/ddl"
)

// Translate renders one Operation into the DDL statement(s) g would emit
// for it. Only AlterColumn may return more than one statement (§4.B).
func Translate(g ddl.Generator, op Operation) ([]ddl.Statement, error) {
	switch op.Type {
	case OpCreateTable:
		if op.NewTable == nil {
			return nil, fmt.Errorf("migration: create_table operation missing table definition")
		}
		return []ddl.Statement{g.CreateTable(*op.NewTable)}, nil
	case OpDropTable:
		return []ddl.Statement{g.DropTable(op.Table, op.Cascade)}, nil
	case OpRenameTable:
		return []ddl.Statement{g.RenameTable(op.From, op.To)}, nil
	case OpAddColumn:
		if op.Column == nil {
			return nil, fmt.Errorf("migration: add_column operation missing column definition")
		}
		return []ddl.Statement{g.AddColumn(op.Table, *op.Column)}, nil
	case OpDropColumn:
		return []ddl.Statement{g.DropColumn(op.Table, op.Name)}, nil
	case OpAlterColumn:
		if op.FromColumn == nil || op.ToColumn == nil {
			return nil, fmt.Errorf("migration: alter_column operation missing from/to column")
		}
		return g.AlterColumn(op.Table, *op.FromColumn, *op.ToColumn), nil
	case OpRenameColumn:
		return []ddl.Statement{g.RenameColumn(op.Table, op.From, op.To)}, nil
	case OpCreateIndex:
		if op.Index == nil {
			return nil, fmt.Errorf("migration: create_index operation missing index definition")
		}
		return []ddl.Statement{g.CreateIndex(op.Table, *op.Index)}, nil
	case OpDropIndex:
		return []ddl.Statement{g.DropIndex(op.Table, op.Name)}, nil
	case OpAddConstraint:
		if op.Constraint == nil {
			return nil, fmt.Errorf("migration: add_constraint operation missing constraint definition")
		}
		return []ddl.Statement{g.AddConstraint(op.Table, *op.Constraint)}, nil
	case OpDropConstraint:
		return []ddl.Statement{g.DropConstraint(op.Table, op.Name)}, nil
	case OpAddForeignKey:
		if op.ForeignKey == nil {
			return nil, fmt.Errorf("migration: add_foreign_key operation missing foreign key definition")
		}
		return []ddl.Statement{g.AddForeignKey(op.Table, *op.ForeignKey)}, nil
	case OpDropForeignKey:
		return []ddl.Statement{g.DropForeignKey(op.Table, op.Name)}, nil
	case OpRawSQL:
		return []ddl.Statement{{SQL: op.RawUp, Reversible: op.RawDown != "", ReverseSQL: op.RawDown}}, nil
	default:
		return nil, fmt.Errorf("migration: unknown operation type %q", op.Type)
	}
}

// Reverse returns the reverse of op per §4.H's reverse semantics table.
// Operations with no automatic reverse (DropTable, DropColumn, DropIndex,
// DropConstraint, DropForeignKey) return ok=false: callers must pair them
// via raw SQL or explicit AddX operations in the Down list. AlterColumn
// reverses by swapping From and To, which undoes the original only where
// every statement the generator emits for it is reversible; otherwise pair
// it with explicit AddColumn/DropColumn operations in the Down list.
func Reverse(op Operation) (reversed Operation, ok bool) {
	switch op.Type {
	case OpCreateTable:
		return DropTableOp(op.Table, true), true
	case OpAddColumn:
		return DropColumnOp(op.Table, op.Column.Name), true
	case OpRenameTable:
		return RenameTableOp(op.To, op.From), true
	case OpRenameColumn:
		return RenameColumnOp(op.Table, op.To, op.From), true
	case OpAlterColumn:
		reversedOp := AlterColumnOp(op.Table, *op.ToColumn, *op.FromColumn)
		return reversedOp, true
	case OpCreateIndex:
		return DropIndexOp(op.Table, op.Index.Name), true
	case OpAddConstraint:
		return DropConstraintOp(op.Table, op.Constraint.Name), true
	case OpAddForeignKey:
		name := op.ForeignKey.EffectiveName(op.Table)
		return DropForeignKeyOp(op.Table, name), true
	case OpRawSQL:
		if op.RawDown == "" {
			return Operation{}, false
		}
		return RawSQLOp(op.RawDown, op.RawUp), true
	default:
		return Operation{}, false
	}
}
