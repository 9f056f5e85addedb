package ddl

import (
	"fmt"
	"strings"

	"github.com/onyx-go/dbkit/internal/schema"
)

// sqliteGenerator collapses every ColumnType down to sqlite's five type
// affinities (INTEGER, REAL, TEXT, BLOB, NUMERIC) and works around sqlite's
// absence of ALTER COLUMN, ADD/DROP CONSTRAINT, and FK changes after
// CREATE TABLE by returning explicit no-ops for them.
type sqliteGenerator struct{}

func (sqliteGenerator) Dialect() string { return "sqlite" }

func (sqliteGenerator) Capabilities() Capabilities {
	return Capabilities{
		SupportsReturning:        true,
		SupportsILike:            true, // LIKE is case-insensitive for ASCII by default
		SupportsAlterColumn:      false,
		SupportsAddFKAfterCreate: false,
		SupportsExclusion:        false,
	}
}

func (sqliteGenerator) QuoteIdentifier(name string) string { return doubleQuote(name, '"') }

func (g sqliteGenerator) mapType(t schema.ColumnType) string {
	switch t.Kind {
	case schema.KindSmallInt, schema.KindInt, schema.KindBigInt, schema.KindSerial, schema.KindBigSerial:
		return "INTEGER"
	case schema.KindDecimal, schema.KindReal, schema.KindDouble:
		return "REAL"
	case schema.KindBoolean:
		return "INTEGER"
	case schema.KindBytea:
		return "BLOB"
	default:
		return "TEXT"
	}
}

func (g sqliteGenerator) columnClause(col schema.Column, pk []string) string {
	var b strings.Builder
	b.WriteString(g.QuoteIdentifier(col.Name))
	b.WriteByte(' ')
	b.WriteString(g.mapType(col.Type))

	if isAutoIncrementSinglePK(col, pk) {
		b.WriteString(" PRIMARY KEY AUTOINCREMENT")
	}
	if !col.Nullable {
		b.WriteString(" NOT NULL")
	}
	if col.Default.Kind != schema.DefaultNone {
		b.WriteString(" DEFAULT ")
		b.WriteString(col.Default.ToSQL())
	}
	return b.String()
}

func isAutoIncrementSinglePK(col schema.Column, pk []string) bool {
	return (col.AutoIncrement || col.Type.IsAutoIncrement()) && len(pk) == 1 && pk[0] == col.Name
}

func (g sqliteGenerator) CreateTable(t schema.Table) Statement {
	var parts []string
	inlinedPK := false
	for _, c := range t.Columns {
		parts = append(parts, g.columnClause(c, t.PrimaryKey))
		if isAutoIncrementSinglePK(c, t.PrimaryKey) {
			inlinedPK = true
		}
	}
	if !inlinedPK {
		if pk := primaryKeyClause(quoteAll(g, t.PrimaryKey)); pk != "" {
			parts = append(parts, pk)
		}
	}
	for _, fk := range t.ForeignKeys {
		parts = append(parts, g.foreignKeyClause(t.Name, fk))
	}
	sql := fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", g.QuoteIdentifier(t.Name), strings.Join(parts, ",\n  "))
	return Statement{
		SQL:        sql,
		Reversible: true,
		ReverseSQL: fmt.Sprintf("DROP TABLE %s", g.QuoteIdentifier(t.Name)),
	}
}

func (g sqliteGenerator) foreignKeyClause(table string, fk schema.ForeignKey) string {
	return fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s) ON DELETE %s ON UPDATE %s",
		strings.Join(quoteAll(g, fk.Columns), ", "),
		g.QuoteIdentifier(fk.ReferencedTable),
		strings.Join(quoteAll(g, fk.ReferencedColumns), ", "),
		fk.OnDelete.SQL(), fk.OnUpdate.SQL())
}

func (g sqliteGenerator) DropTable(name string, cascade bool) Statement {
	return Statement{SQL: "DROP TABLE " + g.QuoteIdentifier(name), Reversible: false}
}

func (g sqliteGenerator) RenameTable(from, to string) Statement {
	return Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s RENAME TO %s", g.QuoteIdentifier(from), g.QuoteIdentifier(to)),
		Reversible: true,
		ReverseSQL: fmt.Sprintf("ALTER TABLE %s RENAME TO %s", g.QuoteIdentifier(to), g.QuoteIdentifier(from)),
	}
}

func (g sqliteGenerator) AddColumn(table string, col schema.Column) Statement {
	return Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", g.QuoteIdentifier(table), g.columnClause(col, nil)),
		Reversible: true,
		ReverseSQL: fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", g.QuoteIdentifier(table), g.QuoteIdentifier(col.Name)),
	}
}

func (g sqliteGenerator) DropColumn(table, column string) Statement {
	return Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", g.QuoteIdentifier(table), g.QuoteIdentifier(column)),
		Reversible: false,
	}
}

func (g sqliteGenerator) RenameColumn(table, from, to string) Statement {
	return Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", g.QuoteIdentifier(table), g.QuoteIdentifier(from), g.QuoteIdentifier(to)),
		Reversible: true,
		ReverseSQL: fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", g.QuoteIdentifier(table), g.QuoteIdentifier(to), g.QuoteIdentifier(from)),
	}
}

// AlterColumn has no sqlite equivalent short of a rebuild-the-table
// procedure, which is out of scope for a single-statement generator; callers
// should surface Capabilities().SupportsAlterColumn == false rather than
// invoke this, so it returns an explicit no-op.
func (g sqliteGenerator) AlterColumn(table string, from, to schema.Column) []Statement {
	return []Statement{noop(fmt.Sprintf("sqlite has no ALTER COLUMN: %s.%s requires a table rebuild", table, to.Name))}
}

func (g sqliteGenerator) CreateIndex(table string, idx schema.Index) Statement {
	var unique string
	if idx.Unique {
		unique = "UNIQUE "
	}
	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		cols[i] = g.QuoteIdentifier(c.Column)
		if c.Descending {
			cols[i] += " DESC"
		}
	}
	where := ""
	if idx.Where != "" {
		where = " WHERE " + idx.Where
	}
	sql := fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)%s", unique, g.QuoteIdentifier(idx.Name), g.QuoteIdentifier(table), strings.Join(cols, ", "), where)
	return Statement{
		SQL:        sql,
		Reversible: true,
		ReverseSQL: fmt.Sprintf("DROP INDEX %s", g.QuoteIdentifier(idx.Name)),
	}
}

func (g sqliteGenerator) DropIndex(table, name string) Statement {
	return Statement{SQL: fmt.Sprintf("DROP INDEX %s", g.QuoteIdentifier(name)), Reversible: false}
}

func (g sqliteGenerator) AddConstraint(table string, c schema.Constraint) Statement {
	return noop(fmt.Sprintf("sqlite cannot ADD CONSTRAINT %s on existing table %s", c.Name, table))
}

func (g sqliteGenerator) DropConstraint(table, name string) Statement {
	return noop(fmt.Sprintf("sqlite cannot DROP CONSTRAINT %s on existing table %s", name, table))
}

func (g sqliteGenerator) AddForeignKey(table string, fk schema.ForeignKey) Statement {
	return noop(fmt.Sprintf("sqlite cannot add foreign key %s to existing table %s", fk.EffectiveName(table), table))
}

func (g sqliteGenerator) DropForeignKey(table, name string) Statement {
	return noop(fmt.Sprintf("sqlite cannot drop foreign key %s from existing table %s", name, table))
}

var _ Generator = sqliteGenerator{}
