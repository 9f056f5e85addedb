package ddl

import (
	"fmt"
	"strings"

	"github.com/onyx-go/dbkit/internal/schema"
)

// postgresGenerator is the fidelity-first dialect: native BIGSERIAL,
// TIMESTAMP WITH TIME ZONE, JSONB, BYTEA and T[] array types survive
// round-trip unchanged.
type postgresGenerator struct{}

func (postgresGenerator) Dialect() string { return "postgres" }

func (postgresGenerator) Capabilities() Capabilities {
	return Capabilities{
		SupportsReturning:        true,
		SupportsILike:            true,
		SupportsAlterColumn:      true,
		SupportsAddFKAfterCreate: true,
		SupportsExclusion:        true,
	}
}

func (postgresGenerator) QuoteIdentifier(name string) string { return doubleQuote(name, '"') }

func (g postgresGenerator) mapType(t schema.ColumnType) string {
	switch t.Kind {
	case schema.KindSmallInt:
		return "SMALLINT"
	case schema.KindInt:
		return "INTEGER"
	case schema.KindBigInt:
		return "BIGINT"
	case schema.KindDecimal:
		return fmt.Sprintf("NUMERIC(%d,%d)", t.Precision, t.Scale)
	case schema.KindReal:
		return "REAL"
	case schema.KindDouble:
		return "DOUBLE PRECISION"
	case schema.KindChar:
		return fmt.Sprintf("CHAR(%d)", t.Length)
	case schema.KindVarchar:
		return fmt.Sprintf("VARCHAR(%d)", t.Length)
	case schema.KindText:
		return "TEXT"
	case schema.KindBoolean:
		return "BOOLEAN"
	case schema.KindDate:
		return "DATE"
	case schema.KindTime:
		return "TIME"
	case schema.KindTimeTz:
		return "TIME WITH TIME ZONE"
	case schema.KindTimestamp:
		return "TIMESTAMP"
	case schema.KindTimestampTz:
		return "TIMESTAMP WITH TIME ZONE"
	case schema.KindInterval:
		return "INTERVAL"
	case schema.KindUUID:
		return "UUID"
	case schema.KindJSON:
		return "JSON"
	case schema.KindJSONB:
		return "JSONB"
	case schema.KindBytea:
		return "BYTEA"
	case schema.KindArray:
		if t.Inner != nil {
			return g.mapType(*t.Inner) + "[]"
		}
		return "TEXT[]"
	case schema.KindCustom:
		return t.Name
	case schema.KindSerial:
		return "SERIAL"
	case schema.KindBigSerial:
		return "BIGSERIAL"
	default:
		return "TEXT"
	}
}

func (g postgresGenerator) columnClause(col schema.Column) string {
	var b strings.Builder
	b.WriteString(g.QuoteIdentifier(col.Name))
	b.WriteByte(' ')
	b.WriteString(g.mapType(col.Type))
	if !col.Nullable {
		b.WriteString(" NOT NULL")
	}
	if col.Default.Kind != schema.DefaultNone {
		b.WriteString(" DEFAULT ")
		b.WriteString(col.Default.ToSQL())
	}
	return b.String()
}

func (g postgresGenerator) CreateTable(t schema.Table) Statement {
	var parts []string
	for _, c := range t.Columns {
		parts = append(parts, g.columnClause(c))
	}
	if pk := primaryKeyClause(quoteAll(g, t.PrimaryKey)); pk != "" {
		parts = append(parts, pk)
	}
	for _, fk := range t.ForeignKeys {
		parts = append(parts, g.foreignKeyClause(t.Name, fk))
	}
	for _, c := range t.Constraints {
		parts = append(parts, fmt.Sprintf("CONSTRAINT %s %s", g.QuoteIdentifier(c.Name), c.SQL))
	}
	sql := fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", g.QuoteIdentifier(t.Name), strings.Join(parts, ",\n  "))
	return Statement{
		SQL:        sql,
		Reversible: true,
		ReverseSQL: fmt.Sprintf("DROP TABLE %s", g.QuoteIdentifier(t.Name)),
	}
}

func (g postgresGenerator) foreignKeyClause(table string, fk schema.ForeignKey) string {
	return fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s) ON DELETE %s ON UPDATE %s",
		g.QuoteIdentifier(fk.EffectiveName(table)),
		strings.Join(quoteAll(g, fk.Columns), ", "),
		g.QuoteIdentifier(fk.ReferencedTable),
		strings.Join(quoteAll(g, fk.ReferencedColumns), ", "),
		fk.OnDelete.SQL(), fk.OnUpdate.SQL())
}

func (g postgresGenerator) DropTable(name string, cascade bool) Statement {
	sql := "DROP TABLE " + g.QuoteIdentifier(name)
	if cascade {
		sql += " CASCADE"
	}
	return Statement{SQL: sql, Reversible: false}
}

func (g postgresGenerator) RenameTable(from, to string) Statement {
	return Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s RENAME TO %s", g.QuoteIdentifier(from), g.QuoteIdentifier(to)),
		Reversible: true,
		ReverseSQL: fmt.Sprintf("ALTER TABLE %s RENAME TO %s", g.QuoteIdentifier(to), g.QuoteIdentifier(from)),
	}
}

func (g postgresGenerator) AddColumn(table string, col schema.Column) Statement {
	return Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", g.QuoteIdentifier(table), g.columnClause(col)),
		Reversible: true,
		ReverseSQL: fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", g.QuoteIdentifier(table), g.QuoteIdentifier(col.Name)),
	}
}

func (g postgresGenerator) DropColumn(table, column string) Statement {
	return Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", g.QuoteIdentifier(table), g.QuoteIdentifier(column)),
		Reversible: false,
	}
}

func (g postgresGenerator) RenameColumn(table, from, to string) Statement {
	return Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", g.QuoteIdentifier(table), g.QuoteIdentifier(from), g.QuoteIdentifier(to)),
		Reversible: true,
		ReverseSQL: fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", g.QuoteIdentifier(table), g.QuoteIdentifier(to), g.QuoteIdentifier(from)),
	}
}

// AlterColumn emits one statement per changed facet (type, nullability,
// default), matching postgres's ALTER TABLE ... ALTER COLUMN grammar which
// disallows combining them in a single clause list without repeating the
// column name. Order: rename (when the name changes), then type, then
// nullability, then default.
func (g postgresGenerator) AlterColumn(table string, from, to schema.Column) []Statement {
	q := g.QuoteIdentifier(table)
	qc := g.QuoteIdentifier(to.Name)
	var stmts []Statement
	if from.Name != to.Name {
		stmts = append(stmts, g.RenameColumn(table, from.Name, to.Name))
	}

	if !from.Type.Equal(to.Type) {
		stmts = append(stmts, Statement{
			SQL: fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s::%s",
				q, qc, g.mapType(to.Type), qc, g.mapType(to.Type)),
			Reversible: true,
			ReverseSQL: fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s::%s",
				q, qc, g.mapType(from.Type), qc, g.mapType(from.Type)),
		})
	}
	if from.Nullable != to.Nullable {
		if to.Nullable {
			stmts = append(stmts, Statement{
				SQL:        fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", q, qc),
				Reversible: true,
				ReverseSQL: fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", q, qc),
			})
		} else {
			stmts = append(stmts, Statement{
				SQL:        fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", q, qc),
				Reversible: true,
				ReverseSQL: fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", q, qc),
			})
		}
	}
	if from.Default.ToSQL() != to.Default.ToSQL() {
		if to.Default.Kind == schema.DefaultNone {
			stmts = append(stmts, Statement{
				SQL:        fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", q, qc),
				Reversible: from.Default.Kind != schema.DefaultNone,
				ReverseSQL: fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", q, qc, from.Default.ToSQL()),
			})
		} else {
			stmts = append(stmts, Statement{
				SQL:        fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", q, qc, to.Default.ToSQL()),
				Reversible: true,
				ReverseSQL: dropOrSetDefault(q, qc, from),
			})
		}
	}
	if len(stmts) == 0 {
		stmts = append(stmts, noop(fmt.Sprintf("alter_column %s.%s: no detected change", table, to.Name)))
	}
	return stmts
}

func dropOrSetDefault(table, col string, c schema.Column) string {
	if c.Default.Kind == schema.DefaultNone {
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", table, col)
	}
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", table, col, c.Default.ToSQL())
}

func (g postgresGenerator) CreateIndex(table string, idx schema.Index) Statement {
	var unique string
	if idx.Unique {
		unique = "UNIQUE "
	}
	using := ""
	if idx.AccessMethod != "" {
		using = " USING " + idx.AccessMethod
	}
	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		cols[i] = g.QuoteIdentifier(c.Column)
		if c.Descending {
			cols[i] += " DESC"
		}
		if c.NullsFirst != nil {
			if *c.NullsFirst {
				cols[i] += " NULLS FIRST"
			} else {
				cols[i] += " NULLS LAST"
			}
		}
	}
	where := ""
	if idx.Where != "" {
		where = " WHERE " + idx.Where
	}
	sql := fmt.Sprintf("CREATE %sINDEX %s ON %s%s (%s)%s",
		unique, g.QuoteIdentifier(idx.Name), g.QuoteIdentifier(table), using, strings.Join(cols, ", "), where)
	return Statement{
		SQL:        sql,
		Reversible: true,
		ReverseSQL: fmt.Sprintf("DROP INDEX %s", g.QuoteIdentifier(idx.Name)),
	}
}

func (g postgresGenerator) DropIndex(table, name string) Statement {
	return Statement{SQL: fmt.Sprintf("DROP INDEX %s", g.QuoteIdentifier(name)), Reversible: false}
}

func (g postgresGenerator) AddConstraint(table string, c schema.Constraint) Statement {
	return Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s", g.QuoteIdentifier(table), g.QuoteIdentifier(c.Name), c.SQL),
		Reversible: true,
		ReverseSQL: fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", g.QuoteIdentifier(table), g.QuoteIdentifier(c.Name)),
	}
}

func (g postgresGenerator) DropConstraint(table, name string) Statement {
	return Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", g.QuoteIdentifier(table), g.QuoteIdentifier(name)),
		Reversible: false,
	}
}

func (g postgresGenerator) AddForeignKey(table string, fk schema.ForeignKey) Statement {
	return Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s ADD %s", g.QuoteIdentifier(table), g.foreignKeyClause(table, fk)),
		Reversible: true,
		ReverseSQL: fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", g.QuoteIdentifier(table), g.QuoteIdentifier(fk.EffectiveName(table))),
	}
}

func (g postgresGenerator) DropForeignKey(table, name string) Statement {
	return Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", g.QuoteIdentifier(table), g.QuoteIdentifier(name)),
		Reversible: false,
	}
}

var _ Generator = postgresGenerator{}
