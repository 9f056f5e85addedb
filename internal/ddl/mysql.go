package ddl

import (
	"fmt"
	"strings"

	"github.com/onyx-go/dbkit/internal/schema"
)

// mysqlGenerator collapses the type-affinity set down to what mysql
// actually ships: no native UUID, no timezone-aware time types, JSON takes
// over for arrays, and ALTER COLUMN becomes MODIFY COLUMN.
type mysqlGenerator struct{}

func (mysqlGenerator) Dialect() string { return "mysql" }

func (mysqlGenerator) Capabilities() Capabilities {
	return Capabilities{
		SupportsReturning:        false,
		SupportsILike:            false,
		SupportsAlterColumn:      true,
		SupportsAddFKAfterCreate: true,
		SupportsExclusion:        false,
	}
}

func (mysqlGenerator) QuoteIdentifier(name string) string { return doubleQuote(name, '`') }

func (g mysqlGenerator) mapType(t schema.ColumnType) string {
	switch t.Kind {
	case schema.KindSmallInt:
		return "SMALLINT"
	case schema.KindInt, schema.KindSerial:
		return "INT"
	case schema.KindBigInt, schema.KindBigSerial:
		return "BIGINT"
	case schema.KindDecimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", t.Precision, t.Scale)
	case schema.KindReal:
		return "FLOAT"
	case schema.KindDouble:
		return "DOUBLE"
	case schema.KindChar:
		return fmt.Sprintf("CHAR(%d)", t.Length)
	case schema.KindVarchar:
		n := t.Length
		if n == 0 {
			n = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", n)
	case schema.KindText:
		return "TEXT"
	case schema.KindBoolean:
		return "TINYINT(1)"
	case schema.KindDate:
		return "DATE"
	case schema.KindTime, schema.KindTimeTz:
		return "TIME"
	case schema.KindTimestamp, schema.KindTimestampTz:
		return "DATETIME"
	case schema.KindInterval:
		return "VARCHAR(64)"
	case schema.KindUUID:
		return "CHAR(36)"
	case schema.KindJSON, schema.KindJSONB:
		return "JSON"
	case schema.KindBytea:
		return "LONGBLOB"
	case schema.KindArray:
		return "JSON"
	case schema.KindCustom:
		return t.Name
	default:
		return "TEXT"
	}
}

func (g mysqlGenerator) columnClause(col schema.Column) string {
	var b strings.Builder
	b.WriteString(g.QuoteIdentifier(col.Name))
	b.WriteByte(' ')
	b.WriteString(g.mapType(col.Type))
	if !col.Nullable {
		b.WriteString(" NOT NULL")
	}
	if col.Default.Kind != schema.DefaultNone {
		b.WriteString(" DEFAULT ")
		b.WriteString(mysqlDefaultSQL(col.Default))
	}
	if col.AutoIncrement || col.Type.IsAutoIncrement() {
		b.WriteString(" AUTO_INCREMENT")
	}
	return b.String()
}

// mysqlDefaultSQL mirrors ColumnDefault.ToSQL except gen_random_uuid(),
// which mysql has no equivalent function for; UUID() is the nearest analog.
func mysqlDefaultSQL(d schema.ColumnDefault) string {
	if d.Kind == schema.DefaultGenerateUUID {
		return "(UUID())"
	}
	return d.ToSQL()
}

func (g mysqlGenerator) CreateTable(t schema.Table) Statement {
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

func (g mysqlGenerator) foreignKeyClause(table string, fk schema.ForeignKey) string {
	return fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s) ON DELETE %s ON UPDATE %s",
		g.QuoteIdentifier(fk.EffectiveName(table)),
		strings.Join(quoteAll(g, fk.Columns), ", "),
		g.QuoteIdentifier(fk.ReferencedTable),
		strings.Join(quoteAll(g, fk.ReferencedColumns), ", "),
		fk.OnDelete.SQL(), fk.OnUpdate.SQL())
}

func (g mysqlGenerator) DropTable(name string, cascade bool) Statement {
	return Statement{SQL: "DROP TABLE " + g.QuoteIdentifier(name), Reversible: false}
}

func (g mysqlGenerator) RenameTable(from, to string) Statement {
	return Statement{
		SQL:        fmt.Sprintf("RENAME TABLE %s TO %s", g.QuoteIdentifier(from), g.QuoteIdentifier(to)),
		Reversible: true,
		ReverseSQL: fmt.Sprintf("RENAME TABLE %s TO %s", g.QuoteIdentifier(to), g.QuoteIdentifier(from)),
	}
}

func (g mysqlGenerator) AddColumn(table string, col schema.Column) Statement {
	return Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", g.QuoteIdentifier(table), g.columnClause(col)),
		Reversible: true,
		ReverseSQL: fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", g.QuoteIdentifier(table), g.QuoteIdentifier(col.Name)),
	}
}

func (g mysqlGenerator) DropColumn(table, column string) Statement {
	return Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", g.QuoteIdentifier(table), g.QuoteIdentifier(column)),
		Reversible: false,
	}
}

// RenameColumn uses ALTER TABLE ... RENAME COLUMN, which needs only the old
// and new names; the reverse renames back.
func (g mysqlGenerator) RenameColumn(table, from, to string) Statement {
	return Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", g.QuoteIdentifier(table), g.QuoteIdentifier(from), g.QuoteIdentifier(to)),
		Reversible: true,
		ReverseSQL: fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", g.QuoteIdentifier(table), g.QuoteIdentifier(to), g.QuoteIdentifier(from)),
	}
}

// AlterColumn emits a RENAME COLUMN first when the name changes, then a
// single MODIFY COLUMN restating the full target definition, mysql's only
// way to change type/nullability/default at once.
func (g mysqlGenerator) AlterColumn(table string, from, to schema.Column) []Statement {
	var stmts []Statement
	if from.Name != to.Name {
		stmts = append(stmts, g.RenameColumn(table, from.Name, to.Name))
	}
	if from.Type.Equal(to.Type) && from.Nullable == to.Nullable && from.Default.ToSQL() == to.Default.ToSQL() {
		if len(stmts) > 0 {
			return stmts
		}
		return []Statement{noop(fmt.Sprintf("alter_column %s.%s: no detected change", table, to.Name))}
	}
	fromCopy := from
	fromCopy.Name = to.Name
	return append(stmts, Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s", g.QuoteIdentifier(table), g.columnClause(to)),
		Reversible: true,
		ReverseSQL: fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s", g.QuoteIdentifier(table), g.columnClause(fromCopy)),
	})
}

func (g mysqlGenerator) CreateIndex(table string, idx schema.Index) Statement {
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
	sql := fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)", unique, g.QuoteIdentifier(idx.Name), g.QuoteIdentifier(table), strings.Join(cols, ", "))
	return Statement{
		SQL:        sql,
		Reversible: true,
		ReverseSQL: fmt.Sprintf("ALTER TABLE %s DROP INDEX %s", g.QuoteIdentifier(table), g.QuoteIdentifier(idx.Name)),
	}
}

func (g mysqlGenerator) DropIndex(table, name string) Statement {
	return Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s DROP INDEX %s", g.QuoteIdentifier(table), g.QuoteIdentifier(name)),
		Reversible: false,
	}
}

func (g mysqlGenerator) AddConstraint(table string, c schema.Constraint) Statement {
	return Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s", g.QuoteIdentifier(table), g.QuoteIdentifier(c.Name), c.SQL),
		Reversible: true,
		ReverseSQL: fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", g.QuoteIdentifier(table), g.QuoteIdentifier(c.Name)),
	}
}

func (g mysqlGenerator) DropConstraint(table, name string) Statement {
	return Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", g.QuoteIdentifier(table), g.QuoteIdentifier(name)),
		Reversible: false,
	}
}

func (g mysqlGenerator) AddForeignKey(table string, fk schema.ForeignKey) Statement {
	return Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s ADD %s", g.QuoteIdentifier(table), g.foreignKeyClause(table, fk)),
		Reversible: true,
		ReverseSQL: fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s", g.QuoteIdentifier(table), g.QuoteIdentifier(fk.EffectiveName(table))),
	}
}

func (g mysqlGenerator) DropForeignKey(table, name string) Statement {
	return Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s", g.QuoteIdentifier(table), g.QuoteIdentifier(name)),
		Reversible: false,
	}
}

var _ Generator = mysqlGenerator{}
