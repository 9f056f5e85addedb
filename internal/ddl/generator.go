// Package ddl implements the dialect-parameterized DDL generator: given a
// schema.Table/Column/Index/ForeignKey, it emits the ordered SQL statements
// needed to create, alter, or drop them, quoted and typed for one of
// postgres, mysql, or sqlite.
package ddl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/onyx-go/dbkit/internal/schema"
)

// Statement is one emitted DDL statement.
type Statement struct {
	SQL         string
	Reversible  bool
	ReverseSQL  string
	Description string
}

// noop returns the sentinel "safe no-op" statement used when a dialect
// does not support an operation: SQL begins with "--" so execution is
// harmless, and Reversible is false.
func noop(description string) Statement {
	return Statement{
		SQL:         "-- noop: " + description,
		Reversible:  false,
		Description: description,
	}
}

// Capabilities are the per-dialect feature flags referenced by callers
// that need to detect and refuse unsupported operations.
type Capabilities struct {
	SupportsReturning       bool
	SupportsILike           bool
	SupportsAlterColumn     bool
	SupportsAddFKAfterCreate bool
	SupportsExclusion       bool
}

// Generator is the dialect-parameterized contract of component 4.B.
type Generator interface {
	Dialect() string
	Capabilities() Capabilities
	QuoteIdentifier(name string) string

	CreateTable(t schema.Table) Statement
	DropTable(name string, cascade bool) Statement
	RenameTable(from, to string) Statement

	AddColumn(table string, col schema.Column) Statement
	DropColumn(table, column string) Statement
	RenameColumn(table, from, to string) Statement
	AlterColumn(table string, from, to schema.Column) []Statement

	CreateIndex(table string, idx schema.Index) Statement
	DropIndex(table, name string) Statement

	AddConstraint(table string, c schema.Constraint) Statement
	DropConstraint(table, name string) Statement

	AddForeignKey(table string, fk schema.ForeignKey) Statement
	DropForeignKey(table, name string) Statement
}

// New returns the Generator for the named dialect ("postgres", "mysql",
// "sqlite"), defaulting to postgres for an unrecognized name.
func New(dialect string) Generator {
	switch dialect {
	case "mysql":
		return &mysqlGenerator{}
	case "sqlite", "sqlite3":
		return &sqliteGenerator{}
	default:
		return &postgresGenerator{}
	}
}

// doubleQuote wraps name in the given quote character, doubling any
// embedded occurrence of it — the shared quoting rule for postgres,
// sqlite ('"') and mysql ('`').
func doubleQuote(name string, quote byte) string {
	q := string(quote)
	return q + strings.ReplaceAll(name, q, q+q) + q
}

var dollarPlaceholder = regexp.MustCompile(`\$(\d+)`)

// RewritePlaceholders rewrites postgres-style $<digits> positional
// placeholders to mysql-style "?" and ILIKE to LIKE, for raw SQL authored
// against one dialect but applied under another. An isolated "$" with no
// following digits is left as a literal (Open Question 1).
func RewritePlaceholders(sql string) string {
	out := dollarPlaceholder.ReplaceAllString(sql, "?")
	out = caseInsensitiveReplace(out, "ILIKE", "LIKE")
	return out
}

func caseInsensitiveReplace(s, old, new string) string {
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(old))
	return re.ReplaceAllString(s, new)
}

// primaryKeyClause renders "PRIMARY KEY (col1, col2)" for the given
// already-quoted column names, or "" if there are none.
func primaryKeyClause(quoted []string) string {
	if len(quoted) == 0 {
		return ""
	}
	return fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(quoted, ", "))
}

func quoteAll(g Generator, names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = g.QuoteIdentifier(n)
	}
	return out
}
