package ddl

import (
	"strings"
	"testing"

	"github.com/onyx-go/dbkit/internal/schema"
)

func buildUsersTable(t *testing.T) schema.Table {
	t.Helper()
	tbl, err := schema.NewTable("users").
		ID().Table().
		String("email").NotNull().Table().
		Boolean("active").NotNull().Default(schema.DefaultBoolValue(true)).Table().
		Build()
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	return tbl
}

func TestPostgresCreateTableUsesNativeTypes(t *testing.T) {
	g := New("postgres")
	tbl := buildUsersTable(t)
	stmt := g.CreateTable(tbl)

	if !strings.Contains(stmt.SQL, "BIGSERIAL") {
		t.Errorf("expected BIGSERIAL in postgres create table, got: %s", stmt.SQL)
	}
	if !stmt.Reversible || !strings.Contains(stmt.ReverseSQL, "DROP TABLE") {
		t.Errorf("expected reversible DROP TABLE, got: %+v", stmt)
	}
}

func TestMysqlCreateTableCollapsesTypes(t *testing.T) {
	g := New("mysql")
	tbl := buildUsersTable(t)
	stmt := g.CreateTable(tbl)

	if !strings.Contains(stmt.SQL, "BIGINT") || !strings.Contains(stmt.SQL, "AUTO_INCREMENT") {
		t.Errorf("expected BIGINT ... AUTO_INCREMENT for serial id, got: %s", stmt.SQL)
	}
	if !strings.Contains(stmt.SQL, "TINYINT(1)") {
		t.Errorf("expected boolean collapsed to TINYINT(1), got: %s", stmt.SQL)
	}
}

func TestSqliteCreateTableInlinesAutoincrementPK(t *testing.T) {
	g := New("sqlite")
	tbl := buildUsersTable(t)
	stmt := g.CreateTable(tbl)

	if !strings.Contains(stmt.SQL, "INTEGER PRIMARY KEY AUTOINCREMENT") {
		t.Errorf("expected inlined INTEGER PRIMARY KEY AUTOINCREMENT, got: %s", stmt.SQL)
	}
	if strings.Count(stmt.SQL, "PRIMARY KEY") != 1 {
		t.Errorf("expected exactly one PRIMARY KEY clause, got: %s", stmt.SQL)
	}
}

func TestSqliteAlterColumnIsNoop(t *testing.T) {
	g := New("sqlite")
	from := schema.Column{Name: "age", Type: schema.Int()}
	to := schema.Column{Name: "age", Type: schema.BigInt()}
	stmts := g.AlterColumn("users", from, to)

	if len(stmts) != 1 || stmts[0].Reversible {
		t.Errorf("expected a single irreversible noop, got: %+v", stmts)
	}
	if !strings.HasPrefix(stmts[0].SQL, "--") {
		t.Errorf("expected noop statement to be a comment, got: %s", stmts[0].SQL)
	}
}

func TestPostgresAlterColumnTypeChange(t *testing.T) {
	g := New("postgres")
	from := schema.Column{Name: "age", Type: schema.Int(), Nullable: false}
	to := schema.Column{Name: "age", Type: schema.BigInt(), Nullable: false}
	stmts := g.AlterColumn("users", from, to)

	if len(stmts) != 1 {
		t.Fatalf("expected exactly one statement for a type-only change, got %d", len(stmts))
	}
	if !strings.Contains(stmts[0].SQL, "TYPE BIGINT") {
		t.Errorf("expected TYPE BIGINT in alter, got: %s", stmts[0].SQL)
	}
	if !stmts[0].Reversible || !strings.Contains(stmts[0].ReverseSQL, "TYPE INTEGER") {
		t.Errorf("expected reversible ALTER back to INTEGER, got: %+v", stmts[0])
	}
}

func TestDropIndexRequiresTableOnMysqlOnly(t *testing.T) {
	pg := New("postgres").DropIndex("users", "idx_users_email")
	if strings.Contains(pg.SQL, `"users"`) {
		t.Errorf("postgres DROP INDEX should not reference the table, got: %s", pg.SQL)
	}

	my := New("mysql").DropIndex("users", "idx_users_email")
	if !strings.Contains(my.SQL, "users") {
		t.Errorf("mysql DROP INDEX must reference the table, got: %s", my.SQL)
	}
}

func TestRewritePlaceholders(t *testing.T) {
	got := RewritePlaceholders("SELECT * FROM t WHERE name ILIKE $1 AND id = $2")
	want := "SELECT * FROM t WHERE name LIKE ? AND id = ?"
	if got != want {
		t.Errorf("RewritePlaceholders() = %q, want %q", got, want)
	}

	literal := RewritePlaceholders("price = $ 5")
	if literal != "price = $ 5" {
		t.Errorf("isolated $ should be left as a literal, got %q", literal)
	}
}

func TestCapabilitiesDivergeByDialect(t *testing.T) {
	if !New("postgres").Capabilities().SupportsReturning {
		t.Errorf("postgres should support RETURNING")
	}
	if New("mysql").Capabilities().SupportsReturning {
		t.Errorf("mysql should not support RETURNING")
	}
	if New("sqlite").Capabilities().SupportsAlterColumn {
		t.Errorf("sqlite should not support ALTER COLUMN")
	}
}
