package differ

import (
	"strings"
	"testing"

	"github.com/onyx-go/dbkit/internal/ddl"
	"github.com/onyx-go/dbkit/internal/schema"
)

func mustTable(t *testing.T, b *schema.TableBuilder) schema.Table {
	t.Helper()
	tbl, err := b.Build()
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	return tbl
}

func TestDiffSelfIsEmpty(t *testing.T) {
	s := schema.New("")
	users := mustTable(t, schema.NewTable("users").ID().Table().String("email").NotNull().Table())
	if err := s.AddTable(users); err != nil {
		t.Fatal(err)
	}
	d := Diff(s, s, Options{})
	if !d.Empty() {
		t.Errorf("diff(S, S) should be empty, got %+v", d)
	}
}

func TestDiffFromEmptyCreatesEveryTable(t *testing.T) {
	to := schema.New("")
	users := mustTable(t, schema.NewTable("users").ID().Table())
	posts := mustTable(t, schema.NewTable("posts").ID().Table())
	must(t, to.AddTable(users))
	must(t, to.AddTable(posts))

	d := Diff(schema.New(""), to, Options{})
	if len(d.TablesToCreate) != 2 {
		t.Fatalf("expected 2 creates, got %d", len(d.TablesToCreate))
	}
	if len(d.TablesToDrop) != 0 || len(d.TableModifications) != 0 {
		t.Errorf("expected no drops/modifications, got %+v", d)
	}
}

func TestDiffToEmptyDropsEveryTable(t *testing.T) {
	from := schema.New("")
	users := mustTable(t, schema.NewTable("users").ID().Table())
	must(t, from.AddTable(users))

	d := Diff(from, schema.New(""), Options{})
	if len(d.TablesToDrop) != 1 {
		t.Fatalf("expected 1 drop, got %d", len(d.TablesToDrop))
	}
	if len(d.TablesToCreate) != 0 || len(d.TableModifications) != 0 {
		t.Errorf("expected no creates/modifications, got %+v", d)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

// TestDDLOrdering pins the six-step ordering contract of §4.C: every
// DropForeignKey precedes every DropTable, and every AddForeignKey follows
// every CreateTable/AddColumn it could depend on.
func TestDDLOrdering(t *testing.T) {
	from := schema.New("")
	orders := mustTable(t, schema.NewTable("orders").ID().Table().
		Int("old_user_id").NotNull().Table())
	orders.ForeignKeys = []schema.ForeignKey{{
		Name: "fk_orders_user", Columns: []string{"old_user_id"},
		ReferencedTable: "old_users", ReferencedColumns: []string{"id"},
	}}
	oldUsers := mustTable(t, schema.NewTable("old_users").ID().Table())
	must(t, from.AddTable(orders))
	must(t, from.AddTable(oldUsers))

	to := schema.New("")
	newOrders := mustTable(t, schema.NewTable("orders").ID().Table())
	newUsers := mustTable(t, schema.NewTable("new_users").ID().Table())
	newUsers.ForeignKeys = nil
	must(t, to.AddTable(newOrders))
	must(t, to.AddTable(newUsers))

	// Build a diff by hand that exercises all six ordering phases at once:
	// drop a table (old_users), create a table (new_users) with a FK into
	// it from a modified table (orders), and modify orders (drop its old
	// FK, add a column, add a FK to the new table).
	newUsersWithComment := newUsers
	d := SchemaDiff{
		TablesToDrop: []schema.Table{oldUsers},
		TablesToCreate: []schema.Table{func() schema.Table {
			tb := newUsersWithComment
			tb.ForeignKeys = []schema.ForeignKey{{
				Name: "fk_new_users_parent", Columns: []string{"id"},
				ReferencedTable: "orders", ReferencedColumns: []string{"id"},
			}}
			return tb
		}()},
		TableModifications: []TableDiff{{
			Table:             "orders",
			ForeignKeysToDrop: []string{"fk_orders_user"},
			ColumnsToAdd:      []schema.Column{{Name: "new_user_id", Type: schema.Int(), Nullable: true}},
			ForeignKeysToAdd: []schema.ForeignKey{{
				Name: "fk_orders_new_user", Columns: []string{"new_user_id"},
				ReferencedTable: "new_users", ReferencedColumns: []string{"id"},
			}},
		}},
	}

	g := ddl.New("postgres")
	stmts := d.ToDDL(g)

	idxOf := func(pred func(ddl.Statement) bool) int {
		for i, s := range stmts {
			if pred(s) {
				return i
			}
		}
		return -1
	}
	contains := func(s ddl.Statement, sub string) bool { return strings.Contains(s.SQL, sub) }

	dropFK := idxOf(func(s ddl.Statement) bool { return contains(s, "DROP CONSTRAINT") && contains(s, "orders") })
	dropTable := idxOf(func(s ddl.Statement) bool { return contains(s, "DROP TABLE") })
	createOrdersCol := idxOf(func(s ddl.Statement) bool { return contains(s, "ADD COLUMN") })
	createNewUsers := idxOf(func(s ddl.Statement) bool { return contains(s, `CREATE TABLE "new_users"`) })
	addFKOnOrders := idxOf(func(s ddl.Statement) bool {
		return contains(s, "ADD CONSTRAINT") && contains(s, `"orders"`) && contains(s, "fk_orders_new_user")
	})
	addFKOnNewUsers := idxOf(func(s ddl.Statement) bool {
		return contains(s, "ADD CONSTRAINT") && contains(s, `"new_users"`) && contains(s, "fk_new_users_parent")
	})

	for name, i := range map[string]int{
		"dropFK": dropFK, "dropTable": dropTable, "createOrdersCol": createOrdersCol,
		"createNewUsers": createNewUsers, "addFKOnOrders": addFKOnOrders, "addFKOnNewUsers": addFKOnNewUsers,
	} {
		if i < 0 {
			t.Fatalf("expected to find statement for %s, stmts: %+v", name, stmts)
		}
	}

	if dropFK > dropTable {
		t.Errorf("DropForeignKey (%d) must precede DropTable (%d)", dropFK, dropTable)
	}
	if addFKOnOrders < createOrdersCol {
		t.Errorf("AddForeignKey on orders (%d) must follow AddColumn (%d)", addFKOnOrders, createOrdersCol)
	}
	if addFKOnNewUsers < createNewUsers {
		t.Errorf("AddForeignKey on new_users (%d) must follow CreateTable (%d)", addFKOnNewUsers, createNewUsers)
	}
	if addFKOnNewUsers < addFKOnOrders {
		t.Errorf("FKs on newly created tables (%d) must come after FKs on modified tables (%d)", addFKOnNewUsers, addFKOnOrders)
	}
}
