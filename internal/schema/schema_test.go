package schema

import "testing"

func TestBuilderProducesValidTable(t *testing.T) {
	tbl, err := NewTable("users").
		ID().Table().
		String("name").NotNull().Table().
		String("email").NotNull().Unique().Table().
		Timestamps().
		Build()
	if err != nil {
		t.Fatalf("unexpected error building table: %v", err)
	}

	if tbl.Name != "users" {
		t.Errorf("expected table name 'users', got %q", tbl.Name)
	}

	if len(tbl.Columns) != 5 {
		t.Errorf("expected 5 columns (id,name,email,created_at,updated_at), got %d", len(tbl.Columns))
	}

	if _, ok := tbl.Column("email"); !ok {
		t.Errorf("expected column 'email' to exist")
	}

	if len(tbl.PrimaryKey) != 1 || tbl.PrimaryKey[0] != "id" {
		t.Errorf("expected primary key [id], got %v", tbl.PrimaryKey)
	}

	if len(tbl.Indexes) != 1 {
		t.Errorf("expected 1 unique index from email.Unique(), got %d", len(tbl.Indexes))
	}
}

func TestColumnTypeEqual(t *testing.T) {
	cases := []struct {
		name  string
		a, b  ColumnType
		equal bool
	}{
		{"same varchar length", Varchar(255), Varchar(255), true},
		{"different varchar length", Varchar(255), Varchar(100), false},
		{"same decimal", DecimalType(10, 2), DecimalType(10, 2), true},
		{"different decimal scale", DecimalType(10, 2), DecimalType(10, 4), false},
		{"array of same inner", ArrayOf(Int()), ArrayOf(Int()), true},
		{"array of different inner", ArrayOf(Int()), ArrayOf(Text()), false},
		{"custom same name", Custom("citext"), Custom("citext"), true},
		{"different kind", Int(), BigInt(), false},
	}

	for _, tc := range cases {
		if got := tc.a.Equal(tc.b); got != tc.equal {
			t.Errorf("%s: Equal() = %v, want %v", tc.name, got, tc.equal)
		}
	}
}

func TestColumnDefaultToSQL(t *testing.T) {
	cases := []struct {
		name string
		d    ColumnDefault
		want string
	}{
		{"bool true", DefaultBoolValue(true), "TRUE"},
		{"bool false", DefaultBoolValue(false), "FALSE"},
		{"string with quote", DefaultStringValue("o'brien"), "'o''brien'"},
		{"current timestamp", DefaultCurrentTimestampValue(), "CURRENT_TIMESTAMP"},
		{"generate uuid", DefaultGenerateUUIDValue(), "gen_random_uuid()"},
	}

	for _, tc := range cases {
		if got := tc.d.ToSQL(); got != tc.want {
			t.Errorf("%s: ToSQL() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSyntheticForeignKeyName(t *testing.T) {
	got := SyntheticForeignKeyName("orders", []string{"customer_id", "region_id"})
	want := "fk_orders_customer_id_region_id"
	if got != want {
		t.Errorf("SyntheticForeignKeyName() = %q, want %q", got, want)
	}
}

func TestSchemaUniqueTableNames(t *testing.T) {
	s := New("public")
	tbl, _ := NewTable("users").ID().Table().Build()

	if err := s.AddTable(tbl); err != nil {
		t.Fatalf("unexpected error on first add: %v", err)
	}

	if err := s.AddTable(tbl); err == nil {
		t.Errorf("expected error adding duplicate table name, got nil")
	}
}

func TestTableValidateRejectsUnknownColumnReference(t *testing.T) {
	tbl := Table{
		Name:    "orders",
		Columns: []Column{{Name: "id", Type: BigInt()}},
		PrimaryKey: []string{"nonexistent"},
	}
	if err := tbl.Validate(); err == nil {
		t.Errorf("expected validation error for unknown primary key column")
	}
}
