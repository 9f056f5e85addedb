package migration

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/onyx-go/dbkit/internal/schema"
)

func sampleMigration(id, name string) Migration {
	col := schema.Column{Name: "email", Type: schema.Varchar(255), Nullable: false}
	m := Migration{
		ID:        id,
		Name:      name,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Operations: []Operation{
			AddColumnOp("users", col),
		},
	}
	m.Stamp()
	return m
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	m := sampleMigration("20260101_000000", "add_users_email")
	if err := s.Save(m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := filepath.Join(dir, "20260101_000000_add_users_email.toml")
	loaded, err := s.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ID != m.ID || loaded.Name != m.Name {
		t.Fatalf("round trip mismatch: got %+v", loaded)
	}
	if !loaded.VerifyChecksum() {
		t.Fatalf("checksum did not verify after round trip")
	}
}

func TestStoreLoadAllSortsByIDAndSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	if err := s.Save(sampleMigration("20260102_000000", "second")); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(sampleMigration("20260101_000000", "first")); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(sampleMigration("20260103_000000", "third")); err != nil {
		t.Fatal(err)
	}

	all, err := s.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Fatalf("expected ascending ID order, got %s before %s", all[i-1].ID, all[i].ID)
		}
	}
}

func TestValidID(t *testing.T) {
	cases := map[string]bool{
		"20260101_000000": true,
		"20260101_0001":   true,
		"not_an_id":       false,
		"202601_01000":    false,
	}
	for id, want := range cases {
		if got := ValidID(id); got != want {
			t.Errorf("ValidID(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestNewTimestampIDFormat(t *testing.T) {
	id := NewTimestampID(time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC))
	if id != "20260304_050607" {
		t.Fatalf("unexpected timestamp id: %s", id)
	}
	if !ValidID(id) {
		t.Fatalf("generated id %q did not pass ValidID", id)
	}
}
