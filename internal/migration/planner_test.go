package migration

import (
	"testing"

	"github.com/onyx-go/dbkit/internal/logging"
)

func migWithDeps(id string, deps ...string) Migration {
	m := Migration{ID: id, Name: id, Dependencies: deps, Reversible: true}
	m.Stamp()
	return m
}

func TestPlanUpTopologicalOrder(t *testing.T) {
	a := migWithDeps("20260101_0001")
	b := migWithDeps("20260101_0002", "20260101_0001")
	c := migWithDeps("20260101_0003", "20260101_0002")
	p := NewPlanner([]Migration{c, a, b}, logging.NewNullLogger())

	plan, err := p.PlanUp(nil, "")
	if err != nil {
		t.Fatalf("PlanUp: %v", err)
	}
	if len(plan) != 3 {
		t.Fatalf("expected 3 planned migrations, got %d", len(plan))
	}
	order := []string{plan[0].Migration.ID, plan[1].Migration.ID, plan[2].Migration.ID}
	want := []string{"20260101_0001", "20260101_0002", "20260101_0003"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("wrong order: got %v, want %v", order, want)
		}
	}
}

func TestPlanUpSkipsAlreadyApplied(t *testing.T) {
	a := migWithDeps("20260101_0001")
	b := migWithDeps("20260101_0002", "20260101_0001")
	p := NewPlanner([]Migration{a, b}, logging.NewNullLogger())

	history := []Record{{ID: "20260101_0001", Status: StatusApplied}}
	plan, err := p.PlanUp(history, "")
	if err != nil {
		t.Fatalf("PlanUp: %v", err)
	}
	if len(plan) != 1 || plan[0].Migration.ID != "20260101_0002" {
		t.Fatalf("expected only 20260101_0002 pending, got %+v", plan)
	}
}

func TestPlanUpDetectsCycle(t *testing.T) {
	a := migWithDeps("20260101_0001", "20260101_0002")
	b := migWithDeps("20260101_0002", "20260101_0001")
	p := NewPlanner([]Migration{a, b}, logging.NewNullLogger())

	_, err := p.PlanUp(nil, "")
	if err == nil {
		t.Fatal("expected cycle error, got nil")
	}
}

func TestPlanUpTruncatesAtTarget(t *testing.T) {
	a := migWithDeps("20260101_0001")
	b := migWithDeps("20260101_0002", "20260101_0001")
	c := migWithDeps("20260101_0003", "20260101_0002")
	p := NewPlanner([]Migration{a, b, c}, logging.NewNullLogger())

	plan, err := p.PlanUp(nil, "20260101_0002")
	if err != nil {
		t.Fatalf("PlanUp: %v", err)
	}
	if len(plan) != 2 {
		t.Fatalf("expected plan truncated at target (2 entries), got %d", len(plan))
	}
}

func TestPlanDownRejectsNonReversible(t *testing.T) {
	m := Migration{ID: "20260101_0001", Name: "irreversible", Reversible: false}
	m.Stamp()
	p := NewPlanner([]Migration{m}, logging.NewNullLogger())

	history := []Record{{ID: m.ID, Status: StatusApplied}}
	_, err := p.PlanDown(history, 1)
	if err == nil {
		t.Fatal("expected error for non-reversible rollback, got nil")
	}
}

func TestChecksumIsDeterministic(t *testing.T) {
	op := DropColumnOp("users", "email")
	a := Migration{ID: "20260101_0001", Operations: []Operation{op}}
	b := Migration{ID: "20260101_0001", Operations: []Operation{op}}
	a.Stamp()
	b.Stamp()
	if a.Checksum != b.Checksum {
		t.Fatalf("expected identical checksums for identical payloads, got %s vs %s", a.Checksum, b.Checksum)
	}

	c := Migration{ID: "20260101_0001", Operations: []Operation{DropColumnOp("users", "name")}}
	c.Stamp()
	if a.Checksum == c.Checksum {
		t.Fatalf("expected different checksums for different operations")
	}
}

func TestValidatorWarnsOnMissingDependencyWithoutErroring(t *testing.T) {
	a := migWithDeps("20260101_0001", "does_not_exist")
	p := NewPlanner([]Migration{a}, logging.NewNullLogger())
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate should not error on a missing (non-cyclic) dependency: %v", err)
	}
}
