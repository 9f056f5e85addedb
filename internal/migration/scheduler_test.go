package migration

import (
	"context"
	"testing"
	"time"
)

func TestScheduledRunnerAppliesPendingOnTick(t *testing.T) {
	history := NewMemoryHistory()
	sql := newFakeSQL()
	exec := newTestExecutor(sql, history, true)

	m := addEmailColumnMigration("20260101_0001")
	planner := NewPlanner([]Migration{m}, nil)

	runner, err := NewScheduledRunner("@every 20ms", planner, exec, history)
	if err != nil {
		t.Fatalf("NewScheduledRunner: %v", err)
	}
	runner.Start()
	defer runner.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		applied, _ := history.IsApplied(context.Background(), m.ID)
		if applied {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected scheduled runner to apply pending migration within deadline")
}
