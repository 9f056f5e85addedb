package migration

import (
	"fmt"
	"sort"

	"github.com/onyx-go/dbkit/internal/errors"
	"github.com/onyx-go/dbkit/internal/logging"
)

// Plan is the ordered sequence of migrations and directions the executor
// will apply.
type Plan []PlannedMigration

// Planner holds the full set of known migrations and their declared
// dependencies, and produces Plans against a given application history
// (§4.G).
type Planner struct {
	migrations map[string]Migration
	order      []string // insertion order, for stable iteration when IDs tie
	logger     logging.Logger
}

// NewPlanner builds a Planner from the full migration set, typically the
// result of Store.LoadAll.
func NewPlanner(migrations []Migration, logger logging.Logger) *Planner {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	p := &Planner{migrations: make(map[string]Migration, len(migrations)), logger: logger}
	for _, m := range migrations {
		p.migrations[m.ID] = m
		p.order = append(p.order, m.ID)
	}
	return p
}

// appliedSet extracts the set of applied migration IDs from history
// records, per §3's MigrationRecord.
func appliedSet(history []Record) map[string]bool {
	applied := make(map[string]bool, len(history))
	for _, r := range history {
		if r.Status == StatusApplied {
			applied[r.ID] = true
		}
	}
	return applied
}

// PlanUp computes the up-plan per §4.G: pending = all \ applied,
// topologically sorted over the induced subgraph, external dependencies
// ignored, optionally truncated to and including target.
func (p *Planner) PlanUp(history []Record, target string) (Plan, error) {
	applied := appliedSet(history)

	var pending []string
	for _, id := range sortedIDs(p.migrations) {
		if !applied[id] {
			pending = append(pending, id)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	ordered, err := p.topoSort(pending)
	if err != nil {
		return nil, err
	}

	if target != "" {
		truncated := make([]string, 0, len(ordered))
		for _, id := range ordered {
			truncated = append(truncated, id)
			if id == target {
				break
			}
		}
		ordered = truncated
	}

	plan := make(Plan, len(ordered))
	for i, id := range ordered {
		plan[i] = PlannedMigration{Migration: p.migrations[id], Direction: Up}
	}
	return plan, nil
}

// topoSort runs Kahn's algorithm over the subgraph induced by nodes,
// considering only dependency edges whose target is also in nodes
// (external/already-applied dependencies are ignored per §4.G). Ties are
// broken by ID to keep the output deterministic.
func (p *Planner) topoSort(nodes []string) ([]string, error) {
	nodeSet := make(map[string]bool, len(nodes))
	for _, id := range nodes {
		nodeSet[id] = true
	}

	inDegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes))
	for _, id := range nodes {
		inDegree[id] = 0
	}
	for _, id := range nodes {
		for _, dep := range p.migrations[id].Dependencies {
			if !nodeSet[dep] {
				continue // external/already-applied dependency, ignored
			}
			inDegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var ready []string
	for _, id := range nodes {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	var out []string
	for len(ready) > 0 {
		sort.Strings(ready)
		id := ready[0]
		ready = ready[1:]
		out = append(out, id)

		next := append([]string(nil), dependents[id]...)
		sort.Strings(next)
		for _, dep := range next {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(out) != len(nodes) {
		return nil, errors.ErrCycle
	}
	return out, nil
}

func sortedIDs(m map[string]Migration) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PlanDown takes the last count applied records in reverse-applied-at
// order and produces a down-plan, per §4.G. It rejects the whole plan if
// any selected migration is non-reversible.
func (p *Planner) PlanDown(history []Record, count int) (Plan, error) {
	applied := make([]Record, 0, len(history))
	for _, r := range history {
		if r.Status == StatusApplied {
			applied = append(applied, r)
		}
	}
	sort.Slice(applied, func(i, j int) bool { return applied[i].AppliedAt.After(applied[j].AppliedAt) })

	if count > len(applied) {
		count = len(applied)
	}
	selected := applied[:count]

	plan := make(Plan, 0, len(selected))
	for _, r := range selected {
		m, ok := p.migrations[r.ID]
		if !ok {
			return nil, fmt.Errorf("migration: planned rollback of %s not found in file set", r.ID)
		}
		if !m.Reversible {
			return nil, fmt.Errorf("migration: %w: %s is not reversible", errors.ErrNotReversible, m.ID)
		}
		plan = append(plan, PlannedMigration{Migration: m, Direction: Down})
	}
	return plan, nil
}

// PlanTo produces either a down-plan (if target is already applied,
// reversing everything applied after it) or an up-plan (otherwise, up to
// target), per §4.G.
func (p *Planner) PlanTo(history []Record, target string) (Plan, error) {
	applied := appliedSet(history)
	if applied[target] {
		targetRecord, ok := findRecord(history, target)
		if !ok {
			return nil, fmt.Errorf("migration: target %s not found in history", target)
		}
		sorted := make([]Record, 0, len(history))
		for _, r := range history {
			if r.Status == StatusApplied && r.AppliedAt.After(targetRecord.AppliedAt) {
				sorted = append(sorted, r)
			}
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].AppliedAt.After(sorted[j].AppliedAt) })
		plan := make(Plan, 0, len(sorted))
		for _, r := range sorted {
			m, ok := p.migrations[r.ID]
			if !ok {
				return nil, fmt.Errorf("migration: planned rollback of %s not found in file set", r.ID)
			}
			if !m.Reversible {
				return nil, fmt.Errorf("migration: %w: %s is not reversible", errors.ErrNotReversible, m.ID)
			}
			plan = append(plan, PlannedMigration{Migration: m, Direction: Down})
		}
		return plan, nil
	}
	return p.PlanUp(history, target)
}

func findRecord(history []Record, id string) (Record, bool) {
	for _, r := range history {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// Validate runs a full topological sort over every known migration,
// logging a warning for each declared-but-missing dependency and erroring
// on cycles, per §4.G.
func (p *Planner) Validate() error {
	all := sortedIDs(p.migrations)
	allSet := make(map[string]bool, len(all))
	for _, id := range all {
		allSet[id] = true
	}
	for _, id := range all {
		for _, dep := range p.migrations[id].Dependencies {
			if !allSet[dep] {
				p.logger.Warn("migration: declared dependency missing from file set", map[string]interface{}{
					"migration": id, "dependency": dep,
				})
			}
		}
	}
	_, err := p.topoSort(all)
	return err
}
