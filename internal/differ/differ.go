// Package differ implements the schema differ of §4.C: comparing two
// schema.Schema trees and emitting a structured diff plus an ordered DDL
// plan safe to apply (foreign keys dropped before tables, added only after
// their dependent creates).
package differ

import (
	"sort"

	"github.com/onyx-go/dbkit/internal/ddl"
	"github.com/onyx-go/dbkit/internal/schema"
)

// Options tune what the differ considers significant, per §4.C.
type Options struct {
	IgnoreColumnOrder bool
	IgnoreIndexNames  bool
	ExcludeTables     []string
}

// ColumnChange is a single add/drop/modify within a TableDiff.
type ColumnChange struct {
	Name string
	From schema.Column // zero value when Name is an add
	To   schema.Column // zero value when Name is a drop
}

// IndexChange, ConstraintChange and ForeignKeyChange mirror ColumnChange
// for their respective table members, keyed by name per §4.C.
type IndexChange struct {
	Name string
	From schema.Index
	To   schema.Index
}

type ConstraintChange struct {
	Name string
	From schema.Constraint
	To   schema.Constraint
}

type ForeignKeyChange struct {
	Name string
	From schema.ForeignKey
	To   schema.ForeignKey
}

// TableDiff captures every change detected for one table present in both
// schemas (or renamed from one present-in-from name to a present-in-to
// name).
type TableDiff struct {
	Table    string
	RenameTo string // non-empty if the table itself is being renamed

	ColumnsToAdd    []schema.Column
	ColumnsToDrop   []string
	ColumnsToModify []ColumnChange

	IndexesToAdd    []schema.Index
	IndexesToDrop   []string
	IndexesToModify []IndexChange

	ConstraintsToAdd    []schema.Constraint
	ConstraintsToDrop   []string
	ConstraintsToModify []ConstraintChange

	ForeignKeysToAdd    []schema.ForeignKey
	ForeignKeysToDrop   []string
	ForeignKeysToModify []ForeignKeyChange
}

// Empty reports whether this TableDiff carries no changes at all.
func (d TableDiff) Empty() bool {
	return d.RenameTo == "" &&
		len(d.ColumnsToAdd) == 0 && len(d.ColumnsToDrop) == 0 && len(d.ColumnsToModify) == 0 &&
		len(d.IndexesToAdd) == 0 && len(d.IndexesToDrop) == 0 && len(d.IndexesToModify) == 0 &&
		len(d.ConstraintsToAdd) == 0 && len(d.ConstraintsToDrop) == 0 && len(d.ConstraintsToModify) == 0 &&
		len(d.ForeignKeysToAdd) == 0 && len(d.ForeignKeysToDrop) == 0 && len(d.ForeignKeysToModify) == 0
}

// SchemaDiff is the structured result of Diff.
type SchemaDiff struct {
	TablesToCreate    []schema.Table
	TablesToDrop      []schema.Table
	TableModifications []TableDiff
}

// Empty reports whether the diff carries no changes.
func (d SchemaDiff) Empty() bool {
	if len(d.TablesToCreate) != 0 || len(d.TablesToDrop) != 0 {
		return false
	}
	for _, m := range d.TableModifications {
		if !m.Empty() {
			return false
		}
	}
	return true
}

func excludeSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// Diff compares from and to, producing the structured SchemaDiff per §4.C's
// comparison rules.
func Diff(from, to *schema.Schema, opts Options) SchemaDiff {
	excluded := excludeSet(opts.ExcludeTables)

	fromNames := filteredNames(from, excluded)
	toNames := filteredNames(to, excluded)

	fromSet := excludeSet(fromNames)
	toSet := excludeSet(toNames)

	var result SchemaDiff

	for _, name := range toNames {
		if !fromSet[name] {
			t, _ := to.Table(name)
			result.TablesToCreate = append(result.TablesToCreate, t)
		}
	}
	for _, name := range fromNames {
		if !toSet[name] {
			t, _ := from.Table(name)
			result.TablesToDrop = append(result.TablesToDrop, t)
		}
	}
	for _, name := range fromNames {
		if !toSet[name] {
			continue
		}
		oldTable, _ := from.Table(name)
		newTable, _ := to.Table(name)
		td := diffTable(oldTable, newTable, opts)
		if !td.Empty() {
			result.TableModifications = append(result.TableModifications, td)
		}
	}

	return result
}

func filteredNames(s *schema.Schema, excluded map[string]bool) []string {
	var out []string
	for _, n := range s.TableNames() {
		if !excluded[n] {
			out = append(out, n)
		}
	}
	return out
}

func diffTable(oldTable, newTable schema.Table, opts Options) TableDiff {
	td := TableDiff{Table: oldTable.Name}

	oldCols := make(map[string]schema.Column, len(oldTable.Columns))
	for _, c := range oldTable.Columns {
		oldCols[c.Name] = c
	}
	newCols := make(map[string]schema.Column, len(newTable.Columns))
	for _, c := range newTable.Columns {
		newCols[c.Name] = c
	}

	oldColNames := columnNames(oldTable.Columns)
	newColNames := columnNames(newTable.Columns)
	if !opts.IgnoreColumnOrder {
		sort.Strings(oldColNames)
		sort.Strings(newColNames)
	}

	for _, name := range newColNames {
		if _, ok := oldCols[name]; !ok {
			td.ColumnsToAdd = append(td.ColumnsToAdd, newCols[name])
		}
	}
	for _, name := range oldColNames {
		if _, ok := newCols[name]; !ok {
			td.ColumnsToDrop = append(td.ColumnsToDrop, name)
		}
	}
	for _, name := range oldColNames {
		nc, ok := newCols[name]
		if !ok {
			continue
		}
		oc := oldCols[name]
		if columnChanged(oc, nc) {
			td.ColumnsToModify = append(td.ColumnsToModify, ColumnChange{Name: name, From: oc, To: nc})
		}
	}

	diffIndexes(&td, oldTable.Indexes, newTable.Indexes, opts)
	diffConstraints(&td, oldTable.Constraints, newTable.Constraints)
	diffForeignKeys(&td, oldTable.Name, oldTable.ForeignKeys, newTable.ForeignKeys)

	return td
}

func columnNames(cols []schema.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

// columnChanged reports whether type, nullability, or default SQL string
// differs, per §4.C's column-modify rule.
func columnChanged(old, new schema.Column) bool {
	return !old.Type.Equal(new.Type) ||
		old.Nullable != new.Nullable ||
		old.Default.ToSQL() != new.Default.ToSQL()
}

func indexKey(ix schema.Index, ignoreNames bool) string {
	if ignoreNames || ix.Name == "" {
		key := ""
		for _, c := range ix.Columns {
			key += c.Column + ","
		}
		return key
	}
	return ix.Name
}

func diffIndexes(td *TableDiff, oldIdx, newIdx []schema.Index, opts Options) {
	oldByKey := make(map[string]schema.Index, len(oldIdx))
	for _, ix := range oldIdx {
		oldByKey[indexKey(ix, opts.IgnoreIndexNames)] = ix
	}
	newByKey := make(map[string]schema.Index, len(newIdx))
	for _, ix := range newIdx {
		newByKey[indexKey(ix, opts.IgnoreIndexNames)] = ix
	}

	newKeys := sortedKeysIndex(newIdx, opts.IgnoreIndexNames)
	oldKeys := sortedKeysIndex(oldIdx, opts.IgnoreIndexNames)

	for _, k := range newKeys {
		if _, ok := oldByKey[k]; !ok {
			td.IndexesToAdd = append(td.IndexesToAdd, newByKey[k])
		}
	}
	for _, k := range oldKeys {
		if old, ok := oldByKey[k]; ok {
			if _, stillPresent := newByKey[k]; !stillPresent {
				td.IndexesToDrop = append(td.IndexesToDrop, old.Name)
			}
		}
	}
	for _, k := range oldKeys {
		old, ok := oldByKey[k]
		nw, stillPresent := newByKey[k]
		if !ok || !stillPresent {
			continue
		}
		if !indexEqual(old, nw) {
			td.IndexesToModify = append(td.IndexesToModify, IndexChange{Name: old.Name, From: old, To: nw})
		}
	}
}

func sortedKeysIndex(idx []schema.Index, ignoreNames bool) []string {
	keys := make([]string, len(idx))
	for i, ix := range idx {
		keys[i] = indexKey(ix, ignoreNames)
	}
	sort.Strings(keys)
	return keys
}

func indexEqual(a, b schema.Index) bool {
	if a.Unique != b.Unique || a.AccessMethod != b.AccessMethod || a.Where != b.Where {
		return false
	}
	if len(a.Columns) != len(b.Columns) {
		return false
	}
	for i := range a.Columns {
		if a.Columns[i] != b.Columns[i] {
			return false
		}
	}
	return true
}

func diffConstraints(td *TableDiff, oldC, newC []schema.Constraint) {
	oldByName := make(map[string]schema.Constraint, len(oldC))
	for _, c := range oldC {
		oldByName[c.Name] = c
	}
	newByName := make(map[string]schema.Constraint, len(newC))
	for _, c := range newC {
		newByName[c.Name] = c
	}

	oldNames := constraintNames(oldC)
	newNames := constraintNames(newC)
	sort.Strings(oldNames)
	sort.Strings(newNames)

	for _, n := range newNames {
		if _, ok := oldByName[n]; !ok {
			td.ConstraintsToAdd = append(td.ConstraintsToAdd, newByName[n])
		}
	}
	for _, n := range oldNames {
		if _, ok := newByName[n]; !ok {
			td.ConstraintsToDrop = append(td.ConstraintsToDrop, n)
		}
	}
	for _, n := range oldNames {
		old, ok := oldByName[n]
		nw, stillPresent := newByName[n]
		if !ok || !stillPresent {
			continue
		}
		if old.SQL != nw.SQL {
			td.ConstraintsToModify = append(td.ConstraintsToModify, ConstraintChange{Name: n, From: old, To: nw})
		}
	}
}

func constraintNames(cs []schema.Constraint) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func diffForeignKeys(td *TableDiff, table string, oldFKs, newFKs []schema.ForeignKey) {
	oldByName := make(map[string]schema.ForeignKey, len(oldFKs))
	for _, fk := range oldFKs {
		oldByName[fk.EffectiveName(table)] = fk
	}
	newByName := make(map[string]schema.ForeignKey, len(newFKs))
	for _, fk := range newFKs {
		newByName[fk.EffectiveName(table)] = fk
	}

	oldNames := fkNames(oldFKs, table)
	newNames := fkNames(newFKs, table)
	sort.Strings(oldNames)
	sort.Strings(newNames)

	for _, n := range newNames {
		if _, ok := oldByName[n]; !ok {
			td.ForeignKeysToAdd = append(td.ForeignKeysToAdd, newByName[n])
		}
	}
	for _, n := range oldNames {
		if _, ok := newByName[n]; !ok {
			td.ForeignKeysToDrop = append(td.ForeignKeysToDrop, n)
		}
	}
	for _, n := range oldNames {
		old, ok := oldByName[n]
		nw, stillPresent := newByName[n]
		if !ok || !stillPresent {
			continue
		}
		if !fkEqual(old, nw) {
			td.ForeignKeysToModify = append(td.ForeignKeysToModify, ForeignKeyChange{Name: n, From: old, To: nw})
		}
	}
}

func fkNames(fks []schema.ForeignKey, table string) []string {
	out := make([]string, len(fks))
	for i, fk := range fks {
		out[i] = fk.EffectiveName(table)
	}
	return out
}

func fkEqual(a, b schema.ForeignKey) bool {
	if a.ReferencedTable != b.ReferencedTable || a.OnDelete != b.OnDelete || a.OnUpdate != b.OnUpdate {
		return false
	}
	if len(a.Columns) != len(b.Columns) || len(a.ReferencedColumns) != len(b.ReferencedColumns) {
		return false
	}
	for i := range a.Columns {
		if a.Columns[i] != b.Columns[i] {
			return false
		}
	}
	for i := range a.ReferencedColumns {
		if a.ReferencedColumns[i] != b.ReferencedColumns[i] {
			return false
		}
	}
	return true
}

// ToDDL renders the diff into the strictly ordered statement sequence of
// §4.C: this ordering is the central correctness contract of the differ.
//
//  1. Drop all foreign keys from modifications only.
//  2. Drop tables (cascade) — their own FKs go with them via CASCADE.
//  3. For each new table: CREATE TABLE, then CREATE INDEX per index.
//  4. For each modified table: rename_table; drop_index; drop_constraint;
//     drop_column; add_column; alter_column; create_index; add_constraint.
//  5. Add foreign keys on modified tables.
//  6. Add foreign keys on newly created tables.
func (d SchemaDiff) ToDDL(g ddl.Generator) []ddl.Statement {
	var stmts []ddl.Statement

	for _, td := range d.TableModifications {
		for _, name := range td.ForeignKeysToDrop {
			stmts = append(stmts, g.DropForeignKey(td.Table, name))
		}
	}

	for _, t := range d.TablesToDrop {
		stmts = append(stmts, g.DropTable(t.Name, true))
	}

	for _, t := range d.TablesToCreate {
		createOnly := t
		createOnly.ForeignKeys = nil
		stmts = append(stmts, g.CreateTable(createOnly))
		for _, ix := range t.Indexes {
			stmts = append(stmts, g.CreateIndex(t.Name, ix))
		}
	}

	for _, td := range d.TableModifications {
		if td.RenameTo != "" {
			stmts = append(stmts, g.RenameTable(td.Table, td.RenameTo))
		}
		targetTable := td.Table
		if td.RenameTo != "" {
			targetTable = td.RenameTo
		}
		for _, name := range td.IndexesToDrop {
			stmts = append(stmts, g.DropIndex(targetTable, name))
		}
		for _, name := range td.ConstraintsToDrop {
			stmts = append(stmts, g.DropConstraint(targetTable, name))
		}
		for _, name := range td.ColumnsToDrop {
			stmts = append(stmts, g.DropColumn(targetTable, name))
		}
		for _, col := range td.ColumnsToAdd {
			stmts = append(stmts, g.AddColumn(targetTable, col))
		}
		for _, ch := range td.ColumnsToModify {
			stmts = append(stmts, g.AlterColumn(targetTable, ch.From, ch.To)...)
		}
		for _, ix := range td.IndexesToAdd {
			stmts = append(stmts, g.CreateIndex(targetTable, ix))
		}
		for _, c := range td.ConstraintsToAdd {
			stmts = append(stmts, g.AddConstraint(targetTable, c))
		}
	}

	for _, td := range d.TableModifications {
		targetTable := td.Table
		if td.RenameTo != "" {
			targetTable = td.RenameTo
		}
		for _, fk := range td.ForeignKeysToAdd {
			stmts = append(stmts, g.AddForeignKey(targetTable, fk))
		}
	}

	for _, t := range d.TablesToCreate {
		for _, fk := range t.ForeignKeys {
			stmts = append(stmts, g.AddForeignKey(t.Name, fk))
		}
	}

	return stmts
}
