// Package migration implements the file-backed migration record store
// (§4.F), the dependency-resolving planner (§4.G), and the transactional
// executor with history recording and locking (§4.H).
package migration

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/onyx-go/dbkit/internal/schema"
)

// OperationType discriminates the tag of a MigrationOperation.
type OperationType string

const (
	OpCreateTable     OperationType = "create_table"
	OpDropTable       OperationType = "drop_table"
	OpRenameTable     OperationType = "rename_table"
	OpAddColumn       OperationType = "add_column"
	OpDropColumn      OperationType = "drop_column"
	OpAlterColumn     OperationType = "alter_column"
	OpRenameColumn    OperationType = "rename_column"
	OpCreateIndex     OperationType = "create_index"
	OpDropIndex       OperationType = "drop_index"
	OpAddConstraint   OperationType = "add_constraint"
	OpDropConstraint  OperationType = "drop_constraint"
	OpAddForeignKey   OperationType = "add_foreign_key"
	OpDropForeignKey  OperationType = "drop_foreign_key"
	OpRawSQL          OperationType = "raw_sql"
)

// Operation is the discriminated union of §3's MigrationOperation. Only the
// fields relevant to Type are meaningful; this mirrors the tagged-table
// shape the TOML format uses (§6).
type Operation struct {
	Type OperationType `toml:"type"`

	Table  string `toml:"table,omitempty"`
	Name   string `toml:"name,omitempty"`
	From   string `toml:"from,omitempty"`
	To     string `toml:"to,omitempty"`
	Cascade bool  `toml:"cascade,omitempty"`

	NewTable       *schema.Table      `toml:"new_table,omitempty"`
	Column         *schema.Column     `toml:"column,omitempty"`
	FromColumn     *schema.Column     `toml:"from_column,omitempty"`
	ToColumn       *schema.Column     `toml:"to_column,omitempty"`
	Index          *schema.Index      `toml:"index,omitempty"`
	Constraint     *schema.Constraint `toml:"constraint,omitempty"`
	ForeignKey     *schema.ForeignKey `toml:"foreign_key,omitempty"`

	RawUp   string `toml:"raw_up,omitempty"`
	RawDown string `toml:"raw_down,omitempty"`
}

// CreateTableOp, DropTableOp, ... are constructors for each variant,
// named so call sites read like the spec's discriminated union even
// though Go has no native sum type.
func CreateTableOp(t schema.Table) Operation {
	return Operation{Type: OpCreateTable, Table: t.Name, NewTable: &t}
}
func DropTableOp(name string, cascade bool) Operation {
	return Operation{Type: OpDropTable, Table: name, Cascade: cascade}
}
func RenameTableOp(from, to string) Operation {
	return Operation{Type: OpRenameTable, From: from, To: to}
}
func AddColumnOp(table string, col schema.Column) Operation {
	return Operation{Type: OpAddColumn, Table: table, Column: &col}
}
func DropColumnOp(table, column string) Operation {
	return Operation{Type: OpDropColumn, Table: table, Name: column}
}
func AlterColumnOp(table string, from, to schema.Column) Operation {
	return Operation{Type: OpAlterColumn, Table: table, FromColumn: &from, ToColumn: &to}
}
func RenameColumnOp(table, from, to string) Operation {
	return Operation{Type: OpRenameColumn, Table: table, From: from, To: to}
}
func CreateIndexOp(table string, idx schema.Index) Operation {
	return Operation{Type: OpCreateIndex, Table: table, Index: &idx}
}
func DropIndexOp(table, name string) Operation {
	return Operation{Type: OpDropIndex, Table: table, Name: name}
}
func AddConstraintOp(table string, c schema.Constraint) Operation {
	return Operation{Type: OpAddConstraint, Table: table, Constraint: &c}
}
func DropConstraintOp(table, name string) Operation {
	return Operation{Type: OpDropConstraint, Table: table, Name: name}
}
func AddForeignKeyOp(table string, fk schema.ForeignKey) Operation {
	return Operation{Type: OpAddForeignKey, Table: table, ForeignKey: &fk}
}
func DropForeignKeyOp(table, name string) Operation {
	return Operation{Type: OpDropForeignKey, Table: table, Name: name}
}
func RawSQLOp(up, down string) Operation {
	return Operation{Type: OpRawSQL, RawUp: up, RawDown: down}
}

// Migration is the versioned, ordered change to schema state of §3.
type Migration struct {
	ID           string
	Name         string
	Description  string
	// App only places the migration's file under the store's per-app
	// directory; the Planner does not filter dependency edges by App.
	App          string
	Dependencies []string
	Operations   []Operation
	Reversible   bool
	RawSQLUp     string
	RawSQLDown   string
	Checksum     string
	CreatedAt    time.Time
	Metadata     map[string]string
}

// canonicalPayload returns the bytes Checksum is computed over: a
// canonical (map-key-sorted via encoding/json's struct field order)
// serialization of Operations followed by RawSQLUp.
func (m *Migration) canonicalPayload() []byte {
	// encoding/json serializes struct fields in declaration order, which is
	// stable across runs and independent of how the caller constructed the
	// Migration — exactly the "canonical serialization" the checksum needs.
	opsJSON, _ := json.Marshal(m.Operations)
	return append(opsJSON, []byte(m.RawSQLUp)...)
}

// ComputeChecksum returns the hex SHA-256 of the canonical payload, per
// §3's Checksum definition.
func (m *Migration) ComputeChecksum() string {
	sum := sha256.Sum256(m.canonicalPayload())
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum reports whether Checksum matches the recomputed value, or
// is empty (unset migrations are treated as trivially verified).
func (m *Migration) VerifyChecksum() bool {
	if m.Checksum == "" {
		return true
	}
	return m.Checksum == m.ComputeChecksum()
}

// Stamp finalizes Checksum from the current Operations/RawSQLUp and
// enforces the reversibility invariant of §3: a raw-SQL-up migration
// without a down is never reversible.
func (m *Migration) Stamp() {
	if m.RawSQLUp != "" && m.RawSQLDown == "" {
		m.Reversible = false
	}
	m.Checksum = m.ComputeChecksum()
}

// Status is the MigrationRecord status enum of §3.
type Status string

const (
	StatusPending    Status = "pending"
	StatusRunning    Status = "running"
	StatusApplied    Status = "applied"
	StatusFailed     Status = "failed"
	StatusRolledBack Status = "rolled_back"
)

// Record is the MigrationRecord (history) type of §3.
type Record struct {
	ID              string
	Name            string
	App             string
	Status          Status
	Checksum        string
	AppliedAt       time.Time
	DurationMs      int64
	StatementsCount int
	ErrorMessage    string
}

// Direction is the direction a PlannedMigration applies in.
type Direction int

const (
	Up Direction = iota
	Down
)

// PlannedMigration is one entry of a Plan produced by the Planner.
type PlannedMigration struct {
	Migration Migration
	Direction Direction
}
