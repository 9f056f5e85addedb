// Package schema implements the in-memory schema model: tables, columns,
// indexes, constraints and foreign keys, their invariants, and deep equality.
//
// Construction is builder-style, following the fluent Table/Column/Index/
// ForeignKey interfaces in builder.go; this file carries the plain data
// types the builders assemble.
package schema

import (
	"fmt"
	"sort"
)

// ColumnKind is the tag of a ColumnType.
type ColumnKind int

const (
	KindSmallInt ColumnKind = iota
	KindInt
	KindBigInt
	KindDecimal
	KindReal
	KindDouble
	KindChar
	KindVarchar
	KindText
	KindBoolean
	KindDate
	KindTime
	KindTimeTz
	KindTimestamp
	KindTimestampTz
	KindInterval
	KindUUID
	KindJSON
	KindJSONB
	KindBytea
	KindArray
	KindCustom
	KindSerial
	KindBigSerial
)

// ColumnType is the dialect-agnostic, tagged-union SQL type of a column.
// Two ColumnType values compare equal iff Kind and every parameter the
// kind uses matches (Equal below).
type ColumnType struct {
	Kind ColumnKind

	// Char/Varchar
	Length int // 0 means unspecified (varchar only)

	// Decimal
	Precision int
	Scale     int

	// Array
	Inner *ColumnType

	// Custom
	Name string
}

func SmallInt() ColumnType  { return ColumnType{Kind: KindSmallInt} }
func Int() ColumnType       { return ColumnType{Kind: KindInt} }
func BigInt() ColumnType    { return ColumnType{Kind: KindBigInt} }
func Real() ColumnType      { return ColumnType{Kind: KindReal} }
func Double() ColumnType    { return ColumnType{Kind: KindDouble} }
func Text() ColumnType      { return ColumnType{Kind: KindText} }
func Boolean() ColumnType   { return ColumnType{Kind: KindBoolean} }
func Date() ColumnType      { return ColumnType{Kind: KindDate} }
func TimeType() ColumnType  { return ColumnType{Kind: KindTime} }
func TimeTz() ColumnType    { return ColumnType{Kind: KindTimeTz} }
func Timestamp() ColumnType { return ColumnType{Kind: KindTimestamp} }
func TimestampTz() ColumnType { return ColumnType{Kind: KindTimestampTz} }
func Interval() ColumnType  { return ColumnType{Kind: KindInterval} }
func UUID() ColumnType      { return ColumnType{Kind: KindUUID} }
func JSON() ColumnType      { return ColumnType{Kind: KindJSON} }
func JSONB() ColumnType     { return ColumnType{Kind: KindJSONB} }
func Bytea() ColumnType     { return ColumnType{Kind: KindBytea} }
func Serial() ColumnType    { return ColumnType{Kind: KindSerial} }
func BigSerial() ColumnType { return ColumnType{Kind: KindBigSerial} }

func Char(n int) ColumnType    { return ColumnType{Kind: KindChar, Length: n} }
func Varchar(n int) ColumnType { return ColumnType{Kind: KindVarchar, Length: n} }
func DecimalType(precision, scale int) ColumnType {
	return ColumnType{Kind: KindDecimal, Precision: precision, Scale: scale}
}
func ArrayOf(inner ColumnType) ColumnType {
	return ColumnType{Kind: KindArray, Inner: &inner}
}
func Custom(name string) ColumnType { return ColumnType{Kind: KindCustom, Name: name} }

// IsAutoIncrement reports whether this type implies auto-increment per the
// serial/bigserial invariant in §3 of the spec.
func (t ColumnType) IsAutoIncrement() bool {
	return t.Kind == KindSerial || t.Kind == KindBigSerial
}

// Equal compares two ColumnType values: same tag and every parameter used
// by that tag.
func (t ColumnType) Equal(other ColumnType) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindChar, KindVarchar:
		return t.Length == other.Length
	case KindDecimal:
		return t.Precision == other.Precision && t.Scale == other.Scale
	case KindArray:
		if t.Inner == nil || other.Inner == nil {
			return t.Inner == other.Inner
		}
		return t.Inner.Equal(*other.Inner)
	case KindCustom:
		return t.Name == other.Name
	default:
		return true
	}
}

// DefaultKind is the tag of a ColumnDefault.
type DefaultKind int

const (
	DefaultNone DefaultKind = iota
	DefaultNull
	DefaultBool
	DefaultInt
	DefaultFloat
	DefaultString
	DefaultExpression
	DefaultCurrentTimestamp
	DefaultGenerateUUID
)

// ColumnDefault is the tagged default value of a column.
type ColumnDefault struct {
	Kind       DefaultKind
	Bool       bool
	Int        int64
	Float      float64
	Str        string
	Expression string
}

func NoDefault() ColumnDefault              { return ColumnDefault{Kind: DefaultNone} }
func DefaultNullValue() ColumnDefault       { return ColumnDefault{Kind: DefaultNull} }
func DefaultBoolValue(b bool) ColumnDefault { return ColumnDefault{Kind: DefaultBool, Bool: b} }
func DefaultIntValue(i int64) ColumnDefault { return ColumnDefault{Kind: DefaultInt, Int: i} }
func DefaultFloatValue(f float64) ColumnDefault {
	return ColumnDefault{Kind: DefaultFloat, Float: f}
}
func DefaultStringValue(s string) ColumnDefault {
	return ColumnDefault{Kind: DefaultString, Str: s}
}
func DefaultExpressionValue(e string) ColumnDefault {
	return ColumnDefault{Kind: DefaultExpression, Expression: e}
}
func DefaultCurrentTimestampValue() ColumnDefault {
	return ColumnDefault{Kind: DefaultCurrentTimestamp}
}
func DefaultGenerateUUIDValue() ColumnDefault { return ColumnDefault{Kind: DefaultGenerateUUID} }

// ToSQL renders the default's deterministic SQL text per §4.A: booleans
// render TRUE/FALSE, strings are single-quoted with ' doubled, and
// CURRENT_TIMESTAMP / gen_random_uuid() are textual constants.
func (d ColumnDefault) ToSQL() string {
	switch d.Kind {
	case DefaultNone:
		return ""
	case DefaultNull:
		return "NULL"
	case DefaultBool:
		if d.Bool {
			return "TRUE"
		}
		return "FALSE"
	case DefaultInt:
		return fmt.Sprintf("%d", d.Int)
	case DefaultFloat:
		return fmt.Sprintf("%v", d.Float)
	case DefaultString:
		return "'" + quoteSingle(d.Str) + "'"
	case DefaultExpression:
		return d.Expression
	case DefaultCurrentTimestamp:
		return "CURRENT_TIMESTAMP"
	case DefaultGenerateUUID:
		return "gen_random_uuid()"
	default:
		return ""
	}
}

func quoteSingle(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// Column is one column of a Table.
type Column struct {
	Name          string
	Type          ColumnType
	Nullable      bool
	Default       ColumnDefault
	AutoIncrement bool
	Comment       string
}

// Equal compares two columns by every field relevant to schema identity.
func (c Column) Equal(other Column) bool {
	return c.Name == other.Name &&
		c.Type.Equal(other.Type) &&
		c.Nullable == other.Nullable &&
		c.Default.ToSQL() == other.Default.ToSQL() &&
		c.AutoIncrement == other.AutoIncrement
}

// ForeignKeyAction is the on-delete/on-update action set.
type ForeignKeyAction int

const (
	ActionNoAction ForeignKeyAction = iota
	ActionCascade
	ActionSetNull
	ActionSetDefault
	ActionRestrict
)

func (a ForeignKeyAction) SQL() string {
	switch a {
	case ActionCascade:
		return "CASCADE"
	case ActionSetNull:
		return "SET NULL"
	case ActionSetDefault:
		return "SET DEFAULT"
	case ActionRestrict:
		return "RESTRICT"
	default:
		return "NO ACTION"
	}
}

// ForeignKey references one or more columns of ReferencedTable.
type ForeignKey struct {
	Name              string
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          ForeignKeyAction
	OnUpdate          ForeignKeyAction
}

// EffectiveName returns Name, or the synthetic key fk_{table}_{cols} when
// unnamed, per §4.C.
func (fk ForeignKey) EffectiveName(table string) string {
	if fk.Name != "" {
		return fk.Name
	}
	return SyntheticForeignKeyName(table, fk.Columns)
}

// SyntheticForeignKeyName builds the fk_{table}_{cols joined by _} key used
// when a foreign key has no explicit name.
func SyntheticForeignKeyName(table string, columns []string) string {
	name := "fk_" + table
	for _, c := range columns {
		name += "_" + c
	}
	return name
}

// IndexColumn is one column participant of an Index, with optional sort
// and nulls ordering.
type IndexColumn struct {
	Column     string
	Descending bool
	NullsFirst *bool // nil means adapter default
}

// Index describes a secondary or unique index.
type Index struct {
	Name       string
	Columns    []IndexColumn
	Unique     bool
	AccessMethod string // optional, e.g. "gin", "gist"
	Where      string   // optional partial predicate
}

// ColumnNames returns the plain column name list, in order.
func (ix Index) ColumnNames() []string {
	out := make([]string, len(ix.Columns))
	for i, c := range ix.Columns {
		out[i] = c.Column
	}
	return out
}

// Constraint is a named, opaque table-level constraint (e.g. CHECK) whose
// SQL body is caller-supplied; the core compares constraints by name and
// raw SQL text only.
type Constraint struct {
	Name string
	SQL  string
}

// Table is one table within a Schema.
type Table struct {
	Name        string
	SchemaName  string // optional qualifier
	Columns     []Column
	PrimaryKey  []string // column names, empty if none declared
	Indexes     []Index
	Constraints []Constraint
	ForeignKeys []ForeignKey
	Comment     string
}

// QualifiedName renders "schema.table" when SchemaName is set, else the
// bare table name.
func (t Table) QualifiedName() string {
	if t.SchemaName != "" {
		return t.SchemaName + "." + t.Name
	}
	return t.Name
}

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Validate checks the invariants of §3: unique column names, and every
// name referenced by PrimaryKey/Index/Constraint/ForeignKey.Columns exists.
func (t Table) Validate() error {
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if seen[c.Name] {
			return fmt.Errorf("schema: table %q has duplicate column %q", t.Name, c.Name)
		}
		seen[c.Name] = true
	}
	for _, name := range t.PrimaryKey {
		if !seen[name] {
			return fmt.Errorf("schema: table %q primary key references unknown column %q", t.Name, name)
		}
	}
	for _, ix := range t.Indexes {
		for _, c := range ix.Columns {
			if !seen[c.Column] {
				return fmt.Errorf("schema: table %q index %q references unknown column %q", t.Name, ix.Name, c.Column)
			}
		}
	}
	for _, fk := range t.ForeignKeys {
		for _, c := range fk.Columns {
			if !seen[c] {
				return fmt.Errorf("schema: table %q foreign key references unknown column %q", t.Name, c)
			}
		}
		if len(fk.Columns) == 0 || len(fk.Columns) != len(fk.ReferencedColumns) {
			return fmt.Errorf("schema: table %q foreign key has mismatched column counts", t.Name)
		}
	}
	return nil
}

// Equal compares two tables' name, schema qualifier and columns
// (order-sensitive for columns, matching the teacher's ordered-list
// modeling). The primary key, indexes, constraints, foreign keys and
// comment are not compared.
func (t Table) Equal(other Table) bool {
	if t.Name != other.Name || t.SchemaName != other.SchemaName {
		return false
	}
	if len(t.Columns) != len(other.Columns) {
		return false
	}
	for i := range t.Columns {
		if !t.Columns[i].Equal(other.Columns[i]) {
			return false
		}
	}
	return true
}

// Schema is a named collection of tables plus custom types and extensions.
type Schema struct {
	Name        string // optional namespace
	Tables      map[string]Table
	CustomTypes map[string]string // name -> definition (enum/composite body)
	Extensions  []string
}

// New returns an empty Schema.
func New(name string) *Schema {
	return &Schema{
		Name:        name,
		Tables:      make(map[string]Table),
		CustomTypes: make(map[string]string),
	}
}

// AddTable registers t, enforcing the uniqueness invariant (table names
// unique within a Schema).
func (s *Schema) AddTable(t Table) error {
	if _, exists := s.Tables[t.Name]; exists {
		return fmt.Errorf("schema: table %q already exists", t.Name)
	}
	if err := t.Validate(); err != nil {
		return err
	}
	s.Tables[t.Name] = t
	return nil
}

// Table looks up a table by name.
func (s *Schema) Table(name string) (Table, bool) {
	t, ok := s.Tables[name]
	return t, ok
}

// TableNames returns all table names, sorted for deterministic iteration.
func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for n := range s.Tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
