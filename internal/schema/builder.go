package schema

// TableBuilder assembles a Table through a fluent interface, mirroring the
// teacher's Table/Column/Index/ForeignKey builder split: each factory method
// appends a builder and returns it so calls like
// b.String("email").Nullable() chain naturally, while the table builder
// itself collects the finished definitions.
type TableBuilder struct {
	table Table
}

// NewTable starts building a table named name.
func NewTable(name string) *TableBuilder {
	return &TableBuilder{table: Table{Name: name}}
}

// Column-factory methods. Each appends a new ColumnBuilder and returns it,
// matching the teacher's table_builder.go column factories.

func (b *TableBuilder) column(name string, t ColumnType) *ColumnBuilder {
	cb := &ColumnBuilder{owner: b, col: Column{Name: name, Type: t}}
	b.table.Columns = append(b.table.Columns, cb.col)
	cb.index = len(b.table.Columns) - 1
	return cb
}

func (b *TableBuilder) ID() *ColumnBuilder {
	cb := b.column("id", BigSerial())
	cb.Primary().NotNull()
	return cb
}

func (b *TableBuilder) SmallInt(name string) *ColumnBuilder  { return b.column(name, SmallInt()) }
func (b *TableBuilder) Int(name string) *ColumnBuilder       { return b.column(name, Int()) }
func (b *TableBuilder) BigInt(name string) *ColumnBuilder    { return b.column(name, BigInt()) }
func (b *TableBuilder) Decimal(name string, precision, scale int) *ColumnBuilder {
	return b.column(name, DecimalType(precision, scale))
}
func (b *TableBuilder) Real(name string) *ColumnBuilder   { return b.column(name, Real()) }
func (b *TableBuilder) Double(name string) *ColumnBuilder { return b.column(name, Double()) }
func (b *TableBuilder) Char(name string, n int) *ColumnBuilder {
	return b.column(name, Char(n))
}
func (b *TableBuilder) Varchar(name string, n int) *ColumnBuilder {
	return b.column(name, Varchar(n))
}
func (b *TableBuilder) String(name string) *ColumnBuilder { return b.Varchar(name, 255) }
func (b *TableBuilder) Text(name string) *ColumnBuilder   { return b.column(name, Text()) }
func (b *TableBuilder) Boolean(name string) *ColumnBuilder { return b.column(name, Boolean()) }
func (b *TableBuilder) Date(name string) *ColumnBuilder     { return b.column(name, Date()) }
func (b *TableBuilder) Time(name string) *ColumnBuilder     { return b.column(name, TimeType()) }
func (b *TableBuilder) TimeTz(name string) *ColumnBuilder   { return b.column(name, TimeTz()) }
func (b *TableBuilder) Timestamp(name string) *ColumnBuilder { return b.column(name, Timestamp()) }
func (b *TableBuilder) TimestampTz(name string) *ColumnBuilder {
	return b.column(name, TimestampTz())
}
func (b *TableBuilder) Interval(name string) *ColumnBuilder { return b.column(name, Interval()) }
func (b *TableBuilder) UUID(name string) *ColumnBuilder     { return b.column(name, UUID()) }
func (b *TableBuilder) JSON(name string) *ColumnBuilder     { return b.column(name, JSON()) }
func (b *TableBuilder) JSONB(name string) *ColumnBuilder    { return b.column(name, JSONB()) }
func (b *TableBuilder) Bytea(name string) *ColumnBuilder    { return b.column(name, Bytea()) }
func (b *TableBuilder) Array(name string, inner ColumnType) *ColumnBuilder {
	return b.column(name, ArrayOf(inner))
}
func (b *TableBuilder) Custom(name, typeName string) *ColumnBuilder {
	return b.column(name, Custom(typeName))
}
func (b *TableBuilder) Serial(name string) *ColumnBuilder    { return b.column(name, Serial()) }
func (b *TableBuilder) BigSerial(name string) *ColumnBuilder { return b.column(name, BigSerial()) }

// Timestamps adds created_at/updated_at timestamp columns defaulting to
// CURRENT_TIMESTAMP, mirroring the teacher's Timestamps() helper.
func (b *TableBuilder) Timestamps() *TableBuilder {
	b.TimestampTz("created_at").NotNull().Default(DefaultCurrentTimestampValue())
	b.TimestampTz("updated_at").NotNull().Default(DefaultCurrentTimestampValue())
	return b
}

// SoftDeletes adds a nullable deleted_at timestamp column.
func (b *TableBuilder) SoftDeletes() *TableBuilder {
	b.TimestampTz("deleted_at").Nullable()
	return b
}

// PrimaryKey declares the table-level primary key over the given columns.
func (b *TableBuilder) PrimaryKey(columns ...string) *TableBuilder {
	b.table.PrimaryKey = columns
	return b
}

// Index appends an index over the given columns; returns an IndexBuilder
// for further configuration (Unique, Name, etc).
func (b *TableBuilder) Index(columns ...string) *IndexBuilder {
	cols := make([]IndexColumn, len(columns))
	for i, c := range columns {
		cols[i] = IndexColumn{Column: c}
	}
	ib := &IndexBuilder{
		owner: b,
		idx:   Index{Name: generateIndexName(b.table.Name, "idx", columns), Columns: cols},
	}
	b.table.Indexes = append(b.table.Indexes, ib.idx)
	ib.index = len(b.table.Indexes) - 1
	return ib
}

// Foreign declares a foreign key over the given local columns; returns a
// ForeignKeyBuilder to set the referenced table/columns and actions.
func (b *TableBuilder) Foreign(columns ...string) *ForeignKeyBuilder {
	fkb := &ForeignKeyBuilder{
		owner: b,
		fk:    ForeignKey{Columns: columns},
	}
	b.table.ForeignKeys = append(b.table.ForeignKeys, fkb.fk)
	fkb.index = len(b.table.ForeignKeys) - 1
	return fkb
}

// Constraint appends a raw named constraint.
func (b *TableBuilder) Constraint(name, sql string) *TableBuilder {
	b.table.Constraints = append(b.table.Constraints, Constraint{Name: name, SQL: sql})
	return b
}

// Comment sets the table comment.
func (b *TableBuilder) Comment(comment string) *TableBuilder {
	b.table.Comment = comment
	return b
}

// Build finalizes and validates the table.
func (b *TableBuilder) Build() (Table, error) {
	if err := b.table.Validate(); err != nil {
		return Table{}, err
	}
	return b.table, nil
}

// ColumnBuilder configures a single column in place within its owning
// TableBuilder's slice.
type ColumnBuilder struct {
	owner *TableBuilder
	col   Column
	index int
}

func (cb *ColumnBuilder) mutate(fn func(*Column)) *ColumnBuilder {
	fn(&cb.col)
	cb.owner.table.Columns[cb.index] = cb.col
	return cb
}

func (cb *ColumnBuilder) Nullable() *ColumnBuilder {
	return cb.mutate(func(c *Column) { c.Nullable = true })
}
func (cb *ColumnBuilder) NotNull() *ColumnBuilder {
	return cb.mutate(func(c *Column) { c.Nullable = false })
}
func (cb *ColumnBuilder) Default(d ColumnDefault) *ColumnBuilder {
	return cb.mutate(func(c *Column) { c.Default = d })
}
func (cb *ColumnBuilder) AutoIncrement() *ColumnBuilder {
	return cb.mutate(func(c *Column) { c.AutoIncrement = true; c.Nullable = false })
}
func (cb *ColumnBuilder) Comment(comment string) *ColumnBuilder {
	return cb.mutate(func(c *Column) { c.Comment = comment })
}

// Primary marks the column as (part of) the table's primary key.
func (cb *ColumnBuilder) Primary() *ColumnBuilder {
	cb.owner.table.PrimaryKey = append(cb.owner.table.PrimaryKey, cb.col.Name)
	return cb.NotNull()
}

// Unique adds a single-column unique index for this column.
func (cb *ColumnBuilder) Unique() *ColumnBuilder {
	cb.owner.Index(cb.col.Name).Unique()
	return cb
}

// References starts a foreign key from this column, mirroring the
// teacher's Column.References shorthand.
func (cb *ColumnBuilder) References(column string) *ForeignKeyBuilder {
	fkb := cb.owner.Foreign(cb.col.Name)
	fkb.ReferencesColumn(column)
	return fkb
}

// Table returns the owning table builder, to continue the fluent chain.
func (cb *ColumnBuilder) Table() *TableBuilder { return cb.owner }

// IndexBuilder configures an index in place.
type IndexBuilder struct {
	owner *TableBuilder
	idx   Index
	index int
}

func (ib *IndexBuilder) mutate(fn func(*Index)) *IndexBuilder {
	fn(&ib.idx)
	ib.owner.table.Indexes[ib.index] = ib.idx
	return ib
}

func (ib *IndexBuilder) Name(name string) *IndexBuilder {
	return ib.mutate(func(i *Index) { i.Name = name })
}
func (ib *IndexBuilder) Unique() *IndexBuilder {
	return ib.mutate(func(i *Index) { i.Unique = true })
}
func (ib *IndexBuilder) Using(method string) *IndexBuilder {
	return ib.mutate(func(i *Index) { i.AccessMethod = method })
}
func (ib *IndexBuilder) Where(predicate string) *IndexBuilder {
	return ib.mutate(func(i *Index) { i.Where = predicate })
}
func (ib *IndexBuilder) Table() *TableBuilder { return ib.owner }

// ForeignKeyBuilder configures a foreign key in place.
type ForeignKeyBuilder struct {
	owner *TableBuilder
	fk    ForeignKey
	index int
}

func (fkb *ForeignKeyBuilder) mutate(fn func(*ForeignKey)) *ForeignKeyBuilder {
	fn(&fkb.fk)
	fkb.owner.table.ForeignKeys[fkb.index] = fkb.fk
	return fkb
}

func (fkb *ForeignKeyBuilder) ReferencesColumn(column string) *ForeignKeyBuilder {
	return fkb.mutate(func(fk *ForeignKey) { fk.ReferencedColumns = append(fk.ReferencedColumns, column) })
}
func (fkb *ForeignKeyBuilder) On(table string) *ForeignKeyBuilder {
	return fkb.mutate(func(fk *ForeignKey) { fk.ReferencedTable = table })
}
func (fkb *ForeignKeyBuilder) Name(name string) *ForeignKeyBuilder {
	return fkb.mutate(func(fk *ForeignKey) { fk.Name = name })
}
func (fkb *ForeignKeyBuilder) OnDelete(action ForeignKeyAction) *ForeignKeyBuilder {
	return fkb.mutate(func(fk *ForeignKey) { fk.OnDelete = action })
}
func (fkb *ForeignKeyBuilder) OnUpdate(action ForeignKeyAction) *ForeignKeyBuilder {
	return fkb.mutate(func(fk *ForeignKey) { fk.OnUpdate = action })
}
func (fkb *ForeignKeyBuilder) CascadeOnDelete() *ForeignKeyBuilder { return fkb.OnDelete(ActionCascade) }
func (fkb *ForeignKeyBuilder) NullOnDelete() *ForeignKeyBuilder    { return fkb.OnDelete(ActionSetNull) }
func (fkb *ForeignKeyBuilder) Table() *TableBuilder                { return fkb.owner }

// generateIndexName mirrors the teacher's table_builder.go naming
// convention: {prefix}_{table}_{col1}_{col2}...
func generateIndexName(table, prefix string, columns []string) string {
	name := prefix + "_" + table
	for _, c := range columns {
		name += "_" + c
	}
	return name
}
