package ir

// Column describes one column of a physical table: its name and its
// declared SQL-neutral type name (one of the type names recognized by
// Cast: int8, int16, int32, int64, float, double, string, boolean).
type Column struct {
	Name string
	Type string
}

// PhysicalTable is a named, column-typed base relation.
type PhysicalTable struct {
	relBase
	Name    string
	Columns []Column
}

// NewPhysicalTable constructs a PhysicalTable.
func NewPhysicalTable(name string, columns ...Column) *PhysicalTable {
	return &PhysicalTable{Name: name, Columns: columns}
}

// Col returns a TableColumn referencing the named column of t. It does
// not validate that the name appears in Columns; schema checking is an
// external-IR concern this compiler does not perform.
func (t *PhysicalTable) Col(name string) *TableColumn {
	return &TableColumn{Table: t, Name: name}
}

// Star returns a Relation-typed select-list entry denoting "*" (or
// "alias.*") expansion for this table.
func (t *PhysicalTable) Star() Relation { return t }

// SelfReference is a transparent wrapper around a relation, used when an
// expression needs to reference "the same relation again" without
// reusing its identity (e.g. a self-join side). The builder unwraps it
// when it is the root of the compiled expression, and RootTables looks
// through it to the wrapped table, so it is never itself given an alias.
type SelfReference struct {
	relBase
	Table Relation
}

// Projection is a relation plus an ordered list of output expressions.
type Projection struct {
	relBase
	Table      Relation
	Selections []Node // each element is a Scalar or a Relation ("*" entry)
}

// Col returns a TableColumn referencing a column projected out of p.
func (p *Projection) Col(name string) *TableColumn {
	return &TableColumn{Table: p, Name: name}
}

// Aggregation groups Table by By, computing AggExprs, optionally
// filtered post-aggregation by Having.
type Aggregation struct {
	relBase
	Table    Relation
	By       []Scalar
	AggExprs []Scalar
	Having   []Scalar
}

// Col returns a TableColumn referencing a column of the aggregation's
// output (a grouping key or an aggregate expression's name).
func (a *Aggregation) Col(name string) *TableColumn {
	return &TableColumn{Table: a, Name: name}
}

// Filter wraps Table, restricting rows to those matching all Predicates
// (AND-composed).
type Filter struct {
	relBase
	Table      Relation
	Predicates []Scalar
}

// Limit wraps Table, bounding the result to N rows starting at Offset.
type Limit struct {
	relBase
	Table  Relation
	N      int
	Offset int
}

// SortKey is one ORDER BY key: an expression plus its direction.
type SortKey struct {
	Expr      Scalar
	Ascending bool
}

// SortBy wraps Table, ordering its rows by Keys.
type SortBy struct {
	relBase
	Table Relation
	Keys  []SortKey
}

// JoinKind enumerates the supported join variants.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
	RightJoin
	OuterJoin
	LeftAntiJoin
	LeftSemiJoin
	CrossJoin
)

// String returns the IR-level kind name (not the rendered SQL keyword,
// which lives in compiler's join-kind table).
func (k JoinKind) String() string {
	switch k {
	case InnerJoin:
		return "InnerJoin"
	case LeftJoin:
		return "LeftJoin"
	case RightJoin:
		return "RightJoin"
	case OuterJoin:
		return "OuterJoin"
	case LeftAntiJoin:
		return "LeftAntiJoin"
	case LeftSemiJoin:
		return "LeftSemiJoin"
	case CrossJoin:
		return "CrossJoin"
	default:
		return "UnknownJoin"
	}
}

// Join is an unmaterialized binary join: its output schema has not yet
// been committed. Cross joins carry no predicates.
type Join struct {
	relBase
	Kind       JoinKind
	Left       Relation
	Right      Relation
	Predicates []Scalar
}

// Materialize commits a Join to a concrete output schema, returning the
// MaterializedJoin that may legally appear as a Select's table_set.
func (j *Join) Materialize() *MaterializedJoin {
	return &MaterializedJoin{Kind: j.Kind, Left: j.Left, Right: j.Right, Predicates: j.Predicates}
}

// MaterializedJoin is a Join whose output schema has been resolved. Only
// a MaterializedJoin (never a bare Join) may appear as a Select's
// table_set.
type MaterializedJoin struct {
	relBase
	Kind       JoinKind
	Left       Relation
	Right      Relation
	Predicates []Scalar
}

// Col returns a TableColumn referencing a column of the materialized
// join's combined output.
func (m *MaterializedJoin) Col(name string) *TableColumn {
	return &TableColumn{Table: m, Name: name}
}
