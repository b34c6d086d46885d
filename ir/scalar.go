package ir

// Literal wraps a Go value (bool, string, or a numeric type) as a scalar
// constant. The compiler classifies it by typeclass (boolean/string/
// number) when rendering.
type Literal struct {
	scalarBase
	Value any
}

// NewLiteral constructs a Literal.
func NewLiteral(v any) *Literal { return &Literal{Value: v} }

// Typeclass returns "boolean", "string", or "number" for v, matching the
// original compiler's _trans_literal dispatch. For any other Go type it
// returns ok=false rather than panicking; the caller checks ok and
// surfaces ErrUnsupported for an unrecognized literal typeclass itself.
func (l *Literal) Typeclass() (string, bool) {
	switch l.Value.(type) {
	case bool:
		return "boolean", true
	case string:
		return "string", true
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return "number", true
	default:
		return "", false
	}
}

// Parameter is a bound-later placeholder scalar. The translator has no
// rendering rule for it (spec'd as Unsupported, not merely unimplemented).
type Parameter struct {
	scalarBase
	Name string
}

// NewParameter constructs a Parameter.
func NewParameter(name string) *Parameter { return &Parameter{Name: name} }

// TableColumn references a single column owned by a relation. Alias, if
// set and different from Name, marks the column as renamed relative to
// its underlying field — the translator uses this to decide whether a
// projected column needs an explicit "AS" in named mode.
type TableColumn struct {
	scalarBase
	Table    Relation
	Name     string
	Alias    string
	TypeName string // optional declared type, e.g. "boolean"; used for Negate's NOT-vs-minus choice
}

// NewTableColumn constructs a TableColumn.
func NewTableColumn(table Relation, name string) *TableColumn {
	return &TableColumn{Table: table, Name: name}
}

// As returns a copy of the column renamed to alias for use in a select
// list (`col AS alias`).
func (c *TableColumn) As(alias string) *TableColumn {
	cp := *c
	cp.Alias = alias
	return &cp
}

// DisplayName returns the name this column should be rendered under in
// a named projection: the alias if one was set, otherwise the field name.
func (c *TableColumn) DisplayName() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.Name
}
