// Package ir defines the relational-algebra intermediate representation
// consumed by package compiler: typed relation and scalar expression
// nodes, plus the handful of tree operations (parent substitution,
// modifier collection, join materialization, structural equality) the
// compiler treats as supplied by the expression layer rather than
// reimplementing itself.
package ir

// Node is the common marker implemented by every IR node, relational or
// scalar. A select list entry is a Node: a Relation member denotes a
// "*" expansion, a Scalar member denotes a computed column.
type Node interface {
	nodeMarker()
}

// Relation is a table-shaped IR node: a physical table, a modifier
// wrapping one (Filter/Limit/SortBy), a Projection/Aggregation, or a
// join variant.
type Relation interface {
	Node
	relationMarker()
}

// Scalar is a value-shaped IR node: a literal, parameter, column
// reference, or operator application over other Scalars.
type Scalar interface {
	Node
	scalarMarker()
}

// base embeds into every node type to satisfy Node without repeating a
// no-op method on each concrete type.
type base struct{}

func (base) nodeMarker() {}

type relBase struct{ base }

func (relBase) relationMarker() {}

type scalarBase struct{ base }

func (scalarBase) scalarMarker() {}
