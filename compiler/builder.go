package compiler

import (
	"fmt"

	"github.com/bawdo/relq/ir"
)

// QueryAST is the result of one build: a context and the queries it
// carries. queries[0] is always the primary Select; the setup/teardown
// slots around it are reserved for future DDL and are always empty here.
type QueryAST struct {
	Context *QueryContext
	Queries []*Select
}

// Primary returns the primary (and, in this core, only) query.
func (a *QueryAST) Primary() *Select {
	if len(a.Queries) == 0 {
		return nil
	}
	return a.Queries[0]
}

// QueryASTBuilder performs a single-shot assembly of a QueryAST from an
// input expression. GetResult is idempotent: once computed, repeated
// calls return the same AST (or the same error) without recomputing.
type QueryASTBuilder struct {
	expr   ir.Node
	memo   map[ir.Node]ir.Node
	result *QueryAST
	err    error
	done   bool
}

// NewQueryASTBuilder constructs a builder for expr.
func NewQueryASTBuilder(expr ir.Node) *QueryASTBuilder {
	return &QueryASTBuilder{expr: expr, memo: make(map[ir.Node]ir.Node)}
}

// GetResult runs the build on first call and caches the outcome.
func (b *QueryASTBuilder) GetResult() (*QueryAST, error) {
	if !b.done {
		b.result, b.err = b.build()
		b.done = true
	}
	return b.result, b.err
}

func (b *QueryASTBuilder) build() (*QueryAST, error) {
	baseExpr := ir.SubstituteParents(b.expr, b.memo)

	if rel, ok := baseExpr.(ir.Relation); ok {
		return b.buildRelationRoot(rel)
	}
	if scalar, ok := baseExpr.(ir.Scalar); ok {
		return b.buildScalarRoot(scalar)
	}
	return nil, fmt.Errorf("%w: root expression is neither a relation nor a scalar", ErrUnsupported)
}

// buildScalarRoot handles a bare value expression as the compile root
// (e.g. "t.x + 1"): it has no table_set of its own, so the builder
// recovers one via the "depends on exactly one table" assumption.
func (b *QueryASTBuilder) buildScalarRoot(scalar ir.Scalar) (*QueryAST, error) {
	sources := ir.SourceTables(scalar)
	if len(sources) != 1 {
		return nil, fmt.Errorf("%w: bare value expression must reference exactly one table, found %d", ErrUnsupported, len(sources))
	}

	sel := NewSelect(sources[0], []ir.Node{scalar})
	sel.ParentExpr = b.expr
	return &QueryAST{Context: NewQueryContext(), Queries: []*Select{sel}}, nil
}

func (b *QueryASTBuilder) buildRelationRoot(rel ir.Relation) (*QueryAST, error) {
	mods := ir.CollectModifiers(rel)

	cur := rel
	for {
		next, ok := ir.Unwrap(cur)
		if !ok {
			break
		}
		cur = next
	}

	if j, ok := cur.(*ir.Join); ok {
		cur = j.Materialize()
	}

	if sr, ok := cur.(*ir.SelfReference); ok {
		cur = sr.Table
	}

	sel, err := b.classify(cur)
	if err != nil {
		return nil, err
	}

	sel.Where = mods.Filters
	sel.Limit = mods.Limit
	sel.OrderBy = mods.SortBy
	sel.ParentExpr = b.expr

	return &QueryAST{Context: NewQueryContext(), Queries: []*Select{sel}}, nil
}

// classify implements the select-shape classification of step 5:
// exactly one of Projection, Aggregation, MaterializedJoin, or
// PhysicalTable; any other kind is Unsupported.
func (b *QueryASTBuilder) classify(cur ir.Relation) (*Select, error) {
	switch v := cur.(type) {
	case *ir.Projection:
		return NewSelect(v.Table, v.Selections), nil

	case *ir.Aggregation:
		selectSet := make([]ir.Node, 0, len(v.By)+len(v.AggExprs))
		for _, s := range v.By {
			selectSet = append(selectSet, s)
		}
		for _, s := range v.AggExprs {
			selectSet = append(selectSet, s)
		}
		sel := NewSelect(v.Table, selectSet)
		sel.GroupBy = v.By
		sel.Having = v.Having
		return sel, nil

	case *ir.MaterializedJoin:
		// The left side is listed twice in the select set: a quirk
		// inherited from the system this was modeled on, preserved
		// rather than silently normalized away.
		return NewSelect(v, []ir.Node{v.Left, v.Left}), nil

	case *ir.PhysicalTable:
		return NewSelect(v, []ir.Node{v}), nil

	default:
		return nil, fmt.Errorf("%w: unrecognized table_set root kind %T", ErrUnsupported, cur)
	}
}

// BuildAST constructs the AST for expr without rendering it.
func BuildAST(expr ir.Node) (*QueryAST, error) {
	return NewQueryASTBuilder(expr).GetResult()
}

// ToSQL builds and renders the primary query for expr.
func ToSQL(expr ir.Node) (string, error) {
	ast, err := BuildAST(expr)
	if err != nil {
		return "", err
	}
	return ast.Primary().Compile(ast.Context)
}
