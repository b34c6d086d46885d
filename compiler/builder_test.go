package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/bawdo/relq/ir"
)

// --- S1: bare table ---

func TestToSQLBareTable(t *testing.T) {
	t.Parallel()
	tbl := ir.NewPhysicalTable("t", ir.Column{Name: "x"})

	got, err := ToSQL(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "SELECT *\nFROM t" {
		t.Errorf("got %q", got)
	}
}

// --- S2: bare scalar root recovers its single source table ---

func TestToSQLBareScalarRoot(t *testing.T) {
	t.Parallel()
	tbl := ir.NewPhysicalTable("t", ir.Column{Name: "x"})
	expr := ir.NewBinaryOp(ir.Add, tbl.Col("x"), ir.NewLiteral(1))

	got, err := ToSQL(expr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "FROM t") {
		t.Errorf("expected the bare scalar's single source table to become the FROM target, got %q", got)
	}
	if !strings.HasPrefix(got, "SELECT x + 1 AS ") {
		t.Errorf("expected a named computed column, got %q", got)
	}
}

func TestToSQLBareScalarAcrossTwoTablesIsUnsupported(t *testing.T) {
	t.Parallel()
	t1 := ir.NewPhysicalTable("t1", ir.Column{Name: "k"})
	t2 := ir.NewPhysicalTable("t2", ir.Column{Name: "k"})
	expr := ir.NewBinaryOp(ir.Equals, t1.Col("k"), t2.Col("k"))

	_, err := ToSQL(expr)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for a scalar depending on two tables, got %v", err)
	}
}

// --- S3: filter + sort_by + limit ---

func TestToSQLFilterSortByLimit(t *testing.T) {
	t.Parallel()
	tbl := ir.NewPhysicalTable("t", ir.Column{Name: "x"})
	x := tbl.Col("x")
	var rel ir.Relation = tbl
	rel = &ir.Filter{Table: rel, Predicates: []ir.Scalar{ir.NewBinaryOp(ir.Greater, x, ir.NewLiteral(5))}}
	rel = &ir.SortBy{Table: rel, Keys: []ir.SortKey{{Expr: x, Ascending: true}}}
	rel = &ir.Limit{Table: rel, N: 10}

	got, err := ToSQL(rel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "SELECT *\nFROM t\nWHERE x > 5\nORDER BY x\nLIMIT 10"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

// --- S4: group_by + aggregate ---

func TestToSQLGroupByAggregate(t *testing.T) {
	t.Parallel()
	tbl := ir.NewPhysicalTable("t", ir.Column{Name: "a"}, ir.Column{Name: "b"})
	a := tbl.Col("a")
	sumB := ir.NewUnaryOp(ir.Sum, tbl.Col("b"))
	agg := &ir.Aggregation{Table: tbl, By: []ir.Scalar{a}, AggExprs: []ir.Scalar{sumB}}

	got, err := ToSQL(agg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "SELECT a, sum(b) AS sum") || !strings.Contains(got, "GROUP BY 1") {
		t.Errorf("got %q", got)
	}
}

func TestToSQLAggregationWithHaving(t *testing.T) {
	t.Parallel()
	tbl := ir.NewPhysicalTable("t", ir.Column{Name: "a"}, ir.Column{Name: "b"})
	a := tbl.Col("a")
	sumB := ir.NewUnaryOp(ir.Sum, tbl.Col("b"))
	agg := &ir.Aggregation{
		Table: tbl, By: []ir.Scalar{a}, AggExprs: []ir.Scalar{sumB},
		Having: []ir.Scalar{ir.NewBinaryOp(ir.Greater, sumB, ir.NewLiteral(10))},
	}

	ast, err := BuildAST(agg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ast.Primary().Having) != 1 {
		t.Errorf("expected Having to carry through to the built Select")
	}
}

// --- S5: inner join ---

func TestToSQLInnerJoin(t *testing.T) {
	t.Parallel()
	t1 := ir.NewPhysicalTable("t1", ir.Column{Name: "k"})
	t2 := ir.NewPhysicalTable("t2", ir.Column{Name: "k"})
	j := &ir.Join{Kind: ir.InnerJoin, Left: t1, Right: t2, Predicates: []ir.Scalar{
		ir.NewBinaryOp(ir.Equals, t1.Col("k"), t2.Col("k")),
	}}

	got, err := ToSQL(j)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "SELECT t0.*, t0.*\nFROM t1 t0\n  INNER JOIN t2 t1\n    ON t0.k = t1.k"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

// TestToSQLChainOfThreeLeftLeaningJoins exercises the real construction
// path for a 3-table join: only the outer *ir.Join is ever materialized
// (by buildRelationRoot), so the inner join stays a plain *ir.Join, just
// as it would coming out of cmd/relq's applyJoin for
// "t1.inner_join(t2, p1).left_join(t3, p2)".
func TestToSQLChainOfThreeLeftLeaningJoins(t *testing.T) {
	t.Parallel()
	t1 := ir.NewPhysicalTable("t1", ir.Column{Name: "k"})
	t2 := ir.NewPhysicalTable("t2", ir.Column{Name: "k"})
	t3 := ir.NewPhysicalTable("t3", ir.Column{Name: "k"})
	inner := &ir.Join{Kind: ir.InnerJoin, Left: t1, Right: t2, Predicates: []ir.Scalar{
		ir.NewBinaryOp(ir.Equals, t1.Col("k"), t2.Col("k")),
	}}
	outer := &ir.Join{Kind: ir.LeftJoin, Left: inner, Right: t3, Predicates: []ir.Scalar{
		ir.NewBinaryOp(ir.Equals, t2.Col("k"), t3.Col("k")),
	}}

	got, err := ToSQL(outer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "SELECT t0.*, t0.*\nFROM t1 t0\n  INNER JOIN t2 t1\n    ON t0.k = t1.k\n  LEFT OUTER JOIN t3 t2\n    ON t1.k = t2.k"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestToSQLJoinOfJoinIsUnsupported(t *testing.T) {
	t.Parallel()
	t1 := ir.NewPhysicalTable("t1")
	t2 := ir.NewPhysicalTable("t2")
	t3 := ir.NewPhysicalTable("t3")
	rightJoin := &ir.Join{Kind: ir.InnerJoin, Left: t2, Right: t3}
	outer := &ir.Join{Kind: ir.InnerJoin, Left: t1, Right: rightJoin}

	_, err := ToSQL(outer)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for a join-of-join, got %v", err)
	}
}

// --- S6: boolean negation precedence ---

func TestToSQLBooleanNegationPrecedence(t *testing.T) {
	t.Parallel()
	tbl := ir.NewPhysicalTable("t", ir.Column{Name: "a"}, ir.Column{Name: "b"})
	and := ir.NewBinaryOp(ir.And, tbl.Col("a"), tbl.Col("b"))
	negated := ir.NewUnaryOp(ir.Negate, and)

	got, err := ToSQL(negated)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "SELECT NOT (a AND b)") {
		t.Errorf("got %q", got)
	}
}

// --- Required failure cases ---

func TestToSQLParameterRootIsUnsupported(t *testing.T) {
	t.Parallel()
	_, err := ToSQL(ir.NewParameter("p"))
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for a bare Parameter root, got %v", err)
	}
}

// --- Idempotency / determinism ---

func TestGetResultIsIdempotent(t *testing.T) {
	t.Parallel()
	tbl := ir.NewPhysicalTable("t", ir.Column{Name: "x"})
	b := NewQueryASTBuilder(tbl)

	first, err1 := b.GetResult()
	second, err2 := b.GetResult()
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if first != second {
		t.Error("expected GetResult to return the same cached AST on repeated calls")
	}
}

func TestToSQLDeterministicAcrossRuns(t *testing.T) {
	t.Parallel()
	build := func() (string, error) {
		tbl := ir.NewPhysicalTable("t", ir.Column{Name: "a"}, ir.Column{Name: "b"})
		var rel ir.Relation = tbl
		rel = &ir.Filter{Table: rel, Predicates: []ir.Scalar{ir.NewBinaryOp(ir.Greater, tbl.Col("a"), ir.NewLiteral(1))}}
		return ToSQL(rel)
	}
	a, err := build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Errorf("expected deterministic compilation of structurally identical trees, got %q vs %q", a, b)
	}
}
