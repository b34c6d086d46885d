package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/bawdo/relq/ir"
)

func TestCompileBareTableRendersSelectStarFrom(t *testing.T) {
	t.Parallel()
	tbl := ir.NewPhysicalTable("t")
	sel := NewSelect(tbl, []ir.Node{ir.Relation(tbl)})

	got, err := sel.Compile(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "SELECT *\nFROM t"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCompileProjectionWithWhereOrderByLimit(t *testing.T) {
	t.Parallel()
	tbl := ir.NewPhysicalTable("t", ir.Column{Name: "x"})
	x := tbl.Col("x")
	sel := NewSelect(tbl, []ir.Node{ir.Relation(tbl)})
	sel.Where = []ir.Scalar{ir.NewBinaryOp(ir.Greater, x, ir.NewLiteral(5))}
	sel.OrderBy = []ir.SortKey{{Expr: x, Ascending: true}}
	sel.Limit = &ir.LimitSpec{N: 10}

	got, err := sel.Compile(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "SELECT *\nFROM t\nWHERE x > 5\nORDER BY x\nLIMIT 10"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCompileLimitWithOffset(t *testing.T) {
	t.Parallel()
	tbl := ir.NewPhysicalTable("t")
	sel := NewSelect(tbl, []ir.Node{ir.Relation(tbl)})
	sel.Limit = &ir.LimitSpec{N: 10, Offset: 20}

	got, err := sel.Compile(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "LIMIT 10 OFFSET 20") {
		t.Errorf("expected LIMIT 10 OFFSET 20 clause, got %q", got)
	}
}

func TestCompileAggregationGroupByPosition(t *testing.T) {
	t.Parallel()
	tbl := ir.NewPhysicalTable("t", ir.Column{Name: "a"}, ir.Column{Name: "b"})
	a := tbl.Col("a")
	sumB := ir.NewUnaryOp(ir.Sum, tbl.Col("b"))
	sel := NewSelect(tbl, []ir.Node{a, sumB})
	sel.GroupBy = []ir.Scalar{a}

	got, err := sel.Compile(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "SELECT a, sum(b) AS sum") {
		t.Errorf("expected select list with positional aggregate alias, got %q", got)
	}
	if !strings.Contains(got, "GROUP BY 1") {
		t.Errorf("expected GROUP BY 1 (positional), got %q", got)
	}
}

func TestCompileGroupByNotPrefixOfSelectSetIsInternalError(t *testing.T) {
	t.Parallel()
	tbl := ir.NewPhysicalTable("t", ir.Column{Name: "a"}, ir.Column{Name: "b"})
	a := tbl.Col("a")
	b := tbl.Col("b")
	sel := NewSelect(tbl, []ir.Node{a})
	sel.GroupBy = []ir.Scalar{b} // not a prefix of select_set

	_, err := sel.Compile(nil)
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
}

func TestCompileStarWithMultipleRelationsIsAliasQualified(t *testing.T) {
	t.Parallel()
	t1 := ir.NewPhysicalTable("t1")
	t2 := ir.NewPhysicalTable("t2")
	mj := (&ir.Join{Kind: ir.InnerJoin, Left: t1, Right: t2}).Materialize()
	sel := NewSelect(mj, []ir.Node{ir.Relation(t1), ir.Relation(t1)})

	got, err := sel.Compile(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "SELECT t0.*, t0.*") {
		t.Errorf("expected alias-qualified star entries, got %q", got)
	}
}

func TestCompileRelationWithoutNameIsRelationError(t *testing.T) {
	t.Parallel()
	tbl := ir.NewPhysicalTable("t", ir.Column{Name: "x"})
	proj := &ir.Projection{Table: tbl, Selections: []ir.Node{tbl.Col("x")}}
	sel := NewSelect(proj, []ir.Node{proj.Col("x")})

	_, err := sel.Compile(nil)
	if !errors.Is(err, ErrRelation) {
		t.Fatalf("expected ErrRelation for an unnamed table_set, got %v", err)
	}
}

func TestSelectEqualsStructural(t *testing.T) {
	t.Parallel()
	tbl1 := ir.NewPhysicalTable("t", ir.Column{Name: "x"})
	tbl2 := ir.NewPhysicalTable("t", ir.Column{Name: "x"})

	a := NewSelect(tbl1, []ir.Node{ir.Relation(tbl1)})
	a.Where = []ir.Scalar{ir.NewBinaryOp(ir.Greater, tbl1.Col("x"), ir.NewLiteral(1))}

	b := NewSelect(tbl2, []ir.Node{ir.Relation(tbl2)})
	b.Where = []ir.Scalar{ir.NewBinaryOp(ir.Greater, tbl2.Col("x"), ir.NewLiteral(1))}

	if !a.Equals(b) {
		t.Error("expected two structurally identical Selects built from distinct instances to compare equal")
	}

	b.Where = []ir.Scalar{ir.NewBinaryOp(ir.Greater, tbl2.Col("x"), ir.NewLiteral(2))}
	if a.Equals(b) {
		t.Error("expected Selects with differing predicates to compare unequal")
	}
}
