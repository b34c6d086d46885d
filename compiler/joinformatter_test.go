package compiler

import (
	"errors"
	"testing"

	"github.com/bawdo/relq/ir"
)

func TestJoinFormatterSingleInnerJoin(t *testing.T) {
	t.Parallel()
	t1 := ir.NewPhysicalTable("t1", ir.Column{Name: "k"})
	t2 := ir.NewPhysicalTable("t2", ir.Column{Name: "k"})
	j := &ir.Join{Kind: ir.InnerJoin, Left: t1, Right: t2, Predicates: []ir.Scalar{
		ir.NewBinaryOp(ir.Equals, t1.Col("k"), t2.Col("k")),
	}}
	sel := NewSelect(j.Materialize(), []ir.Node{ir.Relation(t1), ir.Relation(t1)})

	got, err := sel.Compile(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "SELECT t0.*, t0.*\nFROM t1 t0\n  INNER JOIN t2 t1\n    ON t0.k = t1.k"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestJoinFormatterChainOfThreeLeftLeaning(t *testing.T) {
	t.Parallel()
	t1 := ir.NewPhysicalTable("t1", ir.Column{Name: "k"})
	t2 := ir.NewPhysicalTable("t2", ir.Column{Name: "k"})
	t3 := ir.NewPhysicalTable("t3", ir.Column{Name: "k"})
	first := &ir.Join{Kind: ir.InnerJoin, Left: t1, Right: t2, Predicates: []ir.Scalar{
		ir.NewBinaryOp(ir.Equals, t1.Col("k"), t2.Col("k")),
	}}
	second := &ir.Join{Kind: ir.LeftJoin, Left: first.Materialize(), Right: t3, Predicates: []ir.Scalar{
		ir.NewBinaryOp(ir.Equals, t2.Col("k"), t3.Col("k")),
	}}

	ctx := NewQueryContext()
	ctx.MakeAlias(t1)
	ctx.MakeAlias(t2)
	ctx.MakeAlias(t3)
	frag, err := newJoinFormatter(ctx, second.Materialize(), defaultIndent).Result()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "t1 t0\n  INNER JOIN t2 t1\n    ON t0.k = t1.k\n  LEFT OUTER JOIN t3 t2\n    ON t1.k = t2.k"
	if frag != want {
		t.Errorf("got:\n%s\nwant:\n%s", frag, want)
	}
}

func TestJoinFormatterCrossJoinHasNoOnClause(t *testing.T) {
	t.Parallel()
	t1 := ir.NewPhysicalTable("t1")
	t2 := ir.NewPhysicalTable("t2")
	j := &ir.Join{Kind: ir.CrossJoin, Left: t1, Right: t2}

	ctx := NewQueryContext()
	ctx.MakeAlias(t1)
	ctx.MakeAlias(t2)
	frag, err := newJoinFormatter(ctx, j.Materialize(), defaultIndent).Result()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "t1 t0\n  CROSS JOIN t2 t1"
	if frag != want {
		t.Errorf("got:\n%s\nwant:\n%s", frag, want)
	}
}

func TestJoinFormatterRejectsJoinOfJoinOnRightSide(t *testing.T) {
	t.Parallel()
	t1 := ir.NewPhysicalTable("t1")
	t2 := ir.NewPhysicalTable("t2")
	t3 := ir.NewPhysicalTable("t3")
	rightJoin := (&ir.Join{Kind: ir.InnerJoin, Left: t2, Right: t3}).Materialize()
	outer := &ir.Join{Kind: ir.InnerJoin, Left: t1, Right: rightJoin}

	ctx := NewQueryContext()
	_, err := newJoinFormatter(ctx, outer.Materialize(), defaultIndent).Result()
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for a join whose right side is itself a join, got %v", err)
	}
}

func TestJoinFormatterRejectsUnmaterializedJoinOnRightSide(t *testing.T) {
	t.Parallel()
	t1 := ir.NewPhysicalTable("t1")
	t2 := ir.NewPhysicalTable("t2")
	t3 := ir.NewPhysicalTable("t3")
	// An un-Materialize()'d *ir.Join nested on the right is rejected the
	// same way a MaterializedJoin is: isJoinRelation matches both kinds.
	rightJoin := &ir.Join{Kind: ir.InnerJoin, Left: t2, Right: t3}
	outer := &ir.Join{Kind: ir.InnerJoin, Left: t1, Right: rightJoin}

	ctx := NewQueryContext()
	_, err := newJoinFormatter(ctx, outer.Materialize(), defaultIndent).Result()
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestJoinFormatterUnnamedJoinSideIsRelationError(t *testing.T) {
	t.Parallel()
	t1 := ir.NewPhysicalTable("t1", ir.Column{Name: "x"})
	proj := &ir.Projection{Table: t1, Selections: []ir.Node{t1.Col("x")}}
	t2 := ir.NewPhysicalTable("t2")
	j := &ir.Join{Kind: ir.InnerJoin, Left: proj, Right: t2}

	ctx := NewQueryContext()
	_, err := newJoinFormatter(ctx, j.Materialize(), defaultIndent).Result()
	if !errors.Is(err, ErrRelation) {
		t.Fatalf("expected ErrRelation for an unnamed join side, got %v", err)
	}
}
