package compiler

import (
	"testing"

	"github.com/bawdo/relq/ir"
)

func TestMakeAliasAllocatesSequentially(t *testing.T) {
	t.Parallel()
	ctx := NewQueryContext()
	t1 := ir.NewPhysicalTable("t1")
	t2 := ir.NewPhysicalTable("t2")

	if got := ctx.MakeAlias(t1); got != "t0" {
		t.Errorf("expected first alias t0, got %q", got)
	}
	if got := ctx.MakeAlias(t2); got != "t1" {
		t.Errorf("expected second alias t1, got %q", got)
	}
}

func TestHasAliasAndGetAlias(t *testing.T) {
	t.Parallel()
	ctx := NewQueryContext()
	tbl := ir.NewPhysicalTable("t")

	if ctx.HasAlias(tbl) {
		t.Error("expected no alias bound yet")
	}
	ctx.MakeAlias(tbl)
	if !ctx.HasAlias(tbl) {
		t.Error("expected alias to be bound after MakeAlias")
	}
	if ctx.GetAlias(tbl) != "t0" {
		t.Errorf("expected t0, got %q", ctx.GetAlias(tbl))
	}
}

func TestNeedAliasesRequiresTwoOrMoreBindings(t *testing.T) {
	t.Parallel()
	ctx := NewQueryContext()
	t1 := ir.NewPhysicalTable("t1")
	t2 := ir.NewPhysicalTable("t2")

	if ctx.NeedAliases() {
		t.Error("expected false with zero aliases bound")
	}
	ctx.MakeAlias(t1)
	if ctx.NeedAliases() {
		t.Error("expected false with exactly one alias bound")
	}
	ctx.MakeAlias(t2)
	if !ctx.NeedAliases() {
		t.Error("expected true with two aliases bound")
	}
}

func TestDistinctRelationsWithSameNameGetDistinctAliases(t *testing.T) {
	t.Parallel()
	ctx := NewQueryContext()
	a := ir.NewPhysicalTable("users")
	b := ir.NewPhysicalTable("users")

	aliasA := ctx.MakeAlias(a)
	aliasB := ctx.MakeAlias(b)
	if aliasA == aliasB {
		t.Error("expected two distinct relation instances to receive distinct aliases even with the same table name")
	}
}
