package compiler

import "github.com/bawdo/relq/ir"

// QueryContext assigns and remembers the per-relation alias ("t0", "t1",
// ...) used to disambiguate column references throughout one
// compilation. Identity is keyed on the relation node itself (Go
// interface/pointer equality), not on table name, so two distinct
// relations with the same textual name still get distinct aliases.
//
// A QueryContext must not be shared across concurrent compilations: its
// alias map is grown during Select.PopulateContext and is read-only
// thereafter, with no internal locking.
type QueryContext struct {
	aliases map[ir.Relation]string
	order   []ir.Relation
}

// NewQueryContext returns an empty QueryContext ready for one compilation.
func NewQueryContext() *QueryContext {
	return &QueryContext{aliases: make(map[ir.Relation]string)}
}

// HasAlias reports whether rel already has an alias bound.
func (c *QueryContext) HasAlias(rel ir.Relation) bool {
	_, ok := c.aliases[rel]
	return ok
}

// MakeAlias allocates the next alias ("t" + current count) and binds it
// to rel. Calling it twice for the same relation is a caller error (not
// checked here) per spec.md §4.1: callers must guard with HasAlias first.
func (c *QueryContext) MakeAlias(rel ir.Relation) string {
	alias := formatAlias(len(c.order))
	c.SetAlias(rel, alias)
	return alias
}

// SetAlias explicitly binds rel to name, e.g. for a caller-named subquery.
func (c *QueryContext) SetAlias(rel ir.Relation, name string) {
	if !c.HasAlias(rel) {
		c.order = append(c.order, rel)
	}
	c.aliases[rel] = name
}

// GetAlias returns the alias bound to rel, or "" if none is bound — the
// sentinel "not present" value a caller must check for via HasAlias
// before relying on the result.
func (c *QueryContext) GetAlias(rel ir.Relation) string {
	return c.aliases[rel]
}

// NeedAliases reports whether two or more aliases are currently bound.
// It governs whether column references are emitted qualified
// ("alias.col") and whether "*" entries render as "alias.*" or "*".
func (c *QueryContext) NeedAliases() bool {
	return len(c.aliases) > 1
}

func formatAlias(k int) string {
	// "t" + base-10 k, written out without fmt to keep this hot path
	// allocation-free for the common small-k case.
	if k == 0 {
		return "t0"
	}
	digits := [20]byte{}
	pos := len(digits)
	for k > 0 {
		pos--
		digits[pos] = byte('0' + k%10)
		k /= 10
	}
	return "t" + string(digits[pos:])
}
