package compiler

import (
	"fmt"
	"strings"

	"github.com/bawdo/relq/ir"
)

// joinKindSQL names the SQL keyword phrase for each join kind.
var joinKindSQL = map[ir.JoinKind]string{
	ir.InnerJoin:    "INNER JOIN",
	ir.LeftJoin:     "LEFT OUTER JOIN",
	ir.RightJoin:    "RIGHT OUTER JOIN",
	ir.OuterJoin:    "FULL OUTER JOIN",
	ir.LeftAntiJoin: "LEFT ANTI JOIN",
	ir.LeftSemiJoin: "LEFT SEMI JOIN",
	ir.CrossJoin:    "CROSS JOIN",
}

// joinFormatter linearizes one left-leaning join tree into a FROM-clause
// fragment: a base table followed, per join step, by a "<KIND> JOIN <table>"
// line indented under the base line and, when the step has predicates, an
// "ON <preds>" line indented below it.
type joinFormatter struct {
	ctx    *QueryContext
	root   *ir.MaterializedJoin
	indent int
}

func newJoinFormatter(ctx *QueryContext, root *ir.MaterializedJoin, indent int) *joinFormatter {
	return &joinFormatter{ctx: ctx, root: root, indent: indent}
}

// joinStep is one linearized join: everything to its left has already
// been rendered as the accumulating base, and right is the table this
// step brings in.
type joinStep struct {
	kind  ir.JoinKind
	right ir.Relation
	preds []ir.Scalar
}

// Result renders the full FROM-clause fragment, or ErrUnsupported if the
// join tree isn't left-leaning (a join whose right side is itself a join
// cannot be linearized by this walk; the left side may nest arbitrarily
// many joins, materialized or not, as long as each one's right side is a
// base relation).
//
// Layout: the base table, then for each join step a line indented once
// with "<KIND> <table>", and, when it carries predicates, a further line
// indented twice with "ON p1 AND\n   p2" (the continuation aligns three
// spaces past the doubled indent, under "ON ").
func (f *joinFormatter) Result() (string, error) {
	base, steps, err := f.linearize(f.root)
	if err != nil {
		return "", err
	}

	baseName, err := f.renderSide(base)
	if err != nil {
		return "", err
	}

	kindPrefix := strings.Repeat(" ", f.indent)
	onPrefix := strings.Repeat(" ", f.indent*2)
	contPrefix := onPrefix + "   "

	var buf strings.Builder
	buf.WriteString(baseName)
	for _, step := range steps {
		rightName, err := f.renderSide(step.right)
		if err != nil {
			return "", err
		}
		kw, ok := joinKindSQL[step.kind]
		if !ok {
			return "", fmt.Errorf("%w: no SQL keyword for join kind %s", ErrUnsupported, step.kind)
		}
		buf.WriteString("\n")
		buf.WriteString(kindPrefix)
		buf.WriteString(kw)
		buf.WriteString(" ")
		buf.WriteString(rightName)

		if len(step.preds) > 0 {
			preds := make([]string, len(step.preds))
			for i, p := range step.preds {
				str, err := NewExprTranslator(p, f.ctx, false).GetResult()
				if err != nil {
					return "", err
				}
				preds[i] = str
			}
			buf.WriteString("\n")
			buf.WriteString(onPrefix)
			buf.WriteString("ON ")
			buf.WriteString(strings.Join(preds, " AND\n"+contPrefix))
		}
	}
	return buf.String(), nil
}

// linearize walks a left-leaning join tree depth-first, peeling join
// steps off the right side and descending into left. Only the root
// needs to be a *ir.MaterializedJoin (QueryASTBuilder commits a schema
// for the outermost join only); nested joins in the chain are plain,
// unmaterialized *ir.Join, so the descent treats both kinds the same
// way isJoinRelation already does. The walk rejects one non-linear
// shape as Unsupported: a join whose right subtree is itself a join
// (join-of-join). The first non-join relation reached on the left is
// taken as the base, whatever its kind; a base without a table name is
// rejected later, by renderSide, with ErrRelation.
func (f *joinFormatter) linearize(node *ir.MaterializedJoin) (ir.Relation, []joinStep, error) {
	var steps []joinStep
	var cur ir.Relation = node

	for {
		kind, left, right, preds, ok := joinFields(cur)
		if !ok {
			break
		}
		if isJoinRelation(right) {
			return nil, nil, fmt.Errorf("%w: join tree is not left-leaning (right side is itself a join)", ErrUnsupported)
		}
		steps = append([]joinStep{{kind: kind, right: right, preds: preds}}, steps...)
		cur = left
	}

	if isJoinRelation(cur) {
		return nil, nil, fmt.Errorf("%w: join tree could not be linearized", ErrUnsupported)
	}

	return cur, steps, nil
}

func isJoinRelation(rel ir.Relation) bool {
	switch rel.(type) {
	case *ir.Join, *ir.MaterializedJoin:
		return true
	default:
		return false
	}
}

// joinFields extracts a join node's fields regardless of whether it has
// been committed to a schema (*ir.MaterializedJoin) or is still a plain
// *ir.Join; ok is false for any other relation kind.
func joinFields(rel ir.Relation) (kind ir.JoinKind, left, right ir.Relation, preds []ir.Scalar, ok bool) {
	switch j := rel.(type) {
	case *ir.MaterializedJoin:
		return j.Kind, j.Left, j.Right, j.Predicates, true
	case *ir.Join:
		return j.Kind, j.Left, j.Right, j.Predicates, true
	default:
		return 0, nil, nil, nil, false
	}
}

func (f *joinFormatter) renderSide(rel ir.Relation) (string, error) {
	name, ok := relationName(rel)
	if !ok {
		return "", fmt.Errorf("%w: table did not have a name: %#v", ErrRelation, rel)
	}
	if f.ctx.NeedAliases() {
		return name + " " + f.ctx.GetAlias(rel), nil
	}
	return name, nil
}
