package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bawdo/relq/ir"
)

const defaultIndent = 2
const selectLineWrap = 70

// Select is a normalized select-statement shape: one table_set, an
// ordered projection list, and the usual WHERE/GROUP BY/HAVING/ORDER
// BY/LIMIT clauses. It is a value record assembled once by
// QueryASTBuilder and rendered once; nothing mutates it after Render
// begins except the shared QueryContext's alias map.
type Select struct {
	TableSet   ir.Relation
	SelectSet  []ir.Node // each entry is ir.Scalar (value) or ir.Relation ("*" expansion)
	Where      []ir.Scalar
	GroupBy    []ir.Scalar
	Having     []ir.Scalar
	OrderBy    []ir.SortKey
	Limit      *ir.LimitSpec
	Subqueries []*Select // always empty in this core; slot reserved for future CTE support
	ParentExpr ir.Node   // the root user expression, for result-shape classification
	Indent     int
}

// NewSelect constructs a Select with the default indent width.
func NewSelect(tableSet ir.Relation, selectSet []ir.Node) *Select {
	return &Select{TableSet: tableSet, SelectSet: selectSet, Indent: defaultIndent}
}

// PopulateContext recursively populates subqueries' contexts, then
// allocates an alias for each root table of TableSet. The order roots
// are visited determines alias numbers, so it must follow the same
// left-to-right depth-first order ir.RootTables reports.
func (s *Select) PopulateContext(ctx *QueryContext) {
	for _, sub := range s.Subqueries {
		sub.PopulateContext(ctx)
	}
	for _, root := range ir.RootTables(s.TableSet) {
		if !ctx.HasAlias(root) {
			ctx.MakeAlias(root)
		}
	}
}

// Compile renders the full SELECT statement against ctx (a fresh
// QueryContext is created if nil).
func (s *Select) Compile(ctx *QueryContext) (string, error) {
	if ctx == nil {
		ctx = NewQueryContext()
	}
	s.PopulateContext(ctx)

	// format_subqueries is a reproduced no-op: subqueries are accepted
	// structurally (the Subqueries field exists) but never rendered,
	// matching the original compiler's format_subqueries stub.
	withFrag := ""

	selectFrag, err := s.formatSelectSet(ctx)
	if err != nil {
		return "", err
	}
	fromFrag, err := s.formatTableSet(ctx)
	if err != nil {
		return "", err
	}
	whereFrag, err := s.formatWhere(ctx)
	if err != nil {
		return "", err
	}
	groupByFrag, err := s.formatGroupBy(ctx)
	if err != nil {
		return "", err
	}
	postFrag, err := s.formatPostamble(ctx)
	if err != nil {
		return "", err
	}

	return joinNonEmpty("\n", withFrag, selectFrag, fromFrag, whereFrag, groupByFrag, postFrag), nil
}

func joinNonEmpty(sep string, pieces ...string) string {
	var kept []string
	for _, p := range pieces {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func (s *Select) formatSelectSet(ctx *QueryContext) (string, error) {
	formatted := make([]string, len(s.SelectSet))
	for i, entry := range s.SelectSet {
		switch v := entry.(type) {
		case ir.Scalar:
			str, err := NewExprTranslator(v, ctx, true).GetResult()
			if err != nil {
				return "", err
			}
			formatted[i] = str
		case ir.Relation:
			formatted[i] = s.formatStar(ctx, v)
		default:
			return "", fmt.Errorf("%w: select-set entry of unrecognized kind %T", ErrUnsupported, entry)
		}
	}

	var buf strings.Builder
	lineLength := 0
	for i, val := range formatted {
		switch {
		case strings.Contains(val, "\n"):
			if i > 0 {
				buf.WriteString(",")
			}
			buf.WriteString("\n")
			buf.WriteString(indentText(val, s.indent()))
			buf.WriteString("\n")
			lineLength = 0
		case lineLength > 0 && len(val)+lineLength > selectLineWrap:
			if i > 0 {
				buf.WriteString(",\n")
			} else {
				buf.WriteString("\n")
			}
			buf.WriteString(val)
			lineLength = len(val)
		default:
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(val)
			lineLength += len(val) + 2
		}
	}

	return "SELECT " + buf.String(), nil
}

// formatStar renders one select-set "*" entry. rel may be a bare base
// table (the common case) or, for a nested left-leaning join chain, the
// unmaterialized *ir.Join that classify's MaterializedJoin case repeats
// into the select set as "the left side" — only its leftmost leaf table
// ever received an alias from PopulateContext, so the alias lookup
// resolves through RootTables rather than on rel's own identity.
func (s *Select) formatStar(ctx *QueryContext, rel ir.Relation) string {
	if ctx.NeedAliases() {
		return ctx.GetAlias(starAliasTarget(rel)) + ".*"
	}
	return "*"
}

func starAliasTarget(rel ir.Relation) ir.Relation {
	roots := ir.RootTables(rel)
	if len(roots) == 0 {
		return rel
	}
	return roots[0]
}

func (s *Select) formatTableSet(ctx *QueryContext) (string, error) {
	if mj, ok := s.TableSet.(*ir.MaterializedJoin); ok {
		frag, err := newJoinFormatter(ctx, mj, s.indent()).Result()
		if err != nil {
			return "", err
		}
		return "FROM " + frag, nil
	}

	name, ok := relationName(s.TableSet)
	if !ok {
		return "", fmt.Errorf("%w: table did not have a name: %#v", ErrRelation, s.TableSet)
	}
	if ctx.NeedAliases() {
		name = name + " " + ctx.GetAlias(s.TableSet)
	}
	return "FROM " + name, nil
}

// relationName returns the underlying SQL name of a relation usable
// directly in a FROM clause, or false if it has none (a compound
// relation such as a bare Projection/Aggregation, which this core
// cannot render as a subquery).
func relationName(rel ir.Relation) (string, bool) {
	if t, ok := rel.(*ir.PhysicalTable); ok {
		return t.Name, true
	}
	return "", false
}

func (s *Select) formatWhere(ctx *QueryContext) (string, error) {
	if len(s.Where) == 0 {
		return "", nil
	}
	preds := make([]string, len(s.Where))
	for i, p := range s.Where {
		str, err := NewExprTranslator(p, ctx, false).GetResult()
		if err != nil {
			return "", err
		}
		preds[i] = str
	}
	return "WHERE " + strings.Join(preds, " AND\n      "), nil
}

func (s *Select) formatGroupBy(ctx *QueryContext) (string, error) {
	if len(s.GroupBy) == 0 {
		return "", nil
	}
	for i, expr := range s.GroupBy {
		if i >= len(s.SelectSet) || !ir.Equals(asNode(expr), s.SelectSet[i]) {
			return "", fmt.Errorf("%w: select was improperly formed (group_by is not a prefix of select_set)", ErrInternal)
		}
	}
	parts := make([]string, len(s.GroupBy))
	for i := range s.GroupBy {
		parts[i] = strconv.Itoa(i + 1)
	}
	return "GROUP BY " + strings.Join(parts, ", "), nil
}

func asNode(s ir.Scalar) ir.Node { return s }

func (s *Select) formatPostamble(ctx *QueryContext) (string, error) {
	var buf strings.Builder
	lines := 0

	if len(s.OrderBy) > 0 {
		buf.WriteString("ORDER BY ")
		parts := make([]string, len(s.OrderBy))
		for i, key := range s.OrderBy {
			translated, err := NewExprTranslator(key.Expr, ctx, false).GetResult()
			if err != nil {
				return "", err
			}
			if !key.Ascending {
				translated += " DESC"
			}
			parts[i] = translated
		}
		buf.WriteString(strings.Join(parts, ", "))
		lines++
	}

	if s.Limit != nil {
		if lines > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString("LIMIT " + strconv.Itoa(s.Limit.N))
		if s.Limit.Offset != 0 {
			buf.WriteString(" OFFSET " + strconv.Itoa(s.Limit.Offset))
		}
		lines++
	}

	if lines == 0 {
		return "", nil
	}
	return buf.String(), nil
}

func (s *Select) indent() int {
	if s.Indent == 0 {
		return defaultIndent
	}
	return s.Indent
}

func indentText(text string, width int) string {
	prefix := strings.Repeat(" ", width)
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// Equals compares two Selects structurally over
// {select_set, table_set, where, group_by, having, order_by, subqueries,
// limit}; list fields zip pairwise and compare elements via IR structural
// equality.
func (s *Select) Equals(other *Select) bool {
	if other == nil {
		return false
	}
	if !limitEquals(s.Limit, other.Limit) {
		return false
	}
	if !ir.Equals(s.TableSet, other.TableSet) {
		return false
	}
	if !nodeListEquals(s.SelectSet, other.SelectSet) {
		return false
	}
	if !scalarListEquals(s.Where, other.Where) {
		return false
	}
	if !scalarListEquals(s.GroupBy, other.GroupBy) {
		return false
	}
	if !scalarListEquals(s.Having, other.Having) {
		return false
	}
	if len(s.OrderBy) != len(other.OrderBy) {
		return false
	}
	for i := range s.OrderBy {
		if s.OrderBy[i].Ascending != other.OrderBy[i].Ascending ||
			!ir.Equals(s.OrderBy[i].Expr, other.OrderBy[i].Expr) {
			return false
		}
	}
	if len(s.Subqueries) != len(other.Subqueries) {
		return false
	}
	for i := range s.Subqueries {
		if !s.Subqueries[i].Equals(other.Subqueries[i]) {
			return false
		}
	}
	return true
}

func limitEquals(a, b *ir.LimitSpec) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func nodeListEquals(a, b []ir.Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !ir.Equals(a[i], b[i]) {
			return false
		}
	}
	return true
}

func scalarListEquals(a, b []ir.Scalar) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !ir.Equals(a[i], b[i]) {
			return false
		}
	}
	return true
}

// resultShape classifies the shape adaptResult would report the query's
// result as, by inspecting ParentExpr.
type resultShape int

const (
	shapeUnknown resultShape = iota
	shapeTable
	shapeScalar
)

// adaptResult is a reproduced stub: the original compiler's
// adapt_result has a typo (aresult_type instead of result_type) and
// never returns a value, and is never reached by the compile path.
// Preserved as dead code per spec.md §9 rather than silently fixed.
func (s *Select) adaptResult() { //nolint:unused
	var aresultType resultShape
	switch s.ParentExpr.(type) {
	case ir.Relation:
		_ = shapeTable
	default:
		_ = shapeScalar
	}
	_ = aresultType
}
