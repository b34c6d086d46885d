package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bawdo/relq/ir"
)

// catalog tracks the physical tables a session has declared, by name.
type catalog struct {
	tables map[string]*ir.PhysicalTable
}

func newCatalog() *catalog {
	return &catalog{tables: make(map[string]*ir.PhysicalTable)}
}

func (c *catalog) define(name string, cols ...ir.Column) *ir.PhysicalTable {
	t := ir.NewPhysicalTable(name, cols...)
	c.tables[name] = t
	return t
}

// sortDesc wraps a scalar expression to mark it descending inside a
// sort_by(...)/order_by(...) argument list. It is a parser-only value,
// never an ir.Node: the parser unwraps it before anything reaches the
// builder.
type sortDesc struct {
	expr ir.Scalar
}

// groupedRelation is the intermediate value of "<rel>.group_by(...)",
// which only becomes an ir.Aggregation once ".aggregate(...)" follows.
// Like sortDesc, it is a parser-only value, not an ir.Node.
type groupedRelation struct {
	table ir.Relation
	by    []ir.Scalar
}

// tokenize splits a one-line expression into tokens: identifiers and
// numbers, quoted strings, and punctuation/operators (multi-char
// operators are recognised greedily).
func tokenize(input string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '\'':
			flush()
			j := i + 1
			var s strings.Builder
			for j < len(runes) && runes[j] != '\'' {
				s.WriteRune(runes[j])
				j++
			}
			tokens = append(tokens, "'"+s.String()+"'")
			i = j
		case ch == '(' || ch == ')' || ch == ',' || ch == '.':
			flush()
			tokens = append(tokens, string(ch))
		case ch == '=' && i+1 < len(runes) && runes[i+1] == '=':
			flush()
			tokens = append(tokens, "==")
			i++
		case ch == '!' && i+1 < len(runes) && runes[i+1] == '=':
			flush()
			tokens = append(tokens, "!=")
			i++
		case ch == '>' && i+1 < len(runes) && runes[i+1] == '=':
			flush()
			tokens = append(tokens, ">=")
			i++
		case ch == '<' && i+1 < len(runes) && runes[i+1] == '=':
			flush()
			tokens = append(tokens, "<=")
			i++
		case ch == '>' || ch == '<' || ch == '+' || ch == '-' || ch == '*' || ch == '/':
			flush()
			tokens = append(tokens, string(ch))
		case ch == ' ' || ch == '\t':
			flush()
		default:
			cur.WriteRune(ch)
		}
	}
	flush()
	return tokens
}

// exprParser is a small recursive-descent parser over the fluent,
// method-chained surface syntax used throughout this system's tests
// (e.g. "t.filter(t.x > 5).sort_by(t.x).limit(10)"). It parses and
// evaluates in one pass, directly constructing ir nodes rather than
// an intermediate syntax tree: there is no separate pass because every
// production has exactly one sensible ir shape. Intermediate chain
// values are typed `any` because two of them (groupedRelation, sortDesc)
// are parser-local markers, not ir nodes.
type exprParser struct {
	tokens []string
	pos    int
	cat    *catalog
	vars   map[string]ir.Node
}

func newExprParser(input string, cat *catalog, vars map[string]ir.Node) *exprParser {
	return &exprParser{tokens: tokenize(input), cat: cat, vars: vars}
}

func (p *exprParser) peek() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *exprParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *exprParser) expect(tok string) error {
	if p.peek() != tok {
		return fmt.Errorf("expected %q, found %q at token %d", tok, p.peek(), p.pos)
	}
	p.pos++
	return nil
}

// Parse consumes the whole input and returns the resulting ir node. It
// fails if the expression ends mid-chain on a parser-only marker value
// (e.g. "t.group_by(t.a)" with no trailing ".aggregate(...)").
func (p *exprParser) Parse() (ir.Node, error) {
	val, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("unexpected trailing input at token %d: %q", p.pos, p.peek())
	}
	node, ok := val.(ir.Node)
	if !ok {
		return nil, fmt.Errorf("incomplete expression: %T is not a finished relation or scalar", val)
	}
	return node, nil
}

func (p *exprParser) parseOr() (any, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek() == "or" {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left, err = combineBinary(left, ir.Or, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *exprParser) parseAnd() (any, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.peek() == "and" {
		p.next()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left, err = combineBinary(left, ir.And, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

var comparisonOps = map[string]ir.BinaryOpKind{
	"==": ir.Equals,
	"!=": ir.NotEquals,
	">=": ir.GreaterEqual,
	">":  ir.Greater,
	"<=": ir.LessEqual,
	"<":  ir.Less,
}

func (p *exprParser) parseComparison() (any, error) {
	left, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	if kind, ok := comparisonOps[p.peek()]; ok {
		p.next()
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		return combineBinary(left, kind, right)
	}
	return left, nil
}

func (p *exprParser) parseAdd() (any, error) {
	left, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for p.peek() == "+" || p.peek() == "-" {
		op := p.next()
		right, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		kind := ir.Add
		if op == "-" {
			kind = ir.Subtract
		}
		left, err = combineBinary(left, kind, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *exprParser) parseMul() (any, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek() == "*" || p.peek() == "/" {
		op := p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		kind := ir.Multiply
		if op == "/" {
			kind = ir.Divide
		}
		left, err = combineBinary(left, kind, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *exprParser) parseUnary() (any, error) {
	if p.peek() == "-" {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		scalar, err := asScalar(operand)
		if err != nil {
			return nil, err
		}
		return ir.NewUnaryOp(ir.Negate, scalar), nil
	}
	return p.parsePostfix()
}

func (p *exprParser) parsePostfix() (any, error) {
	val, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek() == "." {
		p.next()
		name := p.next()
		if name == "" {
			return nil, fmt.Errorf("expected a field or method name after '.'")
		}
		if p.peek() == "(" {
			p.next()
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			val, err = applyMethod(val, name, args)
			if err != nil {
				return nil, err
			}
			continue
		}
		val, err = applyField(val, name)
		if err != nil {
			return nil, err
		}
	}
	return val, nil
}

func (p *exprParser) parseArgList() ([]any, error) {
	var args []any
	if p.peek() == ")" {
		p.next()
		return args, nil
	}
	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.peek() == "," {
			p.next()
			continue
		}
		break
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *exprParser) parsePrimary() (any, error) {
	tok := p.next()
	switch {
	case tok == "":
		return nil, fmt.Errorf("unexpected end of expression")
	case tok == "(":
		val, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return val, nil
	case tok == "true":
		return ir.NewLiteral(true), nil
	case tok == "false":
		return ir.NewLiteral(false), nil
	case strings.HasPrefix(tok, "'"):
		return ir.NewLiteral(strings.Trim(tok, "'")), nil
	case isNumberToken(tok):
		return parseNumberLiteral(tok), nil
	default:
		if n, ok := p.vars[tok]; ok {
			return n, nil
		}
		if t, ok := p.cat.tables[tok]; ok {
			return t, nil
		}
		return nil, fmt.Errorf("unknown identifier %q", tok)
	}
}

func isNumberToken(tok string) bool {
	if tok == "" {
		return false
	}
	_, err := strconv.ParseFloat(tok, 64)
	return err == nil
}

func parseNumberLiteral(tok string) *ir.Literal {
	if n, err := strconv.Atoi(tok); err == nil {
		return ir.NewLiteral(n)
	}
	f, _ := strconv.ParseFloat(tok, 64)
	return ir.NewLiteral(f)
}

func asScalar(v any) (ir.Scalar, error) {
	if s, ok := v.(ir.Scalar); ok {
		return s, nil
	}
	return nil, fmt.Errorf("expected a scalar expression, found %T", v)
}

func asRelation(v any) (ir.Relation, error) {
	if r, ok := v.(ir.Relation); ok {
		return r, nil
	}
	return nil, fmt.Errorf("expected a relation, found %T", v)
}

func asScalars(vals []any) ([]ir.Scalar, error) {
	out := make([]ir.Scalar, len(vals))
	for i, v := range vals {
		s, err := asScalar(v)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func combineBinary(left any, kind ir.BinaryOpKind, right any) (any, error) {
	l, err := asScalar(left)
	if err != nil {
		return nil, err
	}
	r, err := asScalar(right)
	if err != nil {
		return nil, err
	}
	return ir.NewBinaryOp(kind, l, r), nil
}

func colOf(rel ir.Relation, name string) (*ir.TableColumn, error) {
	switch r := rel.(type) {
	case *ir.PhysicalTable:
		return r.Col(name), nil
	case *ir.Projection:
		return r.Col(name), nil
	case *ir.Aggregation:
		return r.Col(name), nil
	case *ir.MaterializedJoin:
		return r.Col(name), nil
	case *ir.SelfReference:
		return ir.NewTableColumn(r, name), nil
	default:
		return nil, fmt.Errorf("cannot reference a column on a %T", rel)
	}
}

func applyField(v any, name string) (any, error) {
	rel, err := asRelation(v)
	if err != nil {
		return nil, err
	}
	return colOf(rel, name)
}

var joinKindByMethod = map[string]ir.JoinKind{
	"inner_join": ir.InnerJoin,
	"left_join":  ir.LeftJoin,
	"right_join": ir.RightJoin,
	"outer_join": ir.OuterJoin,
	"semi_join":  ir.LeftSemiJoin,
	"anti_join":  ir.LeftAntiJoin,
	"cross_join": ir.CrossJoin,
}

var unaryMethodKind = map[string]ir.UnaryOpKind{
	"sum":     ir.Sum,
	"mean":    ir.Mean,
	"exp":     ir.Exp,
	"sqrt":    ir.Sqrt,
	"log":     ir.Log,
	"log2":    ir.Log2,
	"log10":   ir.Log10,
	"isnull":  ir.IsNull,
	"notnull": ir.NotNull,
}

func applyMethod(v any, name string, args []any) (any, error) {
	if kind, ok := unaryMethodKind[name]; ok {
		scalar, err := asScalar(v)
		if err != nil {
			return nil, err
		}
		return ir.NewUnaryOp(kind, scalar), nil
	}
	if kind, ok := joinKindByMethod[name]; ok {
		return applyJoin(v, kind, args)
	}

	switch name {
	case "filter", "where":
		rel, err := asRelation(v)
		if err != nil {
			return nil, err
		}
		preds, err := asScalars(args)
		if err != nil {
			return nil, err
		}
		return &ir.Filter{Table: rel, Predicates: preds}, nil

	case "limit":
		rel, err := asRelation(v)
		if err != nil {
			return nil, err
		}
		n, offset, err := limitArgs(args)
		if err != nil {
			return nil, err
		}
		return &ir.Limit{Table: rel, N: n, Offset: offset}, nil

	case "sort_by", "order_by":
		rel, err := asRelation(v)
		if err != nil {
			return nil, err
		}
		keys, err := sortKeys(args)
		if err != nil {
			return nil, err
		}
		return &ir.SortBy{Table: rel, Keys: keys}, nil

	case "group_by":
		rel, err := asRelation(v)
		if err != nil {
			return nil, err
		}
		by, err := asScalars(args)
		if err != nil {
			return nil, err
		}
		return groupedRelation{table: rel, by: by}, nil

	case "aggregate":
		aggExprs, err := asScalars(args)
		if err != nil {
			return nil, err
		}
		if g, ok := v.(groupedRelation); ok {
			return &ir.Aggregation{Table: g.table, By: g.by, AggExprs: aggExprs}, nil
		}
		rel, err := asRelation(v)
		if err != nil {
			return nil, err
		}
		return &ir.Aggregation{Table: rel, AggExprs: aggExprs}, nil

	case "having":
		agg, ok := v.(*ir.Aggregation)
		if !ok {
			return nil, fmt.Errorf("having() may only follow aggregate()")
		}
		having, err := asScalars(args)
		if err != nil {
			return nil, err
		}
		return &ir.Aggregation{Table: agg.Table, By: agg.By, AggExprs: agg.AggExprs, Having: having}, nil

	case "cast":
		scalar, err := asScalar(v)
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, fmt.Errorf("cast() takes exactly one type-name argument")
		}
		typeName, err := literalString(args[0])
		if err != nil {
			return nil, err
		}
		return ir.NewCast(scalar, typeName), nil

	case "as", "name":
		col, ok := v.(*ir.TableColumn)
		if !ok {
			return nil, fmt.Errorf("as()/name() may only follow a column reference")
		}
		if len(args) != 1 {
			return nil, fmt.Errorf("as()/name() takes exactly one alias argument")
		}
		alias, err := literalString(args[0])
		if err != nil {
			return nil, err
		}
		return col.As(alias), nil

	case "desc":
		scalar, err := asScalar(v)
		if err != nil {
			return nil, err
		}
		return sortDesc{expr: scalar}, nil

	case "xor":
		if len(args) != 1 {
			return nil, fmt.Errorf("xor() takes exactly one argument")
		}
		return combineBinary(v, ir.Xor, args[0])

	case "self":
		rel, err := asRelation(v)
		if err != nil {
			return nil, err
		}
		return &ir.SelfReference{Table: rel}, nil

	default:
		return nil, fmt.Errorf("unknown method %q", name)
	}
}

func applyJoin(v any, kind ir.JoinKind, args []any) (any, error) {
	rel, err := asRelation(v)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("%s() requires at least the other table", joinMethodName(kind))
	}
	other, err := asRelation(args[0])
	if err != nil {
		return nil, err
	}
	preds, err := asScalars(args[1:])
	if err != nil {
		return nil, err
	}
	return &ir.Join{Kind: kind, Left: rel, Right: other, Predicates: preds}, nil
}

func joinMethodName(kind ir.JoinKind) string {
	for name, k := range joinKindByMethod {
		if k == kind {
			return name
		}
	}
	return "join"
}

func limitArgs(args []any) (n, offset int, err error) {
	if len(args) < 1 || len(args) > 2 {
		return 0, 0, fmt.Errorf("limit() takes one or two integer arguments")
	}
	n, err = literalInt(args[0])
	if err != nil {
		return 0, 0, err
	}
	if len(args) == 2 {
		offset, err = literalInt(args[1])
		if err != nil {
			return 0, 0, err
		}
	}
	return n, offset, nil
}

func sortKeys(args []any) ([]ir.SortKey, error) {
	keys := make([]ir.SortKey, len(args))
	for i, a := range args {
		if d, ok := a.(sortDesc); ok {
			keys[i] = ir.SortKey{Expr: d.expr, Ascending: false}
			continue
		}
		s, err := asScalar(a)
		if err != nil {
			return nil, err
		}
		keys[i] = ir.SortKey{Expr: s, Ascending: true}
	}
	return keys, nil
}

func literalInt(v any) (int, error) {
	lit, ok := v.(*ir.Literal)
	if !ok {
		return 0, fmt.Errorf("expected an integer literal, found %T", v)
	}
	switch n := lit.Value.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected an integer literal, found %T", lit.Value)
	}
}

func literalString(v any) (string, error) {
	lit, ok := v.(*ir.Literal)
	if !ok {
		return "", fmt.Errorf("expected a string literal, found %T", v)
	}
	s, ok := lit.Value.(string)
	if !ok {
		return "", fmt.Errorf("expected a string literal, found %T", lit.Value)
	}
	return s, nil
}
