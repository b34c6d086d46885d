package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bawdo/relq/internal/quoting"
	"github.com/bawdo/relq/ir"
)

// unaryFuncSQL names the SQL function each scalar-valued unary operator
// lowers to (the "f(X)" family plus the two unary aggregates).
var unaryFuncSQL = map[ir.UnaryOpKind]string{
	ir.Exp:   "exp",
	ir.Sqrt:  "sqrt",
	ir.Log:   "log",
	ir.Log2:  "log2",
	ir.Log10: "log10",
	ir.Mean:  "avg",
	ir.Sum:   "sum",
}

// binaryInfixSQL names the SQL infix symbol each binary operator lowers
// to. Xor has no entry: it renders via decomposition, not a symbol.
var binaryInfixSQL = map[ir.BinaryOpKind]string{
	ir.Add:          "+",
	ir.Subtract:     "-",
	ir.Multiply:     "*",
	ir.Divide:       "/",
	ir.Power:        "^",
	ir.And:          "AND",
	ir.Or:           "OR",
	ir.Equals:       "=",
	ir.NotEquals:    "!=",
	ir.GreaterEqual: ">=",
	ir.Greater:      ">",
	ir.LessEqual:    "<=",
	ir.Less:         "<",
}

// castTypeSQL maps spec.md's language-neutral type names to SQL type
// keywords (spec.md §4.2 Cast).
var castTypeSQL = map[string]string{
	"int8":    "tinyint",
	"int16":   "smallint",
	"int32":   "int",
	"int64":   "bigint",
	"float":   "float",
	"double":  "double",
	"string":  "string",
	"boolean": "boolean",
}

// ExprTranslator lowers one scalar expression tree to a SQL fragment.
type ExprTranslator struct {
	expr  ir.Scalar
	ctx   *QueryContext
	named bool
}

// NewExprTranslator constructs a translator for expr against ctx
// (creating a fresh one if nil). named controls whether GetResult
// appends "AS <name>" for expressions that need one.
func NewExprTranslator(expr ir.Scalar, ctx *QueryContext, named bool) *ExprTranslator {
	if ctx == nil {
		ctx = NewQueryContext()
	}
	return &ExprTranslator{expr: expr, ctx: ctx, named: named}
}

// GetResult translates the translator's expression and, in named mode,
// appends "AS <name>" when the expression needs one: named mode is on
// and either the expression is not a plain column reference, or it is a
// column that has been renamed relative to its underlying field.
func (t *ExprTranslator) GetResult() (string, error) {
	translated, err := t.Translate(t.expr)
	if err != nil {
		return "", err
	}
	if t.needsName(t.expr) {
		translated = translated + " AS " + quoteField(displayName(t.expr))
	}
	return translated, nil
}

func (t *ExprTranslator) needsName(expr ir.Scalar) bool {
	if !t.named {
		return false
	}
	if col, ok := expr.(*ir.TableColumn); ok {
		return col.Alias != "" && col.Alias != col.Name
	}
	return true
}

// Translate lowers expr to a SQL fragment. Dispatch proceeds, in order:
// Literal, Parameter (always Unsupported), TableColumn, then the
// registered-operator families (unary, binary infix, Xor, Cast); any
// other node kind is Unsupported.
func (t *ExprTranslator) Translate(expr ir.Scalar) (string, error) {
	switch v := expr.(type) {
	case *ir.Literal:
		return t.translateLiteral(v)
	case *ir.Parameter:
		return "", fmt.Errorf("%w: parameter translation not implemented", ErrUnsupported)
	case *ir.TableColumn:
		return t.translateColumn(v)
	case *ir.UnaryOp:
		return t.translateUnary(v)
	case *ir.BinaryOp:
		return t.translateBinary(v)
	case *ir.Cast:
		return t.translateCast(v)
	default:
		return "", fmt.Errorf("%w: no translator rule for %T", ErrUnsupported, expr)
	}
}

func (t *ExprTranslator) translateLiteral(l *ir.Literal) (string, error) {
	typeclass, ok := l.Typeclass()
	if !ok {
		return "", fmt.Errorf("%w: literal of unknown typeclass %T", ErrUnsupported, l.Value)
	}
	switch typeclass {
	case "boolean":
		if l.Value.(bool) {
			return "TRUE", nil
		}
		return "FALSE", nil
	case "string":
		return "'" + strings.ReplaceAll(l.Value.(string), "'", `\'`) + "'", nil
	case "number":
		return formatNumber(l.Value), nil
	default:
		return "", fmt.Errorf("%w: literal of unknown typeclass %T", ErrUnsupported, l.Value)
	}
}

// formatNumber renders a numeric literal in a language-neutral,
// SQL-parseable form, matching the original compiler's use of Python's
// repr() for the same purpose.
func formatNumber(v any) string {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n)
	case int8:
		return strconv.FormatInt(int64(n), 10)
	case int16:
		return strconv.FormatInt(int64(n), 10)
	case int32:
		return strconv.FormatInt(int64(n), 10)
	case int64:
		return strconv.FormatInt(n, 10)
	case uint:
		return strconv.FormatUint(uint64(n), 10)
	case uint8:
		return strconv.FormatUint(uint64(n), 10)
	case uint16:
		return strconv.FormatUint(uint64(n), 10)
	case uint32:
		return strconv.FormatUint(uint64(n), 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case float32:
		return strconv.FormatFloat(float64(n), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", n)
	}
}

func (t *ExprTranslator) translateColumn(c *ir.TableColumn) (string, error) {
	field := quoteField(c.Name)
	if t.ctx.NeedAliases() {
		if !t.ctx.HasAlias(c.Table) {
			return "", fmt.Errorf("%w: no alias bound for relation owning column %q", ErrLookup, c.Name)
		}
		alias := t.ctx.GetAlias(c.Table)
		if alias != "" {
			field = alias + "." + field
		}
	}
	return field, nil
}

func (t *ExprTranslator) translateUnary(u *ir.UnaryOp) (string, error) {
	switch u.Op {
	case ir.IsNull:
		arg, err := t.Translate(u.Arg)
		if err != nil {
			return "", err
		}
		return arg + " IS NULL", nil
	case ir.NotNull:
		arg, err := t.Translate(u.Arg)
		if err != nil {
			return "", err
		}
		return arg + " IS NOT NULL", nil
	case ir.Negate:
		arg, err := t.Translate(u.Arg)
		if err != nil {
			return "", err
		}
		if needsParens(u.Arg) {
			arg = "(" + arg + ")"
		}
		if ir.IsBooleanScalar(u.Arg) {
			return "NOT " + arg, nil
		}
		return "-" + arg, nil
	default:
		fn, ok := unaryFuncSQL[u.Op]
		if !ok {
			return "", fmt.Errorf("%w: no translator rule for unary op %s", ErrUnsupported, u.Op)
		}
		arg, err := t.Translate(u.Arg)
		if err != nil {
			return "", err
		}
		return fn + "(" + arg + ")", nil
	}
}

func (t *ExprTranslator) translateBinary(b *ir.BinaryOp) (string, error) {
	left, err := t.Translate(b.Left)
	if err != nil {
		return "", err
	}
	right, err := t.Translate(b.Right)
	if err != nil {
		return "", err
	}
	if needsParens(b.Left) {
		left = "(" + left + ")"
	}
	if needsParens(b.Right) {
		right = "(" + right + ")"
	}

	if b.Op == ir.Xor {
		return fmt.Sprintf("(%s OR %s) AND NOT (%s AND %s)", left, right, left, right), nil
	}

	sym, ok := binaryInfixSQL[b.Op]
	if !ok {
		return "", fmt.Errorf("%w: no translator rule for binary op %s", ErrUnsupported, b.Op)
	}
	return left + " " + sym + " " + right, nil
}

func (t *ExprTranslator) translateCast(c *ir.Cast) (string, error) {
	arg, err := t.Translate(c.Value)
	if err != nil {
		return "", err
	}
	sqlType, ok := castTypeSQL[c.TargetType]
	if !ok {
		return "", fmt.Errorf("%w: no cast rule for target type %q", ErrUnsupported, c.TargetType)
	}
	return "CAST(" + arg + " AS " + sqlType + ")", nil
}

// needsParens reports whether child should be wrapped in parentheses
// when it appears inside a binary-infix operator or Negate: the
// binary-infix kinds and Negate itself. This is deliberately coarse per
// spec.md §4.2 — it overparenthesizes but never misbinds — and collapses
// the original's duplicated _needs_parens/_need_parenthesize_args into
// one predicate per spec.md §9.
func needsParens(s ir.Scalar) bool {
	switch v := s.(type) {
	case *ir.BinaryOp:
		return true
	case *ir.UnaryOp:
		return v.Op == ir.Negate
	default:
		return false
	}
}

// displayName returns the name an expression should be rendered under
// when GetResult appends "AS <name>".
func displayName(expr ir.Scalar) string {
	if col, ok := expr.(*ir.TableColumn); ok {
		return col.DisplayName()
	}
	if named, ok := expr.(interface{ DisplayName() string }); ok {
		return named.DisplayName()
	}
	return fallbackName(expr)
}

// fallbackName derives a deterministic name for a computed expression
// that doesn't carry an explicit one, echoing the original compiler's
// auto-naming of aggregate expressions (e.g. sum(b) -> "sum").
func fallbackName(expr ir.Scalar) string {
	switch v := expr.(type) {
	case *ir.UnaryOp:
		return strings.ToLower(v.Op.String())
	case *ir.BinaryOp:
		return strings.ToLower(v.Op.String())
	case *ir.Cast:
		return "cast"
	case *ir.Literal:
		return "literal"
	default:
		return "expr"
	}
}

// quoteField backtick-quotes name only when it contains a space,
// matching spec.md §4.2's TableColumn rendering rule.
func quoteField(name string) string {
	if strings.Contains(name, " ") {
		return quoting.Backtick(name)
	}
	return name
}

// TranslateExpr is the package-level convenience entry point (spec.md
// §6): directly lower a scalar expression to SQL.
func TranslateExpr(expr ir.Scalar, ctx *QueryContext, named bool) (string, error) {
	return NewExprTranslator(expr, ctx, named).GetResult()
}
