package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/qarray/internal/queryir"
)

// SQLCompiler renders QueryIR expressions to SQLite-flavoured SQL text.
//
// Rendering is a pure function of the tree: no parameters are collected,
// no parentheses are added, and operator precedence is the author's
// responsibility.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile renders an expression as a WHERE-clause fragment. The tree is
// validated first; an invalid tree yields an error wrapping
// queryir.ErrInvalidTree.
func (c *SQLCompiler) Compile(e queryir.Expr) (string, error) {
	if err := queryir.Validate(e); err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := c.write(&sb, e); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Statement renders the complete filter statement:
//
//	SELECT * FROM <table> WHERE <clause>;
func (c *SQLCompiler) Statement(table string, e queryir.Expr) (string, error) {
	if table == "" {
		return "", fmt.Errorf("cannot compile statement without a table name")
	}
	where, err := c.Compile(e)
	if err != nil {
		return "", fmt.Errorf("compile where clause: %w", err)
	}
	return fmt.Sprintf("SELECT * FROM %s WHERE %s;", table, where), nil
}

func (c *SQLCompiler) write(sb *strings.Builder, e queryir.Expr) error {
	if e == nil {
		return fmt.Errorf("cannot compile nil expression")
	}

	switch expr := e.(type) {
	case *queryir.Identifier:
		sb.WriteString(expr.Name)
	case *queryir.NumericLiteral:
		sb.WriteString(formatNumber(expr.Value))
	case *queryir.StringLiteral:
		sb.WriteString(quoteString(expr.Value))
	case *queryir.Path:
		writePath(sb, expr.Object, expr.Property)
	case *queryir.QualifiedPath:
		sb.WriteString(expr.Qualifier)
		sb.WriteByte('.')
		writePath(sb, expr.Path.Object, expr.Path.Property)
	case *queryir.ArrayExpression:
		return c.writeArray(sb, expr)
	case *queryir.BinaryExpression:
		return c.writeBinary(sb, expr)
	case *queryir.UnaryExpression:
		return c.writeUnary(sb, expr)
	case *queryir.FunctionInvocation:
		return c.writeInvocation(sb, expr)
	case *queryir.CaseExpression:
		return c.writeCase(sb, expr)
	default:
		return fmt.Errorf("unsupported expression type: %T", e)
	}
	return nil
}

// writeArray renders `[a, b, c]`.
func (c *SQLCompiler) writeArray(sb *strings.Builder, a *queryir.ArrayExpression) error {
	sb.WriteByte('[')
	if err := c.writeList(sb, a.Elements); err != nil {
		return err
	}
	sb.WriteByte(']')
	return nil
}

// writeBinary renders `left OP right` with single spaces and no grouping.
func (c *SQLCompiler) writeBinary(sb *strings.Builder, b *queryir.BinaryExpression) error {
	if err := c.write(sb, b.Left); err != nil {
		return err
	}
	sb.WriteByte(' ')
	sb.WriteString(string(b.Operator))
	sb.WriteByte(' ')
	return c.write(sb, b.Right)
}

// writeUnary renders symbolic operators adjacent to their argument (-x)
// and keyword operators followed by a space (NOT x). A minus before an
// argument that starts with a minus is spaced apart, since -- opens an SQL
// comment.
func (c *SQLCompiler) writeUnary(sb *strings.Builder, u *queryir.UnaryExpression) error {
	var arg strings.Builder
	if err := c.write(&arg, u.Argument); err != nil {
		return err
	}
	op := string(u.Operator)
	sb.WriteString(op)
	if isKeyword(op) || (strings.HasSuffix(op, "-") && strings.HasPrefix(arg.String(), "-")) {
		sb.WriteByte(' ')
	}
	sb.WriteString(arg.String())
	return nil
}

// writeInvocation renders `name(a, b)` or `name()`.
func (c *SQLCompiler) writeInvocation(sb *strings.Builder, f *queryir.FunctionInvocation) error {
	sb.WriteString(f.Name)
	sb.WriteByte('(')
	if err := c.writeList(sb, f.Args); err != nil {
		return err
	}
	sb.WriteByte(')')
	return nil
}

// writeCase renders `CASE [d] WHEN w THEN t ... [ELSE a] END`.
func (c *SQLCompiler) writeCase(sb *strings.Builder, ce *queryir.CaseExpression) error {
	if len(ce.Clauses) == 0 {
		return fmt.Errorf("case expression has no clauses")
	}

	sb.WriteString("CASE")
	if ce.Discriminant != nil {
		sb.WriteByte(' ')
		if err := c.write(sb, ce.Discriminant); err != nil {
			return err
		}
	}
	for _, clause := range ce.Clauses {
		sb.WriteString(" WHEN ")
		if err := c.write(sb, clause.When); err != nil {
			return err
		}
		sb.WriteString(" THEN ")
		if err := c.write(sb, clause.Then); err != nil {
			return err
		}
	}
	if ce.Alternate != nil {
		sb.WriteString(" ELSE ")
		if err := c.write(sb, ce.Alternate); err != nil {
			return err
		}
	}
	sb.WriteString(" END")
	return nil
}

func (c *SQLCompiler) writeList(sb *strings.Builder, exprs []queryir.Expr) error {
	for i, e := range exprs {
		if i > 0 {
			sb.WriteString(", ")
		}
		if err := c.write(sb, e); err != nil {
			return err
		}
	}
	return nil
}

func writePath(sb *strings.Builder, object, property string) {
	sb.WriteString(object)
	sb.WriteByte('.')
	sb.WriteString(property)
}

// formatNumber renders the shortest decimal form with no exponent.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// quoteString renders a single-quoted SQL string, doubling embedded quotes.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func isKeyword(op string) bool {
	for _, r := range op {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return op != ""
}
