package queryir

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidTree is wrapped by every error Validate returns.
var ErrInvalidTree = errors.New("invalid query tree")

// Validate checks the structural invariants of a query tree:
//
//  1. ArrayExpression elements are non-empty
//  2. FunctionInvocation args are nil or non-empty
//  3. CaseExpression clauses are non-empty
//  4. Path and QualifiedPath segments are plain names
//  5. No nil child where an expression is required
//  6. Numeric literals are finite
//
// The compiler never builds a tree that violates these rules; Validate
// guards trees assembled by hand and is run before rendering.
//
// Validate is a pure function with no side effects.
func Validate(e Expr) error {
	v := &validator{}
	v.validateExpr(e, "root")
	if len(v.problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidTree, strings.Join(v.problems, "; "))
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateExpr(e Expr, at string) {
	switch expr := e.(type) {
	case nil:
		v.addProblem("%s: missing expression", at)
	case *Identifier:
		v.validateName(expr.Name, at)
	case *NumericLiteral:
		if math.IsInf(expr.Value, 0) || math.IsNaN(expr.Value) {
			v.addProblem("%s: %v has no SQL literal form", at, expr.Value)
		}
	case *StringLiteral:
	case *Path:
		v.validatePath(*expr, at)
	case *QualifiedPath:
		v.validateName(expr.Qualifier, at+".qualifier")
		v.validatePath(expr.Path, at)
	case *ArrayExpression:
		if len(expr.Elements) == 0 {
			v.addProblem("%s: array expression has no elements", at)
		}
		for i, el := range expr.Elements {
			v.validateExpr(el, fmt.Sprintf("%s[%d]", at, i))
		}
	case *BinaryExpression:
		if expr.Operator == "" {
			v.addProblem("%s: binary expression has no operator", at)
		}
		v.validateExpr(expr.Left, at+".left")
		v.validateExpr(expr.Right, at+".right")
	case *UnaryExpression:
		if expr.Operator == "" {
			v.addProblem("%s: unary expression has no operator", at)
		}
		v.validateExpr(expr.Argument, at+".argument")
	case *FunctionInvocation:
		v.validateFunctionName(expr.Name, at+".name")
		if expr.Args != nil && len(expr.Args) == 0 {
			v.addProblem("%s: function %q has an empty argument list; use nil", at, expr.Name)
		}
		for i, arg := range expr.Args {
			v.validateExpr(arg, fmt.Sprintf("%s.args[%d]", at, i))
		}
	case *CaseExpression:
		v.validateCase(expr, at)
	default:
		v.addProblem("%s: unknown expression type %T", at, e)
	}
}

func (v *validator) validateCase(c *CaseExpression, at string) {
	if c.Discriminant != nil {
		v.validateExpr(c.Discriminant, at+".discriminant")
	}
	if len(c.Clauses) == 0 {
		v.addProblem("%s: case expression has no clauses", at)
	}
	for i, clause := range c.Clauses {
		v.validateExpr(clause.When, fmt.Sprintf("%s.clauses[%d].when", at, i))
		v.validateExpr(clause.Then, fmt.Sprintf("%s.clauses[%d].then", at, i))
	}
	if c.Alternate != nil {
		v.validateExpr(c.Alternate, at+".alternate")
	}
}

func (v *validator) validatePath(p Path, at string) {
	v.validateName(p.Object, at+".object")
	v.validateName(p.Property, at+".property")
}

// validateFunctionName allows a dotted name (schema.func) but no empty
// segment.
func (v *validator) validateFunctionName(name, at string) {
	for _, seg := range strings.Split(name, ".") {
		v.validateName(seg, at)
	}
}

// validateName requires a non-empty segment with no dot or whitespace.
func (v *validator) validateName(name, at string) {
	if name == "" {
		v.addProblem("%s: empty name", at)
		return
	}
	if strings.ContainsAny(name, ". \t\r\n") {
		v.addProblem("%s: %q is not a plain name", at, name)
	}
}
