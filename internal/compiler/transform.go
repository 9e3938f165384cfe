package compiler

import (
	"math"
	"strings"

	"github.com/roach88/qarray/internal/queryir"
	"github.com/roach88/qarray/internal/source"
)

// Transform lowers a parsed predicate into a query expression.
//
// The program must hold a single expression. A function expression is
// lowered through its parameters and body; any other expression is
// lowered in an empty scope, so `a + b` yields a bare BinaryExpression.
//
// The returned tree is owned by the caller. On error no partial tree is
// returned.
func Transform(prog *source.Program) (queryir.Expr, error) {
	if prog == nil {
		return nil, shapeViolation(nil, "empty program")
	}
	if len(prog.Body) != 1 {
		return nil, shapeViolation(prog, "predicate must be a single expression")
	}

	stmt, ok := prog.Body[0].(*source.ExpressionStatement)
	if !ok {
		return nil, statementError(prog.Body[0])
	}

	return transformExpr(stmt.Expression, NewScope())
}

// transformExpr lowers one expression node.
func transformExpr(n source.Node, scope *Scope) (queryir.Expr, error) {
	switch n := n.(type) {
	case *source.Identifier, *source.MemberAccess:
		return transformReference(n, scope)
	case *source.NumericLiteral:
		if math.IsInf(n.Value, 0) || math.IsNaN(n.Value) {
			return nil, shapeViolation(n, "numeric literal %s has no finite value", n.Raw)
		}
		return &queryir.NumericLiteral{Value: n.Value}, nil
	case *source.StringLiteral:
		return &queryir.StringLiteral{Value: n.Value}, nil
	case *source.OtherLiteral:
		return nil, newError(ErrCodeUnsupportedNode, n, "unsupported literal %q", n.Raw)
	case *source.ArrayLiteral:
		return transformArray(n, scope)
	case *source.UnaryOp:
		return transformUnary(n, scope)
	case *source.BinaryOp:
		return transformBinary(n, n.Operator, n.Left, n.Right, scope)
	case *source.LogicalOp:
		return transformBinary(n, n.Operator, n.Left, n.Right, scope)
	case *source.CallExpression:
		return transformCall(n, scope)
	case *source.ConditionalExpression:
		return transformConditional(n, scope)
	case *source.FunctionExpression:
		return transformFunction(n, scope)
	default:
		return nil, unsupportedNode(n)
	}
}

func transformArray(n *source.ArrayLiteral, scope *Scope) (queryir.Expr, error) {
	if len(n.Elements) == 0 {
		return nil, shapeViolation(n, "array literal must have at least one element")
	}
	elements, err := transformList(n.Elements, scope)
	if err != nil {
		return nil, err
	}
	return &queryir.ArrayExpression{Elements: elements}, nil
}

func transformUnary(n *source.UnaryOp, scope *Scope) (queryir.Expr, error) {
	op, ok := UnaryOperator(n.Operator)
	if !ok {
		return nil, newError(ErrCodeUnsupportedOperator, n, "unsupported unary operator %q", n.Operator)
	}
	arg, err := transformExpr(n.Argument, scope)
	if err != nil {
		return nil, err
	}
	return &queryir.UnaryExpression{Operator: op, Argument: arg}, nil
}

func transformBinary(n source.Node, operator string, left, right source.Node, scope *Scope) (queryir.Expr, error) {
	op, ok := BinaryOperator(operator)
	if !ok {
		return nil, newError(ErrCodeUnsupportedOperator, n, "unsupported binary operator %q", operator)
	}
	l, err := transformExpr(left, scope)
	if err != nil {
		return nil, err
	}
	r, err := transformExpr(right, scope)
	if err != nil {
		return nil, err
	}
	return &queryir.BinaryExpression{Left: l, Operator: op, Right: r}, nil
}

// transformCall lowers, in order of precedence:
//
//   - receiver.includes(x) to x IN receiver
//   - a global predicate helper like(a, b) to a LIKE b
//   - anything else to a function invocation
func transformCall(n *source.CallExpression, scope *Scope) (queryir.Expr, error) {
	if receiver, ok := includesReceiver(n.Callee); ok {
		if len(n.Arguments) != 1 {
			return nil, shapeViolation(n, "includes requires 1 argument, got %d", len(n.Arguments))
		}
		needle, err := transformExpr(n.Arguments[0], scope)
		if err != nil {
			return nil, err
		}
		haystack, err := transformExpr(receiver, scope)
		if err != nil {
			return nil, err
		}
		return &queryir.BinaryExpression{Left: needle, Operator: queryir.OpIn, Right: haystack}, nil
	}

	segs, err := memberPath(n.Callee)
	if err != nil {
		return nil, err
	}
	callee := resolvePath(scope, segs)

	if !callee.Bound() {
		if _, ok := PredicateFunction(segs[len(segs)-1]); ok {
			return nil, newError(ErrCodeUnresolvableReference, n.Callee,
				"%q is not bound to a parameter", strings.Join(segs, "."))
		}
	} else if callee.Target.Role() == RoleGlobal {
		if op, ok := PredicateFunction(callee.Trailing()); ok {
			return transformPredicateCall(n, op, scope)
		}
	}

	name := strings.Join(segs, ".")
	if callee.Bound() {
		name = callee.Segments[len(callee.Segments)-1]
	}

	var args []queryir.Expr
	if len(n.Arguments) > 0 {
		if args, err = transformList(n.Arguments, scope); err != nil {
			return nil, err
		}
	}
	return &queryir.FunctionInvocation{Name: name, Args: args}, nil
}

func transformPredicateCall(n *source.CallExpression, op queryir.BinaryOperator, scope *Scope) (queryir.Expr, error) {
	if len(n.Arguments) != 2 {
		return nil, shapeViolation(n, "%s requires 2 arguments, got %d",
			strings.ToLower(string(op)), len(n.Arguments))
	}
	left, err := transformExpr(n.Arguments[0], scope)
	if err != nil {
		return nil, err
	}
	right, err := transformExpr(n.Arguments[1], scope)
	if err != nil {
		return nil, err
	}
	return &queryir.BinaryExpression{Left: left, Operator: op, Right: right}, nil
}

// includesReceiver returns x for a callee of the form x.includes.
func includesReceiver(callee source.Node) (source.Node, bool) {
	m, ok := callee.(*source.MemberAccess)
	if !ok || m.Computed {
		return nil, false
	}
	if id, ok := m.Property.(*source.Identifier); !ok || id.Name != "includes" {
		return nil, false
	}
	return m.Object, true
}

// transformConditional lowers test ? a : b to CASE WHEN test THEN a ELSE b END.
func transformConditional(n *source.ConditionalExpression, scope *Scope) (queryir.Expr, error) {
	when, err := transformExpr(n.Test, scope)
	if err != nil {
		return nil, err
	}
	then, err := transformExpr(n.Consequent, scope)
	if err != nil {
		return nil, err
	}
	alt, err := transformExpr(n.Alternate, scope)
	if err != nil {
		return nil, err
	}
	return &queryir.CaseExpression{
		Clauses:   []queryir.CaseClause{{When: when, Then: then}},
		Alternate: alt,
	}, nil
}

// transformFunction binds the function's parameters in a child scope and
// lowers its body there.
func transformFunction(n *source.FunctionExpression, scope *Scope) (queryir.Expr, error) {
	child, err := scope.Bind(n.Params)
	if err != nil {
		return nil, err
	}

	switch body := n.Body.(type) {
	case nil:
		return nil, shapeViolation(n, "function has no body")
	case *source.BlockStatement:
		return lowerBody(body, body.Body, child)
	default:
		return transformExpr(body, child)
	}
}

func transformList(nodes []source.Node, scope *Scope) ([]queryir.Expr, error) {
	out := make([]queryir.Expr, 0, len(nodes))
	for _, node := range nodes {
		e, err := transformExpr(node, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
