package compiler

import (
	"github.com/roach88/qarray/internal/queryir"
	"github.com/roach88/qarray/internal/source"
)

// lowerBody lowers a statement list into a single expression.
//
// Every statement but the last must be an if or switch; the last is a
// return, or a final if or switch. Each statement yields one fragment and
// the fragments are merged into one conditional.
func lowerBody(owner source.Node, stmts []source.Node, scope *Scope) (queryir.Expr, error) {
	if len(stmts) == 0 {
		return nil, shapeViolation(owner, "function body has no statements")
	}

	fragments := make([]queryir.Expr, 0, len(stmts))
	last := len(stmts) - 1

	for i, stmt := range stmts {
		var (
			frag queryir.Expr
			err  error
		)
		switch s := stmt.(type) {
		case *source.IfStatement:
			frag, err = lowerIf(s, scope)
		case *source.SwitchStatement:
			frag, err = lowerSwitch(s, scope)
		case *source.ReturnStatement:
			if i != last {
				return nil, shapeViolation(s, "return must be the last statement")
			}
			frag, err = lowerReturn(s, scope)
		default:
			return nil, statementError(stmt)
		}
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, frag)
	}

	return mergeFragments(owner, fragments)
}

// lowerStatement lowers the branch of an if statement.
func lowerStatement(n source.Node, scope *Scope) (queryir.Expr, error) {
	switch s := n.(type) {
	case *source.BlockStatement:
		return lowerBody(s, s.Body, scope)
	case *source.ReturnStatement:
		return lowerReturn(s, scope)
	case *source.IfStatement:
		return lowerIf(s, scope)
	case *source.SwitchStatement:
		return lowerSwitch(s, scope)
	default:
		return nil, statementError(n)
	}
}

func lowerReturn(s *source.ReturnStatement, scope *Scope) (queryir.Expr, error) {
	if s.Argument == nil {
		return nil, shapeViolation(s, "return has no value")
	}
	return transformExpr(s.Argument, scope)
}

// lowerIf walks an if / else if / else chain front to back. Each test and
// branch becomes a clause; a final else becomes the alternate.
func lowerIf(s *source.IfStatement, scope *Scope) (*queryir.CaseExpression, error) {
	ce := &queryir.CaseExpression{}

	for cur := s; cur != nil; {
		when, err := transformExpr(cur.Test, scope)
		if err != nil {
			return nil, err
		}
		then, err := lowerStatement(cur.Consequent, scope)
		if err != nil {
			return nil, err
		}
		ce.Clauses = append(ce.Clauses, queryir.CaseClause{When: when, Then: then})

		switch alt := cur.Alternate.(type) {
		case nil:
			cur = nil
		case *source.IfStatement:
			cur = alt
		default:
			if ce.Alternate, err = lowerStatement(alt, scope); err != nil {
				return nil, err
			}
			cur = nil
		}
	}

	return ce, nil
}

// lowerSwitch lowers a switch to CASE discriminant WHEN ... END. Each case
// must be a single return; the default case becomes the alternate.
func lowerSwitch(s *source.SwitchStatement, scope *Scope) (*queryir.CaseExpression, error) {
	if len(s.Cases) == 0 {
		return nil, shapeViolation(s, "switch has no cases")
	}

	discriminant, err := transformExpr(s.Discriminant, scope)
	if err != nil {
		return nil, err
	}
	ce := &queryir.CaseExpression{Discriminant: discriminant}

	for _, c := range s.Cases {
		ret, err := caseReturn(c)
		if err != nil {
			return nil, err
		}
		then, err := lowerReturn(ret, scope)
		if err != nil {
			return nil, err
		}

		if c.Test == nil {
			ce.Alternate = then
			continue
		}
		when, err := transformExpr(c.Test, scope)
		if err != nil {
			return nil, err
		}
		ce.Clauses = append(ce.Clauses, queryir.CaseClause{When: when, Then: then})
	}

	if len(ce.Clauses) == 0 {
		return nil, shapeViolation(s, "switch has only a default case")
	}
	return ce, nil
}

// caseReturn returns the lone return statement of a switch case, looking
// through one enclosing block.
func caseReturn(c *source.SwitchCase) (*source.ReturnStatement, error) {
	body := c.Consequent
	if len(body) == 1 {
		if block, ok := body[0].(*source.BlockStatement); ok {
			body = block.Body
		}
	}
	if len(body) == 1 {
		if ret, ok := body[0].(*source.ReturnStatement); ok {
			return ret, nil
		}
	}
	return nil, shapeViolation(c, "switch case must contain exactly one return statement")
}

// mergeFragments folds the fragments of a statement list into the first.
//
// Each fragment after the first fills the first open alternate slot found
// by following alternates down from the first fragment. When both the open
// conditional and the incoming fragment are searched CASEs (no
// discriminant), the incoming clauses are appended in place and its
// alternate becomes the open slot; otherwise the fragment is attached
// whole. A fragment with no open slot left is unreachable, and a clause
// whose branch can itself end without a value cannot be followed by more
// fragments: SQL has no way to resume at the next statement.
//
// This is the only place a CaseExpression is modified after construction.
// Every fragment was built by the caller and none has been published.
func mergeFragments(owner source.Node, fragments []queryir.Expr) (queryir.Expr, error) {
	root := fragments[0]

	for _, next := range fragments[1:] {
		if openBranch(root) {
			return nil, shapeViolation(owner, "if branch without a final return cannot fall through to a later statement")
		}
		open := openCase(root)
		if open == nil {
			return nil, shapeViolation(owner, "statement is unreachable")
		}

		incoming, isCase := next.(*queryir.CaseExpression)
		if isCase && open.Discriminant == nil && incoming.Discriminant == nil {
			open.Clauses = append(open.Clauses, incoming.Clauses...)
			open.Alternate = incoming.Alternate
			continue
		}
		open.Alternate = next
	}

	return root, nil
}

// openCase returns the first CaseExpression along the alternate chain whose
// alternate is unset, or nil when the chain ends in a value.
func openCase(e queryir.Expr) *queryir.CaseExpression {
	for {
		ce, ok := e.(*queryir.CaseExpression)
		if !ok {
			return nil
		}
		if ce.Alternate == nil {
			return ce
		}
		e = ce.Alternate
	}
}

// openBranch reports whether any clause along the alternate chain of e has
// a branch that can end without a value.
func openBranch(e queryir.Expr) bool {
	for {
		ce, ok := e.(*queryir.CaseExpression)
		if !ok {
			return false
		}
		for _, c := range ce.Clauses {
			if fallsThrough(c.Then) {
				return true
			}
		}
		if ce.Alternate == nil {
			return false
		}
		e = ce.Alternate
	}
}

// fallsThrough reports whether e yields no value on some path.
func fallsThrough(e queryir.Expr) bool {
	ce, ok := e.(*queryir.CaseExpression)
	if !ok {
		return false
	}
	if ce.Alternate == nil {
		return true
	}
	for _, c := range ce.Clauses {
		if fallsThrough(c.Then) {
			return true
		}
	}
	return fallsThrough(ce.Alternate)
}

// statementError reports a statement that cannot appear in a predicate
// body. Constructs outside the grammar (loops, declarations, assignments)
// are unsupported nodes; known statements in the wrong place break shape.
func statementError(n source.Node) *CompileError {
	switch s := n.(type) {
	case *source.Unsupported:
		return unsupportedNode(s)
	case *source.ExpressionStatement:
		if u, ok := s.Expression.(*source.Unsupported); ok {
			return unsupportedNode(u)
		}
		return shapeViolation(s, "expression statement must be returned")
	case *source.BlockStatement:
		return shapeViolation(s, "nested block must be the branch of an if statement")
	default:
		return shapeViolation(n, "unexpected %s in function body", source.KindOf(n))
	}
}
