// Package queryir provides the query expression tree that predicate
// functions are lowered into.
//
// QueryIR is the boundary between the JavaScript-facing compiler and the
// SQL backend:
//
//	[predicate source] → [compiler] → [Query IR] → [querysql]
//
// SEALED INTERFACE:
//
// Expr is a sealed interface using the marker method pattern. Only types
// in this package implement it, which gives the backend an exhaustive
// type switch:
//
//	switch e := expr.(type) {
//	case *BinaryExpression:
//	    // render operands and operator
//	case *CaseExpression:
//	    // render CASE ... END
//	...
//	}
//
// MUTATION:
//
// Nodes are immutable once handed to a caller. The single exception is the
// compiler's fragment merge, which splices clauses into a CaseExpression it
// has just built and not yet returned.
//
// OPERATOR PRECEDENCE:
//
// The tree carries no grouping nodes and the backend adds no parentheses.
// `(a || b) && c` therefore renders as `a OR b AND c`; predicates that rely
// on grouping must be restructured by the author.
package queryir
