// Package compiler lowers parsed predicate functions into query
// expression trees.
//
// The pipeline for one predicate:
//
//	source.Parse → Transform → queryir.Expr → querysql
//
// Transform binds the predicate's parameters to the positional roles
// "row" and "global" (Scope.Bind), flattens member chains into dotted
// paths, maps operators (operators.go) and lowers if/switch/ternary
// control flow into a single CASE expression (control.go).
//
// ERRORS:
//
// Every failure aborts the whole transform and is returned as a
// *CompileError carrying one of five codes. Each code unwraps to a
// sentinel so callers can branch with errors.Is:
//
//	UNSUPPORTED_NODE        ErrUnsupportedNode
//	UNSUPPORTED_OPERATOR    ErrUnsupportedOperator
//	UNSUPPORTED_PATTERN     ErrUnsupportedPattern
//	SHAPE_VIOLATION         ErrShapeViolation
//	UNRESOLVABLE_REFERENCE  ErrUnresolvableReference
//
// ROLE BINDING:
//
//	(user) => user.age >= 18              user.age >= 18
//	(user, { like }) => like(user.name, 'j%')   user.name LIKE 'j%'
//	(...args) => args[0].age >= 3         args.age >= 3
//
// Alias substitution is opportunistic: a reference with no binding is
// emitted as a literal column path.
package compiler
