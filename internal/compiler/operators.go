package compiler

import "github.com/roach88/qarray/internal/queryir"

// See https://sqlite.org/lang_expr.html#operators

// binaryOperators maps binary and logical source operators to SQL.
// Equality lowers to IS / IS NOT so comparisons with NULL stay two-valued.
var binaryOperators = map[string]queryir.BinaryOperator{
	"*":   queryir.OpMultiply,
	"/":   queryir.OpDivide,
	"%":   queryir.OpRemainder,
	"+":   queryir.OpAdd,
	"-":   queryir.OpSubtract,
	"<<":  queryir.OpShiftLeft,
	">>":  queryir.OpShiftRight,
	"&":   queryir.OpBitAnd,
	"|":   queryir.OpBitOr,
	"<":   queryir.OpLess,
	"<=":  queryir.OpLessEqual,
	">":   queryir.OpGreater,
	">=":  queryir.OpGreaterEqual,
	"==":  queryir.OpIs,
	"===": queryir.OpIs,
	"!=":  queryir.OpIsNot,
	"!==": queryir.OpIsNot,
	"&&":  queryir.OpAnd,
	"||":  queryir.OpOr,
}

// predicateFunctions maps global helper names that lower to a binary
// operator instead of a function call.
var predicateFunctions = map[string]queryir.BinaryOperator{
	"glob":   queryir.OpGlob,
	"like":   queryir.OpLike,
	"match":  queryir.OpMatch,
	"regexp": queryir.OpRegexp,
}

var unaryOperators = map[string]queryir.UnaryOperator{
	"-": queryir.OpNegate,
	"+": queryir.OpPlus,
	"~": queryir.OpBitNot,
	"!": queryir.OpNot,
}

// BinaryOperator returns the SQL operator for a binary or logical source
// operator.
func BinaryOperator(op string) (queryir.BinaryOperator, bool) {
	mapped, ok := binaryOperators[op]
	return mapped, ok
}

// UnaryOperator returns the SQL operator for a unary source operator.
func UnaryOperator(op string) (queryir.UnaryOperator, bool) {
	mapped, ok := unaryOperators[op]
	return mapped, ok
}

// PredicateFunction returns the SQL operator a global helper call lowers to.
func PredicateFunction(name string) (queryir.BinaryOperator, bool) {
	mapped, ok := predicateFunctions[name]
	return mapped, ok
}
