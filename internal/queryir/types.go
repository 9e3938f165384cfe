package queryir

// Expr is a node of the query expression tree.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the SQL backend.
//
// Expr types:
//   - Identifier, NumericLiteral, StringLiteral: leaves
//   - Path, QualifiedPath: two- and three-segment field references
//   - ArrayExpression: bracketed value list (right side of IN)
//   - BinaryExpression, UnaryExpression: operators
//   - FunctionInvocation: SQL function call
//   - CaseExpression: lowered if/switch/ternary
//
// Trees are strict: no node is shared between two parents and nothing
// points back up. After construction they are read-only.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// BinaryOperator is an SQL binary operator, rendered verbatim.
type BinaryOperator string

const (
	OpMultiply     BinaryOperator = "*"
	OpDivide       BinaryOperator = "/"
	OpRemainder    BinaryOperator = "%"
	OpAdd          BinaryOperator = "+"
	OpSubtract     BinaryOperator = "-"
	OpShiftLeft    BinaryOperator = "<<"
	OpShiftRight   BinaryOperator = ">>"
	OpBitAnd       BinaryOperator = "&"
	OpBitOr        BinaryOperator = "|"
	OpLess         BinaryOperator = "<"
	OpLessEqual    BinaryOperator = "<="
	OpGreater      BinaryOperator = ">"
	OpGreaterEqual BinaryOperator = ">="
	OpIs           BinaryOperator = "IS"
	OpIsNot        BinaryOperator = "IS NOT"
	OpIn           BinaryOperator = "IN"
	OpLike         BinaryOperator = "LIKE"
	OpGlob         BinaryOperator = "GLOB"
	OpMatch        BinaryOperator = "MATCH"
	OpRegexp       BinaryOperator = "REGEXP"
	OpAnd          BinaryOperator = "AND"
	OpOr           BinaryOperator = "OR"
)

// UnaryOperator is an SQL prefix operator.
type UnaryOperator string

const (
	OpNegate UnaryOperator = "-"
	OpPlus   UnaryOperator = "+"
	OpBitNot UnaryOperator = "~"
	OpNot    UnaryOperator = "NOT"
)

// Identifier is a bare name: a column, or a function name.
type Identifier struct {
	Name string
}

func (*Identifier) exprNode() {}

// NumericLiteral is a number, rendered in shortest decimal form.
type NumericLiteral struct {
	Value float64
}

func (*NumericLiteral) exprNode() {}

// StringLiteral is a string, rendered single-quoted.
type StringLiteral struct {
	Value string
}

func (*StringLiteral) exprNode() {}

// Path is a two-segment dotted reference: object.property.
type Path struct {
	Object   string
	Property string
}

func (*Path) exprNode() {}

// QualifiedPath is a three-segment dotted reference:
// qualifier.object.property.
type QualifiedPath struct {
	Qualifier string
	Path      Path
}

func (*QualifiedPath) exprNode() {}

// ArrayExpression is a non-empty ordered list of values.
type ArrayExpression struct {
	Elements []Expr
}

func (*ArrayExpression) exprNode() {}

// BinaryExpression renders as `<left> <op> <right>` with no parentheses.
type BinaryExpression struct {
	Left     Expr
	Operator BinaryOperator
	Right    Expr
}

func (*BinaryExpression) exprNode() {}

// UnaryExpression is a prefix operator applied to one argument.
type UnaryExpression struct {
	Operator UnaryOperator
	Argument Expr
}

func (*UnaryExpression) exprNode() {}

// FunctionInvocation is a call `name(args...)`.
// Args is nil for `name()`; when present it is non-empty.
type FunctionInvocation struct {
	Name string
	Args []Expr
}

func (*FunctionInvocation) exprNode() {}

// CaseClause is one WHEN/THEN pair.
type CaseClause struct {
	When Expr
	Then Expr
}

// CaseExpression is
//
//	CASE [discriminant] WHEN w1 THEN t1 ... [ELSE alternate] END
//
// Discriminant and Alternate are optional (nil). Clauses is never empty.
type CaseExpression struct {
	Discriminant Expr
	Clauses      []CaseClause
	Alternate    Expr
}

func (*CaseExpression) exprNode() {}

// KindOf returns the node kind name, as reported by `qarray compile`.
func KindOf(e Expr) string {
	switch e.(type) {
	case nil:
		return "<nil>"
	case *Identifier:
		return "Identifier"
	case *NumericLiteral:
		return "NumericLiteral"
	case *StringLiteral:
		return "StringLiteral"
	case *Path:
		return "Path"
	case *QualifiedPath:
		return "QualifiedPath"
	case *ArrayExpression:
		return "ArrayExpression"
	case *BinaryExpression:
		return "BinaryExpression"
	case *UnaryExpression:
		return "UnaryExpression"
	case *FunctionInvocation:
		return "FunctionInvocation"
	case *CaseExpression:
		return "CaseExpression"
	default:
		return "Unknown"
	}
}
