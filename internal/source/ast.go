package source

// Node is a node of a parsed predicate.
//
// This is a sealed interface - only types in this package implement it.
// Consumers switch over the concrete types; anything the parser produces
// that the predicate grammar does not cover arrives as *Unsupported.
type Node interface {
	Pos() int // Offset of the first byte belonging to the node.
	End() int // Offset of the first byte after the node.
	sourceNode()
}

// Loc is the byte span of a node within the parsed text.
type Loc struct {
	First int
	Last  int
}

func (l Loc) Pos() int { return l.First }
func (l Loc) End() int { return l.Last }

type (
	Identifier struct {
		Loc
		Name string
	}
	NumericLiteral struct {
		Loc
		Value float64
		Raw   string
	}
	StringLiteral struct {
		Loc
		Value string
	}
	// OtherLiteral is any literal that is neither numeric nor string
	// (boolean, null, regexp, template).
	OtherLiteral struct {
		Loc
		Kind string
		Raw  string
	}
	ArrayLiteral struct {
		Loc
		Elements []Node
	}
	UnaryOp struct {
		Loc
		Operator string
		Argument Node
	}
	BinaryOp struct {
		Loc
		Operator string
		Left     Node
		Right    Node
	}
	// LogicalOp is a short-circuit operator: &&, || or ??.
	LogicalOp struct {
		Loc
		Operator string
		Left     Node
		Right    Node
	}
	// MemberAccess is a.b, or a[prop] when Computed.
	MemberAccess struct {
		Loc
		Object   Node
		Property Node
		Computed bool
	}
	CallExpression struct {
		Loc
		Callee    Node
		Arguments []Node
	}
	ConditionalExpression struct {
		Loc
		Test       Node
		Consequent Node
		Alternate  Node
	}
	// FunctionExpression covers both arrow and function expressions.
	// Body is either an expression or a *BlockStatement.
	FunctionExpression struct {
		Loc
		Arrow  bool
		Params []Param
		Body   Node
	}
	BlockStatement struct {
		Loc
		Body []Node
	}
	IfStatement struct {
		Loc
		Test       Node
		Consequent Node
		Alternate  Node // nil when there is no else branch
	}
	SwitchStatement struct {
		Loc
		Discriminant Node
		Cases        []*SwitchCase
	}
	// SwitchCase has a nil Test for the default case.
	SwitchCase struct {
		Loc
		Test       Node
		Consequent []Node
	}
	ReturnStatement struct {
		Loc
		Argument Node // nil for a bare return
	}
	ExpressionStatement struct {
		Loc
		Expression Node
	}
	Program struct {
		Loc
		Body []Node
	}
	// Unsupported stands in for a construct outside the predicate grammar.
	// Kind names the construct, e.g. "ForStatement" or "AssignExpression".
	Unsupported struct {
		Loc
		Kind string
	}
)

func (*Identifier) sourceNode()            {}
func (*NumericLiteral) sourceNode()        {}
func (*StringLiteral) sourceNode()         {}
func (*OtherLiteral) sourceNode()          {}
func (*ArrayLiteral) sourceNode()          {}
func (*UnaryOp) sourceNode()               {}
func (*BinaryOp) sourceNode()              {}
func (*LogicalOp) sourceNode()             {}
func (*MemberAccess) sourceNode()          {}
func (*CallExpression) sourceNode()        {}
func (*ConditionalExpression) sourceNode() {}
func (*FunctionExpression) sourceNode()    {}
func (*BlockStatement) sourceNode()        {}
func (*IfStatement) sourceNode()           {}
func (*SwitchStatement) sourceNode()       {}
func (*SwitchCase) sourceNode()            {}
func (*ReturnStatement) sourceNode()       {}
func (*ExpressionStatement) sourceNode()   {}
func (*Program) sourceNode()               {}
func (*Unsupported) sourceNode()           {}

// Param is a formal parameter of a FunctionExpression.
type Param interface {
	Node
	paramNode()
}

type (
	// IdentifierParam is a plain named parameter.
	IdentifierParam struct {
		Loc
		Name       string
		HasDefault bool
	}
	// ObjectPattern is a destructured object parameter: ({ a, b: c }).
	ObjectPattern struct {
		Loc
		Properties []PatternProperty
		Rest       Node // ...rest inside the braces, nil if absent
		HasDefault bool
	}
	// ArrayPattern is a destructured array parameter: ([a, , b = 1]).
	ArrayPattern struct {
		Loc
		Elements   []Node // nil entries are holes
		Rest       Node
		HasDefault bool
	}
	// RestParam is a trailing ...name parameter.
	RestParam struct {
		Loc
		Target Node
	}
)

// PatternProperty is one key of an object pattern. Target is the local
// binding; anything but an *Identifier is rejected by the binder.
type PatternProperty struct {
	Key    string
	Target Node
}

func (*IdentifierParam) sourceNode() {}
func (*ObjectPattern) sourceNode()   {}
func (*ArrayPattern) sourceNode()    {}
func (*RestParam) sourceNode()       {}

func (*IdentifierParam) paramNode() {}
func (*ObjectPattern) paramNode()   {}
func (*ArrayPattern) paramNode()    {}
func (*RestParam) paramNode()       {}
func (*Unsupported) paramNode()     {}

// KindOf returns the node kind used in diagnostics.
func KindOf(n Node) string {
	switch n := n.(type) {
	case nil:
		return "<nil>"
	case *Identifier:
		return "Identifier"
	case *NumericLiteral:
		return "NumericLiteral"
	case *StringLiteral:
		return "StringLiteral"
	case *OtherLiteral:
		return n.Kind
	case *ArrayLiteral:
		return "ArrayLiteral"
	case *UnaryOp:
		return "UnaryOp"
	case *BinaryOp:
		return "BinaryOp"
	case *LogicalOp:
		return "LogicalOp"
	case *MemberAccess:
		return "MemberAccess"
	case *CallExpression:
		return "CallExpression"
	case *ConditionalExpression:
		return "ConditionalExpression"
	case *FunctionExpression:
		if n.Arrow {
			return "ArrowFunctionExpression"
		}
		return "FunctionExpression"
	case *BlockStatement:
		return "BlockStatement"
	case *IfStatement:
		return "IfStatement"
	case *SwitchStatement:
		return "SwitchStatement"
	case *SwitchCase:
		return "SwitchCase"
	case *ReturnStatement:
		return "ReturnStatement"
	case *ExpressionStatement:
		return "ExpressionStatement"
	case *Program:
		return "Program"
	case *Unsupported:
		return n.Kind
	case *IdentifierParam:
		return "Identifier"
	case *ObjectPattern:
		return "ObjectPattern"
	case *ArrayPattern:
		return "ArrayPattern"
	case *RestParam:
		return "RestElement"
	default:
		return "Unknown"
	}
}
