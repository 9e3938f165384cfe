package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/qarray/internal/source"
)

// ErrorCode categorizes compile errors.
type ErrorCode string

const (
	// ErrCodeUnsupportedNode indicates a construct outside the predicate
	// grammar: a loop, an assignment, a boolean literal.
	ErrCodeUnsupportedNode ErrorCode = "UNSUPPORTED_NODE"

	// ErrCodeUnsupportedOperator indicates an operator with no SQL mapping.
	ErrCodeUnsupportedOperator ErrorCode = "UNSUPPORTED_OPERATOR"

	// ErrCodeUnsupportedPattern indicates a destructuring or rest element
	// that does not bind a plain name.
	ErrCodeUnsupportedPattern ErrorCode = "UNSUPPORTED_PATTERN"

	// ErrCodeShapeViolation indicates a structural rule break such as an
	// empty array, a multi-statement case or a wrong predicate arity.
	ErrCodeShapeViolation ErrorCode = "SHAPE_VIOLATION"

	// ErrCodeUnresolvableReference indicates a predicate-function call whose
	// callee is not bound to a parameter role.
	ErrCodeUnresolvableReference ErrorCode = "UNRESOLVABLE_REFERENCE"
)

// Sentinels for errors.Is. Every *CompileError unwraps to the one matching
// its Code.
var (
	ErrUnsupportedNode        = errors.New("unsupported node")
	ErrUnsupportedOperator    = errors.New("unsupported operator")
	ErrUnsupportedPattern     = errors.New("unsupported pattern")
	ErrShapeViolation         = errors.New("shape violation")
	ErrUnresolvableReference  = errors.New("unresolvable reference")
	errUnknownCompileErrorTag = errors.New("compile error")
)

// CompileError reports a predicate the compiler cannot lower.
//
// Loc is the span of the offending node in the text handed to the parser;
// Position converts it to a line and column.
type CompileError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Node is the kind of the offending source node, if any.
	Node string

	// Loc is the byte span of the offending node.
	Loc source.Loc
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("%s: %s (node=%s)", e.Code, e.Message, e.Node)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the sentinel for the error's code.
func (e *CompileError) Unwrap() error {
	switch e.Code {
	case ErrCodeUnsupportedNode:
		return ErrUnsupportedNode
	case ErrCodeUnsupportedOperator:
		return ErrUnsupportedOperator
	case ErrCodeUnsupportedPattern:
		return ErrUnsupportedPattern
	case ErrCodeShapeViolation:
		return ErrShapeViolation
	case ErrCodeUnresolvableReference:
		return ErrUnresolvableReference
	default:
		return errUnknownCompileErrorTag
	}
}

// Position returns the 1-based line and column of the offending node in src.
func (e *CompileError) Position(src string) (line, col int) {
	return source.LineColumn(src, e.Loc.First)
}

// CodeOf returns the code of the first *CompileError in err's chain.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) (ErrorCode, bool) {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code, true
	}
	return "", false
}

// IsUnsupportedNode returns true if the error is an unsupported-node error.
func IsUnsupportedNode(err error) bool {
	return errors.Is(err, ErrUnsupportedNode)
}

// IsUnsupportedOperator returns true if the error is an unsupported-operator error.
func IsUnsupportedOperator(err error) bool {
	return errors.Is(err, ErrUnsupportedOperator)
}

// IsUnsupportedPattern returns true if the error is an unsupported-pattern error.
func IsUnsupportedPattern(err error) bool {
	return errors.Is(err, ErrUnsupportedPattern)
}

// IsShapeViolation returns true if the error is a shape violation.
func IsShapeViolation(err error) bool {
	return errors.Is(err, ErrShapeViolation)
}

// IsUnresolvableReference returns true if the error is an unresolvable-reference error.
func IsUnresolvableReference(err error) bool {
	return errors.Is(err, ErrUnresolvableReference)
}

func newError(code ErrorCode, n source.Node, format string, args ...any) *CompileError {
	e := &CompileError{Code: code, Message: fmt.Sprintf(format, args...)}
	if n != nil {
		e.Node = source.KindOf(n)
		e.Loc = source.Loc{First: n.Pos(), Last: n.End()}
	}
	return e
}

// unsupportedNode reports a node outside the grammar accepted at its position.
func unsupportedNode(n source.Node) *CompileError {
	return newError(ErrCodeUnsupportedNode, n, "unexpected node type %q", source.KindOf(n))
}

func shapeViolation(n source.Node, format string, args ...any) *CompileError {
	return newError(ErrCodeShapeViolation, n, format, args...)
}
