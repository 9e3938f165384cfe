package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		expr Expr
		want string
	}{
		{nil, "<nil>"},
		{&Identifier{Name: "a"}, "Identifier"},
		{&NumericLiteral{Value: 1}, "NumericLiteral"},
		{&StringLiteral{Value: "a"}, "StringLiteral"},
		{&Path{Object: "a", Property: "b"}, "Path"},
		{&QualifiedPath{Qualifier: "a", Path: Path{Object: "b", Property: "c"}}, "QualifiedPath"},
		{&ArrayExpression{}, "ArrayExpression"},
		{&BinaryExpression{}, "BinaryExpression"},
		{&UnaryExpression{}, "UnaryExpression"},
		{&FunctionInvocation{Name: "f"}, "FunctionInvocation"},
		{&CaseExpression{}, "CaseExpression"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.expr))
	}
}
