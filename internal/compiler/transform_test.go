package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qarray/internal/queryir"
	"github.com/roach88/qarray/internal/querysql"
	"github.com/roach88/qarray/internal/source"
)

// transformSource parses src and lowers it.
func transformSource(t *testing.T, src string) (queryir.Expr, error) {
	t.Helper()
	prog, err := source.Parse(src)
	require.NoError(t, err)
	return Transform(prog)
}

// lowerSQL parses, lowers and renders src as a WHERE clause.
func lowerSQL(t *testing.T, src string) string {
	t.Helper()
	expr, err := transformSource(t, src)
	require.NoError(t, err)
	sql, err := querysql.NewSQLCompiler().Compile(expr)
	require.NoError(t, err)
	return sql
}

func TestTransform_Expressions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{src: "a", want: "a"},
		{src: `"a"`, want: "'a'"},
		{src: "[a, b]", want: "[a, b]"},
		{src: "a + b", want: "a + b"},
		{src: "a && b", want: "a AND b"},
		{src: "a || b", want: "a OR b"},
		{src: "a.b", want: "a.b"},
		{src: "a.b.c", want: "a.b.c"},
		{src: "a()", want: "a()"},
		{src: "a(b, c)", want: "a(b, c)"},
		{src: "!a", want: "NOT a"},
		{src: "-a", want: "-a"},
		{src: "~a", want: "~a"},
		{src: "-(-a) > 0", want: "- -a > 0"},
		{src: "a ? b : c;", want: "CASE WHEN a THEN b ELSE c END"},
		{src: "a ? b ? c : d : e;", want: "CASE WHEN a THEN CASE WHEN b THEN c ELSE d END ELSE e END"},
		{src: "a ? b : c ? d : e;", want: "CASE WHEN a THEN b ELSE CASE WHEN c THEN d ELSE e END END"},
		{src: "() => { return 3; };", want: "3"},
		{src: "() => 3;", want: "3"},
		{src: "(function() { return 3; })", want: "3"},
		{src: "function () { return 2.5; }", want: "2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, lowerSQL(t, tt.src))
		})
	}
}

func TestTransform_Trees(t *testing.T) {
	t.Run("call without arguments has nil args", func(t *testing.T) {
		expr, err := transformSource(t, "a()")
		require.NoError(t, err)
		assert.Equal(t, &queryir.FunctionInvocation{Name: "a"}, expr)
	})

	t.Run("ternary is a single clause case", func(t *testing.T) {
		expr, err := transformSource(t, "a ? b : c")
		require.NoError(t, err)
		assert.Equal(t, &queryir.CaseExpression{
			Clauses: []queryir.CaseClause{{
				When: &queryir.Identifier{Name: "a"},
				Then: &queryir.Identifier{Name: "b"},
			}},
			Alternate: &queryir.Identifier{Name: "c"},
		}, expr)
	})

	t.Run("three segments form a qualified path", func(t *testing.T) {
		expr, err := transformSource(t, "a.b.c")
		require.NoError(t, err)
		assert.Equal(t, &queryir.QualifiedPath{
			Qualifier: "a",
			Path:      queryir.Path{Object: "b", Property: "c"},
		}, expr)
	})
}

func TestTransform_OperatorMapping(t *testing.T) {
	for op, mapped := range binaryOperators {
		t.Run(op, func(t *testing.T) {
			assert.Equal(t, "row.a "+string(mapped)+" row.b", lowerSQL(t, "(row) => row.a "+op+" row.b"))
		})
	}
}

func TestTransform_RoleBinding(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "identifier parameter",
			src:  "(user) => user.age >= 18",
			want: "user.age >= 18",
		},
		{
			name: "global namespace helper",
			src:  "(user, sql) => { return user.age >= 3 && sql.like(user.name, 'j%'); }",
			want: "user.age >= 3 AND user.name LIKE 'j%'",
		},
		{
			name: "destructured helper",
			src:  "(user, { like }) => like(user.name, 'j%')",
			want: "user.name LIKE 'j%'",
		},
		{
			name: "renamed destructured helper",
			src:  "(user, { glob: g }) => g(user.name, '*.go')",
			want: "user.name GLOB '*.go'",
		},
		{
			name: "destructured row field",
			src:  "({ age }) => age >= 18",
			want: "age >= 18",
		},
		{
			name: "array pattern keeps local names",
			src:  "([a, b = 2]) => a > b",
			want: "a > b",
		},
		{
			name: "array pattern member",
			src:  "([first]) => first.age >= 18",
			want: "first.age >= 18",
		},
		{
			name: "rest parameter",
			src:  "(...args) => args[0].age >= 3",
			want: "args.age >= 3",
		},
		{
			name: "rest parameter helper",
			src:  "(...args) => { return args[0].age >= 3 && args[1].like(args[0].name, 'j%'); }",
			want: "args.age >= 3 AND args.name LIKE 'j%'",
		},
		{
			name: "default values are ignored",
			src:  "(user = {}, { regexp } = {}) => regexp(user.name, '^j')",
			want: "user.name REGEXP '^j'",
		},
		{
			name: "unbound identifier is a column",
			src:  "(user) => age > user.age",
			want: "age > user.age",
		},
		{
			name: "third parameter is unbound",
			src:  "(user, sql, extra) => extra.lower(user.a)",
			want: "extra.lower(user.a)",
		},
		{
			name: "global helper outside the predicate set",
			src:  "(user, sql) => sql.lower(user.name) == 'j'",
			want: "lower(user.name) IS 'j'",
		},
		{
			name: "unbound dotted function",
			src:  "(user) => json.extract(user.doc, '$.a') != 1",
			want: "json.extract(user.doc, '$.a') IS NOT 1",
		},
		{
			name: "computed string property",
			src:  "(user) => user['age'] < 3",
			want: "user.age < 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lowerSQL(t, tt.src))
		})
	}
}

func TestTransform_Includes(t *testing.T) {
	assert.Equal(t, "user.role IN ['admin', 'editor']",
		lowerSQL(t, "(user) => ['admin','editor'].includes(user.role)"))
	assert.Equal(t, "'x' IN user.tags",
		lowerSQL(t, "(user) => user.tags.includes('x')"))
	assert.Equal(t, "user.age >= 18 AND user.role IN ['admin', 'editor']",
		lowerSQL(t, "(user) => user.age >= 18 && ['admin','editor'].includes(user.role)"))
}

func TestTransform_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code ErrorCode
	}{
		{name: "loop", src: "(u) => { for (;;) {} return u.a; }", code: ErrCodeUnsupportedNode},
		{name: "assignment", src: "(u) => { u.a = 1; return u.a; }", code: ErrCodeUnsupportedNode},
		{name: "assignment expression", src: "(u) => u.a = 1", code: ErrCodeUnsupportedNode},
		{name: "boolean literal", src: "(u) => true", code: ErrCodeUnsupportedNode},
		{name: "null literal", src: "(u) => u.a === null", code: ErrCodeUnsupportedNode},
		{name: "regexp literal", src: "(u) => /a/", code: ErrCodeUnsupportedNode},
		{name: "computed identifier property", src: "(u) => u[u.a]", code: ErrCodeUnsupportedNode},
		{name: "call result as object", src: "(u) => f().a", code: ErrCodeUnsupportedNode},
		{name: "in operator", src: "(u) => 'a' in u", code: ErrCodeUnsupportedOperator},
		{name: "instanceof", src: "(u) => u instanceof Object", code: ErrCodeUnsupportedOperator},
		{name: "nullish coalescing", src: "(u) => u.a ?? 1", code: ErrCodeUnsupportedOperator},
		{name: "typeof", src: "(u) => typeof u.a", code: ErrCodeUnsupportedOperator},
		{name: "nested pattern", src: "(u, { like: [x] }) => x", code: ErrCodeUnsupportedPattern},
		{name: "object rest", src: "(u, { ...rest }) => u.a", code: ErrCodeUnsupportedPattern},
		{name: "empty array", src: "(u) => []", code: ErrCodeShapeViolation},
		{name: "empty body", src: "(u) => { }", code: ErrCodeShapeViolation},
		{name: "two returns", src: "(u) => { return u.a; return u.b; }", code: ErrCodeShapeViolation},
		{name: "bare expression statement", src: "(u) => { u.a; }", code: ErrCodeShapeViolation},
		{name: "bare return", src: "(u) => { return; }", code: ErrCodeShapeViolation},
		{name: "deep member chain", src: "(u) => u.a.b.c", code: ErrCodeShapeViolation},
		{name: "dotted computed key", src: "(u) => u['a.b']", code: ErrCodeShapeViolation},
		{name: "predicate with one argument", src: "(u, { like }) => like(u.a)", code: ErrCodeShapeViolation},
		{name: "predicate with three arguments", src: "(u, sql) => sql.glob(u.a, 'x', 'y')", code: ErrCodeShapeViolation},
		{name: "includes without argument", src: "(u) => u.tags.includes()", code: ErrCodeShapeViolation},
		{name: "unbound predicate", src: "(u) => like(u.a, 'x')", code: ErrCodeUnresolvableReference},
		{name: "unbound dotted predicate", src: "(u) => sql.match(u.a, 'x')", code: ErrCodeUnresolvableReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := transformSource(t, tt.src)
			require.Error(t, err)
			assert.Nil(t, expr)

			code, ok := CodeOf(err)
			require.True(t, ok, "expected *CompileError, got %T: %v", err, err)
			assert.Equal(t, tt.code, code, err.Error())
		})
	}
}

func TestTransform_ErrorPosition(t *testing.T) {
	src := "(u) =>\n  u.a > 1 && true"
	_, err := transformSource(t, src)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "BooleanLiteral", ce.Node)

	line, col := ce.Position(src)
	assert.Equal(t, 2, line)
	assert.Equal(t, 14, col)
}

func TestTransform_NilProgram(t *testing.T) {
	_, err := Transform(nil)
	assert.True(t, IsShapeViolation(err))
}
