package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qarray/internal/queryir"
)

func TestLowerBody_IfStatements(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{
			src:  "(function() { if (a) { return b; } })",
			want: "CASE WHEN a THEN b END",
		},
		{
			src:  "(function() { if (a) { return b; } else if (c) { return d; } else { return e; } })",
			want: "CASE WHEN a THEN b WHEN c THEN d ELSE e END",
		},
		{
			src:  "(function() { if (a) { return b; } return c; })",
			want: "CASE WHEN a THEN b ELSE c END",
		},
		{
			src:  "(function() { if (a) { return b; } if (c) { return d; } else { return e; } })",
			want: "CASE WHEN a THEN b WHEN c THEN d ELSE e END",
		},
		{
			src:  "(function() { if (a) { return b; } if (c) { return d; } else { return e ? f : g; } })",
			want: "CASE WHEN a THEN b WHEN c THEN d ELSE CASE WHEN e THEN f ELSE g END END",
		},
		{
			src:  "(function() { if (a) { return b; } return c ? d : e; })",
			want: "CASE WHEN a THEN b WHEN c THEN d ELSE e END",
		},
		{
			src:  "(function() { if (a) return b; else return c; })",
			want: "CASE WHEN a THEN b ELSE c END",
		},
		{
			src:  "(function() { if (a) { if (b) { return c; } return d; } return e; })",
			want: "CASE WHEN a THEN CASE WHEN b THEN c ELSE d END ELSE e END",
		},
		{
			src:  "function (user) { if (user.a) { return user.b; } return user.c; }",
			want: "CASE WHEN user.a THEN user.b ELSE user.c END",
		},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, lowerSQL(t, tt.src))
		})
	}
}

func TestLowerBody_SwitchStatements(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{
			src:  "(function() { switch (a) { case b: return c; case d: return e; default: return f; } })",
			want: "CASE a WHEN b THEN c WHEN d THEN e ELSE f END",
		},
		{
			src:  "(function() { switch (a) { case b: return c; default: return d ? e : f; } })",
			want: "CASE a WHEN b THEN c ELSE CASE WHEN d THEN e ELSE f END END",
		},
		{
			src:  "(function() { switch (a) { default: return f; case b: return c; } })",
			want: "CASE a WHEN b THEN c ELSE f END",
		},
		{
			src:  "(function() { switch (a) { case b: { return c; } } })",
			want: "CASE a WHEN b THEN c END",
		},
		{
			src:  "(function() { switch (a) { case b: return c; } return d; })",
			want: "CASE a WHEN b THEN c ELSE d END",
		},
		{
			src:  "(function() { if (a) { return b; } switch (c) { case d: return e; } return f; })",
			want: "CASE WHEN a THEN b ELSE CASE c WHEN d THEN e ELSE f END END",
		},
		{
			src:  "(function() { switch (a) { case b: return c; } if (d) { return e; } return f; })",
			want: "CASE a WHEN b THEN c ELSE CASE WHEN d THEN e ELSE f END END",
		},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, lowerSQL(t, tt.src))
		})
	}
}

func TestLowerBody_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code ErrorCode
	}{
		{name: "empty switch", src: "(function() { switch (a) {} })", code: ErrCodeShapeViolation},
		{name: "default only", src: "(function() { switch (a) { default: return b; } })", code: ErrCodeShapeViolation},
		{name: "case with two statements", src: "(function() { switch (a) { case b: if (c) { return d; } return e; } })", code: ErrCodeShapeViolation},
		{name: "fallthrough case", src: "(function() { switch (a) { case b: case c: return d; } })", code: ErrCodeShapeViolation},
		{name: "break in case", src: "(function() { switch (a) { case b: break; } })", code: ErrCodeShapeViolation},
		{name: "return before if", src: "(function() { return a; if (b) { return c; } })", code: ErrCodeShapeViolation},
		{name: "unreachable after else", src: "(function() { if (a) { return b; } else { return c; } return d; })", code: ErrCodeShapeViolation},
		{name: "variable declaration", src: "(function() { const x = 1; return x; })", code: ErrCodeUnsupportedNode},
		{name: "empty branch", src: "(function() { if (a) { } return b; })", code: ErrCodeShapeViolation},
		{name: "nested if falls through", src: "(function(u) { if (u.a) { if (u.b) { return u.c; } } return u.d; })", code: ErrCodeShapeViolation},
		{name: "nested switch falls through", src: "(function(u) { if (u.a) { switch (u.b) { case 1: return u.c; } } return u.d; })", code: ErrCodeShapeViolation},
		{name: "while loop", src: "(function(u) { while (u.a) { return u.b; } return u.c; })", code: ErrCodeUnsupportedNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := transformSource(t, tt.src)
			require.Error(t, err)
			code, ok := CodeOf(err)
			require.True(t, ok, "expected *CompileError, got %T: %v", err, err)
			assert.Equal(t, tt.code, code, err.Error())
		})
	}
}

func id(name string) *queryir.Identifier { return &queryir.Identifier{Name: name} }

func TestMergeFragments(t *testing.T) {
	t.Run("splices searched cases", func(t *testing.T) {
		first := &queryir.CaseExpression{Clauses: []queryir.CaseClause{{When: id("a"), Then: id("b")}}}
		second := &queryir.CaseExpression{
			Clauses:   []queryir.CaseClause{{When: id("c"), Then: id("d")}},
			Alternate: id("e"),
		}

		merged, err := mergeFragments(nil, []queryir.Expr{first, second})
		require.NoError(t, err)
		assert.Equal(t, &queryir.CaseExpression{
			Clauses: []queryir.CaseClause{
				{When: id("a"), Then: id("b")},
				{When: id("c"), Then: id("d")},
			},
			Alternate: id("e"),
		}, merged)
	})

	t.Run("attaches a simple case whole", func(t *testing.T) {
		first := &queryir.CaseExpression{Clauses: []queryir.CaseClause{{When: id("a"), Then: id("b")}}}
		second := &queryir.CaseExpression{
			Discriminant: id("c"),
			Clauses:      []queryir.CaseClause{{When: id("d"), Then: id("e")}},
		}

		merged, err := mergeFragments(nil, []queryir.Expr{first, second, id("f")})
		require.NoError(t, err)
		assert.Equal(t, &queryir.CaseExpression{
			Clauses: []queryir.CaseClause{{When: id("a"), Then: id("b")}},
			Alternate: &queryir.CaseExpression{
				Discriminant: id("c"),
				Clauses:      []queryir.CaseClause{{When: id("d"), Then: id("e")}},
				Alternate:    id("f"),
			},
		}, merged)
	})

	t.Run("follows closed alternates to the open slot", func(t *testing.T) {
		inner := &queryir.CaseExpression{Clauses: []queryir.CaseClause{{When: id("c"), Then: id("d")}}}
		first := &queryir.CaseExpression{
			Clauses:   []queryir.CaseClause{{When: id("a"), Then: id("b")}},
			Alternate: inner,
		}

		merged, err := mergeFragments(nil, []queryir.Expr{first, id("e")})
		require.NoError(t, err)
		assert.Same(t, first, merged)
		assert.Equal(t, id("e"), inner.Alternate)
	})

	t.Run("single fragment is returned unchanged", func(t *testing.T) {
		merged, err := mergeFragments(nil, []queryir.Expr{id("a")})
		require.NoError(t, err)
		assert.Equal(t, id("a"), merged)
	})

	t.Run("open clause branch rejects further fragments", func(t *testing.T) {
		first := &queryir.CaseExpression{Clauses: []queryir.CaseClause{{
			When: id("a"),
			Then: &queryir.CaseExpression{Clauses: []queryir.CaseClause{{When: id("b"), Then: id("c")}}},
		}}}
		_, err := mergeFragments(nil, []queryir.Expr{first, id("d")})
		assert.True(t, IsShapeViolation(err))
	})

	t.Run("closed chain rejects further fragments", func(t *testing.T) {
		first := &queryir.CaseExpression{
			Clauses:   []queryir.CaseClause{{When: id("a"), Then: id("b")}},
			Alternate: id("c"),
		}
		_, err := mergeFragments(nil, []queryir.Expr{first, id("d")})
		assert.True(t, IsShapeViolation(err))
	})
}
