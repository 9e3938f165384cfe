package source

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// SyntaxError reports predicate text the JavaScript parser rejected.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Column, e.Message)
	}
	return "syntax error: " + e.Message
}

// Parse parses predicate source text into a Program.
//
// The text is wrapped in parentheses before parsing so that an anonymous
// `function (row) { ... }` parses as an expression. The closing parenthesis
// goes on its own line so a trailing line comment cannot swallow it. Trailing semicolons and
// whitespace are dropped first. Offsets in the returned nodes refer to src.
func Parse(src string) (*Program, error) {
	body := strings.TrimRight(src, " \t\r\n;")
	if body == "" {
		return nil, &SyntaxError{Message: "empty predicate"}
	}

	prog, err := parser.ParseFile(nil, "predicate.js", "("+body+"\n)", 0)
	if err != nil {
		return nil, convertSyntaxError(body, err)
	}

	c := &converter{limit: len(body)}
	out := &Program{Loc: Loc{First: 0, Last: len(body)}}
	for _, stmt := range prog.Body {
		out.Body = append(out.Body, c.stmt(stmt))
	}
	return out, nil
}

// wrapOffset is the width of the opening parenthesis Parse adds.
const wrapOffset = 1

func convertSyntaxError(body string, err error) error {
	var list parser.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		return newSyntaxError(body, list[0])
	}
	var single *parser.Error
	if errors.As(err, &single) {
		return newSyntaxError(body, single)
	}
	return &SyntaxError{Message: err.Error()}
}

func newSyntaxError(body string, e *parser.Error) *SyntaxError {
	line, col := unwrapPosition(body, e.Position.Line, e.Position.Column)
	return &SyntaxError{Line: line, Column: col, Message: e.Message}
}

// unwrapPosition maps a 1-based position in the wrapped text back to body.
// A position on the closing parenthesis line points just past the body.
func unwrapPosition(body string, line, col int) (int, int) {
	if line > strings.Count(body, "\n")+1 {
		return LineColumn(body, len(body))
	}
	if line == 1 && col > wrapOffset {
		col -= wrapOffset
	}
	return line, col
}

// converter adapts goja's AST to source nodes.
type converter struct {
	limit int
}

func (c *converter) loc(n ast.Node) Loc {
	// goja indexes are 1-based; the wrapping parenthesis shifts by one more.
	first := c.clamp(int(n.Idx0()) - 1 - wrapOffset)
	last := c.clamp(int(n.Idx1()) - 1 - wrapOffset)
	if last < first {
		last = first
	}
	return Loc{First: first, Last: last}
}

func (c *converter) clamp(off int) int {
	if off < 0 {
		return 0
	}
	if off > c.limit {
		return c.limit
	}
	return off
}

func (c *converter) stmt(s ast.Statement) Node {
	switch s := s.(type) {
	case nil:
		return nil
	case *ast.ExpressionStatement:
		return &ExpressionStatement{Loc: c.loc(s), Expression: c.expr(s.Expression)}
	case *ast.BlockStatement:
		return c.block(s)
	case *ast.ReturnStatement:
		return &ReturnStatement{Loc: c.loc(s), Argument: c.expr(s.Argument)}
	case *ast.IfStatement:
		out := &IfStatement{
			Loc:        c.loc(s),
			Test:       c.expr(s.Test),
			Consequent: c.stmt(s.Consequent),
		}
		if s.Alternate != nil {
			out.Alternate = c.stmt(s.Alternate)
		}
		return out
	case *ast.SwitchStatement:
		out := &SwitchStatement{Loc: c.loc(s), Discriminant: c.expr(s.Discriminant)}
		for _, cs := range s.Body {
			sc := &SwitchCase{Loc: c.loc(cs), Test: c.expr(cs.Test)}
			for _, st := range cs.Consequent {
				sc.Consequent = append(sc.Consequent, c.stmt(st))
			}
			out.Cases = append(out.Cases, sc)
		}
		return out
	default:
		return &Unsupported{Loc: c.loc(s), Kind: typeName(s)}
	}
}

func (c *converter) block(b *ast.BlockStatement) *BlockStatement {
	out := &BlockStatement{Loc: c.loc(b)}
	for _, st := range b.List {
		out.Body = append(out.Body, c.stmt(st))
	}
	return out
}

func (c *converter) expr(e ast.Expression) Node {
	switch e := e.(type) {
	case nil:
		return nil
	case *ast.Identifier:
		return &Identifier{Loc: c.loc(e), Name: e.Name.String()}
	case *ast.NumberLiteral:
		return c.number(e)
	case *ast.StringLiteral:
		return &StringLiteral{Loc: c.loc(e), Value: e.Value.String()}
	case *ast.BooleanLiteral:
		return &OtherLiteral{Loc: c.loc(e), Kind: "BooleanLiteral", Raw: e.Literal}
	case *ast.NullLiteral:
		return &OtherLiteral{Loc: c.loc(e), Kind: "NullLiteral", Raw: e.Literal}
	case *ast.RegExpLiteral:
		return &OtherLiteral{Loc: c.loc(e), Kind: "RegExpLiteral", Raw: e.Literal}
	case *ast.TemplateLiteral:
		return &OtherLiteral{Loc: c.loc(e), Kind: "TemplateLiteral"}
	case *ast.ArrayLiteral:
		out := &ArrayLiteral{Loc: c.loc(e)}
		for _, el := range e.Value {
			if el == nil {
				out.Elements = append(out.Elements, &Unsupported{Loc: out.Loc, Kind: "ArrayHole"})
				continue
			}
			out.Elements = append(out.Elements, c.expr(el))
		}
		return out
	case *ast.UnaryExpression:
		op := e.Operator.String()
		if e.Postfix || op == "++" || op == "--" {
			return &Unsupported{Loc: c.loc(e), Kind: "UpdateExpression"}
		}
		return &UnaryOp{Loc: c.loc(e), Operator: op, Argument: c.expr(e.Operand)}
	case *ast.BinaryExpression:
		op := e.Operator.String()
		switch op {
		case "&&", "||", "??":
			return &LogicalOp{Loc: c.loc(e), Operator: op, Left: c.expr(e.Left), Right: c.expr(e.Right)}
		}
		return &BinaryOp{Loc: c.loc(e), Operator: op, Left: c.expr(e.Left), Right: c.expr(e.Right)}
	case *ast.DotExpression:
		return &MemberAccess{
			Loc:      c.loc(e),
			Object:   c.expr(e.Left),
			Property: &Identifier{Loc: c.loc(&e.Identifier), Name: e.Identifier.Name.String()},
		}
	case *ast.BracketExpression:
		return &MemberAccess{
			Loc:      c.loc(e),
			Object:   c.expr(e.Left),
			Property: c.expr(e.Member),
			Computed: true,
		}
	case *ast.CallExpression:
		out := &CallExpression{Loc: c.loc(e), Callee: c.expr(e.Callee)}
		for _, arg := range e.ArgumentList {
			out.Arguments = append(out.Arguments, c.expr(arg))
		}
		return out
	case *ast.ConditionalExpression:
		return &ConditionalExpression{
			Loc:        c.loc(e),
			Test:       c.expr(e.Test),
			Consequent: c.expr(e.Consequent),
			Alternate:  c.expr(e.Alternate),
		}
	case *ast.ArrowFunctionLiteral:
		out := &FunctionExpression{Loc: c.loc(e), Arrow: true, Params: c.params(e.ParameterList)}
		switch body := e.Body.(type) {
		case *ast.BlockStatement:
			out.Body = c.block(body)
		case *ast.ExpressionBody:
			out.Body = c.expr(body.Expression)
		}
		return out
	case *ast.FunctionLiteral:
		out := &FunctionExpression{Loc: c.loc(e), Params: c.params(e.ParameterList)}
		if e.Body != nil {
			out.Body = c.block(e.Body)
		}
		return out
	default:
		return &Unsupported{Loc: c.loc(e), Kind: typeName(e)}
	}
}

func (c *converter) number(e *ast.NumberLiteral) Node {
	out := &NumericLiteral{Loc: c.loc(e), Raw: e.Literal}
	switch v := e.Value.(type) {
	case int64:
		out.Value = float64(v)
	case float64:
		out.Value = v
	default:
		// BigInt literals surface as *big.Int.
		return &OtherLiteral{Loc: out.Loc, Kind: "BigIntLiteral", Raw: e.Literal}
	}
	return out
}

func (c *converter) params(list *ast.ParameterList) []Param {
	if list == nil {
		return nil
	}
	var out []Param
	for _, b := range list.List {
		out = append(out, c.binding(b.Target, b.Initializer != nil))
	}
	if list.Rest != nil {
		out = append(out, &RestParam{Loc: c.loc(list.Rest), Target: c.pattern(list.Rest)})
	}
	return out
}

func (c *converter) binding(target ast.Expression, hasDefault bool) Param {
	switch t := target.(type) {
	case *ast.Identifier:
		return &IdentifierParam{Loc: c.loc(t), Name: t.Name.String(), HasDefault: hasDefault}
	case *ast.ObjectPattern:
		p := c.objectPattern(t)
		p.HasDefault = hasDefault
		return p
	case *ast.ArrayPattern:
		p := c.arrayPattern(t)
		p.HasDefault = hasDefault
		return p
	default:
		return &Unsupported{Loc: c.loc(target), Kind: typeName(target)}
	}
}

// pattern converts a binding target nested inside a pattern. Defaults are
// unwrapped because only the target name matters for binding.
func (c *converter) pattern(e ast.Expression) Node {
	switch e := e.(type) {
	case nil:
		return nil
	case *ast.Identifier:
		return &Identifier{Loc: c.loc(e), Name: e.Name.String()}
	case *ast.AssignExpression:
		return c.pattern(e.Left)
	case *ast.ObjectPattern:
		return c.objectPattern(e)
	case *ast.ArrayPattern:
		return c.arrayPattern(e)
	default:
		return &Unsupported{Loc: c.loc(e), Kind: typeName(e)}
	}
}

func (c *converter) objectPattern(p *ast.ObjectPattern) *ObjectPattern {
	out := &ObjectPattern{Loc: c.loc(p)}
	for _, prop := range p.Properties {
		switch prop := prop.(type) {
		case *ast.PropertyShort:
			name := prop.Name.Name.String()
			out.Properties = append(out.Properties, PatternProperty{
				Key:    name,
				Target: &Identifier{Loc: c.loc(&prop.Name), Name: name},
			})
		case *ast.PropertyKeyed:
			key, ok := propertyKey(prop.Key)
			if !ok || prop.Computed {
				out.Properties = append(out.Properties, PatternProperty{
					Target: &Unsupported{Loc: c.loc(prop.Key), Kind: "ComputedPropertyKey"},
				})
				continue
			}
			out.Properties = append(out.Properties, PatternProperty{Key: key, Target: c.pattern(prop.Value)})
		default:
			out.Properties = append(out.Properties, PatternProperty{
				Target: &Unsupported{Loc: out.Loc, Kind: typeName(prop)},
			})
		}
	}
	if p.Rest != nil {
		out.Rest = c.pattern(p.Rest)
	}
	return out
}

func (c *converter) arrayPattern(p *ast.ArrayPattern) *ArrayPattern {
	out := &ArrayPattern{Loc: c.loc(p)}
	for _, el := range p.Elements {
		if el == nil {
			out.Elements = append(out.Elements, nil)
			continue
		}
		out.Elements = append(out.Elements, c.pattern(el))
	}
	if p.Rest != nil {
		out.Rest = c.pattern(p.Rest)
	}
	return out
}

func propertyKey(e ast.Expression) (string, bool) {
	switch k := e.(type) {
	case *ast.Identifier:
		return k.Name.String(), true
	case *ast.StringLiteral:
		return k.Value.String(), true
	case *ast.NumberLiteral:
		return k.Literal, true
	}
	return "", false
}

func typeName(v any) string {
	name := fmt.Sprintf("%T", v)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
