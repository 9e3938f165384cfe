package compiler

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/roach88/qarray/internal/queryir"
	"github.com/roach88/qarray/internal/source"
)

// maxPathSegments is the deepest reference SQL can express: a qualified
// path qualifier.object.property.
const maxPathSegments = 3

// memberPath unwinds a member-access chain into its root identifier
// followed by each property name.
//
// A property is either a plain identifier (a.b) or a computed numeric or
// string literal (a[0], a['b']). The root must be an identifier.
func memberPath(n source.Node) ([]string, error) {
	var segs []string

	for {
		m, ok := n.(*source.MemberAccess)
		if !ok {
			break
		}
		seg, err := propertyName(m)
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
		n = m.Object
	}

	root, ok := n.(*source.Identifier)
	if !ok {
		return nil, unsupportedNode(n)
	}
	segs = append(segs, root.Name)

	// Collected outermost first.
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return segs, nil
}

func propertyName(m *source.MemberAccess) (string, error) {
	if !m.Computed {
		id, ok := m.Property.(*source.Identifier)
		if !ok {
			return "", unsupportedNode(m.Property)
		}
		return id.Name, nil
	}

	switch p := m.Property.(type) {
	case *source.NumericLiteral:
		name := strconv.FormatFloat(p.Value, 'f', -1, 64)
		if strings.Contains(name, ".") {
			return "", shapeViolation(p, "computed index %s is not an integer", name)
		}
		return name, nil
	case *source.StringLiteral:
		if p.Value == "" || strings.ContainsAny(p.Value, ". \t\r\n") {
			return "", shapeViolation(p, "computed property %q is not a plain name", p.Value)
		}
		return p.Value, nil
	default:
		return "", unsupportedNode(m.Property)
	}
}

// resolvedPath is a source reference after alias substitution.
type resolvedPath struct {
	// Segments are the names emitted into SQL.
	Segments []string
	// Target is the binding the reference resolved through; nil when the
	// reference is a literal field name.
	Target Target
	// Rest are the source segments after the bound prefix.
	Rest []string
}

// Bound reports whether the reference resolved through a parameter.
func (p resolvedPath) Bound() bool { return p.Target != nil }

// Trailing is the last segment of the role-qualified path: the role, its
// bound field, then any further properties.
func (p resolvedPath) Trailing() string {
	if len(p.Rest) > 0 {
		return p.Rest[len(p.Rest)-1]
	}
	return p.Target[len(p.Target)-1]
}

// resolvePath substitutes the longest bound prefix of segs.
//
// A whole-parameter binding keeps the source root name, so (user) =>
// user.age yields user.age and (...args) => args[0].age yields args.age.
// A field binding contributes its key: ({ age }) => age yields age. An
// array element binding has an index for a key, which SQL would read as a
// number, so it keeps the local name: ([a]) => a yields a.
// Unbound references pass through unchanged.
func resolvePath(scope *Scope, segs []string) resolvedPath {
	target, n, ok := scope.resolve(segs)
	if !ok {
		return resolvedPath{Segments: segs}
	}

	out := resolvedPath{Target: target, Rest: segs[n:]}
	if target.Whole() || !isName(target[len(target)-1]) {
		out.Segments = append([]string{segs[0]}, segs[n:]...)
	} else {
		out.Segments = append(append([]string{}, target[1:]...), segs[n:]...)
	}
	return out
}

// isName reports whether s can stand alone as a column name.
func isName(s string) bool {
	for i, r := range s {
		if r == '_' || r == '$' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return s != ""
}

// pathExpr builds the query reference for resolved segments.
func pathExpr(n source.Node, segs []string) (queryir.Expr, error) {
	switch len(segs) {
	case 1:
		return &queryir.Identifier{Name: segs[0]}, nil
	case 2:
		return &queryir.Path{Object: segs[0], Property: segs[1]}, nil
	case maxPathSegments:
		return &queryir.QualifiedPath{
			Qualifier: segs[0],
			Path:      queryir.Path{Object: segs[1], Property: segs[2]},
		}, nil
	default:
		return nil, shapeViolation(n, "member chain %q is deeper than %d segments",
			strings.Join(segs, "."), maxPathSegments)
	}
}

// transformReference lowers an identifier or member chain.
func transformReference(n source.Node, scope *Scope) (queryir.Expr, error) {
	segs, err := memberPath(n)
	if err != nil {
		return nil, err
	}
	return pathExpr(n, resolvePath(scope, segs).Segments)
}
