package compiler

import (
	"strconv"
	"strings"

	"github.com/roach88/qarray/internal/source"
)

// Positional parameter roles, in declaration order.
const (
	RoleRow    = "row"
	RoleGlobal = "global"
)

var roles = []string{RoleRow, RoleGlobal}

// Target is a role-qualified path: a role followed by zero or more field
// names. A Target with only the role binds the whole parameter.
type Target []string

// Role returns the positional role the target belongs to.
func (t Target) Role() string { return t[0] }

// Whole reports whether the target binds an entire parameter rather than
// one of its fields.
func (t Target) Whole() bool { return len(t) == 1 }

// Scope is one level of the alias table.
//
// Scopes are immutable once built. A nested function gets a child scope
// that sees every parent binding and may shadow it; sibling functions get
// independent children of the same parent.
type Scope struct {
	parent   *Scope
	bindings map[string]Target
}

// NewScope returns an empty root scope.
func NewScope() *Scope {
	return &Scope{bindings: map[string]Target{}}
}

// Lookup returns the binding for a dotted name, searching outward from s.
func (s *Scope) Lookup(name string) (Target, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if t, ok := cur.bindings[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// resolve finds the binding for the longest dotted prefix of segs.
// The innermost scope with any matching prefix wins, so a parameter that
// shadows a parent name also hides the parent's rest bindings under it.
// It returns the target and the number of segments the binding consumed.
func (s *Scope) resolve(segs []string) (Target, int, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		for n := len(segs); n > 0; n-- {
			if t, ok := cur.bindings[strings.Join(segs[:n], ".")]; ok {
				return t, n, true
			}
		}
	}
	return nil, 0, false
}

// Bind creates a child scope binding a function's formal parameters to
// roles.
//
//   - name at position i binds name → [role_i]
//   - { key: local } at position i binds local → [role_i, key]
//   - [a, b] at position i binds a → [role_i, "0"], b → [role_i, "1"]
//   - ...rest at position i binds rest.(k-i) → [role_k] for each k ≥ i
//
// Parameters past the last role bind nothing. A pattern element or rest
// target that is not a plain name fails with ErrUnsupportedPattern.
func (s *Scope) Bind(params []source.Param) (*Scope, error) {
	child := &Scope{parent: s, bindings: map[string]Target{}}

	for i, param := range params {
		var role string
		if i < len(roles) {
			role = roles[i]
		}

		switch p := param.(type) {
		case *source.IdentifierParam:
			if role != "" {
				child.bindings[p.Name] = Target{role}
			}
		case *source.ObjectPattern:
			if err := child.bindObject(p, role); err != nil {
				return nil, err
			}
		case *source.ArrayPattern:
			if err := child.bindArray(p, role); err != nil {
				return nil, err
			}
		case *source.RestParam:
			name, err := patternName(p.Target)
			if err != nil {
				return nil, err
			}
			for k := i; k < len(roles); k++ {
				child.bindings[name+"."+strconv.Itoa(k-i)] = Target{roles[k]}
			}
		default:
			return nil, newError(ErrCodeUnsupportedPattern, param,
				"unsupported parameter %q", source.KindOf(param))
		}
	}

	return child, nil
}

func (s *Scope) bindObject(p *source.ObjectPattern, role string) error {
	if p.Rest != nil {
		return newError(ErrCodeUnsupportedPattern, p.Rest, "object pattern rest element is not supported")
	}
	for _, prop := range p.Properties {
		name, err := patternName(prop.Target)
		if err != nil {
			return err
		}
		if role != "" {
			s.bindings[name] = Target{role, prop.Key}
		}
	}
	return nil
}

func (s *Scope) bindArray(p *source.ArrayPattern, role string) error {
	if p.Rest != nil {
		return newError(ErrCodeUnsupportedPattern, p.Rest, "array pattern rest element is not supported")
	}
	for j, el := range p.Elements {
		if el == nil {
			continue
		}
		name, err := patternName(el)
		if err != nil {
			return err
		}
		if role != "" {
			s.bindings[name] = Target{role, strconv.Itoa(j)}
		}
	}
	return nil
}

// patternName returns the local name a pattern element binds.
func patternName(n source.Node) (string, error) {
	id, ok := n.(*source.Identifier)
	if !ok {
		return "", newError(ErrCodeUnsupportedPattern, n,
			"pattern element %q must be a plain name", source.KindOf(n))
	}
	return id.Name, nil
}
