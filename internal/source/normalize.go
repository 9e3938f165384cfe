package source

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Normalizer rewrites predicate text into the dialect Parse accepts.
type Normalizer interface {
	Normalize(src string) (string, error)
}

// Identity returns the text unchanged.
type Identity struct{}

func (Identity) Normalize(src string) (string, error) { return src, nil }

// NormalizeError reports text the normalizer could not transform.
type NormalizeError struct {
	Line    int
	Column  int
	Message string
}

func (e *NormalizeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("normalize at %d:%d: %s", e.Line, e.Column, e.Message)
	}
	return "normalize: " + e.Message
}

// ESBuild strips TypeScript annotations and down-levels newer syntax with
// esbuild's transform API. The zero value targets ES2015 with the TS loader.
//
// Syntax that esbuild can only lower by adding helper statements or
// temporaries (optional chaining, **, ??) has no single-expression form,
// so it is rejected with a NormalizeError naming the construct.
type ESBuild struct {
	Target api.Target
	Loader api.Loader
}

// loweredFeatures are the esbuild features whose lowering declares
// helpers, with the name reported for each.
var loweredFeatures = []struct {
	feature string
	name    string
}{
	{"exponent-operator", "exponent operator (**)"},
	{"optional-chain", "optional chaining (?.)"},
	{"nullish-coalescing", "nullish coalescing (??)"},
	{"logical-assignment", "logical assignment"},
	{"object-rest-spread", "object spread"},
}

var varKeyword = regexp.MustCompile(`\bvar\b`)

func (n ESBuild) Normalize(src string) (string, error) {
	target := n.Target
	if target == api.DefaultTarget {
		target = api.ES2015
	}

	// Parenthesised so a bare `function (row) {}` is an expression
	// statement; the newline keeps a trailing line comment inside.
	body := strings.TrimRight(src, " \t\r\n;")
	lowered, err := n.transform(body, target, nil)
	if err != nil || target == api.ESNext {
		return lowered, err
	}

	stripped, err := n.transform(body, api.ESNext, nil)
	if err != nil {
		return "", err
	}
	if len(varKeyword.FindAllStringIndex(lowered, -1)) <= len(varKeyword.FindAllStringIndex(stripped, -1)) {
		return lowered, nil
	}

	var names []string
	for _, f := range loweredFeatures {
		kept, err := n.transform(body, target, map[string]bool{f.feature: true})
		if err == nil && kept != lowered {
			names = append(names, f.name)
		}
	}
	if len(names) == 0 {
		names = append(names, "syntax newer than the target")
	}
	return "", &NormalizeError{
		Message: fmt.Sprintf("%s cannot be lowered without helper statements", strings.Join(names, ", ")),
	}
}

func (n ESBuild) transform(body string, target api.Target, supported map[string]bool) (string, error) {
	loader := n.Loader
	if loader == api.LoaderNone {
		loader = api.LoaderTS
	}

	result := api.Transform("("+body+"\n)", api.TransformOptions{
		Loader:    loader,
		Target:    target,
		Supported: supported,
	})
	if len(result.Errors) > 0 {
		msg := result.Errors[0]
		out := &NormalizeError{Message: msg.Text}
		if msg.Location != nil {
			// esbuild columns are 0-based.
			out.Line, out.Column = unwrapPosition(body, msg.Location.Line, msg.Location.Column+1)
		}
		return "", out
	}
	return strings.TrimSpace(string(result.Code)), nil
}
