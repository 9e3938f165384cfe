// Package source holds the syntax tree of a predicate function and the
// adapters that produce it.
//
// Parsing is delegated to goja's JavaScript parser; Parse converts goja's
// tree into the closed set of node types declared in ast.go so the
// compiler never depends on a parser library directly. A Normalizer can
// run first to strip TypeScript annotations or lower newer syntax
// (ESBuild).
//
// Constructs outside the predicate grammar are preserved as *Unsupported
// or *OtherLiteral nodes rather than rejected here, so the compiler can
// report them with a precise error code and position.
package source
