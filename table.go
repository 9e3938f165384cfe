package qarray

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/qarray/internal/cache"
	"github.com/roach88/qarray/internal/compiler"
	"github.com/roach88/qarray/internal/metrics"
	"github.com/roach88/qarray/internal/queryir"
	"github.com/roach88/qarray/internal/querysql"
	"github.com/roach88/qarray/internal/source"
)

// Failure codes reported for errors raised before lowering.
const (
	CodeSyntax    = "SYNTAX"
	CodeNormalize = "NORMALIZE"
	CodeInternal  = "INTERNAL"
)

// Table compiles predicates into statements over one named table.
//
// A Table is safe for concurrent use. Each Table owns a private in-memory
// cache unless one is supplied with WithCache.
type Table struct {
	name       string
	loader     *cache.Loader
	logger     *slog.Logger
	normalizer source.Normalizer
	metrics    *metrics.Collector
	sql        *querysql.SQLCompiler
}

// Option configures a Table.
type Option func(*Table)

// WithCache shares store between tables. Keys include the table name, so
// entries from different tables never collide.
func WithCache(store Cache) Option {
	return func(t *Table) { t.loader = cache.NewLoader(store) }
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Table) { t.logger = logger }
}

// WithNormalizer rewrites predicate text before parsing.
func WithNormalizer(n Normalizer) Option {
	return func(t *Table) { t.normalizer = n }
}

// WithMetrics records cache and compile activity on c.
func WithMetrics(c *Metrics) Option {
	return func(t *Table) { t.metrics = c }
}

// New creates a Table named name.
func New(name string, opts ...Option) *Table {
	t := &Table{
		name:       name,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		normalizer: source.Identity{},
		sql:        querysql.NewSQLCompiler(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.loader == nil {
		t.loader = cache.NewLoader(cache.NewMemory())
	}
	return t
}

// Name returns the table name used in statements.
func (t *Table) Name() string {
	return t.name
}

// Filter returns the complete statement for a predicate:
//
//	SELECT * FROM <name> WHERE <clause>;
//
// Statements are cached by predicate text. Failed compiles are not cached.
func (t *Table) Filter(src string) (string, error) {
	key := cache.Key(t.name, src)
	stmt, hit, err := t.loader.Load(key, func() (string, error) {
		return t.compile(src)
	})
	if err != nil {
		return "", err
	}
	if hit {
		t.metrics.Hit(t.name)
		t.logger.Debug("cache hit", "table", t.name)
	}
	return stmt, nil
}

// Compiled holds every rendering of one predicate.
type Compiled struct {
	Expr      queryir.Expr
	Where     string
	Statement string
}

// Compile lowers a predicate once and renders both the clause and the
// statement. The statement is stored in the cache like Filter's.
func (t *Table) Compile(src string) (*Compiled, error) {
	start := time.Now()
	expr, text, err := t.lower(src)
	if err != nil {
		return nil, t.fail(text, err)
	}
	out := &Compiled{Expr: expr}
	if out.Where, err = t.sql.Compile(expr); err != nil {
		return nil, t.fail(text, err)
	}
	if out.Statement, err = t.sql.Statement(t.name, expr); err != nil {
		return nil, t.fail(text, err)
	}

	_, hit, err := t.loader.Load(cache.Key(t.name, src), func() (string, error) {
		t.metrics.Miss(t.name)
		t.metrics.Compiled(t.name, time.Since(start))
		return out.Statement, nil
	})
	if err != nil {
		return nil, err
	}
	if hit {
		t.metrics.Hit(t.name)
	}
	return out, nil
}

// Where returns only the rendered clause. It bypasses the cache.
func (t *Table) Where(src string) (string, error) {
	expr, _, err := t.lower(src)
	if err != nil {
		return "", err
	}
	return t.sql.Compile(expr)
}

// Expr returns the lowered query tree. It bypasses the cache.
func (t *Table) Expr(src string) (queryir.Expr, error) {
	expr, _, err := t.lower(src)
	return expr, err
}

func (t *Table) compile(src string) (string, error) {
	t.metrics.Miss(t.name)
	start := time.Now()

	expr, text, err := t.lower(src)
	if err != nil {
		return "", t.fail(text, err)
	}
	stmt, err := t.sql.Statement(t.name, expr)
	if err != nil {
		return "", t.fail(text, err)
	}

	elapsed := time.Since(start)
	t.metrics.Compiled(t.name, elapsed)
	t.logger.Debug("compiled filter", "table", t.name, "duration", elapsed)
	return stmt, nil
}

// lower also returns the text that was parsed, which compile error
// offsets refer to.
func (t *Table) lower(src string) (queryir.Expr, string, error) {
	normalized, err := t.normalizer.Normalize(src)
	if err != nil {
		return nil, src, err
	}
	prog, err := source.Parse(normalized)
	if err != nil {
		return nil, normalized, err
	}
	expr, err := compiler.Transform(prog)
	return expr, normalized, err
}

func (t *Table) fail(text string, err error) error {
	code := FailureCode(err)
	t.metrics.Failed(t.name, code)

	attrs := []any{"table", t.name, "code", code, "error", err}
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		line, col := ce.Position(text)
		attrs = append(attrs, "line", line, "column", col)
	}
	t.logger.Warn("filter compile failed", attrs...)
	return err
}

// FailureCode classifies an error returned by Filter, Where or Expr.
func FailureCode(err error) string {
	if code, ok := compiler.CodeOf(err); ok {
		return string(code)
	}
	var syntaxErr *source.SyntaxError
	if errors.As(err, &syntaxErr) {
		return CodeSyntax
	}
	var normErr *source.NormalizeError
	if errors.As(err, &normErr) {
		return CodeNormalize
	}
	return CodeInternal
}
