package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qarray"
	"github.com/roach88/qarray/internal/queryir"
)

// Error codes for command-level failures. Predicate failures report the
// compiler's own codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeBadInput    = "E002" // Missing or conflicting arguments
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeCacheFailed = "E008" // Cache database error
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Table string
	File  string
	TS    bool
	Where bool
}

// CompileResult is the JSON payload of a successful compile.
type CompileResult struct {
	Table     string `json:"table"`
	Statement string `json:"statement,omitempty"`
	Where     string `json:"where,omitempty"`
	Kind      string `json:"kind"` // root node of the query tree
}

// CompileFailure is the error detail of a rejected predicate.
type CompileFailure struct {
	Node   string `json:"node,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [predicate]",
		Short: "Compile one predicate to SQL",
		Long: `Compile a predicate function to a SQL statement.

The predicate is read from the argument or from --file. With --where only
the clause is printed; otherwise the full SELECT statement.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Table, "table", "t", "", "table name (required)")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the predicate from a file")
	cmd.Flags().BoolVar(&opts.TS, "ts", false, "strip TypeScript annotations before parsing")
	cmd.Flags().BoolVar(&opts.Where, "where", false, "print only the WHERE clause")

	return cmd
}

func runCompile(opts *CompileOptions, args []string, cmd *cobra.Command) error {
	printer := opts.printer(cmd)

	if opts.Table == "" {
		return commandError(printer, ErrCodeBadInput, "--table is required")
	}
	src, err := readPredicate(opts, args)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			_ = printer.CommandError(ErrCodeNotFound, exitErr.Message)
			return exitErr
		}
		return commandError(printer, ErrCodeBadInput, err.Error())
	}

	store, persistent, err := opts.openCache()
	if err != nil {
		return commandError(printer, ErrCodeCacheFailed, fmt.Sprintf("opening cache: %v", err))
	}
	if persistent != nil {
		defer persistent.Close()
	}

	tableOpts := []qarray.Option{
		qarray.WithLogger(opts.Logger(printer.Diagnostics())),
		qarray.WithCache(store),
	}
	if opts.TS {
		tableOpts = append(tableOpts, qarray.WithNormalizer(qarray.TypeScript()))
	}
	table := qarray.New(opts.Table, tableOpts...)

	compiled, err := table.Compile(src)
	if err != nil {
		return predicateError(printer, src, err)
	}
	result := CompileResult{Table: opts.Table, Kind: queryir.KindOf(compiled.Expr)}
	if opts.Where {
		result.Where = compiled.Where
	} else {
		result.Statement = compiled.Statement
	}

	if printer.JSON() {
		return printer.Result(result)
	}
	if opts.Where {
		fmt.Fprintln(printer.Out, result.Where)
	} else {
		fmt.Fprintln(printer.Out, result.Statement)
	}
	return nil
}

// readPredicate returns the predicate text from exactly one of the
// argument and --file.
func readPredicate(opts *CompileOptions, args []string) (string, error) {
	switch {
	case len(args) == 1 && opts.File != "":
		return "", errors.New("pass the predicate as an argument or with --file, not both")
	case len(args) == 1:
		return args[0], nil
	case opts.File != "":
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return "", WrapExitError(ExitCommandError, fmt.Sprintf("reading %s", opts.File), err)
		}
		return strings.TrimSpace(string(data)), nil
	default:
		return "", errors.New("no predicate given")
	}
}

// commandError reports a usage or environment error (exit code 2).
func commandError(printer *Printer, code, message string) error {
	_ = printer.CommandError(code, message)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// predicateError reports a rejected predicate (exit code 1).
func predicateError(printer *Printer, src string, err error) error {
	code := qarray.FailureCode(err)

	var details *CompileFailure
	var ce *qarray.CompileError
	var syntaxErr *qarray.SyntaxError
	var normErr *qarray.NormalizeError
	switch {
	case errors.As(err, &ce):
		line, col := ce.Position(src)
		details = &CompileFailure{Node: ce.Node, Line: line, Column: col}
	case errors.As(err, &syntaxErr):
		details = &CompileFailure{Line: syntaxErr.Line, Column: syntaxErr.Column}
	case errors.As(err, &normErr) && normErr.Line > 0:
		details = &CompileFailure{Line: normErr.Line, Column: normErr.Column}
	}

	message := err.Error()
	switch {
	case ce != nil:
		message = ce.Message
	case normErr != nil:
		message = normErr.Message
	}
	_ = printer.Rejected(code, message, details)
	return WrapExitError(ExitFailure, code, err)
}
