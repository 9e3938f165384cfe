package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/qarray"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	CacheDB   string // sqlite path for the persistent statement cache
	CacheSize int    // bound on the in-memory cache; 0 is unbounded
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the qarray CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "qarray",
		Short: "qarray - predicate functions to SQL",
		Long:  "Compile JavaScript-style predicate functions into SQL WHERE clauses.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.CacheDB, "cache-db", "", "sqlite database for compiled statements and check runs")
	cmd.PersistentFlags().IntVar(&opts.CacheSize, "cache-size", 0, "keep at most this many statements in memory (0 for no limit)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// Logger returns a debug-level text logger on w when verbose, otherwise a
// logger that discards everything.
func (o *RootOptions) Logger(w io.Writer) *slog.Logger {
	if !o.Verbose {
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (o *RootOptions) printer(cmd *cobra.Command) *Printer {
	return &Printer{
		Format:  o.Format,
		Out:     cmd.OutOrStdout(),
		Diag:    cmd.ErrOrStderr(),
		Verbose: o.Verbose,
	}
}

// openCache returns the statement cache for a command. Without --cache-db
// it lives in memory, bounded by --cache-size when set, and the returned
// *qarray.SQLiteCache is nil.
func (o *RootOptions) openCache() (qarray.Cache, *qarray.SQLiteCache, error) {
	switch {
	case o.CacheSize < 0:
		return nil, nil, fmt.Errorf("--cache-size must not be negative")
	case o.CacheDB != "" && o.CacheSize > 0:
		return nil, nil, fmt.Errorf("--cache-size applies to the in-memory cache and cannot be combined with --cache-db")
	case o.CacheDB != "":
		st, err := qarray.OpenSQLiteCache(o.CacheDB)
		if err != nil {
			return nil, nil, err
		}
		return st, st, nil
	case o.CacheSize > 0:
		c, err := qarray.NewBoundedCache(o.CacheSize)
		return c, nil, err
	default:
		return qarray.NewMemoryCache(), nil, nil
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
