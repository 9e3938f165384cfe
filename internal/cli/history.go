package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/qarray"
	"github.com/roach88/qarray/internal/store"
)

// ErrCodeNoCacheDB reports a history query without --cache-db.
const ErrCodeNoCacheDB = "E009"

// StoredFilter is one statement read back from the cache database.
type StoredFilter struct {
	Table     string `json:"table"`
	Source    string `json:"source"`
	Statement string `json:"statement"`
}

// NewHistoryCommand creates the history command and its subcommands.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the cache database",
		Long: `Read back what earlier commands stored with --cache-db: compiled
statements per table, and the results of recorded check runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "filters <table>",
		Short:         "List cached statements for a table",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryFilters(rootOpts, args[0], cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "run [run-id]",
		Short:         "Show a recorded check run, the latest by default",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			if len(args) == 1 {
				id = args[0]
			}
			return runHistoryRun(rootOpts, id, cmd)
		},
	})

	return cmd
}

// openHistory opens the database named by --cache-db, which must be set.
func openHistory(opts *RootOptions, printer *Printer) (*qarray.SQLiteCache, error) {
	if opts.CacheDB == "" {
		return nil, commandError(printer, ErrCodeNoCacheDB, "history needs --cache-db")
	}
	st, err := qarray.OpenSQLiteCache(opts.CacheDB)
	if err != nil {
		return nil, commandError(printer, ErrCodeCacheFailed, fmt.Sprintf("opening cache: %v", err))
	}
	return st, nil
}

func runHistoryFilters(opts *RootOptions, table string, cmd *cobra.Command) error {
	printer := opts.printer(cmd)
	st, err := openHistory(opts, printer)
	if err != nil {
		return err
	}
	defer st.Close()

	filters, err := st.Filters(cmd.Context(), table)
	if err != nil {
		return commandError(printer, ErrCodeCacheFailed, err.Error())
	}

	out := make([]StoredFilter, len(filters))
	for i, f := range filters {
		out[i] = StoredFilter{Table: f.Table, Source: f.Source, Statement: f.Statement}
	}
	if printer.JSON() {
		return printer.Result(out)
	}

	if len(out) == 0 {
		fmt.Fprintf(printer.Out, "No cached statements for %s\n", table)
		return nil
	}
	for _, f := range out {
		fmt.Fprintf(printer.Out, "%s\n  %s\n", f.Source, f.Statement)
	}
	return nil
}

func runHistoryRun(opts *RootOptions, id string, cmd *cobra.Command) error {
	printer := opts.printer(cmd)
	st, err := openHistory(opts, printer)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if id == "" {
		if id, err = st.LatestCheckRunID(ctx); err != nil {
			return commandError(printer, ErrCodeCacheFailed, err.Error())
		}
		if id == "" {
			return commandError(printer, ErrCodeNotFound, "no check runs recorded")
		}
	}

	run, err := st.ReadCheckRun(ctx, id)
	if err != nil {
		return commandError(printer, ErrCodeCacheFailed, err.Error())
	}
	if run == nil {
		return commandError(printer, ErrCodeNotFound, fmt.Sprintf("check run %s not found", id))
	}
	return outputCheckReport(printer, fromCheckRun(run))
}

func fromCheckRun(run *store.CheckRun) *CheckReport {
	report := &CheckReport{
		RunID:    run.ID,
		Catalog:  run.Catalog,
		Entries:  run.Entries,
		Failures: run.Failures,
		Results:  make([]CheckResult, len(run.Results)),
	}
	for i, r := range run.Results {
		report.Results[i] = CheckResult{
			Table:     r.Table,
			Filter:    r.Filter,
			Statement: r.Statement,
			Code:      r.Code,
			Message:   r.Message,
		}
	}
	return report
}
