package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/qarray"
	"github.com/roach88/qarray/internal/catalog"
	"github.com/roach88/qarray/internal/compiler"
	"github.com/roach88/qarray/internal/store"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Jobs    int
	Metrics bool
}

// CheckReport is the outcome of compiling every filter in a catalog.
type CheckReport struct {
	RunID    string        `json:"run_id,omitempty"`
	Catalog  string        `json:"catalog"`
	Entries  int           `json:"entries"`
	Failures int           `json:"failures"`
	Results  []CheckResult `json:"results"`
	Metrics  string        `json:"metrics,omitempty"` // prometheus text exposition
}

// CheckResult is the outcome for one catalog entry.
type CheckResult struct {
	Table     string `json:"table"`
	Filter    string `json:"filter"`
	Statement string `json:"statement,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <catalog>",
		Short: "Compile every filter in a catalog",
		Long: `Compile every named filter in a YAML file or CUE directory.

Each entry reports its statement or error code. The command exits 1 if any
entry fails. With --cache-db the run is recorded in the database. With
--metrics the cache and compile counters are printed after the report in
the prometheus text format.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", runtime.GOMAXPROCS(0), "entries compiled concurrently")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print cache and compile metrics")

	return cmd
}

func runCheck(opts *CheckOptions, path string, cmd *cobra.Command) error {
	printer := opts.printer(cmd)

	if opts.Jobs < 1 {
		return commandError(printer, ErrCodeBadInput, "--jobs must be at least 1")
	}

	cat, err := catalog.Load(path)
	if err != nil {
		var loadErr *catalog.LoadError
		if errors.As(err, &loadErr) {
			message := loadErr.Message
			if loadErr.Pos.IsValid() {
				message = loadErr.Error()
			}
			return commandError(printer, loadErr.Code, message)
		}
		return commandError(printer, ErrCodeGeneric, err.Error())
	}
	printer.Debugf("Loaded %d filter(s) from %s", len(cat.Entries), path)

	cacheStore, persistent, err := opts.openCache()
	if err != nil {
		return commandError(printer, ErrCodeCacheFailed, fmt.Sprintf("opening cache: %v", err))
	}
	if persistent != nil {
		defer persistent.Close()
	}

	tableOpts := []qarray.Option{
		qarray.WithLogger(opts.Logger(printer.Diagnostics())),
		qarray.WithCache(cacheStore),
	}
	var reg *prometheus.Registry
	if opts.Metrics {
		reg = prometheus.NewRegistry()
		tableOpts = append(tableOpts, qarray.WithMetrics(qarray.NewMetrics(reg)))
	}
	tables := make(map[string]*qarray.Table)
	for _, name := range cat.Tables() {
		tables[name] = qarray.New(name, tableOpts...)
	}

	report := &CheckReport{
		Catalog: path,
		Entries: len(cat.Entries),
		Results: make([]CheckResult, len(cat.Entries)),
	}

	var g errgroup.Group
	g.SetLimit(opts.Jobs)
	for i, entry := range cat.Entries {
		i, entry := i, entry
		g.Go(func() error {
			report.Results[i] = checkEntry(tables[entry.Table], entry)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range report.Results {
		if r.Code != "" {
			report.Failures++
		}
	}

	if persistent != nil {
		report.RunID = store.NewRunID()
		if err := persistent.WriteCheckRun(cmd.Context(), toCheckRun(report)); err != nil {
			return commandError(printer, ErrCodeCacheFailed, fmt.Sprintf("recording check run: %v", err))
		}
		printer.Debugf("Recorded check run %s", report.RunID)
	}

	if reg != nil {
		if report.Metrics, err = exposition(reg); err != nil {
			return commandError(printer, ErrCodeGeneric, fmt.Sprintf("gathering metrics: %v", err))
		}
	}

	if err := outputCheckReport(printer, report); err != nil {
		return err
	}
	if report.Failures > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d filter(s) failed", report.Failures, report.Entries))
	}
	return nil
}

func checkEntry(table *qarray.Table, entry catalog.Entry) CheckResult {
	result := CheckResult{Table: entry.Table, Filter: entry.Name}
	stmt, err := table.Filter(entry.Source)
	if err != nil {
		result.Code = qarray.FailureCode(err)
		result.Message = err.Error()
		var ce *compiler.CompileError
		if errors.As(err, &ce) {
			result.Message = ce.Message
		}
		return result
	}
	result.Statement = stmt
	return result
}

func toCheckRun(report *CheckReport) store.CheckRun {
	run := store.CheckRun{
		ID:       report.RunID,
		Catalog:  report.Catalog,
		Entries:  report.Entries,
		Failures: report.Failures,
		Results:  make([]store.CheckResult, len(report.Results)),
	}
	for i, r := range report.Results {
		run.Results[i] = store.CheckResult{
			Table:     r.Table,
			Filter:    r.Filter,
			Statement: r.Statement,
			Code:      r.Code,
			Message:   r.Message,
		}
	}
	return run
}

func outputCheckReport(printer *Printer, report *CheckReport) error {
	if printer.JSON() {
		status := "ok"
		if report.Failures > 0 {
			status = "error"
		}
		encoder := json.NewEncoder(printer.Out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(Envelope{Status: status, Data: report})
	}

	for _, r := range report.Results {
		if r.Code != "" {
			fmt.Fprintf(printer.Out, "✗ %s.%s: %s: %s\n", r.Table, r.Filter, r.Code, r.Message)
			continue
		}
		fmt.Fprintf(printer.Out, "✓ %s.%s: %s\n", r.Table, r.Filter, r.Statement)
	}
	fmt.Fprintln(printer.Out)
	if report.Failures > 0 {
		fmt.Fprintf(printer.Out, "✗ %d of %d filter(s) failed\n", report.Failures, report.Entries)
	} else {
		fmt.Fprintf(printer.Out, "✓ All %d filter(s) compiled\n", report.Entries)
	}
	if report.RunID != "" {
		fmt.Fprintf(printer.Out, "Run %s recorded\n", report.RunID)
	}
	if report.Metrics != "" {
		fmt.Fprintln(printer.Out)
		fmt.Fprint(printer.Out, report.Metrics)
	}
	return nil
}

// exposition renders every family in reg in the prometheus text format.
func exposition(reg *prometheus.Registry) (string, error) {
	families, err := reg.Gather()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&sb, mf); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}
