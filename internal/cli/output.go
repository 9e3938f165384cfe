package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Process exit codes. A rejected predicate and a broken invocation differ
// so scripts can tell a bad filter from a bad command line.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // a predicate was rejected
	ExitCommandError = 2 // bad flags, unreadable input, cache database errors
)

// ExitError carries the exit code of a failed command. The command has
// already printed its diagnostic, so main only exits with Code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the code carried by err, or ExitFailure for errors
// that did not come from a command.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Envelope wraps every JSON document the CLI prints.
type Envelope struct {
	Status string         `json:"status"` // "ok" or "error"
	Data   any            `json:"data,omitempty"`
	Error  *EnvelopeError `json:"error,omitempty"`
}

// EnvelopeError is a command error code (E002) or a compiler failure code
// (SHAPE_VIOLATION), with the source position when there is one.
type EnvelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Printer writes results to Out and diagnostics to Diag. In JSON mode
// everything on Out is one Envelope per command.
type Printer struct {
	Format  string
	Out     io.Writer
	Diag    io.Writer // defaults to Out
	Verbose bool
}

func (p *Printer) JSON() bool { return p.Format == "json" }

func (p *Printer) encode(env Envelope) error {
	enc := json.NewEncoder(p.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// Result prints a successful payload.
func (p *Printer) Result(data any) error {
	if p.JSON() {
		return p.encode(Envelope{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(p.Out, data)
	return err
}

// CommandError prints a failure of the command itself.
func (p *Printer) CommandError(code, message string) error {
	if p.JSON() {
		return p.encode(Envelope{Status: "error", Error: &EnvelopeError{Code: code, Message: message}})
	}
	_, err := fmt.Fprintf(p.Out, "qarray: %s: %s\n", code, message)
	return err
}

// Rejected prints a predicate the compiler refused:
//
//	✗ SHAPE_VIOLATION: return must be the last statement
//	  at 1:12 (ReturnStatement)
func (p *Printer) Rejected(code, message string, at *CompileFailure) error {
	if p.JSON() {
		env := Envelope{Status: "error", Error: &EnvelopeError{Code: code, Message: message}}
		if at != nil {
			env.Error.Details = at
		}
		return p.encode(env)
	}
	fmt.Fprintf(p.Out, "✗ %s: %s\n", code, message)
	if at == nil || at.Line == 0 {
		return nil
	}
	if at.Node != "" {
		_, err := fmt.Fprintf(p.Out, "  at %d:%d (%s)\n", at.Line, at.Column, at.Node)
		return err
	}
	_, err := fmt.Fprintf(p.Out, "  at %d:%d\n", at.Line, at.Column)
	return err
}

// Debugf prints a progress line on Diag when verbose.
func (p *Printer) Debugf(format string, args ...any) {
	if p.Verbose {
		fmt.Fprintf(p.Diagnostics(), format+"\n", args...)
	}
}

// Diagnostics is where logs and progress go.
func (p *Printer) Diagnostics() io.Writer {
	if p.Diag != nil {
		return p.Diag
	}
	return p.Out
}
