package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Check failure (unsafe rules in strict mode, validation errors, etc.)
	ExitCommandError = 2 // Command error (invalid paths, database not found, etc.)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
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

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// printer routes command output. Every command produces one report, a
// structured payload with a text rendering; diagnostics (load and
// validation errors) are coded lines in text mode and error envelopes in
// JSON mode.
type printer struct {
	format  string
	out     io.Writer
	errOut  io.Writer
	verbose bool
}

func newPrinter(opts *RootOptions, cmd *cobra.Command) *printer {
	return &printer{
		format:  opts.Format,
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
		verbose: opts.Verbose,
	}
}

// envelope is the JSON shape of every command's output.
type envelope struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   any         `json:"data,omitempty"`  // report payload
	Error  *diagnostic `json:"error,omitempty"` // error details
}

// diagnostic is one coded problem (load error, validation error).
type diagnostic struct {
	Code    string `json:"code"`              // "E001", "E101", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // offending path or field
}

// report emits a command's result: a JSON envelope when --format json,
// otherwise the command's own text rendering.
func (p *printer) report(data any, text func(w io.Writer)) error {
	if p.format == "json" {
		return json.NewEncoder(p.out).Encode(envelope{Status: "ok", Data: data})
	}
	text(p.out)
	return nil
}

// problem emits one coded diagnostic in the selected format.
func (p *printer) problem(code, message string, details any) {
	if p.format == "json" {
		_ = json.NewEncoder(p.out).Encode(envelope{
			Status: "error",
			Error:  &diagnostic{Code: code, Message: message, Details: details},
		})
		return
	}
	fmt.Fprintf(p.out, "Error [%s]: %s\n", code, message)
	if p.verbose && details != nil {
		fmt.Fprintf(p.out, "Details: %v\n", details)
	}
}

// tracef writes a progress line to the error stream in verbose mode,
// keeping stdout parseable.
func (p *printer) tracef(format string, args ...any) {
	if !p.verbose {
		return
	}
	fmt.Fprintf(p.errOut, format+"\n", args...)
}
