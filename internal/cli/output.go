package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // all assertions held, all scenarios valid
	ExitFailure      = 1 // scenario failure (assertions, golden mismatch, invalid scenario)
	ExitCommandError = 2 // command error (missing paths, journal errors, unknown run)
)

// Error codes carried by the JSON error envelope.
const (
	CodeInvalidScenario = "E_INVALID_SCENARIO"
	CodeLoadFailed      = "E_LOAD_FAILED"
	CodeRunFailed       = "E_RUN_FAILED"
	CodeTestFailed      = "E_TEST_FAILED"
	CodeNotFound        = "E_NOT_FOUND"
	CodeJournal         = "E_JOURNAL"
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error

	// Reported is set once the failure has been written to the user, so
	// main does not print it a second time.
	Reported bool
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

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps err with an exit code.
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

// IsReported reports whether err was already written by an OutputFormatter.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// CLIResponse is the JSON envelope every command writes under --format json.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
	RunID  string    `json:"run_id,omitempty"` // journal run, if the command wrote one
}

// CLIError describes a failure inside a CLIResponse.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter writes command results as text or as a CLIResponse.
// Results go to Writer; diagnostics go to ErrWriter so JSON output stays
// parseable.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // defaults to Writer
	Verbose   bool
}

func (f *OutputFormatter) isJSON() bool { return f.Format == "json" }

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Respond encodes resp as indented JSON.
func (f *OutputFormatter) Respond(resp CLIResponse) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

// Success writes data. Text output prints data with fmt.Println semantics.
func (f *OutputFormatter) Success(data any) error {
	if f.isJSON() {
		return f.Respond(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Result writes a JSON payload together with an optional failure. A nil
// failure yields status "ok".
func (f *OutputFormatter) Result(data any, runID string, failure *CLIError) error {
	resp := CLIResponse{Status: "ok", Data: data, RunID: runID}
	if failure != nil {
		resp.Status = "error"
		resp.Error = failure
	}
	return f.Respond(resp)
}

// Error writes a failure with no payload. Text output goes to ErrWriter,
// with details only in verbose mode.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.isJSON() {
		return f.Result(nil, "", &CLIError{Code: code, Message: message, Details: details})
	}
	w := f.errWriter()
	fmt.Fprintf(w, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(w, "Details: %v\n", details)
	}
	return nil
}

// Fail reports a command failure under code and returns the ExitError the
// command should return. In JSON the cause becomes the error details; in
// text it is appended to the message.
func (f *OutputFormatter) Fail(exitCode int, code, message string, cause error) error {
	exitErr := &ExitError{Code: exitCode, Message: message, Err: cause, Reported: true}

	var err error
	switch {
	case !f.isJSON():
		err = f.Error(code, exitErr.Error(), nil)
	case cause != nil:
		err = f.Error(code, message, cause.Error())
	default:
		err = f.Error(code, message, nil)
	}
	if err != nil {
		return err
	}
	return exitErr
}

// VerboseLog writes a progress line to ErrWriter when verbose mode is on.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.errWriter(), format+"\n", args...)
}
