package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protojson"

	"github.com/omniql-engine/nlq"
	"github.com/omniql-engine/nlq/engine/models"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The question or query could not be compiled
	ExitCommandError = 2 // Command error (bad config, unreachable database, etc.)
)

// Error codes reported in CLI responses.
const (
	ErrCodeGeneric   = "E001"
	ErrCodeBackend   = "E002"
	ErrCodeNoMatch   = "E003"
	ErrCodeTranslate = "E004"
	ErrCodeSyntax    = "E005"
	ErrCodeSchema    = "E006"
	ErrCodeConfig    = "E007"
	ErrCodeExecute   = "E008"
	ErrCodeReverse   = "E009"
)

// ExitError represents an error with a specific exit code.
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

// compileErrorCode maps a pipeline failure to its CLI error code
func compileErrorCode(err error) string {
	var cerr *nlq.Error
	if !errors.As(err, &cerr) {
		return ErrCodeGeneric
	}
	switch cerr.Stage {
	case nlq.StageBackend:
		return ErrCodeBackend
	case nlq.StageMatch:
		return ErrCodeNoMatch
	case nlq.StageTranslate:
		return ErrCodeTranslate
	case nlq.StageSyntax:
		return ErrCodeSyntax
	case nlq.StageSchema:
		return ErrCodeSchema
	default:
		return ErrCodeGeneric
	}
}

func errorStage(err error) string {
	var cerr *nlq.Error
	if errors.As(err, &cerr) {
		return cerr.Stage
	}
	return ""
}

// OutputFormatter handles text, JSON and protobuf output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success outputs a result; text is printed as is.
func (f *OutputFormatter) Success(data any, text string) error {
	if f.Format == "json" || f.Format == "proto" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, text)
	return nil
}

// Query outputs a generated query; proto format writes the protobuf envelope.
func (f *OutputFormatter) Query(q *models.BackendQuery, data any) error {
	if f.Format != "proto" {
		return f.Success(data, q.String())
	}

	pb, err := q.Proto()
	if err != nil {
		return err
	}
	js, err := protojson.MarshalOptions{Multiline: true}.Marshal(pb)
	if err != nil {
		return fmt.Errorf("cannot encode protobuf envelope: %w", err)
	}
	fmt.Fprintln(f.Writer, string(js))
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" || f.Format == "proto" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// JSON output stays clean because verbose lines go to ErrWriter.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

func newFormatter(opts *RootOptions, out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   opts.Verbose,
	}
}
