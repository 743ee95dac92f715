package cli

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/omniql-engine/nlq"
	"github.com/omniql-engine/nlq/mapping"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Backend string
	Syntax  string // dialect to syntax-check generated SQL against
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <question>",
		Short: "Compile a question into a backend query",
		Long: `Compile a plain English question into SQL or a MongoDB query without
running it. Words after the command are joined into one question.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Backend, "backend", "b", mapping.Relational, "target backend (sql|nosql|mysql|postgresql|mongodb...)")
	cmd.Flags().StringVar(&opts.Syntax, "syntax", "", "check generated SQL against a dialect grammar (mysql|postgres|sqlite3)")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, question string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	compileOpts := []nlq.Option{nlq.WithLogger(verboseLogger(opts.RootOptions, cmd.ErrOrStderr()))}
	if opts.Syntax != "" {
		compileOpts = append(compileOpts, nlq.WithSyntaxCheck(opts.Syntax))
	}

	formatter.VerboseLog("Compiling %q for backend %s", question, opts.Backend)

	res, err := nlq.Compile(ctx, question, opts.Backend, compileOpts...)
	if err != nil {
		return outputCompileError(formatter, err)
	}

	return outputResult(formatter, res, nil)
}

func outputResult(formatter *OutputFormatter, res *nlq.Result, rows []map[string]any) error {
	generated, err := res.Query.Map()
	if err != nil {
		return WrapExitError(ExitFailure, "encoding query", err)
	}

	data := map[string]any{
		"backend":         res.Backend,
		"intent":          res.Intent,
		"generated_query": generated,
	}
	if rows != nil {
		data["result"] = rows
	}

	if rows != nil && formatter.Format == "text" {
		return formatter.Success(data, formatRows(res.Query.String(), rows))
	}
	return formatter.Query(res.Query, data)
}

func outputCompileError(formatter *OutputFormatter, err error) error {
	code := compileErrorCode(err)

	var details any
	if stage := errorStage(err); stage != "" {
		details = map[string]string{"stage": stage}
	}

	if outErr := formatter.Error(code, err.Error(), details); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitFailure, code, err)
}

// verboseLogger traces the pipeline to w when --verbose is set
func verboseLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	if !opts.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{Level: slog.LevelDebug, TimeFormat: time.Kitchen}))
}
