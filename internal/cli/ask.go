package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/omniql-engine/nlq"
	"github.com/omniql-engine/nlq/config"
	"github.com/omniql-engine/nlq/mapping"
)

// AskOptions holds flags for the ask command.
type AskOptions struct {
	*RootOptions
	Backend string
}

// NewAskCommand creates the ask command.
func NewAskCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AskOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Compile a question and run it against the configured database",
		Long: `Compile a plain English question and execute the generated query
against the connections named in the config file.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Backend, "backend", "b", mapping.Relational, "target backend (sql|nosql|mysql|postgresql|mongodb...)")

	return cmd
}

func runAsk(ctx context.Context, opts *AskOptions, question string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := opts.loadConfig()
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil) //nolint:errcheck
		return WrapExitError(ExitCommandError, "loading config", err)
	}

	rt, err := config.Build(ctx, cfg, verboseLogger(opts.RootOptions, cmd.ErrOrStderr()))
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil) //nolint:errcheck
		return WrapExitError(ExitCommandError, "opening connections", err)
	}
	defer rt.Close(context.Background()) //nolint:errcheck

	res, rows, err := rt.Client.Ask(ctx, question, opts.Backend)
	if err != nil {
		if res == nil {
			return outputCompileError(formatter, err)
		}
		formatter.Error(ErrCodeExecute, err.Error(), map[string]string{"query": res.Query.String()}) //nolint:errcheck
		code := ExitFailure
		if errors.Is(err, nlq.ErrNoConnection) {
			code = ExitCommandError
		}
		return WrapExitError(code, ErrCodeExecute, err)
	}

	formatter.VerboseLog("Query returned %d row(s)", len(rows))
	if rows == nil {
		rows = []map[string]any{}
	}
	return outputResult(formatter, res, rows)
}

// formatRows renders rows as "key=value" lines under the query
func formatRows(query string, rows []map[string]any) string {
	var b strings.Builder
	b.WriteString(query)
	b.WriteString("\n")
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%v", k, row[k])
		}
		b.WriteString(strings.Join(parts, " "))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "(%d row(s))", len(rows))
	return b.String()
}
