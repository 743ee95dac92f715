package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/omniql-engine/nlq/engine/models"
	"github.com/omniql-engine/nlq/engine/reverse"
	"github.com/omniql-engine/nlq/engine/translator"
	"github.com/omniql-engine/nlq/mapping"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	Backend string
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain <query>",
		Short: "Recover the intent behind a SQL statement or MongoDB query",
		Long: `Parse a SQL SELECT or a MongoDB query document (extended JSON with
operation, collection, filter, sort or pipeline keys) back into an intent,
then lower that intent again to show the canonical form.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Backend, "backend", "b", mapping.Relational, "backend the query is written for (sql|nosql...)")

	return cmd
}

func runExplain(opts *ExplainOptions, query string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	backend, ok := mapping.ResolveBackend(opts.Backend)
	if !ok {
		formatter.Error(ErrCodeBackend, "unsupported backend: "+opts.Backend, nil) //nolint:errcheck
		return WrapExitError(ExitCommandError, ErrCodeBackend, translator.ErrUnsupportedBackend)
	}

	intent, err := explain(query, backend)
	if err != nil {
		formatter.Error(ErrCodeReverse, err.Error(), nil) //nolint:errcheck
		return WrapExitError(ExitFailure, ErrCodeReverse, err)
	}
	formatter.VerboseLog("Recovered %s intent on %s", intent.Operation, intent.Table)

	canonical, err := translator.Translate(intent, backend)
	if err != nil {
		formatter.Error(ErrCodeTranslate, err.Error(), nil) //nolint:errcheck
		return WrapExitError(ExitFailure, ErrCodeTranslate, err)
	}

	generated, err := canonical.Map()
	if err != nil {
		return WrapExitError(ExitFailure, "encoding query", err)
	}
	return formatter.Query(canonical, map[string]any{
		"backend":         backend,
		"intent":          intent,
		"generated_query": generated,
	})
}

func explain(query, backend string) (*models.Intent, error) {
	if backend == mapping.Relational {
		return reverse.SQLToIntent(query)
	}
	doc, err := reverse.ParseDocumentQuery(query)
	if err != nil {
		return nil, err
	}
	return reverse.DocumentToIntent(doc)
}
