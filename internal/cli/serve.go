package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/omniql-engine/nlq/api"
	"github.com/omniql-engine/nlq/config"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "serve",
		Short:         "Serve the query HTTP API",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address, overrides server.addr")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := opts.loadConfig()
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil) //nolint:errcheck
		return WrapExitError(ExitCommandError, "loading config", err)
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil) //nolint:errcheck
		return WrapExitError(ExitCommandError, "creating logger", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := config.Build(ctx, cfg, logger)
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil) //nolint:errcheck
		return WrapExitError(ExitCommandError, "opening connections", err)
	}
	defer rt.Close(context.Background()) //nolint:errcheck

	srv, err := api.NewServer(cfg.Server, logger, rt.Client, rt.History)
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil) //nolint:errcheck
		return WrapExitError(ExitCommandError, "creating server", err)
	}

	if err := srv.Serve(ctx); err != nil {
		logger.Error("server stopped", "error", err)
		return WrapExitError(ExitCommandError, "serving", err)
	}
	logger.Info("server stopped")
	return nil
}
