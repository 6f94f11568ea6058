package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ledgerimport/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "itemimport",
		Short:         "Validate, import and scaffold collection item CSV files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withCode(exitUsage, err)
	})

	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newImportCmd(cfg))
	cmd.AddCommand(newCreateCmd())
	return cmd
}

// Execute runs the root command and exits with the code carried by its error.
func Execute(cfg *config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(cfg).ExecuteContext(ctx)
	stop()
	if err != nil {
		code := exitCode(err)
		writeError(os.Stderr, err)
		os.Exit(code)
	}
}
