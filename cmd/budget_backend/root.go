package main

import (
	"log/slog"
	"os"

	"github.com/SscSPs/budget_approval_app/internal/platform/config"
	"github.com/spf13/cobra"
)

// app holds what every subcommand needs once the root command has run.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

// newRootCmd creates the top-level "budget_backend" command and registers all subcommands.
func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "budget_backend",
		Short:        "Budget approval workflow service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
			slog.SetDefault(a.logger)
			return nil
		},
	}

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newSeedCmd(a),
	)
	return root
}
