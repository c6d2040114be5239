package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/helmcode/ml-reasoning-assistant/pkg/formatter"
)

func NewHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the latest diagnosis runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			runs, err := a.store.RecentRuns(ctx, a.cfg.HistoryLimit)
			if err != nil {
				printError("Failed to load history")
				return err
			}
			return formatter.DisplayHistory(os.Stdout, runs, a.cfg.OutputFormat)
		},
	}
}

func NewScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List the stored scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			scenarios, err := a.scenarios.ListScenarios(ctx)
			if err != nil {
				printError("Failed to load scenarios")
				return err
			}
			return formatter.DisplayScenarios(os.Stdout, a.runbooks.Annotate(scenarios), a.cfg.OutputFormat)
		},
	}
}
