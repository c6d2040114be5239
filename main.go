package main

import (
	"fmt"
	"os"

	"github.com/helmcode/ml-reasoning-assistant/cmd"
	"github.com/spf13/cobra"
)

var (
	version = "v0.1.0" // Overwritten at build time
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mlsra",
		Short: "AI-assisted diagnosis of ML production failures",
		Long: `mlsra asks a hosted language model why an ML system is failing in production
and returns checks, likely causes, and actions. Every run is saved to Postgres.
Without a model credential a fixed stub diagnosis is used.`,
		SilenceUsage: true,
	}

	// Disable automatic 'completion' command added by cobra
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Add subcommands
	rootCmd.AddCommand(
		cmd.NewServeCmd(),
		cmd.NewDiagnoseCmd(),
		cmd.NewHistoryCmd(),
		cmd.NewScenariosCmd(),
		cmd.NewMigrateCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mlsra version %s\n", version)
		},
	}
}
