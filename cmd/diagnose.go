package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/helmcode/ml-reasoning-assistant/pkg/formatter"
	"github.com/helmcode/ml-reasoning-assistant/pkg/model"
	"github.com/helmcode/ml-reasoning-assistant/pkg/service"
	"github.com/helmcode/ml-reasoning-assistant/pkg/store"
)

func NewDiagnoseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose ISSUE [SCENARIO_SLUG]",
		Short: "Run and save one diagnosis from the terminal",
		Long: `Diagnose an ML production issue and save the run, exactly like the page does.

Examples:
  # Describe a custom issue
  mlsra diagnose "offline AUC 0.91, production AUC 0.62"

  # Use a stored scenario; an empty issue runs on the scenario description
  mlsra diagnose "" feature-nulls

  # Machine-readable output
  OUTPUT_FORMAT=json mlsra diagnose "p99 latency doubled after retrain"`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runDiagnose,
	}
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	issue := args[0]

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " Connecting to database..."
	s.Start()

	a, err := newApp(ctx)
	if err != nil {
		s.Stop()
		return err
	}
	defer a.close()
	s.Stop()

	human := a.cfg.OutputFormat == "human"

	var scenario *model.Scenario
	if len(args) == 2 {
		scenario, err = a.store.ScenarioBySlug(ctx, args[1])
		if errors.Is(err, store.ErrScenarioNotFound) {
			return fmt.Errorf("no scenario with slug %q", args[1])
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(issue) == "" {
			issue = scenario.Description
		}
	}

	if human {
		printHeader(issue, scenario, a.analyzer.Model())
	}

	s.Suffix = " Running diagnosis..."
	s.Start()
	out := a.runner.Submit(ctx, service.Submission{Scenario: scenario, Issue: issue})
	s.Stop()

	if out.Warning != "" {
		printWarning(out.Warning)
	}
	switch out.State {
	case service.StateSucceeded:
	case service.StateIdle:
		return out.Err
	default:
		printError("Run failed")
		return out.Err
	}

	if human {
		printSuccess(fmt.Sprintf("Diagnosis complete (%s)", out.Source))
	}

	runbookURL := ""
	if scenario != nil {
		runbookURL = a.runbooks.URL(scenario.Slug)
	}
	return formatter.DisplayRun(os.Stdout, out.Run, runbookURL, a.cfg.OutputFormat)
}

func printHeader(issue string, scenario *model.Scenario, modelName string) {
	cyan := color.New(color.FgCyan, color.Bold)
	fmt.Println()
	cyan.Println("🔍 ML Systems Reasoning Assistant")
	if scenario != nil {
		fmt.Printf("📚 Scenario: %s\n", scenario.Title)
	} else {
		fmt.Println("📚 Scenario: Custom")
	}
	fmt.Printf("📝 Issue: %s\n", issue)
	fmt.Printf("🤖 Model: %s\n", modelName)
	fmt.Println()
}
