package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/helmcode/ml-reasoning-assistant/pkg/model"
)

// DisplayRun formats and displays one saved diagnosis run
func DisplayRun(w io.Writer, run *model.DiagnosisRun, runbookURL, format string) error {
	switch format {
	case "json":
		return displayJSON(w, run)
	case "yaml":
		return displayYAML(w, run)
	case "human":
		fallthrough
	default:
		displayHuman(w, run, runbookURL)
	}
	return nil
}

// DisplayHistory lists runs newest first
func DisplayHistory(w io.Writer, runs []model.DiagnosisRun, format string) error {
	switch format {
	case "json":
		return displayJSON(w, map[string]interface{}{"results": runs})
	case "yaml":
		return displayYAML(w, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No diagnosis runs yet.")
		return nil
	}

	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(w, "History (latest %d)\n\n", len(runs))
	for _, r := range runs {
		severityColor := getSeverityColor(r.Diagnosis.Severity)
		fmt.Fprintf(w, "%s %s  %s\n", getSeverityIcon(r.Diagnosis.Severity),
			color.HiBlackString(r.CreatedAt.Format("2006-01-02 15:04:05")), r.ID)
		severityColor.Fprintf(w, "   %s", strings.ToUpper(string(r.Diagnosis.Severity)))
		fmt.Fprintf(w, "  %s\n", truncate(r.Diagnosis.Summary, 70))
		fmt.Fprintf(w, "   Input: %s\n\n", truncate(r.Input, 70))
	}
	return nil
}

// DisplayScenarios lists the scenarios a user can pick from
func DisplayScenarios(w io.Writer, scenarios []model.Scenario, format string) error {
	switch format {
	case "json":
		return displayJSON(w, scenarios)
	case "yaml":
		return displayYAML(w, scenarios)
	}

	if len(scenarios) == 0 {
		fmt.Fprintln(w, "No scenarios found yet.")
		return nil
	}

	white := color.New(color.FgWhite, color.Bold)
	for _, s := range scenarios {
		white.Fprintf(w, "%s", s.Title)
		fmt.Fprintf(w, " (%s)\n", color.CyanString(s.Slug))
		fmt.Fprintln(w, wrapText(s.Description, 80, "   "))
		if s.RunbookURL != "" {
			fmt.Fprintf(w, "   Runbook: %s\n", s.RunbookURL)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func displayJSON(w io.Writer, v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(output))
	return nil
}

func displayYAML(w io.Writer, v interface{}) error {
	output, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(output))
	return nil
}

func displayHuman(w io.Writer, run *model.DiagnosisRun, runbookURL string) {
	// Colors
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)

	d := run.Diagnosis
	fmt.Fprintln(w)

	red.Fprintln(w, "💡 SUMMARY:")
	fmt.Fprintln(w, wrapText(d.Summary, 80, "   "))
	fmt.Fprintln(w)

	severityColor := getSeverityColor(d.Severity)
	severityColor.Fprintf(w, "📊 SEVERITY: %s\n\n", strings.ToUpper(string(d.Severity)))

	printList(w, yellow, "🔎 CHECKS:", d.Checks)
	printList(w, cyan, "⚠️  LIKELY CAUSES:", d.Causes)
	printList(w, green, "🚀 ACTIONS:", d.Actions)

	if runbookURL != "" {
		fmt.Fprintf(w, "📘 Runbook: %s\n\n", color.CyanString(runbookURL))
	}

	// Footer
	fmt.Fprintln(w, strings.Repeat("─", 80))
	fmt.Fprintf(w, "💾 %s\n", color.HiBlackString("Saved run %s @ %s", run.ID, run.CreatedAt.Format("2006-01-02 15:04:05 MST")))
	fmt.Fprintf(w, "💡 %s\n", color.HiBlackString("Set OUTPUT_FORMAT=json or OUTPUT_FORMAT=yaml for machine-readable output"))
}

func printList(w io.Writer, heading *color.Color, title string, items []string) {
	if len(items) == 0 {
		return
	}
	heading.Fprintln(w, title)
	for i, item := range items {
		fmt.Fprintf(w, "   %d. %s\n", i+1, item)
	}
	fmt.Fprintln(w)
}

func getSeverityColor(severity model.Severity) *color.Color {
	switch severity {
	case model.SeverityHigh:
		return color.New(color.FgRed, color.Bold)
	case model.SeverityMedium:
		return color.New(color.FgYellow)
	case model.SeverityLow:
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgWhite)
	}
}

func getSeverityIcon(severity model.Severity) string {
	switch severity {
	case model.SeverityHigh:
		return "🔴"
	case model.SeverityMedium:
		return "🟡"
	case model.SeverityLow:
		return "🟢"
	default:
		return "⚪"
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func wrapText(text string, width int, indent string) string {
	var result strings.Builder
	lines := strings.Split(text, "\n")

	for _, line := range lines {
		words := strings.Fields(line)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}

		currentLine := indent
		for _, word := range words {
			if len(currentLine)+len(word)+1 > width {
				result.WriteString(currentLine + "\n")
				currentLine = indent + word
			} else if currentLine == indent {
				currentLine += word
			} else {
				currentLine += " " + word
			}
		}

		if currentLine != indent {
			result.WriteString(currentLine + "\n")
		}
	}

	return strings.TrimSuffix(result.String(), "\n")
}
