package prompts

import (
	"fmt"
	"strings"
)

const DiagnosisSystem = "You are an ML systems reliability engineer. " +
	"Return concise, production-grade guidance in JSON with keys: " +
	"severity, summary, checks, causes, actions. " +
	"checks/causes/actions must be short bullet strings."

// BuildDiagnosisPrompt returns the user message for a diagnosis request. An
// empty scenario title means the issue was written by hand.
func BuildDiagnosisPrompt(issue, scenarioTitle string) string {
	title := strings.TrimSpace(scenarioTitle)
	if title == "" {
		title = "Custom"
	}

	return fmt.Sprintf(`Scenario: %s
Issue: %s

Return ONLY valid JSON like:
{
  "severity": "Low|Medium|High",
  "summary": "...",
  "checks": ["..."],
  "causes": ["..."],
  "actions": ["..."]
}
`, title, strings.TrimSpace(issue))
}
