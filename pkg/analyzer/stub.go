package analyzer

import "github.com/helmcode/ml-reasoning-assistant/pkg/model"

// StubDiagnosis is the canned diagnosis used when no model is configured or
// the model call fails. The content never depends on the input.
func StubDiagnosis() model.Diagnosis {
	return model.Diagnosis{
		Severity: model.SeverityMedium,
		Summary:  "API wired correctly (stub).",
		Checks: []string{
			"Validate feature pipeline health",
			"Check null-rate by feature and slice",
			"Confirm training-serving schema parity",
		},
		Causes: []string{
			"Upstream feature outage / partial nulls",
			"Schema change or parsing regression",
		},
		Actions: []string{
			"Add feature-null SLO + alerting",
			"Fail fast or fallback defaults on nulls",
			"Rollback upstream change or hotfix parser",
		},
	}
}
