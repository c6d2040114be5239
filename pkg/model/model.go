package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// NoSummary replaces a missing or blank summary.
const NoSummary = "No summary returned."

// Severity is the overall impact of a diagnosed issue.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// ParseSeverity maps a free-form severity label to one of the three canonical
// values. Anything unrecognised is Medium.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "l":
		return SeverityLow
	case "high", "h", "sev1", "sev-1", "critical", "p0", "p1":
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// UnmarshalJSON accepts any JSON value. Non-strings decode as Medium.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*s = SeverityMedium
		return nil
	}
	*s = ParseSeverity(raw)
	return nil
}

type Scenario struct {
	ID          uuid.UUID `json:"id" yaml:"id"`
	Slug        string    `json:"slug" yaml:"slug"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	RunbookURL  string    `json:"runbookUrl,omitempty" yaml:"runbook_url,omitempty"`
}

type Diagnosis struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Summary  string   `json:"summary" yaml:"summary"`
	Checks   []string `json:"checks" yaml:"checks"`
	Causes   []string `json:"causes" yaml:"causes"`
	Actions  []string `json:"actions" yaml:"actions"`
}

// Normalized returns a copy with a canonical severity and non-nil lists.
func (d Diagnosis) Normalized() Diagnosis {
	d.Severity = ParseSeverity(string(d.Severity))
	d.Checks = orEmpty(d.Checks)
	d.Causes = orEmpty(d.Causes)
	d.Actions = orEmpty(d.Actions)
	return d
}

type diagnosisJSON Diagnosis

func (d Diagnosis) MarshalJSON() ([]byte, error) {
	return json.Marshal(diagnosisJSON(d.Normalized()))
}

// UnmarshalJSON decodes a stored diagnosis. Any well-formed JSON value is
// accepted: rows written before severity existed come back as Medium, and
// fields of the wrong shape get the same defaults as a model reply.
func (d *Diagnosis) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch v := v.(type) {
	case map[string]any:
		*d = DiagnosisFromObject(v)
	case string:
		*d = DiagnosisFromObject(map[string]any{"summary": v})
	default:
		*d = DiagnosisFromObject(nil)
	}
	return nil
}

// DiagnosisFromObject extracts a Diagnosis from a decoded JSON object. Missing
// or mistyped fields fall back to Medium, NoSummary and empty lists; non-string
// list items are dropped.
func DiagnosisFromObject(obj map[string]any) Diagnosis {
	summary := strings.TrimSpace(StringField(obj, "summary"))
	if summary == "" {
		summary = NoSummary
	}

	return Diagnosis{
		Severity: ParseSeverity(StringField(obj, "severity")),
		Summary:  summary,
		Checks:   ListField(obj, "checks"),
		Causes:   ListField(obj, "causes"),
		Actions:  ListField(obj, "actions"),
	}
}

// StringField returns obj[key] if it is a string, otherwise "".
func StringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// ListField returns the string items of obj[key] in order. A value that is
// not an array yields an empty list.
func ListField(obj map[string]any, key string) []string {
	items, ok := obj[key].([]any)
	if !ok {
		return []string{}
	}
	return lo.FilterMap(items, func(item any, _ int) (string, bool) {
		s, ok := item.(string)
		return s, ok
	})
}

type DiagnosisRun struct {
	ID         uuid.UUID  `json:"id" yaml:"id"`
	ScenarioID *uuid.UUID `json:"scenarioId" yaml:"scenario_id"`
	Input      string     `json:"input" yaml:"input"`
	Diagnosis  Diagnosis  `json:"diagnosis" yaml:"diagnosis"`
	CreatedAt  time.Time  `json:"createdAt" yaml:"created_at"`
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
