package parser

import (
	"encoding/json"
	"strings"

	"github.com/helmcode/ml-reasoning-assistant/pkg/model"
)

// ParseDiagnosis turns a model reply into a Diagnosis. It never fails: replies
// that are not a JSON object come back as a Medium diagnosis whose summary is
// the reply text.
func ParseDiagnosis(raw string) model.Diagnosis {
	// Remove markdown code fences if present
	cleaned := stripFences(raw)

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil || obj == nil {
		// Fallback – could not parse JSON, keep the prose.
		return proseDiagnosis(cleaned)
	}

	// A non-empty summary that is not text counts as a malformed reply.
	if summary := obj["summary"]; !isEmptyValue(summary) {
		if _, ok := summary.(string); !ok {
			return proseDiagnosis(cleaned)
		}
	}

	return model.DiagnosisFromObject(obj)
}

func proseDiagnosis(text string) model.Diagnosis {
	return model.Diagnosis{
		Severity: model.SeverityMedium,
		Summary:  text,
		Checks:   []string{},
		Causes:   []string{},
		Actions:  []string{},
	}
}

// isEmptyValue reports whether a decoded JSON value is null, false, zero or
// empty.
func isEmptyValue(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case bool:
		return !v
	case float64:
		return v == 0
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}

// stripFences removes a leading ``` line (with optional language tag) and a
// trailing ``` line so a fenced JSON reply can be parsed.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	lines = lines[1:]
	if n := len(lines); n > 0 && strings.HasPrefix(strings.TrimSpace(lines[n-1]), "```") {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
