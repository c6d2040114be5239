package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/helmcode/ml-reasoning-assistant/pkg/llm"
	"github.com/helmcode/ml-reasoning-assistant/pkg/metrics"
	"github.com/helmcode/ml-reasoning-assistant/pkg/model"
	"github.com/helmcode/ml-reasoning-assistant/pkg/parser"
	"github.com/helmcode/ml-reasoning-assistant/pkg/prompts"
)

// Source records where a diagnosis came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceStub     Source = "stub"
	SourceFallback Source = "fallback"
)

// Result is either a diagnosis or the reason one could not be produced.
type Result struct {
	Diagnosis model.Diagnosis
	Source    Source
	Err       error
}

func Ok(d model.Diagnosis, source Source) Result {
	return Result{Diagnosis: d, Source: source}
}

func Err(err error) Result {
	return Result{Err: err}
}

// OrStub maps a failed result to the stub diagnosis. The returned warning is
// empty unless the fallback was taken.
func (r Result) OrStub() (model.Diagnosis, Source, string) {
	if r.Err == nil {
		return r.Diagnosis, r.Source, ""
	}
	return StubDiagnosis(), SourceFallback, fmt.Sprintf("LLM failed, using stub: %v", r.Err)
}

type Analyzer struct {
	llm llm.LLM
}

// New returns an Analyzer. A nil client puts it in stub mode.
func New(l llm.LLM) *Analyzer {
	return &Analyzer{llm: l}
}

// Live reports whether a model client is configured.
func (a *Analyzer) Live() bool {
	return a.llm != nil
}

// Model returns the configured model name, or "stub".
func (a *Analyzer) Model() string {
	if a.llm == nil {
		return string(SourceStub)
	}
	return a.llm.GetModel()
}

// Analyze asks the model for a diagnosis of issue. It does not fall back.
func (a *Analyzer) Analyze(ctx context.Context, issue, scenarioTitle string) Result {
	if a.llm == nil {
		return Ok(StubDiagnosis(), SourceStub)
	}

	start := time.Now()
	rawResp, err := a.llm.Chat(ctx, prompts.DiagnosisSystem, prompts.BuildDiagnosisPrompt(issue, scenarioTitle))
	metrics.ObserveLLMCall(a.llm.GetModel(), time.Since(start), err)
	if err != nil {
		return Err(fmt.Errorf("LLM chat: %w", err))
	}

	return Ok(parser.ParseDiagnosis(rawResp), SourceLive)
}

// Diagnose is Analyze with the stub fallback applied.
func (a *Analyzer) Diagnose(ctx context.Context, issue, scenarioTitle string) (model.Diagnosis, Source, string) {
	return a.Analyze(ctx, issue, scenarioTitle).OrStub()
}
