package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/helmcode/ml-reasoning-assistant/pkg/analyzer"
	"github.com/helmcode/ml-reasoning-assistant/pkg/events"
	"github.com/helmcode/ml-reasoning-assistant/pkg/metrics"
	"github.com/helmcode/ml-reasoning-assistant/pkg/model"
)

// ErrEmptyInput is returned when a submission has no issue text.
var ErrEmptyInput = errors.New("issue description is required")

type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

type RunStore interface {
	InsertRun(ctx context.Context, scenarioID *uuid.UUID, input string, d model.Diagnosis) (*model.DiagnosisRun, error)
}

type Diagnoser interface {
	Diagnose(ctx context.Context, issue, scenarioTitle string) (model.Diagnosis, analyzer.Source, string)
	Model() string
}

// Submission is one "Run Diagnosis" action. Scenario is nil for custom issues.
type Submission struct {
	Scenario *model.Scenario
	Issue    string
}

// Outcome is the terminal state of a submission. Run is set only on success.
type Outcome struct {
	State   State
	Run     *model.DiagnosisRun
	Source  analyzer.Source
	Warning string
	Err     error
}

type Runner struct {
	diagnoser Diagnoser
	store     RunStore
	publisher events.Publisher
	logger    *slog.Logger
}

func NewRunner(d Diagnoser, store RunStore, publisher events.Publisher, logger *slog.Logger) *Runner {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{diagnoser: d, store: store, publisher: publisher, logger: logger}
}

// Submit runs one diagnosis and persists it. Blank input never leaves Idle.
// A model failure is not a failure of the run: the stub is used and the
// outcome carries a warning.
func (r *Runner) Submit(ctx context.Context, sub Submission) Outcome {
	issue := strings.TrimSpace(sub.Issue)
	if issue == "" {
		return Outcome{State: StateIdle, Err: ErrEmptyInput}
	}

	var (
		scenarioID    *uuid.UUID
		scenarioTitle string
	)
	if sub.Scenario != nil {
		id := sub.Scenario.ID
		scenarioID = &id
		scenarioTitle = sub.Scenario.Title
	}

	log := r.logger.With("state", StateSubmitting, "scenario", scenarioTitle)

	diagnosis, source, warning := r.diagnoser.Diagnose(ctx, issue, scenarioTitle)
	if warning != "" {
		log.Warn("diagnosis fell back to stub", "warning", warning)
	}

	run, err := r.store.InsertRun(ctx, scenarioID, issue, diagnosis)
	if err != nil {
		metrics.RecordRun(string(source), string(StateFailed))
		log.Error("failed to persist diagnosis run", "error", err)
		return Outcome{
			State:   StateFailed,
			Source:  source,
			Warning: warning,
			Err:     oops.In("service").Wrapf(err, "failed to persist diagnosis run"),
		}
	}

	if err := r.publisher.PublishRunCreated(events.RunCreated{
		Run:    run,
		Source: string(source),
		Model:  r.diagnoser.Model(),
	}); err != nil {
		log.Warn("failed to publish run event", "run_id", run.ID, "error", err)
	}

	metrics.RecordRun(string(source), string(StateSucceeded))
	log.Info("diagnosis run saved", "run_id", run.ID, "source", source, "severity", run.Diagnosis.Severity)

	return Outcome{State: StateSucceeded, Run: run, Source: source, Warning: warning}
}
