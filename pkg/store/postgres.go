package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/helmcode/ml-reasoning-assistant/pkg/metrics"
	"github.com/helmcode/ml-reasoning-assistant/pkg/model"
)

// DefaultHistoryLimit is the number of runs returned when no limit is given.
const DefaultHistoryLimit = 30

var ErrScenarioNotFound = errors.New("scenario not found")

//go:embed schema.sql
var schema string

// Store reads scenarios and appends diagnosis runs. Every call acquires its
// own pooled connection and releases it before returning.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connectionString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		return nil, oops.In("store").Wrapf(err, "failed to create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, oops.In("store").Wrapf(err, "failed to ping postgres")
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate creates the scenarios and diagnosis_runs tables if they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return oops.In("store").Wrapf(err, "failed to acquire connection")
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, schema); err != nil {
		return oops.In("store").Wrapf(err, "failed to apply schema")
	}
	return nil
}

// ListScenarios returns all scenarios, newest first.
func (s *Store) ListScenarios(ctx context.Context) ([]model.Scenario, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		metrics.RecordStoreError("list_scenarios")
		return nil, oops.In("store").Wrapf(err, "failed to acquire connection")
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
		SELECT id, slug, title, description
		FROM scenarios
		ORDER BY created_at DESC`)
	if err != nil {
		metrics.RecordStoreError("list_scenarios")
		return nil, oops.In("store").Wrapf(err, "failed to query scenarios")
	}

	scenarios, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Scenario, error) {
		var sc model.Scenario
		err := row.Scan(&sc.ID, &sc.Slug, &sc.Title, &sc.Description)
		return sc, err
	})
	if err != nil {
		metrics.RecordStoreError("list_scenarios")
		return nil, oops.In("store").Wrapf(err, "failed to scan scenarios")
	}
	return scenarios, nil
}

// ScenarioBySlug returns ErrScenarioNotFound when no scenario has that slug.
func (s *Store) ScenarioBySlug(ctx context.Context, slug string) (*model.Scenario, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		metrics.RecordStoreError("scenario_by_slug")
		return nil, oops.In("store").Wrapf(err, "failed to acquire connection")
	}
	defer conn.Release()

	var sc model.Scenario
	err = conn.QueryRow(ctx, `
		SELECT id, slug, title, description
		FROM scenarios
		WHERE slug = $1`, slug).Scan(&sc.ID, &sc.Slug, &sc.Title, &sc.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrScenarioNotFound
	}
	if err != nil {
		metrics.RecordStoreError("scenario_by_slug")
		return nil, oops.In("store").With("slug", slug).Wrapf(err, "failed to get scenario")
	}
	return &sc, nil
}

// InsertRun persists one diagnosis run and returns it with the id and
// creation time assigned by the database.
func (s *Store) InsertRun(ctx context.Context, scenarioID *uuid.UUID, input string, d model.Diagnosis) (*model.DiagnosisRun, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return nil, oops.In("store").Wrapf(err, "failed to marshal diagnosis")
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		metrics.RecordStoreError("insert_run")
		return nil, oops.In("store").Wrapf(err, "failed to acquire connection")
	}
	defer conn.Release()

	run := &model.DiagnosisRun{
		ScenarioID: scenarioID,
		Input:      input,
		Diagnosis:  d.Normalized(),
	}
	err = conn.QueryRow(ctx, `
		INSERT INTO diagnosis_runs (scenario_id, input, diagnosis)
		VALUES ($1, $2, $3::jsonb)
		RETURNING id, created_at`, scenarioID, input, string(payload)).Scan(&run.ID, &run.CreatedAt)
	if err != nil {
		metrics.RecordStoreError("insert_run")
		return nil, oops.In("store").Wrapf(err, "failed to insert diagnosis run")
	}
	return run, nil
}

// RecentRuns returns the latest runs, newest first. A limit <= 0 means
// DefaultHistoryLimit.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]model.DiagnosisRun, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		metrics.RecordStoreError("recent_runs")
		return nil, oops.In("store").Wrapf(err, "failed to acquire connection")
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
		SELECT id, scenario_id, input, diagnosis, created_at
		FROM diagnosis_runs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		metrics.RecordStoreError("recent_runs")
		return nil, oops.In("store").Wrapf(err, "failed to query diagnosis runs")
	}

	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.DiagnosisRun, error) {
		var (
			run     model.DiagnosisRun
			payload []byte
		)
		if err := row.Scan(&run.ID, &run.ScenarioID, &run.Input, &payload, &run.CreatedAt); err != nil {
			return run, err
		}
		if err := json.Unmarshal(payload, &run.Diagnosis); err != nil {
			return run, oops.With("run_id", run.ID).Wrapf(err, "failed to decode diagnosis")
		}
		return run, nil
	})
	if err != nil {
		metrics.RecordStoreError("recent_runs")
		return nil, oops.In("store").Wrapf(err, "failed to scan diagnosis runs")
	}
	return runs, nil
}
