package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helmcode/ml-reasoning-assistant/pkg/analyzer"
	"github.com/helmcode/ml-reasoning-assistant/pkg/model"
	"github.com/helmcode/ml-reasoning-assistant/pkg/runbook"
	"github.com/helmcode/ml-reasoning-assistant/pkg/service"
)

var nullsScenario = model.Scenario{
	ID:          uuid.MustParse("9b2f6c1a-0d3e-4f5a-8b7c-6d5e4f3a2b1c"),
	Slug:        "feature-nulls",
	Title:       "Feature nulls",
	Description: "Null rate jumped after the upstream deploy",
}

type memoryStore struct {
	scenarios    []model.Scenario
	runs         []model.DiagnosisRun
	scenariosErr error
	historyErr   error
	insertErr    error
	lastLimit    int
}

func (m *memoryStore) ListScenarios(context.Context) ([]model.Scenario, error) {
	return m.scenarios, m.scenariosErr
}

func (m *memoryStore) RecentRuns(_ context.Context, limit int) ([]model.DiagnosisRun, error) {
	m.lastLimit = limit
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	out := make([]model.DiagnosisRun, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

func (m *memoryStore) InsertRun(_ context.Context, scenarioID *uuid.UUID, input string, d model.Diagnosis) (*model.DiagnosisRun, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	run := model.DiagnosisRun{ID: uuid.New(), ScenarioID: scenarioID, Input: input, Diagnosis: d, CreatedAt: time.Now()}
	m.runs = append(m.runs, run)
	return &run, nil
}

type failingLLM struct{}

func (failingLLM) Chat(context.Context, string, string) (string, error) {
	return "", errors.New("dial tcp 10.0.0.1:443: connect: connection refused")
}
func (failingLLM) GetModel() string { return "zephyr" }

func newTestServer(t *testing.T, st *memoryStore, a *analyzer.Analyzer) *Server {
	t.Helper()
	if a == nil {
		a = analyzer.New(nil)
	}
	srv, err := New(Options{
		Scenarios:    st,
		History:      st,
		Runner:       service.NewRunner(a, st, nil, nil),
		Runbooks:     runbook.New(map[string]string{"feature-nulls": "https://runbooks.example.com/nulls"}),
		HistoryLimit: 30,
		Model:        a.Model(),
		Live:         a.Live(),
	})
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, srv *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAPI_ListScenarios(t *testing.T) {
	st := &memoryStore{scenarios: []model.Scenario{nullsScenario}}
	srv := newTestServer(t, st, nil)

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/scenarios", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []model.Scenario
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "https://runbooks.example.com/nulls", got[0].RunbookURL)
}

func TestAPI_ListScenariosStoreError(t *testing.T) {
	srv := newTestServer(t, &memoryStore{scenariosErr: errors.New("db down")}, nil)

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/scenarios", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error","details":"db down"}`, rec.Body.String())
}

func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/diagnose", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAPI_Diagnose(t *testing.T) {
	st := &memoryStore{scenarios: []model.Scenario{nullsScenario}}
	srv := newTestServer(t, st, nil)

	rec := do(t, srv, jsonRequest(`{"scenarioId":"`+nullsScenario.ID.String()+`","prompt":"nulls in prod"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got diagnoseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.OK)
	require.NotNil(t, got.ScenarioID)
	assert.Equal(t, nullsScenario.ID, *got.ScenarioID)
	assert.Equal(t, "nulls in prod", got.Input)
	assert.Equal(t, analyzer.StubDiagnosis(), got.Diagnosis)
	assert.Equal(t, "stub", got.Source)
	assert.Empty(t, got.Warning)
	assert.Len(t, st.runs, 1)
}

func TestAPI_DiagnoseLiveFailureStillPersists(t *testing.T) {
	st := &memoryStore{}
	srv := newTestServer(t, st, analyzer.New(failingLLM{}))

	rec := do(t, srv, jsonRequest(`{"prompt":"p99 latency doubled"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var got diagnoseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Nil(t, got.ScenarioID)
	assert.Equal(t, "fallback", got.Source)
	assert.Contains(t, got.Warning, "connection refused")
	assert.Len(t, st.runs, 1)
}

func TestAPI_DiagnoseErrors(t *testing.T) {
	tests := []struct {
		name   string
		store  *memoryStore
		body   string
		status int
		errMsg string
	}{
		{"empty prompt", &memoryStore{}, `{"prompt":"   "}`, http.StatusBadRequest, "prompt is required"},
		{"bad body", &memoryStore{}, `{"prompt":`, http.StatusBadRequest, "invalid request body"},
		{"unknown scenario", &memoryStore{}, `{"scenarioId":"` + uuid.NewString() + `","prompt":"x"}`, http.StatusBadRequest, "unknown scenario"},
		{"malformed scenario id", &memoryStore{}, `{"scenarioId":"nope","prompt":"x"}`, http.StatusBadRequest, "unknown scenario"},
		{"insert fails", &memoryStore{insertErr: errors.New("disk full")}, `{"prompt":"x"}`, http.StatusInternalServerError, "disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(t, tt.store, nil), jsonRequest(tt.body))
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.errMsg)
		})
	}
}

func TestAPI_Results(t *testing.T) {
	st := &memoryStore{}
	for _, input := range []string{"first", "second", "third"} {
		_, err := st.InsertRun(context.Background(), nil, input, analyzer.StubDiagnosis())
		require.NoError(t, err)
	}
	srv := newTestServer(t, st, nil)

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/results?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Results []model.DiagnosisRun `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Results, 2)
	assert.Equal(t, "third", got.Results[0].Input)
	assert.Equal(t, "second", got.Results[1].Input)

	rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/results", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30, st.lastLimit)

	rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/results?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPage_Render(t *testing.T) {
	st := &memoryStore{scenarios: []model.Scenario{nullsScenario}}
	srv := newTestServer(t, st, nil)

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/?scenario="+nullsScenario.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "ML Systems Reasoning Assistant")
	assert.Contains(t, body, "Feature nulls")
	assert.Contains(t, body, "Null rate jumped after the upstream deploy</textarea>")
	assert.Contains(t, body, "No diagnosis runs yet.")
	assert.Contains(t, body, "stub (no model credential configured)")
}

func TestPage_SectionsFailIndependently(t *testing.T) {
	st := &memoryStore{
		scenariosErr: errors.New("scenarios table missing"),
		historyErr:   errors.New("history timeout"),
	}
	srv := newTestServer(t, st, nil)

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Failed to load scenarios: scenarios table missing")
	assert.Contains(t, body, "Failed to load history: history timeout")
	assert.Contains(t, body, "Run Diagnosis")
}

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestPage_Submit(t *testing.T) {
	st := &memoryStore{scenarios: []model.Scenario{nullsScenario}}
	srv := newTestServer(t, st, analyzer.New(failingLLM{}))

	// A selected scenario with no text runs on the scenario description.
	rec := do(t, srv, formRequest(url.Values{"scenario": {nullsScenario.ID.String()}, "prompt": {""}}))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "LLM failed, using stub")
	assert.Contains(t, body, "Saved run:")
	assert.Contains(t, body, "API wired correctly (stub).")
	assert.Contains(t, body, "https://runbooks.example.com/nulls")
	assert.Contains(t, body, "History (latest 30)")
	require.Len(t, st.runs, 1)
	assert.Equal(t, nullsScenario.Description, st.runs[0].Input)
}

func TestPage_SubmitErrors(t *testing.T) {
	st := &memoryStore{insertErr: errors.New("read-only transaction")}
	srv := newTestServer(t, st, nil)

	rec := do(t, srv, formRequest(url.Values{"prompt": {"   "}}))
	assert.Contains(t, rec.Body.String(), "Describe the issue before running a diagnosis.")

	rec = do(t, srv, formRequest(url.Values{"prompt": {"drift"}}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Run failed: failed to persist diagnosis run: read-only transaction")
	assert.NotContains(t, rec.Body.String(), "Saved run:")
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &memoryStore{}, nil)

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, jsonRequest(`{"prompt":"x"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ml_reasoning_")
}
