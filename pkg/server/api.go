package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/helmcode/ml-reasoning-assistant/pkg/model"
	"github.com/helmcode/ml-reasoning-assistant/pkg/service"
)

var errUnknownScenario = errors.New("unknown scenario")

type diagnoseRequest struct {
	ScenarioID *string `json:"scenarioId"`
	Prompt     string  `json:"prompt"`
}

type diagnoseResponse struct {
	OK         bool            `json:"ok"`
	ScenarioID *uuid.UUID      `json:"scenarioId"`
	Input      string          `json:"input"`
	Diagnosis  model.Diagnosis `json:"diagnosis"`
	RunID      uuid.UUID       `json:"runId"`
	CreatedAt  time.Time       `json:"createdAt"`
	Source     string          `json:"source"`
	Warning    string          `json:"warning,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleListScenarios(c echo.Context) error {
	scenarios, err := s.opts.Scenarios.ListScenarios(c.Request().Context())
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, s.opts.Runbooks.Annotate(scenarios))
}

func (s *Server) handleDiagnose(c echo.Context) error {
	var req diagnoseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	scenario, err := s.lookupScenario(c, lo.FromPtr(req.ScenarioID))
	if errors.Is(err, errUnknownScenario) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	if err != nil {
		return s.internalError(c, err)
	}

	out := s.opts.Runner.Submit(c.Request().Context(), service.Submission{Scenario: scenario, Issue: req.Prompt})
	switch out.State {
	case service.StateSucceeded:
	case service.StateIdle:
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "prompt is required"})
	default:
		return s.internalError(c, out.Err)
	}

	return c.JSON(http.StatusOK, diagnoseResponse{
		OK:         true,
		ScenarioID: out.Run.ScenarioID,
		Input:      out.Run.Input,
		Diagnosis:  out.Run.Diagnosis,
		RunID:      out.Run.ID,
		CreatedAt:  out.Run.CreatedAt,
		Source:     string(out.Source),
		Warning:    out.Warning,
	})
}

func (s *Server) handleResults(c echo.Context) error {
	limit := s.opts.HistoryLimit
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
		}
		limit = n
	}

	runs, err := s.opts.History.RecentRuns(c.Request().Context(), limit)
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"results": runs})
}

// lookupScenario resolves a scenario id from a request. An empty id is a
// custom issue and yields nil.
func (s *Server) lookupScenario(c echo.Context, rawID string) (*model.Scenario, error) {
	if rawID == "" {
		return nil, nil
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, errUnknownScenario
	}

	scenarios, err := s.opts.Scenarios.ListScenarios(c.Request().Context())
	if err != nil {
		return nil, err
	}
	sc, ok := lo.Find(scenarios, func(sc model.Scenario) bool { return sc.ID == id })
	if !ok {
		return nil, errUnknownScenario
	}
	return &sc, nil
}

func (s *Server) internalError(c echo.Context, err error) error {
	s.opts.Logger.Error("request failed", "path", c.Path(), "error", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error", Details: err.Error()})
}
