package server

import (
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/helmcode/ml-reasoning-assistant/pkg/model"
	"github.com/helmcode/ml-reasoning-assistant/pkg/service"
)

// pageData backs index.html. Each section carries its own error so a failing
// store read never blanks the rest of the page.
type pageData struct {
	Live  bool
	Model string

	Scenarios    []model.Scenario
	ScenariosErr string
	SelectedID   string
	Prompt       string

	Result *resultView

	History      []model.DiagnosisRun
	HistoryErr   string
	HistoryLimit int
}

type resultView struct {
	Run        *model.DiagnosisRun
	Scenario   *model.Scenario
	RunbookURL string
	Source     string
	Warning    string
	Error      string
}

var templateFuncs = template.FuncMap{
	"severityClass": func(s model.Severity) string { return strings.ToLower(string(s)) },
	"formatTime":    func(t time.Time) string { return t.Format("2006-01-02 15:04:05 MST") },
	"scenarioLabel": func(run model.DiagnosisRun) string {
		if run.ScenarioID == nil {
			return "Custom"
		}
		return run.ScenarioID.String()
	},
}

func (s *Server) handlePage(c echo.Context) error {
	data := s.loadPage(c, c.QueryParam("scenario"))
	if sc := findScenario(data.Scenarios, data.SelectedID); sc != nil {
		data.Prompt = sc.Description
	}
	return c.Render(http.StatusOK, "index.html", data)
}

func (s *Server) handlePageSubmit(c echo.Context) error {
	selected := c.FormValue("scenario")
	data := s.loadPage(c, selected)
	data.Prompt = c.FormValue("prompt")

	result := &resultView{}
	scenario, err := s.lookupScenario(c, selected)
	switch {
	case errors.Is(err, errUnknownScenario):
		result.Error = "Run failed: the selected scenario no longer exists"
	case err != nil:
		result.Error = "Run failed: " + err.Error()
	default:
		issue := data.Prompt
		if strings.TrimSpace(issue) == "" && scenario != nil {
			issue = scenario.Description
			data.Prompt = issue
		}

		out := s.opts.Runner.Submit(c.Request().Context(), service.Submission{Scenario: scenario, Issue: issue})
		result.Source = string(out.Source)
		result.Warning = out.Warning
		switch out.State {
		case service.StateSucceeded:
			result.Run = out.Run
			result.Scenario = scenario
			if scenario != nil {
				result.RunbookURL = s.opts.Runbooks.URL(scenario.Slug)
			}
		case service.StateIdle:
			result.Error = "Describe the issue before running a diagnosis."
		default:
			result.Error = "Run failed: " + out.Err.Error()
		}
	}
	data.Result = result

	// History is read after the submission so the new run shows up.
	s.loadHistory(c, &data)
	return c.Render(http.StatusOK, "index.html", data)
}

func (s *Server) loadPage(c echo.Context, selected string) pageData {
	data := pageData{
		Live:         s.opts.Live,
		Model:        s.opts.Model,
		SelectedID:   selected,
		HistoryLimit: s.opts.HistoryLimit,
	}

	scenarios, err := s.opts.Scenarios.ListScenarios(c.Request().Context())
	if err != nil {
		s.opts.Logger.Error("failed to load scenarios", "error", err)
		data.ScenariosErr = "Failed to load scenarios: " + err.Error()
	} else {
		data.Scenarios = s.opts.Runbooks.Annotate(scenarios)
	}

	if c.Request().Method == http.MethodGet {
		s.loadHistory(c, &data)
	}
	return data
}

func (s *Server) loadHistory(c echo.Context, data *pageData) {
	runs, err := s.opts.History.RecentRuns(c.Request().Context(), s.opts.HistoryLimit)
	if err != nil {
		s.opts.Logger.Error("failed to load history", "error", err)
		data.HistoryErr = "Failed to load history: " + err.Error()
		return
	}
	data.History = runs
}

func findScenario(scenarios []model.Scenario, id string) *model.Scenario {
	if id == "" {
		return nil
	}
	sc, ok := lo.Find(scenarios, func(sc model.Scenario) bool { return sc.ID.String() == id })
	if !ok {
		return nil
	}
	return &sc
}
