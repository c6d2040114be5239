package server

import (
	"context"
	"embed"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogecho "github.com/samber/slog-echo"

	"github.com/helmcode/ml-reasoning-assistant/pkg/model"
	"github.com/helmcode/ml-reasoning-assistant/pkg/runbook"
	"github.com/helmcode/ml-reasoning-assistant/pkg/service"
	"github.com/helmcode/ml-reasoning-assistant/pkg/store"
)

//go:embed templates/*.html
var templateFS embed.FS

type ScenarioSource interface {
	ListScenarios(ctx context.Context) ([]model.Scenario, error)
}

type HistorySource interface {
	RecentRuns(ctx context.Context, limit int) ([]model.DiagnosisRun, error)
}

type Submitter interface {
	Submit(ctx context.Context, sub service.Submission) service.Outcome
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the page and API to their collaborators. Runbooks is read-only
// and shared by every request.
type Options struct {
	Scenarios    ScenarioSource
	History      HistorySource
	Runner       Submitter
	Health       Pinger
	Runbooks     *runbook.Catalog
	HistoryLimit int
	Model        string
	Live         bool
	Logger       *slog.Logger
}

type Server struct {
	opts Options
	echo *echo.Echo
}

func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = store.DefaultHistoryLimit
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = &renderer{tmpl: tmpl}

	e.Use(middleware.Recover())
	e.Use(slogecho.NewWithConfig(opts.Logger, slogecho.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		Filters:          []slogecho.Filter{slogecho.IgnorePathPrefix("/healthz", "/metrics")},
	}))

	s := &Server{opts: opts, echo: e}

	e.GET("/", s.handlePage)
	e.POST("/", s.handlePageSubmit)

	api := e.Group("/api")
	api.GET("/scenarios", s.handleListScenarios)
	api.POST("/diagnose", s.handleDiagnose)
	api.GET("/results", s.handleResults)

	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(addr string) error {
	s.opts.Logger.Info("HTTP server listening", "addr", addr, "model", s.opts.Model, "live", s.opts.Live)
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server with a timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	if s.opts.Health != nil {
		if err := s.opts.Health.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type renderer struct {
	tmpl *template.Template
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}
