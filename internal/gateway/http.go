package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rahul/scout/internal/agent"
	"github.com/rahul/scout/internal/observability"
	"github.com/rahul/scout/internal/store"
	"github.com/rahul/scout/internal/stream"
)

// ReportReader serves archived plans.
type ReportReader interface {
	ListReports(ctx context.Context, limit int) ([]agent.Report, error)
	GetReport(ctx context.Context, id string) (agent.Report, error)
}

// ResearchRequest is the body of the legacy research endpoint.
type ResearchRequest struct {
	Company string `json:"company"`
	Goals   string `json:"goals"`
}

// HTTPServer exposes the assistant over HTTP with NDJSON streaming.
type HTTPServer struct {
	Assistant *agent.Assistant
	// Reports is nil when archiving is disabled.
	Reports   ReportReader
	Logger    *observability.Logger

	echo *echo.Echo
}

func NewHTTPServer(assistant *agent.Assistant, reports ReportReader, logger *observability.Logger) *HTTPServer {
	s := &HTTPServer{Assistant: assistant, Reports: reports, Logger: logger}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
	}))
	e.Use(s.logRequests)
	e.HTTPErrorHandler = s.handleError

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/chat", s.chat)
	api.POST("/research", s.research)
	api.GET("/reports", s.listReports)
	api.GET("/reports/:id", s.getReport)
	api.GET("/status", func(c echo.Context) error { return c.JSON(http.StatusOK, observability.GetStatus()) })

	s.echo = e
	return s
}

// Handler returns the underlying http.Handler.
func (s *HTTPServer) Handler() http.Handler { return s.echo }

func (s *HTTPServer) Start(addr string) error {
	log.Printf("HTTP gateway listening on %s", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *HTTPServer) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}
	req := c.Request()
	log.Printf("[HTTP] %d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
	if !c.Response().Committed {
		_ = c.JSON(code, map[string]any{"error": msg})
	}
}

func (s *HTTPServer) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		status := c.Response().Status
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
		}
		s.Logger.LogHTTP(c.Request().Method, c.Path(), status, time.Since(start))
		return err
	}
}

// startStream commits an NDJSON response. Errors after this point are
// reported in-band.
func startStream(c echo.Context) *stream.Writer {
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, stream.ContentType)
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.WriteHeader(http.StatusOK)
	return stream.NewWriter(resp)
}

func (s *HTTPServer) chat(c echo.Context) error {
	var req agent.ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	ctx := c.Request().Context()
	w := startStream(c)
	for f := range s.Assistant.Respond(ctx, req) {
		observability.ChatFrames.WithLabelValues(f.Type).Inc()
		if err := w.Write(f); err != nil {
			// Client went away; stopping here cancels the run.
			return nil
		}
	}
	return nil
}

func (s *HTTPServer) research(c echo.Context) error {
	var req ResearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Company = strings.TrimSpace(req.Company)
	if req.Company == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "company is required")
	}
	if strings.TrimSpace(req.Goals) == "" {
		req.Goals = agent.DefaultGoals
	}

	ctx := c.Request().Context()
	w := startStream(c)
	for ev, err := range s.Assistant.Workflow.Stream(ctx, req.Company, req.Goals) {
		if err != nil {
			_ = w.Write(map[string]string{"error": err.Error()})
			return nil
		}
		if err := w.Write(agent.StepEvent{Node: ev.Node, Update: ev.Update}); err != nil {
			return nil
		}
	}
	return nil
}

func (s *HTTPServer) listReports(c echo.Context) error {
	if s.Reports == nil {
		return echo.NewHTTPError(http.StatusNotFound, "report archive is disabled")
	}
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}
	reports, err := s.Reports.ListReports(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reports)
}

func (s *HTTPServer) getReport(c echo.Context) error {
	if s.Reports == nil {
		return echo.NewHTTPError(http.StatusNotFound, "report archive is disabled")
	}
	r, err := s.Reports.GetReport(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}
	if c.QueryParam("format") == "markdown" {
		return c.String(http.StatusOK, r.Plan.Markdown(r.Company))
	}
	return c.JSON(http.StatusOK, r)
}
