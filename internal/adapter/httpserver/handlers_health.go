package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/streamagenda/internal/platform/version"
)

const (
	startupProbeTimeout   = 2 * time.Second
	readinessProbeTimeout = 5 * time.Second
)

// HealthCheck is a named dependency probe. A failing check that is not
// Critical degrades the report but keeps the instance ready.
type HealthCheck struct {
	Name     string
	Check    func(ctx context.Context) error
	Critical bool
}

type checkResult struct {
	Status    string  `json:"status"`
	Error     string  `json:"error,omitempty"`
	LatencyMS float64 `json:"latency_ms"`
}

type healthReport struct {
	Status string                 `json:"status"`
	Checks map[string]checkResult `json:"checks"`
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/startup", s.handleStartup)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
}

func (s *Server) handleStartup(c echo.Context) error {
	return s.writeHealth(c, startupProbeTimeout)
}

func (s *Server) handleReadiness(c echo.Context) error {
	return s.writeHealth(c, readinessProbeTimeout)
}

func (s *Server) handleLiveness(c echo.Context) error {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Seconds(),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}
	return nil
}

func (s *Server) writeHealth(c echo.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
	defer cancel()

	report := s.runHealthChecks(ctx)
	status := http.StatusOK
	if report.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	if err := c.JSON(status, report); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// runHealthChecks probes every dependency concurrently so one slow
// dependency cannot hide the state of the others.
func (s *Server) runHealthChecks(ctx context.Context) healthReport {
	results := make([]checkResult, len(s.healthChecks))

	var wg sync.WaitGroup
	for i, hc := range s.healthChecks {
		wg.Go(func() {
			start := time.Now()
			err := hc.Check(ctx)
			res := checkResult{Status: "ok", LatencyMS: float64(time.Since(start).Microseconds()) / 1000}
			if err != nil {
				res.Status = "error"
				res.Error = err.Error()
			}
			results[i] = res
		})
	}
	wg.Wait()

	report := healthReport{Status: "ready", Checks: make(map[string]checkResult, len(results))}
	for i, hc := range s.healthChecks {
		report.Checks[hc.Name] = results[i]
		if results[i].Status == "ok" {
			continue
		}
		if hc.Critical {
			report.Status = "unhealthy"
		} else if report.Status == "ready" {
			report.Status = "degraded"
		}
	}
	return report
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}
