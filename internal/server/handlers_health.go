package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/DirtyReal/cfh-new/internal/version"
)

// Startup probes run against freshly booted dependencies and should fail
// fast; readiness tolerates a slower round trip.
const (
	startupProbeTimeout   = 2 * time.Second
	readinessProbeTimeout = 5 * time.Second
)

// HealthCheck names one dependency probe. Probes run in registration order
// and the first failure ends the sweep.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type readyResponse struct {
	Status string `json:"status"`
}

type unhealthyResponse struct {
	Status      string `json:"status"`
	FailedCheck string `json:"failed_check"`
	Error       string `json:"error"`
}

type livenessResponse struct {
	Status string  `json:"status"`
	Uptime float64 `json:"uptime"`
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/startup", s.handleStartup)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
}

func (s *Server) handleStartup(c echo.Context) error {
	return s.probeDependencies(c, startupProbeTimeout)
}

func (s *Server) handleReadiness(c echo.Context) error {
	return s.probeDependencies(c, readinessProbeTimeout)
}

func (s *Server) probeDependencies(c echo.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
	defer cancel()

	for _, check := range s.healthChecks {
		err := check.Check(ctx)
		if err == nil {
			continue
		}

		resp := unhealthyResponse{
			Status:      "unhealthy",
			FailedCheck: check.Name,
			Error:       err.Error(),
		}
		if werr := c.JSON(http.StatusServiceUnavailable, resp); werr != nil {
			return fmt.Errorf("failed to send JSON response: %w", werr)
		}
		return nil
	}

	if err := c.JSON(http.StatusOK, readyResponse{Status: "ready"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// handleLiveness only proves the process is serving; it deliberately
// touches no dependency.
func (s *Server) handleLiveness(c echo.Context) error {
	resp := livenessResponse{
		Status: "ok",
		Uptime: time.Since(s.startTime).Seconds(),
	}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}
	return nil
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}
