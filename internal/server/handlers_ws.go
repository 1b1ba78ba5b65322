package server

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/DirtyReal/cfh-new/internal/metrics"
)

// WebSocket connection-rate defaults per remote IP. Reconnect storms from a
// single address hit the rate bucket before they can touch the per-IP cap.
const (
	wsConnectionsPerSecond = 5.0
	wsConnectionBurst      = 10
)

// handleFeedSocket upgrades the request and parks it on the feed hub. The
// client receives a tally event for every applied vote; it never sends
// anything meaningful, so the read pump exists only to notice disconnects.
func (s *Server) handleFeedSocket(c echo.Context) error {
	ip := c.RealIP()

	ok, reason := s.limits.Acquire(ip)
	if !ok {
		metrics.WSConnectionsRejected.WithLabelValues(string(reason)).Inc()
		slog.Warn("WebSocket connection rejected", "reason", reason, "ip", ip)

		// The instance being full is a server condition; everything else is
		// the caller connecting too greedily.
		if reason == LimitReasonGlobal {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "connection limit reached")
		}
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many connections from this address")
	}

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.limits.Release(ip)
		// Upgrade already wrote its handshake error to the client.
		slog.Warn("WebSocket upgrade failed", "ip", ip, "error", err)
		return nil
	}

	if err := s.hub.Register(conn); err != nil {
		s.limits.Release(ip)
		slog.Error("Failed to register WebSocket client", "error", err)
		conn.Close()
		return nil
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.hub.Unregister(conn)
	s.limits.Release(ip)

	return nil
}
