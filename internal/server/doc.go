// Package server implements the HTTP server using Echo framework.
//
// Routes: auth (session register/login/logout), API (feed, votes, comments,
// resources, newsletter, game), feed WebSocket, health probes, metrics.
// Handlers split by domain: handlers_auth.go, handlers_feed.go,
// handlers_vote.go, handlers_resources.go, handlers_game.go,
// handlers_newsletter.go, handlers_ws.go, handlers_health.go.
package server
