package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/DirtyReal/cfh-new/internal/metrics"
)

// CircuitBreakerHook fails Redis operations fast once Redis has been
// unhealthy for a while, instead of letting every request wait out a dial
// timeout. An open breaker degrades reads to Postgres immediately: the feed
// cache treats the error as a miss and the vote limiter fails open.
type CircuitBreakerHook struct {
	cb *gobreaker.TwoStepCircuitBreaker
}

var _ goredis.Hook = (*CircuitBreakerHook)(nil)

// NewCircuitBreakerHook creates a breaker that trips at a 60% failure rate
// over at least 5 requests, waits 30s before probing again, and closes
// after 3 successful probes.
func NewCircuitBreakerHook() *CircuitBreakerHook {
	settings := gobreaker.Settings{
		Name:        "redis",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed",
				"component", name,
				"from", from.String(),
				"to", to.String(),
			)

			metrics.CircuitBreakerStateChanges.WithLabelValues(name, to.String()).Inc()
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}

	return &CircuitBreakerHook{cb: gobreaker.NewTwoStepCircuitBreaker(settings)}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// DialHook counts failed dials against the breaker so a dead Redis opens it
// before commands start queueing.
func (h *CircuitBreakerHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		done, err := h.cb.Allow()
		if err != nil {
			return nil, fmt.Errorf("redis circuit breaker open: %w", err)
		}

		conn, err := next(ctx, network, addr)
		done(err == nil)
		return conn, err
	}
}

func (h *CircuitBreakerHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		done, err := h.cb.Allow()
		if err != nil {
			return fmt.Errorf("redis circuit breaker open: %w", err)
		}

		err = next(ctx, cmd)
		// A cache miss is a healthy round trip.
		done(err == nil || errors.Is(err, goredis.Nil))
		return err
	}
}

func (h *CircuitBreakerHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		done, err := h.cb.Allow()
		if err != nil {
			return fmt.Errorf("redis circuit breaker open: %w", err)
		}

		err = next(ctx, cmds)
		done(err == nil || errors.Is(err, goredis.Nil))
		return err
	}
}

// State reports the breaker state for tests and monitoring.
func (h *CircuitBreakerHook) State() gobreaker.State {
	return h.cb.State()
}

// Counts reports the breaker request counts for tests and monitoring.
func (h *CircuitBreakerHook) Counts() gobreaker.Counts {
	return h.cb.Counts()
}
