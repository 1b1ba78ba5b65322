package database

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/DirtyReal/cfh-new/internal/metrics"
)

// MetricsTracer hooks into pgx to time every query and count failures.
// Labels carry the leading SQL verb so cardinality stays bounded.
type MetricsTracer struct{}

var _ pgx.QueryTracer = (*MetricsTracer)(nil)

type traceKey struct{}

type traceInfo struct {
	begun time.Time
	verb  string
}

func (t *MetricsTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traceInfo{
		begun: time.Now(),
		verb:  queryVerb(data.SQL),
	})
}

func (t *MetricsTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	info, ok := ctx.Value(traceKey{}).(traceInfo)
	if !ok {
		return
	}

	metrics.DBQueryDuration.WithLabelValues(info.verb).Observe(time.Since(info.begun).Seconds())
	if data.Err != nil {
		metrics.DBErrorsTotal.WithLabelValues(info.verb).Inc()
	}
}

// queryVerb reduces SQL to its first word ("SELECT", "INSERT", ...).
func queryVerb(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}

	verb := fields[0]
	if len(verb) > 20 {
		verb = verb[:20]
	}
	return strings.ToUpper(verb)
}
