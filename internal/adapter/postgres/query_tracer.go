package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pscheid92/streamagenda/internal/adapter/metrics"
)

// QueryTracer records per-verb query latency and failures.
type QueryTracer struct {
	metrics *metrics.StorageMetrics
}

var _ pgx.QueryTracer = (*QueryTracer)(nil)

func NewQueryTracer(m *metrics.StorageMetrics) *QueryTracer {
	return &QueryTracer{metrics: m}
}

type traceKey struct{}

type traceStart struct {
	at   time.Time
	verb string
}

func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traceStart{at: time.Now(), verb: statementVerb(data.SQL)})
}

func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(traceKey{}).(traceStart)
	if !ok {
		return
	}

	t.metrics.DBQueryDuration.WithLabelValues(start.verb).Observe(time.Since(start.at).Seconds())
	if data.Err != nil && data.Err != pgx.ErrNoRows {
		t.metrics.DBErrorsTotal.WithLabelValues(start.verb).Inc()
	}
}

// statementVerb keeps label cardinality low: SELECT, INSERT, DELETE, ...
func statementVerb(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToUpper(fields[0])
}
