package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pscheid92/streamagenda/internal/adapter/metrics"
	"github.com/stretchr/testify/assert"
)

func TestStatementVerb(t *testing.T) {
	assert.Equal(t, "SELECT", statementVerb("  select 1"))
	assert.Equal(t, "INSERT", statementVerb(upsertScheduleSQL))
	assert.Equal(t, "unknown", statementVerb(""))
}

func TestQueryTracer_CountsErrorsButNotNoRows(t *testing.T) {
	m := metrics.NewStorageMetrics(prometheus.NewRegistry())
	tracer := NewQueryTracer(m)

	run := func(sql string, err error) {
		ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: sql})
		tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: err})
	}

	run(getScheduleSQL, pgx.ErrNoRows)
	run(deleteScheduleSQL, errors.New("connection reset"))
	run(deleteScheduleSQL, nil)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.DBErrorsTotal.WithLabelValues("SELECT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBErrorsTotal.WithLabelValues("DELETE")))
}

func TestQueryTracer_IgnoresUntracedContext(t *testing.T) {
	m := metrics.NewStorageMetrics(prometheus.NewRegistry())
	tracer := NewQueryTracer(m)

	tracer.TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{Err: errors.New("x")})

	assert.Equal(t, 0, testutil.CollectAndCount(m.DBErrorsTotal))
}
