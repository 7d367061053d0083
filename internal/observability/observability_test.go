package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := Tracer
	Tracer = tp.Tracer("test")
	t.Cleanup(func() {
		Tracer = prev
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestStart_RecordsAttributesAndErrors(t *testing.T) {
	rec := recordSpans(t)

	_, span := Start(context.Background(), "account.delete", attribute.Int("user_id", 7))
	span.AddAttributes(attribute.Int("posts", 3))
	span.SetError(nil)
	span.SetError(errors.New("boom"))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	got := ended[0]
	assert.Equal(t, "account.delete", got.Name())
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Contains(t, got.Attributes(), attribute.Int("user_id", 7))
	assert.Contains(t, got.Attributes(), attribute.Int("posts", 3))
	assert.Len(t, got.Events(), 1)
}

func TestSpan_NilSafe(t *testing.T) {
	var s *Span
	assert.NotPanics(t, func() {
		s.AddAttributes(attribute.Bool("x", true))
		s.SetError(errors.New("ignored"))
		s.End()
	})
}

func TestNewSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), newSampler(1).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), newSampler(2.5).Description())
	assert.Contains(t, newSampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, newSampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestInitTracing_Disabled(t *testing.T) {
	prev := Tracer
	t.Cleanup(func() { Tracer = prev })

	shutdown, err := InitTracing(context.Background(), TracingConfig{ServiceName: "showcase-test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestTrackQuery_ObservesLatency(t *testing.T) {
	TrackQuery("test_op", "test_table")()
	TrackRanking("test_source", "latest")()

	assert.GreaterOrEqual(t, testutil.CollectAndCount(DatabaseQueryLatency), 1)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(RankingLatency), 1)
}

func TestLedgerToggles_Counts(t *testing.T) {
	c := LedgerToggles.WithLabelValues("test_kind", "added")
	before := testutil.ToFloat64(c)
	c.Inc()
	assert.InDelta(t, before+1, testutil.ToFloat64(c), 0.0001)
}
