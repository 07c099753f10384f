package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestRecordMutation(t *testing.T) {
	before := testutil.ToFloat64(GraphMutations.WithLabelValues("test_kind", OutcomeError))
	RecordMutation("test_kind", errors.New("boom"))
	RecordMutation("test_kind", nil)

	assert.Equal(t, before+1, testutil.ToFloat64(GraphMutations.WithLabelValues("test_kind", OutcomeError)))
	assert.GreaterOrEqual(t, testutil.ToFloat64(GraphMutations.WithLabelValues("test_kind", OutcomeOK)), 1.0)
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{ServiceName: "chirper-test"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	ctx, span := StartSpan(context.Background(), "test.op", UserAttr("user.id", 7))
	assert.NotNil(t, ctx)
	err = errors.New("failed")
	span.Finish(&err)

	var nilSpan *Span
	nilSpan.Finish(nil)
}

func TestInitTracing_RejectsBadExporterConfig(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{ServiceName: "x", Enabled: true, Exporter: "zipkin"})
	assert.ErrorContains(t, err, "unknown tracing exporter")

	_, err = InitTracing(context.Background(), TracingConfig{ServiceName: "x", Enabled: true, Exporter: ExporterOTLP})
	assert.ErrorContains(t, err, "OTLP_ENDPOINT")
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(0).Description(), "AlwaysOnSampler")
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestSpanFinish_RecordsErrors(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := Tracer
	Tracer = tp.Tracer("test")
	t.Cleanup(func() { Tracer = prev })

	_, ok := StartSpan(context.Background(), "ok.op")
	var noErr error
	ok.Finish(&noErr)

	_, failed := StartSpan(context.Background(), "failed.op", UserAttr("actor.id", 3))
	err := errors.New("write failed")
	failed.Finish(&err)

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "ok.op", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, "failed.op", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "write failed", spans[1].Status().Description)
	assert.Len(t, spans[1].Events(), 1)
}
