package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tel := New("Counter")
	require.NotNil(t, tel)
	assert.Equal(t, "Counter", tel.SubjectType)
}

func TestStartCompleteRecordComplete(t *testing.T) {
	tel := New("complete-test")

	ctx, span := tel.StartComplete(context.Background(), 3)
	require.NotNil(t, span)
	tel.RecordComplete(span, 0.002, nil)

	count := testutil.ToFloat64(completeTotal.WithLabelValues("complete-test", "ok"))
	assert.Greater(t, count, 0.0)

	_, span = tel.StartComplete(ctx, 1)
	tel.RecordComplete(span, 0.001, errors.New("boom"))

	errCount := testutil.ToFloat64(completeTotal.WithLabelValues("complete-test", "error"))
	assert.Greater(t, errCount, 0.0)
}

func TestRecordCleanup(t *testing.T) {
	tel := New("cleanup-test")

	tel.RecordCleanup(5)
	tel.RecordCleanup(2)

	count := testutil.ToFloat64(cleanupPrunedTotal.WithLabelValues("cleanup-test"))
	assert.Equal(t, 7.0, count)
}

// A nil *Telemetry must make every method a safe no-op, since the type
// documents a nil receiver as valid.
func TestNilTelemetryIsNoop(t *testing.T) {
	var tel *Telemetry

	ctx, span := tel.StartComplete(context.Background(), 1)
	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() {
		tel.RecordComplete(span, 0.0, nil)
	})
	assert.NotPanics(t, func() {
		tel.RecordCleanup(1)
	})
}

func TestInitTracerInvalidEndpoint(t *testing.T) {
	shutdown, err := InitTracer("test-service", "")

	require.Error(t, err)
	assert.Nil(t, shutdown)
	assert.Contains(t, err.Error(), "failed to create trace exporter")
}

func TestInitTracerServiceName(t *testing.T) {
	shutdown, err := InitTracer("entityengine-kernel", "invalid-endpoint:1234")

	if err != nil {
		assert.Contains(t, err.Error(), "failed to create trace exporter")
	}
	if shutdown != nil {
		shutdown(context.Background())
	}
}

func TestInitTracerShutdown(t *testing.T) {
	_, err := InitTracer("test", "")
	require.Error(t, err)
}
