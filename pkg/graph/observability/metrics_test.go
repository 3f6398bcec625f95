package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest installs a manual-reader meter provider for the test.
func setupMetricsTest(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	original := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	t.Cleanup(func() {
		otel.SetMeterProvider(original)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("meter provider shutdown: %v", err)
		}
	})
	return reader
}

// collectMetrics collects all metrics from the reader.
func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)
	return &rm
}

// findMetric finds a metric by name in the collected data.
func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumValue(t *testing.T, rm *metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	m := findMetric(rm, name)
	require.NotNil(t, m, "metric %s not found", name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", name)
	require.NotEmpty(t, sum.DataPoints)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestRecordNodeExecution(t *testing.T) {
	reader := setupMetricsTest(t)

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("records count and latency", func(t *testing.T) {
		m.RecordNodeExecution(ctx, "riskAnalysis", 50*time.Millisecond, nil)

		rm := collectMetrics(t, reader)
		assert.Equal(t, int64(1), sumValue(t, rm, "tradegraph.node.executions"))

		lat := findMetric(rm, "tradegraph.node.latency_ms")
		require.NotNil(t, lat)
		hist, ok := lat.Data.(metricdata.Histogram[float64])
		require.True(t, ok)
		require.NotEmpty(t, hist.DataPoints)
		assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	})

	t.Run("records errors separately", func(t *testing.T) {
		m.RecordNodeExecution(ctx, "riskAnalysis", 10*time.Millisecond, errors.New("boom"))

		rm := collectMetrics(t, reader)
		assert.Equal(t, int64(1), sumValue(t, rm, "tradegraph.node.errors"))
	})
}

func TestRecordGraphRun(t *testing.T) {
	reader := setupMetricsTest(t)

	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordGraphRun(context.Background(), true, 200*time.Millisecond)
	m.RecordGraphRun(context.Background(), false, 100*time.Millisecond)

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), sumValue(t, rm, "tradegraph.graph.runs"))
}

func TestRecordDispatch(t *testing.T) {
	reader := setupMetricsTest(t)

	m, err := newOtelMetrics()
	require.NoError(t, err)

	t.Run("counts dispatches", func(t *testing.T) {
		m.RecordDispatch(context.Background(), "fetchData", 3, 0)

		rm := collectMetrics(t, reader)
		assert.Equal(t, int64(1), sumValue(t, rm, "tradegraph.dispatch.total"))
		// No failures recorded for a clean dispatch.
		assert.Nil(t, findMetric(rm, "tradegraph.dispatch.branch_failures"))
	})

	t.Run("counts branch failures", func(t *testing.T) {
		m.RecordDispatch(context.Background(), "fetchData", 3, 2)

		rm := collectMetrics(t, reader)
		assert.Equal(t, int64(2), sumValue(t, rm, "tradegraph.dispatch.branch_failures"))
	})
}

func TestNewMetricsRecorder_NotNoop(t *testing.T) {
	setupMetricsTest(t)

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)
}
