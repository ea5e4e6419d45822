package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				sums[m.Name] += dp.Value
			}
		}
	}
	return sums
}

func TestRecorder(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	recorder, err := NewRecorder(Meter(provider), "mapping_created", "mapping_deleted", "hit_recorded")
	require.NoError(t, err)

	ctx := context.Background()
	recorder.Record(ctx, "mapping_created")
	recorder.Record(ctx, "hit_recorded")
	recorder.Record(ctx, "hit_recorded")
	recorder.Record(ctx, "hit_recorded")
	recorder.Record(ctx, "unknown_event")

	sums := collectSums(t, reader)

	assert.Equal(t, int64(1), sums["shortlink.mapping_created"])
	assert.Equal(t, int64(3), sums["shortlink.hit_recorded"])
	assert.NotContains(t, sums, "shortlink.unknown_event")
}

func TestInitTracer_UnknownProtocol(t *testing.T) {
	_, err := InitTracer(Config{
		OTLPEndpoint: "localhost:4318",
		Protocol:     "udp",
		ServiceName:  "shortlink-service",
	})
	assert.Error(t, err)
}
