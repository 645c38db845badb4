package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetrics(mp)
	require.NoError(t, err)

	c := newTestCart(newMemStore())
	c.Subscribe(m)

	_, err = c.AddItem(ctx, pizza(), variant(t, pizza(), "M"), 2)
	require.NoError(t, err)
	_, err = c.AddItem(ctx, pizza(), variant(t, pizza(), "M"), 1)
	require.NoError(t, err)
	c.RemoveItem(ctx, "pizza-M")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := make(map[string]metricdata.Metrics)
	for _, metric := range rm.ScopeMetrics[0].Metrics {
		byName[metric.Name] = metric
	}

	sum, ok := byName["cardapio.cart.mutations"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	counts := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		kind, _ := dp.Attributes.Value(attribute.Key("kind"))
		counts[kind.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"added": 1, "merged": 1, "removed": 1}, counts)

	gauge, ok := byName["cardapio.cart.units"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(0), gauge.DataPoints[0].Value)
}
