package cart

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/xenking/cardapio/internal/domain/cart"

// Metrics is an Observer recording cart mutations and the current number
// of units in the cart.
type Metrics struct {
	mutations metric.Int64Counter
	units     metric.Int64Gauge
}

var _ Observer = (*Metrics)(nil)

// NewMetrics creates the cart instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	mutations, err := meter.Int64Counter("cardapio.cart.mutations",
		metric.WithDescription("Committed cart mutations by kind"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create mutations counter")
	}
	units, err := meter.Int64Gauge("cardapio.cart.units",
		metric.WithDescription("Units currently in the cart"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create units gauge")
	}
	return &Metrics{mutations: mutations, units: units}, nil
}

// OnChange implements Observer.
func (m *Metrics) OnChange(ctx context.Context, e Event) {
	m.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(e.Kind))))
	m.units.Record(ctx, int64(ItemCount(e.Items)))
}
