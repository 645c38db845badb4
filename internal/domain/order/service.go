package order

import (
	"context"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/cardapio/internal/domain/cart"
)

// Sink hands a finished transcript to an external channel and returns the
// hand-off link. Delivery is fire-and-forget.
type Sink interface {
	Deliver(ctx context.Context, destination, text string) (string, error)
}

// Cart is the subset of the cart engine used by checkout.
type Cart interface {
	Items() []cart.LineItem
	RemoveOrdered(ctx context.Context, ordered []cart.LineItem)
}

var _ Cart = (*cart.Cart)(nil)

// CheckoutResult holds the output of a successful checkout.
type CheckoutResult struct {
	Summary *Summary
	URL     string
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	// Payments lists accepted payment methods, matched case-insensitively.
	// Empty accepts any non-empty method.
	Payments       []string
	Logger         *zap.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Service encapsulates checkout business logic.
type Service struct {
	cart     Cart
	gen      *Generator
	sink     Sink
	payments []string
	lg       *zap.Logger
	tracer   trace.Tracer

	checkouts metric.Int64Counter
}

// NewService creates a checkout Service.
func NewService(c Cart, gen *Generator, sink Sink, opts ServiceOptions) (*Service, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = tracenoop.NewTracerProvider()
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = metricnoop.NewMeterProvider()
	}
	const scope = "github.com/xenking/cardapio/internal/domain/order"
	checkouts, err := opts.MeterProvider.Meter(scope).Int64Counter("cardapio.checkout.count",
		metric.WithDescription("Checkout attempts by result"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create checkout counter")
	}
	return &Service{
		cart:      c,
		gen:       gen,
		sink:      sink,
		payments:  opts.Payments,
		lg:        opts.Logger,
		tracer:    opts.TracerProvider.Tracer(scope),
		checkouts: checkouts,
	}, nil
}

// Payments returns the accepted payment methods.
func (s *Service) Payments() []string {
	return slices.Clone(s.payments)
}

// Checkout renders the current cart for the customer, hands it to the sink
// and removes the ordered lines from the cart. The cart is kept when
// validation or delivery fails.
func (s *Service) Checkout(ctx context.Context, customer Customer) (_ *CheckoutResult, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Checkout")
	defer func() {
		result := "ok"
		var verr *ValidationError
		switch {
		case errors.As(rerr, &verr):
			result = "invalid"
		case rerr != nil:
			result = "error"
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		s.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
		span.End()
	}()

	items := s.cart.Items()
	if len(items) == 0 {
		return nil, &ValidationError{Err: ErrEmptyCart}
	}
	customer = customer.Normalize()
	if customer.Payment != "" && !s.accepts(customer.Payment) {
		return nil, &ValidationError{Field: "payment", Err: ErrPaymentUnknown}
	}

	summary, err := s.gen.Generate(items, customer)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("order.lines", len(items)),
		attribute.Int("order.item_count", summary.ItemCount),
		attribute.String("order.total", summary.Total.StringFixed(2)),
	)

	url, err := s.sink.Deliver(ctx, summary.Destination, summary.Text)
	if err != nil {
		return nil, errors.Wrap(err, "deliver order")
	}
	s.cart.RemoveOrdered(ctx, items)

	s.lg.Info("Order handed off",
		zap.Int("lines", len(items)),
		zap.Int("item_count", summary.ItemCount),
		zap.String("total", summary.Total.StringFixed(2)),
	)
	return &CheckoutResult{Summary: summary, URL: url}, nil
}

func (s *Service) accepts(payment string) bool {
	if len(s.payments) == 0 {
		return true
	}
	return slices.ContainsFunc(s.payments, func(p string) bool {
		return strings.EqualFold(p, payment)
	})
}
