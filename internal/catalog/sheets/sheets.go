// Package sheets loads the menu from a Google Sheets values endpoint.
package sheets

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/cardapio/internal/catalog"
	"github.com/xenking/cardapio/internal/domain/product"
)

// DefaultBaseURL is the Sheets API v4 spreadsheets endpoint.
const DefaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

// maxBody bounds the size of a values response.
const maxBody = 8 << 20

// Config describes the spreadsheet to read.
type Config struct {
	BaseURL        string
	SheetID        string
	SheetName      string
	APIKey         string
	DefaultChannel string
	Timeout        time.Duration
	Breaker        BreakerConfig
}

// BreakerConfig tunes the circuit breaker around the Sheets API.
type BreakerConfig struct {
	// MaxRequests allowed in the half-open state.
	MaxRequests uint32
	// Interval clears failure counts in the closed state.
	Interval time.Duration
	// Timeout is how long the breaker stays open.
	Timeout time.Duration
	// FailureRatio trips the breaker once MinRequests have been seen.
	FailureRatio float64
	MinRequests  uint32
}

// Options holds optional dependencies.
type Options struct {
	HTTPClient     *http.Client
	Logger         *zap.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return "unexpected status " + strconv.Itoa(e.StatusCode)
}

// Source fetches products from a spreadsheet.
type Source struct {
	cfg     Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	lg      *zap.Logger
}

var _ catalog.Source = (*Source)(nil)

// New creates a Source. Requests go through an otelhttp transport and a
// circuit breaker.
func New(cfg Config, opts Options) (*Source, error) {
	if cfg.SheetID == "" {
		return nil, errors.New("sheet id is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Produtos"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	client := opts.HTTPClient
	if client == nil {
		var otelOpts []otelhttp.Option
		if opts.TracerProvider != nil {
			otelOpts = append(otelOpts, otelhttp.WithTracerProvider(opts.TracerProvider))
		}
		if opts.MeterProvider != nil {
			otelOpts = append(otelOpts, otelhttp.WithMeterProvider(opts.MeterProvider))
		}
		client = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport, otelOpts...),
		}
	}

	bc := cfg.Breaker
	if bc.Timeout <= 0 {
		bc.Timeout = 30 * time.Second
	}
	if bc.FailureRatio <= 0 {
		bc.FailureRatio = 0.5
	}
	if bc.MinRequests == 0 {
		bc.MinRequests = 5
	}
	lg := opts.Logger
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "sheets",
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bc.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= bc.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			lg.Warn("Circuit breaker state change",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})

	return &Source{
		cfg:     cfg,
		client:  client,
		breaker: breaker,
		lg:      lg,
	}, nil
}

// URL returns the values endpoint for the configured sheet.
func (s *Source) URL() string {
	u := s.cfg.BaseURL + "/" + url.PathEscape(s.cfg.SheetID) + "/values/" + url.PathEscape(s.cfg.SheetName)
	if s.cfg.APIKey != "" {
		u += "?key=" + url.QueryEscape(s.cfg.APIKey)
	}
	return u
}

// State returns the circuit breaker state.
func (s *Source) State() gobreaker.State {
	return s.breaker.State()
}

// Fetch downloads and parses the sheet.
func (s *Source) Fetch(ctx context.Context) ([]product.Product, error) {
	body, err := s.breaker.Execute(func() ([]byte, error) {
		return s.get(ctx)
	})
	if err != nil {
		return nil, errors.Wrap(err, "get sheet")
	}
	rows, err := DecodeValues(body)
	if err != nil {
		return nil, err
	}
	products := ParseRows(rows, s.cfg.DefaultChannel)
	s.lg.Debug("Sheet parsed",
		zap.Int("rows", len(rows)),
		zap.Int("products", len(products)),
	)
	return products, nil
}

func (s *Source) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(), http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return body, nil
}
