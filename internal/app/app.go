package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/cardapio/internal/api"
	"github.com/xenking/cardapio/internal/catalog"
	"github.com/xenking/cardapio/internal/catalog/sheets"
	"github.com/xenking/cardapio/internal/domain/cart"
	"github.com/xenking/cardapio/internal/domain/order"
	"github.com/xenking/cardapio/internal/handoff"
	"github.com/xenking/cardapio/internal/money"
	"github.com/xenking/cardapio/internal/storage/local"
	"github.com/xenking/cardapio/internal/storage/postgres"
	"github.com/xenking/cardapio/internal/storage/redis"
	"github.com/xenking/cardapio/pkg/health"
	"github.com/xenking/cardapio/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("catalog", cfg.Catalog.Source),
		zap.String("storage", cfg.Storage.Backend),
	)

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", health.GoroutineCountCheck(10000), health.CheckOptions{})

	// Cart storage.
	store, closeStore, err := openStorage(ctx, cfg.Storage, healthSvc)
	if err != nil {
		return err
	}
	defer closeStore()

	// Catalog source.
	src, closeSource, err := openSource(ctx, lg, m, cfg, healthSvc)
	if err != nil {
		return err
	}
	defer closeSource()

	menu := catalog.New(src, catalog.Options{
		LoadAttempts: cfg.Catalog.LoadAttempts,
		LoadInterval: cfg.Catalog.LoadInterval,
		Logger:       lg.Named("catalog"),
	})
	healthSvc.AddReadinessCheck("catalog", health.ReadyCheck(menu.Ready, "menu failed to load"), health.CheckOptions{
		FailureThreshold: 1,
		StartUnhealthy:   true,
	})

	// Cart engine.
	c := cart.New(store, cart.Options{
		Key:            cfg.Storage.Key,
		DefaultChannel: cfg.Order.DefaultChannel,
		MaxQuantity:    cfg.Order.MaxQuantity,
		Logger:         lg.Named("cart"),
	})
	c.Load(ctx)
	cartMetrics, err := cart.NewMetrics(m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create cart metrics")
	}
	c.Subscribe(cartMetrics)
	lg.Info("Cart restored", zap.Int("lines", c.Len()), zap.Int("item_count", c.ItemCount()))

	// Checkout.
	formatter := money.New(cfg.Order.Currency.Symbol, cfg.Order.Currency.Decimal, cfg.Order.Currency.Thousands)
	gen := order.NewGenerator(order.GeneratorConfig{
		Formatter:      formatter,
		DefaultChannel: cfg.Order.DefaultChannel,
	})
	orderService, err := order.NewService(c, gen, handoff.NewWhatsApp(cfg.Order.WhatsAppURL), order.ServiceOptions{
		Payments:       cfg.Order.Payments,
		Logger:         lg.Named("order"),
		TracerProvider: m.TracerProvider(),
		MeterProvider:  m.MeterProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create order service")
	}

	// HTTP handlers.
	h := api.NewHandler(api.HandlerConfig{Formatter: formatter}, menu, c, orderService)

	mux := http.NewServeMux()
	mux.Handle("GET /livez", httpmiddleware.Route(http.HandlerFunc(healthSvc.LiveEndpoint)))
	mux.Handle("GET /readyz", httpmiddleware.Route(http.HandlerFunc(healthSvc.ReadyEndpoint)))
	h.Register(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", httpmiddleware.RequestIDHeader},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
				Match:  isCheckout,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("cardapio-api", m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.LogRequests(),
		),
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := menu.Load(gCtx); err != nil {
			if gCtx.Err() != nil {
				return nil
			}
			lg.Error("Menu unavailable, serving cart only", zap.Error(err))
		}
		return menu.Run(gCtx, cfg.Catalog.RefreshInterval)
	})

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	g.Go(func() error {
		<-gCtx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		if ctx.Err() != nil {
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		return nil
	})

	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	return g.Wait()
}

// isCheckout selects the requests subject to rate limiting.
func isCheckout(r *http.Request) bool {
	return r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/checkout")
}

func openStorage(ctx context.Context, cfg StorageConfig, healthSvc *health.Health) (cart.Store, func(), error) {
	switch cfg.Backend {
	case StorageRedis:
		client, err := redis.Dial(ctx, &goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, errors.Wrap(err, "connect redis")
		}
		store := redis.New(client, cfg.Redis.Prefix, cfg.Redis.TTL)
		healthSvc.AddReadinessCheck("redis", health.PingCheck(store.Ping), health.CheckOptions{Timeout: 5 * time.Second})
		return store, func() { _ = client.Close() }, nil
	default:
		store, err := local.New(cfg.Dir)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open local storage")
		}
		return store, func() {}, nil
	}
}

func openSource(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config, healthSvc *health.Health) (catalog.Source, func(), error) {
	switch cfg.Catalog.Source {
	case SourcePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		healthSvc.AddReadinessCheck("postgres", health.PingCheck(pool.Ping), health.CheckOptions{Timeout: 5 * time.Second})
		return postgres.NewCatalogRepository(pool), pool.Close, nil
	default:
		sc := cfg.Catalog.Sheets
		src, err := sheets.New(sheets.Config{
			BaseURL:        sc.BaseURL,
			SheetID:        sc.SheetID,
			SheetName:      sc.SheetName,
			APIKey:         sc.APIKey,
			DefaultChannel: cfg.Order.DefaultChannel,
			Timeout:        sc.Timeout,
			Breaker: sheets.BreakerConfig{
				Timeout:      sc.Breaker.Timeout,
				FailureRatio: sc.Breaker.FailureRatio,
				MinRequests:  sc.Breaker.MinRequests,
			},
		}, sheets.Options{
			Logger:         lg.Named("sheets"),
			TracerProvider: m.TracerProvider(),
			MeterProvider:  m.MeterProvider(),
		})
		if err != nil {
			return nil, nil, errors.Wrap(err, "create sheets source")
		}
		return src, func() {}, nil
	}
}
