package app

import (
	"os"
	"slices"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:8080"

// Catalog sources.
const (
	SourceSheets   = "sheets"
	SourcePostgres = "postgres"
)

// Cart storage backends.
const (
	StorageLocal = "local"
	StorageRedis = "redis"
)

// Config holds the complete application configuration, loadable from
// environment variables (CARDAPIO_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (CARDAPIO_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Catalog     CatalogConfig
	Storage     StorageConfig
	Order       OrderConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// CatalogConfig selects and tunes the menu source.
type CatalogConfig struct {
	Source          string        `default:"sheets" usage:"Catalog source: sheets or postgres"`
	LoadAttempts    int           `default:"10" usage:"Catalog load attempts before the menu is reported unavailable" flag:"catalog-load-attempts"`
	LoadInterval    time.Duration `default:"500ms" usage:"Delay between catalog load attempts" flag:"catalog-load-interval"`
	RefreshInterval time.Duration `default:"5m" usage:"Catalog refresh period, zero disables refresh" flag:"catalog-refresh-interval"`
	Sheets          SheetsConfig
}

// SheetsConfig describes the spreadsheet backing the menu.
type SheetsConfig struct {
	BaseURL   string        `default:"https://sheets.googleapis.com/v4/spreadsheets" usage:"Sheets values API base URL" flag:"sheets-base-url"`
	SheetID   string        `usage:"Spreadsheet ID" flag:"sheets-id"`
	SheetName string        `default:"Produtos" usage:"Sheet (tab) name" flag:"sheets-name"`
	APIKey    string        `usage:"Sheets API key" flag:"sheets-api-key"`
	Timeout   time.Duration `default:"10s" usage:"Sheets request timeout" flag:"sheets-timeout"`
	Breaker   BreakerConfig
}

// BreakerConfig tunes the circuit breaker around the Sheets API.
type BreakerConfig struct {
	Timeout      time.Duration `default:"30s" usage:"Open state duration" flag:"breaker-timeout"`
	FailureRatio float64       `default:"0.5" usage:"Failure ratio that trips the breaker" flag:"breaker-failure-ratio"`
	MinRequests  uint32        `default:"5" usage:"Requests seen before the ratio applies" flag:"breaker-min-requests"`
}

// StorageConfig selects the cart key-value backend.
type StorageConfig struct {
	Backend string `default:"local" usage:"Cart storage: local or redis"`
	Key     string `default:"cardapio_cart" usage:"Storage key holding the cart"`
	Dir     string `default:"data" usage:"Directory for local storage" flag:"storage-dir"`
	Redis   RedisConfig
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string        `default:"localhost:6379" usage:"Redis address" flag:"redis-addr"`
	Password string        `usage:"Redis password" flag:"redis-password"`
	DB       int           `default:"0" usage:"Redis database" flag:"redis-db"`
	Prefix   string        `default:"cardapio:" usage:"Key prefix" flag:"redis-prefix"`
	TTL      time.Duration `default:"0" usage:"Key TTL, zero keeps keys forever" flag:"redis-ttl"`
}

// OrderConfig controls the order message and its hand-off.
type OrderConfig struct {
	DefaultChannel string   `default:"5511920934212" usage:"WhatsApp number used when a product has none" flag:"whatsapp-number"`
	WhatsAppURL    string   `default:"https://wa.me/" usage:"WhatsApp deep link base URL" flag:"whatsapp-url"`
	Payments       []string `default:"PIX,Dinheiro,Cartão de Crédito,Cartão de Débito" usage:"Accepted payment methods, empty accepts any"`
	MaxQuantity    int      `default:"99" usage:"Maximum quantity of a single cart line" flag:"max-quantity"`
	Currency       CurrencyConfig
}

// CurrencyConfig controls money formatting.
type CurrencyConfig struct {
	Symbol    string `default:"R$" usage:"Currency symbol" flag:"currency-symbol"`
	Decimal   string `default:"," usage:"Decimal separator" flag:"currency-decimal"`
	Thousands string `default:"." usage:"Thousands separator" flag:"currency-thousands"`
}

// RateLimitConfig controls the per-client token bucket on checkout.
type RateLimitConfig struct {
	Max    int           `default:"10" usage:"Max checkout requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "CARDAPIO",
		Files:     []string{"config.yaml", "/etc/cardapio/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case SourceSheets:
		if c.Catalog.Sheets.SheetID == "" {
			return errors.New("sheet ID is required: set CARDAPIO_CATALOG_SHEETS_SHEET_ID")
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required: set CARDAPIO_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown catalog source %q", c.Catalog.Source)
	}
	if !slices.Contains([]string{StorageLocal, StorageRedis}, c.Storage.Backend) {
		return errors.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Order.DefaultChannel == "" {
		return errors.New("default WhatsApp number is required")
	}
	if c.Order.MaxQuantity < 0 {
		return errors.Errorf("max quantity must not be negative, got %d", c.Order.MaxQuantity)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's CARDAPIO_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
