// Command catalog-import loads menu exports into the PostgreSQL catalog.
//
// Accepted inputs are Sheets values API responses (.json) and sheet
// exports as CSV, optionally gzip-compressed (.csv, .csv.gz). Files are
// parsed concurrently and merged in argument order; a product id seen in
// a later file replaces the earlier one.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/cardapio/internal/storage/postgres"
)

type options struct {
	databaseURL    string
	defaultChannel string
	files          []string
	prune          bool
	dryRun         bool
}

func main() {
	var opts options

	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.defaultChannel, "whatsapp-number", "5511920934212", "WhatsApp number for products without one")
	flag.BoolVar(&opts.prune, "prune", false, "delete products missing from the imported files")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "parse files and report without writing to the database")
	flag.Parse()
	opts.files = flag.Args()

	if len(opts.files) == 0 {
		slog.Error("at least one input file is required")
		os.Exit(2)
	}
	if opts.databaseURL == "" {
		opts.databaseURL = os.Getenv("DATABASE_URL")
	}
	if opts.databaseURL == "" && !opts.dryRun {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, opts options) error {
	slog.Info("reading input files", slog.String("files", strings.Join(opts.files, ",")))

	products, err := loadFiles(ctx, opts.files, opts.defaultChannel)
	if err != nil {
		return errors.Wrap(err, "load files")
	}
	if len(products) == 0 {
		return errors.New("no products found in input files")
	}

	slog.Info("products parsed", slog.Int("count", len(products)))
	if opts.dryRun {
		for _, p := range products {
			slog.Info("product",
				slog.String("id", p.ID),
				slog.String("name", p.Name),
				slog.String("category", p.Category),
				slog.Int("variants", len(p.Variants)),
			)
		}
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, opts.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("upserting products", slog.Int("count", len(products)), slog.Bool("prune", opts.prune))

	repo := postgres.NewCatalogRepository(pool)
	if err := repo.Upsert(ctx, products, postgres.UpsertOptions{Prune: opts.prune}); err != nil {
		return errors.Wrap(err, "upsert products")
	}
	return nil
}
