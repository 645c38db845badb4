package main

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/cardapio/internal/catalog/sheets"
	"github.com/xenking/cardapio/internal/domain/product"
)

// maxJSONSize bounds a single Sheets values dump.
const maxJSONSize = 32 << 20

// loadFiles parses every file concurrently and merges the results in file
// order.
func loadFiles(ctx context.Context, files []string, defaultChannel string) ([]product.Product, error) {
	results := make([][]product.Product, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows, err := readRows(f)
			if err != nil {
				return errors.Wrapf(err, "read %s", f)
			}
			results[i] = sheets.ParseRows(rows, defaultChannel)
			slog.Info("file parsed",
				slog.String("path", f),
				slog.Int("rows", max(len(rows)-1, 0)),
				slog.Int("products", len(results[i])),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return merge(results), nil
}

// merge concatenates product lists, replacing earlier products that share
// an id while keeping their original position.
func merge(lists [][]product.Product) []product.Product {
	var out []product.Product
	index := make(map[string]int)
	for _, list := range lists {
		for _, p := range list {
			if i, ok := index[p.ID]; ok {
				slog.Warn("duplicate product id, replacing", slog.String("id", p.ID))
				out[i] = p
				continue
			}
			index[p.ID] = len(out)
			out = append(out, p)
		}
	}
	return out
}

// readRows reads a file into sheet rows, header first.
func readRows(path string) (_ [][]string, rerr error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = errors.Wrap(err, "close")
		}
	}()

	name := strings.ToLower(filepath.Base(path))
	var r io.Reader = f
	if strings.HasSuffix(name, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip")
		}
		defer func() { _ = gz.Close() }()
		r = gz
		name = strings.TrimSuffix(name, ".gz")
	}

	switch filepath.Ext(name) {
	case ".json":
		data, err := io.ReadAll(io.LimitReader(r, maxJSONSize))
		if err != nil {
			return nil, errors.Wrap(err, "read")
		}
		return sheets.DecodeValues(data)
	case ".csv":
		return readCSV(r)
	default:
		return nil, errors.Errorf("unsupported file type %q", filepath.Ext(name))
	}
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parse csv")
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}
