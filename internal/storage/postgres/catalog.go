package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/cardapio/internal/catalog"
	"github.com/xenking/cardapio/internal/domain/product"
)

const (
	listProductsSQL = `SELECT id, name, description, category, image_url, contact_channel
		FROM products ORDER BY position, id`

	listVariantsSQL = `SELECT product_id, label, price
		FROM product_variants ORDER BY product_id, position`

	upsertProductSQL = `INSERT INTO products (id, name, description, category, image_url, contact_channel, position, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			image_url = EXCLUDED.image_url,
			contact_channel = EXCLUDED.contact_channel,
			position = EXCLUDED.position,
			updated_at = now()`

	deleteVariantsSQL = `DELETE FROM product_variants WHERE product_id = $1`

	insertVariantSQL = `INSERT INTO product_variants (product_id, position, label, price)
		VALUES ($1, $2, $3, $4)`

	pruneProductsSQL = `DELETE FROM products WHERE NOT (id = ANY($1))`
)

// CatalogRepository reads and writes the catalog tables.
type CatalogRepository struct {
	db DB
}

var _ catalog.Source = (*CatalogRepository)(nil)

// NewCatalogRepository returns a CatalogRepository using conn.
func NewCatalogRepository(conn DB) *CatalogRepository {
	return &CatalogRepository{db: conn}
}

// Fetch returns every product with its variants, in catalog order.
func (r *CatalogRepository) Fetch(ctx context.Context) ([]product.Product, error) {
	rows, err := r.db.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, errors.Wrap(err, "scan products")
	}

	rows, err = r.db.Query(ctx, listVariantsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list variants")
	}
	variants, err := pgx.CollectRows(rows, scanVariant)
	if err != nil {
		return nil, errors.Wrap(err, "scan variants")
	}

	byID := make(map[string]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}
	for _, v := range variants {
		if i, ok := byID[v.productID]; ok {
			products[i].Variants = append(products[i].Variants, v.Variant)
		}
	}
	return products, nil
}

// UpsertOptions controls Upsert.
type UpsertOptions struct {
	// Prune deletes products absent from the upserted set.
	Prune bool
}

// Upsert writes products and replaces their variants in one transaction.
// Product order is stored as position.
func (r *CatalogRepository) Upsert(ctx context.Context, products []product.Product, opts UpsertOptions) (rerr error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() {
		if rerr != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	ids := make([]string, 0, len(products))
	for i, p := range products {
		if _, err := tx.Exec(ctx, upsertProductSQL,
			p.ID, p.Name, p.Description, p.Category, p.ImageURL, p.ContactChannel, i,
		); err != nil {
			return errors.Wrapf(err, "upsert product %q", p.ID)
		}
		if _, err := tx.Exec(ctx, deleteVariantsSQL, p.ID); err != nil {
			return errors.Wrapf(err, "clear variants of %q", p.ID)
		}
		for j, v := range p.Variants {
			if _, err := tx.Exec(ctx, insertVariantSQL, p.ID, j, v.Label, v.Price); err != nil {
				return errors.Wrapf(err, "insert variant %q of %q", v.Label, p.ID)
			}
		}
		ids = append(ids, p.ID)
	}
	if opts.Prune {
		if _, err := tx.Exec(ctx, pruneProductsSQL, ids); err != nil {
			return errors.Wrap(err, "prune products")
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit")
	}
	return nil
}

type variantRow struct {
	productID string
	product.Variant
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.ImageURL, &p.ContactChannel)
	return p, err
}

func scanVariant(row pgx.CollectableRow) (variantRow, error) {
	var (
		v     variantRow
		price decimal.Decimal
	)
	err := row.Scan(&v.productID, &v.Label, &price)
	v.Price = price
	return v, err
}
