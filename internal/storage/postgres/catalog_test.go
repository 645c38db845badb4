package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/go-faster/errors"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/cardapio/internal/domain/product"
)

func setupRepo(t *testing.T) (*CatalogRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewCatalogRepository(mock), mock
}

func productColumns() []string {
	return []string{"id", "name", "description", "category", "image_url", "contact_channel"}
}

func variantColumns() []string {
	return []string{"product_id", "label", "price"}
}

func sampleProducts() []product.Product {
	return []product.Product{
		{
			ID:             "1",
			Name:           "Pizza",
			Category:       "Pizzas",
			ContactChannel: "5511",
			Variants: []product.Variant{
				{Label: "M", Price: decimal.RequireFromString("30.00")},
				{Label: "G", Price: decimal.RequireFromString("40.00")},
			},
		},
		{
			ID:       "2",
			Name:     "Suco",
			Category: "Bebidas",
		},
	}
}

func TestCatalogRepository_Fetch(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(listProductsSQL)).
		WillReturnRows(pgxmock.NewRows(productColumns()).
			AddRow("1", "Pizza", "Massa fina", "Pizzas", "https://img/1.jpg", "5511").
			AddRow("2", "Suco", "", "Bebidas", "", ""))
	mock.ExpectQuery(regexp.QuoteMeta(listVariantsSQL)).
		WillReturnRows(pgxmock.NewRows(variantColumns()).
			AddRow("1", "M", decimal.RequireFromString("30.00")).
			AddRow("1", "G", decimal.RequireFromString("40.00")).
			AddRow("2", "300ml", decimal.RequireFromString("8.50")).
			AddRow("orphan", "P", decimal.RequireFromString("1.00")))

	products, err := repo.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "Massa fina", products[0].Description)
	assert.Equal(t, "https://img/1.jpg", products[0].ImageURL)
	require.Len(t, products[0].Variants, 2)
	assert.Equal(t, "G", products[0].Variants[1].Label)
	assert.True(t, decimal.RequireFromString("40").Equal(products[0].Variants[1].Price))
	require.Len(t, products[1].Variants, 1)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_FetchError(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(listProductsSQL)).
		WillReturnError(errors.New("connection refused"))

	_, err := repo.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list products")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_Upsert(t *testing.T) {
	repo, mock := setupRepo(t)
	products := sampleProducts()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(upsertProductSQL)).
		WithArgs("1", "Pizza", "", "Pizzas", "", "5511", 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteVariantsSQL)).
		WithArgs("1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(regexp.QuoteMeta(insertVariantSQL)).
		WithArgs("1", 0, "M", products[0].Variants[0].Price).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(insertVariantSQL)).
		WithArgs("1", 1, "G", products[0].Variants[1].Price).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(upsertProductSQL)).
		WithArgs("2", "Suco", "", "Bebidas", "", "", 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteVariantsSQL)).
		WithArgs("2").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(regexp.QuoteMeta(pruneProductsSQL)).
		WithArgs([]string{"1", "2"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectCommit()

	require.NoError(t, repo.Upsert(context.Background(), products, UpsertOptions{Prune: true}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_UpsertRollback(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(upsertProductSQL)).
		WithArgs("1", "Pizza", "", "Pizzas", "", "5511", 0).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.Upsert(context.Background(), sampleProducts(), UpsertOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `upsert product "1"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS products").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, RunMigrations(context.Background(), mock))
	require.NoError(t, mock.ExpectationsWereMet())
}
