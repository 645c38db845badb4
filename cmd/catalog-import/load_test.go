package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/cardapio/internal/domain/product"
)

const testCSV = "\ufeffID,NomeProduto,Descrição,Categoria,LinkFoto,NumeroWhatsApp,Tamanho_P,Preço_P,Tamanho_M,Preço_M\n" +
	"1,Pizza,Mussarela,Pizzas,,5511999990000,P,\"20,00\",M,\"30,00\"\n" +
	",Sem categoria,,,,,P,10\n" +
	"2,Refrigerante,,Bebidas,,,Lata,\"6,50\",,\n"

const testJSON = `{
	"range": "Produtos!A1:J3",
	"values": [
		["ID","NomeProduto","Categoria","Tamanho_P","Preço_P"],
		["2","Refrigerante 2L","Bebidas","2L","12,00"],
		["3","Pudim","Sobremesas","P","9,90"]
	]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeGzip(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func ids(products []product.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestReadRows(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		rows int
	}{
		{name: "csv", path: func(t *testing.T) string { return writeFile(t, "menu.csv", testCSV) }, rows: 4},
		{name: "gzip csv", path: func(t *testing.T) string { return writeGzip(t, "menu.csv.gz", testCSV) }, rows: 4},
		{name: "json", path: func(t *testing.T) string { return writeFile(t, "menu.json", testJSON) }, rows: 3},
		{name: "gzip json", path: func(t *testing.T) string { return writeGzip(t, "menu.JSON.GZ", testJSON) }, rows: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := readRows(tt.path(t))
			require.NoError(t, err)
			require.Len(t, rows, tt.rows)
			assert.Equal(t, "ID", rows[0][0])
		})
	}
}

func TestReadRows_Errors(t *testing.T) {
	_, err := readRows(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = readRows(writeFile(t, "menu.xlsx", "x"))
	assert.ErrorContains(t, err, "unsupported file type")

	_, err = readRows(writeFile(t, "menu.csv.gz", "not gzip"))
	assert.ErrorContains(t, err, "open gzip")

	_, err = readRows(writeFile(t, "menu.json", `{"values": 1}`))
	assert.Error(t, err)
}

func TestLoadFiles(t *testing.T) {
	csvPath := writeFile(t, "menu.csv", testCSV)
	jsonPath := writeFile(t, "extra.json", testJSON)

	products, err := loadFiles(context.Background(), []string{csvPath, jsonPath}, "5511920934212")
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3"}, ids(products))

	pizza := products[0]
	assert.Equal(t, "Pizza", pizza.Name)
	assert.Equal(t, "5511999990000", pizza.ContactChannel)
	require.Len(t, pizza.Variants, 2)
	assert.True(t, decimal.RequireFromString("30").Equal(pizza.Variants[1].Price))

	// The JSON file replaces product 2 from the CSV.
	soda := products[1]
	assert.Equal(t, "Refrigerante 2L", soda.Name)
	assert.Equal(t, "5511920934212", soda.ContactChannel)
	require.Len(t, soda.Variants, 1)
	assert.Equal(t, "2L", soda.Variants[0].Label)
}

func TestLoadFiles_Error(t *testing.T) {
	good := writeFile(t, "menu.csv", testCSV)
	_, err := loadFiles(context.Background(), []string{good, filepath.Join(t.TempDir(), "missing.csv")}, "")
	assert.ErrorContains(t, err, "missing.csv")
}

func TestMerge(t *testing.T) {
	a := []product.Product{{ID: "1", Name: "A"}, {ID: "2", Name: "B"}}
	b := []product.Product{{ID: "3", Name: "C"}, {ID: "1", Name: "A2"}}

	got := merge([][]product.Product{a, b})
	assert.Equal(t, []string{"1", "2", "3"}, ids(got))
	assert.Equal(t, "A2", got[0].Name)
	assert.Empty(t, merge(nil))
}
