package sheets

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
	"range": "Produtos!A1:Z1000",
	"majorDimension": "ROWS",
	"values": [
		["ID", "NomeProduto", "Descrição", "Categoria", "Tamanho_P", "Preço_P", "Tamanho_M", "Preço_M", "Tamanho_G", "Preço_G", "LinkFoto", "NumeroWhatsApp"],
		["1", "Pizza Calabresa", "Molho, calabresa e cebola", "Pizzas", "P", "29,90", "M", "39,90", "G", "49,90", "https://img/1.jpg", "5511911112222"],
		[],
		["2", "Coca-Cola", "", " Bebidas ", "Lata", "6,5", "", "", "", "", ""],
		["3", "", "sem nome", "Pizzas"],
		["", "Brigadeiro", "", "Sobremesas", "Un", 3.5, null, "x"]
	]
}`

func TestDecodeValues(t *testing.T) {
	rows, err := DecodeValues([]byte(sampleResponse))
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Empty(t, rows[2])
	assert.Equal(t, []string{"", "Brigadeiro", "", "Sobremesas", "Un", "3.5", "", "x"}, rows[5])
}

func TestDecodeValues_NoValues(t *testing.T) {
	rows, err := DecodeValues([]byte(`{"range":"Produtos!A1:Z1"}`))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDecodeValues_Malformed(t *testing.T) {
	_, err := DecodeValues([]byte(`{"values": [["a", ]]`))
	require.Error(t, err)
}

func TestParseRows(t *testing.T) {
	rows, err := DecodeValues([]byte(sampleResponse))
	require.NoError(t, err)

	products := ParseRows(rows, "5500000000000")
	require.Len(t, products, 3)

	pizza := products[0]
	assert.Equal(t, "1", pizza.ID)
	assert.Equal(t, "Pizza Calabresa", pizza.Name)
	assert.Equal(t, "Molho, calabresa e cebola", pizza.Description)
	assert.Equal(t, "Pizzas", pizza.Category)
	assert.Equal(t, "https://img/1.jpg", pizza.ImageURL)
	assert.Equal(t, "5511911112222", pizza.ContactChannel)
	require.Len(t, pizza.Variants, 3)
	assert.Equal(t, "M", pizza.Variants[1].Label)
	assert.True(t, decimal.RequireFromString("39.90").Equal(pizza.Variants[1].Price))

	coke := products[1]
	assert.Equal(t, "Bebidas", coke.Category)
	assert.Equal(t, "5500000000000", coke.ContactChannel)
	require.Len(t, coke.Variants, 1)
	assert.True(t, decimal.RequireFromString("6.5").Equal(coke.Variants[0].Price))

	sweet := products[2]
	assert.Equal(t, "6", sweet.ID, "missing id falls back to sheet row number")
	require.Len(t, sweet.Variants, 1)
	assert.Equal(t, "Un", sweet.Variants[0].Label)
}

func TestParseRows_HeaderOnly(t *testing.T) {
	assert.Empty(t, ParseRows([][]string{{"ID", "NomeProduto"}}, ""))
	assert.Empty(t, ParseRows(nil, ""))
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "12,50", want: "12.5", ok: true},
		{in: "12.50", want: "12.5", ok: true},
		{in: " R$ 1.234,56 ", want: "1234.56", ok: true},
		{in: "R$\u00a030,00", want: "30", ok: true},
		{in: "0", want: "0", ok: true},
		{in: "", ok: false},
		{in: "abc", ok: false},
		{in: "-1,00", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePrice(tt.in)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.True(t, decimal.RequireFromString(tt.want).Equal(got), got.String())
			}
		})
	}
}
