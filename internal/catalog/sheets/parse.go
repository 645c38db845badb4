package sheets

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/cardapio/internal/domain/product"
)

// Column headers of the product sheet.
const (
	ColumnID          = "ID"
	ColumnName        = "NomeProduto"
	ColumnDescription = "Descrição"
	ColumnCategory    = "Categoria"
	ColumnImage       = "LinkFoto"
	ColumnChannel     = "NumeroWhatsApp"
)

// SizeSlots are the variant column suffixes, in display order. Slot X reads
// its label from "Tamanho_X" and its price from "Preço_X".
var SizeSlots = []string{"P", "M", "G"}

// DecodeValues extracts the "values" matrix from a Sheets values response.
// Numeric and boolean cells are kept in their JSON text form. Nested
// values become empty cells.
func DecodeValues(data []byte) ([][]string, error) {
	var rows [][]string
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "values" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			var row []string
			if err := d.Arr(func(d *jx.Decoder) error {
				cell, err := decodeCell(d)
				if err != nil {
					return err
				}
				row = append(row, cell)
				return nil
			}); err != nil {
				return err
			}
			rows = append(rows, row)
			return nil
		})
	}); err != nil {
		return nil, errors.Wrap(err, "decode values")
	}
	return rows, nil
}

func decodeCell(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return string(n), nil
	case jx.Bool:
		v, err := d.Bool()
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(v), nil
	case jx.Null:
		return "", d.Null()
	default:
		return "", d.Skip()
	}
}

// ParseRows maps a header row plus data rows to products. Rows that are
// empty or lack a name or category are skipped, as are variants whose
// label or price is missing or unparsable. Prices accept a comma decimal
// separator. Products without an ID get their sheet row number.
func ParseRows(rows [][]string, defaultChannel string) []product.Product {
	if len(rows) < 2 {
		return nil
	}
	header := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		header[strings.TrimSpace(h)] = i
	}
	cell := func(row []string, name string) string {
		i, ok := header[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	products := make([]product.Product, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		p := product.Product{
			ID:             cell(row, ColumnID),
			Name:           cell(row, ColumnName),
			Description:    cell(row, ColumnDescription),
			Category:       cell(row, ColumnCategory),
			ImageURL:       cell(row, ColumnImage),
			ContactChannel: cell(row, ColumnChannel),
		}
		if p.Name == "" || p.Category == "" {
			continue
		}
		if p.ID == "" {
			p.ID = strconv.Itoa(n + 2)
		}
		if p.ContactChannel == "" {
			p.ContactChannel = defaultChannel
		}
		for _, slot := range SizeSlots {
			label := cell(row, "Tamanho_"+slot)
			price, ok := ParsePrice(cell(row, "Preço_"+slot))
			if label == "" || !ok {
				continue
			}
			p.Variants = append(p.Variants, product.Variant{Label: label, Price: price})
		}
		products = append(products, p)
	}
	return products
}

// ParsePrice parses "12,50", "12.50" or "R$ 12,50". Negative prices are
// rejected.
func ParsePrice(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return decimal.Zero, false
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := decimal.NewFromString(s)
	if err != nil || v.IsNegative() {
		return decimal.Zero, false
	}
	return v, true
}
