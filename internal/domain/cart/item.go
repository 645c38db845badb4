// Package cart implements the cart engine: a deduplicated, ordered
// collection of line items mirrored into key-value storage.
package cart

import (
	"github.com/shopspring/decimal"
)

// ItemSeparator joins product id and variant label into an item id.
const ItemSeparator = "-"

// LineItem is one product+variant+quantity entry in the cart. Name, price
// and channel are snapshots taken when the item was first added.
type LineItem struct {
	ID             string
	ProductID      string
	ProductName    string
	VariantLabel   string
	UnitPrice      decimal.Decimal
	Quantity       int
	ContactChannel string
}

// ItemID derives the merge key for a product and variant label.
func ItemID(productID, variantLabel string) string {
	return productID + ItemSeparator + variantLabel
}

// LineTotal returns UnitPrice * Quantity.
func (i LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
