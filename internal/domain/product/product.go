package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// CategoryAll selects every product regardless of category.
const CategoryAll = "all"

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrVariantNotFound is returned when a product has no variant with the
	// requested label.
	ErrVariantNotFound = errors.New("variant not found")
)

// Product represents a menu entry with one or more priced variants.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	ImageURL    string
	Variants    []Variant
	// ContactChannel routes orders for this product. Empty means the
	// process-wide default channel applies.
	ContactChannel string
}

// Variant is a selectable size or option with its own price.
type Variant struct {
	Label string
	Price decimal.Decimal
}

// Variant returns the variant with the given label.
func (p *Product) Variant(label string) (Variant, error) {
	for _, v := range p.Variants {
		if v.Label == label {
			return v, nil
		}
	}
	return Variant{}, ErrVariantNotFound
}

// MinPrice returns the cheapest variant price, or zero for a product
// without variants.
func (p *Product) MinPrice() decimal.Decimal {
	if len(p.Variants) == 0 {
		return decimal.Zero
	}
	lowest := p.Variants[0].Price
	for _, v := range p.Variants[1:] {
		if v.Price.LessThan(lowest) {
			lowest = v.Price
		}
	}
	return lowest
}

// Catalog defines read operations over the menu.
type Catalog interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	ListByCategory(ctx context.Context, category string) ([]Product, error)
	Categories(ctx context.Context) ([]string, error)
}
