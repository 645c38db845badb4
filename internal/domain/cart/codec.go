package cart

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Field names of the persisted layout.
const (
	fieldItemID    = "itemId"
	fieldProductID = "productId"
	fieldName      = "productName"
	fieldSize      = "size"
	fieldPrice     = "price"
	fieldQuantity  = "quantity"
	fieldChannel   = "whatsappNumber"
)

// MarshalItems encodes items as the persisted JSON array. Prices are
// written as JSON numbers.
func MarshalItems(items []LineItem) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart(fieldItemID)
		e.Str(it.ID)
		e.FieldStart(fieldProductID)
		e.Str(it.ProductID)
		e.FieldStart(fieldName)
		e.Str(it.ProductName)
		e.FieldStart(fieldSize)
		e.Str(it.VariantLabel)
		e.FieldStart(fieldPrice)
		e.Num(jx.Num(it.UnitPrice.String()))
		e.FieldStart(fieldQuantity)
		e.Int(it.Quantity)
		e.FieldStart(fieldChannel)
		e.Str(it.ContactChannel)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

// UnmarshalItems decodes the persisted JSON array. Unknown fields are
// skipped. Prices may be numbers or numeric strings (comma or dot decimal).
func UnmarshalItems(data []byte) ([]LineItem, error) {
	d := jx.DecodeBytes(data)
	items := make([]LineItem, 0)
	if err := d.Arr(func(d *jx.Decoder) error {
		it, err := decodeItem(d)
		if err != nil {
			return err
		}
		items = append(items, it)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode cart items")
	}
	return items, nil
}

func decodeItem(d *jx.Decoder) (LineItem, error) {
	var it LineItem
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case fieldItemID:
			it.ID, err = d.Str()
		case fieldProductID:
			it.ProductID, err = decodeID(d)
		case fieldName:
			it.ProductName, err = d.Str()
		case fieldSize:
			it.VariantLabel, err = d.Str()
		case fieldPrice:
			it.UnitPrice, err = decodePrice(d)
		case fieldQuantity:
			it.Quantity, err = d.Int()
		case fieldChannel:
			it.ContactChannel, err = decodeID(d)
		default:
			err = d.Skip()
		}
		return errors.Wrapf(err, "field %q", key)
	})
	return it, err
}

// decodeID accepts strings and bare numbers, since spreadsheet ids and
// phone numbers are often stored as numbers.
func decodeID(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return string(n), nil
	case jx.Null:
		return "", d.Null()
	default:
		return d.Str()
	}
}

func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(string(n))
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(strings.Replace(strings.TrimSpace(s), ",", ".", 1))
	default:
		return decimal.Zero, errors.Errorf("unexpected %v for price", d.Next())
	}
}
