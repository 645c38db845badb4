// Package money formats decimal amounts with a fixed currency locale.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Formatter renders amounts as "<symbol><space><grouped integer><sep><cents>".
// The zero value is not usable; use New or BRL.
type Formatter struct {
	Symbol    string
	Space     string
	Decimal   string
	Thousands string
}

// NoBreakSpace separates the symbol from the amount in pt-BR currency
// formatting.
const NoBreakSpace = "\u00a0"

// BRL returns the pt-BR Brazilian real formatter ("R$ 1.234,56" with a
// no-break space).
func BRL() Formatter {
	return Formatter{Symbol: "R$", Space: NoBreakSpace, Decimal: ",", Thousands: "."}
}

// New returns a Formatter, falling back to BRL for empty fields.
func New(symbol, decimalSep, thousandsSep string) Formatter {
	f := BRL()
	if symbol != "" {
		f.Symbol = symbol
	}
	if decimalSep != "" {
		f.Decimal = decimalSep
	}
	if thousandsSep != "" {
		f.Thousands = thousandsSep
	}
	return f
}

// Format renders v rounded half away from zero to two decimal places.
func (f Formatter) Format(v decimal.Decimal) string {
	fixed := v.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if v.Round(2).IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString(f.Symbol)
	b.WriteString(f.Space)
	b.WriteString(group(intPart, f.Thousands))
	b.WriteString(f.Decimal)
	b.WriteString(frac)
	return b.String()
}

// group inserts sep every three digits from the right.
func group(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
