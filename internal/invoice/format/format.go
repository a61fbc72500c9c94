// Package format renders monetary amounts for customer-facing text.
package format

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Amount renders a minor-unit amount with its ISO currency code, grouping
// digits for readability, e.g. Amount(150000, "IDR") == "IDR 150,000".
func Amount(minor int64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.IDR
	}
	p := message.NewPrinter(language.English)
	return p.Sprintf("%v %v", unit, number.Decimal(minor))
}
