package document

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter prints amounts with locale digit grouping.
type Formatter struct {
	printer *message.Printer
	symbol  string
}

func NewFormatter(tag language.Tag, symbol string) Formatter {
	return Formatter{printer: message.NewPrinter(tag), symbol: symbol}
}

// Money formats d to two places, e.g. "₹ 1,234.50".
func (f Formatter) Money(d decimal.Decimal) string {
	amount := f.printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
	if f.symbol == "" {
		return amount
	}
	return f.symbol + " " + amount
}

// Percent drops trailing zeros, e.g. "12.5%".
func (f Formatter) Percent(d decimal.Decimal) string {
	return d.String() + "%"
}
