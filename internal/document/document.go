// Package document renders quotations and orders as paginated PDFs and
// spreadsheets.
package document

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gearhub/gearhub/internal/sales/builder"
	"github.com/gearhub/gearhub/internal/sales/shared"
)

type Kind string

const (
	KindQuotation Kind = "Quotation"
	KindOrder     Kind = "Sales Order"
)

// DefaultTerms is printed when a document carries no terms of its own.
const DefaultTerms = `Prices are valid until the date shown above.
Goods once sold will not be taken back or exchanged.
Payment is due within 30 days of invoice unless agreed otherwise in writing.
Delivery timelines are estimates and subject to stock availability.
All disputes are subject to local jurisdiction only.`

// Company is the issuing business printed in every page header.
type Company struct {
	Name    string
	Address string
	Phone   string
	Email   string
	GSTIN   string
	LogoURL string
}

type Contact struct {
	Name        string
	Designation string
	Email       string
	Phone       string
}

// Party is the customer block of a document.
type Party struct {
	Name    string
	Code    string
	Email   string
	Phone   string
	Address string
	GSTIN   string
	Contact *Contact
}

// Document is everything needed to render one quotation or order.
type Document struct {
	Kind       Kind
	Number     string
	Date       time.Time
	ValidUntil *time.Time
	Status     string
	Customer   Party
	Lines      []builder.LineItem
	TaxRate    decimal.Decimal
	ShowTotal  bool
	Terms      string
	Comments   string
	UpdatedAt  time.Time
}

// Totals recomputes the roll-up from the lines so a rendered document never
// disagrees with its own rows.
func (d Document) Totals() shared.Totals {
	return shared.ComputeTotals(d.Lines, d.TaxRate)
}

// TermsText returns the document terms or DefaultTerms.
func (d Document) TermsText() string {
	if t := trimmed(d.Terms); t != "" {
		return t
	}
	return DefaultTerms
}

// Filename is the download name, e.g. QT-2410-0007.pdf.
func (d Document) Filename(ext string) string {
	name := d.Number
	if name == "" {
		name = "document"
	}
	return name + "." + ext
}
