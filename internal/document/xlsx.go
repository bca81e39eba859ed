package document

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName       = "Document"
	// XLSXContentType is the media type of spreadsheet exports.
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var xlsxColumns = []string{"#", "SKU", "Product", "Quantity", "Unit Price", "GST %", "Total"}

// XLSX writes the same grouped lines as the PDF into a single sheet.
func (r *Renderer) XLSX(doc Document) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}

	set := func(col, row int, value any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheetName, cell, value)
	}
	style := func(row, id int) error {
		from, _ := excelize.CoordinatesToCellName(1, row)
		to, _ := excelize.CoordinatesToCellName(len(xlsxColumns), row)
		return f.SetCellStyle(sheetName, from, to, id)
	}

	header := [][2]string{
		{r.company.Name, ""},
		{string(doc.Kind), doc.Number},
		{"Date", doc.Date.Format("2006-01-02")},
		{"Customer", doc.Customer.Name},
	}
	if doc.Customer.Contact != nil {
		header = append(header, [2]string{"Contact", doc.Customer.Contact.Name})
	}
	row := 1
	for _, h := range header {
		if err := set(1, row, h[0]); err != nil {
			return nil, err
		}
		if err := set(2, row, h[1]); err != nil {
			return nil, err
		}
		row++
	}
	row++

	for i, title := range xlsxColumns {
		if err := set(i+1, row, title); err != nil {
			return nil, err
		}
	}
	if err := style(row, bold); err != nil {
		return nil, err
	}
	row++

	serial := 0
	for _, group := range GroupLines(doc.Lines) {
		if err := set(1, row, group.Label()); err != nil {
			return nil, err
		}
		if err := style(row, bold); err != nil {
			return nil, err
		}
		row++
		for _, line := range group.Lines {
			serial++
			values := []any{
				serial,
				line.SKU,
				line.Name,
				line.Quantity,
				line.CustomPrice.InexactFloat64(),
				line.GSTRate.InexactFloat64(),
				line.Total().InexactFloat64(),
			}
			for i, v := range values {
				if err := set(i+1, row, v); err != nil {
					return nil, err
				}
			}
			if err := f.SetCellStyle(sheetName, fmt.Sprintf("E%d", row), fmt.Sprintf("E%d", row), money); err != nil {
				return nil, err
			}
			if err := f.SetCellStyle(sheetName, fmt.Sprintf("G%d", row), fmt.Sprintf("G%d", row), money); err != nil {
				return nil, err
			}
			row++
		}
	}

	if doc.ShowTotal {
		totals := doc.Totals()
		row++
		for _, t := range []struct {
			label string
			value float64
		}{
			{"Subtotal", totals.Subtotal.InexactFloat64()},
			{"Tax " + r.format.Percent(doc.TaxRate), totals.Tax.InexactFloat64()},
			{"Total", totals.Total.InexactFloat64()},
		} {
			if err := set(6, row, t.label); err != nil {
				return nil, err
			}
			if err := set(7, row, t.value); err != nil {
				return nil, err
			}
			if err := f.SetCellStyle(sheetName, fmt.Sprintf("G%d", row), fmt.Sprintf("G%d", row), money); err != nil {
				return nil, err
			}
			row++
		}
	}

	if err := f.SetColWidth(sheetName, "C", "C", 40); err != nil {
		return nil, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
