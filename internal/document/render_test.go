package document

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"

	"github.com/gearhub/gearhub/internal/sales/builder"
	"github.com/gearhub/gearhub/internal/view"
)

// ============================================================================
// FIXTURES
// ============================================================================

type fakeConverter struct {
	html string
	err  error
}

func (f *fakeConverter) RenderHTML(_ context.Context, html string) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7 fake"), nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 800, 400))
	for x := 0; x < 800; x++ {
		img.Set(x, 10, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ball.png", "/logo.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(buf.Bytes())
		case "/broken.png":
			_, _ = w.Write([]byte("not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRenderer(t *testing.T, pdf PDFConverter, logoURL string) *Renderer {
	t.Helper()
	engine, err := view.NewEngine()
	require.NoError(t, err)
	return NewRenderer(engine, pdf, NewImageLoader(nil, quietLogger()), quietLogger(), Options{
		Company:        Company{Name: "GearHub Sports", Address: "12 Stadium Road", LogoURL: logoURL},
		Locale:         language.English,
		CurrencySymbol: "Rs.",
	})
}

func sampleDocument(imageURL string) Document {
	valid := time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC)
	return Document{
		Kind:       KindQuotation,
		Number:     "QT-2410-0007",
		Date:       time.Date(2024, 10, 3, 0, 0, 0, 0, time.UTC),
		ValidUntil: &valid,
		Customer: Party{
			Name:    "Ace Sports",
			Code:    "CUST-00001",
			Contact: &Contact{Name: "Ravi Kumar", Email: "ravi@ace.test"},
		},
		Lines: []builder.LineItem{
			{
				ProductID: 1, SKU: "BAT-1", Name: "English Willow Bat", Category: "Cricket", Brand: "SG",
				CustomPrice: decimal.RequireFromString("1100"), Quantity: 2, GSTRate: decimal.RequireFromString("12"),
			},
			{
				ProductID: 2, SKU: "BALL-5", Name: "Match Ball", Category: "Football", Brand: "Nivia",
				CustomPrice: decimal.RequireFromString("1700"), Quantity: 1, GSTRate: decimal.RequireFromString("18"),
				IsDetailed: true, Description: "FIFA quality hand stitched", ImageURL: imageURL,
			},
		},
		TaxRate:   decimal.RequireFromString("18"),
		ShowTotal: true,
		Comments:  "Delivery within a week",
	}
}

// ============================================================================
// FORMATTING
// ============================================================================

func TestFormatterMoney(t *testing.T) {
	f := NewFormatter(language.English, "Rs.")
	assert.Equal(t, "Rs. 1,234,567.50", f.Money(decimal.RequireFromString("1234567.5")))
	assert.Equal(t, "0.00", NewFormatter(language.English, "").Money(decimal.Zero))
	assert.Equal(t, "12.5%", f.Percent(decimal.RequireFromString("12.50")))
}

// ============================================================================
// HTML / PDF
// ============================================================================

func TestRendererHTML(t *testing.T) {
	srv := imageServer(t)
	r := newTestRenderer(t, &fakeConverter{}, srv.URL+"/logo.png")

	html, err := r.HTML(context.Background(), sampleDocument(srv.URL+"/ball.png"))
	require.NoError(t, err)

	assert.Contains(t, html, "QT-2410-0007")
	assert.Contains(t, html, "Ravi Kumar")
	assert.Contains(t, html, "Cricket › SG")
	assert.Contains(t, html, "Rs. 2,200.00")
	assert.Contains(t, html, "FIFA quality hand stitched")
	assert.Contains(t, html, "Page 1 of 1")
	assert.Contains(t, html, "Terms &amp; Conditions")
	assert.Contains(t, html, "Delivery within a week")
	// logo plus the detailed line image
	assert.Equal(t, 2, strings.Count(html, "data:image/jpeg;base64,"))
	// total = 3900 + 18%
	assert.Contains(t, html, "Rs. 4,602.00")
}

func TestRendererHTML_HidesTotalsAndUsesDefaultTerms(t *testing.T) {
	r := newTestRenderer(t, &fakeConverter{}, "")
	doc := sampleDocument("")
	doc.ShowTotal = false
	doc.Comments = ""

	html, err := r.HTML(context.Background(), doc)
	require.NoError(t, err)
	assert.NotContains(t, html, "Subtotal")
	assert.NotContains(t, html, "Comments")
	assert.Contains(t, html, "Goods once sold will not be taken back")
}

func TestRendererHTML_ImageFailuresAreSkipped(t *testing.T) {
	srv := imageServer(t)
	r := newTestRenderer(t, &fakeConverter{}, srv.URL+"/missing.png")

	html, err := r.HTML(context.Background(), sampleDocument(srv.URL+"/broken.png"))
	require.NoError(t, err)
	assert.NotContains(t, html, "data:image/jpeg")
	assert.Contains(t, html, "Match Ball")
}

func TestRendererPDF(t *testing.T) {
	conv := &fakeConverter{}
	r := newTestRenderer(t, conv, "")

	pdf, err := r.PDF(context.Background(), sampleDocument(""))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.Contains(t, conv.html, "<!DOCTYPE html>")

	conv.err = errors.New("gotenberg down")
	_, err = r.PDF(context.Background(), sampleDocument(""))
	assert.ErrorContains(t, err, "gotenberg down")
}

func TestBlocks_DetailedLineIsTaller(t *testing.T) {
	r := newTestRenderer(t, &fakeConverter{}, "")
	blocks := r.Blocks(sampleDocument(""), nil)

	var lines []Block
	for _, b := range blocks {
		if b.Kind == BlockLine {
			lines = append(lines, b)
		}
	}
	require.Len(t, lines, 2)
	assert.Equal(t, rowHeight, lines[0].Height)
	assert.Greater(t, lines[1].Height, rowHeight)
	assert.Equal(t, 1, lines[0].Row.Serial)
	assert.Equal(t, 2, lines[1].Row.Serial)
}

// ============================================================================
// SPREADSHEET
// ============================================================================

func TestRendererXLSX(t *testing.T) {
	r := newTestRenderer(t, &fakeConverter{}, "")
	data, err := r.XLSX(sampleDocument(""))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)

	var flat []string
	for _, row := range rows {
		flat = append(flat, strings.Join(row, "|"))
	}
	joined := strings.Join(flat, "\n")
	assert.Contains(t, joined, "QT-2410-0007")
	assert.Contains(t, joined, "Cricket › SG")
	assert.Contains(t, joined, "English Willow Bat")
	assert.Contains(t, joined, "Total")
}
