package document

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"time"

	"golang.org/x/text/language"

	"github.com/gearhub/gearhub/internal/view"
)

// PDFConverter turns a self-contained HTML page into PDF bytes.
type PDFConverter interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

type Options struct {
	Company        Company
	Locale         language.Tag
	CurrencySymbol string
}

// Renderer lays out documents and hands the HTML to a PDF converter.
type Renderer struct {
	engine  *view.Engine
	pdf     PDFConverter
	images  *ImageLoader
	company Company
	format  Formatter
	logger  *slog.Logger
}

func NewRenderer(engine *view.Engine, pdf PDFConverter, images *ImageLoader, logger *slog.Logger, opts Options) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	locale := opts.Locale
	if locale == language.Und {
		locale = language.English
	}
	return &Renderer{
		engine:  engine,
		pdf:     pdf,
		images:  images,
		company: opts.Company,
		format:  NewFormatter(locale, opts.CurrencySymbol),
		logger:  logger,
	}
}

type pageData struct {
	Title      string
	Company    Company
	Logo       template.URL
	Doc        Document
	ValidUntil string
	Pages      []Page
}

// HTML renders the full paginated document as one HTML page set.
func (r *Renderer) HTML(ctx context.Context, doc Document) (string, error) {
	urls := []string{r.company.LogoURL}
	for _, line := range doc.Lines {
		if line.IsDetailed {
			urls = append(urls, line.ImageURL)
		}
	}
	images := r.images.Load(ctx, urls)

	data := pageData{
		Title:   fmt.Sprintf("%s %s", doc.Kind, doc.Number),
		Company: r.company,
		Logo:    images[r.company.LogoURL],
		Doc:     doc,
		Pages:   Paginate(r.Blocks(doc, images)),
	}
	if doc.ValidUntil != nil {
		data.ValidUntil = doc.ValidUntil.Format("02 Jan 2006")
	}
	html, err := r.engine.String("document", data)
	if err != nil {
		return "", fmt.Errorf("execute document template: %w", err)
	}
	return html, nil
}

// PDF renders doc through the converter.
func (r *Renderer) PDF(ctx context.Context, doc Document) ([]byte, error) {
	start := time.Now()
	html, err := r.HTML(ctx, doc)
	if err != nil {
		return nil, err
	}
	pdf, err := r.pdf.RenderHTML(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("convert %s %s: %w", doc.Kind, doc.Number, err)
	}
	r.logger.Info("document rendered",
		slog.String("kind", string(doc.Kind)),
		slog.String("number", doc.Number),
		slog.Int("bytes", len(pdf)),
		slog.Duration("took", time.Since(start)),
	)
	return pdf, nil
}

// Blocks turns doc into the stack of blocks Paginate lays out.
func (r *Renderer) Blocks(doc Document, images map[string]template.URL) []Block {
	var blocks []Block
	serial := 0
	for _, group := range GroupLines(doc.Lines) {
		blocks = append(blocks, Block{Kind: BlockGroup, Height: groupHeight, Title: group.Label()})
		for _, line := range group.Lines {
			serial++
			row := &Row{
				Serial:    serial,
				SKU:       line.SKU,
				Name:      line.Name,
				Detailed:  line.IsDetailed,
				Quantity:  line.Quantity,
				UnitPrice: r.format.Money(line.CustomPrice),
				GSTRate:   r.format.Percent(line.GSTRate),
				Total:     r.format.Money(line.Total()),
			}
			height := rowHeight
			if line.IsDetailed {
				if line.Description != "" {
					row.Description = WrapText(line.Description, detailWrapWidth)
				}
				row.Image = images[line.ImageURL]
				text := float64(len(row.Description)) * textLineHeight
				if row.Image != "" {
					text = math.Max(text, imageHeight)
				}
				height += text
			}
			blocks = append(blocks, Block{Kind: BlockLine, Height: height, Row: row})
		}
	}

	if doc.ShowTotal {
		totals := doc.Totals()
		blocks = append(blocks, Block{Kind: BlockTotals, Height: totalsHeight, Totals: &TotalsView{
			Subtotal: r.format.Money(totals.Subtotal),
			TaxRate:  r.format.Percent(doc.TaxRate),
			Tax:      r.format.Money(totals.Tax),
			Total:    r.format.Money(totals.Total),
		}})
	}

	terms := WrapText(doc.TermsText(), wrapWidth)
	blocks = append(blocks, Block{Kind: BlockTerms, Height: textHeight(terms), Title: "Terms & Conditions", Text: terms})

	if c := trimmed(doc.Comments); c != "" {
		comments := WrapText(c, wrapWidth)
		blocks = append(blocks, Block{Kind: BlockComments, Height: textHeight(comments), Title: "Comments", Text: comments})
	}
	return blocks
}
