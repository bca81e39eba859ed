package document

import (
	"html/template"
	"strings"
	"unicode/utf8"

	"github.com/gearhub/gearhub/internal/sales/builder"
)

// Layout constants are in millimetres of printable A4 height.
const (
	pageThreshold   = 235.0
	firstPageHeader = 62.0
	textLineHeight  = 4.5
	rowHeight       = 8.0
	groupHeight     = 9.0
	imageHeight     = 32.0
	totalsHeight    = 30.0
	sectionPadding  = 8.0
	wrapWidth       = 95
	detailWrapWidth = 70
)

type BlockKind string

const (
	BlockGroup    BlockKind = "group"
	BlockLine     BlockKind = "line"
	BlockTotals   BlockKind = "totals"
	BlockTerms    BlockKind = "terms"
	BlockComments BlockKind = "comments"
)

// Group is a run of lines sharing category, sub-category and brand.
type Group struct {
	Category    string
	SubCategory string
	Brand       string
	Lines       []builder.LineItem
}

// Label joins the non-empty parts with ›.
func (g Group) Label() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{g.Category, g.SubCategory, g.Brand} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "Other"
	}
	return strings.Join(parts, " › ")
}

// GroupLines buckets lines by category › sub-category › brand. Groups and
// the lines inside them keep first-seen order.
func GroupLines(lines []builder.LineItem) []Group {
	var groups []Group
	index := make(map[[3]string]int)
	for _, line := range lines {
		key := [3]string{line.Category, line.SubCategory, line.Brand}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Category: line.Category, SubCategory: line.SubCategory, Brand: line.Brand})
		}
		groups[i].Lines = append(groups[i].Lines, line)
	}
	return groups
}

// Row is a rendered line with its amounts already formatted.
type Row struct {
	Serial      int
	SKU         string
	Name        string
	Detailed    bool
	Description []string
	Image       template.URL
	Quantity    int
	UnitPrice   string
	GSTRate     string
	Total       string
}

type TotalsView struct {
	Subtotal string
	TaxRate  string
	Tax      string
	Discount string
	Total    string
}

// Block is one vertically stacked unit of a page.
type Block struct {
	Kind   BlockKind
	Height float64
	Title  string
	Row    *Row
	Text   []string
	Totals *TotalsView
}

type Page struct {
	Number int
	Count  int
	First  bool
	Last   bool
	Blocks []Block
}

// Paginate stacks blocks onto pages with a running cursor. A block that would
// cross the threshold starts a new page; a block taller than a whole page
// still gets a page of its own.
func Paginate(blocks []Block) []Page {
	pages := []Page{{Number: 1, First: true}}
	cursor := firstPageHeader
	for _, b := range blocks {
		current := &pages[len(pages)-1]
		if cursor+b.Height > pageThreshold && len(current.Blocks) > 0 {
			pages = append(pages, Page{Number: len(pages) + 1})
			current = &pages[len(pages)-1]
			cursor = 0
		}
		current.Blocks = append(current.Blocks, b)
		cursor += b.Height
	}
	for i := range pages {
		pages[i].Count = len(pages)
	}
	pages[len(pages)-1].Last = true
	return pages
}

// WrapText splits text into lines of at most width runes, breaking on spaces
// where possible. Existing newlines are kept.
func WrapText(text string, width int) []string {
	if width <= 0 {
		width = wrapWidth
	}
	var out []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		var line strings.Builder
		for _, word := range words {
			for utf8.RuneCountInString(word) > width {
				if line.Len() > 0 {
					out = append(out, line.String())
					line.Reset()
				}
				runes := []rune(word)
				out = append(out, string(runes[:width]))
				word = string(runes[width:])
			}
			if line.Len() > 0 && utf8.RuneCountInString(line.String())+1+utf8.RuneCountInString(word) > width {
				out = append(out, line.String())
				line.Reset()
			}
			if line.Len() > 0 {
				line.WriteByte(' ')
			}
			line.WriteString(word)
		}
		if line.Len() > 0 {
			out = append(out, line.String())
		}
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

func textHeight(lines []string) float64 {
	return sectionPadding + float64(len(lines))*textLineHeight
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
