// Package docx reads plain text out of WordprocessingML packages and writes
// the subset of WordprocessingML needed for styled report layouts: runs,
// paragraphs with bullets, percentage-width tables, a header image, page
// margins and page borders.
package docx

import "time"

// Units used throughout the package: twips (1/20 pt, 1440 per inch) for
// spacing, margins and page geometry; half-points for font sizes.
const (
	TwipsPerInch = 1440
	emuPerPixel  = 9525

	// A4, the page size Word and most generators default to.
	pageWidthTwips  = 11906
	pageHeightTwips = 16838
)

type Alignment string

const (
	AlignLeft    Alignment = "left"
	AlignCenter  Alignment = "center"
	AlignRight   Alignment = "right"
	AlignJustify Alignment = "both"
)

// Run is a span of text sharing one set of character properties. Zero values
// inherit from the paragraph style.
type Run struct {
	Text  string
	Bold  bool
	Color string // RRGGBB
	Size  int    // half-points
	Font  string
}

// Spacing sets paragraph spacing in twips.
type Spacing struct {
	Before int
	After  int
}

type Paragraph struct {
	Runs    []Run
	Align   Alignment
	Spacing *Spacing
	// Bullet renders the paragraph as an item of the shared bullet list at
	// Level (0-based).
	Bullet bool
	Level  int
}

type Cell struct {
	WidthPct   int
	Margin     int // twips, applied to all four sides
	Paragraphs []Paragraph
}

type Row struct {
	Cells []Cell
}

type Table struct {
	WidthPct int
	Rows     []Row
}

// Block is a body-level element: a Paragraph or a Table.
type Block interface {
	writeBlock(w *xmlBuilder, pageTextWidth int)
}

// Style configures the default paragraph style ("Normal").
type Style struct {
	Font         string
	Size         int // half-points
	Line         int // 240ths of a line; 276 is 1.15
	SpacingAfter int // twips
	Align        Alignment
}

type Margins struct {
	Top, Right, Bottom, Left int
}

// PageBorder draws the same line on all four page edges.
type PageBorder struct {
	Style string // ST_Border value, e.g. "single"
	Size  int    // eighths of a point
	Color string
	Space int // points
}

// Image is a raster picture placed inline; its size is given in pixels at
// 96 dpi the way layout tools express it.
type Image struct {
	Data     []byte
	WidthPx  int
	HeightPx int
	Align    Alignment
}

type Section struct {
	Margins     Margins
	Border      *PageBorder
	HeaderImage *Image
}

type Properties struct {
	Title       string
	Creator     string
	Description string
	Created     time.Time
}

type Document struct {
	Properties Properties
	Normal     Style
	Section    Section
	Body       []Block
}

// Add appends body blocks in order.
func (d *Document) Add(blocks ...Block) {
	d.Body = append(d.Body, blocks...)
}

// Text builds a paragraph holding a single run.
func Text(text string, run Run) Paragraph {
	run.Text = text
	return Paragraph{Runs: []Run{run}}
}
