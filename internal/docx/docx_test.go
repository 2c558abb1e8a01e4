package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func readPart(t *testing.T, pkg []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg)))
	if err != nil {
		t.Fatalf("open package: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		return string(data)
	}
	t.Fatalf("part %s missing", name)
	return ""
}

func sampleDocument(t *testing.T) *Document {
	d := &Document{
		Properties: Properties{Title: "Lab 3", Creator: "Journal Reframer", Description: "Physics & more", Created: time.Unix(0, 0)},
		Normal:     Style{Font: "Times New Roman", Size: 24, Line: 276, SpacingAfter: 120, Align: AlignJustify},
		Section: Section{
			Margins:     Margins{Top: TwipsPerInch, Right: TwipsPerInch, Bottom: TwipsPerInch, Left: TwipsPerInch},
			Border:      &PageBorder{Style: "single", Size: 12, Color: "000000", Space: 24},
			HeaderImage: &Image{Data: pngBytes(t, 8, 2), WidthPx: 792, HeightPx: 60},
		},
	}
	title := Text("Reflective Journal", Run{Bold: true, Color: "FF0000", Size: 28})
	title.Align = AlignCenter
	title.Spacing = &Spacing{Before: 720, After: 240}
	d.Add(
		title,
		Table{WidthPct: 100, Rows: []Row{{Cells: []Cell{
			{WidthPct: 30, Margin: 72, Paragraphs: []Paragraph{Text("Student Name", Run{Bold: true})}},
			{WidthPct: 70, Margin: 72, Paragraphs: []Paragraph{Text("Ana <O'Brien>", Run{})}},
		}}}},
		Paragraph{Bullet: true, Runs: []Run{{Text: "first point"}}},
		Text("col1\tcol2", Run{}),
	)
	return d
}

func TestWriteThenExtract(t *testing.T) {
	pkg, err := sampleDocument(t).Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	text, err := ExtractText(pkg)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	for _, want := range []string{"Reflective Journal", "Student Name", "Ana <O'Brien>", "first point", "col1\tcol2"} {
		if !strings.Contains(text, want) {
			t.Errorf("extracted text missing %q:\n%s", want, text)
		}
	}
	if !strings.HasPrefix(text, "Reflective Journal\n\n") {
		t.Errorf("paragraphs not separated by blank line: %q", text)
	}
}

func TestWriteLayout(t *testing.T) {
	pkg, err := sampleDocument(t).Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	doc := readPart(t, pkg, "word/document.xml")
	for _, want := range []string{
		`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440"`,
		`<w:pgBorders w:offsetFrom="page"><w:top w:val="single" w:sz="12"`,
		`<w:headerReference w:type="default" r:id="rIdHeader1"/>`,
		`<w:tblW w:w="5000" w:type="pct"/>`,
		`<w:tcW w:w="1500" w:type="pct"/>`,
		`<w:top w:w="72" w:type="dxa"/>`,
		`<w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr>`,
		`<w:color w:val="FF0000"/><w:sz w:val="28"/>`,
		`<w:spacing w:before="720" w:after="240"/>`,
		`Ana &lt;O&#39;Brien&gt;`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document.xml missing %s", want)
		}
	}

	header := readPart(t, pkg, "word/header1.xml")
	if !strings.Contains(header, `<wp:extent cx="7543800" cy="571500"/>`) {
		t.Errorf("header image extent wrong: %s", header)
	}
	readPart(t, pkg, "word/media/image1.png")

	styles := readPart(t, pkg, "word/styles.xml")
	if !strings.Contains(styles, `w:ascii="Times New Roman"`) || !strings.Contains(styles, `w:line="276"`) {
		t.Errorf("normal style not applied: %s", styles)
	}

	core := readPart(t, pkg, "docProps/core.xml")
	if !strings.Contains(core, "<dc:description>Physics &amp; more</dc:description>") {
		t.Errorf("core props: %s", core)
	}
}

func TestWriteRejectsUnknownImage(t *testing.T) {
	d := &Document{Section: Section{HeaderImage: &Image{Data: []byte("not an image")}}}
	if _, err := d.Bytes(); !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("err = %v, want ErrUnsupportedImage", err)
	}
}

func TestExtractBlankDocument(t *testing.T) {
	pkg, err := (&Document{}).Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	text, err := ExtractText(pkg)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if strings.TrimSpace(text) != "" {
		t.Fatalf("blank document produced %q", text)
	}
}

func TestExtractErrors(t *testing.T) {
	if _, err := ExtractText(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("nil input: %v", err)
	}
	if _, err := ExtractText([]byte("plain text, not a zip")); !errors.Is(err, ErrNotArchive) {
		t.Errorf("non-zip input: %v", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("hello.txt")
	_, _ = w.Write([]byte("hi"))
	_ = zw.Close()
	if _, err := ExtractText(buf.Bytes()); !errors.Is(err, ErrNoMainPart) {
		t.Errorf("zip without document part: %v", err)
	}
}

func TestExtractSkipsFallbackAndTabStops(t *testing.T) {
	const body = `<?xml version="1.0"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
		`xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006"><w:body>` +
		`<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr><w:r><w:t>one</w:t><w:br/><w:t>two</w:t></w:r></w:p>` +
		`<w:p><w:r><mc:AlternateContent><mc:Choice><w:t>box</w:t></mc:Choice><mc:Fallback><w:t>box</w:t></mc:Fallback></mc:AlternateContent></w:r></w:p>` +
		`<w:p><w:r><w:delText>gone</w:delText></w:r></w:p>` +
		`</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("word/document.xml")
	_, _ = w.Write([]byte(body))
	_ = zw.Close()

	text, err := ExtractText(buf.Bytes())
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text != "one\ntwo\n\nbox" {
		t.Fatalf("text = %q", text)
	}
}
