package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strconv"
	"strings"
	"time"
)

var ErrUnsupportedImage = errors.New("docx: unsupported header image format")

const (
	nsMain    = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsRel     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPkgRel  = "http://schemas.openxmlformats.org/package/2006/relationships"
	relOffice = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"

	mainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	xmlHeader       = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
)

type xmlBuilder struct {
	strings.Builder
}

func (b *xmlBuilder) raw(parts ...string) {
	for _, p := range parts {
		b.WriteString(p)
	}
}

// text writes s as escaped character data.
func (b *xmlBuilder) text(s string) {
	_ = xml.EscapeText(b, []byte(s))
}

// attr writes ` name="value"` with value escaped.
func (b *xmlBuilder) attr(name, value string) {
	b.raw(" ", name, `="`)
	b.text(value)
	b.WriteByte('"')
}

func (b *xmlBuilder) val(tag, value string) {
	b.raw("<", tag)
	b.attr("w:val", value)
	b.raw("/>")
}

func itoa(n int) string { return strconv.Itoa(n) }

func (r Run) write(b *xmlBuilder) {
	b.raw("<w:r>")
	if r.Font != "" || r.Bold || r.Color != "" || r.Size > 0 {
		b.raw("<w:rPr>")
		if r.Font != "" {
			b.raw("<w:rFonts")
			b.attr("w:ascii", r.Font)
			b.attr("w:hAnsi", r.Font)
			b.attr("w:cs", r.Font)
			b.raw("/>")
		}
		if r.Bold {
			b.raw("<w:b/><w:bCs/>")
		}
		if r.Color != "" {
			b.val("w:color", r.Color)
		}
		if r.Size > 0 {
			b.val("w:sz", itoa(r.Size))
			b.val("w:szCs", itoa(r.Size))
		}
		b.raw("</w:rPr>")
	}
	lines := strings.Split(r.Text, "\n")
	for i, line := range lines {
		if i > 0 {
			b.raw("<w:br/>")
		}
		for j, chunk := range strings.Split(line, "\t") {
			if j > 0 {
				b.raw("<w:tab/>")
			}
			if chunk == "" {
				continue
			}
			b.raw(`<w:t xml:space="preserve">`)
			b.text(chunk)
			b.raw("</w:t>")
		}
	}
	b.raw("</w:r>")
}

func (p Paragraph) write(b *xmlBuilder) {
	b.raw("<w:p>")
	if p.Bullet || p.Spacing != nil || p.Align != "" {
		b.raw("<w:pPr>")
		if p.Bullet {
			b.val("w:pStyle", "ListParagraph")
			b.raw("<w:numPr>")
			b.val("w:ilvl", itoa(p.Level))
			b.val("w:numId", "1")
			b.raw("</w:numPr>")
		}
		if p.Spacing != nil {
			b.raw("<w:spacing")
			b.attr("w:before", itoa(p.Spacing.Before))
			b.attr("w:after", itoa(p.Spacing.After))
			b.raw("/>")
		}
		if p.Align != "" {
			b.val("w:jc", string(p.Align))
		}
		b.raw("</w:pPr>")
	}
	for _, r := range p.Runs {
		r.write(b)
	}
	b.raw("</w:p>")
}

func (p Paragraph) writeBlock(b *xmlBuilder, _ int) { p.write(b) }

func (t Table) writeBlock(b *xmlBuilder, pageTextWidth int) {
	width := t.WidthPct
	if width <= 0 {
		width = 100
	}
	b.raw("<w:tbl><w:tblPr>")
	b.val("w:tblStyle", "TableGrid")
	b.raw(`<w:tblW w:w="`, itoa(width*50), `" w:type="pct"/>`)
	b.raw(`<w:tblLayout w:type="fixed"/>`)
	b.raw("</w:tblPr><w:tblGrid>")
	if len(t.Rows) > 0 {
		tableTwips := pageTextWidth * width / 100
		for _, c := range t.Rows[0].Cells {
			b.raw(`<w:gridCol w:w="`, itoa(tableTwips*c.WidthPct/100), `"/>`)
		}
	}
	b.raw("</w:tblGrid>")
	for _, row := range t.Rows {
		b.raw("<w:tr>")
		for _, c := range row.Cells {
			c.write(b)
		}
		b.raw("</w:tr>")
	}
	b.raw("</w:tbl>")
}

func (c Cell) write(b *xmlBuilder) {
	b.raw("<w:tc><w:tcPr>")
	b.raw(`<w:tcW w:w="`, itoa(c.WidthPct*50), `" w:type="pct"/>`)
	if c.Margin > 0 {
		m := itoa(c.Margin)
		b.raw("<w:tcMar>")
		for _, side := range []string{"top", "left", "bottom", "right"} {
			b.raw(`<w:`, side, ` w:w="`, m, `" w:type="dxa"/>`)
		}
		b.raw("</w:tcMar>")
	}
	b.raw("</w:tcPr>")
	// A cell must end in a paragraph.
	if len(c.Paragraphs) == 0 {
		b.raw("<w:p/>")
	}
	for _, p := range c.Paragraphs {
		p.write(b)
	}
	b.raw("</w:tc>")
}

type part struct {
	name string
	data []byte
}

// Bytes renders the document as a .docx package.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders the document as a .docx package into w.
func (d *Document) Write(w io.Writer) error {
	var imageExt string
	if img := d.Section.HeaderImage; img != nil {
		_, format, err := image.DecodeConfig(bytes.NewReader(img.Data))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
		}
		imageExt = format
		if imageExt == "jpeg" {
			imageExt = "jpg"
		}
	}

	parts := []part{
		{"[Content_Types].xml", d.contentTypes(imageExt)},
		{"_rels/.rels", packageRels()},
		{"docProps/core.xml", d.coreProps()},
		{"docProps/app.xml", d.appProps()},
		{"word/document.xml", d.documentXML()},
		{"word/styles.xml", d.stylesXML()},
		{"word/numbering.xml", []byte(numberingXML)},
		{"word/settings.xml", []byte(settingsXML)},
		{"word/_rels/document.xml.rels", d.documentRels()},
	}
	if imageExt != "" {
		parts = append(parts,
			part{"word/header1.xml", d.headerXML(imageExt)},
			part{"word/_rels/header1.xml.rels", headerRels(imageExt)},
			part{"word/media/image1." + imageExt, d.Section.HeaderImage.Data},
		)
	}

	zw := zip.NewWriter(w)
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("docx: create %s: %w", p.name, err)
		}
		if _, err := f.Write(p.data); err != nil {
			return fmt.Errorf("docx: write %s: %w", p.name, err)
		}
	}
	return zw.Close()
}

func (d *Document) pageTextWidth() int {
	return pageWidthTwips - d.Section.Margins.Left - d.Section.Margins.Right
}

func (d *Document) documentXML() []byte {
	var b xmlBuilder
	b.raw(xmlHeader, `<w:document xmlns:w="`, nsMain, `" xmlns:r="`, nsRel, `"><w:body>`)
	width := d.pageTextWidth()
	for _, blk := range d.Body {
		blk.writeBlock(&b, width)
	}
	// Word expects the body to close with a paragraph.
	if n := len(d.Body); n == 0 {
		b.raw("<w:p/>")
	} else if _, ok := d.Body[n-1].(Table); ok {
		b.raw("<w:p/>")
	}

	m := d.Section.Margins
	b.raw("<w:sectPr>")
	if d.Section.HeaderImage != nil {
		b.raw(`<w:headerReference w:type="default" r:id="rIdHeader1"/>`)
	}
	b.raw(`<w:pgSz w:w="`, itoa(pageWidthTwips), `" w:h="`, itoa(pageHeightTwips), `"/>`)
	b.raw(`<w:pgMar w:top="`, itoa(m.Top), `" w:right="`, itoa(m.Right), `" w:bottom="`, itoa(m.Bottom),
		`" w:left="`, itoa(m.Left), `" w:header="708" w:footer="708" w:gutter="0"/>`)
	if pb := d.Section.Border; pb != nil {
		b.raw(`<w:pgBorders w:offsetFrom="page">`)
		for _, side := range []string{"top", "left", "bottom", "right"} {
			b.raw("<w:", side)
			b.attr("w:val", pb.Style)
			b.attr("w:sz", itoa(pb.Size))
			b.attr("w:space", itoa(pb.Space))
			b.attr("w:color", pb.Color)
			b.raw("/>")
		}
		b.raw("</w:pgBorders>")
	}
	b.raw("</w:sectPr></w:body></w:document>")
	return []byte(b.String())
}

func (d *Document) stylesXML() []byte {
	s := d.Normal
	var rPr, pPr xmlBuilder
	if s.Font != "" {
		rPr.raw("<w:rFonts")
		rPr.attr("w:ascii", s.Font)
		rPr.attr("w:hAnsi", s.Font)
		rPr.attr("w:eastAsia", s.Font)
		rPr.attr("w:cs", s.Font)
		rPr.raw("/>")
	}
	if s.Size > 0 {
		rPr.val("w:sz", itoa(s.Size))
		rPr.val("w:szCs", itoa(s.Size))
	}
	if s.Line > 0 || s.SpacingAfter > 0 {
		pPr.raw("<w:spacing")
		pPr.attr("w:after", itoa(s.SpacingAfter))
		if s.Line > 0 {
			pPr.attr("w:line", itoa(s.Line))
			pPr.attr("w:lineRule", "auto")
		}
		pPr.raw("/>")
	}
	if s.Align != "" {
		pPr.val("w:jc", string(s.Align))
	}

	var b xmlBuilder
	b.raw(xmlHeader, `<w:styles xmlns:w="`, nsMain, `">`)
	b.raw("<w:docDefaults><w:rPrDefault><w:rPr>", rPr.String(), "</w:rPr></w:rPrDefault>")
	b.raw("<w:pPrDefault><w:pPr>", pPr.String(), "</w:pPr></w:pPrDefault></w:docDefaults>")
	b.raw(`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/>`)
	b.raw("<w:pPr>", pPr.String(), "</w:pPr><w:rPr>", rPr.String(), "</w:rPr></w:style>")
	b.raw(`<w:style w:type="paragraph" w:styleId="ListParagraph"><w:name w:val="List Paragraph"/>`,
		`<w:basedOn w:val="Normal"/><w:qFormat/><w:pPr><w:ind w:left="720"/></w:pPr></w:style>`)
	b.raw(`<w:style w:type="table" w:default="1" w:styleId="TableGrid"><w:name w:val="Table Grid"/><w:tblPr><w:tblBorders>`)
	for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		b.raw(`<w:`, side, ` w:val="single" w:sz="4" w:space="0" w:color="auto"/>`)
	}
	b.raw("</w:tblBorders></w:tblPr></w:style></w:styles>")
	return []byte(b.String())
}

func (d *Document) headerXML(ext string) []byte {
	img := d.Section.HeaderImage
	cx, cy := itoa(img.WidthPx*emuPerPixel), itoa(img.HeightPx*emuPerPixel)
	align := img.Align
	if align == "" {
		align = AlignCenter
	}

	var b xmlBuilder
	b.raw(xmlHeader, `<w:hdr xmlns:w="`, nsMain, `" xmlns:r="`, nsRel, `"`,
		` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"`,
		` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"`,
		` xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">`)
	b.raw("<w:p><w:pPr>")
	b.val("w:jc", string(align))
	b.raw("</w:pPr><w:r><w:drawing>")
	b.raw(`<wp:inline distT="0" distB="0" distL="0" distR="0">`)
	b.raw(`<wp:extent cx="`, cx, `" cy="`, cy, `"/>`)
	b.raw(`<wp:effectExtent l="0" t="0" r="0" b="0"/>`)
	b.raw(`<wp:docPr id="1" name="Header Image"/>`)
	b.raw(`<wp:cNvGraphicFramePr><a:graphicFrameLocks noChangeAspect="1"/></wp:cNvGraphicFramePr>`)
	b.raw(`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture"><pic:pic>`)
	b.raw(`<pic:nvPicPr><pic:cNvPr id="1" name="image1.`, ext, `"/><pic:cNvPicPr/></pic:nvPicPr>`)
	b.raw(`<pic:blipFill><a:blip r:embed="rIdImage1"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`)
	b.raw(`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="`, cx, `" cy="`, cy, `"/></a:xfrm>`)
	b.raw(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`)
	b.raw(`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r></w:p></w:hdr>`)
	return []byte(b.String())
}

func (d *Document) contentTypes(imageExt string) []byte {
	var b xmlBuilder
	b.raw(xmlHeader, `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.raw(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.raw(`<Default Extension="xml" ContentType="application/xml"/>`)
	if imageExt != "" {
		mime := "image/" + imageExt
		if imageExt == "jpg" {
			mime = "image/jpeg"
		}
		b.raw(`<Default Extension="`, imageExt, `" ContentType="`, mime, `"/>`)
	}
	override := func(name, ct string) {
		b.raw(`<Override PartName="`, name, `" ContentType="`, ct, `"/>`)
	}
	override("/word/document.xml", mainContentType)
	override("/word/styles.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml")
	override("/word/numbering.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml")
	override("/word/settings.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml")
	if imageExt != "" {
		override("/word/header1.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml")
	}
	override("/docProps/core.xml", "application/vnd.openxmlformats-package.core-properties+xml")
	override("/docProps/app.xml", "application/vnd.openxmlformats-officedocument.extended-properties+xml")
	b.raw("</Types>")
	return []byte(b.String())
}

func relationships(rels ...[3]string) []byte {
	var b xmlBuilder
	b.raw(xmlHeader, `<Relationships xmlns="`, nsPkgRel, `">`)
	for _, r := range rels {
		b.raw(`<Relationship Id="`, r[0], `" Type="`, r[1], `" Target="`, r[2], `"/>`)
	}
	b.raw("</Relationships>")
	return []byte(b.String())
}

func packageRels() []byte {
	return relationships(
		[3]string{"rId1", relOffice + "officeDocument", "word/document.xml"},
		[3]string{"rId2", "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties", "docProps/core.xml"},
		[3]string{"rId3", relOffice + "extended-properties", "docProps/app.xml"},
	)
}

func (d *Document) documentRels() []byte {
	rels := [][3]string{
		{"rId1", relOffice + "styles", "styles.xml"},
		{"rId2", relOffice + "numbering", "numbering.xml"},
		{"rId3", relOffice + "settings", "settings.xml"},
	}
	if d.Section.HeaderImage != nil {
		rels = append(rels, [3]string{"rIdHeader1", relOffice + "header", "header1.xml"})
	}
	return relationships(rels...)
}

func headerRels(ext string) []byte {
	return relationships([3]string{"rIdImage1", relOffice + "image", "media/image1." + ext})
}

func (d *Document) coreProps() []byte {
	p := d.Properties
	var b xmlBuilder
	b.raw(xmlHeader, `<cp:coreProperties`,
		` xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"`,
		` xmlns:dc="http://purl.org/dc/elements/1.1/"`,
		` xmlns:dcterms="http://purl.org/dc/terms/"`,
		` xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	b.raw("<dc:title>")
	b.text(p.Title)
	b.raw("</dc:title><dc:creator>")
	b.text(p.Creator)
	b.raw("</dc:creator><dc:description>")
	b.text(p.Description)
	b.raw("</dc:description>")
	if !p.Created.IsZero() {
		ts := p.Created.UTC().Format(time.RFC3339)
		b.raw(`<dcterms:created xsi:type="dcterms:W3CDTF">`, ts, `</dcterms:created>`)
		b.raw(`<dcterms:modified xsi:type="dcterms:W3CDTF">`, ts, `</dcterms:modified>`)
	}
	b.raw("</cp:coreProperties>")
	return []byte(b.String())
}

func (d *Document) appProps() []byte {
	var b xmlBuilder
	b.raw(xmlHeader, `<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">`)
	b.raw("<Application>")
	b.text(d.Properties.Creator)
	b.raw("</Application></Properties>")
	return []byte(b.String())
}

const numberingXML = xmlHeader + `<w:numbering xmlns:w="` + nsMain + `">` +
	`<w:abstractNum w:abstractNumId="0"><w:multiLevelType w:val="hybridMultilevel"/>` +
	`<w:lvl w:ilvl="0"><w:start w:val="1"/><w:numFmt w:val="bullet"/><w:lvlText w:val="●"/><w:lvlJc w:val="left"/><w:pPr><w:ind w:left="720" w:hanging="360"/></w:pPr></w:lvl>` +
	`<w:lvl w:ilvl="1"><w:start w:val="1"/><w:numFmt w:val="bullet"/><w:lvlText w:val="○"/><w:lvlJc w:val="left"/><w:pPr><w:ind w:left="1440" w:hanging="360"/></w:pPr></w:lvl>` +
	`<w:lvl w:ilvl="2"><w:start w:val="1"/><w:numFmt w:val="bullet"/><w:lvlText w:val="■"/><w:lvlJc w:val="left"/><w:pPr><w:ind w:left="2160" w:hanging="360"/></w:pPr></w:lvl>` +
	`</w:abstractNum><w:num w:numId="1"><w:abstractNumId w:val="0"/></w:num></w:numbering>`

const settingsXML = xmlHeader + `<w:settings xmlns:w="` + nsMain + `"><w:defaultTabStop w:val="720"/>` +
	`<w:compat><w:compatSetting w:name="compatibilityMode" w:uri="http://schemas.microsoft.com/office/word" w:val="15"/></w:compat>` +
	`</w:settings>`
