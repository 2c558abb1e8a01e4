package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"journal-reframer/internal/docx"
	"journal-reframer/internal/models"
	"journal-reframer/pkg/memo"

	"go.uber.org/zap"
)

const (
	journalFont     = "Times New Roman"
	journalBodySize = 24 // 12pt
	journalRed      = "FF0000"

	headerWidthPx  = 792
	headerHeightPx = 60

	labelWidthPct = 30
	valueWidthPct = 70

	infoCellMargin    = 72  // 0.05 inch
	contentCellMargin = 144 // 0.1 inch
)

type headerKey struct {
	path    string
	size    int64
	modTime time.Time
}

// JournalBuilder lays out the reflective journal .docx.
type JournalBuilder struct {
	headerPath string
	header     *memo.Last[headerKey, []byte]
	now        func() time.Time
	logger     *zap.Logger
}

func NewJournalBuilder(headerPath string, logger *zap.Logger) *JournalBuilder {
	return &JournalBuilder{
		headerPath: headerPath,
		header: memo.NewLast(func(k headerKey) ([]byte, error) {
			return os.ReadFile(k.path)
		}),
		now:    time.Now,
		logger: logger,
	}
}

// headerImage reloads the asset only when it changed on disk.
func (b *JournalBuilder) headerImage() ([]byte, error) {
	info, err := os.Stat(b.headerPath)
	if err == nil && info.IsDir() {
		err = fs.ErrNotExist
	}
	if err == nil {
		var data []byte
		data, err = b.header.Get(headerKey{path: b.headerPath, size: info.Size(), modTime: info.ModTime()})
		if err == nil {
			return data, nil
		}
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &HeaderImageError{Path: b.headerPath, Err: err}
	}
	return nil, fmt.Errorf("failed to read header image: %w", err)
}

func (b *JournalBuilder) Build(req *models.JournalRequest, content *models.RephrasedContent) (*models.GeneratedDocument, error) {
	image, err := b.headerImage()
	if err != nil {
		return nil, err
	}

	doc := &docx.Document{
		Properties: docx.Properties{
			Title:       req.AssessmentName,
			Creator:     "Journal Reframer",
			Description: "Reflective journal for " + req.SubjectName,
			Created:     b.now(),
		},
		Normal: docx.Style{
			Font:         journalFont,
			Size:         journalBodySize,
			Line:         276,
			SpacingAfter: 120,
			Align:        docx.AlignJustify,
		},
		Section: docx.Section{
			Margins: docx.Margins{
				Top:    docx.TwipsPerInch,
				Right:  docx.TwipsPerInch,
				Bottom: docx.TwipsPerInch,
				Left:   docx.TwipsPerInch,
			},
			Border: &docx.PageBorder{Style: "single", Size: 12, Color: "000000", Space: 24},
			HeaderImage: &docx.Image{
				Data:     image,
				WidthPx:  headerWidthPx,
				HeightPx: headerHeightPx,
				Align:    docx.AlignCenter,
			},
		},
	}

	title := docx.Text("Reflective Journal", docx.Run{Bold: true, Size: 28, Font: journalFont, Color: journalRed})
	title.Align = docx.AlignCenter
	title.Spacing = &docx.Spacing{Before: 720, After: 240}

	doc.Add(
		title,
		studentInfoTable(req),
		docx.Paragraph{Spacing: &docx.Spacing{Before: 480}},
		contentTable(content),
	)

	data, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}

	return &models.GeneratedDocument{
		Filename: journalFilename(req.FullName),
		Content:  data,
	}, nil
}

func bodyRun(text string) docx.Run {
	return docx.Run{Text: text, Font: journalFont, Size: journalBodySize}
}

func studentInfoTable(req *models.JournalRequest) docx.Table {
	rows := [][2]string{
		{"Student Name", req.FullName},
		{"Student Registration Number", req.RollNumber},
		{"Class & Section", req.ClassAndSection},
		{"Study Level", string(req.StudyLevel)},
		{"Year & Term", req.YearAndTerm},
		{"Subject Name", req.SubjectName},
		{"Name of Assessment", req.AssessmentName},
		{"Date of Submission", req.SubmissionDate.Format(submissionDateLayout)},
	}

	t := docx.Table{WidthPct: 100}
	for _, r := range rows {
		label := bodyRun(r[0])
		label.Bold = true
		t.Rows = append(t.Rows, docx.Row{Cells: []docx.Cell{
			{WidthPct: labelWidthPct, Margin: infoCellMargin, Paragraphs: []docx.Paragraph{{Runs: []docx.Run{label}}}},
			{WidthPct: valueWidthPct, Margin: infoCellMargin, Paragraphs: []docx.Paragraph{{Runs: []docx.Run{bodyRun(r[1])}}}},
		}})
	}
	return t
}

func contentTable(c *models.RephrasedContent) docx.Table {
	plain := func(s string) []docx.Paragraph {
		return []docx.Paragraph{{Runs: []docx.Run{bodyRun(s)}}}
	}
	bullets := make([]docx.Paragraph, 0, len(c.Application))
	for _, item := range c.Application {
		bullets = append(bullets, docx.Paragraph{Bullet: true, Runs: []docx.Run{bodyRun(item)}})
	}

	sections := []struct {
		label string
		body  []docx.Paragraph
	}{
		{"Topic", plain(c.Topic)},
		{"Experience", plain(c.Experience)},
		{"Feelings", plain(c.Feelings)},
		{"Learning", learningParagraphs(c.Learning)},
		{"Application", bullets},
		{"Conclusion", plain(c.Conclusion)},
	}

	t := docx.Table{WidthPct: 100}
	for _, s := range sections {
		label := bodyRun(s.label)
		label.Bold = true
		label.Color = journalRed
		t.Rows = append(t.Rows, docx.Row{Cells: []docx.Cell{
			{WidthPct: labelWidthPct, Margin: contentCellMargin, Paragraphs: []docx.Paragraph{{Runs: []docx.Run{label}}}},
			{WidthPct: valueWidthPct, Margin: contentCellMargin, Paragraphs: s.body},
		}})
	}
	return t
}

// learningParagraphs renders one paragraph per line; lines starting with "*"
// become level-0 bullets with the marker removed.
func learningParagraphs(text string) []docx.Paragraph {
	if text == "" {
		return []docx.Paragraph{{}}
	}
	lines := strings.Split(text, "\n")
	out := make([]docx.Paragraph, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "*") {
			out = append(out, docx.Paragraph{
				Bullet: true,
				Runs:   []docx.Run{bodyRun(strings.TrimSpace(trimmed[1:]))},
			})
			continue
		}
		out = append(out, docx.Paragraph{Runs: []docx.Run{bodyRun(line)}})
	}
	return out
}

func journalFilename(fullName string) string {
	return "Reflective_Journal_" + sanitizeFilename(fullName) + ".docx"
}

// sanitizeFilename replaces every character outside [A-Za-z0-9_] with "_",
// one per UTF-16 code unit, so characters beyond the BMP become "__".
func sanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r > 0xFFFF:
			b.WriteString("__")
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
