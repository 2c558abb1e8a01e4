package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrEmpty      = errors.New("docx: empty input")
	ErrNotArchive = errors.New("docx: not a zip archive")
	ErrNoMainPart = errors.New("docx: main document part not found")
)

const (
	contentTypesPart = "[Content_Types].xml"
	defaultMainPart  = "word/document.xml"

	// Cap on the decompressed main part to keep zip bombs out.
	maxMainPartBytes = 64 << 20
)

type contentTypes struct {
	Overrides []struct {
		PartName    string `xml:"PartName,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Override"`
}

// ExtractText returns the raw text of a .docx package. Paragraphs are
// separated by a blank line, tabs and breaks are kept as \t and \n, and
// formatting is discarded.
func ExtractText(content []byte) (string, error) {
	if len(content) == 0 {
		return "", ErrEmpty
	}
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotArchive, err)
	}

	f := findPart(zr, mainPartName(zr))
	if f == nil {
		return "", ErrNoMainPart
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("docx: open %s: %w", f.Name, err)
	}
	defer rc.Close()

	return paragraphText(io.LimitReader(rc, maxMainPartBytes))
}

func mainPartName(zr *zip.Reader) string {
	f := findPart(zr, contentTypesPart)
	if f == nil {
		return defaultMainPart
	}
	rc, err := f.Open()
	if err != nil {
		return defaultMainPart
	}
	defer rc.Close()

	var ct contentTypes
	if err := xml.NewDecoder(rc).Decode(&ct); err != nil {
		return defaultMainPart
	}
	for _, o := range ct.Overrides {
		if o.ContentType == mainContentType {
			return strings.TrimPrefix(o.PartName, "/")
		}
	}
	return defaultMainPart
}

func findPart(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if strings.EqualFold(f.Name, name) {
			return f
		}
	}
	return nil
}

func paragraphText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		stack      []string
		depth      int // nested w:p, e.g. inside text boxes
		skip       int // inside mc:Fallback, which duplicates mc:Choice
		inText     bool
	)
	parent := func() string {
		if len(stack) < 2 {
			return ""
		}
		return stack[len(stack)-2]
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("docx: parse document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			if skip > 0 || t.Name.Local == "Fallback" {
				skip++
				continue
			}
			if t.Name.Space != nsMain {
				continue
			}
			switch t.Name.Local {
			case "p":
				depth++
			case "t":
				inText = true
			case "tab":
				if parent() == "r" {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if parent() == "r" {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if skip > 0 {
				skip--
				continue
			}
			if t.Name.Space != nsMain {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				depth--
				if depth == 0 {
					paragraphs = append(paragraphs, current.String())
					current.Reset()
				}
			}
		case xml.CharData:
			if inText && skip == 0 {
				current.Write(t)
			}
		}
	}

	return strings.TrimRight(strings.Join(paragraphs, "\n\n"), " \t\r\n"), nil
}
