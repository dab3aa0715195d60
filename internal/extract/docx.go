package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/domain"
)

// DOCXExtractor reads the body paragraphs of a Word document.
type DOCXExtractor struct{}

// NewDOCXExtractor creates a new DOCXExtractor instance
func NewDOCXExtractor() *DOCXExtractor {
	return &DOCXExtractor{}
}

// Extract returns the text of every body paragraph joined by newlines.
func (e *DOCXExtractor) Extract(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", domain.IOError("failed to read docx stream", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.ParseError("failed to open docx package", err)
	}
	defer doc.Close()

	paragraphs, err := bodyParagraphs(doc.Editable().GetContent())
	if err != nil {
		return "", domain.ParseError("failed to parse docx body", err)
	}

	return strings.Join(paragraphs, "\n"), nil
}

// bodyParagraphs walks word/document.xml and returns the text of each w:p that
// is a direct child of w:body, in document order. Only runs owned by the
// paragraph itself (directly or through a hyperlink) contribute text, so table
// cells and text boxes are skipped.
func bodyParagraphs(documentXML string) ([]string, error) {
	dec := xml.NewDecoder(strings.NewReader(documentXML))

	var (
		paragraphs []string
		stack      []string
		current    *strings.Builder
		pDepth     = -1
		inText     bool
		sawBody    bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			switch {
			case name == "body":
				sawBody = true
			case name == "p" && current == nil && top(stack) == "body":
				current = &strings.Builder{}
				pDepth = len(stack)
			case current != nil && ownRun(stack, pDepth):
				switch name {
				case "t":
					inText = true
				case "tab":
					current.WriteByte('\t')
				case "br":
					if lineBreak(t) {
						current.WriteByte('\n')
					}
				case "cr":
					current.WriteByte('\n')
				}
			}
			stack = append(stack, name)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.New("unbalanced document xml")
			}
			stack = stack[:len(stack)-1]
			if t.Name.Local == "t" {
				inText = false
			}
			if current != nil && len(stack) == pDepth {
				paragraphs = append(paragraphs, current.String())
				current = nil
				pDepth = -1
			}

		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	if !sawBody {
		return nil, errors.New("document has no body element")
	}
	return paragraphs, nil
}

// lineBreak reports whether a w:br element breaks the line. Page and column
// breaks produce no text.
func lineBreak(br xml.StartElement) bool {
	for _, attr := range br.Attr {
		if attr.Name.Local == "type" {
			return attr.Value == "" || attr.Value == "textWrapping"
		}
	}
	return true
}

func top(stack []string) string {
	if len(stack) == 0 {
		return ""
	}
	return stack[len(stack)-1]
}

// ownRun reports whether the innermost open element is a run belonging to the
// paragraph opened at depth pDepth.
func ownRun(stack []string, pDepth int) bool {
	switch len(stack) - pDepth {
	case 2:
		return stack[pDepth+1] == "r"
	case 3:
		return stack[pDepth+1] == "hyperlink" && stack[pDepth+2] == "r"
	}
	return false
}
