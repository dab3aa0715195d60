package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"

	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/domain"
)

// PageDocument is an opened, paginated document. Pages are zero-indexed.
type PageDocument interface {
	NumPage() int
	PageText(page int) (string, error)
	Close() error
}

// PDFEngine opens raw PDF bytes as a PageDocument.
type PDFEngine interface {
	Name() string
	Open(data []byte) (PageDocument, error)
}

// PDFExtractor concatenates the visible text of every page of a PDF.
type PDFExtractor struct {
	engine    PDFEngine
	validator *Validator
}

// NewPDFExtractor creates a PDF extractor backed by engine. A nil validator
// skips the structural pre-check.
func NewPDFExtractor(engine PDFEngine, validator *Validator) *PDFExtractor {
	return &PDFExtractor{
		engine:    engine,
		validator: validator,
	}
}

// Extract returns the text of all pages in order with no separator between
// pages. Pages without text contribute nothing.
func (e *PDFExtractor) Extract(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", domain.IOError("failed to read pdf stream", err)
	}

	if e.validator != nil {
		if err := e.validator.ValidatePDF(data); err != nil {
			return "", err
		}
	}

	doc, err := e.engine.Open(data)
	if err != nil {
		return "", domain.ParseError(fmt.Sprintf("failed to open pdf (%s)", e.engine.Name()), err)
	}
	defer doc.Close()

	var text strings.Builder
	for page := 0; page < doc.NumPage(); page++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		pageText, err := doc.PageText(page)
		if err != nil {
			return "", domain.ParseError(fmt.Sprintf("failed to extract text from page %d", page+1), err)
		}
		text.WriteString(pageText)
	}

	return text.String(), nil
}

// FitzEngine reads PDFs through MuPDF.
type FitzEngine struct{}

func (FitzEngine) Name() string { return "fitz" }

func (FitzEngine) Open(data []byte) (PageDocument, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	return fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d fitzDocument) NumPage() int { return d.doc.NumPage() }

// PageText drops the blank lines MuPDF appends after every page.
func (d fitzDocument) PageText(page int) (string, error) {
	text, err := d.doc.Text(page)
	if err != nil {
		return "", err
	}
	return strings.TrimRightFunc(text, unicode.IsSpace), nil
}

func (d fitzDocument) Close() error { return d.doc.Close() }

// LedongthucEngine is a pure-Go PDF reader.
type LedongthucEngine struct{}

func (LedongthucEngine) Name() string { return "ledongthuc" }

func (LedongthucEngine) Open(data []byte) (doc PageDocument, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return ledongthucDocument{reader: reader}, nil
}

type ledongthucDocument struct {
	reader *pdf.Reader
}

func (d ledongthucDocument) NumPage() int { return d.reader.NumPage() }

func (d ledongthucDocument) PageText(page int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed page content: %v", r)
		}
	}()

	p := d.reader.Page(page + 1)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

func (d ledongthucDocument) Close() error { return nil }

// NewPDFEngine returns the engine registered under name.
func NewPDFEngine(name string) (PDFEngine, error) {
	switch name {
	case "fitz", "":
		return FitzEngine{}, nil
	case "ledongthuc":
		return LedongthucEngine{}, nil
	default:
		return nil, domain.ConfigError(fmt.Sprintf("unknown pdf engine %q", name), nil)
	}
}
