// Package extract turns uploaded DOCX and PDF documents into plain text.
package extract

import (
	"context"
	"fmt"
	"io"

	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/domain"
)

// TextExtractor extracts the text of one document format.
type TextExtractor interface {
	Extract(ctx context.Context, r io.Reader) (string, error)
}

// Service dispatches extraction to the extractor registered for a format.
type Service struct {
	extractors map[Format]TextExtractor
}

// NewService creates an extraction service for DOCX and PDF.
func NewService(docx, pdf TextExtractor) *Service {
	return &Service{
		extractors: map[Format]TextExtractor{
			FormatDOCX: docx,
			FormatPDF:  pdf,
		},
	}
}

// Options selects the PDF engine and validation used by NewServiceFromOptions.
type Options struct {
	PDFEngine   string
	ValidatePDF bool
}

// NewServiceFromOptions wires the default DOCX extractor and the configured PDF engine.
func NewServiceFromOptions(opts Options) (*Service, error) {
	engine, err := NewPDFEngine(opts.PDFEngine)
	if err != nil {
		return nil, err
	}

	var validator *Validator
	if opts.ValidatePDF {
		validator = NewValidator()
	}

	return NewService(NewDOCXExtractor(), NewPDFExtractor(engine, validator)), nil
}

// Extract reads r to completion and returns its text according to format.
func (s *Service) Extract(ctx context.Context, r io.Reader, format Format) (string, error) {
	extractor, ok := s.extractors[format]
	if !ok || extractor == nil {
		return "", domain.UnsupportedError(fmt.Sprintf("no extractor for format %s", format), nil)
	}
	return extractor.Extract(ctx, r)
}
