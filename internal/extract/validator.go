package extract

import (
	"bytes"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/domain"
)

var disableConfigDir sync.Once

// Validator checks the structure of a PDF before any text is read from it.
type Validator struct {
	conf *model.Configuration
}

// NewValidator creates a validator using pdfcpu's relaxed validation mode.
func NewValidator() *Validator {
	// pdfcpu otherwise writes its configuration into the user's config dir.
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Validator{conf: conf}
}

// ValidatePDF returns a parse error when data is not a structurally valid PDF.
func (v *Validator) ValidatePDF(data []byte) error {
	if len(data) == 0 {
		return domain.ParseError("pdf is empty", nil)
	}

	if err := api.Validate(bytes.NewReader(data), v.conf); err != nil {
		return domain.ParseError("pdf failed structural validation", err)
	}

	pages, err := api.PageCount(bytes.NewReader(data), v.conf)
	if err != nil {
		return domain.ParseError("failed to count pdf pages", err)
	}
	if pages == 0 {
		return domain.ParseError("pdf has no pages", nil)
	}

	return nil
}
