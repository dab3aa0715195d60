package extract

import "strings"

// Format is the document format inferred from a file name.
type Format int

const (
	FormatUnsupported Format = iota
	FormatDOCX
	FormatPDF
)

func (f Format) String() string {
	switch f {
	case FormatDOCX:
		return "docx"
	case FormatPDF:
		return "pdf"
	default:
		return "unsupported"
	}
}

// Tag returns the lowercased text after the final "." of name. A name without
// a dot yields the whole lowercased name.
func Tag(name string) string {
	lower := strings.ToLower(name)
	if i := strings.LastIndexByte(lower, '.'); i >= 0 {
		return lower[i+1:]
	}
	return lower
}

// ParseFormat maps a file name to its Format.
func ParseFormat(name string) Format {
	switch Tag(name) {
	case "docx":
		return FormatDOCX
	case "pdf":
		return FormatPDF
	default:
		return FormatUnsupported
	}
}
