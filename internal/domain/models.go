package domain

import (
	"encoding/json"
)

// Error labels placed in the "error" field of a per-file analysis descriptor.
const (
	LabelAnalysisFailed   = "LLM API error"
	LabelTransportFailed  = "LLM API unreachable"
	LabelExtractionFailed = "Text extraction failed"
)

// UploadedFile is one file of a batch. Name is only used to infer the format.
type UploadedFile struct {
	Name    string
	Content []byte
}

// ErrorDescriptor is the analysis value recorded for a file whose analysis
// could not be produced.
type ErrorDescriptor struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// Analysis holds either the opaque payload returned by the remote service or
// an error descriptor. Exactly one of the two is set.
type Analysis struct {
	Payload json.RawMessage
	Failure *ErrorDescriptor
}

// PayloadAnalysis wraps a remote payload, passed through untouched.
func PayloadAnalysis(payload json.RawMessage) Analysis {
	return Analysis{Payload: payload}
}

// FailedAnalysis builds an analysis carrying an error descriptor.
func FailedAnalysis(label, details string) Analysis {
	return Analysis{Failure: &ErrorDescriptor{Error: label, Details: details}}
}

// Failed reports whether the analysis is an error descriptor.
func (a Analysis) Failed() bool {
	return a.Failure != nil
}

func (a Analysis) MarshalJSON() ([]byte, error) {
	if a.Failure != nil {
		return json.Marshal(a.Failure)
	}
	if len(a.Payload) == 0 {
		return []byte("null"), nil
	}
	return a.Payload, nil
}

func (a *Analysis) UnmarshalJSON(data []byte) error {
	var shape struct {
		Error   *string `json:"error"`
		Details *string `json:"details"`
	}
	// Only an object with exactly the descriptor's string fields is a failure.
	if err := json.Unmarshal(data, &shape); err == nil && shape.Error != nil && shape.Details != nil {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err == nil && len(fields) == 2 {
			a.Failure = &ErrorDescriptor{Error: *shape.Error, Details: *shape.Details}
			a.Payload = nil
			return nil
		}
	}
	a.Failure = nil
	a.Payload = append(a.Payload[:0], data...)
	return nil
}

// FileResult associates one uploaded file with its analysis.
type FileResult struct {
	Filename string   `json:"filename"`
	Analysis Analysis `json:"analysis"`
}

// BatchResponse is the ordered result of one batch, one entry per file.
type BatchResponse struct {
	Results []FileResult `json:"results"`
}
