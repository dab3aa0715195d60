// Package handlers provides HTTP handlers for the File Analyzer API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/domain"
	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/observability"
)

// FilesField is the multipart field that carries uploaded documents.
const FilesField = "files"

// Response messages returned in the "error" field.
const (
	MsgUnsupportedFileType = "Unsupported file type"
	MsgNoFiles             = "No files uploaded"
	MsgInvalidMultipart    = "Invalid multipart form"
	MsgUploadTooLarge      = "Upload too large"
	MsgInternal            = "Internal server error"
)

// BatchProcessor analyses a batch of uploaded files.
type BatchProcessor interface {
	Process(ctx context.Context, files []domain.UploadedFile) (*domain.BatchResponse, error)
}

// UploadLimits bounds multipart request handling.
type UploadLimits struct {
	MaxBytes        int64 // whole request body
	MultipartMemory int64 // kept in memory before spilling to temp files
}

// AnalysisHandler handles document analysis requests.
type AnalysisHandler struct {
	logger    *observability.Logger
	processor BatchProcessor
	limits    UploadLimits
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(logger *observability.Logger, processor BatchProcessor, limits UploadLimits) *AnalysisHandler {
	return &AnalysisHandler{
		logger:    logger.WithComponent("analysis_handler"),
		processor: processor,
		limits:    limits,
	}
}

// Analyze handles POST /analyze/.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	files, rejected := h.readUploads(w, r)
	if rejected != nil {
		h.logger.Warn().Err(rejected.err).Int("status", rejected.status).Msg("Rejected upload")
		writeError(w, rejected.status, rejected.message)
		return
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	h.logger.Info().Strs("files", names).Msg("Analyzing upload")

	resp, err := h.processor.Process(ctx, files)
	if err != nil {
		switch {
		case domain.IsType(err, domain.ErrorTypeUnsupported):
			h.logger.Warn().Err(err).Msg("Unsupported file in batch")
			writeError(w, http.StatusBadRequest, MsgUnsupportedFileType)
		case errors.Is(err, context.Canceled):
			// client went away; nobody is listening for a body
			h.logger.Warn().Msg("Request cancelled by client")
		default:
			h.logger.Error().Err(err).Msg("Analysis failed")
			writeError(w, http.StatusInternalServerError, MsgInternal)
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

type uploadRejection struct {
	status  int
	message string
	err     error
}

// readUploads parses the multipart body and loads every "files" part.
func (h *AnalysisHandler) readUploads(w http.ResponseWriter, r *http.Request) ([]domain.UploadedFile, *uploadRejection) {
	if h.limits.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxBytes)
	}

	if err := r.ParseMultipartForm(h.limits.MultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &uploadRejection{http.StatusRequestEntityTooLarge, MsgUploadTooLarge, err}
		}
		return nil, &uploadRejection{http.StatusBadRequest, MsgInvalidMultipart, domain.ValidationError("invalid multipart form", err)}
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[FilesField]
	// parts sent with an empty filename are parsed as plain values
	unnamed := r.MultipartForm.Value[FilesField]
	if len(headers)+len(unnamed) == 0 {
		return nil, &uploadRejection{http.StatusBadRequest, MsgNoFiles, domain.ValidationError("no files in upload", nil)}
	}

	files := make([]domain.UploadedFile, 0, len(headers)+len(unnamed))
	for _, fh := range headers {
		content, err := readPart(fh)
		if err != nil {
			return nil, &uploadRejection{http.StatusInternalServerError, MsgInternal, err}
		}
		files = append(files, domain.UploadedFile{Name: fh.Filename, Content: content})
	}
	for _, v := range unnamed {
		files = append(files, domain.UploadedFile{Content: []byte(v)})
	}
	return files, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("failed to open upload %s", fh.Filename), err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("failed to read upload %s", fh.Filename), err)
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
