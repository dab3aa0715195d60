package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/domain"
	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/observability"
)

type fakeProcessor struct {
	got  []domain.UploadedFile
	resp *domain.BatchResponse
	err  error
}

func (f *fakeProcessor) Process(_ context.Context, files []domain.UploadedFile) (*domain.BatchResponse, error) {
	f.got = files
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	results := make([]domain.FileResult, len(files))
	for i, file := range files {
		payload, _ := json.Marshal(map[string]int{"bytes": len(file.Content)})
		results[i] = domain.FileResult{Filename: file.Name, Analysis: domain.PayloadAnalysis(payload)}
	}
	return &domain.BatchResponse{Results: results}, nil
}

type part struct {
	field, name, content string
}

func multipartBody(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		if p.name == "" {
			require.NoError(t, mw.WriteField(p.field, p.content))
			continue
		}
		w, err := mw.CreateFormFile(p.field, p.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(p.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func newHandler(p BatchProcessor, limits UploadLimits) *AnalysisHandler {
	if limits.MultipartMemory == 0 {
		limits.MultipartMemory = 1 << 20
	}
	return NewAnalysisHandler(observability.Nop(), p, limits)
}

func post(h *AnalysisHandler, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/analyze/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Analyze(rec, req)
	return rec
}

func TestAnalyze_PassesFilesInOrder(t *testing.T) {
	proc := &fakeProcessor{}
	body, ct := multipartBody(t,
		part{field: "files", name: "b.pdf", content: "pdf bytes"},
		part{field: "files", name: "a.docx", content: "docx"},
		part{field: "note", content: "ignored"},
	)

	rec := post(newHandler(proc, UploadLimits{}), body, ct)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Len(t, proc.got, 2)
	assert.Equal(t, "b.pdf", proc.got[0].Name)
	assert.Equal(t, []byte("pdf bytes"), proc.got[0].Content)
	assert.Equal(t, "a.docx", proc.got[1].Name)

	assert.JSONEq(t, `{"results": [
		{"filename": "b.pdf", "analysis": {"bytes": 9}},
		{"filename": "a.docx", "analysis": {"bytes": 4}}
	]}`, rec.Body.String())
}

func TestAnalyze_UnsupportedFileType(t *testing.T) {
	proc := &fakeProcessor{err: domain.UnsupportedError("unsupported file type \"txt\" for notes.txt", nil)}
	body, ct := multipartBody(t, part{field: "files", name: "notes.txt", content: "hi"})

	rec := post(newHandler(proc, UploadLimits{}), body, ct)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error": "Unsupported file type"}`, rec.Body.String())
}

func TestAnalyze_EmptyFilenameReachesProcessor(t *testing.T) {
	proc := &fakeProcessor{}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	w, err := mw.CreateFormFile(FilesField, "")
	require.NoError(t, err)
	_, err = w.Write([]byte("anonymous"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := post(newHandler(proc, UploadLimits{}), &buf, mw.FormDataContentType())

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, proc.got, 1)
	assert.Empty(t, proc.got[0].Name)
	assert.Equal(t, []byte("anonymous"), proc.got[0].Content)
}

func TestAnalyze_RejectedUploads(t *testing.T) {
	t.Run("no files part", func(t *testing.T) {
		proc := &fakeProcessor{}
		body, ct := multipartBody(t, part{field: "other", name: "a.pdf", content: "x"})

		rec := post(newHandler(proc, UploadLimits{}), body, ct)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error": "No files uploaded"}`, rec.Body.String())
		assert.Nil(t, proc.got)
	})

	t.Run("not multipart", func(t *testing.T) {
		rec := post(newHandler(&fakeProcessor{}, UploadLimits{}), bytes.NewBufferString(`{"files": []}`), "application/json")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error": "Invalid multipart form"}`, rec.Body.String())
	})

	t.Run("too large", func(t *testing.T) {
		proc := &fakeProcessor{}
		body, ct := multipartBody(t, part{field: "files", name: "big.pdf", content: strings.Repeat("x", 4096)})

		rec := post(newHandler(proc, UploadLimits{MaxBytes: 1024}), body, ct)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.JSONEq(t, `{"error": "Upload too large"}`, rec.Body.String())
		assert.Nil(t, proc.got)
	})
}

func TestAnalyze_ProcessorFailure(t *testing.T) {
	proc := &fakeProcessor{err: errors.New("boom")}
	body, ct := multipartBody(t, part{field: "files", name: "a.pdf", content: "x"})

	rec := post(newHandler(proc, UploadLimits{}), body, ct)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "Internal server error"}`, rec.Body.String())
}

func TestAnalyze_FailedEntriesKeepDescriptorShape(t *testing.T) {
	proc := &fakeProcessor{resp: &domain.BatchResponse{Results: []domain.FileResult{
		{Filename: "a.pdf", Analysis: domain.FailedAnalysis(domain.LabelAnalysisFailed, "internal error")},
	}}}
	body, ct := multipartBody(t, part{field: "files", name: "a.pdf", content: "x"})

	rec := post(newHandler(proc, UploadLimits{}), body, ct)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"results": [{"filename": "a.pdf", "analysis": {"error": "LLM API error", "details": "internal error"}}]}`,
		rec.Body.String())
}

func TestRootAndHealth(t *testing.T) {
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message": "Local File Analyzer API is running!"}`, rec.Body.String())
	}

	rec := httptest.NewRecorder()
	Health("file-analyzer")(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status": "healthy", "service": "file-analyzer"}`, rec.Body.String())
}
