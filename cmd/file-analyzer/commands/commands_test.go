package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/domain"
	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/extract/extracttest"
)

// isolate clears the environment the config layer reads and moves into an
// empty directory so no .env file is picked up.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_PATH", "SERVER_HOST", "PORT", "SERVER_PORT", "LLM_API_URL", "LLM_API_KEY",
		"LLM_TIMEOUT", "PDF_ENGINE", "PDF_VALIDATE", "ANALYSIS_MAX_CONCURRENCY", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestExtract_PrintsDocumentText(t *testing.T) {
	isolate(t)
	path := writeFile(t, t.TempDir(), "memo.docx", extracttest.Document(t, "Hello", "", "World"))

	stdout, _, err := run(t, "extract", path)
	require.NoError(t, err)
	assert.Equal(t, "Hello\n\nWorld\n", stdout)
}

func TestExtract_Unsupported(t *testing.T) {
	isolate(t)
	path := writeFile(t, t.TempDir(), "notes.txt", []byte("plain"))

	_, _, err := run(t, "extract", path)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeUnsupported))
}

func TestAnalyze_PrintsResultsJSON(t *testing.T) {
	isolate(t)

	var auth atomic.Value
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		var req struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]int{"length": len(req.Text)})
	}))
	defer llm.Close()
	t.Setenv("LLM_API_URL", llm.URL)
	t.Setenv("LLM_API_KEY", "sk-cli")

	dir := t.TempDir()
	a := writeFile(t, dir, "a.docx", extracttest.Document(t, "four"))
	b := writeFile(t, dir, "b.docx", extracttest.Document(t, "sixsix"))

	stdout, _, err := run(t, "analyze", "--concurrency", "2", a, b)
	require.NoError(t, err)

	assert.JSONEq(t, `{"results": [
		{"filename": "a.docx", "analysis": {"length": 4}},
		{"filename": "b.docx", "analysis": {"length": 6}}
	]}`, stdout)
	assert.Equal(t, "Bearer sk-cli", auth.Load())
}

func TestAnalyze_WritesOutputFile(t *testing.T) {
	isolate(t)

	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"ok": true}`)
	}))
	defer llm.Close()
	t.Setenv("LLM_API_URL", llm.URL)

	dir := t.TempDir()
	in := writeFile(t, dir, "a.docx", extracttest.Document(t, "x"))
	out := filepath.Join(dir, "results.json")

	stdout, stderr, err := run(t, "analyze", "-o", out, in)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "placeholder token")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"results": [{"filename": "a.docx", "analysis": {"ok": true}}]}`, string(data))
}

func TestAnalyze_UnsupportedRejectsBatch(t *testing.T) {
	isolate(t)

	var calls atomic.Int32
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer llm.Close()
	t.Setenv("LLM_API_URL", llm.URL)

	dir := t.TempDir()
	a := writeFile(t, dir, "a.docx", extracttest.Document(t, "x"))
	b := writeFile(t, dir, "b.txt", []byte("x"))

	stdout, stderr, err := run(t, "analyze", a, b)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeUnsupported))
	assert.Empty(t, stdout)
	assert.Zero(t, calls.Load())

	// the progress bar is closed off at its current count
	assert.Contains(t, stderr, "0/2")
	assert.NotContains(t, stderr, "2/2")
	assert.True(t, strings.HasSuffix(stderr, "\n"))
}

func TestAnalyze_MissingFile(t *testing.T) {
	isolate(t)

	_, _, err := run(t, "analyze", filepath.Join(t.TempDir(), "absent.pdf"))
	assert.True(t, domain.IsType(err, domain.ErrorTypeIO))
}

func TestUpload_RendersResults(t *testing.T) {
	isolate(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze/", r.URL.Path)
		_, _ = io.WriteString(w, `{"results": [
			{"filename": "a.pdf", "analysis": {"summary": "fine"}},
			{"filename": "b.docx", "analysis": {"error": "LLM API error", "details": "quota exceeded"}}
		]}`)
	}))
	defer srv.Close()

	dir := t.TempDir()
	a := writeFile(t, dir, "a.pdf", []byte("%PDF"))
	b := writeFile(t, dir, "b.docx", []byte("PK"))

	stdout, _, err := run(t, "upload", "--server", srv.URL, a, b)
	require.NoError(t, err)

	assert.Contains(t, stdout, "✓ a.pdf")
	assert.Contains(t, stdout, `"summary": "fine"`)
	assert.Contains(t, stdout, "✗ b.docx: LLM API error")
	assert.Contains(t, stdout, "  quota exceeded")
}

func TestUpload_JSONOutput(t *testing.T) {
	isolate(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"results": [{"filename": "a.pdf", "analysis": [1, 2]}]}`)
	}))
	defer srv.Close()

	path := writeFile(t, t.TempDir(), "a.pdf", []byte("%PDF"))

	stdout, _, err := run(t, "upload", "--json", "-s", srv.URL, path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"results": [{"filename": "a.pdf", "analysis": [1, 2]}]}`, stdout)
}

func TestUpload_ShowsServerError(t *testing.T) {
	isolate(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error": "Unsupported file type"}`)
	}))
	defer srv.Close()

	path := writeFile(t, t.TempDir(), "notes.txt", []byte("x"))

	_, stderr, err := run(t, "upload", "--server", srv.URL, path)
	require.Error(t, err)
	assert.Contains(t, stderr, "✗ Unsupported file type")
}
