package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUI_StreamsAndPlainText(t *testing.T) {
	var out, errOut bytes.Buffer
	u := New(&out, &errOut, true)

	u.Success("%s done", "a.pdf")
	u.Failure("b.pdf: %s", "LLM API error")
	u.Indented("line one\nline two\n")
	u.Warning("careful")
	u.Error("broken")
	u.Info("fyi")

	assert.Equal(t, "✓ a.pdf done\n✗ b.pdf: LLM API error\n  line one\n  line two\n", out.String())
	assert.Equal(t, "⚠ careful\n✗ broken\nℹ fyi\n", errOut.String())
}

func TestUI_Section(t *testing.T) {
	var out bytes.Buffer
	New(&out, &out, true).Section("Results")
	assert.Equal(t, "\nResults\n=======\n", out.String())
}

func TestProgressBar_CountsFiles(t *testing.T) {
	var out, errOut bytes.Buffer
	u := New(&out, &errOut, true)

	bar := u.NewProgressBar(2, "Analyzing")
	bar.Increment()
	bar.Increment()
	bar.Finish()

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Analyzing")
	assert.Contains(t, errOut.String(), "2/2")
}

func TestProgressBar_AbortKeepsCount(t *testing.T) {
	var out, errOut bytes.Buffer
	u := New(&out, &errOut, true)

	bar := u.NewProgressBar(2, "Analyzing")
	bar.Increment()
	bar.Abort()

	assert.Contains(t, errOut.String(), "1/2")
	assert.NotContains(t, errOut.String(), "2/2")
	assert.True(t, strings.HasSuffix(errOut.String(), "\n"))
}
