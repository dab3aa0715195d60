// Package analysis runs a batch of uploaded files through extraction and the
// remote analysis service.
package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/config"
	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/domain"
	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/extract"
	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/llm"
	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/observability"
)

// Extractor turns a document stream into text.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader, format extract.Format) (string, error)
}

// Analyzer sends text to the remote analysis service.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (domain.Analysis, error)
}

// Config holds orchestrator settings.
type Config struct {
	MaxConcurrency int   // files analysed at once within one batch
	MaxFileBytes   int64 // 0 disables the per-file size check
}

// ProgressFunc is called once per finished file. With MaxConcurrency above
// one it may be called from several goroutines at once.
type ProgressFunc func(index int, result domain.FileResult)

// Orchestrator processes batches of uploaded files.
type Orchestrator struct {
	extractor Extractor
	analyzer  Analyzer
	logger    *observability.Logger
	config    Config
	progress  ProgressFunc
}

// NewOrchestrator creates a new batch orchestrator.
func NewOrchestrator(extractor Extractor, analyzer Analyzer, logger *observability.Logger, cfg Config) *Orchestrator {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Orchestrator{
		extractor: extractor,
		analyzer:  analyzer,
		logger:    logger.WithComponent("orchestrator"),
		config:    cfg,
	}
}

// NewFromConfig wires the extraction service and analysis client described by cfg.
func NewFromConfig(cfg *config.Config, logger *observability.Logger) (*Orchestrator, error) {
	extractor, err := extract.NewServiceFromOptions(extract.Options{
		PDFEngine:   cfg.Extraction.PDFEngine,
		ValidatePDF: cfg.Extraction.ValidatePDF,
	})
	if err != nil {
		return nil, err
	}

	client := llm.NewClient(cfg.LLM.APIURL, cfg.LLM.APIKey, llm.WithTimeout(cfg.LLM.Timeout))

	return NewOrchestrator(extractor, client, logger, Config{
		MaxConcurrency: cfg.Analysis.MaxConcurrency,
		MaxFileBytes:   cfg.Extraction.MaxFileBytes,
	}), nil
}

// WithProgress returns a copy of o that reports every finished file to fn.
func (o *Orchestrator) WithProgress(fn ProgressFunc) *Orchestrator {
	c := *o
	c.progress = fn
	return &c
}

// Process analyses every file and returns one result per file in input order.
//
// If any file has an unsupported format the whole batch is rejected with an
// ErrorTypeUnsupported error and no results. Extraction and remote failures
// are recorded in the affected file's entry; only context cancellation ends
// the batch early.
func (o *Orchestrator) Process(ctx context.Context, files []domain.UploadedFile) (*domain.BatchResponse, error) {
	formats, err := resolveFormats(files)
	if err != nil {
		o.logger.Warn().Err(err).Int("files", len(files)).Msg("Batch rejected")
		return nil, err
	}

	logger := o.logger.WithBatch(uuid.NewString())
	start := time.Now()
	logger.Info().Int("files", len(files)).Int("concurrency", o.config.MaxConcurrency).Msg("Batch started")

	results := make([]domain.FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.MaxConcurrency)

	for i := range files {
		g.Go(func() error {
			analysis, err := o.processFile(gctx, logger, files[i], formats[i])
			if err != nil {
				return err
			}
			results[i] = domain.FileResult{Filename: files[i].Name, Analysis: analysis}
			if o.progress != nil {
				o.progress(i, results[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Warn().Err(err).Msg("Batch aborted")
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if r.Analysis.Failed() {
			failed++
		}
	}
	logger.Info().
		Int("files", len(files)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Batch complete")

	return &domain.BatchResponse{Results: results}, nil
}

// resolveFormats maps every file to its format, stopping at the first
// unsupported one.
func resolveFormats(files []domain.UploadedFile) ([]extract.Format, error) {
	formats := make([]extract.Format, len(files))
	for i, f := range files {
		format := extract.ParseFormat(f.Name)
		if format == extract.FormatUnsupported {
			return nil, domain.UnsupportedError(
				fmt.Sprintf("unsupported file type %q for %s", extract.Tag(f.Name), f.Name), nil)
		}
		formats[i] = format
	}
	return formats, nil
}

// processFile extracts and analyses one file. The returned error is non-nil
// only when ctx is done; every other failure becomes an error descriptor.
func (o *Orchestrator) processFile(ctx context.Context, logger *observability.Logger, file domain.UploadedFile, format extract.Format) (domain.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return domain.Analysis{}, err
	}

	if o.config.MaxFileBytes > 0 && int64(len(file.Content)) > o.config.MaxFileBytes {
		logger.Warn().Str("file", file.Name).Int("bytes", len(file.Content)).Msg("File exceeds size limit")
		return domain.FailedAnalysis(domain.LabelExtractionFailed,
			fmt.Sprintf("file is %d bytes, limit is %d", len(file.Content), o.config.MaxFileBytes)), nil
	}

	text, err := o.extractor.Extract(ctx, bytes.NewReader(file.Content), format)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Analysis{}, ctxErr
		}
		logger.Warn().Err(err).Str("file", file.Name).Str("format", format.String()).Msg("Text extraction failed")
		return domain.FailedAnalysis(domain.LabelExtractionFailed, err.Error()), nil
	}

	logger.Debug().Str("file", file.Name).Str("format", format.String()).Int("chars", len(text)).Msg("Text extracted")

	analysis, err := o.analyzer.Analyze(ctx, text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Analysis{}, ctxErr
		}
		logger.Error().Err(err).Str("file", file.Name).Msg("Analysis service unreachable")
		return domain.FailedAnalysis(domain.LabelTransportFailed, err.Error()), nil
	}

	if analysis.Failed() {
		logger.Warn().Str("file", file.Name).Msg("Analysis service returned an error")
	}
	return analysis, nil
}
