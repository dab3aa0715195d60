package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/analysis"
	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/domain"
)

func newAnalyzeCmd(opts *options) *cobra.Command {
	var (
		concurrency int
		outputPath  string
	)

	cmd := &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Analyze local documents against the configured API",
		Long: `Extract text from each file and send it to the analysis API, printing the
results as JSON in the same shape the server returns. Any file that is not
.docx or .pdf rejects the whole batch.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readFiles(args)
			if err != nil {
				return err
			}

			cfg := *opts.cfg
			if concurrency > 0 {
				cfg.Analysis.MaxConcurrency = concurrency
			}
			if cfg.UsesPlaceholderKey() {
				opts.ui.Warning("LLM_API_KEY is not set; requests will carry the placeholder token")
			}

			orchestrator, err := analysis.NewFromConfig(&cfg, opts.logger)
			if err != nil {
				return err
			}

			bar := opts.ui.NewProgressBar(len(files), "Analyzing")
			resp, err := orchestrator.
				WithProgress(func(int, domain.FileResult) { bar.Increment() }).
				Process(cmd.Context(), files)
			if err != nil {
				bar.Abort()
				return err
			}
			bar.Finish()

			data, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return fmt.Errorf("encode results: %w", err)
			}
			data = append(data, '\n')

			if outputPath != "" {
				if err := os.WriteFile(outputPath, data, 0o644); err != nil {
					return domain.IOError(fmt.Sprintf("failed to write %s", outputPath), err)
				}
				opts.ui.Info("Results written to %s", outputPath)
				return nil
			}
			_, err = opts.ui.Out().Write(data)
			return err
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "files analyzed at once (default from config)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write results JSON to this file")
	return cmd
}
