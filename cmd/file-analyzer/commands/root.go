// Package commands implements the file-analyzer CLI.
package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/file-analyzer/cmd/file-analyzer/ui"
	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/config"
	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/domain"
	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/observability"
)

// options carries the persistent flags and the state built from them.
type options struct {
	cfgFile string
	verbose bool
	noColor bool

	cfg    *config.Config
	logger *observability.Logger
	ui     *ui.UI
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "file-analyzer",
		Short: "Local File Analyzer - extract and analyze DOCX and PDF documents",
		Long: `file-analyzer extracts plain text from DOCX and PDF files and sends it to the
configured analysis API, either directly from this machine or through a running
file-analyzer-api server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", os.Getenv("CONFIG_PATH"), "config file path")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		newAnalyzeCmd(opts),
		newExtractCmd(opts),
		newUploadCmd(opts),
	)
	return cmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (o *options) init(cmd *cobra.Command) error {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	o.cfg = cfg

	o.ui = ui.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), o.noColor)

	o.logger = observability.Nop()
	if o.verbose {
		o.logger = observability.NewLogger(observability.LogConfig{
			Level:       "debug",
			Format:      "console",
			Output:      cmd.ErrOrStderr(),
			ServiceName: cfg.Observability.ServiceName,
		})
	}
	return nil
}

// readFiles loads each path from disk, naming it by its base name.
func readFiles(paths []string) ([]domain.UploadedFile, error) {
	files := make([]domain.UploadedFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.IOError(fmt.Sprintf("failed to read %s", path), err)
		}
		files = append(files, domain.UploadedFile{Name: filepath.Base(path), Content: data})
	}
	return files, nil
}
