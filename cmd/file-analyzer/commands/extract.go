package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/domain"
	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/extract"
)

func newExtractCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the plain text extracted from a document",
		Long:  "Extract text from a DOCX or PDF file exactly as it would be sent for analysis. Nothing is sent.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			svc, err := extract.NewServiceFromOptions(extract.Options{
				PDFEngine:   opts.cfg.Extraction.PDFEngine,
				ValidatePDF: opts.cfg.Extraction.ValidatePDF,
			})
			if err != nil {
				return err
			}

			f, err := os.Open(path)
			if err != nil {
				return domain.IOError(fmt.Sprintf("failed to open %s", path), err)
			}
			defer f.Close()

			format := extract.ParseFormat(path)
			opts.logger.Debug().Str("file", path).Str("format", format.String()).Msg("Extracting")

			text, err := svc.Extract(cmd.Context(), f, format)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(opts.ui.Out(), text)
			return err
		},
	}
}
