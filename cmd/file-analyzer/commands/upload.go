package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/file-analyzer/internal/client"
)

func newUploadCmd(opts *options) *cobra.Command {
	var (
		server  string
		timeout time.Duration
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Send documents to a running file-analyzer-api server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readFiles(args)
			if err != nil {
				return err
			}

			c := client.New(server, &http.Client{Timeout: timeout})

			spin := opts.ui.NewSpinner(fmt.Sprintf("Uploading %d file(s) to %s", len(files), server))
			spin.Start()
			resp, err := c.Analyze(cmd.Context(), files)
			spin.Stop()

			if err != nil {
				var serverErr *client.ServerError
				if errors.As(err, &serverErr) {
					opts.ui.Error("%s", serverErr.Message)
				}
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(resp, "", "  ")
				if err != nil {
					return fmt.Errorf("encode results: %w", err)
				}
				_, err = fmt.Fprintln(opts.ui.Out(), string(data))
				return err
			}

			opts.ui.Section("Results")
			for _, r := range resp.Results {
				if r.Analysis.Failed() {
					opts.ui.Failure("%s: %s", r.Filename, r.Analysis.Failure.Error)
					opts.ui.Indented(r.Analysis.Failure.Details)
					continue
				}
				opts.ui.Success("%s", r.Filename)
				opts.ui.Indented(prettyJSON(r.Analysis.Payload))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&server, "server", "s", "http://localhost:8000", "file-analyzer-api base URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "overall request timeout")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw results JSON")
	return cmd
}

func prettyJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
