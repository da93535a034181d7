package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/synthgen/backend/internal/client"
	"github.com/synthgen/backend/internal/logging"
	"go.uber.org/zap"
)

type uploadOptions struct {
	out     string
	html    bool
	timeout time.Duration
}

func newUploadCmd() *cobra.Command {
	opts := &uploadOptions{}
	cmd := &cobra.Command{
		Use:   "upload [file]",
		Short: "Upload a JSON file and print the synthetic data",
		Long: `Posts the file to <server>/upload and prints the synthetic_data of the
reply as indented JSON. Failures are reported the same way the upload page
reports them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runUpload(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), path, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Write the result to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.html, "html", false, "Wrap the written file in a <pre> element")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Request timeout (0 waits indefinitely)")
	return cmd
}

func runUpload(ctx context.Context, stdout, stderr io.Writer, path string, opts *uploadOptions) error {
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var out client.Output = &client.WriterOutput{W: stdout}
	if opts.out != "" {
		out = &client.FileOutput{Path: opts.out, HTML: opts.html}
	}

	uploader, err := client.New(serverURL, out, &client.WriterNotifier{W: stderr},
		client.WithHTTPClient(&http.Client{Timeout: opts.timeout}),
		client.WithLogger(logger.Named("upload")),
	)
	if err != nil {
		return err
	}

	var file *client.File
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		file = &client.File{Name: filepath.Base(path), Content: f}
	}

	logger.Debug("uploading", zap.String("endpoint", uploader.Endpoint()), zap.String("file", path))
	return uploader.Upload(ctx, file)
}
