package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/synthgen/backend/internal/client"
)

const defaultServer = "http://localhost:5000"

var (
	serverURL string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "synthctl",
	Short: "Command-line client for the synthetic data server",
	Long: `synthctl uploads JSON files to a synthetic data server and prints the
synthetic data it returns.

The server URL defaults to $SYNTHCTL_SERVER, then ` + defaultServer + `.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	server := os.Getenv("SYNTHCTL_SERVER")
	if server == "" {
		server = defaultServer
	}
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", server, "Server base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newUploadCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !alerted(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// alerted reports whether the uploader already told the user about err.
func alerted(err error) bool {
	var serverErr *client.ServerError
	var transportErr *client.TransportError
	return errors.Is(err, client.ErrNoFile) ||
		errors.As(err, &serverErr) ||
		errors.As(err, &transportErr)
}
