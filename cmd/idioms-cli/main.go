// Command idioms-cli is a thin HTTP client for idiomsd: create and
// delete metadata index entries, run an md_search query, and trigger
// the checkpoint/recover/remap admin operations, built with cobra in
// the style of the benchmark client commands the example pack's
// weaviate-weaviate repo uses.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var baseURL string

func main() {
	root := &cobra.Command{
		Use:   "idioms-cli",
		Short: "Client for the IDIOMS metadata indexing service",
	}
	root.PersistentFlags().StringVar(&baseURL, "addr", "http://127.0.0.1:8080", "idiomsd HTTP API base URL")

	root.AddCommand(
		newCreateCmd(),
		newDeleteCmd(),
		newSearchCmd(),
		newCheckpointCmd(),
		newRecoverCmd(),
		newRemapCmd(),
		newStatsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
