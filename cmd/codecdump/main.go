// Command codecdump decodes raster images and fonts from the command line:
// local paths, doublestar glob patterns, or s3:// URIs, reporting the
// format and dimensions found for each input.
//
// Usage:
//
//	codecdump decode [options] <path|glob|s3://...>...
//	codecdump probe <path|glob|s3://...>...
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "codecdump: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "codecdump",
		Short:         "Decode raster images and fonts and report what was found",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDecodeCmd())
	root.AddCommand(newProbeCmd())
	return root
}
