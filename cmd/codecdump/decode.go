package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDecodeCmd() *cobra.Command {
	var noProgress bool
	cmd := &cobra.Command{
		Use:   "decode <path|glob|s3://...>...",
		Short: "Decode one or more images and print their format and dimensions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := expandInputs(args)
			if err != nil {
				return err
			}
			results, err := decodeAll(cmd.Context(), inputs, !noProgress)
			if err != nil {
				return err
			}
			failed := 0
			for _, r := range results {
				if r.err != nil {
					fmt.Printf("%s: error: %v\n", r.name, r.err)
					failed++
					continue
				}
				fmt.Printf("%s: %s %dx%d\n", r.name, r.format, r.width, r.height)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d inputs failed to decode", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "suppress the progress bar")
	return cmd
}
