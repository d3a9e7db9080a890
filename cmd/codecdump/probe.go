package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	codec "github.com/fenwick-engine/codec"
	"github.com/fenwick-engine/codec/ttf"

	_ "github.com/fenwick-engine/codec/bmp"
	_ "github.com/fenwick-engine/codec/jpeg"
	_ "github.com/fenwick-engine/codec/png"
)

var ttfScalerTypeMagic = []byte{0x00, 0x01, 0x00, 0x00}

func newProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe <path|glob|s3://...>...",
		Short: "Report what each input is without a full raster decode",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := expandInputs(args)
			if err != nil {
				return err
			}
			failed := 0
			for _, name := range inputs {
				if err := probeOne(name); err != nil {
					fmt.Printf("%s: error: %v\n", name, err)
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d inputs failed to probe", failed, len(inputs))
			}
			return nil
		},
	}
	return cmd
}

func probeOne(name string) error {
	data, err := fetchInput(name)
	if err != nil {
		return err
	}
	if bytes.HasPrefix(data, ttfScalerTypeMagic) {
		font, err := ttf.Parse(data)
		if err != nil {
			return err
		}
		fmt.Printf("%s: ttf %q unitsPerEm=%d glyphs=%d\n", name, font.Name(), font.UnitsPerEm(), font.NumGlyphs())
		return nil
	}
	tex, format, err := codec.Decode(data)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s %dx%d\n", name, format, tex.Width, tex.Height)
	return nil
}
