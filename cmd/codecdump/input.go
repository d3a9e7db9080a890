package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// expandInputs turns a list of command-line arguments into a flat list of
// resolvable inputs: s3:// URIs pass through untouched (fetched lazily by
// fetchInput), everything else is expanded as a doublestar glob pattern so
// a single argument like "testdata/**/*.png" can name many files.
func expandInputs(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if strings.HasPrefix(arg, "s3://") {
			out = append(out, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", arg, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err != nil {
				return nil, fmt.Errorf("%q matches no files", arg)
			}
			matches = []string{arg}
		}
		out = append(out, matches...)
	}
	return out, nil
}
