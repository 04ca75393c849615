package cdxfilter

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathPair is one resolved (input, output) file path, with the output's
// directory layout mirroring the input's relative position under base.
type PathPair struct {
	In  string
	Out string
}

// ResolvePaths expands glob against base and produces PathPair entries
// whose Out preserves the same relative layout under outBase. Refuses to
// overwrite an existing output unless overwrite is true.
func ResolvePaths(base, glob, outBase string, overwrite bool) ([]PathPair, error) {
	matches, err := filepath.Glob(filepath.Join(base, glob))
	if err != nil {
		return nil, fmt.Errorf("cdxfilter: bad glob %q: %w", glob, err)
	}
	pairs := make([]PathPair, 0, len(matches))
	for _, m := range matches {
		rel, err := filepath.Rel(base, m)
		if err != nil {
			return nil, fmt.Errorf("cdxfilter: relativize %q under %q: %w", m, base, err)
		}
		out := filepath.Join(outBase, rel)
		if !overwrite {
			if _, err := os.Stat(out); err == nil {
				return nil, fmt.Errorf("cdxfilter: refusing to overwrite existing output %q (pass overwrite)", out)
			}
		}
		pairs = append(pairs, PathPair{In: m, Out: out})
	}
	return pairs, nil
}
