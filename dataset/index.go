// Package dataset discovers hyperspectral sample files on disk and serves
// them as a random-access collection with lazy per-sample transformation.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ClassNames are the seven species labels, in the order that defines each
// class index.
var ClassNames = []string{
	"canola",
	"soybean",
	"sugarbeet",
	"kochia",
	"common_ragweed",
	"common_waterhemp",
	"redroot_pigweed",
}

// maxSampleIndex bounds the per-class probe: files are named
// {class}_{i}.npy with i in 1..maxSampleIndex.
const maxSampleIndex = 20

// Entry is one discovered sample: its file path and class index.
type Entry struct {
	Path  string
	Label int
}

// Index scans dir for sample files. Classes are visited in declared order
// and indices ascending, so the result order is stable. Only files that
// exist are kept; a gap in the numbering is not an error.
//
// An empty result is a configuration error: either the directory is wrong
// or it holds no files matching the naming convention.
func Index(dir string) ([]Entry, error) {
	var entries []Entry
	for label, name := range ClassNames {
		for i := 1; i <= maxSampleIndex; i++ {
			path := filepath.Join(dir, fmt.Sprintf("%s_%d.npy", name, i))
			if _, err := os.Stat(path); err != nil {
				continue
			}
			entries = append(entries, Entry{Path: path, Label: label})
		}
	}
	if len(entries) == 0 {
		return nil, errors.Errorf(
			"dataset: no sample files found in %q: check that the directory exists and contains {class}_{index}.npy files",
			dir)
	}
	return entries, nil
}
