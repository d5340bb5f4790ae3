package dataset

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/agrovision-ai/go-hsi/hypercube"
)

// Dataset is an ordered, random-access collection of indexed samples. The
// per-sample transformation (axis reorder, resize, normalize) runs lazily
// on every access; nothing is cached, matching the per-access recomputation
// cost of the pipeline it feeds.
type Dataset struct {
	entries []Entry
}

// New wraps indexed entries in a Dataset.
func New(entries []Entry) *Dataset {
	return &Dataset{entries: entries}
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.entries)
}

// Labels returns the class index of every sample, in dataset order.
func (d *Dataset) Labels() []int {
	labels := make([]int, len(d.entries))
	for i, e := range d.entries {
		labels[i] = e.Label
	}
	return labels
}

// At loads and transforms sample i, returning a (band, 32, 32) tensor with
// values in [0, 1] and the sample's class index. A malformed file is a
// fatal per-sample error; there is no skip-and-continue.
func (d *Dataset) At(i int) (*tensor.Dense, int, error) {
	if i < 0 || i >= len(d.entries) {
		return nil, 0, errors.Errorf("dataset: index %d out of range [0, %d)", i, len(d.entries))
	}
	e := d.entries[i]
	x, err := hypercube.Transform(e.Path)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "dataset: load sample %d (%s)", i, e.Path)
	}
	return x, e.Label, nil
}
