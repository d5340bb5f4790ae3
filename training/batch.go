package training

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Source is random-access sample storage: transformed (band, height, width)
// tensors with integer class labels. dataset.Dataset satisfies it.
type Source interface {
	Len() int
	At(i int) (*tensor.Dense, int, error)
}

// batches cuts an index list into consecutive chunks of at most size.
func batches(indices []int, size int) [][]int {
	var out [][]int
	for len(indices) > 0 {
		n := size
		if n > len(indices) {
			n = len(indices)
		}
		out = append(out, indices[:n])
		indices = indices[n:]
	}
	return out
}

// collate stacks the selected samples into a (N, 1, band, H, W) batch
// tensor, prepending the synthetic volume channel the 3D convolution
// expects. Samples with mismatched shapes are a hard error.
func collate(src Source, indices []int) (*tensor.Dense, []int, error) {
	if len(indices) == 0 {
		return nil, nil, errors.New("training: empty batch")
	}

	labels := make([]int, len(indices))
	var data []float32
	var sampleShape tensor.Shape

	for i, idx := range indices {
		x, label, err := src.At(idx)
		if err != nil {
			return nil, nil, err
		}
		s := x.Shape()
		if len(s) != 3 {
			return nil, nil, errors.Errorf("training: sample %d has rank %d, want (band, height, width)", idx, len(s))
		}
		if sampleShape == nil {
			sampleShape = s.Clone()
			data = make([]float32, 0, len(indices)*s.TotalSize())
		} else if !sampleShape.Eq(s) {
			return nil, nil, errors.Errorf("training: sample %d has shape %v, batch expects %v", idx, s, sampleShape)
		}
		data = append(data, x.Data().([]float32)...)
		labels[i] = label
	}

	return tensor.New(
		tensor.WithShape(len(indices), 1, sampleShape[0], sampleShape[1], sampleShape[2]),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(data),
	), labels, nil
}
