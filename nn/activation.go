package nn

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// ReLU is the rectified linear activation, applied elementwise.
type ReLU struct {
	mask []bool
}

// NewReLU returns a ReLU layer.
func NewReLU() *ReLU { return &ReLU{} }

// Forward clamps negatives to zero.
func (r *ReLU) Forward(x *tensor.Dense, _ bool) (*tensor.Dense, error) {
	in := x.Data().([]float32)
	out := make([]float32, len(in))
	r.mask = make([]bool, len(in))
	for i, v := range in {
		if v > 0 {
			out[i] = v
			r.mask[i] = true
		}
	}
	return tensor.New(
		tensor.WithShape(x.Shape().Clone()...),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(out),
	), nil
}

// Backward zeroes gradients where the activation was clamped.
func (r *ReLU) Backward(grad *tensor.Dense) (*tensor.Dense, error) {
	if r.mask == nil {
		return nil, errors.New("nn: relu backward before forward")
	}
	gout := grad.Data().([]float32)
	if len(gout) != len(r.mask) {
		return nil, errors.Errorf("nn: relu gradient has %d values, want %d", len(gout), len(r.mask))
	}
	gin := make([]float32, len(gout))
	for i, pass := range r.mask {
		if pass {
			gin[i] = gout[i]
		}
	}
	return tensor.New(
		tensor.WithShape(grad.Shape().Clone()...),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(gin),
	), nil
}

// Params returns nil.
func (r *ReLU) Params() []*Param { return nil }
