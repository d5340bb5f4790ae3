package nn

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Flatten collapses every non-batch dimension into one feature axis.
type Flatten struct {
	inShape tensor.Shape
}

// NewFlatten returns a flatten layer.
func NewFlatten() *Flatten { return &Flatten{} }

// Forward reshapes (N, ...) to (N, features), sharing the backing slice.
func (f *Flatten) Forward(x *tensor.Dense, _ bool) (*tensor.Dense, error) {
	s := x.Shape()
	if len(s) < 2 {
		return nil, errors.Errorf("nn: flatten wants at least rank 2, got %v", s)
	}
	f.inShape = s.Clone()
	features := 1
	for _, dim := range s[1:] {
		features *= dim
	}
	return tensor.New(
		tensor.WithShape(s[0], features),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(x.Data().([]float32)),
	), nil
}

// Backward reshapes the gradient back to the cached input shape.
func (f *Flatten) Backward(grad *tensor.Dense) (*tensor.Dense, error) {
	if f.inShape == nil {
		return nil, errors.New("nn: flatten backward before forward")
	}
	gout := grad.Data().([]float32)
	if len(gout) != f.inShape.TotalSize() {
		return nil, errors.Errorf("nn: flatten gradient has %d values, want %d", len(gout), f.inShape.TotalSize())
	}
	return tensor.New(
		tensor.WithShape(f.inShape...),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(gout),
	), nil
}

// Params returns nil.
func (f *Flatten) Params() []*Param { return nil }
