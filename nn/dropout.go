package nn

import (
	"math/rand"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Dropout zeroes a fraction of activations during training, scaling the
// survivors by 1/(1-rate) so evaluation needs no rescaling (inverted
// dropout). Outside training it is the identity.
type Dropout struct {
	rate float32
	rng  *rand.Rand

	mask []float32 // nil when the last forward ran in eval mode
}

// NewDropout builds a dropout layer with the given drop rate in [0, 1).
func NewDropout(rng *rand.Rand, rate float32) *Dropout {
	return &Dropout{rate: rate, rng: rng}
}

// Forward applies the mask in training mode and passes through otherwise.
func (d *Dropout) Forward(x *tensor.Dense, train bool) (*tensor.Dense, error) {
	if d.rate < 0 || d.rate >= 1 {
		return nil, errors.Errorf("nn: dropout rate %v outside [0, 1)", d.rate)
	}
	if !train || d.rate == 0 {
		d.mask = nil
		return x, nil
	}

	in := x.Data().([]float32)
	out := make([]float32, len(in))
	d.mask = make([]float32, len(in))
	keep := 1 / (1 - d.rate)
	for i, v := range in {
		if d.rng.Float32() >= d.rate {
			d.mask[i] = keep
			out[i] = v * keep
		}
	}
	return tensor.New(
		tensor.WithShape(x.Shape().Clone()...),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(out),
	), nil
}

// Backward applies the same mask to the gradient.
func (d *Dropout) Backward(grad *tensor.Dense) (*tensor.Dense, error) {
	if d.mask == nil {
		return grad, nil
	}
	gout := grad.Data().([]float32)
	if len(gout) != len(d.mask) {
		return nil, errors.Errorf("nn: dropout gradient has %d values, want %d", len(gout), len(d.mask))
	}
	gin := make([]float32, len(gout))
	for i, m := range d.mask {
		gin[i] = gout[i] * m
	}
	return tensor.New(
		tensor.WithShape(grad.Shape().Clone()...),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(gin),
	), nil
}

// Params returns nil.
func (d *Dropout) Params() []*Param { return nil }
