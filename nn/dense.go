package nn

import (
	"math/rand"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Dense is a fully connected layer: y = x·Wᵀ + b.
type Dense struct {
	in, out int

	weight *Param // (out, in)
	bias   *Param // (out)

	input *tensor.Dense
}

// NewDense builds a fully connected layer, Xavier-initialized from rng.
func NewDense(rng *rand.Rand, in, out int) *Dense {
	d := &Dense{
		in:     in,
		out:    out,
		weight: newParam("dense.weight", out*in),
		bias:   newParam("dense.bias", out),
	}
	xavierUniform(rng, d.weight.Value, in, out)
	return d
}

// Forward maps a (N, in) tensor to (N, out).
func (d *Dense) Forward(x *tensor.Dense, _ bool) (*tensor.Dense, error) {
	s := x.Shape()
	if len(s) != 2 || s[1] != d.in {
		return nil, errors.Errorf("nn: dense wants (N, %d) input, got %v", d.in, s)
	}
	n := s[0]
	in := x.Data().([]float32)
	out := make([]float32, n*d.out)

	for b := 0; b < n; b++ {
		row := in[b*d.in : (b+1)*d.in]
		for o := 0; o < d.out; o++ {
			sum := d.bias.Value[o]
			w := d.weight.Value[o*d.in : (o+1)*d.in]
			for i, v := range row {
				sum += v * w[i]
			}
			out[b*d.out+o] = sum
		}
	}

	d.input = x
	return tensor.New(
		tensor.WithShape(n, d.out),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(out),
	), nil
}

// Backward accumulates dW = gᵀ·x and db = Σg, returning dx = g·W.
func (d *Dense) Backward(grad *tensor.Dense) (*tensor.Dense, error) {
	if d.input == nil {
		return nil, errors.New("nn: dense backward before forward")
	}
	n := d.input.Shape()[0]
	gs := grad.Shape()
	if len(gs) != 2 || gs[0] != n || gs[1] != d.out {
		return nil, errors.Errorf("nn: dense output gradient shape %v, want (%d, %d)", gs, n, d.out)
	}

	in := d.input.Data().([]float32)
	gout := grad.Data().([]float32)
	gin := make([]float32, n*d.in)

	for b := 0; b < n; b++ {
		row := in[b*d.in : (b+1)*d.in]
		ginRow := gin[b*d.in : (b+1)*d.in]
		for o := 0; o < d.out; o++ {
			g := gout[b*d.out+o]
			if g == 0 {
				continue
			}
			d.bias.Grad[o] += g
			w := d.weight.Value[o*d.in : (o+1)*d.in]
			wg := d.weight.Grad[o*d.in : (o+1)*d.in]
			for i, v := range row {
				wg[i] += g * v
				ginRow[i] += g * w[i]
			}
		}
	}

	return tensor.New(
		tensor.WithShape(n, d.in),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(gin),
	), nil
}

// Params returns the weights and biases.
func (d *Dense) Params() []*Param {
	return []*Param{d.weight, d.bias}
}
