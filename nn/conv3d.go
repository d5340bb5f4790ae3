package nn

import (
	"math/rand"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Conv3D is a valid (unpadded), stride-1 3D convolution over
// (batch, channel, depth, height, width) tensors.
type Conv3D struct {
	in, out int
	kernel  [3]int // (depth, height, width)

	weight *Param // (out, in, kd, kh, kw)
	bias   *Param // (out)

	input *tensor.Dense
}

// NewConv3D builds a convolution from in to out channels with the given
// kernel extents, Xavier-initialized from rng.
func NewConv3D(rng *rand.Rand, in, out int, kernel [3]int) *Conv3D {
	volume := kernel[0] * kernel[1] * kernel[2]
	c := &Conv3D{
		in:     in,
		out:    out,
		kernel: kernel,
		weight: newParam("conv3d.weight", out*in*volume),
		bias:   newParam("conv3d.bias", out),
	}
	xavierUniform(rng, c.weight.Value, in*volume, out*volume)
	return c
}

// OutputDims returns the spatial output extents for the given input
// extents, or an error when the kernel does not fit.
func (c *Conv3D) OutputDims(d, h, w int) (int, int, int, error) {
	od, oh, ow := d-c.kernel[0]+1, h-c.kernel[1]+1, w-c.kernel[2]+1
	if od < 1 || oh < 1 || ow < 1 {
		return 0, 0, 0, errors.Errorf("nn: conv3d kernel %v does not fit input volume (%d, %d, %d)", c.kernel, d, h, w)
	}
	return od, oh, ow, nil
}

// Forward computes the convolution of a (N, in, D, H, W) tensor.
func (c *Conv3D) Forward(x *tensor.Dense, _ bool) (*tensor.Dense, error) {
	s := x.Shape()
	if len(s) != 5 || s[1] != c.in {
		return nil, errors.Errorf("nn: conv3d wants (N, %d, D, H, W) input, got %v", c.in, s)
	}
	n, d, h, w := s[0], s[2], s[3], s[4]
	od, oh, ow, err := c.OutputDims(d, h, w)
	if err != nil {
		return nil, err
	}
	kd, kh, kw := c.kernel[0], c.kernel[1], c.kernel[2]

	in := x.Data().([]float32)
	out := make([]float32, n*c.out*od*oh*ow)
	weight := c.weight.Value

	for b := 0; b < n; b++ {
		for oc := 0; oc < c.out; oc++ {
			acc := c.bias.Value[oc]
			for zo := 0; zo < od; zo++ {
				for yo := 0; yo < oh; yo++ {
					for xo := 0; xo < ow; xo++ {
						sum := acc
						for ic := 0; ic < c.in; ic++ {
							for z := 0; z < kd; z++ {
								inPlane := (((b*c.in+ic)*d+zo+z)*h + yo) * w
								wPlane := ((oc*c.in+ic)*kd + z) * kh * kw
								for y := 0; y < kh; y++ {
									inRow := inPlane + y*w + xo
									wRow := wPlane + y*kw
									for k := 0; k < kw; k++ {
										sum += in[inRow+k] * weight[wRow+k]
									}
								}
							}
						}
						out[(((b*c.out+oc)*od+zo)*oh+yo)*ow+xo] = sum
					}
				}
			}
		}
	}

	c.input = x
	return tensor.New(
		tensor.WithShape(n, c.out, od, oh, ow),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(out),
	), nil
}

// Backward accumulates weight and bias gradients and returns the gradient
// w.r.t. the cached input.
func (c *Conv3D) Backward(grad *tensor.Dense) (*tensor.Dense, error) {
	if c.input == nil {
		return nil, errors.New("nn: conv3d backward before forward")
	}
	s := c.input.Shape()
	n, d, h, w := s[0], s[2], s[3], s[4]
	od, oh, ow, err := c.OutputDims(d, h, w)
	if err != nil {
		return nil, err
	}
	gs := grad.Shape()
	if len(gs) != 5 || gs[0] != n || gs[1] != c.out || gs[2] != od || gs[3] != oh || gs[4] != ow {
		return nil, errors.Errorf("nn: conv3d output gradient shape %v, want (%d, %d, %d, %d, %d)", gs, n, c.out, od, oh, ow)
	}
	kd, kh, kw := c.kernel[0], c.kernel[1], c.kernel[2]

	in := c.input.Data().([]float32)
	gout := grad.Data().([]float32)
	gin := make([]float32, len(in))
	weight := c.weight.Value

	for b := 0; b < n; b++ {
		for oc := 0; oc < c.out; oc++ {
			for zo := 0; zo < od; zo++ {
				for yo := 0; yo < oh; yo++ {
					for xo := 0; xo < ow; xo++ {
						g := gout[(((b*c.out+oc)*od+zo)*oh+yo)*ow+xo]
						if g == 0 {
							continue
						}
						c.bias.Grad[oc] += g
						for ic := 0; ic < c.in; ic++ {
							for z := 0; z < kd; z++ {
								inPlane := (((b*c.in+ic)*d+zo+z)*h + yo) * w
								wPlane := ((oc*c.in+ic)*kd + z) * kh * kw
								for y := 0; y < kh; y++ {
									inRow := inPlane + y*w + xo
									wRow := wPlane + y*kw
									for k := 0; k < kw; k++ {
										c.weight.Grad[wRow+k] += g * in[inRow+k]
										gin[inRow+k] += g * weight[wRow+k]
									}
								}
							}
						}
					}
				}
			}
		}
	}

	return tensor.New(
		tensor.WithShape(n, c.in, d, h, w),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(gin),
	), nil
}

// Params returns the kernel weights and biases.
func (c *Conv3D) Params() []*Param {
	return []*Param{c.weight, c.bias}
}
