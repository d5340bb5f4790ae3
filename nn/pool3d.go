package nn

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// MaxPool3D is a non-overlapping 3D max-pool: window extents equal the
// stride, trailing elements that do not fill a window are dropped.
type MaxPool3D struct {
	window [3]int

	inShape tensor.Shape
	argmax  []int
}

// NewMaxPool3D builds a pool with the given (depth, height, width) window.
func NewMaxPool3D(window [3]int) *MaxPool3D {
	return &MaxPool3D{window: window}
}

// OutputDims returns the pooled extents, or an error if no full window fits.
func (p *MaxPool3D) OutputDims(d, h, w int) (int, int, int, error) {
	od, oh, ow := d/p.window[0], h/p.window[1], w/p.window[2]
	if od < 1 || oh < 1 || ow < 1 {
		return 0, 0, 0, errors.Errorf("nn: maxpool3d window %v does not fit input volume (%d, %d, %d)", p.window, d, h, w)
	}
	return od, oh, ow, nil
}

// Forward pools a (N, C, D, H, W) tensor, recording the winner of every
// window for the backward pass.
func (p *MaxPool3D) Forward(x *tensor.Dense, _ bool) (*tensor.Dense, error) {
	s := x.Shape()
	if len(s) != 5 {
		return nil, errors.Errorf("nn: maxpool3d wants a rank-5 input, got %v", s)
	}
	n, c, d, h, w := s[0], s[1], s[2], s[3], s[4]
	od, oh, ow, err := p.OutputDims(d, h, w)
	if err != nil {
		return nil, err
	}
	wd, wh, ww := p.window[0], p.window[1], p.window[2]

	in := x.Data().([]float32)
	out := make([]float32, n*c*od*oh*ow)
	p.argmax = make([]int, len(out))
	p.inShape = s.Clone()

	o := 0
	for b := 0; b < n; b++ {
		for ch := 0; ch < c; ch++ {
			base := (b*c + ch) * d * h * w
			for zo := 0; zo < od; zo++ {
				for yo := 0; yo < oh; yo++ {
					for xo := 0; xo < ow; xo++ {
						best := base + (zo*wd*h+yo*wh)*w + xo*ww
						bestV := in[best]
						for z := 0; z < wd; z++ {
							for y := 0; y < wh; y++ {
								row := base + ((zo*wd+z)*h+yo*wh+y)*w + xo*ww
								for k := 0; k < ww; k++ {
									if in[row+k] > bestV {
										bestV = in[row+k]
										best = row + k
									}
								}
							}
						}
						out[o] = bestV
						p.argmax[o] = best
						o++
					}
				}
			}
		}
	}

	return tensor.New(
		tensor.WithShape(n, c, od, oh, ow),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(out),
	), nil
}

// Backward routes each output gradient to the input element that won its
// window.
func (p *MaxPool3D) Backward(grad *tensor.Dense) (*tensor.Dense, error) {
	if p.argmax == nil {
		return nil, errors.New("nn: maxpool3d backward before forward")
	}
	gout := grad.Data().([]float32)
	if len(gout) != len(p.argmax) {
		return nil, errors.Errorf("nn: maxpool3d gradient has %d values, want %d", len(gout), len(p.argmax))
	}

	gin := make([]float32, p.inShape.TotalSize())
	for i, src := range p.argmax {
		gin[src] += gout[i]
	}
	return tensor.New(
		tensor.WithShape(p.inShape...),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(gin),
	), nil
}

// Params returns nil; pooling has no learnable parameters.
func (p *MaxPool3D) Params() []*Param { return nil }
