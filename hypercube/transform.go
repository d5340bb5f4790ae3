package hypercube

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// TargetHeight and TargetWidth are the spatial dimensions every sample is
// resized to before it reaches the classifier.
const (
	TargetHeight = 32
	TargetWidth  = 32
)

// ResizeBilinear resizes the cube spatially to (height, width) using
// bilinear interpolation with half-pixel centers. The band count is
// unchanged.
func (c *Cube) ResizeBilinear(height, width int) (*Cube, error) {
	if height <= 0 || width <= 0 {
		return nil, errors.Errorf("hypercube: invalid resize target (%d, %d)", height, width)
	}
	if height == c.Height && width == c.Width {
		out := make([]float32, len(c.data))
		copy(out, c.data)
		return &Cube{Bands: c.Bands, Height: c.Height, Width: c.Width, data: out}, nil
	}

	scaleY := float64(c.Height) / float64(height)
	scaleX := float64(c.Width) / float64(width)
	out := make([]float32, c.Bands*height*width)

	for b := 0; b < c.Bands; b++ {
		src := c.data[b*c.Height*c.Width : (b+1)*c.Height*c.Width]
		dst := out[b*height*width : (b+1)*height*width]
		for y := 0; y < height; y++ {
			fy := (float64(y)+0.5)*scaleY - 0.5
			if fy < 0 {
				fy = 0
			}
			y0 := int(fy)
			if y0 > c.Height-1 {
				y0 = c.Height - 1
			}
			y1 := y0 + 1
			if y1 > c.Height-1 {
				y1 = c.Height - 1
			}
			wy := float32(fy - float64(y0))

			for x := 0; x < width; x++ {
				fx := (float64(x)+0.5)*scaleX - 0.5
				if fx < 0 {
					fx = 0
				}
				x0 := int(fx)
				if x0 > c.Width-1 {
					x0 = c.Width - 1
				}
				x1 := x0 + 1
				if x1 > c.Width-1 {
					x1 = c.Width - 1
				}
				wx := float32(fx - float64(x0))

				top := src[y0*c.Width+x0]*(1-wx) + src[y0*c.Width+x1]*wx
				bot := src[y1*c.Width+x0]*(1-wx) + src[y1*c.Width+x1]*wx
				dst[y*width+x] = top*(1-wy) + bot*wy
			}
		}
	}
	return &Cube{Bands: c.Bands, Height: height, Width: width, data: out}, nil
}

// Normalize rescales the cube in place to [0, 1] using the global minimum
// and maximum over all bands. A constant cube (max == min) has no intensity
// information and is set to all zeros instead of dividing by zero.
func (c *Cube) Normalize() {
	min, max := c.data[0], c.data[0]
	for _, v := range c.data[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == min {
		for i := range c.data {
			c.data[i] = 0
		}
		return
	}
	scale := 1 / (max - min)
	for i, v := range c.data {
		c.data[i] = (v - min) * scale
	}
}

// Transform runs the full per-sample pipeline: read the NPY file, reorder
// axes to (band, height, width), resize spatially to the target size, and
// min-max normalize. Nothing is cached; each call recomputes from disk.
func Transform(path string) (*tensor.Dense, error) {
	cube, err := ReadNPY(path)
	if err != nil {
		return nil, err
	}
	cube, err = cube.ResizeBilinear(TargetHeight, TargetWidth)
	if err != nil {
		return nil, err
	}
	cube.Normalize()
	return cube.Tensor(), nil
}
