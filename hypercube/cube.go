// Package hypercube loads hyperspectral sample cubes from NumPy files and
// prepares them for the classifier: band-first layout, fixed spatial size,
// intensities normalized to [0, 1].
package hypercube

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio"
	"gorgonia.org/tensor"
)

// Cube is one hyperspectral sample held in band-first (band, height, width)
// layout. Values are reflectance intensities.
type Cube struct {
	Bands  int
	Height int
	Width  int

	data []float32
}

// NewCube wraps a band-first backing slice. The slice is owned by the cube
// afterwards.
func NewCube(bands, height, width int, data []float32) (*Cube, error) {
	if bands <= 0 || height <= 0 || width <= 0 {
		return nil, errors.Errorf("hypercube: invalid dimensions (%d, %d, %d)", bands, height, width)
	}
	if want := bands * height * width; len(data) != want {
		return nil, errors.Errorf("hypercube: backing slice holds %d values, dimensions (%d, %d, %d) need %d",
			len(data), bands, height, width, want)
	}
	return &Cube{Bands: bands, Height: height, Width: width, data: data}, nil
}

// At returns the value at band b, row y, column x.
func (c *Cube) At(b, y, x int) float32 {
	return c.data[(b*c.Height+y)*c.Width+x]
}

// Data exposes the backing slice in (band, height, width) order.
func (c *Cube) Data() []float32 {
	return c.data
}

// ReadNPY reads a sample file containing a 3-dimensional (height, width,
// band) float array and returns it transposed to band-first layout. Files
// with any other rank, a Fortran-ordered payload, or a non-float dtype are
// rejected.
func ReadNPY(path string) (*Cube, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "hypercube: open sample %s", path)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "hypercube: read NPY header of %s", path)
	}

	shape := r.Header.Descr.Shape
	if len(shape) != 3 {
		return nil, errors.Errorf("hypercube: sample %s has rank %d, want 3 (height, width, band)", path, len(shape))
	}
	if r.Header.Descr.Fortran {
		return nil, errors.Errorf("hypercube: sample %s is Fortran-ordered, want C order", path)
	}
	h, w, bands := shape[0], shape[1], shape[2]
	if h <= 0 || w <= 0 || bands <= 0 {
		return nil, errors.Errorf("hypercube: sample %s has empty dimension in shape %v", path, shape)
	}

	var raw []float32
	switch r.Header.Descr.Type {
	case "<f4":
		if err := r.Read(&raw); err != nil {
			return nil, errors.Wrapf(err, "hypercube: read float32 payload of %s", path)
		}
	case "<f8":
		var raw64 []float64
		if err := r.Read(&raw64); err != nil {
			return nil, errors.Wrapf(err, "hypercube: read float64 payload of %s", path)
		}
		raw = make([]float32, len(raw64))
		for i, v := range raw64 {
			raw[i] = float32(v)
		}
	default:
		return nil, errors.Errorf("hypercube: sample %s has dtype %q, want <f4 or <f8", path, r.Header.Descr.Type)
	}
	if len(raw) != h*w*bands {
		return nil, errors.Errorf("hypercube: sample %s holds %d values, shape %v needs %d", path, len(raw), shape, h*w*bands)
	}

	// (H, W, C) on disk -> (C, H, W) in memory.
	data := make([]float32, len(raw))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for b := 0; b < bands; b++ {
				data[(b*h+y)*w+x] = raw[(y*w+x)*bands+b]
			}
		}
	}
	return &Cube{Bands: bands, Height: h, Width: w, data: data}, nil
}

// Tensor returns the cube as a (band, height, width) float32 tensor sharing
// the cube's backing slice.
func (c *Cube) Tensor() *tensor.Dense {
	return tensor.New(
		tensor.WithShape(c.Bands, c.Height, c.Width),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(c.data),
	)
}
