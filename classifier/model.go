// Package classifier assembles the 3D-convolutional network that maps a
// normalized (band, 32, 32) hyperspectral cube to per-species class scores.
package classifier

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/agrovision-ai/go-hsi/hypercube"
	"github.com/agrovision-ai/go-hsi/nn"
)

// Config fixes the network topology. The cube is treated as a
// single-channel 3D volume with axes (band, height, width); a synthetic
// leading volume channel of size 1 is prepended when batches are built.
type Config struct {
	// Input volume extents.
	Bands  int
	Height int
	Width  int

	NumClasses int

	// Conv1Features and Conv2Features are the channel counts of the two
	// convolution stages.
	Conv1Features int
	Conv2Features int
	// Kernel extents over (band, height, width), shared by both stages.
	Kernel [3]int
	// PoolWindow is the max-pool window after the first stage.
	PoolWindow [3]int

	// HiddenUnits is the width of the fully connected head.
	HiddenUnits int
	DropoutRate float32

	// Seed drives weight initialization and the dropout mask stream.
	Seed int64
}

// DefaultConfig returns the fixed topology used for species classification:
// two (3, 3, 10) convolution stages of 32 and 64 features, a (2, 2, 2)
// max-pool between them, and a 128-unit head with 0.5 dropout.
func DefaultConfig(bands, numClasses int) Config {
	return Config{
		Bands:         bands,
		Height:        hypercube.TargetHeight,
		Width:         hypercube.TargetWidth,
		NumClasses:    numClasses,
		Conv1Features: 32,
		Conv2Features: 64,
		Kernel:        [3]int{3, 3, 10},
		PoolWindow:    [3]int{2, 2, 2},
		HiddenUnits:   128,
		DropoutRate:   0.5,
		Seed:          42,
	}
}

// FeatureSize computes the flattened feature count entering the fully
// connected head. The value is entirely determined by the input extents and
// the kernel and pool choices; it is derived here rather than hardcoded so
// a topology change cannot silently break the head.
func FeatureSize(cfg Config) (int, error) {
	d, h, w := cfg.Bands, cfg.Height, cfg.Width

	d, h, w, err := convDims(d, h, w, cfg.Kernel)
	if err != nil {
		return 0, errors.Wrap(err, "classifier: first convolution")
	}
	d, h, w = d/cfg.PoolWindow[0], h/cfg.PoolWindow[1], w/cfg.PoolWindow[2]
	if d < 1 || h < 1 || w < 1 {
		return 0, errors.Errorf("classifier: pool window %v consumes the whole volume", cfg.PoolWindow)
	}
	d, h, w, err = convDims(d, h, w, cfg.Kernel)
	if err != nil {
		return 0, errors.Wrap(err, "classifier: second convolution")
	}
	return cfg.Conv2Features * d * h * w, nil
}

func convDims(d, h, w int, kernel [3]int) (int, int, int, error) {
	od, oh, ow := d-kernel[0]+1, h-kernel[1]+1, w-kernel[2]+1
	if od < 1 || oh < 1 || ow < 1 {
		return 0, 0, 0, errors.Errorf("kernel %v does not fit volume (%d, %d, %d)", kernel, d, h, w)
	}
	return od, oh, ow, nil
}

// Build constructs the network for the given device. The forward pass is a
// pure function of (parameters, input, phase flag); only the optimizer
// mutates parameters.
func Build(cfg Config, device nn.Device) (*nn.Network, error) {
	if !device.Supported() {
		return nil, errors.Errorf("classifier: device %q is not available in this build", device)
	}
	if cfg.NumClasses < 2 {
		return nil, errors.Errorf("classifier: need at least 2 classes, got %d", cfg.NumClasses)
	}
	features, err := FeatureSize(cfg)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	return nn.NewNetwork(
		nn.NewConv3D(rng, 1, cfg.Conv1Features, cfg.Kernel),
		nn.NewReLU(),
		nn.NewMaxPool3D(cfg.PoolWindow),
		nn.NewConv3D(rng, cfg.Conv1Features, cfg.Conv2Features, cfg.Kernel),
		nn.NewReLU(),
		nn.NewFlatten(),
		nn.NewDense(rng, features, cfg.HiddenUnits),
		nn.NewReLU(),
		nn.NewDropout(rng, cfg.DropoutRate),
		nn.NewDense(rng, cfg.HiddenUnits, cfg.NumClasses),
	), nil
}
