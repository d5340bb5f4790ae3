package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/agrovision-ai/go-hsi/nn"
)

func TestFeatureSizeIsDerivedFromTopology(t *testing.T) {
	cfg := DefaultConfig(12, 7)

	// (12, 32, 32) -conv(3,3,10)-> (10, 30, 23) -pool(2,2,2)-> (5, 15, 11)
	// -conv(3,3,10)-> (3, 13, 2), times 64 features.
	features, err := FeatureSize(cfg)
	require.NoError(t, err)
	assert.Equal(t, 64*3*13*2, features)
}

func TestFeatureSizeTracksConfigChanges(t *testing.T) {
	cfg := DefaultConfig(12, 7)
	cfg.Kernel = [3]int{3, 3, 3}
	cfg.Conv2Features = 16

	// (12, 32, 32) -> (10, 30, 30) -> (5, 15, 15) -> (3, 13, 13).
	features, err := FeatureSize(cfg)
	require.NoError(t, err)
	assert.Equal(t, 16*3*13*13, features)
}

func TestFeatureSizeRejectsTooFewBands(t *testing.T) {
	_, err := FeatureSize(DefaultConfig(5, 7))
	require.Error(t, err, "the spectral kernel cannot fit a 5-band cube after pooling")
}

func TestBuildForwardProducesLogitsPerClass(t *testing.T) {
	cfg := DefaultConfig(10, 7)
	net, err := Build(cfg, nn.CPU)
	require.NoError(t, err)

	batch := 3
	data := make([]float32, batch*cfg.Bands*cfg.Height*cfg.Width)
	for i := range data {
		data[i] = float32(i%11) / 11
	}
	x := tensor.New(
		tensor.WithShape(batch, 1, cfg.Bands, cfg.Height, cfg.Width),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(data),
	)

	logits, err := net.Forward(x, false)
	require.NoError(t, err)
	assert.Equal(t, []int{batch, cfg.NumClasses}, []int(logits.Shape()))
}

func TestBuildIsDeterministicPerSeed(t *testing.T) {
	cfg := DefaultConfig(10, 7)
	a, err := Build(cfg, nn.CPU)
	require.NoError(t, err)
	b, err := Build(cfg, nn.CPU)
	require.NoError(t, err)

	pa, pb := a.Params(), b.Params()
	require.Equal(t, len(pa), len(pb))
	for i := range pa {
		assert.Equal(t, pa[i].Value, pb[i].Value, "same seed must reproduce initialization of block %d", i)
	}
}

func TestBuildRejectsUnsupportedDevice(t *testing.T) {
	_, err := Build(DefaultConfig(10, 7), nn.CUDA)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")
}
