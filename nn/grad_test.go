package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

// TestGradientsMatchFiniteDifferences backpropagates through a miniature
// conv-pool-dense stack and checks every analytic parameter gradient
// against a central finite difference of the loss.
func TestGradientsMatchFiniteDifferences(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	net := NewNetwork(
		NewConv3D(rng, 1, 2, [3]int{2, 2, 2}),
		NewReLU(),
		NewMaxPool3D([3]int{2, 2, 2}),
		NewFlatten(),
		NewDense(rng, 2*1*2*2, 3),
	)
	var loss SoftmaxCrossEntropy
	labels := []int{1, 2}

	data := make([]float32, 2*1*4*6*6)
	for i := range data {
		data[i] = rng.Float32()
	}
	x := tensor.New(tensor.WithShape(2, 1, 4, 6, 6), tensor.Of(tensor.Float32), tensor.WithBacking(data))

	forward := func() float32 {
		logits, err := net.Forward(x, false)
		require.NoError(t, err)
		l, err := loss.Forward(logits, labels)
		require.NoError(t, err)
		return l
	}

	// Analytic gradients.
	net.ZeroGrad()
	forward()
	grad, err := loss.Backward()
	require.NoError(t, err)
	require.NoError(t, net.Backward(grad))

	const eps = 1e-2
	for _, p := range net.Params() {
		// Probe a spread of positions rather than every weight.
		stride := len(p.Value)/7 + 1
		for i := 0; i < len(p.Value); i += stride {
			orig := p.Value[i]

			p.Value[i] = orig + eps
			plus := forward()
			p.Value[i] = orig - eps
			minus := forward()
			p.Value[i] = orig

			numeric := (plus - minus) / (2 * eps)
			assert.InDelta(t, numeric, p.Grad[i], 5e-3,
				"%s[%d]: analytic %v vs numeric %v", p.Name, i, p.Grad[i], numeric)
		}
	}
}

// TestBackwardInputGradientMatchesFiniteDifferences checks the gradient a
// layer hands to its upstream neighbor, using a lone dense layer.
func TestBackwardInputGradientMatchesFiniteDifferences(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	d := NewDense(rng, 4, 3)
	var loss SoftmaxCrossEntropy
	labels := []int{2}

	data := []float32{0.3, -0.8, 1.2, 0.05}
	forward := func() float32 {
		x := tensor.New(tensor.WithShape(1, 4), tensor.Of(tensor.Float32), tensor.WithBacking(data))
		logits, err := d.Forward(x, false)
		require.NoError(t, err)
		l, err := loss.Forward(logits, labels)
		require.NoError(t, err)
		return l
	}

	for _, p := range d.Params() {
		p.ZeroGrad()
	}
	forward()
	g, err := loss.Backward()
	require.NoError(t, err)
	gin, err := d.Backward(g)
	require.NoError(t, err)
	analytic := gin.Data().([]float32)

	const eps = 1e-2
	for i := range data {
		orig := data[i]
		data[i] = orig + eps
		plus := forward()
		data[i] = orig - eps
		minus := forward()
		data[i] = orig

		numeric := (plus - minus) / (2 * eps)
		assert.InDelta(t, numeric, analytic[i], 1e-3, "input[%d]", i)
	}
}
