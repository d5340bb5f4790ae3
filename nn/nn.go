// Package nn implements the small set of float32 neural-network layers the
// species classifier needs: 3D convolution and max-pooling, fully connected
// layers, ReLU, dropout, softmax cross-entropy, and SGD with momentum.
// Activations and parameters live in gorgonia tensors; forward and backward
// passes are written out explicitly.
package nn

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Param is one learnable parameter block with its accumulated gradient.
type Param struct {
	Name  string
	Value []float32
	Grad  []float32
}

func newParam(name string, size int) *Param {
	return &Param{
		Name:  name,
		Value: make([]float32, size),
		Grad:  make([]float32, size),
	}
}

// ZeroGrad clears the accumulated gradient.
func (p *Param) ZeroGrad() {
	for i := range p.Grad {
		p.Grad[i] = 0
	}
}

// Layer is one differentiable stage of a network. Forward caches whatever
// Backward needs, so a layer is not safe for concurrent use; the training
// loop is strictly sequential.
type Layer interface {
	// Forward computes the layer output. train toggles training-only
	// behavior such as dropout.
	Forward(x *tensor.Dense, train bool) (*tensor.Dense, error)
	// Backward consumes the gradient w.r.t. the layer output, accumulates
	// parameter gradients, and returns the gradient w.r.t. the input.
	Backward(grad *tensor.Dense) (*tensor.Dense, error)
	// Params returns the layer's learnable parameters, if any.
	Params() []*Param
}

// Network is a sequential stack of layers.
type Network struct {
	layers []Layer
}

// NewNetwork stacks layers in execution order.
func NewNetwork(layers ...Layer) *Network {
	return &Network{layers: layers}
}

// Forward runs the full stack.
func (n *Network) Forward(x *tensor.Dense, train bool) (*tensor.Dense, error) {
	var err error
	for i, layer := range n.layers {
		if x, err = layer.Forward(x, train); err != nil {
			return nil, errors.Wrapf(err, "nn: forward through layer %d", i)
		}
	}
	return x, nil
}

// Backward propagates the output gradient through the stack in reverse,
// accumulating parameter gradients along the way.
func (n *Network) Backward(grad *tensor.Dense) error {
	var err error
	for i := len(n.layers) - 1; i >= 0; i-- {
		if grad, err = n.layers[i].Backward(grad); err != nil {
			return errors.Wrapf(err, "nn: backward through layer %d", i)
		}
	}
	return nil
}

// Params returns every learnable parameter in the stack.
func (n *Network) Params() []*Param {
	var params []*Param
	for _, layer := range n.layers {
		params = append(params, layer.Params()...)
	}
	return params
}

// ZeroGrad clears all accumulated gradients.
func (n *Network) ZeroGrad() {
	for _, p := range n.Params() {
		p.ZeroGrad()
	}
}

// Snapshot copies every parameter value, in Params order.
func (n *Network) Snapshot() [][]float32 {
	params := n.Params()
	snap := make([][]float32, len(params))
	for i, p := range params {
		snap[i] = make([]float32, len(p.Value))
		copy(snap[i], p.Value)
	}
	return snap
}

// Restore writes a snapshot taken from the same topology back into the
// parameters.
func (n *Network) Restore(snap [][]float32) error {
	params := n.Params()
	if len(snap) != len(params) {
		return errors.Errorf("nn: snapshot has %d parameter blocks, network has %d", len(snap), len(params))
	}
	for i, p := range params {
		if len(snap[i]) != len(p.Value) {
			return errors.Errorf("nn: snapshot block %d (%s) has %d values, want %d", i, p.Name, len(snap[i]), len(p.Value))
		}
		copy(p.Value, snap[i])
	}
	return nil
}
