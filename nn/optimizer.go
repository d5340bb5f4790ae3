package nn

// Optimizer applies accumulated gradients to parameters.
type Optimizer interface {
	Step(params []*Param)
}

// SGD is stochastic gradient descent with classical momentum:
// v = momentum·v + g, w = w − lr·v.
type SGD struct {
	LR       float32
	Momentum float32

	velocity map[*Param][]float32
}

// NewSGD builds an SGD optimizer.
func NewSGD(lr, momentum float32) *SGD {
	return &SGD{LR: lr, Momentum: momentum, velocity: map[*Param][]float32{}}
}

// Step updates every parameter from its accumulated gradient. Gradients are
// left untouched; the caller zeroes them between batches.
func (s *SGD) Step(params []*Param) {
	for _, p := range params {
		v, ok := s.velocity[p]
		if !ok {
			v = make([]float32, len(p.Value))
			s.velocity[p] = v
		}
		for i, g := range p.Grad {
			v[i] = s.Momentum*v[i] + g
			p.Value[i] -= s.LR * v[i]
		}
	}
}
