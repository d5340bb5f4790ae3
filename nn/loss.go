package nn

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// SoftmaxCrossEntropy combines softmax and categorical cross-entropy over a
// (N, classes) logit tensor, averaged over the batch. Combining the two
// keeps the backward pass numerically simple: ∂L/∂logits = (p - onehot)/N.
type SoftmaxCrossEntropy struct {
	probs   []float32
	labels  []int
	classes int
}

// Forward computes the mean cross-entropy of logits against integer labels.
func (l *SoftmaxCrossEntropy) Forward(logits *tensor.Dense, labels []int) (float32, error) {
	s := logits.Shape()
	if len(s) != 2 {
		return 0, errors.Errorf("nn: cross-entropy wants (N, classes) logits, got %v", s)
	}
	n, classes := s[0], s[1]
	if len(labels) != n {
		return 0, errors.Errorf("nn: %d labels for a batch of %d", len(labels), n)
	}

	in := logits.Data().([]float32)
	l.probs = make([]float32, len(in))
	l.labels = labels
	l.classes = classes

	var loss float32
	for b := 0; b < n; b++ {
		if labels[b] < 0 || labels[b] >= classes {
			return 0, errors.Errorf("nn: label %d outside [0, %d)", labels[b], classes)
		}
		row := in[b*classes : (b+1)*classes]
		probs := l.probs[b*classes : (b+1)*classes]

		// Shift by the row max before exponentiating.
		max := row[0]
		for _, v := range row[1:] {
			if v > max {
				max = v
			}
		}
		var sum float32
		for i, v := range row {
			probs[i] = math32.Exp(v - max)
			sum += probs[i]
		}
		for i := range probs {
			probs[i] /= sum
		}

		p := probs[labels[b]]
		if p < 1e-12 {
			p = 1e-12
		}
		loss -= math32.Log(p)
	}
	return loss / float32(n), nil
}

// Backward returns ∂L/∂logits for the last Forward call.
func (l *SoftmaxCrossEntropy) Backward() (*tensor.Dense, error) {
	if l.probs == nil {
		return nil, errors.New("nn: cross-entropy backward before forward")
	}
	n := len(l.labels)
	grad := make([]float32, len(l.probs))
	inv := 1 / float32(n)
	for b, label := range l.labels {
		row := l.probs[b*l.classes : (b+1)*l.classes]
		out := grad[b*l.classes : (b+1)*l.classes]
		for i, p := range row {
			out[i] = p * inv
		}
		out[label] -= inv
	}
	return tensor.New(
		tensor.WithShape(n, l.classes),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(grad),
	), nil
}

// Predictions returns the argmax class of every row of a (N, classes) logit
// tensor. Ties resolve to the lowest class index.
func Predictions(logits *tensor.Dense) ([]int, error) {
	s := logits.Shape()
	if len(s) != 2 {
		return nil, errors.Errorf("nn: predictions want (N, classes) logits, got %v", s)
	}
	n, classes := s[0], s[1]
	in := logits.Data().([]float32)
	preds := make([]int, n)
	for b := 0; b < n; b++ {
		row := in[b*classes : (b+1)*classes]
		best := 0
		for i, v := range row[1:] {
			if v > row[best] {
				best = i + 1
			}
		}
		preds[b] = best
	}
	return preds, nil
}
