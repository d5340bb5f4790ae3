// Package training drives the epoch/phase loop over a sample source:
// forward, loss, backward, optimizer step, and per-epoch metrics.
package training

import (
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// Phase is one pass within an epoch.
type Phase string

const (
	// PhaseTrain enables dropout and parameter updates.
	PhaseTrain Phase = "train"
	// PhaseVal evaluates with parameters frozen.
	PhaseVal Phase = "val"
)

// EpochMetrics records one phase of one epoch.
type EpochMetrics struct {
	Epoch    int           `json:"epoch"`
	Phase    Phase         `json:"phase"`
	Loss     float64       `json:"loss"`
	Accuracy float64       `json:"accuracy"`
	Duration time.Duration `json:"duration"`
}

// History accumulates metrics across a training run.
type History struct {
	// TrainLoss holds one entry per epoch, from the train phase.
	TrainLoss []float64 `json:"train_loss"`
	// ValAccuracy holds one entry per epoch, from the val phase.
	ValAccuracy []float64 `json:"val_accuracy"`
	// Epochs holds every (epoch, phase) record in emission order.
	Epochs []EpochMetrics `json:"epochs"`

	// BestAccuracy is the highest validation accuracy seen, and BestEpoch
	// the epoch (0-based) it occurred in.
	BestAccuracy float64 `json:"best_accuracy"`
	BestEpoch    int     `json:"best_epoch"`
}

// Summary condenses a finished run.
type Summary struct {
	Epochs       int           `json:"epochs"`
	FinalLoss    float64       `json:"final_loss"`
	BestAccuracy float64       `json:"best_accuracy"`
	BestEpoch    int           `json:"best_epoch"`
	MeanAccuracy float64       `json:"mean_accuracy"`
	Duration     time.Duration `json:"duration"`
}

// Summarize reduces the history to a run summary.
func (h *History) Summarize() (Summary, error) {
	if len(h.TrainLoss) == 0 || len(h.ValAccuracy) == 0 {
		return Summary{}, errors.New("training: empty history")
	}
	mean, err := stats.Mean(stats.Float64Data(h.ValAccuracy))
	if err != nil {
		return Summary{}, errors.Wrap(err, "training: mean validation accuracy")
	}
	var total time.Duration
	for _, e := range h.Epochs {
		total += e.Duration
	}
	return Summary{
		Epochs:       len(h.TrainLoss),
		FinalLoss:    h.TrainLoss[len(h.TrainLoss)-1],
		BestAccuracy: h.BestAccuracy,
		BestEpoch:    h.BestEpoch,
		MeanAccuracy: mean,
		Duration:     total,
	}, nil
}
