package training

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/agrovision-ai/go-hsi/nn"
)

// Config holds the training hyperparameters.
type Config struct {
	Epochs       int
	BatchSize    int
	LearningRate float32
	Momentum     float32
	// Seed drives the per-epoch shuffle of the training indices.
	Seed   int64
	Device nn.Device
}

// DefaultConfig mirrors the pipeline's fixed constants: 25 epochs, SGD with
// momentum, seed 42.
func DefaultConfig() Config {
	return Config{
		Epochs:       25,
		BatchSize:    4,
		LearningRate: 0.001,
		Momentum:     0.9,
		Seed:         42,
		Device:       nn.CPU,
	}
}

// Trainer owns one training run over a model.
type Trainer struct {
	model *nn.Network
	loss  nn.SoftmaxCrossEntropy
	opt   nn.Optimizer
	cfg   Config
	log   *zap.SugaredLogger
	rng   *rand.Rand
}

// New builds a trainer. A nil logger disables progress output.
func New(model *nn.Network, cfg Config, log *zap.SugaredLogger) (*Trainer, error) {
	if cfg.Epochs < 1 {
		return nil, errors.Errorf("training: epoch count %d, want at least 1", cfg.Epochs)
	}
	if cfg.BatchSize < 1 {
		return nil, errors.Errorf("training: batch size %d, want at least 1", cfg.BatchSize)
	}
	if !cfg.Device.Supported() {
		return nil, errors.Errorf("training: device %q is not available in this build", cfg.Device)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Trainer{
		model: model,
		opt:   nn.NewSGD(cfg.LearningRate, cfg.Momentum),
		cfg:   cfg,
		log:   log,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Fit runs the full epoch loop: for every epoch a train phase over trainIdx
// (reshuffled each epoch) and a val phase over valIdx (fixed order).
// Parameters mutate only during train phases. The model is left holding the
// parameters of its best validation epoch.
func (t *Trainer) Fit(src Source, trainIdx, valIdx []int) (*History, error) {
	if len(trainIdx) == 0 || len(valIdx) == 0 {
		return nil, errors.Errorf("training: need non-empty splits, got train=%d val=%d", len(trainIdx), len(valIdx))
	}

	t.log.Infow("starting training run",
		"device", t.cfg.Device.String(),
		"epochs", t.cfg.Epochs,
		"batch_size", t.cfg.BatchSize,
		"train_samples", len(trainIdx),
		"val_samples", len(valIdx),
	)

	shuffled := make([]int, len(trainIdx))
	copy(shuffled, trainIdx)

	hist := &History{BestEpoch: -1}
	var best [][]float32

	for epoch := 0; epoch < t.cfg.Epochs; epoch++ {
		for _, phase := range []Phase{PhaseTrain, PhaseVal} {
			indices := valIdx
			if phase == PhaseTrain {
				t.rng.Shuffle(len(shuffled), func(i, j int) {
					shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
				})
				indices = shuffled
			}

			start := time.Now()
			loss, acc, err := t.runPhase(src, indices, phase == PhaseTrain)
			if err != nil {
				return nil, errors.Wrapf(err, "training: epoch %d %s phase", epoch, phase)
			}
			elapsed := time.Since(start)

			hist.Epochs = append(hist.Epochs, EpochMetrics{
				Epoch:    epoch,
				Phase:    phase,
				Loss:     loss,
				Accuracy: acc,
				Duration: elapsed,
			})
			if phase == PhaseTrain {
				hist.TrainLoss = append(hist.TrainLoss, loss)
			} else {
				hist.ValAccuracy = append(hist.ValAccuracy, acc)
				if acc > hist.BestAccuracy || hist.BestEpoch < 0 {
					hist.BestAccuracy = acc
					hist.BestEpoch = epoch
					best = t.model.Snapshot()
				}
			}

			t.log.Infof("epoch %d/%d %-5s loss=%.4f acc=%.4f (%s)",
				epoch+1, t.cfg.Epochs, phase, loss, acc, elapsed.Round(time.Millisecond))
		}
	}

	if best != nil {
		if err := t.model.Restore(best); err != nil {
			return nil, errors.Wrap(err, "training: restore best parameters")
		}
	}
	t.log.Infow("training finished", "best_accuracy", hist.BestAccuracy, "best_epoch", hist.BestEpoch)
	return hist, nil
}

// runPhase iterates the phase's batches sequentially, accumulating running
// loss (scaled by batch size) and running correct count. In the train phase
// each batch backpropagates, steps the optimizer, and clears gradients.
func (t *Trainer) runPhase(src Source, indices []int, train bool) (float64, float64, error) {
	var runningLoss float64
	var correct int

	for _, batch := range batches(indices, t.cfg.BatchSize) {
		x, labels, err := collate(src, batch)
		if err != nil {
			return 0, 0, err
		}

		logits, err := t.model.Forward(x, train)
		if err != nil {
			return 0, 0, err
		}
		preds, err := nn.Predictions(logits)
		if err != nil {
			return 0, 0, err
		}
		loss, err := t.loss.Forward(logits, labels)
		if err != nil {
			return 0, 0, err
		}

		if train {
			t.model.ZeroGrad()
			grad, err := t.loss.Backward()
			if err != nil {
				return 0, 0, err
			}
			if err := t.model.Backward(grad); err != nil {
				return 0, 0, err
			}
			t.opt.Step(t.model.Params())
		}

		runningLoss += float64(loss) * float64(len(batch))
		for i, p := range preds {
			if p == labels[i] {
				correct++
			}
		}
	}

	n := float64(len(indices))
	return runningLoss / n, float64(correct) / n, nil
}
