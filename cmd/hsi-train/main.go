// Command hsi-train trains the hyperspectral species classifier on a
// directory of per-sample NPY cubes and reports per-epoch loss and accuracy.
package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agrovision-ai/go-hsi/classifier"
	"github.com/agrovision-ai/go-hsi/dataset"
	"github.com/agrovision-ai/go-hsi/nn"
	"github.com/agrovision-ai/go-hsi/training"
)

type options struct {
	dataDir     string
	epochs      int
	batchSize   int
	lr          float64
	momentum    float64
	valFraction float64
	seed        int64
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := training.DefaultConfig()
	opts := options{}

	cmd := &cobra.Command{
		Use:           "hsi-train",
		Short:         "Train the 3D-CNN plant species classifier on hyperspectral cubes",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.dataDir, "data-dir", "", "directory containing {class}_{index}.npy sample files")
	flags.IntVar(&opts.epochs, "epochs", defaults.Epochs, "number of training epochs")
	flags.IntVar(&opts.batchSize, "batch-size", defaults.BatchSize, "samples per batch")
	flags.Float64Var(&opts.lr, "learning-rate", float64(defaults.LearningRate), "SGD learning rate")
	flags.Float64Var(&opts.momentum, "momentum", float64(defaults.Momentum), "SGD momentum")
	flags.Float64Var(&opts.valFraction, "val-fraction", 0.2, "fraction of each class held out for validation")
	flags.Int64Var(&opts.seed, "seed", defaults.Seed, "seed for the split and weight initialization")
	_ = cmd.MarkFlagRequired("data-dir")

	return cmd
}

func run(opts options) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return errors.Wrap(err, "build logger")
	}
	defer logger.Sync() //nolint:errcheck
	log := logger.Sugar()

	device := nn.DetectDevice()
	log.Infow("compute target selected", "device", device.String())

	entries, err := dataset.Index(opts.dataDir)
	if err != nil {
		return err
	}
	ds := dataset.New(entries)
	log.Infow("dataset indexed", "dir", opts.dataDir, "samples", ds.Len())

	split, err := dataset.StratifiedSplit(ds.Labels(), opts.valFraction, opts.seed)
	if err != nil {
		return err
	}
	log.Infow("split built", "train", len(split.Train), "val", len(split.Val), "seed", opts.seed)

	// The band count comes from the data; probe the first sample.
	first, _, err := ds.At(0)
	if err != nil {
		return err
	}
	bands := first.Shape()[0]

	modelCfg := classifier.DefaultConfig(bands, len(dataset.ClassNames))
	modelCfg.Seed = opts.seed
	model, err := classifier.Build(modelCfg, device)
	if err != nil {
		return err
	}
	features, err := classifier.FeatureSize(modelCfg)
	if err != nil {
		return err
	}
	log.Infow("model built", "bands", bands, "classes", modelCfg.NumClasses, "fc_features", features)

	trainCfg := training.Config{
		Epochs:       opts.epochs,
		BatchSize:    opts.batchSize,
		LearningRate: float32(opts.lr),
		Momentum:     float32(opts.momentum),
		Seed:         opts.seed,
		Device:       device,
	}
	trainer, err := training.New(model, trainCfg, log)
	if err != nil {
		return err
	}

	hist, err := trainer.Fit(ds, split.Train, split.Val)
	if err != nil {
		return err
	}

	sum, err := hist.Summarize()
	if err != nil {
		return err
	}
	log.Infow("run summary",
		"epochs", sum.Epochs,
		"final_loss", sum.FinalLoss,
		"best_accuracy", sum.BestAccuracy,
		"best_epoch", sum.BestEpoch,
		"mean_accuracy", sum.MeanAccuracy,
		"duration", sum.Duration.String(),
	)
	return nil
}
