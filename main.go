// Command gon trains a sigmoid feedforward network on MNIST with
// mini-batch stochastic gradient descent.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"

	"github.com/AnthonyKot/gon/internal/config"
	"github.com/AnthonyKot/gon/internal/dataset"
	"github.com/AnthonyKot/gon/internal/metrics"
	"github.com/AnthonyKot/gon/internal/parallel"
	"github.com/AnthonyKot/gon/neuralnet"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (defaults are used when empty)")
	sizes := flag.String("sizes", "", "Override layer sizes, e.g. 784,30,10 (empty keeps config)")
	epochs := flag.Int("epochs", 0, "Number of epochs (0 keeps config)")
	batchSize := flag.Int("batch-size", 0, "Mini-batch size (0 keeps config)")
	eta := flag.Float64("eta", 0, "Learning rate (0 keeps config)")
	seed := flag.Uint64("seed", 0, "PRNG seed for initialization and shuffling (0 keeps config)")
	workers := flag.Int("workers", 0, "Goroutines computing per-sample gradients (0 keeps config)")
	logEvery := flag.Int("log-every", 0, "Log a metrics window every N epochs (0 keeps config)")
	trainImages := flag.String("train-images", "", "Override training images IDX file")
	trainLabels := flag.String("train-labels", "", "Override training labels IDX file")
	testImages := flag.String("test-images", "", "Override test images IDX file")
	testLabels := flag.String("test-labels", "", "Override test labels IDX file")

	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	sizeOverride, err := config.ParseSizes(*sizes)
	if err != nil {
		log.Fatalf("invalid -sizes: %v", err)
	}
	cfg.ApplyOverrides(config.Overrides{
		Sizes:         sizeOverride,
		Epochs:        *epochs,
		MiniBatchSize: *batchSize,
		Eta:           *eta,
		Seed:          *seed,
		Workers:       *workers,
		LogEvery:      *logEvery,
		TrainImages:   *trainImages,
		TrainLabels:   *trainLabels,
		TestImages:    *testImages,
		TestLabels:    *testLabels,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("training failed: %v", err)
	}
}

type data struct {
	training   []neuralnet.Sample
	validation []neuralnet.LabeledSample
	test       []neuralnet.LabeledSample
}

func loadData(cfg *config.Config) (*data, error) {
	limit := 0
	if cfg.TrainingSize > 0 {
		limit = cfg.TrainingSize + cfg.ValidationSize
	}
	full, err := dataset.LoadMNIST(cfg.TrainImages, cfg.TrainLabels, limit)
	if err != nil {
		return nil, err
	}

	train := full
	var validation *dataset.Set
	if cfg.ValidationSize > 0 {
		if train, validation, err = full.Split(full.Len() - cfg.ValidationSize); err != nil {
			return nil, fmt.Errorf("validation split: %w", err)
		}
	}
	train = train.Head(cfg.TrainingSize)

	d := &data{}
	if d.training, err = train.TrainingSamples(); err != nil {
		return nil, err
	}
	if validation != nil {
		d.validation = validation.LabeledSamples()
	}
	if cfg.TestImages != "" {
		test, err := dataset.LoadMNIST(cfg.TestImages, cfg.TestLabels, cfg.TestSize)
		if err != nil {
			return nil, err
		}
		d.test = test.LabeledSamples()
	}
	log.Printf("training=%d validation=%d test=%d features=%d", len(d.training), len(d.validation), len(d.test), train.Features())
	return d, nil
}

func run(cfg *config.Config) error {
	d, err := loadData(cfg)
	if err != nil {
		return err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	log.Printf("sizes=%v epochs=%d mini_batch_size=%d eta=%g seed=%d", cfg.Sizes, cfg.Epochs, cfg.MiniBatchSize, cfg.Eta, seed)

	net, err := neuralnet.NewNetwork(cfg.Sizes, rand.New(rand.NewPCG(seed, seed)))
	if err != nil {
		return err
	}
	if cfg.Workers > 0 {
		net.SetParallel(parallel.WithWorkers(cfg.Workers))
	}

	var window metrics.Window
	params := neuralnet.Params{
		Epochs:        cfg.Epochs,
		MiniBatchSize: cfg.MiniBatchSize,
		Eta:           cfg.Eta,
		OnEpoch: func(r neuralnet.EpochResult) {
			log.Print(r)
			window.Record(r.Samples, r.Duration, r.Correct, r.Total)
			if (r.Epoch+1)%cfg.LogEvery == 0 {
				snap := window.Snapshot()
				log.Printf("epoch=%d samples_per_sec=%.1f epoch_ms=%.1f accuracy=%.4f best=%.4f",
					r.Epoch,
					snap.SamplesPerSec,
					snap.AvgEpochMS,
					snap.Accuracy,
					snap.BestAccuracy,
				)
			}
		},
	}
	if err := net.TrainSGD(d.training, params, d.test); err != nil {
		return err
	}

	if len(d.validation) > 0 {
		correct, err := net.Evaluate(d.validation)
		if err != nil {
			return fmt.Errorf("validation: %w", err)
		}
		log.Printf("validation: %d / %d", correct, len(d.validation))
	}
	return nil
}
