package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	Sizes         []int   `yaml:"sizes"`
	Epochs        int     `yaml:"epochs"`
	MiniBatchSize int     `yaml:"mini_batch_size"`
	Eta           float64 `yaml:"eta"`
	// Seed drives weight initialization and the per-epoch shuffle.
	// 0 picks a random seed, so runs are only reproducible with a fixed one.
	Seed     uint64 `yaml:"seed"`
	Workers  int    `yaml:"workers"`
	LogEvery int    `yaml:"log_every"`

	TrainImages string `yaml:"train_images"`
	TrainLabels string `yaml:"train_labels"`
	TestImages  string `yaml:"test_images"`
	TestLabels  string `yaml:"test_labels"`

	// TrainingSize samples of the training files are used for training and
	// the next ValidationSize for validation. 0 means "all remaining".
	TrainingSize   int `yaml:"training_size"`
	ValidationSize int `yaml:"validation_size"`
	TestSize       int `yaml:"test_size"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	Sizes         []int
	Epochs        int
	MiniBatchSize int
	Eta           float64
	Seed          uint64
	Workers       int
	LogEvery      int
	TrainImages   string
	TrainLabels   string
	TestImages    string
	TestLabels    string
}

// Default mirrors the classic MNIST run: 784-30-10, 30 epochs of
// mini-batches of 10 at eta 3.0 on a 50k/10k/10k split.
func Default() *Config {
	return &Config{
		Sizes:          []int{784, 30, 10},
		Epochs:         30,
		MiniBatchSize:  10,
		Eta:            3.0,
		LogEvery:       5,
		TrainImages:    "data/train-images-idx3-ubyte.gz",
		TrainLabels:    "data/train-labels-idx1-ubyte.gz",
		TestImages:     "data/t10k-images-idx3-ubyte.gz",
		TestLabels:     "data/t10k-labels-idx1-ubyte.gz",
		TrainingSize:   50000,
		ValidationSize: 10000,
	}
}

// Load reads and validates a Config from YAML. Keys missing from the file
// keep their Default values; unknown keys are an error.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates c using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if len(o.Sizes) > 0 {
		c.Sizes = append([]int(nil), o.Sizes...)
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.MiniBatchSize > 0 {
		c.MiniBatchSize = o.MiniBatchSize
	}
	if o.Eta > 0 {
		c.Eta = o.Eta
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.Workers > 0 {
		c.Workers = o.Workers
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.TrainImages != "" {
		c.TrainImages = o.TrainImages
	}
	if o.TrainLabels != "" {
		c.TrainLabels = o.TrainLabels
	}
	if o.TestImages != "" {
		c.TestImages = o.TestImages
	}
	if o.TestLabels != "" {
		c.TestLabels = o.TestLabels
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if len(c.Sizes) < 2 {
		return fmt.Errorf("sizes needs at least 2 layers (got %v)", c.Sizes)
	}
	for i, s := range c.Sizes {
		if s <= 0 {
			return fmt.Errorf("sizes[%d] must be > 0 (got %d)", i, s)
		}
	}
	if c.Epochs < 0 {
		return fmt.Errorf("epochs must be >= 0 (got %d)", c.Epochs)
	}
	if c.MiniBatchSize <= 0 {
		return fmt.Errorf("mini_batch_size must be > 0 (got %d)", c.MiniBatchSize)
	}
	if !(c.Eta > 0) {
		return fmt.Errorf("eta must be > 0 (got %g)", c.Eta)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0 (got %d)", c.Workers)
	}
	if c.TrainImages == "" || c.TrainLabels == "" {
		return errors.New("train_images and train_labels must be set")
	}
	if (c.TestImages == "") != (c.TestLabels == "") {
		return errors.New("test_images and test_labels must be set together")
	}
	if c.TrainingSize < 0 || c.ValidationSize < 0 || c.TestSize < 0 {
		return errors.New("training_size, validation_size and test_size must be >= 0")
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 5
	}
	return nil
}

// ParseSizes parses a comma separated layer list such as "784,30,10".
func ParseSizes(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	sizes := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("sizes[%d]: %w", i, err)
		}
		sizes[i] = v
	}
	return sizes, nil
}
