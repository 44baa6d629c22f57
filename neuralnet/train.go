package neuralnet

import (
	"fmt"
	"time"

	"github.com/AnthonyKot/gon/internal/parallel"
)

// Params configures a TrainSGD run.
type Params struct {
	Epochs        int     // full passes over the training data; 0 trains nothing
	MiniBatchSize int     // samples per update; the last batch of an epoch may be shorter
	Eta           float64 // learning rate

	// OnEpoch, if set, is called after every epoch.
	OnEpoch func(EpochResult)
}

// Validate reports unusable training parameters.
func (p Params) Validate() error {
	if p.Epochs < 0 {
		return fmt.Errorf("%w: epochs must be >= 0 (got %d)", ErrInvalidParams, p.Epochs)
	}
	if p.MiniBatchSize <= 0 {
		return fmt.Errorf("%w: mini-batch size must be > 0 (got %d)", ErrInvalidParams, p.MiniBatchSize)
	}
	if !(p.Eta > 0) {
		return fmt.Errorf("%w: eta must be > 0 (got %g)", ErrInvalidParams, p.Eta)
	}
	return nil
}

// EpochResult describes one completed epoch.
type EpochResult struct {
	Epoch     int
	Evaluated bool // Correct and Total are set only when test data was supplied
	Correct   int
	Total     int
	Samples   int
	Batches   int
	Duration  time.Duration
}

func (r EpochResult) String() string {
	if r.Evaluated {
		return fmt.Sprintf("epoch %d: %d / %d", r.Epoch, r.Correct, r.Total)
	}
	return fmt.Sprintf("epoch %d complete", r.Epoch)
}

// TrainSGD trains the network with mini-batch stochastic gradient descent.
//
// Each epoch shuffles trainingData in place with the network's rng, splits
// it into consecutive mini-batches and applies UpdateMiniBatch to each in
// order. If testData is non-empty the network is evaluated on it after
// every epoch. The first error aborts training.
func (nn *Network) TrainSGD(trainingData []Sample, p Params, testData []LabeledSample) error {
	if err := p.Validate(); err != nil {
		return err
	}
	n := len(trainingData)
	for j := 0; j < p.Epochs; j++ {
		start := time.Now()
		nn.rng.Shuffle(n, func(a, b int) {
			trainingData[a], trainingData[b] = trainingData[b], trainingData[a]
		})
		batches := MiniBatches(trainingData, p.MiniBatchSize)
		for k, batch := range batches {
			if err := nn.UpdateMiniBatch(batch, p.Eta); err != nil {
				return fmt.Errorf("epoch %d, mini-batch %d: %w", j, k, err)
			}
		}

		res := EpochResult{Epoch: j, Samples: n, Batches: len(batches)}
		if len(testData) > 0 {
			correct, err := nn.Evaluate(testData)
			if err != nil {
				return fmt.Errorf("epoch %d: %w", j, err)
			}
			res.Evaluated = true
			res.Correct = correct
			res.Total = len(testData)
		}
		res.Duration = time.Since(start)
		if p.OnEpoch != nil {
			p.OnEpoch(res)
		}
	}
	return nil
}

// UpdateMiniBatch applies one gradient descent step using the gradients of
// every sample in batch, averaged over len(batch) and scaled by eta.
//
// All per-sample gradients are computed before any parameter changes, so
// a failing sample leaves the network untouched.
func (nn *Network) UpdateMiniBatch(batch []Sample, eta float64) error {
	return nn.UpdateMiniBatchWith(batch, &SGD{Eta: eta})
}

// UpdateMiniBatchWith sums the per-sample gradients of batch and hands
// them to opt together with len(batch).
func (nn *Network) UpdateMiniBatchWith(batch []Sample, opt Optimizer) error {
	if len(batch) == 0 {
		return ErrEmptyMiniBatch
	}
	sum, err := nn.sumGradients(batch)
	if err != nil {
		return err
	}
	return opt.Apply(nn, sum, len(batch))
}

// sumGradients adds up the per-sample gradients of batch in sample order.
// Backprop runs concurrently within windows of the batch when parallelism
// is enabled; the window bounds how many gradient sets are alive at once.
func (nn *Network) sumGradients(batch []Sample) (*Gradients, error) {
	sum := newGradients(nn.sizes)
	window := 1
	if nn.parallel.Enabled {
		window = max(nn.parallel.NumWorkers, 1) * max(nn.parallel.MinChunkSize, 1)
	}
	grads := make([]*Gradients, min(window, len(batch)))
	for start := 0; start < len(batch); start += window {
		chunk := batch[start:min(start+window, len(batch))]
		err := parallel.ForErr(len(chunk), func(i int) error {
			g, err := nn.Backprop(chunk[i].Input, chunk[i].Target)
			if err != nil {
				return fmt.Errorf("sample %d: %w", start+i, err)
			}
			grads[i] = g
			return nil
		}, nn.parallel)
		if err != nil {
			return nil, err
		}
		for i := range chunk {
			sum.Add(grads[i])
		}
	}
	return sum, nil
}

// MiniBatches splits data into consecutive slices of size, the last one
// holding the remainder. The slices share data's backing array.
func MiniBatches[T any](data []T, size int) [][]T {
	if size <= 0 {
		return nil
	}
	batches := make([][]T, 0, (len(data)+size-1)/size)
	for k := 0; k < len(data); k += size {
		batches = append(batches, data[k:min(k+size, len(data))])
	}
	return batches
}
