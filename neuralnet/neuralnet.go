package neuralnet

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/AnthonyKot/gon/internal/parallel"
)

// Sample is a training pair: an input vector and its one-hot target.
type Sample struct {
	Input  *mat.VecDense
	Target *mat.VecDense
}

// LabeledSample is an evaluation pair: an input vector and the index of
// the output neuron that should fire.
type LabeledSample struct {
	Input *mat.VecDense
	Label int
}

// Network is a fully-connected feedforward network with sigmoid neurons.
//
// weights[i] has shape sizes[i+1] x sizes[i] and maps the activations of
// layer i to the pre-activations of layer i+1; biases[i] has length
// sizes[i+1]. The parameters are owned by the Network and only change
// through UpdateMiniBatch. A Network is not safe for concurrent use.
type Network struct {
	numLayers  int
	sizes      []int
	biases     []*mat.VecDense
	weights    []*mat.Dense
	activation Sigmoid
	cost       LossFunction
	rng        *rand.Rand
	parallel   parallel.Config
}

// NewNetwork builds a network with the given layer sizes. sizes[0] is the
// input dimension and the last entry the output dimension.
//
// Every weight and bias is drawn from a standard normal distribution using
// rng, which is also the source of the per-epoch shuffle in TrainSGD. Pass
// a seeded rng for reproducible runs; nil uses a randomly seeded source.
func NewNetwork(sizes []int, rng *rand.Rand) (*Network, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 layers, got %d", ErrInvalidTopology, len(sizes))
	}
	for i, size := range sizes {
		if size <= 0 {
			return nil, fmt.Errorf("%w: layer %d has size %d", ErrInvalidTopology, i, size)
		}
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	nn := &Network{
		numLayers: len(sizes),
		sizes:     append([]int(nil), sizes...),
		biases:    make([]*mat.VecDense, len(sizes)-1),
		weights:   make([]*mat.Dense, len(sizes)-1),
		cost:      QuadraticCost{},
		rng:       rng,
		parallel:  parallel.Sequential(),
	}
	for i := range nn.biases {
		b := make([]float64, sizes[i+1])
		for k := range b {
			b[k] = rng.NormFloat64()
		}
		nn.biases[i] = mat.NewVecDense(sizes[i+1], b)
	}
	for i := range nn.weights {
		w := make([]float64, sizes[i+1]*sizes[i])
		for k := range w {
			w[k] = rng.NormFloat64()
		}
		nn.weights[i] = mat.NewDense(sizes[i+1], sizes[i], w)
	}
	return nn, nil
}

// SetParallel controls how per-sample gradients of one mini-batch are
// computed. Results are identical to the sequential path because the
// gradients are always summed in sample order.
func (nn *Network) SetParallel(cfg parallel.Config) {
	nn.parallel = cfg
}

func (nn *Network) NumLayers() int {
	return nn.numLayers
}

// Sizes returns a copy of the layer sizes.
func (nn *Network) Sizes() []int {
	return append([]int(nil), nn.sizes...)
}

// Weights returns a copy of the weight matrices.
func (nn *Network) Weights() []*mat.Dense {
	out := make([]*mat.Dense, len(nn.weights))
	for i, w := range nn.weights {
		out[i] = mat.DenseCopyOf(w)
	}
	return out
}

// Biases returns a copy of the bias vectors.
func (nn *Network) Biases() []*mat.VecDense {
	out := make([]*mat.VecDense, len(nn.biases))
	for i, b := range nn.biases {
		out[i] = mat.VecDenseCopyOf(b)
	}
	return out
}

// FeedForward returns the output of the network for input a.
func (nn *Network) FeedForward(a *mat.VecDense) (*mat.VecDense, error) {
	if err := nn.checkInput(a); err != nil {
		return nil, err
	}
	for i, w := range nn.weights {
		z := mat.NewVecDense(nn.sizes[i+1], nil)
		z.MulVec(w, a)
		z.AddVec(z, nn.biases[i])
		a = nn.activation.ActivateVec(z)
	}
	return a, nil
}

// Backprop returns the gradient of the network's cost for the single
// sample (x, y) with respect to every bias and weight. The network is not
// modified.
func (nn *Network) Backprop(x, y *mat.VecDense) (*Gradients, error) {
	if err := nn.checkInput(x); err != nil {
		return nil, err
	}
	if err := nn.checkTarget(y); err != nil {
		return nil, err
	}

	// forward pass: zs[i] is the pre-activation of layer i+1,
	// activations[i] the activation of layer i (activations[0] = x)
	zs := make([]*mat.VecDense, len(nn.weights))
	activations := make([]*mat.VecDense, nn.numLayers)
	activations[0] = x
	for i, w := range nn.weights {
		z := mat.NewVecDense(nn.sizes[i+1], nil)
		z.MulVec(w, activations[i])
		z.AddVec(z, nn.biases[i])
		zs[i] = z
		activations[i+1] = nn.activation.ActivateVec(z)
	}

	g := newGradients(nn.sizes)

	// output layer error
	last := len(nn.weights) - 1
	delta := nn.cost.Derivative(activations[last+1], y)
	delta.MulElemVec(delta, nn.activation.DerivativeVec(zs[last]))
	g.Biases[last].CopyVec(delta)
	g.Weights[last].Outer(1, delta, activations[last])

	// propagate towards the input
	for i := last - 1; i >= 0; i-- {
		next := mat.NewVecDense(nn.sizes[i+1], nil)
		next.MulVec(nn.weights[i+1].T(), delta)
		next.MulElemVec(next, nn.activation.DerivativeVec(zs[i]))
		delta = next
		g.Biases[i].CopyVec(delta)
		g.Weights[i].Outer(1, delta, activations[i])
	}
	return g, nil
}

// Evaluate returns how many samples of testData the network classifies
// correctly. The prediction is the index of the largest output activation,
// the lowest index winning ties.
func (nn *Network) Evaluate(testData []LabeledSample) (int, error) {
	correct := 0
	for i, s := range testData {
		out, err := nn.FeedForward(s.Input)
		if err != nil {
			return 0, fmt.Errorf("test sample %d: %w", i, err)
		}
		if floats.MaxIdx(out.RawVector().Data) == s.Label {
			correct++
		}
	}
	return correct, nil
}

// Cost returns the mean cost over data.
func (nn *Network) Cost(data []Sample) (float64, error) {
	if len(data) == 0 {
		return 0, nil
	}
	total := 0.0
	for i, s := range data {
		if err := nn.checkTarget(s.Target); err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
		out, err := nn.FeedForward(s.Input)
		if err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
		total += nn.cost.Compute(out, s.Target)
	}
	return total / float64(len(data)), nil
}

func (nn *Network) checkInput(x *mat.VecDense) error {
	if x == nil {
		return fmt.Errorf("%w: nil input, want %d", ErrDimensionMismatch, nn.sizes[0])
	}
	if x.Len() != nn.sizes[0] {
		return fmt.Errorf("%w: input has %d entries, want %d", ErrDimensionMismatch, x.Len(), nn.sizes[0])
	}
	return nil
}

func (nn *Network) checkTarget(y *mat.VecDense) error {
	out := nn.sizes[nn.numLayers-1]
	if y == nil {
		return fmt.Errorf("%w: nil target, want %d", ErrDimensionMismatch, out)
	}
	if y.Len() != out {
		return fmt.Errorf("%w: target has %d entries, want %d", ErrDimensionMismatch, y.Len(), out)
	}
	return nil
}

// Define the String() method for the Network type
func (nn *Network) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Network %v\n", nn.sizes))
	for i := range nn.weights {
		r, c := nn.weights[i].Dims()
		sb.WriteString(fmt.Sprintf("Layer %d: weights=%dx%d biases=%d\n", i+1, r, c, nn.biases[i].Len()))
	}
	return sb.String()
}
