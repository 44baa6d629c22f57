package neuralnet

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Optimizer applies the summed gradients of one mini-batch to a network.
type Optimizer interface {
	Apply(nn *Network, sum *Gradients, batchSize int) error
}

// SGD implements plain stochastic gradient descent:
//
//	w -= (Eta / batchSize) * sum(∂C/∂w)
//	b -= (Eta / batchSize) * sum(∂C/∂b)
type SGD struct {
	Eta float64
}

// Apply averages sum over batchSize samples and takes one descent step.
func (o *SGD) Apply(nn *Network, sum *Gradients, batchSize int) error {
	if batchSize <= 0 {
		return fmt.Errorf("%w: batch size %d", ErrEmptyMiniBatch, batchSize)
	}
	if err := nn.checkGradients(sum); err != nil {
		return err
	}
	nn.applyAveragedGradients(sum, o.Eta/float64(batchSize))
	return nil
}

func (nn *Network) applyAveragedGradients(sum *Gradients, rate float64) {
	for i := range nn.weights {
		r, c := nn.weights[i].Dims()
		step := mat.NewDense(r, c, nil)
		step.Scale(rate, sum.Weights[i])
		nn.weights[i].Sub(nn.weights[i], step)
		nn.biases[i].AddScaledVec(nn.biases[i], -rate, sum.Biases[i])
	}
}

func (nn *Network) checkGradients(g *Gradients) error {
	if g == nil || len(g.Weights) != len(nn.weights) || len(g.Biases) != len(nn.biases) {
		return fmt.Errorf("%w: gradients do not match %d layers", ErrDimensionMismatch, nn.numLayers)
	}
	for i := range nn.weights {
		r, c := nn.weights[i].Dims()
		gr, gc := g.Weights[i].Dims()
		if gr != r || gc != c || g.Biases[i].Len() != nn.biases[i].Len() {
			return fmt.Errorf("%w: layer %d gradient is %dx%d/%d, want %dx%d/%d",
				ErrDimensionMismatch, i, gr, gc, g.Biases[i].Len(), r, c, nn.biases[i].Len())
		}
	}
	return nil
}
