package neuralnet

import "gonum.org/v1/gonum/mat"

// Gradients holds ∂C/∂b and ∂C/∂w for every layer, shaped like the
// network's biases and weights. A mini-batch sums per-sample Gradients
// into a fresh zero-filled value.
type Gradients struct {
	Biases  []*mat.VecDense
	Weights []*mat.Dense
}

func newGradients(sizes []int) *Gradients {
	g := &Gradients{
		Biases:  make([]*mat.VecDense, len(sizes)-1),
		Weights: make([]*mat.Dense, len(sizes)-1),
	}
	for i := range g.Biases {
		g.Biases[i] = mat.NewVecDense(sizes[i+1], nil)
		g.Weights[i] = mat.NewDense(sizes[i+1], sizes[i], nil)
	}
	return g
}

// Add accumulates other into g layer by layer.
func (g *Gradients) Add(other *Gradients) {
	for i := range g.Biases {
		g.Biases[i].AddVec(g.Biases[i], other.Biases[i])
		g.Weights[i].Add(g.Weights[i], other.Weights[i])
	}
}
