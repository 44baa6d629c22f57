package neuralnet

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LossFunction defines the interface for computing loss and its gradient.
type LossFunction interface {
	// Compute returns the loss value given the output activations and target.
	Compute(output, target mat.Vector) float64
	// Derivative returns ∂C/∂a for each output neuron.
	Derivative(output, target mat.Vector) *mat.VecDense
}

// QuadraticCost implements C = ½‖a − y‖².
type QuadraticCost struct{}

// Compute returns the quadratic cost of one sample.
func (q QuadraticCost) Compute(output, target mat.Vector) float64 {
	diff := q.Derivative(output, target).RawVector().Data
	return 0.5 * floats.Dot(diff, diff)
}

// Derivative returns the derivative of the quadratic cost wrt outputs: (output - target).
func (q QuadraticCost) Derivative(output, target mat.Vector) *mat.VecDense {
	grad := mat.NewVecDense(output.Len(), nil)
	grad.SubVec(output, target)
	return grad
}
