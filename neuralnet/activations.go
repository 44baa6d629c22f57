package neuralnet

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Sigmoid is the logistic activation used by every layer of the network.
type Sigmoid struct{}

// Activate returns 1 / (1 + e^-x) without overflowing for large |x|.
// In float64 the result saturates to exactly 1 for x above about 37 and
// to exactly 0 for x below about -745, where Derivative is 0.
func (s Sigmoid) Activate(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

func (s Sigmoid) Derivative(x float64) float64 {
	sigmoid := s.Activate(x)
	return sigmoid * (1 - sigmoid)
}

// ActivateVec applies Activate element-wise and returns a new vector.
func (s Sigmoid) ActivateVec(z mat.Vector) *mat.VecDense {
	return applyVec(z, s.Activate)
}

// DerivativeVec applies Derivative element-wise and returns a new vector.
func (s Sigmoid) DerivativeVec(z mat.Vector) *mat.VecDense {
	return applyVec(z, s.Derivative)
}

func applyVec(v mat.Vector, fn func(float64) float64) *mat.VecDense {
	out := mat.NewVecDense(v.Len(), nil)
	for i := 0; i < v.Len(); i++ {
		out.SetVec(i, fn(v.AtVec(i)))
	}
	return out
}
