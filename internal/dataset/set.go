package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"github.com/AnthonyKot/gon/neuralnet"
)

// Set is a labelled dataset: one image per row of Images.
type Set struct {
	Images  *tensor.Dense // [n, features]
	Labels  []int
	Classes int
}

// NewSet checks that images and labels line up and every label is a
// valid class index.
func NewSet(images *tensor.Dense, labels []int, classes int) (*Set, error) {
	shape := images.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("images must be 2-D, got shape %v", shape)
	}
	if shape[0] != len(labels) {
		return nil, fmt.Errorf("%d images but %d labels", shape[0], len(labels))
	}
	if _, ok := images.Data().([]float64); !ok {
		return nil, fmt.Errorf("images must be float64, got %v", images.Dtype())
	}
	for i, l := range labels {
		if l < 0 || l >= classes {
			return nil, fmt.Errorf("%w: sample %d has label %d, want [0, %d)", ErrBadLabel, i, l, classes)
		}
	}
	return &Set{Images: images, Labels: labels, Classes: classes}, nil
}

func (s *Set) Len() int {
	return len(s.Labels)
}

// Features is the input dimension of every sample.
func (s *Set) Features() int {
	return s.Images.Shape()[1]
}

func (s *Set) row(i int) []float64 {
	d := s.Features()
	return s.Images.Data().([]float64)[i*d : (i+1)*d]
}

// Split returns the first n samples and the remainder. Both halves share
// the backing data of s. n must leave both halves non-empty.
func (s *Set) Split(n int) (*Set, *Set, error) {
	if n <= 0 || n >= s.Len() {
		return nil, nil, fmt.Errorf("split at %d: need 0 < n < %d", n, s.Len())
	}
	d := s.Features()
	data := s.Images.Data().([]float64)
	head := tensor.New(tensor.Of(tensor.Float64), tensor.WithShape(n, d), tensor.WithBacking(data[:n*d]))
	tail := tensor.New(tensor.Of(tensor.Float64), tensor.WithShape(s.Len()-n, d), tensor.WithBacking(data[n*d:]))
	return &Set{Images: head, Labels: s.Labels[:n], Classes: s.Classes},
		&Set{Images: tail, Labels: s.Labels[n:], Classes: s.Classes}, nil
}

// Head returns the first n samples, or s itself when n is 0 or covers the set.
func (s *Set) Head(n int) *Set {
	if n <= 0 || n >= s.Len() {
		return s
	}
	head, _, _ := s.Split(n)
	return head
}

// TrainingSamples pairs every image with its one-hot target vector.
// Inputs and targets share memory with the Set and the one-hot tensor.
func (s *Set) TrainingSamples() ([]neuralnet.Sample, error) {
	targets, err := OneHotEncode(s.Labels, s.Classes)
	if err != nil {
		return nil, err
	}
	oneHot := targets.Data().([]float64)
	d := s.Features()
	samples := make([]neuralnet.Sample, s.Len())
	for i := range samples {
		samples[i] = neuralnet.Sample{
			Input:  mat.NewVecDense(d, s.row(i)),
			Target: mat.NewVecDense(s.Classes, oneHot[i*s.Classes:(i+1)*s.Classes]),
		}
	}
	return samples, nil
}

// LabeledSamples pairs every image with its class index.
func (s *Set) LabeledSamples() []neuralnet.LabeledSample {
	d := s.Features()
	samples := make([]neuralnet.LabeledSample, s.Len())
	for i := range samples {
		samples[i] = neuralnet.LabeledSample{
			Input: mat.NewVecDense(d, s.row(i)),
			Label: s.Labels[i],
		}
	}
	return samples
}

// OneHotEncode returns a [len(labels), numClasses] tensor with a single 1
// per row at the label's column.
func OneHotEncode(labels []int, numClasses int) (*tensor.Dense, error) {
	numLabels := len(labels)
	if numLabels == 0 || numClasses <= 0 {
		return nil, fmt.Errorf("one-hot encode %d labels into %d classes", numLabels, numClasses)
	}
	norm := make([]float64, numLabels*numClasses)

	for i, label := range labels {
		if label < 0 || label >= numClasses {
			return nil, fmt.Errorf("%w: sample %d has label %d, want [0, %d)", ErrBadLabel, i, label, numClasses)
		}
		norm[i*numClasses+label] = 1.0
	}

	return tensor.New(tensor.Of(tensor.Float64), tensor.WithShape(numLabels, numClasses), tensor.WithBacking(norm)), nil
}
