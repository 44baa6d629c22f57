package neuralnet

import "errors"

var (
	// ErrInvalidTopology is returned for fewer than two layers or a non-positive layer size.
	ErrInvalidTopology = errors.New("invalid topology")
	// ErrDimensionMismatch is returned when an input or target vector does not fit the network.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrEmptyMiniBatch is returned when a mini-batch with no samples reaches an update.
	ErrEmptyMiniBatch = errors.New("empty mini-batch")
	// ErrInvalidParams is returned for unusable training parameters.
	ErrInvalidParams = errors.New("invalid training params")
)
