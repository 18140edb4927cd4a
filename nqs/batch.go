package nqs

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Batch is a finite weighted collection of spin configurations, the unit an
// ensemble hands to the estimator. Weights need not be normalized; consumers
// divide by TotalWeight.
type Batch struct {
	Spins   []Spins
	Weights []float64
}

// Len returns the number of configurations.
func (b *Batch) Len() int {
	return len(b.Spins)
}

// TotalWeight returns Σ Weights.
func (b *Batch) TotalWeight() float64 {
	return floats.Sum(b.Weights)
}

// Validate checks that every configuration has a weight and that no weight
// is negative.
func (b *Batch) Validate() error {
	if len(b.Spins) != len(b.Weights) {
		return errors.Wrapf(ErrShapeMismatch, "batch has %d configurations and %d weights", len(b.Spins), len(b.Weights))
	}
	for i, w := range b.Weights {
		if w < 0 {
			return errors.Wrapf(ErrInvalidArgument, "batch weight %d is negative (%g)", i, w)
		}
	}
	return nil
}
