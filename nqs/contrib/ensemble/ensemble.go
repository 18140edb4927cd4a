// Copyright 2026 go-nqs Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ensemble provides weighted collections of spin configurations that
// estimate expectation values over |ψ|².
//
// An exact ensemble enumerates every configuration weighted by its
// probability; a Monte-Carlo ensemble draws configurations from |ψ|² and
// weights each draw by 1. Consumers normalize by the total weight, so both
// estimate the same averages.
package ensemble

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ajroetker/go-nqs/nqs"
	"github.com/ajroetker/go-nqs/nqs/psi"
)

// Ensemble draws a batch of configurations for a wavefunction.
type Ensemble interface {
	Draw(ctx context.Context, p *psi.Psi) (*nqs.Batch, error)
}

// Enumerate returns every configuration of n spins in canonical order, each
// with weight 1.
func Enumerate(n int) (*nqs.Batch, error) {
	if n < 1 {
		return nil, errors.Wrapf(nqs.ErrInvalidArgument, "cannot enumerate %d spins", n)
	}
	if n > psi.MaxVectorSpins {
		return nil, errors.Wrapf(nqs.ErrTooManySpins, "cannot enumerate %d spins (max %d)", n, psi.MaxVectorSpins)
	}
	dim := 1 << uint(n)
	b := &nqs.Batch{Spins: make([]nqs.Spins, dim), Weights: make([]float64, dim)}
	for i := range dim {
		b.Spins[i] = nqs.Spins(i)
		b.Weights[i] = 1
	}
	return b, nil
}

// ExactSummation enumerates every configuration weighted by |ψ(s)|².
type ExactSummation struct{}

func (ExactSummation) Draw(ctx context.Context, p *psi.Psi) (*nqs.Batch, error) {
	b, err := Enumerate(p.NumSpins())
	if err != nil {
		return nil, err
	}
	_, err = nqs.Launch(ctx, p.Executor(), b.Len(), p.NewState, func(g *nqs.Group, i int, st *psi.State) {
		p.Evaluate(g, st, b.Spins[i])
		b.Weights[i] = p.ProbabilityFromLog(real(st.LogAmplitude))
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}
