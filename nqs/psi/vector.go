package psi

import (
	"context"
	stdmath "math"
	"math/cmplx"

	"github.com/pkg/errors"

	"github.com/ajroetker/go-nqs/nqs"
)

// MaxVectorSpins bounds Vector, which materializes 2^N amplitudes.
const MaxVectorSpins = 26

// Vector returns the amplitude of every configuration in canonical order:
// element i is the amplitude of nqs.Spins(i). It is a debugging and testing
// facility for small systems.
func (p *Psi) Vector(ctx context.Context) ([]complex128, error) {
	n := p.p.n
	if n > MaxVectorSpins {
		return nil, errors.Wrapf(nqs.ErrTooManySpins, "vector of %d spins exceeds %d", n, MaxVectorSpins)
	}
	out := make([]complex128, 1<<uint(n))
	logPrefactor := complex(p.p.logPrefactor, 0)
	_, err := nqs.Launch(ctx, p.exec, len(out), p.NewState, func(g *nqs.Group, i int, st *State) {
		p.Evaluate(g, st, nqs.Spins(i))
		out[i] = cmplx.Exp(logPrefactor + st.LogAmplitude)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DerivativeVector writes O_k(s) for every active parameter into dst and
// returns it. dst is reallocated when too short.
func (p *Psi) DerivativeVector(s nqs.Spins, dst []complex128) []complex128 {
	active := p.kernel.NumActiveParams()
	if cap(dst) < active {
		dst = make([]complex128, active)
	}
	dst = dst[:active]

	g := p.group()
	defer p.release(g)
	st := p.NewState()
	p.Evaluate(g, st, s)
	p.Derivatives(g, st)
	g.ForEach(active, func(k int) {
		dst[k] = p.kernel.DerivativeElement(k, s, st.TanhAngles)
	})
	return dst
}

type normPartial struct {
	st  *State
	sum float64
}

// Norm returns Σ w·|ψ(s)|² over batch. With the weight-1 enumeration of all
// configurations this is the squared norm of the wavefunction.
func (p *Psi) Norm(ctx context.Context, batch *nqs.Batch) (float64, error) {
	if err := batch.Validate(); err != nil {
		return stdmath.NaN(), err
	}
	newPartial := func() *normPartial { return &normPartial{st: p.NewState()} }
	partials, err := nqs.Launch(ctx, p.exec, batch.Len(), newPartial, func(g *nqs.Group, i int, part *normPartial) {
		p.Evaluate(g, part.st, batch.Spins[i])
		part.sum += batch.Weights[i] * p.ProbabilityFromLog(real(part.st.LogAmplitude))
	})
	if err != nil {
		return stdmath.NaN(), err
	}
	var norm float64
	for _, part := range partials {
		norm += part.sum
	}
	return norm, nil
}
