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

package distance

import (
	stdmath "math"
	"math/cmplx"

	"golang.org/x/sys/cpu"

	"github.com/ajroetker/go-nqs/nqs"
	"github.com/ajroetker/go-nqs/nqs/contrib/operator"
	"github.com/ajroetker/go-nqs/nqs/psi"
)

// Averages are the moments of one estimation pass. After ComputeAverages
// every field is normalized by Weight.
//
// Omega is E[ω], ω(s) = conj(ψ'(s)/ψ(s)) · (Oψ)(s)/ψ(s); Ratio is E[|ψ'/ψ|²];
// NextNorm is E[|(Oψ)/ψ|²], or 1 for a unitary operator. OmegaO and RatioO
// hold E[ω conj(O_k)] and E[r conj(O_k)] for the active parameters of ψ'.
//
// For a free-quantum-axis ψ' the axis slots k < N of OmegaO and RatioO are
// unused; the per-site moments split by spin sign are used instead.
type Averages struct {
	Samples  int
	Weight   float64
	Omega    complex128
	Ratio    float64
	NextNorm float64

	// Fidelity is |<ψ'|Oψ>|² / (<ψ'|ψ'> <Oψ|Oψ>) as estimated by the pass.
	Fidelity float64

	OmegaO []complex128
	RatioO []complex128

	OmegaUp, OmegaDown []complex128
	RatioUp, RatioDown []float64
}

func (a *Averages) reset(n, active int, withGradient, freeAxis bool) {
	a.Samples, a.Weight, a.Omega, a.Ratio, a.NextNorm, a.Fidelity = 0, 0, 0, 0, 0, 0
	a.OmegaO = resize(a.OmegaO, active, withGradient)
	a.RatioO = resize(a.RatioO, active, withGradient)
	axis := withGradient && freeAxis
	a.OmegaUp = resize(a.OmegaUp, n, axis)
	a.OmegaDown = resize(a.OmegaDown, n, axis)
	a.RatioUp = resize(a.RatioUp, n, axis)
	a.RatioDown = resize(a.RatioDown, n, axis)
}

// resize returns buf cleared to length n, or nil when not needed.
func resize[T complex128 | float64](buf []T, n int, needed bool) []T {
	if !needed {
		return buf[:0]
	}
	if cap(buf) < n {
		return make([]T, n)
	}
	buf = buf[:n]
	clear(buf)
	return buf
}

// merge adds the sums of src into a.
func (a *Averages) merge(src *Averages) {
	a.Samples += src.Samples
	a.Weight += src.Weight
	a.Omega += src.Omega
	a.Ratio += src.Ratio
	a.NextNorm += src.NextNorm
	addTo(a.OmegaO, src.OmegaO)
	addTo(a.RatioO, src.RatioO)
	addTo(a.OmegaUp, src.OmegaUp)
	addTo(a.OmegaDown, src.OmegaDown)
	addTo(a.RatioUp, src.RatioUp)
	addTo(a.RatioDown, src.RatioDown)
}

func addTo[T complex128 | float64](dst, src []T) {
	for i := range dst {
		dst[i] += src[i]
	}
}

func scale[T complex128 | float64](buf []T, f T) {
	for i := range buf {
		buf[i] *= f
	}
}

// normalize computes the fidelity from the raw sums and divides every sum by
// the total weight. NextNorm is 1 for a unitary operator.
//
// The fidelity is formed from the unnormalized sums so that a candidate
// identical to the reference yields exactly 1.
func (a *Averages) normalize(unitary bool) {
	nextNorm := a.NextNorm
	if unitary {
		nextNorm = a.Weight
	}
	absOmega := cmplx.Abs(a.Omega)
	a.Fidelity = (absOmega / a.Ratio) * (absOmega / nextNorm)

	inv := 1 / a.Weight
	a.Omega *= complex(inv, 0)
	a.Ratio *= inv
	if unitary {
		a.NextNorm = 1
	} else {
		a.NextNorm *= inv
	}
	scale(a.OmegaO, complex(inv, 0))
	scale(a.RatioO, complex(inv, 0))
	scale(a.OmegaUp, complex(inv, 0))
	scale(a.OmegaDown, complex(inv, 0))
	scale(a.RatioUp, inv)
	scale(a.RatioDown, inv)
}

// pass is the read-only input of one estimation pass.
type pass struct {
	ref, cand *psi.Psi
	op        operator.Operator
	unitary   bool
	gradient  bool
	freeAxis  bool
	batch     *nqs.Batch
}

// partial is the accumulator and scratch of one chunk of configurations.
type partial struct {
	_ cpu.CacheLinePad
	Averages

	st, stPrime, target *psi.State
	terms               []operator.Term
	_                   cpu.CacheLinePad
}

func (ps *pass) newPartial() *partial {
	n, active := ps.cand.NumSpins(), ps.cand.NumActiveParams()
	part := &partial{
		st:      ps.ref.NewState(),
		stPrime: ps.cand.NewState(),
		target:  ps.ref.NewState(),
	}
	part.reset(n, active, ps.gradient, ps.freeAxis)
	return part
}

// opRatio returns (Oψ)(s)/ψ(s) = Σ_k c_k ψ(s_k)/ψ(s). Targets one flip away
// from s are evaluated with the incremental angle update.
func (ps *pass) opRatio(g *nqs.Group, part *partial) complex128 {
	s := part.st.Spins
	part.terms = ps.op.Apply(s, part.terms[:0])
	var sum complex128
	for _, term := range part.terms {
		if term.Coefficient == 0 {
			continue
		}
		if term.Spins == s {
			sum += term.Coefficient
			continue
		}
		if pos, ok := s.SingleFlip(term.Spins); ok {
			part.target.CopyFrom(part.st)
			ps.ref.FlipState(g, part.target, pos)
		} else {
			ps.ref.Evaluate(g, part.target, term.Spins)
		}
		sum += term.Coefficient * cmplx.Exp(part.target.LogAmplitude-part.st.LogAmplitude)
	}
	return sum
}

// accumulate folds configuration i of the batch into part.
func (ps *pass) accumulate(g *nqs.Group, i int, part *partial) {
	w := ps.batch.Weights[i]
	if w == 0 {
		return
	}
	s := ps.batch.Spins[i]
	ps.ref.Evaluate(g, part.st, s)
	ps.cand.Evaluate(g, part.stPrime, s)

	l := ps.opRatio(g, part)
	delta := complex(ps.cand.LogPrefactor(), 0) + part.stPrime.LogAmplitude -
		complex(ps.ref.LogPrefactor(), 0) - part.st.LogAmplitude
	omega := cmplx.Exp(cmplx.Conj(delta)) * l
	ratio := stdmath.Exp(2 * real(delta))

	part.Samples++
	part.Weight += w
	part.Omega += complex(w, 0) * omega
	part.Ratio += w * ratio
	if !ps.unitary {
		part.NextNorm += w * (real(l)*real(l) + imag(l)*imag(l))
	}
	if !ps.gradient {
		return
	}

	wOmega, wRatio := complex(w, 0)*omega, complex(w*ratio, 0)
	n := ps.cand.NumSpins()
	start := 0
	if ps.freeAxis {
		start = n
		for site := 0; site < n; site++ {
			if s.Up(site) {
				part.OmegaUp[site] += wOmega
				part.RatioUp[site] += w * ratio
			} else {
				part.OmegaDown[site] += wOmega
				part.RatioDown[site] += w * ratio
			}
		}
	}
	ps.cand.Derivatives(g, part.stPrime)
	g.ForEach(len(part.OmegaO)-start, func(idx int) {
		k := start + idx
		o := cmplx.Conj(ps.cand.DerivativeElement(k, s, part.stPrime.TanhAngles))
		part.OmegaO[k] += wOmega * o
		part.RatioO[k] += wRatio * o
	})
}
