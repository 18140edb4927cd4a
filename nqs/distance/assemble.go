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

	"github.com/pkg/errors"

	"github.com/ajroetker/go-nqs/nqs/psi"
)

// minMoment is the smallest total weight, probability ratio, or operator norm
// the estimate divides by.
const minMoment = 1e-300

func reliable(x float64) bool {
	return x > minMoment && !stdmath.IsInf(x, 0)
}

// checkRaw validates the unnormalized sums of a pass.
func (a *Averages) checkRaw(unitary bool) error {
	switch {
	case !reliable(a.Weight):
		return errors.Wrapf(ErrUnreliable, "total weight %g over %d samples", a.Weight, a.Samples)
	case !reliable(a.Ratio):
		return errors.Wrapf(ErrUnreliable, "probability ratio sum %g", a.Ratio)
	case !unitary && !reliable(a.NextNorm):
		return errors.Wrapf(ErrUnreliable, "operator norm sum %g", a.NextNorm)
	case cmplx.IsNaN(a.Omega) || cmplx.IsInf(a.Omega):
		return errors.Wrapf(ErrUnreliable, "amplitude ratio sum %v", a.Omega)
	}
	return nil
}

// Distance returns sqrt(1 - Fidelity), clamping a radicand that rounding
// pushed below zero.
func (a *Averages) Distance() float64 {
	return stdmath.Sqrt(max(0, 1-a.Fidelity))
}

// gradient writes ∂D/∂Re θ_k + i ∂D/∂Im θ_k for every active parameter of
// candidate into dst. The averages must be normalized and d = a.Distance().
//
// With A = E[ω], R = E[r], Nn the operator norm and Ω, Ρ the O_k weighted
// moments, a holomorphic parameter has gradient 2g(Ω, Ρ) with
//
//	g(Ω, Ρ) = -(conj(A) Ω R - |A|² Ρ) / (2 D R² Nn).
//
// An axis slot packs the real parameters α and β; its entry is
// 2 Re g(Ω_α, Ρ_α) + 2i Re g(Ω_β, Ρ_β).
func (a *Averages) gradient(d float64, candidate *psi.Psi, dst []complex128) {
	if d == 0 {
		clear(dst)
		return
	}
	conjA := cmplx.Conj(a.Omega)
	absA2 := complex(real(a.Omega)*real(a.Omega)+imag(a.Omega)*imag(a.Omega), 0)
	ratio := complex(a.Ratio, 0)
	denom := complex(2*d*a.Ratio*a.Ratio*a.NextNorm, 0)
	g := func(omegaO, ratioO complex128) complex128 {
		return -(conjA*omegaO*ratio - absA2*ratioO) / denom
	}

	start := 0
	if candidate.FreeQuantumAxis() {
		start = candidate.NumSpins()
		for i := range start {
			alphaUp, betaUp := candidate.AxisDerivatives(i, true)
			alphaDown, betaDown := candidate.AxisDerivatives(i, false)
			up, down := complex(a.RatioUp[i], 0), complex(a.RatioDown[i], 0)

			omegaAlpha := cmplx.Conj(alphaUp)*a.OmegaUp[i] + cmplx.Conj(alphaDown)*a.OmegaDown[i]
			ratioAlpha := cmplx.Conj(alphaUp)*up + cmplx.Conj(alphaDown)*down
			omegaBeta := cmplx.Conj(betaUp)*a.OmegaUp[i] + cmplx.Conj(betaDown)*a.OmegaDown[i]
			ratioBeta := cmplx.Conj(betaUp)*up + cmplx.Conj(betaDown)*down

			dst[i] = complex(2*real(g(omegaAlpha, ratioAlpha)), 2*real(g(omegaBeta, ratioBeta)))
		}
	}
	for k := start; k < len(dst); k++ {
		dst[k] = 2 * g(a.OmegaO[k], a.RatioO[k])
	}
}

func fillNaN(dst []complex128) {
	nan := complex(stdmath.NaN(), stdmath.NaN())
	for k := range dst {
		dst[k] = nan
	}
}
