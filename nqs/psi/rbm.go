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

package psi

import (
	stdmath "math"

	"github.com/ajroetker/go-nqs/nqs"
	"github.com/ajroetker/go-nqs/nqs/contrib/math"
)

// rbm is the plain restricted Boltzmann machine: visible term a_i s_i.
type rbm struct {
	hidden
}

func (k rbm) Visible(i int, s nqs.Spins) complex128 {
	return k.a[i] * complex(s.At(i), 0)
}

func (k rbm) DerivativeElement(idx int, s nqs.Spins, tanhAngles []complex128) complex128 {
	if idx < k.n {
		return complex(s.At(idx), 0)
	}
	return k.hiddenDerivative(idx, s, tanhAngles)
}

// quaxis is the free-quantum-axis kind. Slot a_i = α_i + iβ_i describes the
// axis (θ, φ) = (α_i, β_i) of spin i; the visible factor is the component of
// that axis state along the spin: cos(α/2) for +1 and e^{iβ} sin(α/2) for -1.
type quaxis struct {
	hidden
}

func (k quaxis) Visible(i int, s nqs.Spins) complex128 {
	alpha, beta := real(k.a[i]), imag(k.a[i])
	if s.Up(i) {
		return math.LogCos(alpha / 2)
	}
	return complex(0, beta) + math.LogSin(alpha/2)
}

// DerivativeElement returns the α derivative in the a block. The β
// derivative is available from axisDerivatives.
func (k quaxis) DerivativeElement(idx int, s nqs.Spins, tanhAngles []complex128) complex128 {
	if idx < k.n {
		alpha, _ := axisDerivatives(k.a[idx], s.Up(idx))
		return alpha
	}
	return k.hiddenDerivative(idx, s, tanhAngles)
}

// axisDerivatives returns ∂/∂α and ∂/∂β of the visible log-term of an axis
// slot a = α + iβ for a spin pointing up or down.
func axisDerivatives(a complex128, up bool) (alpha, beta complex128) {
	half := real(a) / 2
	if up {
		return complex(-stdmath.Tan(half)/2, 0), 0
	}
	return complex(1/(2*stdmath.Tan(half)), 0), complex(0, 1)
}

func newKernel(p *params, freeAxis bool) Kernel {
	if freeAxis {
		return quaxis{hidden{p}}
	}
	return rbm{hidden{p}}
}
