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
	"gonum.org/v1/gonum/blas/cblas128"

	"github.com/ajroetker/go-nqs/nqs"
)

// Kernel is the per-configuration math of one wavefunction kind. Every
// method computes a single lane of a sum or a single element of a vector, so
// the same code serves the sequential and the group-parallel schedulers.
//
// Spin vectors passed to a Kernel hold ±1 as complex numbers, one element per
// visible spin.
type Kernel interface {
	NumSpins() int
	NumHidden() int
	NumActiveParams() int

	// Angle returns b_j + Σ_i W_ij spins_i.
	Angle(j int, spins []complex128) complex128

	// FlipAngle returns angle j after the spin at pos flipped, given the
	// angles before the flip and the configuration after it. Lanes j >= M
	// return 0.
	FlipAngle(angles []complex128, j, pos int, newSpins nqs.Spins) complex128

	// Visible returns the visible contribution of spin i to the log-amplitude.
	Visible(i int, s nqs.Spins) complex128

	// DerivativeElement returns O_k, the derivative of the log-amplitude with
	// respect to active parameter k. It returns 0 for k >= NumActiveParams.
	DerivativeElement(k int, s nqs.Spins, tanhAngles []complex128) complex128
}

// params is the flat parameter buffer with per-block views into it. The
// views share storage with data, so SetParams copies in place.
type params struct {
	n, m int
	data []complex128

	a, b, w, scale []complex128

	prefactor    float64
	logPrefactor float64
}

func newParams(n, m int) *params {
	p := &params{n: n, m: m, data: make([]complex128, numParams(n, m))}
	p.a = p.data[:n]
	p.b = p.data[n : n+m]
	p.w = p.data[n+m : n+m+n*m]
	p.scale = p.data[n+m+n*m:]
	return p
}

func (p *params) clone() *params {
	c := newParams(p.n, p.m)
	copy(c.data, p.data)
	c.prefactor = p.prefactor
	c.logPrefactor = p.logPrefactor
	return c
}

func numParams(n, m int) int {
	return n + m + n*m + m
}

func numActiveParams(n, m int) int {
	return n + m + n*m
}

// hidden holds the hidden-unit math shared by every kind.
type hidden struct {
	*params
}

func (h hidden) NumSpins() int        { return h.n }
func (h hidden) NumHidden() int       { return h.m }
func (h hidden) NumActiveParams() int { return numActiveParams(h.n, h.m) }

func (h hidden) Angle(j int, spins []complex128) complex128 {
	column := cblas128.Vector{N: h.n, Inc: h.m, Data: h.w[j:]}
	vec := cblas128.Vector{N: h.n, Inc: 1, Data: spins}
	return h.b[j] + cblas128.Dotu(column, vec)
}

func (h hidden) FlipAngle(angles []complex128, j, pos int, newSpins nqs.Spins) complex128 {
	if j >= h.m {
		return 0
	}
	return angles[j] + complex(2*newSpins.At(pos), 0)*h.w[pos*h.m+j]
}

// hiddenDerivative handles the b and W blocks, k >= N.
func (h hidden) hiddenDerivative(k int, s nqs.Spins, tanhAngles []complex128) complex128 {
	k -= h.n
	if k < h.m {
		return tanhAngles[k]
	}
	k -= h.m
	if k >= h.n*h.m {
		return 0
	}
	i, j := k/h.m, k%h.m
	return tanhAngles[j] * complex(s.At(i), 0)
}
