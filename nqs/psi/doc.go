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

// Package psi implements restricted-Boltzmann-machine wavefunctions over
// bit-packed spin configurations.
//
// A wavefunction with N visible spins and M hidden units assigns to every
// configuration s the log-amplitude
//
//	log ψ(s) = Σ_i v_i(s_i) + Σ_j logcosh(θ_j(s)),   θ_j(s) = b_j + Σ_i W_ij s_i
//
// where v_i is the visible term of the wavefunction kind: a_i s_i for the
// plain RBM, the log of a spin-1/2 axis component for the free-quantum-axis
// kind. A real prefactor scales every amplitude.
//
// # Kernels and schedulers
//
// The per-configuration math lives in a Kernel, written once as per-lane
// functions. Psi schedules those lane functions on an nqs.Executor: the host
// executor loops sequentially, a device executor evaluates them with tree
// reductions and runs configurations in parallel. Both produce the same sums
// up to floating-point reduction order.
//
// # Parameters
//
// Parameters are exchanged as a flat []complex128 in block order a (N),
// b (M), W (N·M, W[i*M+j]), n (M). The n block is carried for compatibility
// and does not enter the amplitude; NumActiveParams excludes it.
//
// # State
//
// A State caches the angles of one configuration. Monte-Carlo samplers and the
// distance estimator move a State between single-flip neighbours with
// FlipState, which updates every angle in O(1) instead of recomputing it.
package psi
