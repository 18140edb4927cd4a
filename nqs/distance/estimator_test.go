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
	"context"
	stdmath "math"
	"math/cmplx"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-nqs/nqs"
	"github.com/ajroetker/go-nqs/nqs/contrib/ensemble"
	"github.com/ajroetker/go-nqs/nqs/contrib/operator"
	"github.com/ajroetker/go-nqs/nqs/psi"
)

func newPsi(t testing.TB, n, m int, seed uint64, opts ...psi.Option) *psi.Psi {
	t.Helper()
	p, err := psi.New(n, m, append([]psi.Option{psi.WithSeed(seed), psi.WithNoise(0.3)}, opts...)...)
	require.NoError(t, err)
	return p
}

// perturbed returns a clone of p with every parameter moved by eps times a
// complex Gaussian.
func perturbed(t testing.TB, p *psi.Psi, eps float64, seed uint64) *psi.Psi {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, 99))
	c := p.Clone()
	params := c.Params()
	for k := range params {
		params[k] += complex(eps*rng.NormFloat64(), eps*rng.NormFloat64())
	}
	require.NoError(t, c.SetParams(params))
	return c
}

func newEstimator(t testing.TB, p *psi.Psi) *Estimator {
	t.Helper()
	e, err := New(p.NumSpins(), p.NumActiveParams(), p.Executor())
	require.NoError(t, err)
	return e
}

// exactDistance evaluates the distance from the full amplitude vectors.
func exactDistance(t testing.TB, ref, cand *psi.Psi, op operator.Operator) float64 {
	t.Helper()
	vr, err := ref.Vector(context.Background())
	require.NoError(t, err)
	vc, err := cand.Vector(context.Background())
	require.NoError(t, err)

	var inner complex128
	var normCand, normOp float64
	var terms []operator.Term
	for s := range vr {
		terms = op.Apply(nqs.Spins(s), terms[:0])
		var o complex128
		for _, term := range terms {
			o += term.Coefficient * vr[term.Spins]
		}
		inner += cmplx.Conj(vc[s]) * o
		normCand += real(vc[s])*real(vc[s]) + imag(vc[s])*imag(vc[s])
		normOp += real(o)*real(o) + imag(o)*imag(o)
	}
	absInner := cmplx.Abs(inner)
	return stdmath.Sqrt(max(0, 1-absInner*absInner/(normCand*normOp)))
}

func mustPauli(t testing.TB, coefficient complex128, spec string) operator.PauliString {
	t.Helper()
	p, err := operator.NewPauliString(coefficient, spec)
	require.NoError(t, err)
	return p
}

func mustRotation(t testing.TB, angle float64, spec string) operator.Rotation {
	t.Helper()
	r, err := operator.NewRotation(angle, spec)
	require.NoError(t, err)
	return r
}

func TestNew(t *testing.T) {
	_, err := New(0, 3, nqs.Host)
	assert.ErrorIs(t, err, nqs.ErrInvalidArgument)
	_, err = New(65, 3, nqs.Host)
	assert.ErrorIs(t, err, nqs.ErrInvalidArgument)
	_, err = New(3, 0, nqs.Host)
	assert.ErrorIs(t, err, nqs.ErrInvalidArgument)

	e, err := New(3, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, nqs.BackendHost, e.exec.Backend())
}

func TestIdentityDistanceIsZero(t *testing.T) {
	for _, freeAxis := range []bool{false, true} {
		var opts []psi.Option
		if freeAxis {
			opts = append(opts, psi.WithFreeQuantumAxis())
		}
		ref := newPsi(t, 4, 4, 1, opts...)
		cand := ref.Clone()
		e := newEstimator(t, cand)

		d, err := e.Distance(context.Background(), ref, cand, operator.Identity{}, true, ensemble.ExactSummation{})
		require.NoError(t, err)
		assert.Less(t, d, 1e-10, "freeAxis=%v", freeAxis)

		grad := make([]complex128, cand.NumActiveParams())
		d, err = e.Gradient(context.Background(), ref, cand, operator.Identity{}, false, ensemble.ExactSummation{}, grad)
		require.NoError(t, err)
		assert.Less(t, d, 1e-10)
		for k, g := range grad {
			assert.Less(t, cmplx.Abs(g), 1e-8, "gradient[%d]", k)
		}
	}
}

func TestPerturbationIncreasesDistance(t *testing.T) {
	ref := newPsi(t, 5, 4, 2)
	e := newEstimator(t, ref)
	var last float64
	for _, eps := range []float64{0.001, 0.01, 0.1} {
		d, err := e.Distance(context.Background(), ref, perturbed(t, ref, eps, 3), operator.Identity{}, true, ensemble.ExactSummation{})
		require.NoError(t, err)
		assert.Greater(t, d, last, "eps=%v", eps)
		assert.LessOrEqual(t, d, 1.0)
		last = d
	}
}

func TestSingleParameterPerturbation(t *testing.T) {
	ctx := context.Background()
	ref := newPsi(t, 4, 4, 12)
	e := newEstimator(t, ref)
	n, m := ref.NumSpins(), ref.NumHidden()
	tests := []struct {
		name  string
		index int
	}{
		{"visible bias", 1},
		{"hidden bias", n + 2},
		{"weight", n + m + 5},
		{"last weight", n + m + n*m - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand := ref.Clone()
			params := cand.Params()
			params[tt.index] += 0.05
			require.NoError(t, cand.SetParams(params))

			d, err := e.Distance(ctx, ref, cand, operator.Identity{}, true, ensemble.ExactSummation{})
			require.NoError(t, err)
			assert.Greater(t, d, 1e-10)
			assert.InDelta(t, exactDistance(t, ref, cand, operator.Identity{}), d, 1e-10)
		})
	}

	// The n block does not enter the amplitude.
	cand := ref.Clone()
	params := cand.Params()
	params[ref.NumActiveParams()] += 0.05
	require.NoError(t, cand.SetParams(params))
	d, err := e.Distance(ctx, ref, cand, operator.Identity{}, true, ensemble.ExactSummation{})
	require.NoError(t, err)
	assert.Less(t, d, 1e-10)
}

func TestScaleInvariance(t *testing.T) {
	ref := newPsi(t, 4, 3, 4)
	cand := perturbed(t, ref, 0.2, 5)
	e := newEstimator(t, cand)
	ctx := context.Background()

	base, err := e.Distance(ctx, ref, cand, operator.Identity{}, true, ensemble.ExactSummation{})
	require.NoError(t, err)
	require.Greater(t, base, 1e-6)

	scaledCand := cand.Clone()
	require.NoError(t, scaledCand.SetPrefactor(3.5))
	d, err := e.Distance(ctx, ref, scaledCand, operator.Identity{}, true, ensemble.ExactSummation{})
	require.NoError(t, err)
	assert.InDelta(t, base, d, 1e-10, "rescaled candidate")

	scaledRef := ref.Clone()
	require.NoError(t, scaledRef.SetPrefactor(0.125))
	d, err = e.Distance(ctx, scaledRef, cand, operator.Identity{}, true, ensemble.ExactSummation{})
	require.NoError(t, err)
	assert.InDelta(t, base, d, 1e-10, "rescaled reference")

	op := operator.Scaled{Factor: complex(2, -1), Op: operator.Identity{}}
	d, err = e.Distance(ctx, ref, cand, op, false, ensemble.ExactSummation{})
	require.NoError(t, err)
	assert.InDelta(t, base, d, 1e-10, "rescaled operator")

	// With the roles swapped a phase on the operator is a phase on the
	// original candidate.
	swapped, err := e.Distance(ctx, cand, ref, operator.Identity{}, true, ensemble.ExactSummation{})
	require.NoError(t, err)
	assert.InDelta(t, base, swapped, 1e-10, "swapped roles")
	for _, phi := range []float64{0.3, stdmath.Pi / 2, -2.1} {
		phase := operator.Scaled{Factor: cmplx.Exp(complex(0, phi)), Op: operator.Identity{}}
		d, err = e.Distance(ctx, cand, ref, phase, true, ensemble.ExactSummation{})
		require.NoError(t, err)
		assert.InDelta(t, base, d, 1e-10, "phase %v on the candidate", phi)
		d, err = e.Distance(ctx, cand, ref, operator.Scaled{Factor: 1.7 * phase.Factor, Op: operator.Identity{}}, false, ensemble.ExactSummation{})
		require.NoError(t, err)
		assert.InDelta(t, base, d, 1e-10, "complex factor %v on the candidate", phi)
	}
}

func TestMatchesExactVectors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		op       operator.Operator
		unitary  bool
		freeAxis bool
	}{
		{"identity", operator.Identity{}, true, false},
		{"pauli X", mustPauli(t, 1, "X1"), true, false},
		{"pauli YZ", mustPauli(t, 1, "Y0 Z2"), true, false},
		{"rotation", mustRotation(t, 0.3, "X0 X3"), true, false},
		{"sum", operator.Sum{operator.Identity{}, mustPauli(t, 0.5, "X2"), mustPauli(t, 0.25i, "Z1")}, false, false},
		{"rotation free axis", mustRotation(t, -0.7, "Y1"), true, true},
		{"sum free axis", operator.Sum{mustPauli(t, 1, "X0"), mustPauli(t, 1, "X3")}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []psi.Option
			if tt.freeAxis {
				opts = append(opts, psi.WithFreeQuantumAxis())
			}
			ref := newPsi(t, 4, 3, 6, opts...)
			cand := perturbed(t, ref, 0.15, 7)
			e := newEstimator(t, cand)

			d, err := e.Distance(ctx, ref, cand, tt.op, tt.unitary, ensemble.ExactSummation{})
			require.NoError(t, err)
			assert.InDelta(t, exactDistance(t, ref, cand, tt.op), d, 1e-10)
		})
	}
}

func TestUnitaryFlagAgrees(t *testing.T) {
	ctx := context.Background()
	ref := newPsi(t, 4, 4, 8)
	cand := perturbed(t, ref, 0.2, 9)
	e := newEstimator(t, cand)
	op := mustRotation(t, 0.4, "X1 Z2")
	require.True(t, operator.IsUnitary(op))

	gradUnitary := make([]complex128, cand.NumActiveParams())
	dUnitary, err := e.Gradient(ctx, ref, cand, op, true, ensemble.ExactSummation{}, gradUnitary)
	require.NoError(t, err)

	grad := make([]complex128, cand.NumActiveParams())
	d, err := e.Gradient(ctx, ref, cand, op, false, ensemble.ExactSummation{}, grad)
	require.NoError(t, err)

	assert.InDelta(t, d, dUnitary, 1e-10)
	for k := range grad {
		assert.InDelta(t, 0, cmplx.Abs(grad[k]-gradUnitary[k]), 1e-9, "gradient[%d]", k)
	}
}

func TestHostDeviceAgree(t *testing.T) {
	device, err := nqs.NewDevice(nqs.DeviceConfig{Workers: 4, MaxLanes: 8})
	require.NoError(t, err)
	defer device.Close()
	ctx := context.Background()

	for _, freeAxis := range []bool{false, true} {
		opts := []psi.Option{}
		if freeAxis {
			opts = append(opts, psi.WithFreeQuantumAxis())
		}
		op := operator.Sum{mustPauli(t, 1, "X0"), mustRotation(t, 0.2, "Y2 Z4")}

		hostRef := newPsi(t, 6, 5, 10, opts...)
		hostCand := perturbed(t, hostRef, 0.2, 11)
		devRef := newPsi(t, 6, 5, 10, append(opts, psi.WithExecutor(device))...)
		devCand := perturbed(t, devRef, 0.2, 11)

		hostGrad := make([]complex128, hostCand.NumActiveParams())
		hd, err := newEstimator(t, hostCand).Gradient(ctx, hostRef, hostCand, op, false, ensemble.ExactSummation{}, hostGrad)
		require.NoError(t, err)

		devGrad := make([]complex128, devCand.NumActiveParams())
		dd, err := newEstimator(t, devCand).Gradient(ctx, devRef, devCand, op, false, ensemble.ExactSummation{}, devGrad)
		require.NoError(t, err)

		assert.InDelta(t, hd, dd, 1e-10, "freeAxis=%v", freeAxis)
		for k := range hostGrad {
			assert.InDelta(t, 0, cmplx.Abs(hostGrad[k]-devGrad[k]), 1e-10, "freeAxis=%v gradient[%d]", freeAxis, k)
		}
	}
}

func TestMonteCarloApproachesExact(t *testing.T) {
	ctx := context.Background()
	ref := newPsi(t, 5, 4, 12, psi.WithNoise(0.5))
	cand := perturbed(t, ref, 0.3, 13)
	e := newEstimator(t, cand)
	op := mustRotation(t, 0.5, "X2")

	exact, err := e.Distance(ctx, ref, cand, op, true, ensemble.ExactSummation{})
	require.NoError(t, err)
	mc := ensemble.MonteCarlo{Samples: 40000, Chains: 4, BurnIn: 200, Seed: 1}
	sampled, err := e.Distance(ctx, ref, cand, op, true, mc)
	require.NoError(t, err)
	assert.InDelta(t, exact, sampled, 0.05)
}

func TestComputeAverages(t *testing.T) {
	ctx := context.Background()
	ref := newPsi(t, 4, 3, 14)
	cand := perturbed(t, ref, 0.1, 15)
	e := newEstimator(t, cand)
	batch, err := ensemble.ExactSummation{}.Draw(ctx, ref)
	require.NoError(t, err)

	first, err := e.ComputeAverages(ctx, ref, cand, operator.Identity{}, true, batch, true)
	require.NoError(t, err)
	omega, ratio, samples := first.Omega, first.Ratio, first.Samples
	omegaO := append([]complex128(nil), first.OmegaO...)
	assert.Equal(t, 16, samples)
	assert.InDelta(t, 1, first.NextNorm, 0)
	assert.Len(t, first.OmegaO, cand.NumActiveParams())
	assert.Empty(t, first.OmegaUp)

	second, err := e.ComputeAverages(ctx, ref, cand, operator.Identity{}, true, batch, true)
	require.NoError(t, err)
	assert.Equal(t, omega, second.Omega, "accumulators must be cleared between passes")
	assert.Equal(t, ratio, second.Ratio)
	assert.Equal(t, samples, second.Samples)
	assert.Equal(t, omegaO, second.OmegaO)

	third, err := e.ComputeAverages(ctx, ref, cand, operator.Identity{}, true, batch, false)
	require.NoError(t, err)
	assert.Empty(t, third.OmegaO)
	assert.InDelta(t, third.Distance(), stdmath.Sqrt(max(0, 1-third.Fidelity)), 0)
}

// zeroEnsemble returns configurations that all carry weight 0.
type zeroEnsemble struct{}

func (zeroEnsemble) Draw(ctx context.Context, p *psi.Psi) (*nqs.Batch, error) {
	return &nqs.Batch{Spins: []nqs.Spins{0, 1, 2}, Weights: []float64{0, 0, 0}}, nil
}

func TestUnreliable(t *testing.T) {
	ctx := context.Background()
	ref := newPsi(t, 3, 2, 16)
	cand := ref.Clone()
	e := newEstimator(t, cand)

	d, err := e.Distance(ctx, ref, cand, operator.Identity{}, true, zeroEnsemble{})
	assert.ErrorIs(t, err, ErrUnreliable)
	assert.True(t, stdmath.IsNaN(d))

	grad := make([]complex128, cand.NumActiveParams())
	d, err = e.Gradient(ctx, ref, cand, operator.Identity{}, true, zeroEnsemble{}, grad)
	assert.ErrorIs(t, err, ErrUnreliable)
	assert.True(t, stdmath.IsNaN(d))
	for _, g := range grad {
		assert.True(t, cmplx.IsNaN(g))
	}

	// The operator annihilates every configuration, so <Oψ|Oψ> = 0.
	zero := operator.Scaled{Factor: 0, Op: operator.Identity{}}
	_, err = e.Distance(ctx, ref, cand, zero, false, ensemble.ExactSummation{})
	assert.ErrorIs(t, err, ErrUnreliable)
}

func TestConfigurationErrors(t *testing.T) {
	ctx := context.Background()
	ref := newPsi(t, 4, 3, 17)
	cand := ref.Clone()
	e := newEstimator(t, cand)
	exact := ensemble.ExactSummation{}

	other := newPsi(t, 5, 3, 17)
	_, err := e.Distance(ctx, ref, other, operator.Identity{}, true, exact)
	assert.ErrorIs(t, err, nqs.ErrShapeMismatch, "spin count")

	wider := newPsi(t, 4, 5, 17)
	_, err = e.Distance(ctx, ref, wider, operator.Identity{}, true, exact)
	assert.ErrorIs(t, err, nqs.ErrShapeMismatch, "parameter count")

	_, err = e.Gradient(ctx, ref, cand, operator.Identity{}, true, exact, make([]complex128, 3))
	assert.ErrorIs(t, err, nqs.ErrShapeMismatch, "gradient length")

	device, err := nqs.NewDevice(nqs.DeviceConfig{Workers: 2})
	require.NoError(t, err)
	defer device.Close()
	onDevice := newPsi(t, 4, 3, 17, psi.WithExecutor(device))
	_, err = e.Distance(ctx, onDevice, cand, operator.Identity{}, true, exact)
	assert.ErrorIs(t, err, nqs.ErrBackendMismatch)

	wide, err := nqs.NewDevice(nqs.DeviceConfig{Workers: 2, MaxLanes: 64})
	require.NoError(t, err)
	defer wide.Close()
	narrow, err := nqs.NewDevice(nqs.DeviceConfig{Workers: 2, MaxLanes: 4})
	require.NoError(t, err)
	defer narrow.Close()
	wideRef := newPsi(t, 4, 20, 17, psi.WithExecutor(wide))
	wideCand := wideRef.Clone()
	narrowEst, err := New(4, wideCand.NumActiveParams(), narrow)
	require.NoError(t, err)
	_, err = narrowEst.Distance(ctx, wideRef, wideCand, operator.Identity{}, true, exact)
	assert.ErrorIs(t, err, nqs.ErrDeviceCapacity, "estimator narrower than wavefunctions")
	_, err = narrowEst.Gradient(ctx, wideRef, wideCand, operator.Identity{}, true, exact, make([]complex128, wideCand.NumActiveParams()))
	assert.ErrorIs(t, err, nqs.ErrDeviceCapacity)

	_, err = e.ComputeAverages(ctx, ref, cand, operator.Identity{}, true, &nqs.Batch{Spins: []nqs.Spins{1}}, false)
	assert.ErrorIs(t, err, nqs.ErrShapeMismatch, "batch")

	_, err = e.ComputeAverages(ctx, ref, cand, operator.Identity{}, true, nil, false)
	assert.ErrorIs(t, err, nqs.ErrInvalidArgument)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = e.Distance(canceled, ref, cand, operator.Identity{}, true, exact)
	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkGradient(b *testing.B) {
	ref := newPsi(b, 10, 10, 1)
	cand := perturbed(b, ref, 0.1, 2)
	e := newEstimator(b, cand)
	op := mustRotation(b, 0.3, "X3")
	grad := make([]complex128, cand.NumActiveParams())
	mc := ensemble.MonteCarlo{Samples: 2000, Chains: 4, Seed: 1}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Gradient(context.Background(), ref, cand, op, true, mc, grad); err != nil {
			b.Fatal(err)
		}
	}
}
