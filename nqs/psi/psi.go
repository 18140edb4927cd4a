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
	"math/cmplx"
	"math/rand/v2"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ajroetker/go-nqs/nqs"
)

// DefaultNoise is the standard deviation of the random initialization.
const DefaultNoise = 1e-4

// Psi is an RBM wavefunction bound to an executor. Shape, kind, and executor
// are fixed at construction; parameter values and the prefactor may change.
//
// Evaluation methods are safe for concurrent use as long as no goroutine
// changes the parameters at the same time.
type Psi struct {
	p        *params
	kernel   Kernel
	exec     nqs.Executor
	freeAxis bool

	groups sync.Pool
}

type options struct {
	a, b, w, scale []complex128
	explicit       bool
	seed           uint64
	noise          float64
	prefactor      float64
	exec           nqs.Executor
	freeAxis       bool
}

// Option configures New.
type Option func(*options)

// WithParams sets explicit initial parameters. scale may be nil, in which
// case the n block is filled with ones.
func WithParams(a, b, w, scale []complex128) Option {
	return func(o *options) {
		o.a, o.b, o.w, o.scale = a, b, w, scale
		o.explicit = true
	}
}

// WithSeed seeds the random initialization.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

// WithNoise sets the standard deviation of the random initialization.
func WithNoise(scale float64) Option {
	return func(o *options) { o.noise = scale }
}

// WithPrefactor sets the real amplitude prefactor; it must be positive.
func WithPrefactor(prefactor float64) Option {
	return func(o *options) { o.prefactor = prefactor }
}

// WithExecutor selects the executor. The default is nqs.Host.
func WithExecutor(exec nqs.Executor) Option {
	return func(o *options) { o.exec = exec }
}

// WithFreeQuantumAxis selects the free-quantum-axis kind.
func WithFreeQuantumAxis() Option {
	return func(o *options) { o.freeAxis = true }
}

// New returns a wavefunction with n visible spins and m hidden units.
//
// Without WithParams the parameters start near the product state: a = 0
// (free axis: every spin along +x, α = π/2, β = 0), b and W small complex
// Gaussian noise, n = 1.
func New(n, m int, opts ...Option) (*Psi, error) {
	o := options{noise: DefaultNoise, prefactor: 1, exec: nqs.Host}
	for _, opt := range opts {
		opt(&o)
	}
	switch {
	case n < 1 || m < 1:
		return nil, errors.Wrapf(nqs.ErrInvalidArgument, "psi shape %dx%d", n, m)
	case n > nqs.MaxSpins:
		return nil, errors.Wrapf(nqs.ErrTooManySpins, "%d spins exceed %d", n, nqs.MaxSpins)
	case o.noise < 0 || stdmath.IsNaN(o.noise):
		return nil, errors.Wrapf(nqs.ErrInvalidArgument, "noise %g", o.noise)
	case !(o.prefactor > 0) || stdmath.IsInf(o.prefactor, 0):
		return nil, errors.Wrapf(nqs.ErrInvalidArgument, "prefactor %g", o.prefactor)
	}
	if err := nqs.CheckCapacity(o.exec, max(n, m)); err != nil {
		return nil, err
	}

	p := newParams(n, m)
	p.prefactor, p.logPrefactor = o.prefactor, stdmath.Log(o.prefactor)
	if o.explicit {
		if err := fillExplicit(p, o); err != nil {
			return nil, err
		}
	} else {
		fillRandom(p, o)
	}
	return newPsi(p, o.exec, o.freeAxis), nil
}

func newPsi(p *params, exec nqs.Executor, freeAxis bool) *Psi {
	return &Psi{
		p:        p,
		kernel:   newKernel(p, freeAxis),
		exec:     exec,
		freeAxis: freeAxis,
	}
}

func fillExplicit(p *params, o options) error {
	if len(o.a) != p.n || len(o.b) != p.m || len(o.w) != p.n*p.m || (o.scale != nil && len(o.scale) != p.m) {
		return errors.Wrapf(nqs.ErrParamLength, "blocks a=%d b=%d W=%d n=%d for shape %dx%d",
			len(o.a), len(o.b), len(o.w), len(o.scale), p.n, p.m)
	}
	copy(p.a, o.a)
	copy(p.b, o.b)
	copy(p.w, o.w)
	if o.scale != nil {
		copy(p.scale, o.scale)
	} else {
		for j := range p.scale {
			p.scale[j] = 1
		}
	}
	return nil
}

func fillRandom(p *params, o options) {
	noise := distuv.Normal{Mu: 0, Sigma: o.noise, Src: rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15)}
	next := func() complex128 { return complex(noise.Rand(), noise.Rand()) }
	if o.freeAxis {
		for i := range p.a {
			p.a[i] = complex(stdmath.Pi/2+noise.Rand(), noise.Rand())
		}
	}
	for j := range p.b {
		p.b[j] = next()
	}
	for k := range p.w {
		p.w[k] = next()
	}
	for j := range p.scale {
		p.scale[j] = 1
	}
}

// group borrows a work-group of the executor.
func (p *Psi) group() *nqs.Group {
	if g, ok := p.groups.Get().(*nqs.Group); ok {
		return g
	}
	return p.exec.NewGroup()
}

func (p *Psi) release(g *nqs.Group) {
	p.groups.Put(g)
}

// evaluate returns a fresh State for s.
func (p *Psi) evaluate(s nqs.Spins) *State {
	g := p.group()
	defer p.release(g)
	st := p.NewState()
	p.Evaluate(g, st, s)
	return st
}

func (p *Psi) NumSpins() int          { return p.p.n }
func (p *Psi) NumHidden() int         { return p.p.m }
func (p *Psi) NumParams() int         { return numParams(p.p.n, p.p.m) }
func (p *Psi) NumActiveParams() int   { return p.kernel.NumActiveParams() }
func (p *Psi) FreeQuantumAxis() bool  { return p.freeAxis }
func (p *Psi) Executor() nqs.Executor { return p.exec }
func (p *Psi) Backend() nqs.Backend   { return p.exec.Backend() }
func (p *Psi) Prefactor() float64     { return p.p.prefactor }
func (p *Psi) LogPrefactor() float64  { return p.p.logPrefactor }
func (p *Psi) Kernel() Kernel         { return p.kernel }

// SetPrefactor replaces the real amplitude prefactor.
func (p *Psi) SetPrefactor(prefactor float64) error {
	if !(prefactor > 0) || stdmath.IsInf(prefactor, 0) {
		return errors.Wrapf(nqs.ErrInvalidArgument, "prefactor %g", prefactor)
	}
	p.p.prefactor, p.p.logPrefactor = prefactor, stdmath.Log(prefactor)
	return nil
}

// Params returns a copy of the flat parameter array.
func (p *Psi) Params() []complex128 {
	return append([]complex128(nil), p.p.data...)
}

// SetParams copies params into the wavefunction.
func (p *Psi) SetParams(params []complex128) error {
	if len(params) != len(p.p.data) {
		return errors.Wrapf(nqs.ErrParamLength, "got %d parameters, want %d", len(params), len(p.p.data))
	}
	copy(p.p.data, params)
	return nil
}

// Clone returns an independent copy with the same shape, kind, prefactor and
// executor.
func (p *Psi) Clone() *Psi {
	return newPsi(p.p.clone(), p.exec, p.freeAxis)
}

// Angle returns the angle of hidden unit j at s.
func (p *Psi) Angle(j int, s nqs.Spins) complex128 {
	return p.kernel.Angle(j, s.Expand(p.p.n, nil))
}

// Angles returns every angle at s.
func (p *Psi) Angles(s nqs.Spins) []complex128 {
	return p.evaluate(s).Angles
}

// FlipAngles returns the angles after flipping position pos, given the
// angles before the flip and the configuration after it. angles is not
// modified.
func (p *Psi) FlipAngles(angles []complex128, pos int, newSpins nqs.Spins) []complex128 {
	out := make([]complex128, p.p.m)
	for j := range out {
		out[j] = p.kernel.FlipAngle(angles, j, pos, newSpins)
	}
	return out
}

// LogAmplitude returns log ψ(s) without the prefactor.
func (p *Psi) LogAmplitude(s nqs.Spins) complex128 {
	return p.evaluate(s).LogAmplitude
}

// Amplitude returns prefactor · exp(log ψ(s)).
func (p *Psi) Amplitude(s nqs.Spins) complex128 {
	return cmplx.Exp(complex(p.p.logPrefactor, 0) + p.LogAmplitude(s))
}

// Probability returns |prefactor · ψ(s)|².
func (p *Psi) Probability(s nqs.Spins) float64 {
	return p.ProbabilityFromLog(real(p.LogAmplitude(s)))
}

// ProbabilityFromLog returns the probability of a configuration whose
// log-amplitude has real part re.
func (p *Psi) ProbabilityFromLog(re float64) float64 {
	return stdmath.Exp(2 * (p.p.logPrefactor + re))
}

// DerivativeElement returns O_k at s given the tanh of its angles, or 0 for
// k >= NumActiveParams.
func (p *Psi) DerivativeElement(k int, s nqs.Spins, tanhAngles []complex128) complex128 {
	if k < 0 || k >= p.kernel.NumActiveParams() {
		return 0
	}
	return p.kernel.DerivativeElement(k, s, tanhAngles)
}

// AxisDerivatives returns the α and β log-derivatives of axis slot i for a
// spin pointing up or down. It is meaningful for the free-quantum-axis kind
// only.
func (p *Psi) AxisDerivatives(i int, up bool) (alpha, beta complex128) {
	return axisDerivatives(p.p.a[i], up)
}
