package main

import (
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ajroetker/go-nqs/nqs"
	"github.com/ajroetker/go-nqs/nqs/contrib/ensemble"
	"github.com/ajroetker/go-nqs/nqs/contrib/operator"
	"github.com/ajroetker/go-nqs/nqs/distance"
	"github.com/ajroetker/go-nqs/nqs/psi"
)

// session is everything a distance evaluation needs, built from the config.
type session struct {
	exec    nqs.Executor
	release func()

	ref, cand *psi.Psi
	op        operator.Operator
	unitary   bool
	ens       ensemble.Ensemble
	est       *distance.Estimator
}

func (a *app) newSession() (*session, error) {
	exec, release, err := a.cfg.NewExecutor()
	if err != nil {
		return nil, err
	}
	s := &session{exec: exec, release: release}
	fail := func(err error) (*session, error) {
		release()
		return nil, err
	}

	if s.ref, err = a.cfg.NewPsi(exec); err != nil {
		return fail(err)
	}
	s.cand = s.ref.Clone()
	if err := perturb(s.cand, a.cfg.Train.Perturbation, a.cfg.Seed+1); err != nil {
		return fail(err)
	}
	if s.op, err = a.cfg.Operator.Build(); err != nil {
		return fail(err)
	}
	s.unitary = operator.IsUnitary(s.op)
	s.ens = a.cfg.Ensemble.Build()
	if s.est, err = distance.New(s.cand.NumSpins(), s.cand.NumActiveParams(), exec, distance.WithLogger(a.logger)); err != nil {
		return fail(err)
	}
	return s, nil
}

func (s *session) Close() {
	if s != nil && s.release != nil {
		s.release()
	}
}

// perturb adds complex Gaussian noise of the given scale to every active
// parameter of p.
func perturb(p *psi.Psi, scale float64, seed uint64) error {
	if scale == 0 {
		return nil
	}
	noise := distuv.Normal{Mu: 0, Sigma: scale, Src: rand.NewPCG(seed, 0x5eed)}
	params := p.Params()
	for k := range p.NumActiveParams() {
		params[k] += complex(noise.Rand(), noise.Rand())
	}
	return errors.Wrap(p.SetParams(params), "perturb candidate")
}
