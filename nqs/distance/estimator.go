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

// Package distance estimates the Hilbert-space distance between an operator
// applied to a reference wavefunction and a candidate wavefunction, and its
// gradient with respect to the candidate's parameters.
//
// For a reference ψ, an operator O and a candidate ψ' the distance is
//
//	D = sqrt(1 - |<ψ'|Oψ>|² / (<ψ'|ψ'> <Oψ|Oψ>)),
//
// which is 0 exactly when ψ' and Oψ agree up to a complex factor. All inner
// products are estimated over an ensemble drawn from |ψ|², one pass per call.
//
// The gradient entry of a complex parameter θ is ∂D/∂Re θ + i ∂D/∂Im θ, so
// θ -= η·gradient is a descent step.
package distance

import (
	"context"
	"log/slog"
	stdmath "math"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ajroetker/go-nqs/nqs"
	"github.com/ajroetker/go-nqs/nqs/contrib/ensemble"
	"github.com/ajroetker/go-nqs/nqs/contrib/operator"
	"github.com/ajroetker/go-nqs/nqs/psi"
)

// ErrUnreliable is returned, wrapped, with a NaN distance when the moments of
// a pass are too small or not finite to divide by.
var ErrUnreliable = errors.New("distance: unreliable estimate")

// Estimator computes distances and gradients for wavefunctions with a fixed
// number of spins and candidate parameter count.
//
// An Estimator reuses its moment buffers and is not safe for concurrent use.
type Estimator struct {
	n, active int
	exec      nqs.Executor
	logger    *slog.Logger

	avg Averages
}

// Option configures New.
type Option func(*Estimator)

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Estimator) { e.logger = logger }
}

// New returns an estimator for n spins and candidates with numActiveParams
// active parameters, running on exec.
func New(n, numActiveParams int, exec nqs.Executor, opts ...Option) (*Estimator, error) {
	if n < 1 || n > nqs.MaxSpins || numActiveParams < 1 {
		return nil, errors.Wrapf(nqs.ErrInvalidArgument, "estimator for %d spins and %d parameters", n, numActiveParams)
	}
	if exec == nil {
		exec = nqs.Host
	}
	e := &Estimator{n: n, active: numActiveParams, exec: exec}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

// Distance returns the distance between op·ref and cand over a batch drawn
// from ens for ref. isUnitary asserts that op preserves norms, which skips
// estimating <Oψ|Oψ>.
func (e *Estimator) Distance(ctx context.Context, ref, cand *psi.Psi, op operator.Operator, isUnitary bool, ens ensemble.Ensemble) (float64, error) {
	batch, err := e.draw(ctx, ref, ens)
	if err != nil {
		return stdmath.NaN(), err
	}
	ctx, span := startPassSpan(ctx, "distance.Distance", e.exec.Backend().String(), batch.Len(), isUnitary, false)
	defer span.End()

	avg, err := e.run(ctx, "distance", ref, cand, op, isUnitary, batch, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return stdmath.NaN(), err
	}
	d := avg.Distance()
	span.SetAttributes(attribute.Float64("nqs.distance", d))
	span.SetStatus(codes.Ok, "")
	return d, nil
}

// Gradient writes the gradient of the distance with respect to the active
// parameters of cand into dst and returns the distance. dst must have
// cand.NumActiveParams() elements. On an unreliable pass dst is filled with
// NaN.
func (e *Estimator) Gradient(ctx context.Context, ref, cand *psi.Psi, op operator.Operator, isUnitary bool, ens ensemble.Ensemble, dst []complex128) (float64, error) {
	if len(dst) != e.active {
		return stdmath.NaN(), errors.Wrapf(nqs.ErrShapeMismatch, "gradient buffer of %d for %d parameters", len(dst), e.active)
	}
	batch, err := e.draw(ctx, ref, ens)
	if err != nil {
		return stdmath.NaN(), err
	}
	ctx, span := startPassSpan(ctx, "distance.Gradient", e.exec.Backend().String(), batch.Len(), isUnitary, true)
	defer span.End()

	avg, err := e.run(ctx, "gradient", ref, cand, op, isUnitary, batch, true)
	if err != nil {
		if errors.Is(err, ErrUnreliable) {
			fillNaN(dst)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return stdmath.NaN(), err
	}
	d := avg.Distance()
	avg.gradient(d, cand, dst)
	span.SetAttributes(attribute.Float64("nqs.distance", d))
	span.SetStatus(codes.Ok, "")
	return d, nil
}

// ComputeAverages runs one pass over batch and returns the normalized
// moments. The result aliases buffers of e and is valid until the next call.
func (e *Estimator) ComputeAverages(ctx context.Context, ref, cand *psi.Psi, op operator.Operator, isUnitary bool, batch *nqs.Batch, withGradient bool) (*Averages, error) {
	if batch == nil {
		return nil, errors.Wrap(nqs.ErrInvalidArgument, "nil batch")
	}
	ctx, span := startPassSpan(ctx, "distance.ComputeAverages", e.exec.Backend().String(), batch.Len(), isUnitary, withGradient)
	defer span.End()

	avg, err := e.run(ctx, "averages", ref, cand, op, isUnitary, batch, withGradient)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return avg, nil
}

func (e *Estimator) draw(ctx context.Context, ref *psi.Psi, ens ensemble.Ensemble) (*nqs.Batch, error) {
	if ref == nil || ens == nil {
		return nil, errors.Wrap(nqs.ErrInvalidArgument, "nil wavefunction or ensemble")
	}
	batch, err := ens.Draw(ctx, ref)
	if err != nil {
		return nil, errors.Wrap(err, "drawing ensemble")
	}
	return batch, nil
}

func (e *Estimator) validate(ref, cand *psi.Psi, op operator.Operator, batch *nqs.Batch) error {
	if ref == nil || cand == nil || op == nil || batch == nil {
		return errors.Wrap(nqs.ErrInvalidArgument, "nil wavefunction, operator or batch")
	}
	if ref.NumSpins() != e.n || cand.NumSpins() != e.n {
		return errors.Wrapf(nqs.ErrShapeMismatch, "estimator for %d spins got wavefunctions of %d and %d",
			e.n, ref.NumSpins(), cand.NumSpins())
	}
	if cand.NumActiveParams() != e.active {
		return errors.Wrapf(nqs.ErrShapeMismatch, "estimator for %d parameters got a candidate with %d",
			e.active, cand.NumActiveParams())
	}
	if err := nqs.SameBackend(e.exec, ref.Executor(), cand.Executor()); err != nil {
		return err
	}
	// Work-groups come from the estimator's executor, which may be narrower
	// than the ones the wavefunctions were built on.
	for _, p := range []*psi.Psi{ref, cand} {
		if err := nqs.CheckCapacity(e.exec, max(p.NumSpins(), p.NumHidden())); err != nil {
			return err
		}
	}
	return batch.Validate()
}

// run is one estimation pass: clear, accumulate per chunk, merge in chunk
// order, normalize.
func (e *Estimator) run(ctx context.Context, mode string, ref, cand *psi.Psi, op operator.Operator, isUnitary bool, batch *nqs.Batch, withGradient bool) (*Averages, error) {
	if err := e.validate(ref, cand, op, batch); err != nil {
		return nil, err
	}
	begin := time.Now()
	backend := e.exec.Backend().String()
	ps := &pass{
		ref:      ref,
		cand:     cand,
		op:       op,
		unitary:  isUnitary,
		gradient: withGradient,
		freeAxis: cand.FreeQuantumAxis(),
		batch:    batch,
	}

	e.avg.reset(e.n, e.active, withGradient, ps.freeAxis)
	partials, err := nqs.Launch(ctx, e.exec, batch.Len(), ps.newPartial, ps.accumulate)
	if err != nil {
		return nil, err
	}
	for _, part := range partials {
		e.avg.merge(&part.Averages)
	}

	passesTotal.WithLabelValues(backend, mode).Inc()
	samplesTotal.Add(float64(e.avg.Samples))
	passDuration.WithLabelValues(backend).Observe(time.Since(begin).Seconds())

	if err := e.avg.checkRaw(isUnitary); err != nil {
		unreliableTotal.Inc()
		e.logger.WarnContext(ctx, "unreliable distance estimate",
			slog.String("backend", backend),
			slog.Int("samples", batch.Len()),
			slog.String("reason", err.Error()),
		)
		return nil, err
	}
	e.avg.normalize(isUnitary)

	e.logger.DebugContext(ctx, "distance pass",
		slog.String("backend", backend),
		slog.String("mode", mode),
		slog.Int("samples", batch.Len()),
		slog.Float64("weight", e.avg.Weight),
		slog.Float64("fidelity", e.avg.Fidelity),
		slog.Duration("duration", time.Since(begin)),
	)
	return &e.avg, nil
}
