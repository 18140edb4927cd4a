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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("nqs/distance")

var (
	passesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nqs_distance_passes_total",
		Help: "Estimation passes by backend and mode",
	}, []string{"backend", "mode"})

	passDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nqs_distance_pass_duration_seconds",
		Help:    "Wall time of one estimation pass",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
	}, []string{"backend"})

	samplesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nqs_distance_samples_total",
		Help: "Configurations folded into estimation passes",
	})

	unreliableTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nqs_distance_unreliable_total",
		Help: "Passes whose moments were too small or non-finite to divide by",
	})
)

func startPassSpan(ctx context.Context, name string, backend string, samples int, unitary, gradient bool) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithAttributes(
			attribute.String("nqs.backend", backend),
			attribute.Int("nqs.samples", samples),
			attribute.Bool("nqs.unitary", unitary),
			attribute.Bool("nqs.gradient", gradient),
		),
	)
}
