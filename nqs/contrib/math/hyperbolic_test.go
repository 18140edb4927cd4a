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

package math

import (
	stdmath "math"
	"math/cmplx"
	"math/rand/v2"
	"testing"
)

// sameModulo2Pi reports whether a and b agree in the real part and agree in
// the imaginary part up to a multiple of 2π.
func sameModulo2Pi(a, b complex128, tol float64) bool {
	if stdmath.Abs(real(a)-real(b)) > tol {
		return false
	}
	d := stdmath.Remainder(imag(a)-imag(b), 2*stdmath.Pi)
	return stdmath.Abs(d) <= tol
}

func TestLogCoshMatchesNaive(t *testing.T) {
	tests := []struct {
		name string
		z    complex128
	}{
		{"zero", 0},
		{"small real", 0.3},
		{"small negative", -0.7},
		{"complex", complex(1.2, -0.4)},
		{"negative complex", complex(-2.5, 1.1)},
		{"imaginary", complex(0, 1.3)},
		{"moderate", complex(15, 3)},
		{"moderate negative", complex(-30, -2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, want := LogCosh(tt.z), LogCoshNaive(tt.z)
			if !sameModulo2Pi(got, want, 1e-12) {
				t.Errorf("LogCosh(%v) = %v, naive %v", tt.z, got, want)
			}
		})
	}
}

func TestLogCoshRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 1000 {
		z := complex(rng.NormFloat64()*5, rng.NormFloat64()*5)
		got, want := LogCosh(z), LogCoshNaive(z)
		if !sameModulo2Pi(got, want, 1e-10) {
			t.Fatalf("LogCosh(%v) = %v, naive %v", z, got, want)
		}
		if d := cmplx.Abs(cmplx.Exp(got) - cmplx.Cosh(z)); d > 1e-9*cmplx.Abs(cmplx.Cosh(z)) {
			t.Fatalf("exp(LogCosh(%v)) off by %v", z, d)
		}
	}
}

func TestLogCoshLargeMagnitude(t *testing.T) {
	for _, x := range []float64{800, -800, 1e5, -1e8} {
		z := complex(x, 0.25)
		naive := LogCoshNaive(z)
		if !cmplx.IsInf(naive) && !cmplx.IsNaN(naive) {
			t.Logf("naive stayed finite at %v: %v", z, naive)
		}
		got := LogCosh(z)
		if cmplx.IsInf(got) || cmplx.IsNaN(got) {
			t.Fatalf("LogCosh(%v) = %v, want finite", z, got)
		}
		want := stdmath.Abs(x) - stdmath.Ln2
		if stdmath.Abs(real(got)-want) > 1e-9*stdmath.Abs(want) {
			t.Errorf("Re LogCosh(%v) = %v, want %v", z, real(got), want)
		}
	}
}

func TestTanh(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for range 500 {
		z := complex(rng.NormFloat64()*4, rng.NormFloat64()*4)
		if got, want := Tanh(z), cmplx.Tanh(z); cmplx.Abs(got-want) > 1e-12 {
			t.Fatalf("Tanh(%v) = %v, want %v", z, got, want)
		}
	}

	for _, x := range []float64{25, 400, 1e6} {
		for _, sign := range []float64{1, -1} {
			z := complex(sign*x, 0.7)
			got := Tanh(z)
			if cmplx.IsNaN(got) || cmplx.Abs(got-complex(sign, 0)) > 1e-12 {
				t.Errorf("Tanh(%v) = %v, want %v", z, got, sign)
			}
		}
	}
}

func TestLogCosSin(t *testing.T) {
	x := 2 * stdmath.Pi / 3
	if got := LogCos(x); stdmath.Abs(real(got)-stdmath.Log(0.5)) > 1e-12 || stdmath.Abs(imag(got)-stdmath.Pi) > 1e-12 {
		t.Errorf("LogCos(2π/3) = %v", got)
	}
	if got := LogSin(stdmath.Pi / 6); stdmath.Abs(real(got)-stdmath.Log(0.5)) > 1e-12 || imag(got) != 0 {
		t.Errorf("LogSin(π/6) = %v", got)
	}
}

func BenchmarkLogCosh(b *testing.B) {
	z := complex(3.5, -1.25)
	for i := 0; i < b.N; i++ {
		_ = LogCosh(z)
	}
}

func BenchmarkTanh(b *testing.B) {
	z := complex(3.5, -1.25)
	for i := 0; i < b.N; i++ {
		_ = Tanh(z)
	}
}
