package math

import (
	stdmath "math"
	"math/cmplx"
)

// LogCosh computes log(cosh(z)).
//
// Algorithm: cosh is even, so z is first reflected into Re z >= 0. Then
//
//	cosh(z) = e^z (1 + e^(-2z)) / 2
//
// and |e^(-2z)| <= 1, so nothing overflows however large Re z grows.
//
// Formula: log(cosh(z)) = z + log(1 + e^(-2z)) - log(2)
func LogCosh(z complex128) complex128 {
	if real(z) < 0 {
		z = -z
	}
	return z + cmplx.Log(1+cmplx.Exp(-2*z)) - ln2
}

// LogCoshNaive computes log(cosh(z)) directly. It overflows to +Inf once
// |Re z| exceeds roughly 710 and exists as a reference for LogCosh.
func LogCoshNaive(z complex128) complex128 {
	return cmplx.Log(cmplx.Cosh(z))
}

// Tanh computes tanh(z).
//
// For |Re z| below tanhCutoff this is cmplx.Tanh. Above it, cmplx.Tanh
// divides two overflowing cosh/sinh values, so the reflected form
//
//	tanh(z) = (1 - e^(-2z)) / (1 + e^(-2z)),  Re z >= 0
//
// is used instead.
func Tanh(z complex128) complex128 {
	if stdmath.Abs(real(z)) < tanhCutoff {
		return cmplx.Tanh(z)
	}
	if real(z) < 0 {
		return -Tanh(-z)
	}
	e := cmplx.Exp(-2 * z)
	return (1 - e) / (1 + e)
}

// LogCos returns the complex logarithm of cos(x). A negative cosine yields an
// imaginary part of π.
func LogCos(x float64) complex128 {
	return cmplx.Log(complex(stdmath.Cos(x), 0))
}

// LogSin returns the complex logarithm of sin(x).
func LogSin(x float64) complex128 {
	return cmplx.Log(complex(stdmath.Sin(x), 0))
}
