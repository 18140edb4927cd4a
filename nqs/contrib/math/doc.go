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

// Package math provides the complex transcendental functions used by the
// wavefunction kernels.
//
// # Functions
//
//   - LogCosh(z) - log(cosh(z)), stable for any |Re z|
//   - LogCoshNaive(z) - log(cosh(z)) straight from math/cmplx, for reference
//   - Tanh(z) - tanh(z), stable for any |Re z|
//   - LogCos(x), LogSin(x) - complex logarithm of a real cosine or sine
//
// # Accuracy
//
// LogCosh agrees with LogCoshNaive to a few ULP wherever cosh(z) does not
// overflow. The imaginary part of a complex logarithm is only defined modulo
// 2π; the functions here return the principal branch of their own formula,
// which may differ from LogCoshNaive by a multiple of 2πi. exp of both agree.
package math
