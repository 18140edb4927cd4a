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

// Package operator provides linear operators on spin configurations in the
// computational basis.
//
// An operator O is given by its action on a basis state,
//
//	(O ψ)(s) = Σ_k c_k ψ(s_k),
//
// i.e. Apply(s) lists the configurations s_k connected to s by a row of the
// operator matrix together with the matrix elements c_k = <s|O|s_k>.
package operator

import (
	"math/cmplx"

	"github.com/ajroetker/go-nqs/nqs"
)

// Term is one entry of an operator row.
type Term struct {
	Spins       nqs.Spins
	Coefficient complex128
}

// Operator is a linear operator in the computational basis.
type Operator interface {
	// Apply appends the row of s to dst and returns the extended slice.
	Apply(s nqs.Spins, dst []Term) []Term
}

// Identity is the identity operator.
type Identity struct{}

func (Identity) Apply(s nqs.Spins, dst []Term) []Term {
	return append(dst, Term{Spins: s, Coefficient: 1})
}

func (Identity) Unitary() bool { return true }

// Scaled multiplies an operator by a constant factor.
type Scaled struct {
	Factor complex128
	Op     Operator
}

func (o Scaled) Apply(s nqs.Spins, dst []Term) []Term {
	start := len(dst)
	dst = o.Op.Apply(s, dst)
	for k := start; k < len(dst); k++ {
		dst[k].Coefficient *= o.Factor
	}
	return dst
}

// Unitary reports whether the factor has unit modulus and the wrapped operator
// is unitary.
func (o Scaled) Unitary() bool {
	return cmplx.Abs(o.Factor) == 1 && IsUnitary(o.Op)
}

// Sum is the sum of its operators.
type Sum []Operator

func (o Sum) Apply(s nqs.Spins, dst []Term) []Term {
	for _, op := range o {
		dst = op.Apply(s, dst)
	}
	return dst
}

// IsUnitary reports whether op declares itself unitary through an
// Unitary() bool method. Operators without the method are assumed not to be.
func IsUnitary(op Operator) bool {
	u, ok := op.(interface{ Unitary() bool })
	return ok && u.Unitary()
}
