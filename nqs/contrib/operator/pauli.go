package operator

import (
	stdmath "math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/ajroetker/go-nqs/nqs"
)

// Pauli is a single-site Pauli matrix.
type Pauli byte

const (
	X Pauli = 'X'
	Y Pauli = 'Y'
	Z Pauli = 'Z'
)

// PauliString is Coefficient · P_0 ⊗ P_1 ⊗ ... acting on Sites. A site may
// appear at most once.
//
// With spin +1 as |0> and -1 as |1>: X flips, Z contributes s_i, and Y flips
// with factor -i·s_i evaluated at the row configuration.
type PauliString struct {
	Coefficient complex128
	Sites       []int
	Paulis      []Pauli
}

// NewPauliString parses a string such as "X0 Z3 Y4" into a PauliString.
func NewPauliString(coefficient complex128, spec string) (PauliString, error) {
	fields := strings.Fields(spec)
	if len(fields) == 0 {
		return PauliString{}, errors.Wrap(nqs.ErrInvalidArgument, "empty Pauli string")
	}
	p := PauliString{Coefficient: coefficient}
	for _, f := range fields {
		op := Pauli(strings.ToUpper(f[:1])[0])
		if !lo.Contains([]Pauli{X, Y, Z}, op) {
			return PauliString{}, errors.Wrapf(nqs.ErrInvalidArgument, "Pauli factor %q", f)
		}
		site, err := strconv.Atoi(f[1:])
		if err != nil || site < 0 || site >= nqs.MaxSpins {
			return PauliString{}, errors.Wrapf(nqs.ErrInvalidArgument, "Pauli factor %q: bad site", f)
		}
		p.Sites = append(p.Sites, site)
		p.Paulis = append(p.Paulis, op)
	}
	if dup := lo.FindDuplicates(p.Sites); len(dup) > 0 {
		return PauliString{}, errors.Wrapf(nqs.ErrInvalidArgument, "Pauli string %q repeats sites %v", spec, dup)
	}
	return p, nil
}

func (p PauliString) Apply(s nqs.Spins, dst []Term) []Term {
	c, t := p.Coefficient, s
	for k, site := range p.Sites {
		switch p.Paulis[k] {
		case X:
			t = t.Flip(site)
		case Y:
			c *= complex(0, -s.At(site))
			t = t.Flip(site)
		case Z:
			c *= complex(s.At(site), 0)
		}
	}
	return append(dst, Term{Spins: t, Coefficient: c})
}

// Unitary reports whether |Coefficient| = 1.
func (p PauliString) Unitary() bool {
	return stdmath.Abs(real(p.Coefficient)*real(p.Coefficient)+imag(p.Coefficient)*imag(p.Coefficient)-1) < 1e-12
}

func (p PauliString) String() string {
	parts := lo.Map(p.Sites, func(site int, k int) string {
		return string(p.Paulis[k]) + strconv.Itoa(site)
	})
	return strings.Join(parts, " ")
}

// Rotation is exp(iθP) = cos θ·1 + i sin θ·P for a Pauli string P with unit
// coefficient.
type Rotation struct {
	Angle     float64
	Generator PauliString
}

// NewRotation parses spec as in NewPauliString and returns exp(i·angle·P).
func NewRotation(angle float64, spec string) (Rotation, error) {
	p, err := NewPauliString(1, spec)
	if err != nil {
		return Rotation{}, err
	}
	return Rotation{Angle: angle, Generator: p}, nil
}

func (r Rotation) Apply(s nqs.Spins, dst []Term) []Term {
	dst = append(dst, Term{Spins: s, Coefficient: complex(stdmath.Cos(r.Angle), 0)})
	start := len(dst)
	dst = r.Generator.Apply(s, dst)
	dst[start].Coefficient *= complex(0, stdmath.Sin(r.Angle))
	return dst
}

func (r Rotation) Unitary() bool { return r.Generator.Unitary() }
