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

// Package nqs provides the execution core shared by the neural quantum state
// kernels: bit-packed spin configurations, weighted configuration batches and
// the two execution backends.
//
// Every per-configuration sum is written once as a lane function and handed to
// a Group. On the host backend a Group adds the lanes in order; on the device
// backend it stores every lane in shared scratch and folds it with a binary
// tree reduction, the way a GPU block would.
//
// Basic usage:
//
//	import "github.com/ajroetker/go-nqs/nqs"
//
//	dev, err := nqs.NewDevice(nqs.DeviceConfig{})
//	if err != nil {
//	    return err
//	}
//	defer dev.Close()
//
//	g := dev.NewGroup()
//	sum := g.Sum(n, func(lane int) complex128 { return values[lane] })
package nqs

import (
	"math/bits"
	"strings"

	"github.com/pkg/errors"
)

// MaxSpins is the number of positions a Spins value can hold.
const MaxSpins = 64

// Spins is a bit-packed configuration of ±1 values. Position i is +1 when bit
// i is set and -1 otherwise, so the canonical enumeration order of all
// configurations of n spins is the integer range [0, 2^n).
type Spins uint64

// At returns the value (+1 or -1) of position i.
func (s Spins) At(i int) float64 {
	if s>>uint(i)&1 == 1 {
		return 1
	}
	return -1
}

// Up reports whether position i holds +1.
func (s Spins) Up(i int) bool {
	return s>>uint(i)&1 == 1
}

// Flip returns the configuration with position p negated.
func (s Spins) Flip(p int) Spins {
	return s ^ (1 << uint(p))
}

// Expand writes the first n positions of s as complex numbers into dst and
// returns it. dst is grown if it is too short.
func (s Spins) Expand(n int, dst []complex128) []complex128 {
	if cap(dst) < n {
		dst = make([]complex128, n)
	}
	dst = dst[:n]
	for i := range n {
		dst[i] = complex(s.At(i), 0)
	}
	return dst
}

// SingleFlip reports whether t differs from s in exactly one position and
// returns that position.
func (s Spins) SingleFlip(t Spins) (int, bool) {
	diff := uint64(s ^ t)
	if diff == 0 || diff&(diff-1) != 0 {
		return 0, false
	}
	return bits.TrailingZeros64(diff), true
}

// Format renders the first n positions as '+' and '-', position 0 first.
func (s Spins) Format(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := range n {
		if s.Up(i) {
			b.WriteByte('+')
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// ParseSpins is the inverse of Format.
func ParseSpins(str string) (Spins, error) {
	if len(str) > MaxSpins {
		return 0, errors.Wrapf(ErrTooManySpins, "configuration %q has %d positions", str, len(str))
	}
	var s Spins
	for i, c := range str {
		switch c {
		case '+':
			s |= 1 << uint(i)
		case '-':
		default:
			return 0, errors.Wrapf(ErrInvalidArgument, "configuration %q: unexpected %q at %d", str, c, i)
		}
	}
	return s, nil
}

// Mask returns the configuration with the first n positions set to +1.
func Mask(n int) Spins {
	if n >= MaxSpins {
		return ^Spins(0)
	}
	return Spins(1)<<uint(n) - 1
}
