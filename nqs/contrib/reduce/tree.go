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

// Package reduce provides the block-wide binary tree reduction used by the
// device backend.
//
// A work-group writes one summand per lane into shared scratch whose length
// is a power of two (lanes beyond the live count hold the neutral element 0)
// and then folds the upper half onto the lower half until one value is left.
// Each fold is one barrier step of the group.
package reduce

import (
	"fmt"
	"math/bits"
)

// Summable is the set of element types the tree reduction accepts.
type Summable interface {
	~float32 | ~float64 | ~complex64 | ~complex128
}

// NextPow2 returns the smallest power of two that is >= n. NextPow2(0) is 1.
func NextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// IsPow2 reports whether n is a positive power of two.
func IsPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// TreeSum reduces buf in place and returns the sum of its elements.
//
// len(buf) must be a power of two; TreeSum panics otherwise. Returns 0 if buf
// is empty.
//
// Example:
//
//	buf := []float64{1, 2, 3, 0} // three live lanes, padded with 0
//	result := TreeSum(buf)      // (1 + 3) + (2 + 0) = 6
func TreeSum[T Summable](buf []T) T {
	if len(buf) == 0 {
		return 0
	}
	if !IsPow2(len(buf)) {
		panic(fmt.Sprintf("reduce: TreeSum length %d is not a power of two", len(buf)))
	}

	for half := len(buf) / 2; half > 0; half /= 2 {
		for lane := 0; lane < half; lane++ {
			buf[lane] += buf[lane+half]
		}
	}
	return buf[0]
}

// PaddedTreeSum computes the tree sum of n lanes produced by f, using scratch
// as shared memory. Lanes in [n, NextPow2(n)) are padded with 0.
//
// scratch must hold at least NextPow2(n) elements; PaddedTreeSum panics
// otherwise.
func PaddedTreeSum[T Summable](n int, scratch []T, f func(lane int) T) T {
	if n <= 0 {
		return 0
	}
	width := NextPow2(n)
	if len(scratch) < width {
		panic(fmt.Sprintf("reduce: scratch holds %d lanes, need %d", len(scratch), width))
	}

	buf := scratch[:width]
	for lane := range buf {
		if lane < n {
			buf[lane] = f(lane)
		} else {
			buf[lane] = 0
		}
	}
	return TreeSum(buf)
}
