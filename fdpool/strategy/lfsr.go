/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package strategy

import "time"

// maximalTaps lists, per register width in bits, the tapped bit positions
// (1-indexed from the MSB) of a maximal-length Fibonacci LFSR: stepping it
// visits every nonzero value in [1, 2^n-1] exactly once before repeating
// (Xilinx XAPP052 tap tables). Widths above 24 are not needed: a fdpool
// service realistically never carries more than a few million nodes.
var maximalTaps = map[int][]int{
	2: {2, 1}, 3: {3, 2}, 4: {4, 3}, 5: {5, 3}, 6: {6, 5},
	7: {7, 6}, 8: {8, 6, 5, 4}, 9: {9, 5}, 10: {10, 7}, 11: {11, 9},
	12: {12, 6, 4, 1}, 13: {13, 4, 3, 1}, 14: {14, 5, 3, 1}, 15: {15, 14},
	16: {16, 15, 13, 4}, 17: {17, 14}, 18: {18, 11}, 19: {19, 6, 2, 1},
	20: {20, 17}, 21: {21, 19}, 22: {22, 21}, 23: {23, 18},
	24: {24, 23, 22, 17},
}

// bitsForRange returns the smallest n such that 2^n - 1 >= r+1, i.e. the
// LFSR period is at least r+1 as spec.md §4.7 requires. The spare state
// absorbs the one XOR-mask collision (reg^mask == 0) that Next must skip
// on every pass, so a full cycle still yields every value in [0,r).
func bitsForRange(r int) int {
	n := 2
	for (1<<uint(n))-1 < r+1 {
		n++
	}
	if n > 24 {
		n = 24
	}
	return n
}

func lfsrStep(reg uint32, taps []int, bits int) uint32 {
	var fb uint32
	for _, t := range taps {
		fb ^= (reg >> uint(bits-t)) & 1
	}
	return (reg >> 1) | (fb << uint(bits-1))
}

// randomCycle implements spec.md §4.7's "random cycle": a primary LFSR
// sized to the current node range, reseeded from a secondary 32-bit LFSR
// between full cycles, with an XOR mask derived from the initial seed so
// two independently-seeded runs never share a starting point.
type randomCycle struct {
	rng int

	bits  int
	taps  []int
	reg   uint32
	mask  uint32
	count int

	secondary uint32
}

func NewRandomCycle(seed uint32) Selector {
	if seed == 0 {
		seed = uint32(time.Now().UnixNano()) | 1
	}

	return &randomCycle{
		mask:      seed,
		secondary: seed ^ 0x9e3779b9,
	}
}

func (r *randomCycle) initFor(n int) {
	r.rng = n
	r.bits = bitsForRange(n)
	r.taps = maximalTaps[r.bits]
	r.mask = spareMask(r.mask, r.bits, n)
	r.reg = (r.mask & ((1 << uint(r.bits)) - 1))
	if r.reg == 0 {
		r.reg = 1
	}
	r.count = 0
}

func (r *randomCycle) reseed() {
	r.secondary = lfsrStep(r.secondary, maximalTaps[24], 24)
	r.mask ^= r.secondary
	r.mask = spareMask(r.mask, r.bits, r.rng)
}

// spareMask keeps mask's image of the LFSR's excluded reg==0 state out of
// [1,n]. reg cycles through every nonzero value in [1, 2^bits-1] exactly
// once per period, so (reg^mask)&full takes every value in [0, 2^bits-1]
// except m0 = mask&full exactly once. Next only accepts m0 in [1,n] as an
// output; if m0 itself fell in that range, the index m0-1 could never be
// produced and another index would have to repeat to make up the count,
// breaking the "every index exactly once per cycle" invariant (spec.md
// §4.7, §8). Forcing m0 into the spare region (n, full] makes every value
// in [1,n] reachable, and reachable exactly once.
func spareMask(mask uint32, bits, n int) uint32 {
	full := uint32(1<<uint(bits)) - 1
	m0 := mask & full
	if m0 == 0 || int(m0) > n {
		return mask
	}
	return (mask &^ full) | (uint32(n) + 1)
}

func (r *randomCycle) Next(n int) (int, bool) {
	if n <= 0 {
		return 0, true
	}

	if r.rng != n {
		r.initFor(n)
	}

	for {
		r.reg = lfsrStep(r.reg, r.taps, r.bits)
		v := int((r.reg^r.mask)&((1<<uint(r.bits))-1)) - 1
		if v < 0 || v >= n {
			continue
		}

		r.count++
		done := r.count >= n
		if done {
			r.reseed()
			r.count = 0
		}

		return v, done
	}
}

func (r *randomCycle) Reset() {
	r.rng = 0
	r.count = 0
}
