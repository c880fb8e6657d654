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

import "math/bits"

// WeightedHash walks nodes accumulating inverse-cost weights and draws a
// deterministic pseudo-random number from the caller's hash to pick one
// node per draw, per spec.md §4.7: "pick the node iff weight/total > r".
// It does not implement the Selector interface directly (it needs the
// per-node Cost lookup on every draw, which Selector.Next's signature
// cannot express); fdpool's iterator calls Pick directly instead.
type WeightedHash struct {
	hash uint64
}

func NewWeightedHash(hash uint64) *WeightedHash {
	return &WeightedHash{hash: hash}
}

// Pick returns the index of the node selected for this draw given n nodes
// and their effective costs. The result is deterministic for a fixed hash
// and fixed cost vector, giving client-sticky distribution proportional to
// 1/cost.
func (w *WeightedHash) Pick(n int, cost Cost) int {
	if n <= 0 {
		return 0
	}
	if n == 1 {
		return 0
	}

	var total float64
	weights := make([]float64, n)

	for i := 0; i < n; i++ {
		c := cost(i)
		if c < 1 {
			c = 1
		}
		weights[i] = 1.0 / float64(c)
		total += weights[i]
	}

	if total <= 0 {
		return 0
	}

	r := w.draw()
	var acc float64

	for i := 0; i < n; i++ {
		acc += weights[i]
		if acc/total > r {
			return i
		}
	}

	return n - 1
}

// draw produces a deterministic value in [0,1) from the caller hash,
// advancing it with a splitmix64-style mix so repeated draws (e.g. across
// strategy cycles) do not collapse to the same node every time.
func (w *WeightedHash) draw() float64 {
	w.hash += 0x9e3779b97f4a7c15
	z := w.hash
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z = z ^ (z >> 31)

	// top 53 bits give a uniform double in [0,1)
	return float64(bits.RotateLeft64(z, 0)>>11) / float64(uint64(1)<<53)
}
