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

// Package strategy implements the three node-selection algorithms named in
// spec.md §4.7: sequential, random-cycle (LFSR) and weighted-hash.
package strategy

// Kind enumerates the node-selection strategies a service may declare.
type Kind uint8

const (
	Sequential Kind = iota
	RandomCycle
	WeightedHash
)

func ParseKind(s string) Kind {
	switch s {
	case "random", "random_pick":
		return RandomCycle
	case "hash", "client_hash":
		return WeightedHash
	default:
		return Sequential
	}
}

// Selector picks the next node index in [0, n) given a range n. It carries
// its own iteration state (cursor, LFSR register, hash seed) and is bound
// to one connection-handle lifetime, matching the "strategy iterator
// state" field of the spec's Connection handle.
type Selector interface {
	// Next returns the next node index for a range of n nodes, and whether
	// the current cycle is exhausted (all n indices already produced once).
	Next(n int) (idx int, cycleDone bool)
	// Reset restarts the iterator, as happens when a new NodeSet generation
	// is observed.
	Reset()
}

// Cost looks up the effective weight of node i, used by WeightedHash.
type Cost func(i int) int64
