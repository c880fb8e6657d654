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

// Package container holds small shared data structures built on the
// teacher's generic expiring cache rather than hand-rolled maps: a
// StringPool interning repeated HTTP header names so a long-lived
// controller doesn't accumulate one string allocation per header per
// request, grounded on SPEC_FULL.md §0's "AVL/LRU/stringpool containers".
package container

import (
	"context"
	"time"

	"github.com/nabbar/netctl/cache"
)

// StringPool interns strings under a bounded TTL so a value seen again
// before expiry reuses the same backing string instead of allocating a
// new one, the same shape as the teacher's cache.Cache repurposed for
// string interning instead of arbitrary typed values.
type StringPool struct {
	c cache.Cache[string, string]
}

// NewStringPool builds a pool whose entries expire after ttl if unused,
// so a long-running controller doesn't retain header names from clients
// that have long since disconnected.
func NewStringPool(ctx context.Context, ttl time.Duration) *StringPool {
	return &StringPool{c: cache.New[string, string](ctx, ttl)}
}

// Intern returns the pooled copy of s, storing s as its own canonical
// value on first sight.
func (p *StringPool) Intern(s string) string {
	if v, _, ok := p.c.Load(s); ok {
		return v
	}
	p.c.Store(s, s)
	return s
}

// Len reports the number of distinct strings currently interned.
func (p *StringPool) Len() int {
	n := 0
	p.c.Walk(func(_ string, _ string, _ time.Duration) bool {
		n++
		return true
	})
	return n
}
