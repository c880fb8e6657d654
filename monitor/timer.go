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

package monitor

import (
	"sync"
	"time"
)

// TimerStat is one timer's published snapshot, the Go analogue of
// controller-stats.c's timer_dump "count/bytes/total/min/max/average"
// quintuple.
type TimerStat struct {
	Count   int64   `json:"count"`
	Bytes   uint64  `json:"bytes"`
	Total   float64 `json:"total"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

// timer accumulates one named timer's observations under its own lock;
// reads and writes are both infrequent enough that a single mutex beats
// lock-free bookkeeping for the six-field update.
type timer struct {
	mu      sync.Mutex
	count   int64
	bytes   uint64
	total   time.Duration
	min     time.Duration
	max     time.Duration
	hasData bool
}

// Observe folds one timed operation of the given byte length into the
// timer's running count/bytes/total/min/max.
func (t *timer) Observe(d time.Duration, bytes uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.count++
	t.bytes += bytes
	t.total += d

	if !t.hasData || d < t.min {
		t.min = d
	}
	if !t.hasData || d > t.max {
		t.max = d
	}
	t.hasData = true
}

func (t *timer) snapshot() TimerStat {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := TimerStat{
		Count: t.count,
		Bytes: t.bytes,
		Total: t.total.Seconds(),
		Min:   t.min.Seconds(),
		Max:   t.max.Seconds(),
	}
	if t.count > 0 {
		s.Average = t.total.Seconds() / float64(t.count)
	}
	return s
}
