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

// Package sd implements the pluggable service-discovery plumbing of
// spec.md §4.6/§6: a queue of (index, kind, host-key, value) events feeding
// a shadow host table, which is pushed through an UpdateHosts-shaped
// callback whenever a host entry becomes complete.
package sd

import "time"

// Kind is one of the four event kinds a discovery source may emit
// (spec.md §6 "service discovery wire format").
type Kind int

const (
	KindFlush Kind = iota
	KindDelete
	KindConfig
	KindHealth
)

func (k Kind) String() string {
	switch k {
	case KindFlush:
		return "flush"
	case KindDelete:
		return "delete"
	case KindConfig:
		return "config"
	case KindHealth:
		return "health"
	default:
		return "unknown"
	}
}

// Event is one discovery message: Index is monotonically increasing across
// a source, HostKey names the affected shadow entry (empty for flush),
// Value is either a legacy "key=value\n..." blob or a JSON object for
// KindConfig, or "up"/"down" for KindHealth.
type Event struct {
	Index   uint64
	Kind    Kind
	HostKey string
	Value   string
}

// Queue is a buffered FIFO of discovery events with a bounded-wait Pop,
// standing in for the original's condvar-guarded queue with a ~2s poll
// timeout (original_source/core/lib/fd_pool_sd.c QUEUEWAIT_MS).
type Queue struct {
	ch chan Event
}

// NewQueue creates a queue with the given buffer depth.
func NewQueue(buffer int) *Queue {
	if buffer <= 0 {
		buffer = 64
	}
	return &Queue{ch: make(chan Event, buffer)}
}

// Push enqueues an event. It blocks while the queue is full: the channel
// itself applies backpressure to producers until the consumer catches up
// on its next Wait call (acceptable here: discovery sources are expected
// to be slow relative to consumption).
func (q *Queue) Push(e Event) {
	q.ch <- e
}

// Wait blocks for up to timeout for the next event, returning (event, true)
// if one arrived or (zero, false) on timeout — the Go shape of
// sd_queue_wait's NULL-on-timeout return.
func (q *Queue) Wait(timeout time.Duration) (Event, bool) {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case e := <-q.ch:
		return e, true
	case <-t.C:
		return Event{}, false
	}
}
