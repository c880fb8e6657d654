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

// Package types holds the handler contract shared between the controller's
// request state machine and the handlers it dispatches to (spec.md §3, §4).
package types

import "sync/atomic"

// State is the narrow view of the per-request state a handler callback
// needs; the full state machine lives in controller/request and satisfies
// this interface.
type State interface {
	Method() string
	Path() string
	Query(key string) string
	Header(key string) string
	SetHeader(key, value string)
	SetStatus(code int)
	Write(p []byte) (int, error)
	PrivateData() any
	SetPrivateData(v any)
}

// Handler is the spec's "url pattern + optional start/consume_post/finish/
// cleanup/upgrade callbacks + counter" tuple (spec.md §3 "Controller").
// Callbacks run strictly serialised per request in the order
// Start -> ConsumePost* -> Finish -> Cleanup -> (Upgrade), spec.md §5.
type Handler struct {
	Pattern string

	Start       func(s State) error
	ConsumePost func(s State, chunk []byte) error
	Finish      func(s State) error
	Cleanup     func(s State)
	Upgrade     func(s State, token string) error

	calls uint64
}

// Count returns the number of times this handler has been dispatched to.
func (h *Handler) Count() uint64 {
	return atomic.LoadUint64(&h.calls)
}

// Touch increments the call counter; the dispatcher calls this once per
// request routed to this handler.
func (h *Handler) Touch() {
	atomic.AddUint64(&h.calls, 1)
}
