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

// Package event implements the controller's readiness notifier: an
// epoll/kqueue-style loop watching keep-alive sockets plus a shutdown
// pipe, so an idle connection costs no worker goroutine between requests
// (spec.md §2 "event loop", §5 "listener blocks in the event-loop wait").
// Grounded on original_source/core/lib/controller-epoll.c and
// controller-kqueue.c; the platform split mirrors that file pair.
package event

// Loop watches a set of file descriptors for read-readiness (or hangup)
// and reports which ones fired on each Wait call.
type Loop interface {
	// Add arms fd for one-shot readiness notification, tagged with token
	// so the caller can map the fired event back to its connection.
	Add(fd int, token int) error
	// Remove disarms fd.
	Remove(fd int) error
	// Wait blocks up to timeoutMs milliseconds and returns the tokens of
	// every fd that became ready or hung up. 0 returns at once; a negative
	// value waits without a time limit on epoll and kqueue, while the
	// portable fallback waits one second.
	Wait(timeoutMs int) ([]int, error)
	Close() error
}
