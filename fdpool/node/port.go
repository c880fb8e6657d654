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

package node

import "net"

// Port is one resolved address on a Node: a family, a sockaddr (carried as
// a net.Addr), an opaque port-key ("port", "http_port", "controller_port",
// ...) and a free list of idle FdEntry. HostPort is the human-readable
// peer label used in logs.
type Port struct {
	Network  string
	Addr     net.Addr
	PortKey  string
	HostPort string

	idleHead *FdEntry
	idleTail *FdEntry
	idleLen  int
}

// PushIdle inserts e onto the free list. When cycleLast is true, insertion
// happens after the current tail so the oldest idle entry is tried first
// (FIFO); otherwise it is pushed to the head (LIFO), matching spec.md §4.5.
func (p *Port) PushIdle(e *FdEntry, cycleLast bool) {
	e.next = nil

	if p.idleHead == nil {
		p.idleHead = e
		p.idleTail = e
		p.idleLen = 1
		return
	}

	if cycleLast {
		p.idleTail.next = e
		p.idleTail = e
	} else {
		e.next = p.idleHead
		p.idleHead = e
	}

	p.idleLen++
}

// PopIdle removes and returns the head of the free list, or nil if empty.
func (p *Port) PopIdle() *FdEntry {
	if p.idleHead == nil {
		return nil
	}

	e := p.idleHead
	p.idleHead = e.next
	if p.idleHead == nil {
		p.idleTail = nil
	}
	e.next = nil
	p.idleLen--

	return e
}

// IdleLen returns the number of idle entries currently cached on this port.
func (p *Port) IdleLen() int {
	return p.idleLen
}

// DrainIdle closes and discards every idle entry, used on node destruction.
func (p *Port) DrainIdle() {
	for e := p.PopIdle(); e != nil; e = p.PopIdle() {
		if e.Conn != nil {
			_ = e.Conn.Close()
		}
	}
}
