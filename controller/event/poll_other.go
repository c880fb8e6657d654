//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

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

package event

import (
	"sync"
	"time"
)

// pollLoop is the portable fallback for platforms without epoll/kqueue: it
// remembers registered (fd, token) pairs and, on Wait, sleeps for the
// timeout and then reports every registered token whether or not its fd is
// readable. Tokens are reported on every Wait until removed.
type pollLoop struct {
	mu   sync.Mutex
	regs map[int]int
}

func New() (Loop, error) {
	return &pollLoop{regs: map[int]int{}}, nil
}

func (l *pollLoop) Add(fd int, token int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.regs[fd] = token
	return nil
}

func (l *pollLoop) Remove(fd int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.regs, fd)
	return nil
}

func (l *pollLoop) Wait(timeoutMs int) ([]int, error) {
	if timeoutMs < 0 {
		timeoutMs = 1000
	}
	time.Sleep(time.Duration(timeoutMs) * time.Millisecond)

	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]int, 0, len(l.regs))
	for _, tok := range l.regs {
		out = append(out, tok)
	}
	return out, nil
}

func (l *pollLoop) Close() error {
	return nil
}
