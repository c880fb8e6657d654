//go:build darwin || freebsd || netbsd || openbsd

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
	"time"

	"golang.org/x/sys/unix"
)

type kqueueLoop struct {
	fd int
}

// New creates the platform readiness loop (kqueue on the BSDs/Darwin).
func New() (Loop, error) {
	fd, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	return &kqueueLoop{fd: fd}, nil
}

// Add arms fd for one-shot read readiness. kqueue identifies events by the
// real fd, so token is ignored here; Wait reports the fd itself back
// (unlike the epoll_linux backend, which can tag an arbitrary token).
func (l *kqueueLoop) Add(fd int, token int) error {
	kev := unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_READ,
		Flags:  unix.EV_ADD | unix.EV_ONESHOT,
	}
	_, err := unix.Kevent(l.fd, []unix.Kevent_t{kev}, nil, nil)
	return err
}

func (l *kqueueLoop) Remove(fd int) error {
	kev := unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_READ,
		Flags:  unix.EV_DELETE,
	}
	_, err := unix.Kevent(l.fd, []unix.Kevent_t{kev}, nil, nil)
	return err
}

func (l *kqueueLoop) Wait(timeoutMs int) ([]int, error) {
	events := make([]unix.Kevent_t, 64)

	var ts *unix.Timespec
	if timeoutMs >= 0 {
		d := time.Duration(timeoutMs) * time.Millisecond
		t := unix.NsecToTimespec(d.Nanoseconds())
		ts = &t
	}

	for {
		n, err := unix.Kevent(l.fd, nil, events, ts)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, err
		}

		out := make([]int, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, int(events[i].Ident))
		}
		return out, nil
	}
}

func (l *kqueueLoop) Close() error {
	return unix.Close(l.fd)
}
