//go:build linux

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

import "golang.org/x/sys/unix"

type epollLoop struct {
	fd int
}

// New creates the platform readiness loop (epoll on Linux).
func New() (Loop, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollLoop{fd: fd}, nil
}

func (l *epollLoop) Add(fd int, token int) error {
	ev := unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLRDHUP | unix.EPOLLHUP | unix.EPOLLONESHOT,
		Fd:     int32(token),
	}
	return unix.EpollCtl(l.fd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (l *epollLoop) Remove(fd int) error {
	return unix.EpollCtl(l.fd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (l *epollLoop) Wait(timeoutMs int) ([]int, error) {
	events := make([]unix.EpollEvent, 64)

	for {
		n, err := unix.EpollWait(l.fd, events, timeoutMs)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, err
		}

		out := make([]int, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, int(events[i].Fd))
		}
		return out, nil
	}
}

func (l *epollLoop) Close() error {
	return unix.Close(l.fd)
}
