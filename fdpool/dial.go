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

package fdpool

import (
	"net"
	"time"

	"github.com/nabbar/netctl/fdpool/node"
)

// dialPort creates a new connection to port, bounded by the service's
// connect timeout (spec.md §4.5). Go's net package has no portable way to
// surface a raw EINPROGRESS non-blocking connect the way the original
// poll-around-connect does, so nonBlock here is approximated with a very
// small dial timeout instead of a true fire-and-forget connect; this is
// documented as a deliberate simplification in DESIGN.md.
func dialPort(cfg ServiceConfig, port *node.Port, nonBlock bool) (net.Conn, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	if nonBlock {
		timeout = time.Millisecond
	}

	d := net.Dialer{Timeout: timeout}

	return d.Dial(port.Network, port.HostPort)
}
