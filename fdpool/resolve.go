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
	"context"
	"net"
	"net/url"
	"strings"

	"github.com/nabbar/netctl/fdpool/node"
)

// Resolver resolves a host:port pair to one or more IP addresses. The
// default implementation wraps net.DefaultResolver; tests may substitute a
// fake to avoid real DNS lookups.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

type netResolver struct{}

func (netResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	return net.DefaultResolver.LookupHost(ctx, host)
}

// DefaultResolver is the system resolver, per spec.md §3 "each host expands
// via the system resolver to one or more sockaddrs".
func DefaultResolver() Resolver {
	return netResolver{}
}

// schemeNetwork maps the spec's accepted FD pool URL schemes to Go network
// names (spec.md §6 "FD pool URL schemes").
func schemeNetwork(scheme string) (network string, unix bool, ok bool) {
	switch scheme {
	case "tcp":
		return "tcp", false, true
	case "udp":
		return "udp", false, true
	case "unix":
		return "unix", true, true
	case "unixgram":
		return "unixgram", true, true
	case "unixpacket":
		return "unixpacket", true, true
	default:
		return "", false, false
	}
}

// buildNodeSet resolves every configured host into Ports, groups Ports into
// Nodes de-duplicated by (socket type, set of ports) per spec.md §3, and
// returns the ServiceNode slice for a fresh NodeSet.
func buildNodeSet(resolve Resolver, hosts []HostConfig) ([]node.ServiceNode, error) {
	if resolve == nil {
		resolve = DefaultResolver()
	}

	type nodeKey struct {
		sock  string
		ports string
	}

	index := make(map[nodeKey]*node.Node)
	var out []node.ServiceNode

	for _, h := range hosts {
		u, err := url.Parse(h.URL)
		if err != nil || u.Scheme == "" {
			return nil, ErrorNotURL.Error(nil)
		}

		network, isUnix, ok := schemeNetwork(u.Scheme)
		if !ok {
			return nil, ErrorNotURL.Error(nil)
		}

		var ports []*node.Port

		if isUnix {
			ports = append(ports, &node.Port{
				Network:  network,
				Addr:     &net.UnixAddr{Name: u.Path, Net: network},
				PortKey:  h.PortKey,
				HostPort: u.Path,
			})
		} else {
			host, port, splitErr := net.SplitHostPort(u.Host)
			if splitErr != nil {
				host = u.Host
				port = u.Port()
			}

			addrs, rErr := resolve.LookupHost(context.Background(), host)
			if rErr != nil {
				if strings.Contains(rErr.Error(), "no such host") {
					return nil, ErrorNoSuchHost.Error(rErr)
				}
				return nil, ErrorResolveSystem.Error(rErr)
			}

			for _, a := range addrs {
				ports = append(ports, &node.Port{
					Network:  network,
					Addr:     &net.TCPAddr{IP: net.ParseIP(a)},
					PortKey:  h.PortKey,
					HostPort: net.JoinHostPort(a, port),
				})
			}
		}

		if len(ports) == 0 {
			continue
		}

		var pk strings.Builder
		for _, p := range ports {
			pk.WriteString(p.HostPort)
			pk.WriteByte(';')
		}

		key := nodeKey{sock: network, ports: pk.String()}

		n, exists := index[key]
		if !exists {
			n = node.NewNode(network, ports)
			index[key] = n
		}

		out = append(out, node.ServiceNode{Key: h.PortKey, Node: n})
	}

	if len(out) == 0 {
		return nil, ErrorEmptyConfig.Error(nil)
	}

	return out, nil
}
