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

// Package fdpool implements the client-side connection pool and load
// balancer described in spec.md §3-§4.5-4.7: a service registry mapping
// logical names to weighted node sets, sequential/random/hash selection
// strategies, idle-fd caching with liveness probe, and generation-versioned
// hot reconfiguration.
package fdpool

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nabbar/netctl/fdpool/node"
	"github.com/nabbar/netctl/fdpool/strategy"
)

const (
	DefaultConnectTimeout = 5000 * time.Millisecond
	DefaultFailCost       = 100
	DefaultTempFailCost   = 0
	DefaultRetries        = 1
)

// HostConfig describes one configured host entry before resolution.
type HostConfig struct {
	URL     string
	PortKey string
}

// ServiceConfig is the construction-time configuration of a Service, read
// from a config node per spec.md §4.6.
type ServiceConfig struct {
	Retries        int
	FailCost       int64
	TempFailCost   int64
	Strategy       strategy.Kind
	ConnectTimeout time.Duration
	Hosts          []HostConfig
	UpMap          UpMap

	// CycleLast, when true, inserts returned idle entries after the port's
	// "last inserted" pointer so the oldest idle fd is tried first (FIFO)
	// instead of the default LIFO (spec.md §3 "cycle_last").
	CycleLast bool
}

func (c ServiceConfig) normalized() ServiceConfig {
	if c.Retries < 1 {
		c.Retries = DefaultRetries
	}
	if c.FailCost <= 0 {
		c.FailCost = DefaultFailCost
	}
	if c.TempFailCost < 0 {
		c.TempFailCost = DefaultTempFailCost
	}
	if c.ConnectTimeout < time.Second {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	return c
}

// Service is keyed by a string name and holds the policy plus the current
// immutable NodeSet, per spec.md §3.
type Service struct {
	Name string

	mu      sync.RWMutex
	cfg     ServiceConfig
	set     *node.NodeSet
	gen     uint64
	resolve Resolver

	sd *sdHandle
}

func newService(name string, cfg ServiceConfig, resolve Resolver) *Service {
	return &Service{
		Name:    name,
		cfg:     cfg.normalized(),
		resolve: resolve,
	}
}

// Generation returns the current published generation number.
func (s *Service) Generation() uint64 {
	return atomic.LoadUint64(&s.gen)
}

// Snapshot returns the currently published NodeSet with an extra retain,
// and the generation it was published at. Callers must Release it when
// done traversing (spec.md §3's reader pattern).
func (s *Service) Snapshot() (*node.NodeSet, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.set != nil {
		s.set.Retain()
	}

	return s.set, atomic.LoadUint64(&s.gen)
}

func (s *Service) config() ServiceConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// UpdateHosts builds a new NodeSet from cfg's hosts, publishes it under the
// write lock and bumps the generation, then releases the old snapshot.
// This is the spec.md §4.6 "update_hosts" reconfigure entry point; it is
// idempotent for identical inputs (generation still bumps, observable
// state does not change), satisfying the law in spec.md §8.
func (s *Service) UpdateHosts(resolve Resolver, cfg ServiceConfig) error {
	if resolve == nil {
		resolve = s.resolve
	}

	cfg = cfg.normalized()

	nodes, err := buildNodeSet(resolve, cfg.Hosts)
	if err != nil {
		return err
	}

	for _, n := range nodes {
		n.Node.Retain()
	}

	newSet := node.NewNodeSet(nodes)

	s.mu.Lock()
	old := s.set
	s.cfg = cfg
	s.set = newSet
	atomic.AddUint64(&s.gen, 1)
	s.mu.Unlock()

	releaseNodeSet(old)

	return nil
}

func releaseNodeSet(s *node.NodeSet) {
	if s == nil {
		return
	}
	if s.Release() {
		for _, sn := range s.Nodes {
			if sn.Node != nil && sn.Node.Release() {
				sn.Node.Destroy()
			}
		}
	}
}

// splitPortKeys returns the comma-separated fallback list for a host entry,
// falling back to the service/pool UpMap when the entry has no explicit key.
func splitPortKeys(up UpMap, raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return up.Resolve("")
	}
	return ParsePortKeyList(raw)
}
