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
	"sync"

	"github.com/nabbar/netctl/fdpool/node"
)

// Pool is the service registry: name -> Service, plus the process-wide
// spare FdEntry list shared by every service's ports (spec.md §3 "pooled
// to cut allocation churn").
type Pool struct {
	mu       sync.RWMutex
	services map[string]*Service
	upmap    UpMap
	resolve  Resolver

	spareMu   sync.Mutex
	spare     []*node.FdEntry
	spareCap  int
	softLimit func() (used, limit int)
}

type Option func(*Pool)

func WithUpMap(u UpMap) Option {
	return func(p *Pool) { p.upmap = u }
}

func WithResolver(r Resolver) Option {
	return func(p *Pool) { p.resolve = r }
}

// WithSoftFDLimit wires a callback reporting the process's current and soft
// fd rlimit so Put can decide whether caching is safe (spec.md §4.5 "if the
// process fd count is within 90% of the soft fd rlimit, close rather than
// cache").
func WithSoftFDLimit(f func() (used, limit int)) Option {
	return func(p *Pool) { p.softLimit = f }
}

func New(opts ...Option) *Pool {
	p := &Pool{
		services: make(map[string]*Service),
		spareCap: 256,
	}

	for _, o := range opts {
		o(p)
	}

	if p.upmap == nil {
		p.upmap = DefaultUpMap()
	}
	if p.resolve == nil {
		p.resolve = DefaultResolver()
	}

	return p
}

// Service returns the named service, creating it lazily with cfg if this
// is the first lookup (spec.md §4.6 "new services are created lazily on
// first lookup").
func (p *Pool) Service(name string, cfg ServiceConfig) (*Service, error) {
	p.mu.RLock()
	s, ok := p.services[name]
	p.mu.RUnlock()

	if ok {
		return s, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok = p.services[name]; ok {
		return s, nil
	}

	s = newService(name, cfg, p.resolve)
	p.services[name] = s

	// An empty host list yields ErrorEmptyConfig from buildNodeSet.
	if err := s.UpdateHosts(p.resolve, cfg); err != nil {
		delete(p.services, name)
		return nil, err
	}

	return s, nil
}

// Lookup returns the named service without creating it.
func (p *Pool) Lookup(name string) (*Service, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.services[name]
	return s, ok
}

// UpdateHosts is the reconfigure entry point for an already-registered
// service (spec.md §4.6). Returns ErrorNoSuchService if name is unknown.
func (p *Pool) UpdateHosts(name string, cfg ServiceConfig) error {
	s, ok := p.Lookup(name)
	if !ok {
		return ErrorNoSuchService.Error(nil)
	}

	return s.UpdateHosts(p.resolve, cfg)
}

func (p *Pool) getSpare() *node.FdEntry {
	p.spareMu.Lock()
	defer p.spareMu.Unlock()

	n := len(p.spare)
	if n == 0 {
		return nil
	}

	e := p.spare[n-1]
	p.spare = p.spare[:n-1]
	return e
}

func (p *Pool) putSpare(e *node.FdEntry) {
	p.spareMu.Lock()
	defer p.spareMu.Unlock()

	if len(p.spare) >= p.spareCap {
		return
	}

	e.Conn = nil
	p.spare = append(p.spare, e)
}

// nearFDLimit reports whether the process is within 90% of its soft fd
// rlimit, per spec.md §4.5's Put threshold.
func (p *Pool) nearFDLimit() bool {
	if p.softLimit == nil {
		return false
	}

	used, limit := p.softLimit()
	if limit <= 0 {
		return false
	}

	return float64(used) >= 0.9*float64(limit)
}
