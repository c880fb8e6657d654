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

	"github.com/nabbar/netctl/fdpool/node"
	"github.com/nabbar/netctl/fdpool/strategy"
)

// Status mirrors the spec's SBCS_* connection-result codes: it tells Get
// how to account the previous attempt against the previously-selected node
// before it advances the iterator (spec.md §4.5).
type Status int

const (
	StatusStart Status = iota
	StatusTempFail
	StatusFail
)

// Conn is the user-facing connection handle of spec.md §3: it remembers
// the owning pool, the bound service, the chosen node/port, the iterator
// state, the generation observed at start, and the selection flags.
type Conn struct {
	pool    *Pool
	service *Service

	set *node.NodeSet
	gen uint64

	portKeys []string
	pkIdx    int

	seqSel strategy.Selector
	whSel  *strategy.WeightedHash

	nodeIdx  int
	curNode  *node.Node
	curPorts []*node.Port
	portIdx  int

	curPort *node.Port
	active  net.Conn

	cycles int

	NodeKeyFilter string
	Silent        bool
	Async         bool
	NonBlock      bool
	HashSeed      uint64
	Timer         any
	Aux           any
}

// NewConn binds a connection handle to serviceName, creating the service
// (lazily, from cfg) on first use (spec.md §4.6).
func (p *Pool) NewConn(serviceName string, portKeyList string, cfg ServiceConfig) (*Conn, error) {
	s, err := p.Service(serviceName, cfg)
	if err != nil {
		return nil, err
	}

	c := &Conn{
		pool:     p,
		service:  s,
		portKeys: splitPortKeys(p.upmap, portKeyList),
		nodeIdx:  -1,
	}

	switch s.config().Strategy {
	case strategy.RandomCycle:
		c.seqSel = strategy.NewRandomCycle(uint32(c.HashSeed))
	case strategy.WeightedHash:
		c.whSel = strategy.NewWeightedHash(c.HashSeed)
	default:
		c.seqSel = strategy.NewSequential()
	}

	return c, nil
}

func (c *Conn) refresh() {
	set, gen := c.service.Snapshot()

	if c.set == nil || gen != c.gen {
		if c.set != nil {
			releaseNodeSet(c.set)
		}

		c.set = set
		c.gen = gen
		c.nodeIdx = -1
		c.pkIdx = 0
		c.curPorts = nil
		c.portIdx = 0
		c.cycles = 0

		if c.seqSel != nil {
			c.seqSel.Reset()
		}
	} else if set != nil {
		// Snapshot always retains; drop the redundant reference since the
		// generation has not changed and we are keeping the one we have.
		set.Release()
	}
}

// advance moves to the next (node, port) candidate, walking port-keys
// within the current node before asking the strategy for the next node.
// It returns false once the retry budget (spec.md §4.5) is exhausted.
func (c *Conn) advance(cfg ServiceConfig) bool {
	maxCycles := cfg.Retries
	if maxCycles < 1 {
		maxCycles = 1
	}

	for {
		if c.portIdx < len(c.curPorts) {
			return true
		}

		c.pkIdx++
		if c.pkIdx < len(c.portKeys) && c.curNode != nil {
			c.curPorts = c.curNode.PortsByKey(c.portKeys[c.pkIdx])
			c.portIdx = 0
			continue
		}

		// exhausted the port-key list for this node: pick the next node.
		n := c.set.Len()
		if n == 0 {
			return false
		}

		var idx int

		if c.whSel != nil {
			idx = c.whSel.Pick(n, func(i int) int64 { return c.set.Nodes[i].Node.Cost() })
		} else {
			var done bool
			idx, done = c.seqSel.Next(n)
			if done {
				c.cycles++
			}
		}

		if c.cycles >= maxCycles {
			return false
		}

		c.nodeIdx = idx
		c.curNode = c.set.Nodes[idx].Node
		c.pkIdx = 0
		c.curPorts = c.curNode.PortsByKey(c.portKeys[0])
		c.portIdx = 0
	}
}

// Get returns a usable connection for the bound service, implementing the
// iteration described in spec.md §4.5. It returns ErrorExhausted once the
// retry budget across every (node, port-key, port) triple is spent.
func (c *Conn) Get(status Status) (net.Conn, error) {
	cfg := c.service.config()

	c.refresh()

	if status != StatusStart && c.curNode != nil {
		switch status {
		case StatusTempFail:
			cost := cfg.TempFailCost
			if cost <= 0 {
				cost = cfg.FailCost
			}
			c.curNode.InflateTempFail(cost)
		case StatusFail:
			c.curNode.InflateTempFail(cfg.FailCost)
			c.cycles++
		}
	}

	for {
		if !c.advance(cfg) {
			return nil, ErrorExhausted.Error(nil)
		}

		port := c.curPorts[c.portIdx]
		c.portIdx++

		if conn, ok := c.tryIdle(port); ok {
			c.curPort = port
			c.active = conn
			c.curNode.ClearTempFail()
			return conn, nil
		}

		conn, err := dialPort(cfg, port, c.NonBlock)
		if err == nil {
			c.curPort = port
			c.active = conn
			c.curNode.ClearTempFail()
			return conn, nil
		}
	}
}

// tryIdle pops entries off port's free list until it finds a live one or
// the list is empty, recycling dead entries to the pool's spare list.
func (c *Conn) tryIdle(port *node.Port) (net.Conn, bool) {
	c.curNode.Lock()
	defer c.curNode.Unlock()

	for {
		e := port.PopIdle()
		if e == nil {
			return nil, false
		}

		if probeAlive(e.Conn) {
			conn := e.Conn
			c.pool.putSpare(e)
			return conn, true
		}

		_ = e.Conn.Close()
		c.pool.putSpare(e)
	}
}

// Put returns fd to its port's idle list, unless the process is near its
// soft fd rlimit, in which case it is closed instead (spec.md §4.5).
func (c *Conn) Put() error {
	if c.active == nil || c.curPort == nil || c.curNode == nil {
		return nil
	}

	conn := c.active
	c.active = nil

	if c.pool.nearFDLimit() {
		return conn.Close()
	}

	e := c.pool.getSpare()
	if e == nil {
		e = node.NewFdEntry(conn)
	} else {
		e.Conn = conn
	}

	cfg := c.service.config()

	c.curNode.Lock()
	c.curPort.PushIdle(e, cfg.CycleLast)
	c.curNode.Unlock()

	return nil
}

// Free releases the connection handle's hold on the current NodeSet
// snapshot. Call after Put (or instead of it, if closing outright).
func (c *Conn) Free() {
	if c.active != nil {
		_ = c.active.Close()
		c.active = nil
	}

	if c.set != nil {
		releaseNodeSet(c.set)
		c.set = nil
	}
}
