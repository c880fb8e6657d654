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

import (
	"sync"
	"sync/atomic"
)

// Node is one logical endpoint, shared across every Service that resolves
// to the same (socket type, port set) signature. It is reference counted
// and destroyed strictly at refcount 0 under the owning pool's lock
// (spec.md §3 invariant); the pool lock itself lives outside this type.
type Node struct {
	SockType string // "tcp" (stream), "udp" (dgram), "unixpacket" (seqpacket)
	Key      string // display key from discovery, may be empty for static hosts

	mu    sync.Mutex
	ports []*Port

	refs         int32
	cost         int64
	tempFailCost int64
}

func NewNode(sockType string, ports []*Port) *Node {
	return &Node{
		SockType: sockType,
		ports:    ports,
		cost:     1,
	}
}

func (n *Node) Ports() []*Port {
	return n.ports
}

// Retain increments the reference count; called under the pool lock when a
// service grabs (or re-grabs) a reference to a shared node.
func (n *Node) Retain() {
	atomic.AddInt32(&n.refs, 1)
}

// Release decrements the reference count and reports whether it reached
// zero, meaning the caller (holding the pool lock) must destroy the node:
// close every idle fd on every port.
func (n *Node) Release() bool {
	return atomic.AddInt32(&n.refs, -1) == 0
}

func (n *Node) RefCount() int32 {
	return atomic.LoadInt32(&n.refs)
}

func (n *Node) Destroy() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, p := range n.ports {
		p.DrainIdle()
	}
}

// Cost is the node's static weight (>=1); effective cost for selection is
// TempFailCost when non-zero, else Cost (spec.md §4.7).
func (n *Node) Cost() int64 {
	if v := atomic.LoadInt64(&n.tempFailCost); v != 0 {
		return v
	}
	if c := atomic.LoadInt64(&n.cost); c > 0 {
		return c
	}
	return 1
}

func (n *Node) SetCost(c int64) {
	if c < 1 {
		c = 1
	}
	atomic.StoreInt64(&n.cost, c)
}

// InflateTempFail raises the temp-fail cost, biasing selection away from a
// recently failing node without removing it from rotation.
func (n *Node) InflateTempFail(cost int64) {
	atomic.StoreInt64(&n.tempFailCost, cost)
}

// ClearTempFail resets the temp-fail inflation on the first successful
// connection through this node again (spec.md §4.7 "conn_done").
func (n *Node) ClearTempFail() {
	atomic.StoreInt64(&n.tempFailCost, 0)
}

// IsTempFailed reports whether the node currently carries temp-fail cost
// inflation.
func (n *Node) IsTempFailed() bool {
	return atomic.LoadInt64(&n.tempFailCost) != 0
}

// Lock/Unlock guard the port idle-lists and are taken per node, per spec.md
// §5 "node refcount and node's idle FD list guarded by a per-node mutex".
func (n *Node) Lock() {
	n.mu.Lock()
}

func (n *Node) Unlock() {
	n.mu.Unlock()
}

// PortsByKey returns every port whose PortKey equals key, in declaration
// order — the candidate set the strategy iterator advances through.
func (n *Node) PortsByKey(key string) []*Port {
	var r []*Port

	for _, p := range n.ports {
		if p.PortKey == key {
			r = append(r, p)
		}
	}

	return r
}

// ServiceNode pairs a discovery display key with a shared Node pointer.
type ServiceNode struct {
	Key  string
	Node *Node
}

// NodeSet is the immutable, reference-counted snapshot a Service publishes.
// Once built it is never mutated; reconfiguration builds a new NodeSet and
// bumps the service generation instead (spec.md §3 invariant).
type NodeSet struct {
	Nodes []ServiceNode

	refs int32
}

func NewNodeSet(nodes []ServiceNode) *NodeSet {
	return &NodeSet{Nodes: nodes, refs: 1}
}

func (s *NodeSet) Retain() {
	atomic.AddInt32(&s.refs, 1)
}

// Release drops a reference; when it reaches zero the caller must release
// every member node (Node.Release) and destroy those that reach refcount 0.
func (s *NodeSet) Release() bool {
	if s == nil {
		return false
	}
	return atomic.AddInt32(&s.refs, -1) == 0
}

func (s *NodeSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Nodes)
}
