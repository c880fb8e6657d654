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

package controller

import (
	"time"

	"github.com/nabbar/netctl/controller/acl"
	"github.com/nabbar/netctl/controller/tlsmat"
	"github.com/nabbar/netctl/monitor"
)

// MinWorkers is the floor on the configured worker-thread count
// (spec.md §5 "N worker threads (N = configured, floor 5)").
const MinWorkers = 5

// DefaultQueueSize bounds the job queue so a burst of accepts can't exceed
// available memory; a connection arriving while the queue is full is
// closed instead of queued.
const DefaultQueueSize = 1024

const DefaultShutdownTimeout = 10 * time.Second

// Config is the construction-time configuration of a Controller
// (spec.md §3 "Controller").
type Config struct {
	Name   string
	Listen string

	TLS *tlsmat.Material
	ACL *acl.ACL

	Workers   int
	QueueSize int

	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration

	// StatsPrefix is the name prefix for this controller's stats. Stats
	// and the built-in /stats endpoint do not read it; a Monitor registry
	// takes its own prefix from monitor.New.
	StatsPrefix string

	// Monitor, when set, folds its counter/timer tree into /stats
	// alongside the per-handler call counters (SPEC_FULL.md §10).
	Monitor *monitor.Registry
}

func (c Config) normalized() Config {
	if c.Workers < MinWorkers {
		c.Workers = MinWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Name == "" {
		c.Name = c.Listen
	}
	// spec.md §4.3 "Defaults": TLS on with a CA configured gets the
	// loopback+CN rule set unless the caller declared its own ACL. TLS off
	// or CA absent falls through to a nil ACL, which already allows
	// everything (the acl_disabled bypass the spec describes).
	if c.TLS != nil && c.TLS.Enabled && c.TLS.CAFile != "" && c.ACL == nil {
		c.ACL = acl.New(acl.DefaultRules()...)
	}
	return c
}
