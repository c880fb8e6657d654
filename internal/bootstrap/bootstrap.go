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

// Package bootstrap is the process-lifecycle ambient layer every cmd/*
// entry point shares: a cascading context.Config registry for passing
// shared values (the Controller, the fdpool.Pool, the netcfg.Loader) down
// to goroutines that must unwind together, plus an atomic.Value-backed
// "is shutting down" flag cheaper than a channel select on every request
// path. Grounded on the teacher's context and atomic packages.
package bootstrap

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	libatm "github.com/nabbar/netctl/atomic"
	libctx "github.com/nabbar/netctl/context"
)

// Process is the root lifecycle object a cmd/* main constructs once:
// a cancelable context carrying a typed registry of shared components,
// plus a shutting-down flag flipped by the first caught signal.
type Process struct {
	cfg      libctx.Config[string]
	shutdown libatm.Value[bool]
	cancel   []func()
}

// New builds a Process rooted at context.Background, registering fct
// callbacks to run (in order) once Shutdown is triggered.
func New() *Process {
	p := &Process{
		cfg:      libctx.New[string](context.Background()),
		shutdown: libatm.NewValue[bool](),
	}
	p.shutdown.Store(false)
	return p
}

// Context returns the cascading registry, for components to Store/Load
// shared values under a string key.
func (p *Process) Context() libctx.Config[string] {
	return p.cfg
}

// Store publishes a shared component (e.g. *controller.Controller,
// *fdpool.Pool) under name for later retrieval by any goroutine holding
// the same Process.
func (p *Process) Store(name string, v any) {
	p.cfg.Store(name, v)
}

// Load retrieves a shared component previously published with Store.
func (p *Process) Load(name string) (any, bool) {
	return p.cfg.Load(name)
}

// OnShutdown registers fct to run, in registration order, when Shutdown
// runs or a caught signal triggers it.
func (p *Process) OnShutdown(fct func()) {
	p.cancel = append(p.cancel, fct)
}

// ShuttingDown reports whether Shutdown has already been triggered.
func (p *Process) ShuttingDown() bool {
	return p.shutdown.Load()
}

// Shutdown runs every registered OnShutdown callback once and cancels the
// root context. Safe to call more than once; only the first call acts.
func (p *Process) Shutdown() {
	if p.shutdown.Load() {
		return
	}
	p.shutdown.Store(true)

	for _, fct := range p.cancel {
		fct()
	}
	p.cfg.Clean()
}

// WaitForSignal blocks until SIGINT or SIGTERM arrives, then runs
// Shutdown. Intended as the last call in a cmd/* main's run loop.
func (p *Process) WaitForSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
	signal.Stop(ch)
	p.Shutdown()
}
