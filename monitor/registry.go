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

package monitor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is a named counter/timer tree, published both as the
// controller's "{stats: {...}}" JSON body and as Prometheus metrics,
// mirroring controller-stats.c's dual stat_counter/bconf walk.
type Registry struct {
	prefix string

	mu       sync.RWMutex
	counters map[string]*uint64
	timers   map[string]*timer

	promCounters *prometheus.CounterVec
	promTimers   *prometheus.HistogramVec
}

// New builds a Registry namespaced under prefix (SPEC_FULL.md §10's
// Config.StatsPrefix). It does not register its Prometheus collectors;
// MustRegister does, and a named series appears only after its first
// Incr or Time call.
func New(prefix string) *Registry {
	r := &Registry{
		prefix:   prefix,
		counters: map[string]*uint64{},
		timers:   map[string]*timer{},
		promCounters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix,
			Name:      "counter_total",
			Help:      "Named counter value, one series per counter name.",
		}, []string{"name"}),
		promTimers: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: prefix,
			Name:      "timer_seconds",
			Help:      "Named timer duration distribution, one series per timer name.",
		}, []string{"name"}),
	}
	return r
}

// MustRegister registers the registry's collectors on reg, panicking on a
// duplicate registration the way prometheus.MustRegister does.
func (r *Registry) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(r.promCounters, r.promTimers)
}

// Incr adds delta to the named counter, creating it on first use.
func (r *Registry) Incr(name string, delta uint64) {
	r.mu.RLock()
	c, ok := r.counters[name]
	r.mu.RUnlock()

	if !ok {
		r.mu.Lock()
		c, ok = r.counters[name]
		if !ok {
			var zero uint64
			c = &zero
			r.counters[name] = c
		}
		r.mu.Unlock()
	}

	atomic.AddUint64(c, delta)
	r.promCounters.WithLabelValues(name).Add(float64(delta))
}

// timerFor returns the named timer, creating it on first use, so repeated
// Observe calls under the same name share one accumulator.
func (r *Registry) timerFor(name string) *timer {
	r.mu.RLock()
	t, ok := r.timers[name]
	r.mu.RUnlock()

	if ok {
		return t
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok = r.timers[name]; ok {
		return t
	}
	t = &timer{}
	r.timers[name] = t
	return t
}

// Time records d and bytes against the named timer, including the
// observation in the Prometheus histogram for the same name.
func (r *Registry) Time(name string, d time.Duration, bytes uint64) {
	r.timerFor(name).Observe(d, bytes)
	r.promTimers.WithLabelValues(name).Observe(d.Seconds())
}

// Snapshot renders the whole tree into the nested map the controller's
// /stats handler marshals to JSON: {"stats": {"counters": {...},
// "timers": {...}}}, matching controller-stats.c's "stats." prefix walk.
func (r *Registry) Snapshot() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counters := make(map[string]uint64, len(r.counters))
	for name, c := range r.counters {
		if v := atomic.LoadUint64(c); v != 0 {
			counters[name] = v
		}
	}

	timers := make(map[string]TimerStat, len(r.timers))
	for name, t := range r.timers {
		timers[name] = t.snapshot()
	}

	return map[string]any{
		"stats": map[string]any{
			"counters": counters,
			"timers":   timers,
		},
	}
}
