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
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServiceStats is a point-in-time snapshot of one service's counters, the
// Go shape of the per-service fields the original exposes under its
// "/stats" prefix: published node count, idle fds cached, temp-failed
// nodes, and the current generation (spec.md §3, SPEC_FULL.md §3).
type ServiceStats struct {
	Name       string
	Generation uint64
	Nodes      int
	IdleFDs    int
	TempFailed int
}

// Stats returns a snapshot of every registered service.
func (p *Pool) Stats() []ServiceStats {
	p.mu.RLock()
	names := make([]*Service, 0, len(p.services))
	for _, s := range p.services {
		names = append(names, s)
	}
	p.mu.RUnlock()

	out := make([]ServiceStats, 0, len(names))
	for _, s := range names {
		out = append(out, s.stats())
	}

	return out
}

func (s *Service) stats() ServiceStats {
	set, gen := s.Snapshot()
	defer releaseNodeSet(set)

	st := ServiceStats{Name: s.Name, Generation: gen}

	if set == nil {
		return st
	}

	st.Nodes = len(set.Nodes)

	for _, sn := range set.Nodes {
		if sn.Node == nil {
			continue
		}
		if sn.Node.IsTempFailed() {
			st.TempFailed++
		}
		for _, p := range sn.Node.Ports() {
			st.IdleFDs += p.IdleLen()
		}
	}

	return st
}

var (
	metricNodes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "netctl",
		Subsystem: "fdpool",
		Name:      "nodes",
		Help:      "Number of nodes currently published for a service.",
	}, []string{"service"})

	metricIdleFDs = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "netctl",
		Subsystem: "fdpool",
		Name:      "idle_fds",
		Help:      "Number of idle file descriptors cached for a service.",
	}, []string{"service"})

	metricGeneration = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "netctl",
		Subsystem: "fdpool",
		Name:      "generation",
		Help:      "Current NodeSet generation published for a service.",
	}, []string{"service"})
)

func init() {
	prometheus.MustRegister(metricNodes, metricIdleFDs, metricGeneration)
}

// Prometheus returns an http.Handler exposing the pool's metrics, meant to
// be mounted next to the controller's own /stats handler. The gauges are
// refreshed from a fresh snapshot on every scrape.
func (p *Pool) Prometheus() http.Handler {
	inner := promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.collect()
		inner.ServeHTTP(w, r)
	})
}

// collect refreshes the gauge vectors from a fresh stats snapshot.
func (p *Pool) collect() {
	for _, st := range p.Stats() {
		metricNodes.WithLabelValues(st.Name).Set(float64(st.Nodes))
		metricIdleFDs.WithLabelValues(st.Name).Set(float64(st.IdleFDs))
		metricGeneration.WithLabelValues(st.Name).Set(float64(st.Generation))
	}
}
