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
	"time"

	"github.com/nabbar/netctl/fdpool/sd"
)

// sdHandle binds a Service to a discovery Queue: every completed shadow
// update from the queue is translated into Hosts and pushed through
// UpdateHosts, matching fd_pool_sd's thread loop (spec.md §4.6).
type sdHandle struct {
	service *Service
	handle  *sd.Handle
}

// AttachDiscovery wires a discovery queue to the service and starts the
// consumer goroutine. staticConf seeds the shadow table (copy_static_config)
// and is restored on a "flush" event.
func (s *Service) AttachDiscovery(queue *sd.Queue, staticConf map[string]map[string]string) {
	h := &sdHandle{service: s}

	h.handle = sd.New(queue, staticConf, h.apply)

	s.mu.Lock()
	s.sd = h
	s.mu.Unlock()

	h.handle.Start()
}

// DetachDiscovery stops the discovery consumer, if one is attached.
func (s *Service) DetachDiscovery() {
	s.mu.Lock()
	h := s.sd
	s.sd = nil
	s.mu.Unlock()

	if h != nil {
		h.handle.Stop()
	}
}

// WaitIndex blocks until the discovery handle has applied at least index,
// or timeout elapses. Returns false (no discovery source, or timed out).
func (s *Service) WaitIndex(index uint64, timeout time.Duration) bool {
	s.mu.RLock()
	h := s.sd
	s.mu.RUnlock()

	if h == nil {
		return false
	}

	return h.handle.WaitIndex(index, timeout)
}

func (h *sdHandle) apply(hosts []sd.HostRecord) (int, error) {
	cfg := h.service.config()

	cfg.Hosts = make([]HostConfig, 0, len(hosts))

	for _, rec := range hosts {
		if rec.Disabled {
			continue
		}

		url := rec.Fields["name"]
		if url == "" {
			continue
		}

		cfg.Hosts = append(cfg.Hosts, HostConfig{
			URL:     url,
			PortKey: rec.Fields["port_key"],
		})
	}

	if len(cfg.Hosts) == 0 {
		return 0, nil
	}

	if err := h.service.UpdateHosts(nil, cfg); err != nil {
		return -1, err
	}

	return len(cfg.Hosts), nil
}
