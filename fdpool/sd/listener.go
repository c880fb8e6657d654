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

package sd

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// HostRecord is one shadow-config host entry, flattened for the Apply
// callback once it has both a name and a disabled flag set (the original's
// "complete" test in update_config).
type HostRecord struct {
	Key      string
	Fields   map[string]string
	Disabled bool
}

// ApplyFunc pushes a completed shadow table through to a service's
// UpdateHosts. It mirrors fd_pool_update_hosts's return convention: n>0
// means nodes were applied, n==0 means the update produced no nodes
// (logged, not an error), n<0 propagates an error.
type ApplyFunc func(hosts []HostRecord) (n int, err error)

const defaultQueueWait = 2 * time.Second

// Handle is the Go shape of struct fd_pool_sd: one goroutine consuming a
// Queue, folding events into a shadow host table, and pushing complete
// updates through Apply. wait_index callers block on the generation signal.
type Handle struct {
	queue *Queue
	apply ApplyFunc

	staticConf map[string]map[string]string

	mu       sync.Mutex
	shadow   map[string]map[string]string
	deleted  map[string]bool
	maxIndex uint64
	valid    bool

	signal chan struct{}

	running int32
	stop    chan struct{}
	done    chan struct{}
}

// New creates a discovery listener bound to queue, pushing complete shadow
// updates through apply. staticConf seeds the shadow table the way
// fd_pool_sd_copy_static_config does, and is restored verbatim on a
// "flush" event.
func New(queue *Queue, staticConf map[string]map[string]string, apply ApplyFunc) *Handle {
	h := &Handle{
		queue:      queue,
		apply:      apply,
		staticConf: staticConf,
		shadow:     map[string]map[string]string{},
		deleted:    map[string]bool{},
		signal:     make(chan struct{}),
	}
	h.resetShadow()
	return h
}

func (h *Handle) resetShadow() {
	h.shadow = map[string]map[string]string{}
	for k, v := range h.staticConf {
		cp := make(map[string]string, len(v))
		for fk, fv := range v {
			cp[fk] = fv
		}
		h.shadow[k] = cp
	}
}

// Start launches the consumer goroutine. Calling Start twice is a no-op.
func (h *Handle) Start() {
	if !atomic.CompareAndSwapInt32(&h.running, 0, 1) {
		return
	}
	h.stop = make(chan struct{})
	h.done = make(chan struct{})
	go h.loop()
}

// Stop signals the consumer goroutine and waits for it to exit.
func (h *Handle) Stop() {
	if !atomic.CompareAndSwapInt32(&h.running, 1, 0) {
		return
	}
	close(h.stop)
	<-h.done
}

func (h *Handle) loop() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			return
		default:
		}

		ev, ok := h.queue.Wait(defaultQueueWait)
		if !ok {
			continue
		}

		updated, records := h.updateConfig(ev)

		if updated && h.apply != nil {
			_, _ = h.apply(records)
		}

		h.broadcast()
	}
}

// updateConfig folds one event into the shadow table, returning whether
// any host entry reached completeness (name + disabled both set), mirroring
// update_config's per-event switch over flush/delete/config/health.
func (h *Handle) updateConfig(ev Event) (bool, []HostRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	updated := false

	switch ev.Kind {
	case KindFlush:
		h.resetShadow()
		updated = true

	case KindDelete:
		if ev.HostKey != "" {
			if _, ok := h.shadow[ev.HostKey]; ok {
				delete(h.shadow, ev.HostKey)
				updated = true
			}
		}

	case KindConfig:
		if ev.HostKey != "" {
			node := h.shadow[ev.HostKey]
			if node == nil {
				node = map[string]string{}
			}
			changed := mergeConfigValue(node, ev.Value)
			h.shadow[ev.HostKey] = node
			if changed && node["name"] != "" && hasKey(node, "disabled") {
				updated = true
			}
		}

	case KindHealth:
		if ev.HostKey != "" {
			node := h.shadow[ev.HostKey]
			if node == nil {
				node = map[string]string{}
			}
			newDisabled := "1"
			if strings.TrimSpace(ev.Value) == "up" {
				newDisabled = "0"
			}
			if node["disabled"] != newDisabled {
				node["disabled"] = newDisabled
				h.shadow[ev.HostKey] = node
				if node["name"] != "" {
					updated = true
				}
			}
		}
	}

	if ev.Index > h.maxIndex {
		h.maxIndex = ev.Index
	}

	if !updated {
		return false, nil
	}

	return true, h.snapshotLocked()
}

func (h *Handle) snapshotLocked() []HostRecord {
	out := make([]HostRecord, 0, len(h.shadow))
	for k, v := range h.shadow {
		disabled := v["disabled"] == "1"
		fields := make(map[string]string, len(v))
		for fk, fv := range v {
			fields[fk] = fv
		}
		out = append(out, HostRecord{Key: k, Fields: fields, Disabled: disabled})
	}

	if len(out) > 0 {
		h.valid = true
	}

	return out
}

func hasKey(m map[string]string, k string) bool {
	_, ok := m[k]
	return ok
}

// mergeConfigValue merges a legacy "key=value\n..." blob or a JSON object
// into node, reporting whether anything changed.
func mergeConfigValue(node map[string]string, value string) bool {
	changed := false

	parsed := map[string]string{}

	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "{") {
		var raw map[string]any
		if err := json.Unmarshal([]byte(trimmed), &raw); err == nil {
			for k, v := range raw {
				parsed[k] = stringifyJSON(v)
			}
		}
	} else {
		for _, line := range strings.Split(value, "\n") {
			line = strings.TrimRight(line, "\r")
			if line == "" {
				continue
			}
			eq := strings.IndexByte(line, '=')
			if eq < 0 {
				continue
			}
			parsed[line[:eq]] = line[eq+1:]
		}
	}

	for k, v := range parsed {
		if node[k] != v {
			node[k] = v
			changed = true
		}
	}

	return changed
}

func stringifyJSON(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func (h *Handle) broadcast() {
	close(h.signal)
	h.mu.Lock()
	h.signal = make(chan struct{})
	h.mu.Unlock()
}

// WaitIndex blocks until maxIndex has reached at least index, or timeout
// elapses. Returns true if the index was reached, matching
// fd_pool_sd_wait_index's 0-on-reached/1-on-timeout convention inverted to
// a boolean.
func (h *Handle) WaitIndex(index uint64, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)

	for {
		h.mu.Lock()
		reached := h.maxIndex >= index
		sig := h.signal
		h.mu.Unlock()

		if reached {
			return true
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}

		t := time.NewTimer(remaining)
		select {
		case <-sig:
			t.Stop()
		case <-t.C:
			return false
		}
	}
}
