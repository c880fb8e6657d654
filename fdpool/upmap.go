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
	"strings"
	"sync"
)

// UpMap maps an arbitrary port-key string to one or more canonical port
// keys, tried in order during iteration (spec.md §3). The zero value of
// UpMap behaves like DefaultUpMap.
type UpMap map[string][]string

var (
	defaultUpMapOnce sync.Once
	defaultUpMap     UpMap
)

// DefaultUpMap returns the process-wide default port-key map, built once
// under sync.Once per spec.md §9 "global mutable state... lazily
// initialised immutable constant". Supplemented from original_source/: the
// comma-separated fallback order is preserved exactly (see DESIGN.md §10).
func DefaultUpMap() UpMap {
	defaultUpMapOnce.Do(func() {
		defaultUpMap = UpMap{
			"80":   {"http_port"},
			"443":  {"http_port"},
			"8080": {"port"},
			"8081": {"controller_port"},
			"8082": {"keepalive_port", "port"},
			"8180": {"plog_port"},
			"":     {"port"},
		}
	})

	return defaultUpMap
}

// Resolve returns the ordered list of canonical port keys for the given
// raw key, falling back to DefaultUpMap()[""] when key is unknown.
func (u UpMap) Resolve(key string) []string {
	m := u
	if m == nil {
		m = DefaultUpMap()
	}

	if v, ok := m[key]; ok && len(v) > 0 {
		return v
	}

	if v, ok := m[""]; ok && len(v) > 0 {
		return v
	}

	return []string{"port"}
}

// ParsePortKeyList splits a comma-separated port-key list such as "a,b"
// into its ordered components, trimming whitespace.
func ParsePortKeyList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	if len(out) == 0 {
		return []string{"port"}
	}

	return out
}
