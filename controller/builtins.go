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
	"encoding/json"
	"sync/atomic"

	"github.com/nabbar/netctl/controller/types"
)

// HandlerStat is one handler's published call counter, the
// "controller.HandlerStat" entry of SPEC_FULL.md §3.
type HandlerStat struct {
	Pattern string `json:"pattern"`
	Calls   uint64 `json:"calls"`
}

// Stats snapshots every registered handler's counters plus the accept
// total, exposed under the controller's /stats endpoint.
func (c *Controller) Stats() map[string]any {
	hs := make([]HandlerStat, 0, len(c.handlers))
	for _, h := range c.handlers {
		hs = append(hs, HandlerStat{Pattern: h.Pattern, Calls: h.Count()})
	}

	out := map[string]any{
		"name":     c.cfg.Name,
		"accepted": atomic.LoadUint64(&c.acceptCount),
		"handlers": hs,
	}

	if c.cfg.Monitor != nil {
		for k, v := range c.cfg.Monitor.Snapshot() {
			out[k] = v
		}
	}

	return out
}

// RegisterBuiltins wires /stats, /healthz, and /loglevel, the endpoints
// SPEC_FULL.md §6 adds alongside the distilled spec's control surface.
func (c *Controller) RegisterBuiltins() {
	c.Handle(&types.Handler{
		Pattern: "/healthz",
		Finish: func(s types.State) error {
			s.Write([]byte(`{"status":"ok"}`))
			return nil
		},
	})

	c.Handle(&types.Handler{
		Pattern: "/stats",
		Finish: func(s types.State) error {
			body, err := json.Marshal(c.Stats())
			if err != nil {
				return err
			}
			s.Write(body)
			return nil
		},
	})

	c.Handle(&types.Handler{
		Pattern: "/loglevel",
		Finish: func(s types.State) error {
			if lvl := s.Query("level"); lvl != "" {
				c.setLogLevel(lvl)
			}
			s.Write([]byte(`{"level":"` + c.logLevel() + `"}`))
			return nil
		},
	})
}
