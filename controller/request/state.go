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

// Package request implements the per-connection request state machine of
// spec.md §3 "Request state" and §5's callback ordering
// start -> consume_post* -> finish -> cleanup -> (upgrade).
package request

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/nabbar/netctl/internal/container"
)

// MaxContentLength is the spec's boundary: >100 GiB is rejected outright
// (spec.md §7, §8 boundaries).
const MaxContentLength = 100 * 1 << 30

// State is one in-flight request's full mutable record (spec.md §3). A
// State is only ever touched by the worker goroutine that owns it; no
// internal locking is required. Header parsing works a full line at a
// time (see Parser), so unlike the original's byte-at-a-time http_parser
// state this type needs no {none, field, value} sub-state of its own.
type State struct {
	method string
	path   string
	query  url.Values

	headers map[string]string
	hdrKeys []string // insertion order, for deterministic iteration

	contentLength int64

	respBuf    bytes.Buffer
	rawBlob    []byte
	statusCode int

	customHeaders map[string]string

	keepAlive bool
	closeConn bool

	reentry bool

	upgradeToken string // first 32 bytes only, per spec.md §3

	done bool

	priv any

	keyPool *container.StringPool
}

// New creates a fresh request state, default status 200 (spec.md §3).
func New() *State {
	return &State{
		headers:       map[string]string{},
		customHeaders: map[string]string{},
		statusCode:    200,
		keepAlive:     true,
	}
}

// NewWithKeyPool is New, additionally interning header names through pool
// so a long keep-alive connection doesn't re-allocate the same handful of
// header name strings on every request.
func NewWithKeyPool(pool *container.StringPool) *State {
	s := New()
	s.keyPool = pool
	return s
}

func (s *State) Reset() {
	pool := s.keyPool
	*s = *New()
	s.keyPool = pool
}

func (s *State) SetRequestLine(method, path, rawQuery string) {
	s.method = method
	s.path = path
	s.query, _ = url.ParseQuery(rawQuery)
	if s.query == nil {
		s.query = url.Values{}
	}
}

func (s *State) Method() string { return s.method }
func (s *State) Path() string   { return s.path }

func (s *State) Query(key string) string {
	return s.query.Get(key)
}

// SetCapture feeds one routing capture into the query-string map under its
// declared name (spec.md §4.2 "feeds each capture into the query-string
// map").
func (s *State) SetCapture(name, value string) {
	if s.query == nil {
		s.query = url.Values{}
	}
	s.query.Set(name, value)
}

func (s *State) Header(key string) string {
	return s.headers[strings.ToLower(key)]
}

func (s *State) addHeader(key, value string) {
	lk := strings.ToLower(key)
	if s.keyPool != nil {
		lk = s.keyPool.Intern(lk)
	}
	if _, exists := s.headers[lk]; !exists {
		s.hdrKeys = append(s.hdrKeys, lk)
	}
	s.headers[lk] = value

	if lk == "connection" {
		s.keepAlive = !strings.EqualFold(strings.TrimSpace(value), "close")
	}
	if lk == "upgrade" {
		v := value
		if len(v) > 32 {
			v = v[:32]
		}
		s.upgradeToken = v
	}
}

// SetHeader sets a response header. Only "X-..." keys are kept and each
// key is unique (spec.md §3 "custom header bag").
func (s *State) SetHeader(key, value string) {
	if !strings.HasPrefix(strings.ToUpper(key), "X-") {
		return
	}
	s.customHeaders[key] = value
}

func (s *State) CustomHeaders() map[string]string {
	return s.customHeaders
}

func (s *State) SetStatus(code int) {
	s.statusCode = code
}

func (s *State) StatusCode() int {
	return s.statusCode
}

func (s *State) Write(p []byte) (int, error) {
	return s.respBuf.Write(p)
}

func (s *State) ResponseBody() []byte {
	if s.rawBlob != nil {
		return s.rawBlob
	}
	return s.respBuf.Bytes()
}

// SetRawResponse installs a raw blob response; mutually exclusive with
// Write (spec.md §3 "response text buffer (or raw blob with length)").
func (s *State) SetRawResponse(blob []byte) {
	s.rawBlob = blob
}

func (s *State) ContentLength() int64 {
	return s.contentLength
}

func (s *State) SetContentLength(n int64) {
	s.contentLength = n
}

func (s *State) KeepAlive() bool {
	return s.keepAlive && !s.closeConn
}

func (s *State) Close() {
	s.closeConn = true
}

func (s *State) Closed() bool {
	return s.closeConn
}

func (s *State) Upgrade() string {
	return s.upgradeToken
}

func (s *State) PrivateData() any {
	return s.priv
}

func (s *State) SetPrivateData(v any) {
	s.priv = v
}

// Reentering guards against a handler re-entering its own callback
// (spec.md §3 "in-handler re-entry guard"); returns false if already
// inside a callback.
func (s *State) Reentering() bool {
	if s.reentry {
		return false
	}
	s.reentry = true
	return true
}

func (s *State) LeaveReentry() {
	s.reentry = false
}

func (s *State) MarkDone() {
	s.done = true
}

func (s *State) Done() bool {
	return s.done
}
