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
	"bufio"
	"context"
	"crypto/tls"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/nabbar/netctl/controller/acl"
	"github.com/nabbar/netctl/controller/event"
	"github.com/nabbar/netctl/controller/request"
	"github.com/nabbar/netctl/controller/types"
	"github.com/nabbar/netctl/internal/container"
	"github.com/nabbar/netctl/internal/netlog"
)

// connState carries one accepted connection's reusable reader and parser
// across its whole keep-alive request sequence, including the span it
// spends parked in the readiness loop between requests.
type connState struct {
	conn net.Conn
	p    *request.Parser

	identity    acl.Identity
	identitySet bool
}

// parkedConn is a connState waiting on the readiness loop for its next
// request, indexed by the token handed to event.Loop.Add.
type parkedConn struct {
	fd int
	cs *connState
}

// routedHandler pairs a registered handler with its compiled Pattern; kept
// separate from types.Handler so that package doesn't need to import
// controller (which would be a cycle).
type routedHandler struct {
	pattern *Pattern
	handler *types.Handler
}

// Controller is the embeddable HTTP/HTTPS control-plane server of
// spec.md §3: a listener goroutine, a fixed worker pool draining a job
// queue, an ACL engine, and a cooperative two-stage shutdown. The zero
// value is not usable; construct with New.
type Controller struct {
	cfg Config
	log *netlog.Logger

	handlers []*routedHandler

	listener net.Listener
	jobs     chan *connState

	running int32
	quiting int32
	quitMu  sync.Mutex

	wg sync.WaitGroup

	acceptCount uint64

	headerKeys *container.StringPool

	// readyLoop parks idle keep-alive connections between requests instead
	// of holding a worker goroutine on a blocking read (spec.md §5). TLS
	// connections never get parked: *tls.Conn does not expose a raw file
	// descriptor via syscall.Conn, so they fall back to the original
	// blocking-read-per-worker behavior below.
	readyLoop event.Loop
	readyMu   sync.Mutex
	readyConn map[int]*parkedConn
	readyTok  int32
}

// New constructs a Controller bound to cfg. Call Handle to register
// routes, then Listen to start serving.
func New(cfg Config, log *netlog.Logger) *Controller {
	if log == nil {
		log = netlog.New(netlogDefaultLevel)
	}
	return &Controller{
		cfg:        cfg.normalized(),
		log:        log,
		headerKeys: container.NewStringPool(context.Background(), 10*time.Minute),
	}
}

// Handle registers a handler for a URL pattern, compiled into literal and
// named-capture segments at registration time (spec.md §4.2). Patterns are
// tried in registration order; the first one that matches a request's path
// wins — order of registration is the tie-breaker, not pattern length.
// Returns ErrorBadPattern if the pattern has unbalanced captures or
// misplaces a trailing "<name...>" capture.
func (c *Controller) Handle(h *types.Handler) error {
	p, err := CompilePattern(h.Pattern)
	if err != nil {
		return err
	}
	c.handlers = append(c.handlers, &routedHandler{pattern: p, handler: h})
	return nil
}

// match returns the first registered handler whose pattern matches path,
// along with any named captures the pattern produced.
func (c *Controller) match(path string) (*types.Handler, map[string]string) {
	for _, rh := range c.handlers {
		if captures, ok := rh.pattern.Match(path); ok {
			return rh.handler, captures
		}
	}
	return nil, nil
}

// IsRunning reports whether the listener goroutine and worker pool are
// active.
func (c *Controller) IsRunning() bool {
	return atomic.LoadInt32(&c.running) == 1
}

// Listen opens the listen socket (TLS-wrapped if configured), starts the
// fixed worker pool, and starts the listener goroutine. Returns
// ErrorAlreadyRunning if called twice without an intervening Shutdown.
func (c *Controller) Listen() error {
	if !atomic.CompareAndSwapInt32(&c.running, 0, 1) {
		return ErrorAlreadyRunning.Error(nil)
	}

	ln, err := net.Listen("tcp", c.cfg.Listen)
	if err != nil {
		atomic.StoreInt32(&c.running, 0)
		return ErrorListen.Error(err)
	}

	if c.cfg.TLS != nil {
		tlsCfg, err := c.cfg.TLS.Load()
		if err != nil {
			_ = ln.Close()
			atomic.StoreInt32(&c.running, 0)
			return ErrorTLSConfig.Error(err)
		}
		if tlsCfg != nil {
			ln = tls.NewListener(ln, tlsCfg)
		}
	}

	c.listener = ln
	c.jobs = make(chan *connState, c.cfg.QueueSize)
	atomic.StoreInt32(&c.quiting, 0)

	if loop, err := event.New(); err != nil {
		c.log.Warnf("controller '%s' readiness loop unavailable, keep-alive connections will hold a worker: %v", c.cfg.Name, err)
	} else {
		c.readyLoop = loop
		c.readyConn = make(map[int]*parkedConn)
		go c.readyDispatch()
	}

	for i := 0; i < c.cfg.Workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}

	go c.acceptLoop()

	c.log.Infof("controller '%s' listening on %s", c.cfg.Name, c.cfg.Listen)

	return nil
}

func (c *Controller) acceptLoop() {
	for {
		conn, err := c.listener.Accept()
		if err != nil {
			if atomic.LoadInt32(&c.quiting) == 1 {
				return
			}
			c.log.Warnf("controller '%s' accept error: %v", c.cfg.Name, err)
			continue
		}

		atomic.AddUint64(&c.acceptCount, 1)

		if atomic.LoadInt32(&c.quiting) == 1 {
			_ = conn.Close()
			continue
		}

		cs := &connState{
			conn: conn,
			p:    request.NewParser(bufio.NewReader(conn)),
		}

		select {
		case c.jobs <- cs:
		default:
			// queue saturated: shed load rather than unbounded memory growth.
			c.log.Warnf("controller '%s' job queue saturated, dropping connection", c.cfg.Name)
			_ = conn.Close()
		}
	}
}

func (c *Controller) worker() {
	defer c.wg.Done()

	for cs := range c.jobs {
		c.serveConn(cs)
	}
}

// serveConn drains one connection's keep-alive request sequence, strictly
// serialising each request's callback lifecycle
// Start -> ConsumePost* -> Finish -> Cleanup -> (Upgrade), spec.md §5. Once a
// request leaves the connection eligible for another, it tries to park the
// connection on the readiness loop rather than blocking this worker on the
// next read; if parking isn't possible it falls back to reading the next
// request synchronously, exactly as before the readiness loop existed.
func (c *Controller) serveConn(cs *connState) {
	for {
		s := request.NewWithKeyPool(c.headerKeys)

		if c.cfg.ReadHeaderTimeout > 0 {
			_ = cs.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadHeaderTimeout))
		}

		if err := cs.p.ParseRequestLineAndHeaders(s); err != nil {
			_ = cs.conn.Close()
			return
		}

		_ = cs.conn.SetReadDeadline(time.Time{})

		c.dispatch(cs, s)

		if !s.KeepAlive() || atomic.LoadInt32(&c.quiting) == 1 {
			_ = cs.conn.Close()
			return
		}

		if c.parkIfPossible(cs) {
			return
		}
	}
}

// parkIfPossible hands cs off to the readiness loop so this worker goroutine
// can go serve another job instead of blocking on cs's next request. Returns
// false (caller keeps the connection on this goroutine) when there is no
// readiness loop, or cs isn't a plain socket exposing a raw file descriptor
// (true of *net.TCPConn, false of *tls.Conn).
func (c *Controller) parkIfPossible(cs *connState) bool {
	if c.readyLoop == nil {
		return false
	}

	sc, ok := cs.conn.(syscall.Conn)
	if !ok {
		return false
	}

	rc, err := sc.SyscallConn()
	if err != nil {
		return false
	}

	var fd int
	if err := rc.Control(func(f uintptr) { fd = int(f) }); err != nil {
		return false
	}

	// the fd doubles as the token: the kqueue backend reports fds, not tokens
	token := fd

	c.readyMu.Lock()
	c.readyConn[token] = &parkedConn{fd: fd, cs: cs}
	c.readyMu.Unlock()

	if err := c.readyLoop.Add(fd, token); err != nil {
		c.readyMu.Lock()
		delete(c.readyConn, token)
		c.readyMu.Unlock()
		return false
	}

	return true
}

// readyDispatch re-enqueues parked connections once the readiness loop
// reports them readable, until the loop is closed during shutdown.
func (c *Controller) readyDispatch() {
	for {
		tokens, err := c.readyLoop.Wait(1000)
		if err != nil {
			return
		}

		for _, token := range tokens {
			c.readyMu.Lock()
			pc, ok := c.readyConn[token]
			if ok {
				delete(c.readyConn, token)
			}
			c.readyMu.Unlock()

			if !ok {
				continue
			}

			select {
			case c.jobs <- pc.cs:
			default:
				c.log.Warnf("controller '%s' job queue saturated, dropping parked connection", c.cfg.Name)
				_ = pc.cs.conn.Close()
			}
		}
	}
}

// dispatch follows spec.md §4.1 step 3's order exactly: route first (404 on
// no match), run the handler's start, feed any routing captures into the
// query-string map, then apply the ACL (403 on deny) before touching the
// body or the handler's finish/cleanup/upgrade callbacks.
func (c *Controller) dispatch(cs *connState, s *request.State) {
	conn := cs.conn
	p := cs.p

	start := time.Now()
	if c.cfg.Monitor != nil {
		defer func() {
			c.cfg.Monitor.Time("dispatch."+s.Path(), time.Since(start), uint64(len(s.ResponseBody())))
		}()
	}

	h, captures := c.match(s.Path())
	if h == nil {
		writeJSONError(s, 404, "Not Found ("+s.Path()+")")
		c.writeResponse(conn, s)
		return
	}

	h.Touch()

	if h.Start != nil {
		if err := h.Start(s); err != nil {
			writeJSONError(s, 500, "Internal Server Error ("+err.Error()+")")
			c.writeResponse(conn, s)
			return
		}
	}

	for name, value := range captures {
		s.SetCapture(name, value)
	}

	if !c.cfg.ACL.Allow(s.Method(), s.Path(), c.identity(cs)) {
		writeJSONError(s, 403, "Forbidden ("+s.Path()+")")
		c.writeResponse(conn, s)
		return
	}

	if s.ContentLength() > 0 {
		if h.ConsumePost == nil {
			writeJSONError(s, 400, "Bad Request (body received without a registered handler)")
			c.writeResponse(conn, s)
			return
		}

		err := p.ReadBody(s, 32*1024, func(chunk []byte) error {
			return h.ConsumePost(s, chunk)
		})
		if err != nil {
			writeJSONError(s, 400, "Bad Request (malformed request body)")
			c.writeResponse(conn, s)
			return
		}
	}

	if h.Finish != nil {
		if err := h.Finish(s); err != nil {
			writeJSONError(s, 500, "Internal Server Error ("+err.Error()+")")
		}
	}

	if h.Cleanup != nil {
		h.Cleanup(s)
	}

	c.writeResponse(conn, s)

	if s.StatusCode() == 101 && h.Upgrade != nil {
		h.Upgrade(s, s.Upgrade())
	}
}

// identity returns cs's peer identity for ACL matching, computed lazily on
// first use and cached for the life of the connection: on a TLS listener
// the handshake only finishes once the first byte is read off the wire, so
// the peer certificate chain isn't available any earlier than this
// (spec.md §4.3 "Peer attributes are retrieved lazily and cached
// per-request" — here per-connection, since a keep-alive TCP connection's
// TLS session and its certificates never change between requests).
func (c *Controller) identity(cs *connState) acl.Identity {
	if cs.identitySet {
		return cs.identity
	}

	id := acl.Identity{}
	if a := cs.conn.RemoteAddr(); a != nil {
		if host, _, err := net.SplitHostPort(a.String()); err == nil {
			id.RemoteAddr = host
		} else {
			id.RemoteAddr = a.String()
		}
	}

	if tc, ok := cs.conn.(*tls.Conn); ok {
		if state := tc.ConnectionState(); len(state.PeerCertificates) > 0 {
			leaf := state.PeerCertificates[0]
			id.CertCN = leaf.Subject.CommonName
			if len(state.PeerCertificates) > 1 {
				id.IssuerCN = state.PeerCertificates[1].Subject.CommonName
			} else {
				id.IssuerCN = leaf.Issuer.CommonName
			}
		}
	}

	cs.identity = id
	cs.identitySet = true
	return id
}

// QuitStage1 stops accepting new connections and unblocks the listener
// goroutine, without waiting for in-flight workers (spec.md §3
// "Two-stage shutdown"). Calling it twice returns ErrorQuitting.
func (c *Controller) QuitStage1() error {
	if !c.quitMu.TryLock() {
		return ErrorQuitting.Error(nil)
	}
	defer c.quitMu.Unlock()

	if !atomic.CompareAndSwapInt32(&c.quiting, 0, 1) {
		return ErrorQuitting.Error(nil)
	}

	if c.listener != nil {
		_ = c.listener.Close()
	}

	if c.readyLoop != nil {
		_ = c.readyLoop.Close()

		c.readyMu.Lock()
		for token, pc := range c.readyConn {
			_ = pc.cs.conn.Close()
			delete(c.readyConn, token)
		}
		c.readyMu.Unlock()
	}

	return nil
}

// QuitStage2 closes the job queue, letting every worker drain its
// remaining jobs and exit, then waits up to the configured shutdown
// timeout. Must be called after QuitStage1.
func (c *Controller) QuitStage2() error {
	if atomic.LoadInt32(&c.quiting) == 0 {
		return ErrorNotRunning.Error(nil)
	}

	close(c.jobs)

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(c.cfg.ShutdownTimeout):
		c.log.Warnf("controller '%s' shutdown timed out waiting for workers", c.cfg.Name)
	}

	atomic.StoreInt32(&c.running, 0)

	return nil
}

// Shutdown runs both shutdown stages back-to-back, for callers that don't
// need the "let the current handler finish replying" window between them.
func (c *Controller) Shutdown() error {
	if err := c.QuitStage1(); err != nil {
		return err
	}
	return c.QuitStage2()
}
