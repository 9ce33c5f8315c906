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

// Package httpserver is the raw TCP/TLS listener that feeds accepted
// connections into an engine.Service: the §6 "enclosing listener/socket
// layer" external collaborator, kept out of the core engine the way the
// teacher keeps its own server pool's net.Listener plumbing out of the
// packages it fronts.
package httpserver

import (
	"crypto/tls"
	"net"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/net/http2"

	"github.com/AlonsoVanessa/http/conn"
	"github.com/AlonsoVanessa/http/engine"
	"github.com/AlonsoVanessa/http/httperr"
	"github.com/AlonsoVanessa/http/httpstatus"
	"github.com/AlonsoVanessa/http/route"

	liberr "github.com/AlonsoVanessa/http/errors"
)

const (
	timeoutShutdown  = 10 * time.Second
	defaultAccept    = time.Second
	pollIdleInterval = 2 * time.Millisecond
)

// Server is one TCP/TLS listener bound to an engine.Service.
type Server interface {
	GetConfig() ServerConfig
	SetConfig(cfg ServerConfig)

	GetName() string
	GetBindable() string
	GetExpose() string

	IsRunning() bool
	IsTLS() bool

	// Listen starts accepting connections on cfg.Listen, handing every one
	// to svc.Accept and feeding incoming bytes to parser. It returns once
	// the listener is bound; serving runs in background goroutines.
	Listen(svc *engine.Service, parser conn.Parser) liberr.Error

	// WaitNotify blocks until SIGINT/SIGTERM/SIGQUIT, then calls Shutdown.
	WaitNotify()

	Restart(svc *engine.Service, parser conn.Parser) liberr.Error
	Shutdown()

	PortInUse() liberr.Error
}

type server struct {
	mu  sync.Mutex
	cfg ServerConfig

	running  atomic.Bool
	listener net.Listener

	svc    *engine.Service
	parser conn.Parser

	wg sync.WaitGroup
}

// NewServer returns a Server bound to cfg, not yet listening.
func NewServer(cfg ServerConfig) Server {
	return &server{cfg: cfg}
}

func (s *server) GetConfig() ServerConfig { return s.cfg }

func (s *server) SetConfig(cfg ServerConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *server) GetName() string {
	if s.cfg.Name != "" {
		return s.cfg.Name
	}
	return s.cfg.Listen
}

func (s *server) GetBindable() string {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln != nil {
		return ln.Addr().String()
	}
	if u := s.cfg.GetListen(); u != nil {
		return u.Host
	}
	return s.cfg.Listen
}

func (s *server) GetExpose() string {
	if u := s.cfg.GetExpose(); u != nil {
		return u.String()
	}
	return s.cfg.Expose
}

func (s *server) IsRunning() bool { return s.running.Load() }
func (s *server) IsTLS() bool     { return s.cfg.IsTLS() }

// Listen binds cfg.Listen (wrapping it in TLS if configured) and spawns
// the accept loop. Each accepted connection is registered with svc and
// served from its own goroutine.
func (s *server) Listen(svc *engine.Service, parser conn.Parser) liberr.Error {
	if s.IsRunning() {
		s.Shutdown()
	}

	ln, err := net.Listen("tcp", s.GetBindable())
	if err != nil {
		return ErrorPortUse.Error(err)
	}

	if s.cfg.IsTLS() {
		vendor := s.cfg.Vendor()
		tlsCfg, verr := vendor.Config()
		if verr != nil {
			_ = ln.Close()
			return ErrorTLSConfig.Error(verr)
		}
		// Advertise h2 via ALPN so a TLS-terminating peer that prefers HTTP/2
		// still completes its handshake; this engine only ever speaks
		// HTTP/1.1 on the resulting connection (h2 framing is Non-goals).
		tlsCfg.NextProtos = append([]string{http2.NextProtoTLS}, tlsCfg.NextProtos...)
		tlsCfg.NextProtos = append(tlsCfg.NextProtos, "http/1.1")
		ln = tls.NewListener(ln, tlsCfg)
	}

	s.mu.Lock()
	s.listener = ln
	s.svc = svc
	s.parser = parser
	s.mu.Unlock()

	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop(ln)

	return nil
}

func (s *server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	defer s.running.Store(false)

	for {
		c, err := ln.Accept()
		if err != nil {
			return
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serve(c)
		}()
	}
}

// serve drains one accepted connection end to end: register it with the
// engine, feed bytes to the parser, and let the pipeline builder run the
// request to completion (§4.5/§4.6).
func (s *server) serve(raw net.Conn) {
	t := newTransport(raw, s.cfg.IsTLS())

	c, aerr := s.svc.Accept(t, true)
	if aerr != nil {
		_ = t.Disconnect()
		return
	}
	c.SetState(conn.Connected)

	defer func() {
		s.svc.Release(c.Seq())
		_ = c.Disconnect()
	}()

	buf := make([]byte, 32*1024)

	for !c.IsComplete() {
		n, eof, err := t.Recv(buf)
		if err != nil {
			_ = httperr.RaiseWithResponder(c, httperr.Flags(httpstatus.InternalServerError)|httperr.ABORT, newResponder(c), "transport read error: %v", err)
			return
		}

		if n > 0 {
			c.Touch()
			s.feed(c, buf[:n])
		}

		if eof {
			return
		}
		if n == 0 {
			time.Sleep(pollIdleInterval)
		}
	}
}

// feed pushes newly received bytes through the parser, routes the request
// the first time enough of it has been parsed, and drains the resulting
// pipeline schedule.
func (s *server) feed(c *conn.Connection, data []byte) {
	if s.parser == nil {
		return
	}
	if c.RX == nil {
		c.RX = conn.NewRXContext()
	}

	consumed, perr := s.parser.Feed(c.RX, data)
	if perr != nil {
		_ = httperr.RaiseWithResponder(c, httperr.Flags(httpstatus.BadRequest)|httperr.ABORT, newResponder(c), "parse error: %v", perr)
		return
	}

	if c.RX.Route == nil && c.RX.Method != "" && c.RX.URI != "" {
		rt, rerr := s.route(c.RX)
		if rerr != nil {
			_ = httperr.RaiseWithResponder(c, httperr.Flags(httpstatus.NotFound)|httperr.CLOSE, newResponder(c), "routing error: %v", rerr)
			return
		}
		c.RX.Route = rt
		c.SetState(conn.Parsed)

		if berr := s.svc.Builder().Build(c, rt); berr != nil {
			_ = httperr.RaiseWithResponder(c, httperr.Flags(httpstatus.InternalServerError)|httperr.ABORT, newResponder(c), "pipeline build error: %v", berr)
			return
		}
		if serr := s.svc.Builder().Start(c); serr != nil {
			_ = httperr.RaiseWithResponder(c, httperr.Flags(httpstatus.InternalServerError)|httperr.ABORT, newResponder(c), "pipeline start error: %v", serr)
			return
		}
	}

	if c.RX.InputQ != nil && consumed < len(data) {
		c.RX.InputQ.Enqueue(data[consumed:], false)
		c.RX.InputQ.Schedule()
	}

	s.svc.Builder().ServiceQueues(c)
	s.svc.Builder().PumpHandler(c)
}

func (s *server) route(rx *conn.RXContext) (*route.Route, error) {
	r := s.svc.Router()
	if r == nil {
		return &route.Route{}, nil
	}
	return r.Route(rx.RequestView())
}

// WaitNotify blocks until an interrupt/terminate signal arrives, then
// shuts the listener down.
func (s *server) WaitNotify() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	s.Shutdown()
}

// Restart stops and rebinds the listener with the current configuration.
func (s *server) Restart(svc *engine.Service, parser conn.Parser) liberr.Error {
	s.Shutdown()
	return s.Listen(svc, parser)
}

// Shutdown closes the listener and waits (up to timeoutShutdown) for
// in-flight connections to drain.
func (s *server) Shutdown() {
	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeoutShutdown):
	}

	s.running.Store(false)
}

// PortInUse reports whether cfg.Listen currently has a listener bound to
// it by dialing it with a short timeout.
func (s *server) PortInUse() liberr.Error {
	d := net.Dialer{Timeout: 2 * time.Second}
	c, err := d.Dial("tcp", s.cfg.Listen)
	if err != nil {
		return nil
	}
	_ = c.Close()
	return ErrorPortUse.Error(nil)
}
