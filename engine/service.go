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

// Package engine implements the §3 Service: the single process-wide
// object holding the stage registry, the live connection set, the default
// limits for each connection role, and the one maintenance timer that
// polices every connection's timeouts (§4.8). Exactly one Service is
// meant to exist per process, the way the teacher's server pool is keyed
// by a single registry rather than one per listener.
package engine

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AlonsoVanessa/http/authseam"
	libctx "github.com/AlonsoVanessa/http/context"
	"github.com/AlonsoVanessa/http/limits"
	"github.com/AlonsoVanessa/http/logger"
	"github.com/AlonsoVanessa/http/pipeline"
	"github.com/AlonsoVanessa/http/route"
	"github.com/AlonsoVanessa/http/stage"

	"github.com/AlonsoVanessa/http/conn"

	liberr "github.com/AlonsoVanessa/http/errors"
)

// httpDateLayout is the RFC 1123 GMT layout used for the HTTP Date header,
// kept local rather than importing net/http for a single constant.
const httpDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// maintenanceInterval is the §4.8 timer period: once per second.
const maintenanceInterval = time.Second

// secretSize is the length, in bytes, of the process secret §4.8 derives
// for signing/obfuscation purposes (session tokens, CSRF-style nonces);
// consumers reach it through Secret().
const secretSize = 32

// Config bundles the inputs New needs. Every field is optional: unset
// limits are filled with limits.NewLimits, while an unset Router or
// Logger stays nil (Router and Log then return nil, and notify logs
// nothing), rather than failing validation.
type Config struct {
	ServerLimits *limits.Limits
	ClientLimits *limits.Limits
	Router       route.Router
	Logger       logger.Logger
}

// Service is the §3 process-wide singleton: connection registry, stage
// registry, auth backend registry, pipeline builder, default limits, and
// the single maintenance timer. The zero value is not usable; build one
// with New.
type Service struct {
	stages  stage.Registry
	auth    *authseam.Registry
	builder *pipeline.Builder

	conns   libctx.Config[uint64]
	nextSeq uint64 // atomic

	serverLimits *limits.Limits
	clientLimits *limits.Limits

	router route.Router
	log    logger.Logger

	secret []byte
	date   atomic.Value // string

	shuttingDown atomic.Bool
	timerOnce    sync.Once
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// New returns a Service with its stage registry populated by the built-in
// stages (§4.3) and its maintenance timer running. Callers register
// application stages and routes before accepting connections.
func New(cfg Config) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		stages: stage.NewRegistry(ctx),
		auth:   authseam.NewRegistry(ctx),
		conns:  libctx.New[uint64](ctx),
		cancel: cancel,
	}

	registerBuiltins(s.stages)
	s.builder = pipeline.NewBuilder(s.stages)

	s.serverLimits = cfg.ServerLimits
	if s.serverLimits == nil {
		s.serverLimits = limits.NewLimits(true)
	}
	s.clientLimits = cfg.ClientLimits
	if s.clientLimits == nil {
		s.clientLimits = limits.NewLimits(false)
	}

	s.router = cfg.Router
	s.log = cfg.Logger

	s.secret = deriveSecret(s.log)
	s.date.Store(time.Now().UTC().Format(httpDateLayout))

	s.StartMaintenance(ctx)

	return s
}

// deriveSecret reads secretSize random bytes from crypto/rand. If the
// platform's entropy source is unavailable, it falls back to a value
// derived from the current time and process id and logs a warning: a
// predictable secret is a real weakening, not a silent one (§4.8 Secret).
func deriveSecret(log logger.Logger) []byte {
	b := make([]byte, secretSize)
	if _, err := rand.Read(b); err == nil {
		return b
	}

	fallback := fmt.Sprintf("%d-%d-fallback-secret", time.Now().UnixNano(), os.Getpid())
	copy(b, fallback)

	if log != nil {
		log.Warning("engine: crypto/rand unavailable, falling back to a time/pid-derived secret").Log()
	}

	return b
}

// Stages returns the stage registry new application stages are
// registered against.
func (s *Service) Stages() stage.Registry { return s.stages }

// Auth returns the runtime auth backend registry (§6, §9).
func (s *Service) Auth() *authseam.Registry { return s.auth }

// Builder returns the pipeline builder bound to this Service's registry.
func (s *Service) Builder() *pipeline.Builder { return s.builder }

// Router returns the configured Router, or nil if none was given.
func (s *Service) Router() route.Router { return s.router }

// Log returns the configured Logger, or nil if none was given.
func (s *Service) Log() logger.Logger { return s.log }

// Secret returns the process-wide derived secret (§4.8).
func (s *Service) Secret() []byte { return s.secret }

// Date returns the cached HTTP-format current time, refreshed once per
// second by the maintenance timer rather than formatted on every request
// (§4.8 Date cache).
func (s *Service) Date() string {
	if v, ok := s.date.Load().(string); ok {
		return v
	}
	return time.Now().UTC().Format(httpDateLayout)
}

// IsShuttingDown reports whether Shutdown has been called.
func (s *Service) IsShuttingDown() bool { return s.shuttingDown.Load() }

// ServerLimits returns the default Limits attached to new server-side
// connections.
func (s *Service) ServerLimits() *limits.Limits { return s.serverLimits }

// ClientLimits returns the default Limits attached to new client-side
// connections.
func (s *Service) ClientLimits() *limits.Limits { return s.clientLimits }

// Accept registers a freshly accepted transport as a new Connection,
// assigning it the next sequence number and the role-appropriate default
// Limits. It refuses to hand out new connections once Shutdown has been
// called (§4.8 Shutdown reason).
func (s *Service) Accept(t conn.Transport, serverSide bool) (*conn.Connection, liberr.Error) {
	if s.IsShuttingDown() {
		return nil, ErrorShuttingDown.Error(nil)
	}

	seq := atomic.AddUint64(&s.nextSeq, 1)

	lim := s.clientLimits
	if serverSide {
		lim = s.serverLimits
	}

	c := conn.New(seq, t, conn.NotifierFunc(s.notify), lim, serverSide)
	s.conns.Store(seq, c)

	return c, nil
}

// Lookup returns the connection registered under seq, if any.
func (s *Service) Lookup(seq uint64) (*conn.Connection, bool) {
	v, ok := s.conns.Load(seq)
	if !ok {
		return nil, false
	}
	c, ok := v.(*conn.Connection)
	return c, ok
}

// Release removes a connection from the registry once its owner (the
// listener accept loop) has finished tearing it down. Idempotent.
func (s *Service) Release(seq uint64) {
	s.conns.Delete(seq)
}

// Len reports the number of connections currently tracked, the same
// count Snapshot reports.
func (s *Service) Len() int {
	n := 0
	s.conns.Walk(func(uint64, interface{}) bool {
		n++
		return true
	})
	return n
}

// notify is every accepted connection's Notifier: it forwards
// state-change and I/O-error events to the configured Logger, at the
// debug/warning level the teacher's own connection lifecycle logging
// uses, and is otherwise a no-op collaborator (the application's own
// Notifier, if it wants one, is a layer above this).
func (s *Service) notify(c *conn.Connection, ev conn.NotifyEvent, arg interface{}) {
	if s.log == nil {
		return
	}

	switch ev {
	case conn.EventStateChange:
		s.log.Debug(fmt.Sprintf("conn %d: state -> %v", c.Seq(), arg)).Log()
	case conn.EventIOError:
		s.log.Warning(fmt.Sprintf("conn %d: io error, status %v", c.Seq(), arg)).Log()
	}
}

// Shutdown stops the maintenance timer and marks the Service as no longer
// accepting new connections (§4.8 Shutdown reason: the next tick forces
// every still-open connection closed). It blocks until the timer
// goroutine has exited.
func (s *Service) Shutdown() {
	if !s.shuttingDown.CompareAndSwap(false, true) {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Snapshot is a supplemented monitoring feature (SPEC_FULL.md): a
// point-in-time view of the Service suitable for a health or metrics
// endpoint, with no equivalent named operation in the distilled spec.
type Snapshot struct {
	Connections int
	Date        string
	ShuttingDown bool
}

// Snapshot returns the Service's current monitoring snapshot.
func (s *Service) Snapshot() Snapshot {
	return Snapshot{
		Connections:  s.Len(),
		Date:         s.Date(),
		ShuttingDown: s.IsShuttingDown(),
	}
}
