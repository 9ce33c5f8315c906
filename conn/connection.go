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

package conn

import (
	"sync"
	"time"

	"github.com/AlonsoVanessa/http/limits"
	"github.com/AlonsoVanessa/http/queue"

	liberr "github.com/AlonsoVanessa/http/errors"
)

const (
	ErrorAlreadyComplete liberr.CodeError = iota + liberr.MinPkgConn
)

func init() {
	if !liberr.ExistInMapMessage(ErrorAlreadyComplete) {
		liberr.RegisterIdFctMessage(ErrorAlreadyComplete, getMessage)
	}
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorAlreadyComplete:
		return "conn: connection has already reached the Complete state"
	default:
		return liberr.NullMessage
	}
}

// Connection is the per-connection state machine and lifecycle (§3, §4.6).
type Connection struct {
	mu sync.Mutex

	transport Transport
	notifier  Notifier

	seq uint64

	started      time.Time
	lastActivity time.Time

	limits *limits.Limits

	state State

	errorFlag  bool
	connError  bool
	responded  bool
	complete   bool
	secure     bool
	endpoint   bool // true for server-side connections

	keepAliveCount int

	errorMsg string

	RX *RXContext
	TX *TXContext

	// Scheduler is the global per-connection service list from which
	// pending queues are drained (§3 Connection.ServiceQueue).
	Scheduler *queue.Scheduler
}

// New returns a freshly accepted Connection in state Begin.
func New(seq uint64, t Transport, n Notifier, l *limits.Limits, serverSide bool) *Connection {
	now := time.Now()
	return &Connection{
		transport:      t,
		notifier:       n,
		seq:            seq,
		started:        now,
		lastActivity:   now,
		limits:         l,
		state:          Begin,
		secure:         t != nil && t.Secure(),
		endpoint:       serverSide,
		keepAliveCount: l.KeepAliveMax,
		Scheduler:      queue.NewScheduler(),
	}
}

func (c *Connection) Seq() uint64          { return c.seq }
func (c *Connection) Limits() *limits.Limits { return c.limits }
func (c *Connection) Transport() Transport { return c.transport }
func (c *Connection) IsSecure() bool       { return c.secure }
func (c *Connection) IsServerSide() bool   { return c.endpoint }

func (c *Connection) Started() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

func (c *Connection) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// Touch records activity now, satisfying the invariant started ≤
// lastActivity ≤ now.
func (c *Connection) Touch() {
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
}

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetState sets the connection's state and notifies observers. It does
// not check the order of states; Reset is what returns a connection to
// Connected for keep-alive reuse.
func (c *Connection) SetState(s State) {
	c.mu.Lock()
	c.state = s
	n := c.notifier
	c.mu.Unlock()

	if n != nil {
		n.Notify(c, EventStateChange, s)
	}
}

func (c *Connection) HasError() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errorFlag
}

func (c *Connection) HasConnError() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connError
}

func (c *Connection) IsResponded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.responded
}

func (c *Connection) IsComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.complete
}

func (c *Connection) KeepAliveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keepAliveCount
}

// ErrorMsg returns the formatted error message set by the abort protocol,
// if any.
func (c *Connection) ErrorMsg() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errorMsg
}

// Reset prepares the connection for keep-alive reuse: decrements
// keepAliveCount, clears per-request flags and contexts, and returns to
// Connected. Returns ErrorAlreadyComplete if keepAliveCount has already
// been exhausted or forced to -1.
func (c *Connection) Reset() liberr.Error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.keepAliveCount <= 0 {
		return ErrorAlreadyComplete.Error(nil)
	}
	if c.keepAliveCount > 0 {
		c.keepAliveCount--
	}

	c.responded = false
	c.errorFlag = false
	c.complete = false
	c.errorMsg = ""
	c.RX = nil
	c.TX = nil
	c.state = Connected

	return nil
}

// CloseKeepAlive forces keepAliveCount to -1 ("close"), as required on any
// error with CLOSE/ABORT, any 5xx after headers sent, or a timeout.
func (c *Connection) CloseKeepAlive() {
	c.mu.Lock()
	c.keepAliveCount = -1
	c.mu.Unlock()
}

// markComplete transitions the connection into Complete, idempotent.
func (c *Connection) markComplete() {
	c.mu.Lock()
	c.complete = true
	c.state = Complete
	c.mu.Unlock()
}

// Complete marks the connection Complete without tearing the transport
// down, used by a connector once its final packet has drained (§4.6:
// "Complete means I/O has drained").
func (c *Connection) Complete() {
	c.markComplete()
}

// Disconnect tears the transport down but preserves errorMsg for
// client-side inspection (httpDisconnect, §4.7).
func (c *Connection) Disconnect() error {
	c.markComplete()
	if c.transport == nil {
		return nil
	}
	return c.transport.Disconnect()
}

// ApplyError is the state mutation the error/abort protocol (package
// httperr) drives. It is idempotent: once errorFlag is set, subsequent
// calls return already=true and change nothing, matching the invariant
// that the first httpError wins.
func (c *Connection) ApplyError(msg string, abort, closeConn bool) (already bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.errorFlag {
		return true
	}

	c.errorFlag = true
	c.errorMsg = msg

	if abort {
		c.connError = true
		if c.RX != nil {
			// MOB - what value is this?
			c.RX.EOF = true
		}
	}

	if abort || closeConn {
		c.keepAliveCount = -1
	}

	return false
}

// MarkResponded sets the responded flag once the error protocol has
// emitted a response (or redirected to an error document).
func (c *Connection) MarkResponded() {
	c.mu.Lock()
	c.responded = true
	c.mu.Unlock()
}

// Notify forwards to the configured Notifier, if any.
func (c *Connection) Notify(ev NotifyEvent, arg interface{}) {
	c.mu.Lock()
	n := c.notifier
	c.mu.Unlock()

	if n != nil {
		n.Notify(c, ev, arg)
	}
}
