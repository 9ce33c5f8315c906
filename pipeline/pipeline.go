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

// Package pipeline implements the §4.4/§4.5 pipeline builder: it turns a
// route.Route's ordered stage names into paired RX/TX queue.Chains hung
// off a conn.Connection, then drives the start/service/teardown lifecycle
// those chains go through while a request is processed.
package pipeline

import (
	"github.com/AlonsoVanessa/http/conn"
	"github.com/AlonsoVanessa/http/queue"
	"github.com/AlonsoVanessa/http/route"
	"github.com/AlonsoVanessa/http/stage"

	liberr "github.com/AlonsoVanessa/http/errors"
)

const (
	ErrorUnknownStage liberr.CodeError = iota + liberr.MinPkgPipeline
)

func init() {
	if !liberr.ExistInMapMessage(ErrorUnknownStage) {
		liberr.RegisterIdFctMessage(ErrorUnknownStage, getMessage)
	}
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorUnknownStage:
		return "pipeline: route names a stage absent from the registry"
	default:
		return liberr.NullMessage
	}
}

// Built-in stage names the builder falls back to when a route leaves the
// corresponding slot unset (§4.3, §4.4 step 1/3).
const (
	DefaultHandler   = "passhandler"
	DefaultConnector = "netconnector"
	SendConnector    = "sendconnector"
	FileHandler      = "filehandler"
)

// Builder assembles TX/RX queue chains for a request from a route
// descriptor (§4.4).
type Builder struct {
	Registry stage.Registry
}

// NewBuilder returns a Builder resolving stage names against r.
func NewBuilder(r stage.Registry) *Builder {
	return &Builder{Registry: r}
}

// Build assembles both the RX and TX pipelines for c from rt, in the
// order the spec's two subsections are written: RX first (so TX pairing
// in step 5 has something to pair against), then TX.
func (b *Builder) Build(c *conn.Connection, rt *route.Route) liberr.Error {
	if err := b.BuildRX(c, rt); err != nil {
		return err
	}
	return b.BuildTX(c, rt)
}

// newQueue returns a queue for s/dir already bound to c's scheduler, so a
// later q.Schedule() reaches the connection's service list.
func newQueue(c *conn.Connection, dir stage.Direction, s *stage.Stage) *queue.Queue {
	q := queue.New(dir, s)
	q.SetOwner(c)
	if c.Scheduler != nil {
		c.Scheduler.Track(q)
	}
	return q
}

func (b *Builder) lookup(name, fallback string) (*stage.Stage, liberr.Error) {
	if name == "" {
		name = fallback
	}
	s, err := b.Registry.Lookup(name)
	if err != nil {
		return nil, ErrorUnknownStage.Error(err)
	}
	return s, nil
}

// BuildRX assembles the RX queue chain (§4.4 RX assembly): a sentinel
// head, each matching input stage in route order, and the handler last —
// InputQ is the first queue after the sentinel head, where network input
// enters the chain, and ReadQ is the chain's tail, closest to the handler.
func (b *Builder) BuildRX(c *conn.Connection, rt *route.Route) liberr.Error {
	if c.RX == nil {
		c.RX = conn.NewRXContext()
	}
	rx := c.RX
	chain := rx.Chain
	chain.Append(newQueue(c, stage.RX, nil))

	ctx := rx.MatchContext(stage.RX)
	for _, name := range rt.InputStages {
		s, err := b.lookup(name, "")
		if err != nil {
			return err
		}
		if !s.Matches(ctx) {
			continue
		}
		chain.Append(newQueue(c, stage.RX, s))
	}

	handler, err := b.lookup(rt.Handler, DefaultHandler)
	if err != nil {
		return err
	}
	chain.Append(newQueue(c, stage.RX, handler))

	rx.InputQ = chain.Head.Next()
	rx.ReadQ = chain.Last()
	return nil
}

// BuildTX assembles the TX queue chain (§4.4 TX assembly steps 1-8).
func (b *Builder) BuildTX(c *conn.Connection, rt *route.Route) liberr.Error {
	if c.TX == nil {
		c.TX = conn.NewTXContext()
	}
	tx := c.TX
	tx.Building = true

	if c.RX != nil {
		tx.Chains[stage.RX] = c.RX.Chain
	}
	chain := tx.Chain(stage.TX)
	chain.Append(newQueue(c, stage.TX, nil))

	// Step 1: handler.
	handler, err := b.lookup(rt.Handler, DefaultHandler)
	if err != nil {
		return err
	}
	tx.Handler = handler
	tx.OutputPipeline = append(tx.OutputPipeline, handler)
	chain.Append(newQueue(c, stage.TX, handler))

	// Step 2: output filters, by match.
	hasOutputFilters := false
	ctx := c.RX.MatchContext(stage.TX)
	for _, name := range rt.OutputStages {
		s, lerr := b.lookup(name, "")
		if lerr != nil {
			return lerr
		}
		if !s.Matches(ctx) {
			continue
		}
		tx.OutputPipeline = append(tx.OutputPipeline, s)
		hasOutputFilters = true
		chain.Append(newQueue(c, stage.TX, s))
	}

	// Step 3: connector selection.
	// spec §4.4 step 3: tracing clause omitted — no tracing seam exists to
	// require body capture from.
	connectorName := rt.Connector
	switch {
	case handler.Name == FileHandler && c.RX.Method == "GET" && !hasOutputFilters && !c.IsSecure():
		connectorName = SendConnector
	case connectorName == "":
		connectorName = DefaultConnector
	}
	connector, err := b.lookup(connectorName, DefaultConnector)
	if err != nil {
		return err
	}
	tx.Connector = connector
	tx.OutputPipeline = append(tx.OutputPipeline, connector)
	chain.Append(newQueue(c, stage.TX, connector))

	// Step 4: writeq/connectorq.
	tx.WriteQ = chain.Head.Next()
	tx.ConnectorQ = chain.Last()

	// Step 5: pair TX queues with their RX sibling sharing the same stage.
	chain.Walk(func(txq *queue.Queue) bool {
		if txq.Stage() == nil {
			return true
		}
		tx.Chains[stage.RX].Walk(func(rxq *queue.Queue) bool {
			if rxq.Stage() == txq.Stage() {
				queue.SetPair(txq, rxq)
				return false
			}
			return true
		})
		return true
	})

	// Step 6: delayed header packet, serviced only after opens complete.
	tx.WriteQ.EnqueuePacket(&queue.Packet{Header: true, Delayed: true})

	// Step 7: open every queue (both directions) whose stage has Open and
	// is not yet OPEN, skipping a queue whose pair already opened.
	if err := b.openChain(chain); err != nil {
		return err
	}
	if c.RX != nil {
		if err := b.openChain(c.RX.Chain); err != nil {
			return err
		}
	}
	tx.WriteQ.ReleaseDelayed()

	tx.Building = false

	// Step 8: refinalize.
	if tx.Refinalize {
		tx.Refinalize = false
		tx.Finalized = false
		b.Finalize(c)
	}

	return nil
}

func (b *Builder) openChain(chain *queue.Chain) liberr.Error {
	var ferr liberr.Error
	chain.Walk(func(q *queue.Queue) bool {
		if q.Stage() == nil || q.IsOpen() {
			return true
		}
		if p := q.PairQueue(); p != nil && p.IsOpen() {
			q.MarkOpen()
			return true
		}
		if q.Stage().Open != nil {
			if err := q.Stage().Open(q); err != nil {
				ferr = ErrorUnknownStage.Error(err)
				return false
			}
		}
		q.MarkOpen()
		if p := q.PairQueue(); p != nil {
			p.MarkOpen()
		}
		return true
	})
	return ferr
}

// Finalize marks tx finalized and delivers exactly one end-of-stream
// packet to the connector. Called while the builder is still assembling
// the pipeline (tx.Building), it defers via Refinalize instead of writing
// to a connector queue that is not wired yet (§4.4 step 8, §8 scenario 6).
func (b *Builder) Finalize(c *conn.Connection) {
	tx := c.TX
	if tx == nil || tx.Finalized {
		return
	}
	if tx.Building {
		tx.Refinalize = true
		return
	}
	tx.Finalized = true
	if tx.ConnectorQ != nil {
		tx.ConnectorQ.EnqueuePacket(&queue.Packet{})
		tx.ConnectorQ.Schedule()
	}
}

func (b *Builder) startQueue(q *queue.Queue) error {
	if q == nil || q.Stage() == nil || q.IsStarted() {
		return nil
	}
	if p := q.PairQueue(); p != nil && p.IsStarted() {
		q.MarkStarted()
		return nil
	}
	if q.Stage().Start != nil {
		if err := q.Stage().Start(q); err != nil {
			return err
		}
	}
	q.MarkStarted()
	if p := q.PairQueue(); p != nil {
		p.MarkStarted()
	}
	return nil
}

// Start runs the §4.5 start order: RX forward, TX backward (connector
// first, handler last), then synthesizes a WRITABLE notification if no
// body remains to be read and the request is not already complete.
func (b *Builder) Start(c *conn.Connection) error {
	if c.RX != nil {
		var ferr error
		c.RX.Chain.Walk(func(q *queue.Queue) bool {
			if ferr = b.startQueue(q); ferr != nil {
				return false
			}
			return true
		})
		if ferr != nil {
			return ferr
		}
	}

	if c.TX != nil {
		var ferr error
		c.TX.Chain(stage.TX).WalkReverse(func(q *queue.Queue) bool {
			if ferr = b.startQueue(q); ferr != nil {
				return false
			}
			return true
		})
		if ferr != nil {
			return ferr
		}
	}

	if c.RX != nil && c.RX.RemainingContent == 0 && !c.IsComplete() {
		c.Notify(conn.EventIOWritable, c.TX)
	}

	return nil
}

// service runs the owning stage's service routine for q's direction,
// dispatching to Outgoing/Incoming/Process per §4.5. A stage never
// returns an error here — per §7 it calls the error/abort protocol
// itself and returns. A queue whose stage implements none of the three
// (a plain relay position) passes its packet through to the next queue
// in the chain unchanged, the way an un-transforming filter would.
//
// Incoming/Outgoing produce their transformed output by calling
// stage.Queue.Enqueue on the very queue they were invoked with (they have
// no other handle); forwardProduced relays whatever that appended onto q
// to q.Next(), which is how a chunkFilter's decoded body or an
// uploadFilter's size-checked passthrough actually reaches the stage
// downstream of it instead of sitting stranded on the filter's own queue.
func (b *Builder) service(q *queue.Queue) {
	p := q.Dequeue()
	if p == nil {
		return
	}

	s := q.Stage()
	switch {
	case s != nil && q.Direction() == stage.TX && s.Outgoing != nil:
		_ = s.Outgoing(q, p.Payload)
		b.forwardProduced(q)
	case s != nil && q.Direction() == stage.RX && s.Incoming != nil:
		_ = s.Incoming(q, p.Payload)
		b.forwardProduced(q)
	case s != nil && s.Process != nil:
		_ = s.Process(q)
	default:
		if next := q.Next(); next != nil {
			next.EnqueuePacket(p)
			next.Schedule()
		}
	}

	if q.Pending() {
		q.Schedule()
	}
}

// forwardProduced relays every packet an Incoming/Outgoing callback just
// appended to q (via Enqueue) onto q.Next(), preserving the order they were
// produced in, and schedules it for service.
func (b *Builder) forwardProduced(q *queue.Queue) {
	produced := q.DequeueAll()
	if len(produced) == 0 {
		return
	}

	next := q.Next()
	if next == nil {
		return
	}

	for _, p := range produced {
		next.EnqueuePacket(p)
	}
	next.Schedule()
}

// ServiceQueues drains c's scheduler, running each ready queue's service
// routine until the schedule empties or c reaches Complete (httpServiceQueues,
// §4.5).
func (b *Builder) ServiceQueues(c *conn.Connection) {
	c.Scheduler.Drain(func(q *queue.Queue) { b.service(q) }, c.IsComplete)
}

// PumpHandler calls the handler's Writable when not finalized, and drains
// the schedule if it produced bytes (httpPumpHandler, §4.5).
func (b *Builder) PumpHandler(c *conn.Connection) {
	tx := c.TX
	if tx == nil || tx.Finalized || tx.Handler == nil || tx.Handler.Writable == nil || tx.WriteQ == nil {
		return
	}

	before := tx.WriteQ.Count()
	if err := tx.Handler.Writable(tx.WriteQ); err != nil {
		return
	}
	if tx.WriteQ.Count() > before {
		tx.WriteQ.Schedule()
		b.ServiceQueues(c)
	}
}

// Teardown walks every queue in both directions and closes any queue
// whose stage has Close and is currently OPEN (httpDestroyPipeline, §4.5).
func (b *Builder) Teardown(c *conn.Connection) {
	b.teardownChain(rxChain(c))
	b.teardownChain(txChain(c))
}

func (b *Builder) teardownChain(chain *queue.Chain) {
	if chain == nil {
		return
	}
	chain.Walk(func(q *queue.Queue) bool {
		if q.Stage() != nil && q.Stage().Close != nil && q.IsOpen() {
			q.Stage().Close(q)
			q.ClearOpen()
		}
		return true
	})
}

// Discard drops buffered packets from every queue in dir without invoking
// any stage callback (httpDiscardData, §4.5, used by aborts).
func Discard(c *conn.Connection, dir stage.Direction) {
	var chain *queue.Chain
	if dir == stage.RX {
		chain = rxChain(c)
	} else {
		chain = txChain(c)
	}
	if chain == nil {
		return
	}
	chain.Walk(func(q *queue.Queue) bool {
		q.Discard()
		return true
	})
}

func rxChain(c *conn.Connection) *queue.Chain {
	if c.RX == nil {
		return nil
	}
	return c.RX.Chain
}

func txChain(c *conn.Connection) *queue.Chain {
	if c.TX == nil {
		return nil
	}
	return c.TX.Chain(stage.TX)
}
