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

package queue

import (
	"sync"

	"github.com/AlonsoVanessa/http/stage"
)

// Flags tracks a Queue's lifecycle state in the service schedule.
type Flags uint8

const (
	// OPEN is set once the owning stage's Open callback has run for this
	// queue (or its pair).
	OPEN Flags = 1 << iota
	// STARTED is set once the owning stage's Start callback has run.
	STARTED
	// RESERVICE is set when a reentrant service call arrives while the
	// queue is already SERVICING; the scheduler re-enqueues it.
	RESERVICE
	// SERVICING is set for the duration of the stage's service routine.
	SERVICING
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Queue is a buffered, schedulable FIFO of packets owned by a Stage in one
// direction. It is doubly-linked into its own chain (Next/Prev) and,
// independently, into the scheduler's service list (schedulePrev/Next).
type Queue struct {
	mu sync.Mutex

	dir   stage.Direction
	stage *stage.Stage

	pair *Queue

	packets []*Packet
	flags   Flags

	// next/prev link this queue into its owning chain (RX or TX), in
	// pipeline order.
	next *Queue
	prev *Queue

	// schedulePrev/scheduleNext link this queue into the global service
	// schedule; both nil iff the queue is not currently scheduled.
	schedulePrev *Queue
	scheduleNext *Queue
	scheduled    bool

	sched *Scheduler

	count int64

	// owner is the *conn.Connection hosting this queue, stashed as an
	// opaque value so this package never imports conn (it would cycle:
	// conn already imports queue). Built-in stages recover the concrete
	// type via a type assertion.
	owner interface{}
	data  interface{}
}

// New returns a Queue for the given stage and direction, unlinked from any
// chain or schedule.
func New(dir stage.Direction, s *stage.Stage) *Queue {
	return &Queue{dir: dir, stage: s}
}

// Stage returns the stage owning this queue.
func (q *Queue) Stage() *stage.Stage { return q.stage }

// Direction reports whether this is an RX or TX queue.
func (q *Queue) Direction() stage.Direction { return q.dir }

// Pair returns the sibling queue in the opposite direction sharing this
// stage, satisfying stage.Queue. Returns a nil interface value (not a
// nil *Queue wrapped in a non-nil interface) when unpaired.
func (q *Queue) Pair() stage.Queue {
	if q.pair == nil {
		return nil
	}
	return q.pair
}

// PairQueue returns the typed sibling, or nil if unpaired.
func (q *Queue) PairQueue() *Queue { return q.pair }

// SetPair links q and o as siblings across directions. Idempotent: pairing
// an already-paired queue with the same sibling is a no-op. The pair link
// is never an ownership edge — neither queue frees the other.
func SetPair(q, o *Queue) {
	if q == nil || o == nil || q == o {
		return
	}
	if q.pair == o && o.pair == q {
		return
	}
	q.pair = o
	o.pair = q
}

// Flags returns the current lifecycle flags.
func (q *Queue) Flags() Flags {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.flags
}

func (q *Queue) setFlag(f Flags) {
	q.mu.Lock()
	q.flags |= f
	q.mu.Unlock()
}

func (q *Queue) clearFlag(f Flags) {
	q.mu.Lock()
	q.flags &^= f
	q.mu.Unlock()
}

// Count returns the number of bytes enqueued over the queue's lifetime.
func (q *Queue) Count() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Enqueue appends a packet, satisfying stage.Queue.
func (q *Queue) Enqueue(payload []byte, header bool) {
	q.EnqueuePacket(&Packet{Header: header, Payload: payload})
}

// EnqueuePacket appends p to the tail of the queue's buffer.
func (q *Queue) EnqueuePacket(p *Packet) {
	if p == nil {
		return
	}
	q.mu.Lock()
	q.packets = append(q.packets, p)
	q.count += int64(p.Len())
	q.mu.Unlock()
}

// Dequeue removes and returns the head packet, or nil if empty.
func (q *Queue) Dequeue() *Packet {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.packets) == 0 {
		return nil
	}

	p := q.packets[0]
	q.packets = q.packets[1:]
	return p
}

// DequeueAll removes and returns every packet currently buffered, in FIFO
// order, or nil if empty. Used by the pipeline service loop to collect the
// output an Incoming/Outgoing callback produced via Enqueue (onto this same
// queue) so it can be relayed to Next().
func (q *Queue) DequeueAll() []*Packet {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.packets) == 0 {
		return nil
	}

	out := q.packets
	q.packets = nil
	return out
}

// Peek returns the head packet without removing it, or nil if empty.
func (q *Queue) Peek() *Packet {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.packets) == 0 {
		return nil
	}
	return q.packets[0]
}

// Pending reports whether the queue holds any non-delayed packet, which is
// precisely the condition that makes it eligible for the service schedule.
func (q *Queue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, p := range q.packets {
		if !p.Delayed {
			return true
		}
	}
	return false
}

// ReleaseDelayed clears the Delayed bit on every buffered packet, making
// them eligible for service; used once every Open callback has run.
func (q *Queue) ReleaseDelayed() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, p := range q.packets {
		p.Delayed = false
	}
}

// Discard drops every buffered packet without invoking any stage callback
// (§4.5 Discard, used by aborts).
func (q *Queue) Discard() {
	q.mu.Lock()
	q.packets = nil
	q.mu.Unlock()
}

// Schedule marks the queue as having pending work, satisfying stage.Queue.
// The actual service-list linkage is owned by a Scheduler.
func (q *Queue) Schedule() {
	if q.sched != nil {
		q.sched.enqueue(q)
	}
}

// Bind attaches q to a Scheduler so future Schedule calls reach its
// service list. A queue not bound to any scheduler can still buffer
// packets; it simply never self-schedules.
func (q *Queue) Bind(s *Scheduler) { q.sched = s }

// MarkOpen sets OPEN, satisfying the §4.5 rule that a queue whose stage's
// Open ran (directly or via its pair) is OPEN from then on.
func (q *Queue) MarkOpen() { q.setFlag(OPEN) }

// IsOpen reports whether OPEN is set.
func (q *Queue) IsOpen() bool { return q.Flags().Has(OPEN) }

// ClearOpen clears OPEN, used by teardown (§4.5 Teardown) once Close runs.
func (q *Queue) ClearOpen() { q.clearFlag(OPEN) }

// MarkStarted sets STARTED, satisfying the §4.5 rule that a stage's Start
// runs at most once per pair.
func (q *Queue) MarkStarted() { q.setFlag(STARTED) }

// IsStarted reports whether STARTED is set.
func (q *Queue) IsStarted() bool { return q.Flags().Has(STARTED) }

// SetOwner attaches the hosting connection (or any owner value) to q.
// Set once, at construction, by the pipeline builder.
func (q *Queue) SetOwner(v interface{}) { q.owner = v }

// Owner returns the value attached via SetOwner, satisfying stage.Queue.
func (q *Queue) Owner() interface{} { return q.owner }

// SetData stashes stage-private scratch state on q (e.g. a chunk-decoder's
// partial line buffer), satisfying stage.Queue. Unlike the shared *Stage
// descriptor, this is per-queue and safe for one stage instance to use
// across repeated Incoming/Outgoing calls for the same request.
func (q *Queue) SetData(v interface{}) {
	q.mu.Lock()
	q.data = v
	q.mu.Unlock()
}

// Data returns the value stashed via SetData, satisfying stage.Queue.
func (q *Queue) Data() interface{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.data
}
