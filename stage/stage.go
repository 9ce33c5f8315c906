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

// Package stage implements the polymorphic pipeline element: a capability
// record of optional callbacks rather than a class hierarchy, per the
// design notes that reject deep inheritance for this component.
//
// A Stage never imports queue or conn: every callback is typed against a
// small interface declared here, and concrete queues/connections satisfy
// those interfaces structurally. This keeps Stage a true leaf relative to
// the rest of the pipeline, the way the teacher keeps certificates/tlsversion
// a leaf relative to httpserver.
package stage

// Role classifies a Stage's position in a TX pipeline.
type Role uint8

const (
	// RoleHandler originates the response body (or consumes a request body).
	RoleHandler Role = iota
	// RoleFilter transforms packets at a non-terminal position.
	RoleFilter
	// RoleConnector performs transport I/O; terminal in a TX pipeline.
	RoleConnector
)

func (r Role) String() string {
	switch r {
	case RoleHandler:
		return "handler"
	case RoleFilter:
		return "filter"
	case RoleConnector:
		return "connector"
	default:
		return "unknown"
	}
}

// Direction distinguishes the request-side (RX) and response-side (TX)
// queue chains a Stage may participate in.
type Direction uint8

const (
	RX Direction = iota
	TX
)

func (d Direction) String() string {
	if d == RX {
		return "rx"
	}
	return "tx"
}

// MatchContext is the minimal view of a route/connection a Stage's match
// callback needs to decide membership in a pipeline.
type MatchContext interface {
	// Extension returns the file extension associated with the current
	// request, or "" if none applies.
	Extension() string
	// Dir is the pipeline direction being assembled.
	Dir() Direction
}

// Queue is the minimal view of a queue a Stage callback needs. Concrete
// queues (package queue) implement this structurally.
type Queue interface {
	// Pair returns the sibling queue in the opposite direction sharing this
	// stage, or nil if none has been paired yet.
	Pair() Queue
	// Enqueue appends a packet payload for this queue's owner to deliver
	// downstream.
	Enqueue(payload []byte, header bool)
	// Schedule marks the queue as having pending work.
	Schedule()
	// Owner returns the value the pipeline builder attached this queue
	// to (in practice, the *conn.Connection hosting it), or nil.
	Owner() interface{}
	// Data returns stage-private scratch state previously stashed with
	// SetData, or nil. Distinct from Owner: Data is scoped to one stage's
	// use of one queue across repeated calls (e.g. a partial chunk-size
	// line), not the connection itself.
	Data() interface{}
	// SetData stashes stage-private scratch state on this queue.
	SetData(v interface{})
}

// MatchFunc decides whether a Stage participates in a given pipeline.
type MatchFunc func(ctx MatchContext) bool

// OpenFunc runs once per stage/pair the first time a queue using this
// stage becomes active.
type OpenFunc func(q Queue) error

// CloseFunc runs at most once per opened queue, strictly after its final
// service.
type CloseFunc func(q Queue)

// StartFunc runs once per stage/pair when a request begins processing.
type StartFunc func(q Queue) error

// ReadyFunc runs when the handler may begin producing output.
type ReadyFunc func(q Queue)

// WritableFunc is invoked to pump a handler for more output bytes.
type WritableFunc func(q Queue) error

// IncomingFunc processes bytes arriving on an RX queue.
type IncomingFunc func(q Queue, payload []byte) error

// OutgoingFunc processes bytes departing on a TX queue.
type OutgoingFunc func(q Queue, payload []byte) error

// ProcessFunc is the stage-default service routine, used when neither
// Incoming nor Outgoing applies to the queue's direction.
type ProcessFunc func(q Queue) error

// Extensions maps a lowercase file extension (without the leading dot) to
// membership in this stage's default match rule, used only when Match is
// nil.
type Extensions map[string]bool

// Stage is a capability record: any callback may be nil. Name is the
// lowercase registry key (§4.3); Role classifies TX terminal position.
type Stage struct {
	Name string
	Role Role

	Extensions Extensions

	Match    MatchFunc
	Open     OpenFunc
	Close    CloseFunc
	Start    StartFunc
	Ready    ReadyFunc
	Writable WritableFunc
	Incoming IncomingFunc
	Outgoing OutgoingFunc
	Process  ProcessFunc
}

// Matches implements the §4.4 match rule: an explicit Match callback wins;
// otherwise Extensions membership decides when the context carries a file
// extension; otherwise the stage matches unconditionally.
func (s *Stage) Matches(ctx MatchContext) bool {
	if s == nil {
		return false
	}
	if s.Match != nil {
		return s.Match(ctx)
	}
	if len(s.Extensions) > 0 {
		if ext := ctx.Extension(); ext != "" {
			return s.Extensions[ext]
		}
	}
	return true
}
