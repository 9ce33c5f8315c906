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

package engine

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/AlonsoVanessa/http/conn"
	"github.com/AlonsoVanessa/http/pipeline"
	"github.com/AlonsoVanessa/http/stage"
)

// registerBuiltins populates r with the stages §4.3 requires to exist
// before any connection is processed. Every callback recovers its
// *conn.Connection via q.Owner(), the way the pipeline builder wires it
// (pipeline.newQueue), since a *stage.Stage descriptor is shared across
// every connection that matches it and cannot close over one connection.
func registerBuiltins(r stage.Registry) {
	r.Register(netConnector())
	r.Register(sendConnector())
	r.Register(rangeFilter())
	r.Register(chunkFilter())
	r.Register(uploadFilter())
	r.Register(webSocketFilter())
	r.Register(passHandler())
	r.Register(fileHandler())
	r.Register(cacheHandler())
	r.Register(actionHandler())
	r.Register(clientHandler())
}

func ownerConn(q stage.Queue) *conn.Connection {
	c, _ := q.Owner().(*conn.Connection)
	return c
}

// connectorOutgoing is netConnector's and sendConnector's shared Outgoing
// routine: write payload to the transport, and treat the nil-payload
// packet Finalize enqueues (§4.4 step 8, pipeline.Builder.Finalize) as
// the end-of-stream marker that retires the connection. A handler that
// wants to flush a genuine zero-length write passes a non-nil empty
// slice instead, so the two never collide.
func connectorOutgoing(q stage.Queue, payload []byte) error {
	c := ownerConn(q)
	if c == nil {
		return nil
	}
	if payload == nil {
		c.Complete()
		return nil
	}
	_, err := c.Transport().Send(payload)
	return err
}

// netConnector is the default TX terminal stage: a plain non-blocking
// write to the connection's transport (§4.4 step 3 default case).
func netConnector() *stage.Stage {
	return &stage.Stage{
		Name:     pipeline.DefaultConnector,
		Role:     stage.RoleConnector,
		Outgoing: connectorOutgoing,
	}
}

// sendConnector is the fast path selected for an unfiltered GET served by
// fileHandler over a plain-text connection (§4.4 step 3). A true
// zero-copy sendfile(2)-style transfer is platform-specific and out of
// scope here; it behaves like netConnector until that seam is built.
func sendConnector() *stage.Stage {
	return &stage.Stage{
		Name:     pipeline.SendConnector,
		Role:     stage.RoleConnector,
		Outgoing: connectorOutgoing,
	}
}

// rangeFilter matches on the file extensions it is configured for via the
// route and is otherwise a pass-through: true byte-range slicing needs the
// request's Range header, which the builder's minimal stage.MatchContext
// (extension + direction only) does not carry. Kept as a named, present
// stage so routes can select it; the byte-range arithmetic itself belongs
// to a Router/connector collaborator richer than this seam (documented in
// DESIGN.md rather than guessed at here).
func rangeFilter() *stage.Stage {
	return &stage.Stage{
		Name: "rangefilter",
		Role: stage.RoleFilter,
	}
}

// chunkFilter implements HTTP/1.1 chunked transfer-coding (§8 scenario 2):
// Outgoing frames each payload as one chunk; Incoming decodes chunks back
// into plain bytes, buffering a partial chunk-size line across calls in
// the queue's per-instance Data scratch slot.
func chunkFilter() *stage.Stage {
	return &stage.Stage{
		Name: "chunkfilter",
		Role: stage.RoleFilter,
		Outgoing: func(q stage.Queue, payload []byte) error {
			if payload == nil {
				q.Enqueue([]byte("0\r\n\r\n"), false)
				q.Enqueue(nil, false)
				return nil
			}
			framed := fmt.Sprintf("%x\r\n", len(payload))
			q.Enqueue(append([]byte(framed), append(payload, '\r', '\n')...), false)
			return nil
		},
		Incoming: func(q stage.Queue, payload []byte) error {
			buf, _ := q.Data().([]byte)
			buf = append(buf, payload...)

			for {
				i := bytes.Index(buf, []byte("\r\n"))
				if i < 0 {
					break
				}
				size, err := strconv.ParseInt(string(buf[:i]), 16, 64)
				if err != nil {
					q.SetData(nil)
					return err
				}
				rest := buf[i+2:]
				if size == 0 {
					q.SetData(nil)
					return nil
				}
				if int64(len(rest)) < size+2 {
					break
				}
				q.Enqueue(rest[:size], false)
				buf = rest[size+2:]
			}

			q.SetData(buf)
			return nil
		},
	}
}

// uploadFilter enforces the attached connection's UploadSize limit on an
// RX body as it streams through (§4.2 uploadSize, §8 boundary behaviors:
// one byte over the limit fails). It otherwise passes bytes through
// unchanged; the pipeline's default relay (pipeline.Builder.service) would
// do the same for a stage with no Incoming at all, but the limit check
// needs to observe every chunk, so it is explicit here.
func uploadFilter() *stage.Stage {
	return &stage.Stage{
		Name: "uploadfilter",
		Role: stage.RoleFilter,
		Incoming: func(q stage.Queue, payload []byte) error {
			c := ownerConn(q)
			seen, _ := q.Data().(int64)
			seen += int64(len(payload))
			q.SetData(seen)

			if c != nil && c.Limits().UploadSize > 0 && seen > c.Limits().UploadSize {
				return fmt.Errorf("upload exceeds configured limit")
			}
			q.Enqueue(payload, false)
			return nil
		},
	}
}

// webSocketFilter is registered but inert: WebSocket framing is optional
// per §4.3 and this pack supplements no RFC 6455 implementation. It is a
// named placeholder a Router may select without the registry lookup
// failing, matching the "optional" wording literally rather than omitting
// the name outright.
func webSocketFilter() *stage.Stage {
	return &stage.Stage{
		Name: "websocketfilter",
		Role: stage.RoleFilter,
	}
}

// passHandler is the default TX handler (§4.4 step 1): it originates no
// body of its own. Applications that want to produce output register
// their own handler under a route's Handler field and drive the writeq
// from their Writable callback; passHandler exists so a route naming no
// handler still assembles a valid pipeline.
func passHandler() *stage.Stage {
	return &stage.Stage{
		Name: pipeline.DefaultHandler,
		Role: stage.RoleHandler,
	}
}

// fileHandler is the handler the connector-selection rule in §4.4 step 3
// checks by name; serving the named file's bytes is the Router/transport
// collaborator's job (it is the one with filesystem access), so this
// descriptor exists to be matched against, not to open files itself.
func fileHandler() *stage.Stage {
	return &stage.Stage{
		Name: pipeline.FileHandler,
		Role: stage.RoleHandler,
	}
}

// cacheHandler is a named built-in slot for a caching responder; caching
// policy (staleness, invalidation) is a Router/application concern this
// core does not prescribe, so the stage ships with no callbacks of its
// own until an application wires one in under the same name.
func cacheHandler() *stage.Stage {
	return &stage.Stage{
		Name: "cachehandler",
		Role: stage.RoleHandler,
	}
}

// actionHandler is the named built-in slot an application registers a
// custom Writable/Ready pair under to run server-side logic (a REST
// action, an RPC dispatch); like cacheHandler it ships inert.
func actionHandler() *stage.Stage {
	return &stage.Stage{
		Name: "actionhandler",
		Role: stage.RoleHandler,
	}
}

// clientHandler is the synthetic handler used for the client role (§4.3):
// a client's "response" is the bytes its application reads back, so it
// sets neither Incoming nor Outgoing and simply leaves the assembled body
// queued on ReadQ for the caller to observe rather than consuming it.
func clientHandler() *stage.Stage {
	return &stage.Stage{
		Name: "client",
		Role: stage.RoleHandler,
	}
}
