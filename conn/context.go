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
	"path"
	"strings"

	"github.com/AlonsoVanessa/http/httpstatus"
	"github.com/AlonsoVanessa/http/queue"
	"github.com/AlonsoVanessa/http/route"
	"github.com/AlonsoVanessa/http/stage"
)

// RXContext is the parsed request-side state (§3 RX context).
type RXContext struct {
	Method  string
	URI     string
	Headers map[string][]string

	Route *route.Route

	Status httpstatus.Code

	RemainingContent int64
	EOF              bool
	NeedInputPipeline bool

	// Chain is the RX queue chain. InputQ is the first queue after the
	// chain's sentinel head, where raw network bytes are submitted so they
	// flow through every RX filter (chunkfilter, uploadfilter, ...) before
	// reaching the handler. ReadQ is the chain's last queue, closest to the
	// handler, where the handler observes assembled body bytes.
	Chain  *queue.Chain
	InputQ *queue.Queue
	ReadQ  *queue.Queue
}

// NewRXContext returns an empty RX context with an initialized header map.
func NewRXContext() *RXContext {
	return &RXContext{Headers: make(map[string][]string), Chain: queue.NewChain()}
}

// Header returns the first value of the named header, satisfying
// route.RequestView and stage.MatchContext's extension lookup needs.
func (rx *RXContext) Header(name string) string {
	if rx == nil {
		return ""
	}
	for k, v := range rx.Headers {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

func (rx *RXContext) AddHeader(name, value string) {
	if rx.Headers == nil {
		rx.Headers = make(map[string][]string)
	}
	rx.Headers[name] = append(rx.Headers[name], value)
}

// Extension returns the lowercase file extension of the URI path, or "".
func (rx *RXContext) Extension() string {
	if rx == nil || rx.URI == "" {
		return ""
	}
	ext := path.Ext(rx.URI)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// matchContext adapts an RXContext into a stage.MatchContext for a given
// pipeline direction.
type matchContext struct {
	rx  *RXContext
	dir stage.Direction
}

func (m matchContext) Extension() string    { return m.rx.Extension() }
func (m matchContext) Dir() stage.Direction { return m.dir }

// requestView adapts an RXContext into a route.RequestView.
type requestView struct{ rx *RXContext }

func (r requestView) Method() string         { return r.rx.Method }
func (r requestView) URI() string            { return r.rx.URI }
func (r requestView) Header(name string) string { return r.rx.Header(name) }

// RequestView returns rx as a route.RequestView.
func (rx *RXContext) RequestView() route.RequestView { return requestView{rx: rx} }

// MatchContext returns rx as a stage.MatchContext for the given direction.
func (rx *RXContext) MatchContext(dir stage.Direction) stage.MatchContext {
	return matchContext{rx: rx, dir: dir}
}

// TXContext is the response-side state (§3 TX context).
type TXContext struct {
	Status httpstatus.Code

	Handler   *stage.Stage
	Connector *stage.Stage

	// OutputPipeline is the ordered list of stages assembled for TX,
	// handler first, connector last.
	OutputPipeline []*stage.Stage

	// Chains holds both directions' queue chains, indexed by
	// stage.Direction, matching the spec's queue[2] field.
	Chains [2]*queue.Chain

	// WriteQ is the first queue after the TX chain head, where application
	// bytes are submitted. ConnectorQ is the last queue, immediately
	// before the connector.
	WriteQ     *queue.Queue
	ConnectorQ *queue.Queue

	ChunkSize int64

	HeadersCreated    bool
	Finalized         bool
	Refinalize        bool
	ConnectorComplete bool
	Sendfile          bool

	// Building is true while the pipeline builder is still assembling
	// this context. A handler that finalizes from its Open callback while
	// Building is true cannot have its end-of-stream packet delivered yet
	// (the connector queue may still be mid-construction), so the builder
	// defers it via Refinalize instead (§4.4 step 8, §8 scenario 6).
	Building bool
}

// NewTXContext returns an empty TX context with both chains initialized.
func NewTXContext() *TXContext {
	return &TXContext{Chains: [2]*queue.Chain{queue.NewChain(), queue.NewChain()}}
}

// Chain returns the queue chain for the given direction.
func (tx *TXContext) Chain(dir stage.Direction) *queue.Chain { return tx.Chains[dir] }
