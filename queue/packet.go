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

// Package queue implements the unit of buffered data (Packet) and the
// linked bidirectional pipeline that holds it (Queue).
//
// The design notes steer a doubly-linked, C-manual-memory queue chain
// toward either an arena of stable indices or a reference-counted node
// with explicit, non-owning back-links. Go's garbage collector removes
// the motivation for the arena (there is no manual free to race against),
// so a Queue here is an ordinary pointer-linked node: the chain links
// (Next/Prev) are the owning direction, Pair is always non-owning, and
// nothing in this package ever frees a node explicitly.
package queue

// Packet is the unit of data traversing a Queue. Header tells a connector
// whether the packet is header metadata or body; Payload holds the
// packet's bytes in either case.
type Packet struct {
	// Header marks this packet as status-line/header metadata rather than
	// a body payload.
	Header bool

	// Payload is the packet's byte content.
	Payload []byte

	// Delayed marks a packet enqueued before its queue's stage opened; the
	// scheduler must not service it until every open callback has run
	// (§4.4 step 6).
	Delayed bool
}

// Len returns the number of bytes carried by the packet.
func (p *Packet) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Payload)
}
