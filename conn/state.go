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

// Package conn implements the per-connection state machine, its RX/TX
// contexts, and the collaborator seams (Transport, Parser, Notifier) the
// core delegates I/O and policy decisions to.
package conn

// State is one point in the connection lifecycle, strictly ordered.
type State uint8

const (
	Begin State = iota
	Connected
	First
	Parsed
	Content
	Ready
	Running
	Finalized
	Complete
)

func (s State) String() string {
	switch s {
	case Begin:
		return "begin"
	case Connected:
		return "connected"
	case First:
		return "first"
	case Parsed:
		return "parsed"
	case Content:
		return "content"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Finalized:
		return "finalized"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Before reports whether s precedes o in the lifecycle ordering.
func (s State) Before(o State) bool { return s < o }

// AtLeast reports whether s has reached or passed o.
func (s State) AtLeast(o State) bool { return s >= o }
