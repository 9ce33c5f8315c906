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

// Chain is the ordered, singly-owned list of queues for one pipeline
// direction (RX or TX). In chains the pipeline builder assembles, Head is a
// sentinel: the first real queue (where application bytes are submitted,
// "writeq"/"readq") is Head.Next.
type Chain struct {
	Head *Queue
	Tail *Queue
}

// NewChain returns an empty chain; the first queue appended becomes Head.
func NewChain() *Chain {
	return &Chain{}
}

// Append adds q to the tail of the chain, linking Next/Prev.
func (c *Chain) Append(q *Queue) {
	if q == nil {
		return
	}

	if c.Head == nil {
		c.Head = q
		c.Tail = q
		return
	}

	c.Tail.next = q
	q.prev = c.Tail
	c.Tail = q
}

// Next returns the queue following q in its chain, or nil at the tail.
func (q *Queue) Next() *Queue { return q.next }

// Prev returns the queue preceding q in its chain, or nil at the head.
func (q *Queue) Prev() *Queue { return q.prev }

// Walk visits every queue in the chain from head to tail. fct returning
// false stops the walk early.
func (c *Chain) Walk(fct func(q *Queue) bool) {
	for q := c.Head; q != nil; q = q.next {
		if !fct(q) {
			return
		}
	}
}

// WalkReverse visits every queue in the chain from tail to head.
func (c *Chain) WalkReverse(fct func(q *Queue) bool) {
	for q := c.Tail; q != nil; q = q.prev {
		if !fct(q) {
			return
		}
	}
}

// First returns the first queue in the chain (pipeline order), or nil.
func (c *Chain) First() *Queue { return c.Head }

// Last returns the last queue in the chain, or nil.
func (c *Chain) Last() *Queue { return c.Tail }
