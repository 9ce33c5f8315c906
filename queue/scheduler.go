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

import "sync"

// Scheduler is the per-connection global service list of queues with
// pending work (§3 Queue invariant: a queue is in the service list iff it
// has pending work and is not already being serviced).
type Scheduler struct {
	mu   sync.Mutex
	head *Queue
	tail *Queue
}

// NewScheduler returns an empty service schedule.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Track binds q to this scheduler so q.Schedule() reaches this list.
func (s *Scheduler) Track(q *Queue) {
	if q != nil {
		q.Bind(s)
	}
}

func (s *Scheduler) enqueue(q *Queue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q.scheduled {
		return
	}

	q.scheduled = true
	q.schedulePrev = s.tail
	q.scheduleNext = nil

	if s.tail != nil {
		s.tail.scheduleNext = q
	} else {
		s.head = q
	}
	s.tail = q
}

func (s *Scheduler) dequeue() *Queue {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.head
	if q == nil {
		return nil
	}

	s.head = q.scheduleNext
	if s.head != nil {
		s.head.schedulePrev = nil
	} else {
		s.tail = nil
	}

	q.scheduleNext = nil
	q.schedulePrev = nil
	q.scheduled = false

	return q
}

// Empty reports whether the schedule currently holds no queue.
func (s *Scheduler) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.head == nil
}

// Service is the callback a Drain invokes per scheduled queue: it runs the
// owning stage's service routine and returns nothing; Drain itself checks
// q.Flags().Has(RESERVICE) afterwards to decide whether to service q again.
type Service func(q *Queue)

// Drain runs service against every queue with pending work until the
// schedule is empty or isComplete reports true, implementing
// httpServiceQueues (§4.5): a queue already SERVICING when popped again
// (a reentrant schedule) is marked RESERVICE instead of serviced twice;
// service clears SERVICING afterward and, if RESERVICE was set meanwhile,
// re-enqueues the queue.
func (s *Scheduler) Drain(service Service, isComplete func() bool) {
	for {
		if isComplete != nil && isComplete() {
			return
		}

		q := s.dequeue()
		if q == nil {
			return
		}

		if q.Flags().Has(SERVICING) {
			q.setFlag(RESERVICE)
			continue
		}

		q.setFlag(SERVICING)
		service(q)
		q.clearFlag(SERVICING)

		if q.Flags().Has(RESERVICE) {
			q.clearFlag(RESERVICE)
			s.enqueue(q)
		}
	}
}
