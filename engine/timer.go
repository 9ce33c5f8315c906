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
	"context"
	"time"

	"github.com/AlonsoVanessa/http/conn"
	"github.com/AlonsoVanessa/http/httperr"
	"github.com/AlonsoVanessa/http/httpstatus"
)

// StartMaintenance launches the single §4.8 maintenance timer goroutine,
// ticking once per second, bound to ctx. It is called once from New, so
// any later call is a no-op, even after the first timer has stopped
// (ErrorAlreadyStarted is never surfaced here since sync.Once swallows
// the later attempts silently, matching the "single timer" invariant
// being structural rather than user-facing).
func (s *Service) StartMaintenance(ctx context.Context) {
	s.timerOnce.Do(func() {
		s.wg.Add(1)
		go s.runMaintenance(ctx)
	})
}

func (s *Service) runMaintenance(ctx context.Context) {
	defer s.wg.Done()

	t := time.NewTicker(maintenanceInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			s.tick(time.Now(), true)
			return
		case now := <-t.C:
			s.tick(now, s.IsShuttingDown())
		}
	}
}

// tick is one maintenance pass (§4.8): refresh the cached Date string,
// then visit every registered connection and decide whether it has
// exceeded one of its configured timeouts (or the process is shutting
// down, which treats every still-open connection as due for closure).
func (s *Service) tick(now time.Time, shuttingDown bool) {
	s.date.Store(now.UTC().Format(httpDateLayout))

	s.conns.Walk(func(seq uint64, v interface{}) bool {
		c, ok := v.(*conn.Connection)
		if !ok || c == nil {
			return true
		}
		s.checkTimeout(c, now, shuttingDown)
		return true
	})
}

// checkTimeout applies the four §4.8 timeout reasons in priority order
// and, when one applies, drives the connection through the same
// error/abort protocol a request-time failure would use, so a timed-out
// connection is indistinguishable downstream from any other aborted one.
func (s *Service) checkTimeout(c *conn.Connection, now time.Time, shuttingDown bool) {
	if c.IsComplete() {
		return
	}

	lim := c.Limits()
	idle := now.Sub(c.LastActivity())

	var (
		reason string
		status httpstatus.Code
	)

	st := c.State()

	switch {
	case shuttingDown:
		reason, status = "shutdown", httpstatus.ServiceUnavailable

	case lim.RequestParseTimeout > 0 && c.IsServerSide() && conn.Connected.Before(st) && st.Before(conn.Parsed) && idle > lim.RequestParseTimeout:
		reason, status = "parse timeout", httpstatus.RequestTimeout

	case lim.InactivityTimeout > 0 && idle > lim.InactivityTimeout:
		reason, status = "inactivity timeout", httpstatus.RequestTimeout

	case lim.RequestTimeout > 0 && st.AtLeast(conn.First) && now.Sub(c.Started()) > lim.RequestTimeout:
		reason, status = "request timeout", httpstatus.RequestTimeout

	default:
		return
	}

	_ = httperr.Raise(c, httperr.Flags(status)|httperr.ABORT, "%s", reason)
}
