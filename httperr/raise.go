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

package httperr

import (
	"fmt"

	"github.com/AlonsoVanessa/http/conn"
	"github.com/AlonsoVanessa/http/httpstatus"

	liberr "github.com/AlonsoVanessa/http/errors"
)

// Flags carries the status code in its low bits plus the orthogonal ABORT
// and CLOSE bits (§4.7).
type Flags uint32

const (
	statusMask Flags = 0x0FFF

	// ABORT tears the connection down immediately and marks it severed.
	ABORT Flags = 1 << 12
	// CLOSE forces keepAliveCount to -1 without a hard abort.
	CLOSE Flags = 1 << 13
)

// Status extracts the masked status code, or httpstatus.InternalServerError
// if none was set (§4.7 step 1).
func (f Flags) Status() httpstatus.Code {
	if s := int(f & statusMask); s != 0 {
		return httpstatus.Code(s)
	}
	return httpstatus.InternalServerError
}

func (f Flags) has(bit Flags) bool { return f&bit != 0 }

// responder is the minimal seam Raise needs to emit a response when
// headers have not yet been sent, satisfied by the TX context once the
// pipeline package wires a concrete implementation in.
type responder interface {
	HeadersSent() bool
	Redirect(location string) error
	WriteErrorBody(status httpstatus.Code, message string) error
}

// Raise is httpError(conn, flags, fmt, ...): the single entry point for
// terminating a request, gracefully or not, whether or not headers have
// already been emitted.
func Raise(c *conn.Connection, flags Flags, format string, args ...interface{}) liberr.Error {
	return raise(c, flags, nil, format, args...)
}

// RaiseWithResponder is Raise, additionally given the TX responder seam so
// step 7's redirect-or-canned-body behavior can run. Callers without a TX
// context yet (e.g. a parse-time abort) use Raise.
func RaiseWithResponder(c *conn.Connection, flags Flags, r responder, format string, args ...interface{}) liberr.Error {
	return raise(c, flags, r, format, args...)
}

func raise(c *conn.Connection, flags Flags, r responder, format string, args ...interface{}) liberr.Error {
	status := flags.Status()
	msg := fmt.Sprintf(format, args...)

	abort := flags.has(ABORT)
	closeConn := flags.has(CLOSE)

	headersSent := r != nil && r.HeadersSent()

	if abort || headersSent {
		already := c.ApplyError(msg, abort, closeConn)
		if already {
			return codeFor(status).Error(nil)
		}

		_ = c.Disconnect()
		c.Notify(conn.EventIOError, status)
		return codeFor(status).Error(nil)
	}

	already := c.ApplyError(msg, abort, closeConn)
	if already {
		return codeFor(status).Error(nil)
	}

	c.Notify(conn.EventIOError, status)

	if c.IsServerSide() && r != nil {
		if loc, ok := errorDocument(c, int(status)); ok {
			_ = r.Redirect(loc)
		} else {
			_ = r.WriteErrorBody(status, msg)
		}
	}

	c.MarkResponded()

	return codeFor(status).Error(nil)
}

// errorDocument consults the connection's RX route, if any, for a
// configured error document (§4.7 step 7).
func errorDocument(c *conn.Connection, status int) (string, bool) {
	if c.RX == nil || c.RX.Route == nil {
		return "", false
	}
	return c.RX.Route.ErrorDocument(status)
}

// codeFor maps an httpstatus.Code to the nearest §7 taxonomy member, for
// callers that want to liberr.IsCode against a stable category rather
// than the numeric wire status.
func codeFor(status httpstatus.Code) liberr.CodeError {
	switch {
	case status == httpstatus.Unauthorized || status == httpstatus.Forbidden:
		return CodeAuthRequired
	case status == httpstatus.NotFound:
		return CodeNotFound
	case status == httpstatus.RequestTimeout:
		return CodeTimeoutRequest
	case status == httpstatus.PayloadTooLarge || status == httpstatus.URITooLong:
		return CodePayloadTooLarge
	case status == httpstatus.BadGateway || status == httpstatus.GatewayTimeout:
		return CodeUpstreamFailure
	case status == httpstatus.CommsError || status == httpstatus.GeneralClientError:
		return CodeCommsSevered
	case status.IsError() && status < 500:
		return CodeBadRequest
	default:
		return CodeInternal
	}
}

// GetError returns the connection's errorMsg if set; else the status
// phrase if the state has advanced to conn.First or beyond; else "".
// (httpGetError, §4.7.)
func GetError(c *conn.Connection) string {
	if msg := c.ErrorMsg(); msg != "" {
		return msg
	}
	if c.State().AtLeast(conn.First) && c.RX != nil {
		return httpstatus.Phrase(c.RX.Status)
	}
	return ""
}
