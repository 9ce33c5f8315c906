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

package httpserver

import (
	"fmt"
	"strings"

	"github.com/AlonsoVanessa/http/conn"
	"github.com/AlonsoVanessa/http/httpstatus"
)

// responder adapts a conn.Connection's TX context into the seam httperr
// needs for §4.7 step 7: a redirect to a configured error document, or a
// canned error body, whichever the route's error-document lookup decides.
// It is the concrete implementation the package-private httperr.responder
// interface describes but never constructs itself.
type responder struct {
	c *conn.Connection
}

func newResponder(c *conn.Connection) responder { return responder{c: c} }

// HeadersSent reports whether this connection's TX side already created
// headers, satisfying httperr's responder seam.
func (r responder) HeadersSent() bool {
	return r.c.TX != nil && r.c.TX.HeadersCreated
}

// Redirect writes a 301 response pointing at location.
func (r responder) Redirect(location string) error {
	return r.writeResponse(httpstatus.MovedPermanently, "", map[string]string{"Location": location})
}

// WriteErrorBody writes a minimal canned HTML body for status.
func (r responder) WriteErrorBody(status httpstatus.Code, message string) error {
	body := fmt.Sprintf("<html><body><h1>%d %s</h1><p>%s</p></body></html>",
		int(status), httpstatus.Phrase(status), message)
	return r.writeResponse(status, body, map[string]string{"Content-Type": "text/html; charset=utf-8"})
}

// writeResponse formats a complete HTTP/1.1 status line, headers, and body
// and submits it directly to the TX write queue. The connection is closing
// either way (§4.7 reaches this seam only once an abort or forced close has
// already been decided), so every response here is Connection: close.
func (r responder) writeResponse(status httpstatus.Code, body string, headers map[string]string) error {
	tx := r.c.TX
	if tx == nil || tx.WriteQ == nil {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", int(status), httpstatus.Phrase(status))
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(body))
	b.WriteString("Connection: close\r\n")
	for k, v := range headers {
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	b.WriteString("\r\n")
	b.WriteString(body)

	tx.WriteQ.Enqueue([]byte(b.String()), true)
	tx.WriteQ.Schedule()
	tx.HeadersCreated = true

	return nil
}
