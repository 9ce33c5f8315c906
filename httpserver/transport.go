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
	"net"
	"sync"
)

// netTransport adapts a net.Conn into conn.Transport (§6): Recv never
// blocks, backed by a single reader goroutine per connection that feeds a
// buffered channel, the same shape the teacher uses wherever a blocking
// stdlib API is wrapped to satisfy a non-blocking interface.
type netTransport struct {
	c      net.Conn
	secure bool

	mu      sync.Mutex
	pending []byte
	rx      chan []byte

	closeOnce sync.Once
}

// newTransport starts the background reader and returns the adapter.
func newTransport(c net.Conn, secure bool) *netTransport {
	t := &netTransport{
		c:      c,
		secure: secure,
		rx:     make(chan []byte, 64),
	}
	go t.readLoop()
	return t
}

func (t *netTransport) readLoop() {
	buf := make([]byte, 32*1024)
	for {
		n, err := t.c.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			t.rx <- chunk
		}
		if err != nil {
			close(t.rx)
			return
		}
	}
}

// Send writes buf to the connection. net.Conn.Write blocks until the
// kernel accepts the bytes or the deadline (if any) expires; no deadline
// is set here, so this is a best-effort non-blocking seam rather than a
// hardened async writer (§6 treats the transport as an external
// collaborator, not core scope).
func (t *netTransport) Send(buf []byte) (int, error) {
	return t.c.Write(buf)
}

// Recv drains one buffered chunk into buf without blocking, carrying any
// remainder across calls in pending.
func (t *netTransport) Recv(buf []byte) (n int, eof bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.pending) == 0 {
		select {
		case chunk, ok := <-t.rx:
			if !ok {
				return 0, true, nil
			}
			t.pending = chunk
		default:
			return 0, false, nil
		}
	}

	n = copy(buf, t.pending)
	t.pending = t.pending[n:]
	return n, false, nil
}

func (t *netTransport) Disconnect() error {
	var err error
	t.closeOnce.Do(func() {
		err = t.c.Close()
	})
	return err
}

func (t *netTransport) Secure() bool { return t.secure }
