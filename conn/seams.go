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

// Transport is the external byte-transport collaborator (§6). TLS is a
// drop-in replacement implementing the same interface.
type Transport interface {
	Disconnect() error
	// Send writes buf without blocking, returning however many bytes were
	// accepted.
	Send(buf []byte) (n int, err error)
	// Recv reads into buf without blocking; eof is true once the peer has
	// closed its write side.
	Recv(buf []byte) (n int, eof bool, err error)
	Secure() bool
}

// Parser is the external request/response line and header parser (§6). It
// populates rx incrementally as bytes arrive and reports how many bytes it
// consumed.
type Parser interface {
	Feed(rx *RXContext, data []byte) (consumed int, err error)
}

// NotifyEvent enumerates the events the core raises to the Notifier
// collaborator (§6, §9 Notifier).
type NotifyEvent uint8

const (
	// EventIOError corresponds to the (IO, ERROR) notification.
	EventIOError NotifyEvent = iota
	// EventIOWritable corresponds to the (IO, WRITABLE) notification.
	EventIOWritable
	// EventStateChange fires whenever the connection's State advances.
	EventStateChange
)

// Notifier is the external observer collaborator (§6).
type Notifier interface {
	Notify(c *Connection, ev NotifyEvent, arg interface{})
}

// NotifierFunc adapts a plain function to Notifier, the way the teacher's
// logger package adapts a function to FuncLog.
type NotifierFunc func(c *Connection, ev NotifyEvent, arg interface{})

func (f NotifierFunc) Notify(c *Connection, ev NotifyEvent, arg interface{}) {
	if f != nil {
		f(c, ev, arg)
	}
}
