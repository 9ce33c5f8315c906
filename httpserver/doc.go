/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

// Package httpserver binds one or more raw TCP/TLS listeners to an
// engine.Service.
//
// # Overview
//
// The engine package owns the protocol: connection state machine, queue
// pipelines, stages, and the error/abort protocol. It never opens a socket
// itself. httpserver is the thin collaborator that does: a ServerConfig
// describes one listener's bind address, optional TLS vendor spec, and
// per-connection timeout overrides; a Server accepts raw net.Conn values,
// wraps each in the conn.Transport adapter the engine expects, hands it to
// engine.Service.Accept, and pumps bytes through a conn.Parser and the
// engine's pipeline builder until the connection reaches conn.Complete.
//
// # Configuration
//
// ServerConfig is validated with github.com/go-playground/validator/v10,
// the same library the rest of this module uses for struct-tag validation
// (limits.Limits, authseam backend specs). TLS is described declaratively
// via sslvendor.Spec and only realized into a *tls.Config at Listen time,
// so a misconfigured vendor fails at bind rather than silently serving
// plaintext.
//
// # Usage
//
//	svc := engine.New(engine.Config{Router: myRouter, Logger: myLogger})
//
//	cfg := httpserver.ServerConfig{
//	    Name:   "api",
//	    Listen: "0.0.0.0:8443",
//	    TLS:    sslvendor.Default(certs),
//	}
//	if err := cfg.Validate(); err != nil {
//	    panic(err)
//	}
//
//	srv := cfg.Server()
//	if err := srv.Listen(svc, myParser); err != nil {
//	    panic(err)
//	}
//	srv.WaitNotify()
//
// Multiple listeners sharing one Service are driven together with the
// package-level ListenWaitNotify/Listen/Restart/Shutdown/IsRunning helpers.
package httpserver
