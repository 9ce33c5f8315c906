/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
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
 */

package httpserver

import (
	"sync"

	"github.com/AlonsoVanessa/http/conn"
	"github.com/AlonsoVanessa/http/engine"

	liberr "github.com/AlonsoVanessa/http/errors"
)

// ListenWaitNotify starts every listener in allSrv against svc/parser, then
// blocks until all of them have received a shutdown signal.
func ListenWaitNotify(svc *engine.Service, parser conn.Parser, allSrv ...Server) {
	var wg sync.WaitGroup
	wg.Add(len(allSrv))

	for _, s := range allSrv {
		go func(serv Server) {
			defer wg.Done()
			_ = serv.Listen(svc, parser)
			serv.WaitNotify()
		}(s)
	}

	wg.Wait()
}

// Listen starts every listener in allSrv against svc/parser without
// blocking; the first error encountered is returned, if any.
func Listen(svc *engine.Service, parser conn.Parser, allSrv ...Server) liberr.Error {
	var first liberr.Error
	for _, s := range allSrv {
		if err := s.Listen(svc, parser); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Restart rebinds every listener in allSrv.
func Restart(svc *engine.Service, parser conn.Parser, allSrv ...Server) liberr.Error {
	var first liberr.Error
	for _, s := range allSrv {
		if err := s.Restart(svc, parser); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Shutdown stops every listener in allSrv.
func Shutdown(allSrv ...Server) {
	for _, s := range allSrv {
		s.Shutdown()
	}
}

// IsRunning reports whether at least one listener in allSrv is running.
func IsRunning(allSrv ...Server) bool {
	for _, s := range allSrv {
		if s.IsRunning() {
			return true
		}
	}

	return false
}
