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

// Package route declares the Route descriptor and the Router collaborator
// seam (§6). It deliberately implements no URL matching — the
// specification's Non-goals exclude a full router configuration language;
// this package is the descriptor type and the seam only.
package route

// Route names the stages and policies matched for one request.
type Route struct {
	Name string

	// Handler is the stage.Registry key for the TX handler; empty selects
	// the builder's default (passhandler).
	Handler string

	// InputStages and OutputStages are ordered lowercase stage.Registry
	// keys, assembled into the RX and TX pipelines respectively (§4.4).
	InputStages  []string
	OutputStages []string

	// Connector overrides the default connector selection when non-empty.
	Connector string

	// ErrorDocuments maps an HTTP status code to a URI the error protocol
	// redirects to instead of emitting a canned HTML body (§4.7 step 7).
	ErrorDocuments map[int]string
}

// ErrorDocument returns the configured error document URI for code, and
// whether one is configured.
func (r *Route) ErrorDocument(code int) (string, bool) {
	if r == nil || r.ErrorDocuments == nil {
		return "", false
	}
	uri, ok := r.ErrorDocuments[code]
	return uri, ok
}

// RequestView is the minimal read-only view of a parsed request a Router
// needs to select a Route. Concrete RX contexts (package conn) implement
// it structurally, so this package never imports conn.
type RequestView interface {
	Method() string
	URI() string
	Header(name string) string
}

// Router yields a Route descriptor for a parsed request.
type Router interface {
	Route(req RequestView) (*Route, error)
}
