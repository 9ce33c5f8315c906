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

package stage

import (
	"context"
	"strings"

	libctx "github.com/AlonsoVanessa/http/context"
	liberr "github.com/AlonsoVanessa/http/errors"
)

const (
	ErrorRegistryNotFound liberr.CodeError = iota + liberr.MinPkgStage
	ErrorRegistryInvalidEntry
)

func init() {
	if !liberr.ExistInMapMessage(ErrorRegistryNotFound) {
		liberr.RegisterIdFctMessage(ErrorRegistryNotFound, getMessage)
	}
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorRegistryNotFound:
		return "stage: no stage registered under this name"
	case ErrorRegistryInvalidEntry:
		return "stage: registry entry is not a *Stage"
	default:
		return liberr.NullMessage
	}
}

// Registry maps a lowercase stage name to its descriptor with O(1)
// expected lookup, backed by the same generic registry the teacher uses
// to key its server pool by bind address.
type Registry interface {
	Register(s *Stage)
	Lookup(name string) (*Stage, liberr.Error)
	Has(name string) bool
	Delete(name string)
	Walk(fct func(name string, s *Stage) bool)
	Len() int
}

type registry struct {
	m libctx.Config[string]
}

// NewRegistry returns an empty Registry. Built-in stages are registered by
// the engine during service initialization (§4.3), not here.
func NewRegistry(ctx context.Context) Registry {
	return &registry{m: libctx.New[string](ctx)}
}

func key(name string) string {
	return strings.ToLower(name)
}

func (r *registry) Register(s *Stage) {
	if s == nil || s.Name == "" {
		return
	}
	r.m.Store(key(s.Name), s)
}

func (r *registry) Lookup(name string) (*Stage, liberr.Error) {
	v, ok := r.m.Load(key(name))
	if !ok {
		return nil, ErrorRegistryNotFound.Error(nil)
	}

	s, ok := v.(*Stage)
	if !ok {
		return nil, ErrorRegistryInvalidEntry.Error(nil)
	}

	return s, nil
}

func (r *registry) Has(name string) bool {
	_, err := r.Lookup(name)
	return err == nil
}

func (r *registry) Delete(name string) {
	r.m.Delete(key(name))
}

func (r *registry) Walk(fct func(name string, s *Stage) bool) {
	if fct == nil {
		return
	}
	r.m.Walk(func(k string, val interface{}) bool {
		s, ok := val.(*Stage)
		if !ok {
			return true
		}
		return fct(k, s)
	})
}

func (r *registry) Len() int {
	var n int
	r.Walk(func(string, *Stage) bool {
		n++
		return true
	})
	return n
}
