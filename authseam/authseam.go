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

// Package authseam implements the auth backend collaborator seam (§6) as
// a runtime registry rather than a fixed compile-time set, resolving §9's
// open question about the legacy validator's compile-time-only backends.
package authseam

import (
	"context"
	"strings"
	"sync"

	libctx "github.com/AlonsoVanessa/http/context"

	liberr "github.com/AlonsoVanessa/http/errors"
)

const (
	ErrorNoBackend liberr.CodeError = iota + liberr.MinPkgAuth
)

func init() {
	if !liberr.ExistInMapMessage(ErrorNoBackend) {
		liberr.RegisterIdFctMessage(ErrorNoBackend, getMessage)
	}
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorNoBackend:
		return "Required authorization backend method is not enabled or configured"
	default:
		return liberr.NullMessage
	}
}

// Backend is the collaborator exposing the two auth operations (§6).
type Backend interface {
	// ValidateCred checks user/password against requiredPass in realm.
	ValidateCred(realm, user, password, requiredPass string) (ok bool, msg string)
	// GetPassword returns the stored password for user in realm, if the
	// backend can look one up.
	GetPassword(realm, user string) (password string, ok bool)
}

// Registry is the runtime-registered set of named backends plus the name
// of the currently active one.
type Registry struct {
	mu     sync.RWMutex
	active string
	m      libctx.Config[string]
}

// NewRegistry returns an empty Registry with no active backend.
func NewRegistry(ctx context.Context) *Registry {
	return &Registry{m: libctx.New[string](ctx)}
}

func key(name string) string { return strings.ToLower(name) }

// Register adds or replaces the backend under name.
func (r *Registry) Register(name string, b Backend) {
	if name == "" || b == nil {
		return
	}
	r.m.Store(key(name), b)
}

// Activate selects the backend used by ValidateCred/GetPassword.
func (r *Registry) Activate(name string) {
	r.mu.Lock()
	r.active = key(name)
	r.mu.Unlock()
}

// Active returns the currently activated backend name.
func (r *Registry) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

func (r *Registry) lookup(name string) (Backend, bool) {
	v, ok := r.m.Load(key(name))
	if !ok {
		return nil, false
	}
	b, ok := v.(Backend)
	return b, ok
}

// ValidateCred delegates to the active backend. If no backend is
// enabled, it fails with the registered ErrorNoBackend message (§6).
func (r *Registry) ValidateCred(realm, user, password, requiredPass string) (bool, string) {
	name := r.Active()
	if name == "" {
		return false, ErrorNoBackend.Error(nil).Error()
	}

	b, ok := r.lookup(name)
	if !ok {
		return false, ErrorNoBackend.Error(nil).Error()
	}

	return b.ValidateCred(realm, user, password, requiredPass)
}

// GetPassword delegates to the active backend, if any.
func (r *Registry) GetPassword(realm, user string) (string, bool) {
	name := r.Active()
	if name == "" {
		return "", false
	}

	b, ok := r.lookup(name)
	if !ok {
		return "", false
	}

	return b.GetPassword(realm, user)
}
