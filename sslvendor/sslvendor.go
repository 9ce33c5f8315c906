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

// Package sslvendor implements the §6 "SSL vendor selection" external
// collaborator: the core state machine never touches crypto/tls directly,
// it asks a Vendor for a *tls.Config built from named ciphers, curves and a
// version floor/ceiling. The TLS implementation itself stays out of scope
// (Non-goals); this is only the plug-in seam plus the vocabulary used to
// configure whatever vendor is plugged in.
package sslvendor

import (
	"crypto/tls"

	liberr "github.com/AlonsoVanessa/http/errors"

	"github.com/AlonsoVanessa/http/certificates/cipher"
	"github.com/AlonsoVanessa/http/certificates/curves"
	"github.com/AlonsoVanessa/http/certificates/tlsversion"
)

const (
	ErrorNoCertificate liberr.CodeError = iota + liberr.MinPkgSSLVendor
	ErrorInvalidVersionRange
)

func init() {
	if !liberr.ExistInMapMessage(ErrorNoCertificate) {
		liberr.RegisterIdFctMessage(ErrorNoCertificate, getMessage)
	}
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorNoCertificate:
		return "vendor has no certificate configured"
	case ErrorInvalidVersionRange:
		return "minimum TLS version is above the maximum"
	default:
		return liberr.NullMessage
	}
}

// Vendor is the §6 seam the core engine calls when a listener needs to
// terminate TLS. Name identifies the vendor for logging/diagnostics;
// Config builds the *tls.Config to hand to the transport.
type Vendor interface {
	Name() string
	Config() (*tls.Config, liberr.Error)
}

// Spec is the declarative cipher/curve/version selection a Vendor builds
// its *tls.Config from, expressed in the teacher's parse-from-string
// vocabulary (cipher.Parse, curves.Parse, tlsversion.Parse) so operators
// can configure it the same way they configure the teacher's own TLS
// stack: by name, not by crypto/tls constant.
type Spec struct {
	Certificates []tls.Certificate
	CipherNames  []string
	CurveNames   []string
	MinVersion   string
	MaxVersion   string
}

// vendor is the default Vendor backed by a static Spec.
type vendor struct {
	name string
	spec Spec
}

// New returns a Vendor named name that builds a *tls.Config from spec.
func New(name string, spec Spec) Vendor {
	return &vendor{name: name, spec: spec}
}

func (v *vendor) Name() string { return v.name }

// Config realizes the Spec into a *tls.Config, resolving cipher and curve
// names through the teacher's Parse functions and skipping any name that
// fails to resolve (§6: unknown vendor vocabulary degrades gracefully
// rather than failing the whole listener).
func (v *vendor) Config() (*tls.Config, liberr.Error) {
	if len(v.spec.Certificates) == 0 {
		return nil, ErrorNoCertificate.Error(nil)
	}

	minVer := tlsversion.Parse(v.spec.MinVersion)
	if minVer == tlsversion.VersionUnknown {
		minVer = tlsversion.VersionTLS12
	}
	maxVer := tlsversion.Parse(v.spec.MaxVersion)
	if maxVer == tlsversion.VersionUnknown {
		maxVer = tlsversion.VersionTLS13
	}
	if minVer > maxVer {
		return nil, ErrorInvalidVersionRange.Error(nil)
	}

	cfg := &tls.Config{
		Certificates: v.spec.Certificates,
		MinVersion:   uint16(minVer),
		MaxVersion:   uint16(maxVer),
	}

	for _, n := range v.spec.CipherNames {
		if c := cipher.Parse(n); c != cipher.Unknown {
			cfg.CipherSuites = append(cfg.CipherSuites, uint16(c))
		}
	}

	for _, n := range v.spec.CurveNames {
		if c := curves.Parse(n); c != curves.Unknown {
			cfg.CurvePreferences = append(cfg.CurvePreferences, tls.CurveID(c))
		}
	}

	return cfg, nil
}

// Default returns the vendor's recommended Spec: every cipher suite that
// cipher.ListString names (AES-GCM/ChaCha20 suites with ECDHE or RSA key
// exchange, no legacy RC4/3DES/MD5), X25519 first among curves, and a
// 1.2-1.3 version floor/ceiling.
func Default(certs []tls.Certificate) Spec {
	return Spec{
		Certificates: certs,
		CipherNames:  cipher.ListString(),
		CurveNames:   curves.ListString(),
		MinVersion:   "1.2",
		MaxVersion:   "1.3",
	}
}
