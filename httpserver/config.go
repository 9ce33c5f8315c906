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
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AlonsoVanessa/http/limits"
	"github.com/AlonsoVanessa/http/sslvendor"

	liberr "github.com/AlonsoVanessa/http/errors"
)

// ServerConfig is the one-listener configuration the teacher's own
// ServerConfig covered with net/http.Server/http2 knobs; here it
// describes the raw TCP/TLS listener this package hands the engine
// (§6: "the enclosing listener/socket layer" is an external collaborator
// the core never implements itself). Multi-server pool orchestration
// (the teacher's PoolServerConfig) is dropped — see DESIGN.md.
type ServerConfig struct {
	// Name identifies this listener for logging; defaults to Listen.
	Name string `mapstructure:"name" json:"name" yaml:"name" toml:"name" validate:"required"`

	// Listen is the local bind address (host:port).
	Listen string `mapstructure:"listen" json:"listen" yaml:"listen" toml:"listen" validate:"required,hostname_port"`

	// Expose is the externally reachable address, if different from Listen.
	Expose string `mapstructure:"expose" json:"expose" yaml:"expose" toml:"expose" validate:"omitempty,url"`

	// TLSMandatory requires a working *tls.Config before Listen succeeds.
	TLSMandatory bool `mapstructure:"tls_mandatory" json:"tls_mandatory" yaml:"tls_mandatory" toml:"tls_mandatory"`

	// TLS is the declarative vendor spec (§6 sslvendor); a zero value
	// (no certificates) means plain TCP.
	TLS sslvendor.Spec `mapstructure:"tls" json:"tls" yaml:"tls" toml:"tls"`

	// AcceptTimeout bounds how long Listen's accept loop waits on a single
	// Accept() call before checking for shutdown; 0 uses a 1s default.
	AcceptTimeout time.Duration `mapstructure:"accept_timeout" json:"accept_timeout" yaml:"accept_timeout" toml:"accept_timeout" validate:"gte=0"`

	// InactivityTimeout, RequestTimeout, RequestParseTimeout feed the
	// limits.Limits attached to every connection accepted on this
	// listener (§4.2); 0 keeps limits.NewLimits' own default.
	InactivityTimeout   time.Duration `mapstructure:"inactivity_timeout" json:"inactivity_timeout" yaml:"inactivity_timeout" toml:"inactivity_timeout" validate:"gte=0"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout" json:"request_timeout" yaml:"request_timeout" toml:"request_timeout" validate:"gte=0"`
	RequestParseTimeout time.Duration `mapstructure:"request_parse_timeout" json:"request_parse_timeout" yaml:"request_parse_timeout" toml:"request_parse_timeout" validate:"gte=0"`
}

// Clone returns an independent copy of c.
func (c ServerConfig) Clone() ServerConfig {
	cp := c
	cp.TLS.Certificates = append([]tls.Certificate(nil), c.TLS.Certificates...)
	cp.TLS.CipherNames = append([]string(nil), c.TLS.CipherNames...)
	cp.TLS.CurveNames = append([]string(nil), c.TLS.CurveNames...)
	return cp
}

// IsTLS reports whether c carries at least one certificate.
func (c ServerConfig) IsTLS() bool {
	return len(c.TLS.Certificates) > 0
}

// Vendor builds the sslvendor.Vendor this config's TLS section describes,
// or nil if IsTLS is false.
func (c ServerConfig) Vendor() sslvendor.Vendor {
	if !c.IsTLS() {
		return nil
	}
	name := c.Name
	if name == "" {
		name = c.Listen
	}
	return sslvendor.New(name, c.TLS)
}

// GetListen parses Listen into a *url.URL, falling back to Expose.
func (c ServerConfig) GetListen() *url.URL {
	if c.Listen != "" {
		if host, port, err := net.SplitHostPort(c.Listen); err == nil {
			return &url.URL{Host: fmt.Sprintf("%s:%s", host, port)}
		}
		if u, err := url.Parse(c.Listen); err == nil {
			return u
		}
	}
	if c.Expose != "" {
		if u, err := url.Parse(c.Expose); err == nil {
			return u
		}
	}
	return nil
}

// GetExpose parses Expose into a *url.URL, falling back to GetListen with
// the scheme implied by IsTLS.
func (c ServerConfig) GetExpose() *url.URL {
	if c.Expose != "" {
		if u, err := url.Parse(c.Expose); err == nil {
			return u
		}
	}
	u := c.GetListen()
	if u == nil {
		return nil
	}
	if c.IsTLS() {
		u.Scheme = "https"
	} else {
		u.Scheme = "http"
	}
	return u
}

// ToLimits builds the limits.Limits this config's timeout fields
// override on top of limits.NewLimits(serverSide), the bridge between
// listener configuration and the per-connection limits the engine
// attaches at Accept time.
func (c ServerConfig) ToLimits(serverSide bool) *limits.Limits {
	l := limits.NewLimits(serverSide)

	if c.InactivityTimeout > 0 {
		l.InactivityTimeout = c.InactivityTimeout
	}
	if c.RequestTimeout > 0 {
		l.RequestTimeout = c.RequestTimeout
	}
	if c.RequestParseTimeout > 0 {
		l.RequestParseTimeout = c.RequestParseTimeout
	}

	return l
}

// Validate runs struct-tag validation, then (if TLSMandatory) confirms a
// *tls.Config can actually be built from the TLS section.
func (c ServerConfig) Validate() liberr.Error {
	val := validator.New()
	err := val.Struct(c)

	if e, ok := err.(*validator.InvalidValidationError); ok {
		return ErrorServerValidate.Error(e)
	}

	out := ErrorServerValidate.Error(nil)

	if ve, ok := err.(validator.ValidationErrors); ok {
		for _, e := range ve {
			out.Add(fmt.Errorf("config field '%s' is not validated by constraint '%s'", e.Field(), e.ActualTag()))
		}
	}

	if c.TLSMandatory {
		if v := c.Vendor(); v == nil {
			out.Add(fmt.Errorf("tls is mandatory but no certificate is configured"))
		} else if _, verr := v.Config(); verr != nil {
			out.Add(verr)
		}
	}

	if out.HasParent() {
		return out
	}

	return nil
}

// Server builds the listener this config describes.
func (c ServerConfig) Server() Server {
	return NewServer(c)
}
