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

// Package limits holds the immutable bundle of tunables attached to a
// connection at creation: timeouts, body sizes, and request/connection
// counts. Validated the way the teacher validates its server configuration,
// with struct tags and github.com/go-playground/validator/v10.
package limits

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	liberr "github.com/AlonsoVanessa/http/errors"
)

const (
	ErrorValidate liberr.CodeError = iota + liberr.MinPkgLimits
)

func init() {
	if !liberr.ExistInMapMessage(ErrorValidate) {
		liberr.RegisterIdFctMessage(ErrorValidate, getMessage)
	}
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorValidate:
		return "limits: validation failed"
	default:
		return liberr.NullMessage
	}
}

// Unlimited is the sentinel meaning "no timeout" for the four duration
// fields below.
const Unlimited time.Duration = 0

// Limits is immutable once attached to a connection.
type Limits struct {
	ChunkSize            int64         `validate:"gte=0"`
	HeaderCount          int           `validate:"gte=0"`
	HeaderSize           int64         `validate:"gte=0"`
	ReceiveBodySize       int64         `validate:"gte=0"`
	TransmissionBodySize int64         `validate:"gte=0"`
	UploadSize           int64         `validate:"gte=0"`
	URISize              int64         `validate:"gte=0"`
	KeepAliveMax         int           `validate:"gte=0"`
	RequestsPerClientMax int           `validate:"gte=0"`
	ClientMax            int           `validate:"gte=0"`
	ConnectionsMax       int           `validate:"gte=0"`
	SessionMax           int           `validate:"gte=0"`

	InactivityTimeout   time.Duration `validate:"gte=0"`
	RequestTimeout      time.Duration `validate:"gte=0"`
	RequestParseTimeout time.Duration `validate:"gte=0"`
	SessionTimeout      time.Duration `validate:"gte=0"`
}

// NewLimits returns a defaulted Limits for the server or client role.
// Client-side limits set the body/upload fields to math.MaxInt64 since a
// client does not police its own peer's response size the way a server
// polices request bodies.
func NewLimits(serverSide bool) *Limits {
	l := &Limits{
		ChunkSize:            64 * 1024,
		HeaderCount:          100,
		HeaderSize:           16 * 1024,
		URISize:              8 * 1024,
		KeepAliveMax:         1000,
		RequestsPerClientMax: 0,
		ClientMax:            0,
		ConnectionsMax:       0,
		SessionMax:           0,

		InactivityTimeout:   60 * time.Second,
		RequestTimeout:      5 * time.Minute,
		RequestParseTimeout: 30 * time.Second,
		SessionTimeout:      30 * time.Minute,
	}

	if serverSide {
		l.ReceiveBodySize = 10 * 1024 * 1024
		l.TransmissionBodySize = 10 * 1024 * 1024
		l.UploadSize = 10 * 1024 * 1024
	} else {
		l.ReceiveBodySize = math.MaxInt64
		l.TransmissionBodySize = math.MaxInt64
		l.UploadSize = math.MaxInt64
	}

	return l
}

// Ease sets the three body/upload fields and URISize to the maximum
// representable value, lifting those size caps at once.
func (l *Limits) Ease() {
	l.ReceiveBodySize = math.MaxInt64
	l.TransmissionBodySize = math.MaxInt64
	l.UploadSize = math.MaxInt64
	l.URISize = math.MaxInt64
}

// Validate runs struct-tag validation over l, returning a registered
// liberr.Error naming every failing field.
func (l *Limits) Validate() liberr.Error {
	val := validator.New()
	err := val.Struct(l)

	if err == nil {
		return nil
	}

	if _, ok := err.(*validator.InvalidValidationError); ok {
		return ErrorValidate.Error(err)
	}

	out := ErrorValidate.Error(nil)

	for _, e := range err.(validator.ValidationErrors) {
		out.Add(liberr.NewErrorTrace(
			int(ErrorValidate.Uint16()),
			"field '"+e.Field()+"' failed constraint '"+e.ActualTag()+"'",
			"", 0,
		))
	}

	return out
}
