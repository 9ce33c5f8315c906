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

// Package httperr implements the uniform error and abort protocol (§4.7)
// and realizes the §7 error taxonomy as registered errors.CodeError
// values.
package httperr

import (
	liberr "github.com/AlonsoVanessa/http/errors"
)

// Taxonomy members (§7), one errors.CodeError per kind so callers can
// liberr.Has/IsCode against them regardless of the concrete status code
// carried on the wire.
const (
	CodeBadRequest liberr.CodeError = iota + liberr.MinPkgHttpErr
	CodeAuthRequired
	CodeNotFound
	CodeTimeoutInactivity
	CodeTimeoutRequest
	CodeTimeoutParse
	CodePayloadTooLarge
	CodeUpstreamFailure
	CodeInternal
	CodeCommsSevered
	CodeShutdown
)

func init() {
	if !liberr.ExistInMapMessage(CodeBadRequest) {
		liberr.RegisterIdFctMessage(CodeBadRequest, getMessage)
	}
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case CodeBadRequest:
		return "bad request"
	case CodeAuthRequired:
		return "authorization required"
	case CodeNotFound:
		return "not found"
	case CodeTimeoutInactivity:
		return "inactivity timeout"
	case CodeTimeoutRequest:
		return "request timeout"
	case CodeTimeoutParse:
		return "parse timeout"
	case CodePayloadTooLarge:
		return "payload too large"
	case CodeUpstreamFailure:
		return "upstream failure"
	case CodeInternal:
		return "internal error"
	case CodeCommsSevered:
		return "comms severed"
	case CodeShutdown:
		return "shutting down"
	default:
		return liberr.NullMessage
	}
}
