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

// Package httpstatus maps numeric HTTP status codes to their reason phrase.
//
// It covers the standard 1xx-5xx catalog plus two engine-private codes used
// when the peer connection is severed mid-response: 550 Comms Error and 551
// General Client Error.
package httpstatus

import "strconv"

// Code is a numeric HTTP status code.
type Code int

const (
	Continue           Code = 100
	SwitchingProtocols Code = 101
	Processing         Code = 102
	EarlyHints         Code = 103

	OK                   Code = 200
	Created              Code = 201
	Accepted             Code = 202
	NonAuthoritativeInfo Code = 203
	NoContent            Code = 204
	ResetContent         Code = 205
	PartialContent       Code = 206
	MultiStatus          Code = 207
	AlreadyReported      Code = 208
	IMUsed               Code = 226

	MultipleChoices   Code = 300
	MovedPermanently  Code = 301
	Found             Code = 302
	SeeOther          Code = 303
	NotModified       Code = 304
	UseProxy          Code = 305
	TemporaryRedirect Code = 307
	PermanentRedirect Code = 308

	BadRequest                   Code = 400
	Unauthorized                 Code = 401
	PaymentRequired              Code = 402
	Forbidden                    Code = 403
	NotFound                     Code = 404
	MethodNotAllowed             Code = 405
	NotAcceptable                Code = 406
	ProxyAuthRequired            Code = 407
	RequestTimeout               Code = 408
	Conflict                     Code = 409
	Gone                         Code = 410
	LengthRequired               Code = 411
	PreconditionFailed           Code = 412
	PayloadTooLarge              Code = 413
	URITooLong                   Code = 414
	UnsupportedMediaType         Code = 415
	RangeNotSatisfiable          Code = 416
	ExpectationFailed           Code = 417
	Teapot                       Code = 418
	MisdirectedRequest           Code = 421
	UnprocessableEntity          Code = 422
	Locked                       Code = 423
	FailedDependency             Code = 424
	TooEarly                     Code = 425
	UpgradeRequired              Code = 426
	PreconditionRequired         Code = 428
	TooManyRequests              Code = 429
	RequestHeaderFieldsTooLarge Code = 431
	UnavailableForLegalReasons   Code = 451

	InternalServerError           Code = 500
	NotImplemented                 Code = 501
	BadGateway                     Code = 502
	ServiceUnavailable             Code = 503
	GatewayTimeout                 Code = 504
	HTTPVersionNotSupported        Code = 505
	VariantAlsoNegotiates          Code = 506
	InsufficientStorage            Code = 507
	LoopDetected                   Code = 508
	NotExtended                    Code = 510
	NetworkAuthenticationRequired Code = 511

	// CommsError is raised when the peer connection is severed before a
	// response could be completed. Internal only — never sent on the wire.
	CommsError Code = 550
	// GeneralClientError covers a client-role failure with no better code.
	// Internal only — never sent on the wire.
	GeneralClientError Code = 551
)

var phrases = map[Code]string{
	Continue:           "Continue",
	SwitchingProtocols: "Switching Protocols",
	Processing:         "Processing",
	EarlyHints:         "Early Hints",

	OK:                   "OK",
	Created:              "Created",
	Accepted:             "Accepted",
	NonAuthoritativeInfo: "Non-Authoritative Information",
	NoContent:            "No Content",
	ResetContent:         "Reset Content",
	PartialContent:       "Partial Content",
	MultiStatus:          "Multi-Status",
	AlreadyReported:      "Already Reported",
	IMUsed:               "IM Used",

	MultipleChoices:   "Multiple Choices",
	MovedPermanently:  "Moved Permanently",
	Found:             "Found",
	SeeOther:          "See Other",
	NotModified:       "Not Modified",
	UseProxy:          "Use Proxy",
	TemporaryRedirect: "Temporary Redirect",
	PermanentRedirect: "Permanent Redirect",

	BadRequest:                  "Bad Request",
	Unauthorized:                "Unauthorized",
	PaymentRequired:             "Payment Required",
	Forbidden:                   "Forbidden",
	NotFound:                    "Not Found",
	MethodNotAllowed:            "Method Not Allowed",
	NotAcceptable:               "Not Acceptable",
	ProxyAuthRequired:           "Proxy Authentication Required",
	RequestTimeout:              "Request Timeout",
	Conflict:                    "Conflict",
	Gone:                        "Gone",
	LengthRequired:              "Length Required",
	PreconditionFailed:          "Precondition Failed",
	PayloadTooLarge:             "Payload Too Large",
	URITooLong:                  "URI Too Long",
	UnsupportedMediaType:        "Unsupported Media Type",
	RangeNotSatisfiable:         "Range Not Satisfiable",
	ExpectationFailed:           "Expectation Failed",
	Teapot:                      "I'm a teapot",
	MisdirectedRequest:          "Misdirected Request",
	UnprocessableEntity:         "Unprocessable Entity",
	Locked:                      "Locked",
	FailedDependency:            "Failed Dependency",
	TooEarly:                    "Too Early",
	UpgradeRequired:             "Upgrade Required",
	PreconditionRequired:        "Precondition Required",
	TooManyRequests:             "Too Many Requests",
	RequestHeaderFieldsTooLarge: "Request Header Fields Too Large",
	UnavailableForLegalReasons:  "Unavailable For Legal Reasons",

	InternalServerError:           "Internal Server Error",
	NotImplemented:                "Not Implemented",
	BadGateway:                    "Bad Gateway",
	ServiceUnavailable:            "Service Unavailable",
	GatewayTimeout:                "Gateway Timeout",
	HTTPVersionNotSupported:       "HTTP Version Not Supported",
	VariantAlsoNegotiates:         "Variant Also Negotiates",
	InsufficientStorage:           "Insufficient Storage",
	LoopDetected:                  "Loop Detected",
	NotExtended:                   "Not Extended",
	NetworkAuthenticationRequired: "Network Authentication Required",

	CommsError:         "Comms Error",
	GeneralClientError: "General Client Error",
}

// Phrase returns the reason phrase for code, or "Custom error" if code is
// not in the catalog.
func Phrase(code Code) string {
	if p, ok := phrases[code]; ok {
		return p
	}
	return "Custom error"
}

// Key returns the three-digit string representation of code.
func (c Code) Key() string {
	return strconv.Itoa(int(c))
}

// String implements fmt.Stringer, returning the reason phrase.
func (c Code) String() string {
	return Phrase(c)
}

// IsRedirect reports whether c is one of the 3xx redirection codes.
func (c Code) IsRedirect() bool {
	return c >= 300 && c < 400
}

// IsError reports whether c is a 4xx or 5xx code, including the two
// engine-private codes.
func (c Code) IsError() bool {
	return c >= 400
}
