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

// Package controller implements the embeddable HTTP/HTTPS control-plane
// server of spec.md §5: a listener goroutine, a fixed worker pool draining
// a job queue, a hand-rolled HTTP/1.1 request state machine, an ACL engine,
// and a cooperative two-stage shutdown.
package controller

import "github.com/nabbar/netctl/errors"

const (
	ErrorAlreadyRunning errors.CodeError = iota + errors.MinPkgController
	ErrorNotRunning
	ErrorPortInUse
	ErrorListen
	ErrorTLSConfig
	ErrorQuitting
	ErrorBadHeader
	ErrorContentLengthOverflow
	ErrorNoHandler
	ErrorParser
	ErrorACLDenied
	ErrorBadPattern
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorAlreadyRunning)
	errors.RegisterIdFctMessage(ErrorAlreadyRunning, getMessage)
}

func getMessage(code errors.CodeError) string {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorAlreadyRunning:
		return "controller is already listening"
	case ErrorNotRunning:
		return "controller is not running"
	case ErrorPortInUse:
		return "listen address already in use"
	case ErrorListen:
		return "failed to open listen socket"
	case ErrorTLSConfig:
		return "invalid TLS material"
	case ErrorQuitting:
		return "controller is shutting down, job queue refuses new jobs"
	case ErrorBadHeader:
		return "malformed header line"
	case ErrorContentLengthOverflow:
		return "content-length out of bounds"
	case ErrorNoHandler:
		return "request body received without a registered handler"
	case ErrorParser:
		return "HTTP/1.1 parser error"
	case ErrorACLDenied:
		return "request denied by ACL"
	case ErrorBadPattern:
		return "malformed URL pattern: unbalanced capture or misplaced trailing variable"
	}

	return ""
}
