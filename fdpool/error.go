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

package fdpool

import "github.com/nabbar/netctl/errors"

// Sentinel codes mirror the EFDP_* negative constants of the original
// implementation, renumbered into the package's CodeError block.
const (
	ErrorEmptyConfig errors.CodeError = iota + errors.MinPkgFdPool
	ErrorNotURL
	ErrorNoSuchHost
	ErrorResolveSystem
	ErrorNoSuchService
	ErrorRaceLost
	ErrorExhausted
	ErrorSystem
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorEmptyConfig)
	errors.RegisterIdFctMessage(ErrorEmptyConfig, getMessage)
}

func getMessage(code errors.CodeError) string {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorEmptyConfig:
		return "service has no configured host and no discovery source"
	case ErrorNotURL:
		return "host entry is not a valid service URL"
	case ErrorNoSuchHost:
		return "resolver returned no such host"
	case ErrorResolveSystem:
		return "resolver system failure"
	case ErrorNoSuchService:
		return "no such service registered in the pool"
	case ErrorRaceLost:
		return "lost the race updating the node set, retry"
	case ErrorExhausted:
		return "iterator exhausted across every node and port"
	case ErrorSystem:
		return "system error performing connect/socket operation"
	}

	return ""
}
