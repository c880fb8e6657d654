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

// Package monitor is the counter/timer plumbing of SPEC_FULL.md §10: named
// counters and timers, aggregated under a "stats" tree the same shape as
// controller-stats.c's stat_counter/timer_dump walk, and dual-published as
// github.com/prometheus/client_golang metrics.
package monitor

import "github.com/nabbar/netctl/errors"

const (
	ErrorDuplicateTimer errors.CodeError = iota + errors.MinPkgMonitor
	ErrorUnknownTimer
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorDuplicateTimer)
	errors.RegisterIdFctMessage(ErrorDuplicateTimer, getMessage)
}

func getMessage(code errors.CodeError) string {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorDuplicateTimer:
		return "timer already registered under this name"
	case ErrorUnknownTimer:
		return "no timer registered under this name"
	}
	return ""
}
