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

// Package netcfg is the vtree-like configuration facade of SPEC_FULL.md
// §0 "Configuration (bconf/vtree)": a github.com/spf13/viper instance,
// fed from one or more file/env sources and decoded into typed structs
// via github.com/mitchellh/mapstructure, standing in for the teacher's
// config+viper component pair without its gin/DI coupling.
package netcfg

import "github.com/nabbar/netctl/errors"

const (
	ErrorNoSource errors.CodeError = iota + errors.MinPkgNetCfg
	ErrorReadConfig
	ErrorDecode
	ErrorWatch
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorNoSource)
	errors.RegisterIdFctMessage(ErrorNoSource, getMessage)
}

func getMessage(code errors.CodeError) string {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorNoSource:
		return "no configuration source registered"
	case ErrorReadConfig:
		return "failed to read configuration source"
	case ErrorDecode:
		return "failed to decode configuration section"
	case ErrorWatch:
		return "failed to watch configuration source for changes"
	}
	return ""
}
