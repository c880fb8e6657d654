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

package controller

import "strings"

// patternSegment is one literal or named-capture path component (spec.md
// §4.2). greedy marks a trailing "<name...>" capture, which absorbs every
// remaining segment instead of just one.
type patternSegment struct {
	literal string
	capture string
	greedy  bool
}

// Pattern is a handler URL pattern compiled into literal/capture segments
// at registration time (spec.md §4.2: "Patterns may embed named captures
// delimited by `<`…`>` that match one path segment"). It is not a regexp:
// matching is literal, segment-by-segment, closer to httprouter-style radix
// matching than general pattern matching.
//
// A capture named with a trailing "..." (e.g. "<rest...>") must be the last
// segment of the pattern and matches every remaining segment to the end of
// the path, joined back with "/" — the spec's "a trailing segment variable
// matches until end". Every other capture, including one that is itself the
// pattern's only segment, matches exactly one segment: "/<x>" matches "/foo"
// but not "/foo/bar".
type Pattern struct {
	raw      string
	segments []patternSegment
}

// CompilePattern parses raw into a Pattern. Unbalanced "<"/">" or a "..."
// capture that isn't the final segment is a configuration error.
func CompilePattern(raw string) (*Pattern, error) {
	trimmed := strings.Trim(raw, "/")

	var parts []string
	if trimmed != "" {
		parts = strings.Split(trimmed, "/")
	}

	segs := make([]patternSegment, 0, len(parts))
	for i, p := range parts {
		open := strings.IndexByte(p, '<')
		shut := strings.IndexByte(p, '>')

		switch {
		case open < 0 && shut < 0:
			segs = append(segs, patternSegment{literal: p})

		case open == 0 && shut == len(p)-1 && shut > open:
			name := p[1:shut]
			greedy := strings.HasSuffix(name, "...")
			if greedy {
				name = strings.TrimSuffix(name, "...")
				if i != len(parts)-1 {
					return nil, ErrorBadPattern.Error(nil)
				}
			}
			if name == "" || strings.ContainsAny(name, "<>") {
				return nil, ErrorBadPattern.Error(nil)
			}
			segs = append(segs, patternSegment{capture: name, greedy: greedy})

		default:
			return nil, ErrorBadPattern.Error(nil)
		}
	}

	return &Pattern{raw: raw, segments: segs}, nil
}

// Match reports whether path satisfies p, returning any named captures.
func (p *Pattern) Match(path string) (map[string]string, bool) {
	trimmed := strings.Trim(path, "/")

	var parts []string
	if trimmed != "" {
		parts = strings.Split(trimmed, "/")
	}

	if len(p.segments) == 0 {
		return nil, len(parts) == 0
	}

	last := p.segments[len(p.segments)-1]
	if last.greedy {
		if len(parts) < len(p.segments) {
			return nil, false
		}
	} else if len(parts) != len(p.segments) {
		return nil, false
	}

	var captures map[string]string
	for i, seg := range p.segments {
		if seg.greedy {
			captures = setCapture(captures, seg.capture, strings.Join(parts[i:], "/"))
			break
		}
		if seg.capture != "" {
			captures = setCapture(captures, seg.capture, parts[i])
			continue
		}
		if parts[i] != seg.literal {
			return nil, false
		}
	}

	return captures, true
}

func setCapture(m map[string]string, name, value string) map[string]string {
	if m == nil {
		m = make(map[string]string)
	}
	m[name] = value
	return m
}
