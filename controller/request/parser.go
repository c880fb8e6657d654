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

package request

import (
	"bufio"
	"strconv"
	"strings"
)

// Parser is a hand-rolled incremental HTTP/1.1 request-line + header
// reader, structured after the original's http_parser callback lifecycle
// (on_url / on_header_field / on_header_value / on_headers_complete /
// on_body / on_message_complete), minus the byte-at-a-time re-entrancy the
// C version needs: Go can block-read from a bufio.Reader directly since
// each connection already owns a dedicated worker goroutine.
type Parser struct {
	r *bufio.Reader
}

func NewParser(r *bufio.Reader) *Parser {
	return &Parser{r: r}
}

// ParseRequestLineAndHeaders reads the request line and header block into
// s, validating Content-Length against the spec's boundary
// (0 <= length <= 100 GiB, spec.md §7/§8).
func (p *Parser) ParseRequestLineAndHeaders(s *State) error {
	line, err := p.readLine()
	if err != nil {
		return err
	}

	method, path, query, err := parseRequestLine(line)
	if err != nil {
		return err
	}
	s.SetRequestLine(method, path, query)

	for {
		line, err = p.readLine()
		if err != nil {
			return err
		}
		if line == "" {
			break
		}

		key, value, err := parseHeaderLine(line)
		if err != nil {
			return err
		}
		s.addHeader(key, value)
	}

	if cl := s.Header("content-length"); cl != "" {
		n, err := strconv.ParseInt(cl, 10, 64)
		if err != nil || n < 0 || n > MaxContentLength {
			return ErrBadContentLength
		}
		s.SetContentLength(n)
	}

	return nil
}

// ReadBody streams the request body to consume in chunks of at most
// bufSize bytes, mirroring on_body's incremental delivery.
func (p *Parser) ReadBody(s *State, bufSize int, consume func([]byte) error) error {
	remaining := s.ContentLength()
	buf := make([]byte, bufSize)

	for remaining > 0 {
		n := bufSize
		if int64(n) > remaining {
			n = int(remaining)
		}

		read, err := p.r.Read(buf[:n])
		if read > 0 {
			if cerr := consume(buf[:read]); cerr != nil {
				return cerr
			}
			remaining -= int64(read)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func (p *Parser) readLine() (string, error) {
	line, err := p.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func parseRequestLine(line string) (method, path, query string, err error) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return "", "", "", ErrBadRequestLine
	}

	method = parts[0]
	target := parts[1]

	if idx := strings.IndexByte(target, '?'); idx >= 0 {
		path = target[:idx]
		query = target[idx+1:]
	} else {
		path = target
	}

	if path == "" {
		return "", "", "", ErrBadRequestLine
	}

	return method, path, query, nil
}

func parseHeaderLine(line string) (key, value string, err error) {
	idx := strings.IndexByte(line, ':')
	if idx <= 0 {
		return "", "", ErrBadHeaderLine
	}

	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])

	if key == "" {
		return "", "", ErrBadHeaderLine
	}

	return key, value, nil
}

type parseError string

func (e parseError) Error() string { return string(e) }

const (
	ErrBadRequestLine   = parseError("malformed request line")
	ErrBadHeaderLine    = parseError("malformed header line")
	ErrBadContentLength = parseError("content-length out of bounds")
)
