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

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/nabbar/netctl/controller/request"
	"github.com/sirupsen/logrus"
)

const netlogDefaultLevel = logrus.InfoLevel

// jsonError is the nested "error.status"/"error.message" body spec.md §7 /
// the E2E ACL-denial scenario require, status carried as a string to match
// the original bconf error shape.
type jsonError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// writeJSONError switches the response to a canned JSON error body and
// forces the connection closed, matching ctrl_error's behavior
// (spec.md §7 "Handler").
func writeJSONError(s *request.State, status int, message string) {
	s.SetStatus(status)
	s.Close()

	body, _ := json.Marshal(map[string]jsonError{
		"error": {Status: strconv.Itoa(status), Message: message},
	})
	s.SetRawResponse(body)
}

// writeResponse serialises the status line, headers, and body onto conn.
// 404 is logged at INFO (expected in normal flow); every other error
// status (400 and up) at CRIT, per spec.md §7 "Propagation".
func (c *Controller) writeResponse(conn net.Conn, s *request.State) {
	body := s.ResponseBody()

	status := s.StatusCode()
	if status == 0 {
		status = 200
	}

	fmt.Fprintf(conn, "HTTP/1.1 %d %s\r\n", status, http.StatusText(status))
	fmt.Fprintf(conn, "Content-Length: %d\r\n", len(body))
	fmt.Fprintf(conn, "Content-Type: application/json\r\n")

	for k, v := range s.CustomHeaders() {
		fmt.Fprintf(conn, "%s: %s\r\n", k, v)
	}

	if s.KeepAlive() {
		fmt.Fprintf(conn, "Connection: keep-alive\r\n")
	} else {
		fmt.Fprintf(conn, "Connection: close\r\n")
	}

	fmt.Fprintf(conn, "\r\n")
	_, _ = conn.Write(body)

	if status == 404 {
		c.log.Infof("controller '%s' 404 %s", c.cfg.Name, s.Path())
	} else if status >= 400 {
		c.log.Critf("controller '%s' %d %s", c.cfg.Name, status, s.Path())
	}
}
