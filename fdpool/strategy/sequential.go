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

package strategy

// sequential walks nodes in declaration order, restarting at 0 once it
// wraps. The caller (fdpool's iterator) is responsible for counting cycles
// against the service's retry budget.
type sequential struct {
	cursor int
	seen   int
}

func NewSequential() Selector {
	return &sequential{cursor: -1}
}

func (s *sequential) Next(n int) (int, bool) {
	if n <= 0 {
		return 0, true
	}

	s.cursor++
	if s.cursor >= n {
		s.cursor = 0
	}

	s.seen++
	done := s.seen%n == 0

	return s.cursor, done
}

func (s *sequential) Reset() {
	s.cursor = -1
	s.seen = 0
}
