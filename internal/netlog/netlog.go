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

// Package netlog is the structured-logging ambient layer: a single
// logrus.Logger fanned out to one hook per sink (stderr always, syslog
// optionally), the same shape as the teacher's logger/hookstderr and
// logger/hooksyslog pair, generalized to this repo's needs instead of
// gin-request logging.
package netlog

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps a *logrus.Logger with the level-named helpers the
// controller and fdpool call sites use (spec.md §7 "Propagation":
// transport errors logged at INFO/suppressed, controller errors at CRIT
// except 404 at INFO).
type Logger struct {
	base *logrus.Logger
}

// New builds a Logger writing to stderr by default, in the text format,
// with hooks appended via AddHook for additional sinks (e.g. syslog).
func New(level logrus.Level) *Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	return &Logger{base: l}
}

// AddHook fans this logger's output out to an additional sink, e.g. a
// syslog hook for production deployments.
func (g *Logger) AddHook(h logrus.Hook) {
	g.base.AddHook(h)
}

// AddWriterHook fans a copy of every entry at minLevel or above to w,
// standing in for the teacher's hookfile (or hookwriter) sink.
func (g *Logger) AddWriterHook(w io.Writer, minLevel logrus.Level) {
	g.base.AddHook(&writerHook{w: w, min: minLevel})
}

func (g *Logger) Entry() *logrus.Entry {
	return logrus.NewEntry(g.base)
}

// SetLevel changes the minimum level the logger emits at, backing the
// controller's /loglevel endpoint (SPEC_FULL.md §6).
func (g *Logger) SetLevel(lvl logrus.Level) {
	g.base.SetLevel(lvl)
}

func (g *Logger) Level() logrus.Level {
	return g.base.GetLevel()
}

func (g *Logger) Info(args ...any)  { g.base.Info(args...) }
func (g *Logger) Warn(args ...any)  { g.base.Warn(args...) }
func (g *Logger) Error(args ...any) { g.base.Error(args...) }

func (g *Logger) Infof(format string, args ...any)  { g.base.Infof(format, args...) }
func (g *Logger) Warnf(format string, args ...any)  { g.base.Warnf(format, args...) }
func (g *Logger) Errorf(format string, args ...any) { g.base.Errorf(format, args...) }

// Critf logs at logrus' Fatal-adjacent Error level tagged "CRIT", matching
// spec.md §7's controller error taxonomy without actually exiting the
// process (the original's CRIT is a syslog priority, not a fatal signal).
func (g *Logger) Critf(format string, args ...any) {
	g.base.WithField("severity", "CRIT").Error(fmt.Sprintf(format, args...))
}

type writerHook struct {
	w   io.Writer
	min logrus.Level
}

func (h *writerHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *writerHook) Fire(e *logrus.Entry) error {
	if e.Level > h.min {
		return nil
	}
	line, err := e.String()
	if err != nil {
		return err
	}
	_, err = io.WriteString(h.w, line)
	return err
}
