/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
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

// Package logger provides the leveled, logrus-backed logging used throughout
// this module, with a fluent Entry builder in place of bare logrus calls.
package logger

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// FuncLog returns a Logger instance; used for lazy dependency injection so a
// component can be constructed before its logger is fully wired.
type FuncLog func() Logger

type Logger interface {
	io.Writer

	SetLevel(lvl Level)
	GetLevel() Level

	SetFields(field Fields)
	GetFields() Fields

	Entry(lvl Level, message string, args ...interface{}) *Entry

	// Access returns a pre-populated InfoLevel entry describing one
	// completed HTTP request/response cycle.
	Access(remoteAddr, method, request, proto string, status int, size int64, latency time.Duration) *Entry
}

type logger struct {
	mu  sync.RWMutex
	lvl Level
	fld Fields
	out *logrus.Logger
}

// New returns a Logger writing to the given io.Writer at InfoLevel.
func New(out io.Writer) Logger {
	l := &logger{
		fld: NewFields(),
		out: logrus.New(),
	}
	l.out.SetOutput(out)
	l.SetLevel(InfoLevel)
	return l
}

func (l *logger) Write(p []byte) (n int, err error) {
	return l.out.Out.Write(p)
}

func (l *logger) SetLevel(lvl Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lvl = lvl
	l.out.SetLevel(lvl.Logrus())
}

func (l *logger) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lvl
}

func (l *logger) SetFields(field Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fld = field
}

func (l *logger) GetFields() Fields {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.fld
}

func (l *logger) Entry(lvl Level, message string, args ...interface{}) *Entry {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}

	return &Entry{
		log:     func() *logrus.Logger { return l.out },
		Time:    time.Now(),
		Level:   lvl,
		Message: message,
		Fields:  l.GetFields(),
	}
}

func (l *logger) Access(remoteAddr, method, request, proto string, status int, size int64, latency time.Duration) *Entry {
	return l.Entry(InfoLevel, "access").
		FieldAdd("remote_addr", remoteAddr).
		FieldAdd("method", method).
		FieldAdd("request", request).
		FieldAdd("proto", proto).
		FieldAdd("status", status).
		FieldAdd("size", size).
		FieldAdd("latency", latency.String())
}
