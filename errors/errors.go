/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

// Package errors provides a small coded-error type used throughout
// facil-go: a numeric CodeError classification, an optional message, a
// captured call frame, and a parent chain so a connection-fatal error can
// carry the I/O error that caused it without losing the classification.
package errors

import (
	"fmt"
	"runtime"
)

// Error extends the standard error interface with the classification and
// hierarchy facil-go's components rely on (see spec.md §7).
type Error interface {
	error

	// Code returns this error's own classification (not a parent's).
	Code() CodeError

	// Is reports whether this error or any of its parents carry code c.
	Is(c CodeError) bool

	// Add appends non-nil parents to this error's chain.
	Add(parent ...error)

	// Unwrap exposes the parent chain to the standard errors package.
	Unwrap() []error

	// Frame returns the call site where this error was constructed.
	Frame() runtime.Frame
}

type ers struct {
	code CodeError
	msg  string
	ref  []error
	frm  runtime.Frame
}

func newError(c CodeError) *ers {
	e := &ers{code: c}
	pc, _, _, ok := runtime.Caller(2)
	if ok {
		frames := runtime.CallersFrames([]uintptr{pc})
		e.frm, _ = frames.Next()
	}
	return e
}

// New builds a plain Error with no classification, akin to errors.New but
// integrated with this package's Is/Add/Unwrap machinery.
func New(msg string) Error {
	e := newError(CodeNone)
	e.msg = msg
	return e
}

// Wrap attaches a message and classification to an existing error.
func Wrap(c CodeError, msg string, parent error) Error {
	e := newError(c)
	e.msg = msg
	if parent != nil {
		e.ref = append(e.ref, parent)
	}
	return e
}

func (e *ers) Error() string {
	if e.msg == "" {
		if len(e.ref) > 0 {
			return e.ref[0].Error()
		}
		return e.code.String()
	}
	if e.code != CodeNone {
		return fmt.Sprintf("[%s] %s", e.code, e.msg)
	}
	return e.msg
}

func (e *ers) Code() CodeError { return e.code }

func (e *ers) Is(c CodeError) bool {
	if e.code == c {
		return true
	}
	for _, p := range e.ref {
		if ce, ok := p.(Error); ok && ce.Is(c) {
			return true
		}
	}
	return false
}

func (e *ers) Add(parent ...error) {
	for _, p := range parent {
		if p != nil {
			e.ref = append(e.ref, p)
		}
	}
}

func (e *ers) Unwrap() []error { return e.ref }

func (e *ers) Frame() runtime.Frame { return e.frm }
