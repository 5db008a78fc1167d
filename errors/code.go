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

package errors

// CodeError is a numeric classification attached to an Error, similar in
// spirit to an HTTP status code but scoped to this module's own error
// kinds (see spec.md §7).
type CodeError uint16

const (
	// CodeNone is the zero value: no classification attached.
	CodeNone CodeError = 0

	// CodeTransient marks errors that are expected to clear on their own:
	// EAGAIN/EWOULDBLOCK/EINTR/ENOTCONN/ENOSPC style conditions. Callers
	// yield and retry on the next event.
	CodeTransient CodeError = 100

	// CodeConnectionFatal marks errors that close exactly one connection:
	// other I/O errors, HTTP parse errors, chunk-framing overflows, or a
	// UUID generation mismatch on read/write.
	CodeConnectionFatal CodeError = 200

	// CodeLockContention marks a try-lock failure (EWOULDBLOCK from a lane
	// lock). The caller re-defers the same task; nothing is torn down.
	CodeLockContention CodeError = 300

	// CodeResourceExhausted marks failures that can corrupt shared process
	// state if ignored: task-block allocation failure, cluster socket
	// creation failure, fd-registry allocation failure. These are fatal
	// for the whole process.
	CodeResourceExhausted CodeError = 400

	// CodeUserCallback marks an error surfaced by a caller-supplied
	// callback (an HTTP parser callback returning non-zero, for example).
	CodeUserCallback CodeError = 500
)

// String names a handful of well-known codes for log output; any other
// code prints as "unknown".
func (c CodeError) String() string {
	switch c {
	case CodeNone:
		return "none"
	case CodeTransient:
		return "transient"
	case CodeConnectionFatal:
		return "connection-fatal"
	case CodeLockContention:
		return "lock-contention"
	case CodeResourceExhausted:
		return "resource-exhausted"
	case CodeUserCallback:
		return "user-callback"
	default:
		return "unknown"
	}
}

// Error builds a new Error carrying this code and, optionally, a parent
// error to chain onto.
func (c CodeError) Error(parent error) Error {
	e := newError(c)
	if parent != nil {
		e.Add(parent)
	}
	return e
}

// ErrorParent is an alias of Error kept for readability at call sites that
// always pass a parent (`liberr.CodeConnectionFatal.ErrorParent(e)` reads like
// the teacher's idiom).
func (c CodeError) ErrorParent(parent error) Error {
	return c.Error(parent)
}
