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

package socket

import "net"

// Hooks intercepts the read/write boundary of one connection, the seam
// spec.md §4.B reserves for TLS, compression, or test shims. The default
// hooks call the connection's Read/Write directly.
//
// Hooks MUST NOT call back into the socket layer for the same UUID from
// within any of these methods (spec.md §4.B). The registry releases the
// connection's slot lock before calling a hook.
type Hooks interface {
	Read(conn net.Conn, buf []byte) (int, error)
	Write(conn net.Conn, buf []byte) (int, error)
	Flush(conn net.Conn) error
	OnClose(conn net.Conn)
}

type directHooks struct{}

// DefaultHooks performs direct, unintercepted reads and writes.
func DefaultHooks() Hooks { return directHooks{} }

func (directHooks) Read(conn net.Conn, buf []byte) (int, error)  { return conn.Read(buf) }
func (directHooks) Write(conn net.Conn, buf []byte) (int, error) { return conn.Write(buf) }
func (directHooks) Flush(net.Conn) error                         { return nil }
func (directHooks) OnClose(net.Conn)                             {}

// isDefault reports whether h is the unintercepted default, used to
// decide whether the sendfile fast path is available (spec.md §4.B: the
// fast path only applies "if the R/W hook is the default").
func isDefault(h Hooks) bool {
	_, ok := h.(directHooks)
	return ok
}
