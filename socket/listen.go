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

import (
	"context"
	"net"
)

// Listen opens a listening socket at addr ("tcp"/"unix" network,
// address string) the way spec.md §4.B's listen() does, returning the
// raw net.Listener for the reactor to drive accept loops on — the
// listener itself never gets a UUID, only the connections it yields.
func Listen(network, addr string) (net.Listener, error) {
	lc := net.ListenConfig{}
	return lc.Listen(context.Background(), network, addr)
}

// Accept registers one connection obtained from ln, returning its
// UUID. Mirrors spec.md §4.B's accept(): O_NONBLOCK is implicit in
// Go's runtime-driven net.Conn, so only TCP_NODELAY needs setting,
// which Register already does.
func (r *Registry) Accept(ln net.Listener) (UUID, net.Conn, error) {
	conn, err := ln.Accept()
	if err != nil {
		return Invalid, nil, err
	}
	return r.Register(conn), conn, nil
}

// Connect dials addr and registers the resulting connection, the
// client-side counterpart of Accept (spec.md §4.B connect()).
func (r *Registry) Connect(ctx context.Context, network, addr string) (UUID, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return Invalid, err
	}
	return r.Register(conn), nil
}

// Open registers an already-established net.Conn — the path used when
// a connection arrives via some mechanism other than this package's own
// Listen/Connect (e.g. a *os.File-backed pipe wrapped by the caller).
func (r *Registry) Open(conn net.Conn) UUID {
	return r.Register(conn)
}
