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

// Package reactor binds the socket layer to an event source and runs
// the per-protocol callback dispatch described in spec.md §4.C/§4.D.
// Go's runtime already multiplexes blocking socket I/O onto an
// OS-level epoll/kqueue for us (see net.Conn's integration with the
// netpoller), so this package does not bind a raw epoll/kqueue fd
// itself — instead it runs one reader goroutine per connection and
// turns every readable/writable/error condition into a deferred task,
// which is the behavior spec.md §4.C actually specifies regardless of
// how the readiness notification arrives.
package reactor

import "github.com/boazsegev/facil-go/socket"

// Protocol is the vtable spec.md §3 describes: on_data/on_ready/
// on_shutdown/on_close/ping. Identity equality (not value equality) is
// what distinguishes one protocol instance from another, exactly as
// the source compares service-name pointers.
//
// OnData implementations pull the bytes that triggered the callback via
// the bound Registry's Consume(u) — the reader goroutine has already
// read them off the wire by the time OnData runs.
type Protocol interface {
	OnData(u socket.UUID)
	OnReady(u socket.UUID)
	OnShutdown(u socket.UUID) bool // return false to veto a graceful shutdown wait
	OnClose(u socket.UUID)
	Ping(u socket.UUID)
}

// BaseProtocol gives embedders no-op defaults for the callbacks they
// don't care about, the way most of the source's protocols only
// override on_data.
type BaseProtocol struct{}

func (BaseProtocol) OnData(socket.UUID)          {}
func (BaseProtocol) OnReady(socket.UUID)         {}
func (BaseProtocol) OnShutdown(socket.UUID) bool { return true }
func (BaseProtocol) OnClose(socket.UUID)         {}
func (BaseProtocol) Ping(socket.UUID)            {}
