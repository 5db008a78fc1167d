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

//go:build unix

package socket

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// controllable is implemented by every concrete net.Conn this package
// registers (TCPConn, UnixConn); it exposes the raw fd for the few
// syscalls spec.md §4.B calls for directly (TCP_NODELAY, sendfile).
type controllable interface {
	SyscallConn() (syscall.RawConn, error)
}

// setNoDelay sets TCP_NODELAY directly through golang.org/x/sys/unix, the
// way spec.md §4.B's accept/connect/listen path does right after the
// socket is created.
func setNoDelay(conn net.Conn) {
	if _, ok := conn.(*net.TCPConn); !ok {
		return
	}
	c, ok := conn.(controllable)
	if !ok {
		return
	}
	raw, err := c.SyscallConn()
	if err != nil {
		return
	}
	_ = raw.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	})
}

// supportsRawControl reports whether conn exposes a raw fd for syscalls
// like sendfile(2); net.Pipe's in-memory conn, for instance, does not.
func supportsRawControl(conn net.Conn) bool {
	_, ok := conn.(controllable)
	return ok
}

func controlFd(conn net.Conn, fn func(fd uintptr)) error {
	c, ok := conn.(controllable)
	if !ok {
		return syscall.EINVAL
	}
	raw, err := c.SyscallConn()
	if err != nil {
		return err
	}
	return raw.Control(fn)
}
