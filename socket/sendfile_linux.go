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

//go:build linux

package socket

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// sendfileUnix writes up to length bytes of file starting at offset
// directly to conn via the sendfile(2) syscall, the fast path spec.md
// §4.B prescribes when the R/W hook is the unintercepted default.
func sendfileUnix(conn net.Conn, file interface{ Fd() uintptr }, offset, length int64) (int, error) {
	if length <= 0 {
		return 0, nil
	}
	var n int
	var sendErr error
	ctrlErr := controlFd(conn, func(fd uintptr) {
		off := offset
		n, sendErr = unix.Sendfile(int(fd), int(file.Fd()), &off, int(length))
	})
	if ctrlErr != nil {
		return 0, ctrlErr
	}
	if sendErr == unix.EAGAIN {
		return n, syscall.EAGAIN
	}
	return n, sendErr
}
